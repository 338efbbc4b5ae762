package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by Memory for keys it does not hold.
var ErrNotFound = errors.New("object not found")

// StoredObject is what Memory keeps per key.
type StoredObject struct {
	Buffer      []byte
	ContentType string
	Metadata    map[string]string
}

// Memory keeps objects in a map guarded by an RWMutex. Used for local runs
// (STORAGE_DRIVER=memory) and tests.
type Memory struct {
	mu        sync.RWMutex
	objects   map[string]StoredObject
	bucket    string
	publicURL string
}

// NewMemory constructs a Memory store. publicURL defaults to memory://<bucket>.
func NewMemory(bucket, publicURL string) *Memory {
	if publicURL == "" {
		publicURL = "memory://" + bucket
	}
	return &Memory{
		objects:   make(map[string]StoredObject),
		bucket:    bucket,
		publicURL: publicURL,
	}
}

func (m *Memory) Bucket() string { return m.bucket }

// Upload stores a copy of obj; an existing key is overwritten.
func (m *Memory) Upload(ctx context.Context, obj Object) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, len(obj.Buffer))
	copy(buf, obj.Buffer)
	meta := make(map[string]string, len(obj.Metadata))
	for k, v := range obj.Metadata {
		meta[k] = v
	}
	m.mu.Lock()
	m.objects[obj.Key] = StoredObject{Buffer: buf, ContentType: obj.ContentType, Metadata: meta}
	m.mu.Unlock()

	sum := md5.Sum(buf)
	return &Result{
		Bucket:    m.bucket,
		Key:       obj.Key,
		ETag:      hex.EncodeToString(sum[:]),
		PublicURL: PublicURL(m.publicURL, obj.Key),
	}, nil
}

// Delete removes key; deleting a missing key is not an error, as with S3.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Get returns a copy of the stored object.
func (m *Memory) Get(key string) (StoredObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return StoredObject{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	buf := make([]byte, len(obj.Buffer))
	copy(buf, obj.Buffer)
	obj.Buffer = buf
	return obj, nil
}

// Len reports how many objects are held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
