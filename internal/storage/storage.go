// Package storage puts uploaded bytes into an object store and reports where
// they can be fetched from. Drivers: MinIO client (Cloudflare R2 and other
// S3-compatible providers), the AWS SDK, and an in-memory store.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/imggen/internal/config"
)

// Object is one upload request to the store.
type Object struct {
	Buffer      []byte
	Key         string
	ContentType string
	Metadata    map[string]string
}

// Result describes a stored object.
type Result struct {
	Bucket    string
	Key       string
	ETag      string
	PublicURL string
}

// Store is implemented by every driver.
type Store interface {
	Upload(ctx context.Context, obj Object) (*Result, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// New picks the driver named by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case "", "minio":
		return NewMinio(cfg)
	case "s3":
		return NewS3(ctx, cfg)
	case "memory":
		return NewMemory(cfg.StorageBucket, cfg.PublicURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// PublicURL joins base and key, escaping each key segment.
func PublicURL(base, key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segs, "/")
}

// endpointBase returns endpoint with a scheme and without a trailing slash.
func endpointBase(endpoint string, useSSL bool) string {
	endpoint = strings.TrimRight(endpoint, "/")
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// endpointHost strips any scheme and trailing slash; minio.New wants host[:port].
func endpointHost(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimRight(endpoint, "/")
}

// endpointURL is the path-style URL used when no public base is configured.
func endpointURL(endpoint, bucket string, useSSL bool) string {
	return endpointBase(endpoint, useSSL) + "/" + bucket
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

const maxNameLen = 100

// SanitizeName reduces a client filename to characters safe in an object key.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeName.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if len(name) > maxNameLen {
		ext := path.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:maxNameLen-len(ext)] + ext
	}
	if name == "" {
		return "unnamed"
	}
	return name
}

var now = time.Now

// GenerateKey derives a key unique per call:
// uploads/<userID>/<yyyy>/<mm>/<uuid>-<sanitized name>.
func GenerateKey(userID, originalName string) string {
	t := now().UTC()
	return fmt.Sprintf("uploads/%s/%04d/%02d/%s-%s",
		SanitizeName(userID), t.Year(), int(t.Month()), uuid.NewString(), SanitizeName(originalName))
}

// headerSafe makes metadata values transportable as HTTP header values.
func headerSafe(meta map[string]string) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		if !isPrintableASCII(v) {
			v = url.QueryEscape(v)
		}
		out[k] = v
	}
	return out
}

func isPrintableASCII(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}
