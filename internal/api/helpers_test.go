package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/imggen/internal/auth"
	"github.com/dharsanguruparan/imggen/internal/common"
	"github.com/dharsanguruparan/imggen/internal/config"
	"github.com/dharsanguruparan/imggen/internal/logging"
	"github.com/dharsanguruparan/imggen/internal/model"
	"github.com/dharsanguruparan/imggen/internal/storage"
)

var testSecret = []byte("test-secret")

type fakeUploads struct {
	mu        sync.Mutex
	rows      map[string]*model.Upload
	createErr error
	getErr    error
	creates   int
}

func newFakeUploads() *fakeUploads {
	return &fakeUploads{rows: make(map[string]*model.Upload)}
}

func (f *fakeUploads) Create(ctx context.Context, u *model.Upload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	cp := *u
	f.rows[u.ID] = &cp
	return nil
}

func (f *fakeUploads) Get(ctx context.Context, id string) (*model.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("upload %s: %w", id, common.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

type fakeUsers map[string]*model.User

func (f fakeUsers) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
	}
	return u, nil
}

type failingStore struct{ calls int }

func (f *failingStore) Upload(ctx context.Context, obj storage.Object) (*storage.Result, error) {
	f.calls++
	return nil, fmt.Errorf("upload object: %s", "SlowDown: please reduce your request rate")
}

type scheduled struct{ bucket, key, reason string }

type fakeCompensator struct {
	calls []scheduled
	err   error
}

func (f *fakeCompensator) ScheduleDelete(ctx context.Context, bucket, key, reason string) error {
	f.calls = append(f.calls, scheduled{bucket, key, reason})
	return f.err
}

type harness struct {
	server  *Server
	handler http.Handler
	uploads *fakeUploads
	store   *storage.Memory
}

func testConfig() *config.Config {
	return &config.Config{
		Address:         ":0",
		TokenSecret:     testSecret,
		StorageDriver:   "memory",
		StorageProvider: "r2",
		StorageBucket:   "imggen-uploads",
		PublicURL:       "https://cdn.example.com",
		MaxUploadBytes:  4096,
	}
}

func newHarness(t *testing.T, mutate func(*Deps)) *harness {
	t.Helper()
	cfg := testConfig()
	uploads := newFakeUploads()
	store := storage.NewMemory(cfg.StorageBucket, cfg.PublicURL)
	users := fakeUsers{
		"42": {ID: "42", Email: "alice@example.com"},
		"7":  {ID: "7", Email: "bob@example.com"},
	}
	deps := Deps{
		Uploads: uploads,
		Objects: store,
		Auth:    auth.NewVerifier(testSecret, users, logging.Discard()),
		Logger:  logging.Discard(),
	}
	if mutate != nil {
		mutate(&deps)
	}
	s := New(cfg, deps)
	return &harness{server: s, handler: s.Handler(), uploads: uploads, store: store}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

type filePart struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, file *filePart, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		field := file.field
		if field == "" {
			field = "file"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, file.name))
		if file.contentType != "" {
			h.Set("Content-Type", file.contentType)
		}
		pw, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func uploadRequest(t *testing.T, tok string, file *filePart, fields map[string]string) *http.Request {
	t.Helper()
	body, ct := multipartBody(t, file, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", ct)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req
}

type envelope struct {
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func dataMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &m))
	return m
}

func png(n int) []byte {
	b := make([]byte, n)
	copy(b, []byte("\x89PNG\r\n\x1a\n"))
	return b
}
