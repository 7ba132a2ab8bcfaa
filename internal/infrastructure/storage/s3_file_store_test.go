package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewS3FileStore_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3FileStore(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3FileStore(&config.StorageConfig{AccessKeyID: "key", SecretKey: "secret"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing credentials return error", func(t *testing.T) {
		_, err := NewS3FileStore(&config.StorageConfig{Bucket: "exports", AccessKeyID: "key"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials are required")
	})

	t.Run("valid config creates store", func(t *testing.T) {
		store, err := NewS3FileStore(&config.StorageConfig{
			Bucket:         "exports",
			AccessKeyID:    "key",
			SecretKey:      "secret",
			Endpoint:       "localhost:9000",
			UsePathStyle:   true,
			RequestTimeout: 5 * time.Second,
		}, WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "exports", store.Bucket())
		assert.Equal(t, 5*time.Second, store.timeout)
	})
}

func TestS3FileStore_EmptyKey(t *testing.T) {
	store, err := NewS3FileStore(&config.StorageConfig{Bucket: "exports", AccessKeyID: "key", SecretKey: "secret"})
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, store.Put(ctx, "", []byte("a"), "text/csv"))
	_, err = store.Get(ctx, "")
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, ""))
}

// fakeS3 serves the path-style object calls the store makes
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/exports")
	key = strings.TrimPrefix(key, "/")

	switch {
	case r.Method == http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		f.objects[key] = "stored"
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		prefix := r.URL.Query().Get("prefix")
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>exports</Name><IsTruncated>false</IsTruncated>`)
		for _, k := range []string{"daily/20240314_csv1.csv", "daily/20240315_csv1.csv", "other/x.csv"} {
			if strings.HasPrefix(k, prefix) {
				b.WriteString("<Contents><Key>" + k + "</Key><Size>1</Size></Contents>")
			}
		}
		b.WriteString("</ListBucketResult>")
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(b.String()))
	case r.Method == http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(body))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeStore(t *testing.T) (*S3FileStore, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string]string{"daily/20240315_csv1.csv": "a,b\n1,2\n"}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewS3FileStore(&config.StorageConfig{
		Bucket:         "exports",
		AccessKeyID:    "key",
		SecretKey:      "secret",
		Endpoint:       srv.URL,
		UsePathStyle:   true,
		RequestTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return store, fake
}

func TestS3FileStore_Get(t *testing.T) {
	store, _ := newFakeStore(t)

	data, err := store.Get(context.Background(), "daily/20240315_csv1.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	_, err = store.Get(context.Background(), "daily/missing.csv")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestS3FileStore_Put(t *testing.T) {
	store, fake := newFakeStore(t)

	err := store.Put(context.Background(), "daily/20240316_csv1.csv", []byte("a\n1\n"), "text/csv")

	require.NoError(t, err)
	assert.Contains(t, fake.objects, "daily/20240316_csv1.csv")
}

func TestS3FileStore_List(t *testing.T) {
	store, _ := newFakeStore(t)

	keys, err := store.List(context.Background(), "daily/")

	require.NoError(t, err)
	assert.Equal(t, []string{"daily/20240314_csv1.csv", "daily/20240315_csv1.csv"}, keys)
}

// Runs against a real S3-compatible endpoint when ERP_STORAGE_ENDPOINT is set
func TestIntegration_S3FileStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	endpoint := os.Getenv("ERP_STORAGE_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping integration test. Set ERP_STORAGE_ENDPOINT to a MinIO or RustFS endpoint to enable.")
	}

	store, err := NewS3FileStore(&config.StorageConfig{
		Bucket:       "revrec-integration",
		AccessKeyID:  os.Getenv("ERP_STORAGE_ACCESS_KEY_ID"),
		SecretKey:    os.Getenv("ERP_STORAGE_SECRET_KEY"),
		Endpoint:     endpoint,
		UsePathStyle: true,
	})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.EnsureBucket(ctx))

	key := "integration/20240315_csv1.csv"
	require.NoError(t, store.Put(ctx, key, []byte("a,b\n1,2\n"), "text/csv"))

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	keys, err := store.List(ctx, "integration/")
	require.NoError(t, err)
	assert.Contains(t, keys, key)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
