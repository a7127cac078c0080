package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodHead:
		if r.URL.Path != "/vh-docs" && r.URL.Path != "/vh-docs/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		key := strings.TrimPrefix(r.URL.Path, "/vh-docs/")
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, strings.TrimPrefix(r.URL.Path, "/vh-docs/"))
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeClient(t *testing.T) (*Client, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(),
		config.StorageConfig{Bucket: "vh-docs"},
		config.S3Config{
			Endpoint:     srv.URL,
			Region:       "us-east-1",
			AccessKey:    "test",
			SecretKey:    "test",
			UsePathStyle: true,
		}, nil)
	require.NoError(t, err)
	return client, fake
}

func TestPutWritesObject(t *testing.T) {
	client, fake := newFakeClient(t)

	url, err := client.Put(context.Background(), "documents/o1/platform/INVOICE.pdf", []byte("%PDF-1.7"), "application/pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "/vh-docs/documents/o1/platform/INVOICE.pdf"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []byte("%PDF-1.7"), fake.objects["documents/o1/platform/INVOICE.pdf"])
	assert.Equal(t, "application/pdf", fake.types["documents/o1/platform/INVOICE.pdf"])
}

func TestDeleteRemovesObject(t *testing.T) {
	client, fake := newFakeClient(t)
	_, err := client.Put(context.Background(), "documents/x.pdf", []byte("x"), "application/pdf")
	require.NoError(t, err)

	require.NoError(t, client.Delete(context.Background(), "documents/x.pdf"))
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Empty(t, fake.objects)
}

func TestNormalizeEndpoint(t *testing.T) {
	got, err := normalizeEndpoint("minio:9000", false)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", got)

	got, err = normalizeEndpoint("s3.example.com/", true)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com", got)

	got, err = normalizeEndpoint("", true)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/k.pdf", (&Client{publicBaseURL: "https://cdn.example.com"}).ObjectURL("k.pdf"))
	assert.Equal(t, "http://minio:9000/b/k.pdf", (&Client{endpoint: "http://minio:9000", bucket: "b", pathStyle: true}).ObjectURL("k.pdf"))
	assert.Equal(t, "https://b.s3.amazonaws.com/k.pdf", (&Client{bucket: "b"}).ObjectURL("k.pdf"))
}
