package s3_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podrecon/internal/config"
	"podrecon/internal/port"
	s3archive "podrecon/internal/storage/s3"
)

type recorded struct {
	method string
	path   string
	body   string
}

func newArchive(t *testing.T, handler http.HandlerFunc) port.ObjectStorage {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	archive, err := s3archive.NewPODArchive(context.Background(), &config.S3Config{
		Region:    "ap-south-1",
		Endpoint:  server.URL,
		AccessKey: "test-access",
		SecretKey: "test-secret",
	})
	require.NoError(t, err)
	return archive
}

func TestPODArchive_Upload(t *testing.T) {
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	archive := newArchive(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()
		w.Header().Set("ETag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
	})

	out, err := archive.Upload(context.Background(), port.UploadInput{
		Bucket:      "pods",
		Key:         "pods/P-1/LR_503021.pdf",
		Body:        bytes.NewReader([]byte("%PDF-1.4")),
		ContentType: "application/pdf",
		Size:        8,
	})

	require.NoError(t, err)
	assert.Equal(t, `"abc123"`, out.ETag)
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, "/pods/pods/P-1/LR_503021.pdf", reqs[0].path)
	assert.Contains(t, reqs[0].body, "%PDF-1.4")
}

func TestPODArchive_Delete(t *testing.T) {
	var method, path string
	archive := newArchive(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	err := archive.Delete(context.Background(), "pods", "pods/P-1/a.pdf")

	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/pods/pods/P-1/a.pdf", path)
}

func TestPODArchive_GetPresignedURL(t *testing.T) {
	archive := newArchive(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("presigning must not call the store, got %s %s", r.Method, r.URL.Path)
	})

	url, err := archive.GetPresignedURL(context.Background(), "pods", "pods/P-1/a.pdf", 900)

	require.NoError(t, err)
	assert.Contains(t, url, "/pods/pods/P-1/a.pdf")
	assert.True(t, strings.Contains(url, "X-Amz-Expires=900"))
	assert.Contains(t, url, "X-Amz-Signature=")
}
