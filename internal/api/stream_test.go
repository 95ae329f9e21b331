package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamRouter(t *testing.T) (chi.Router, string) {
	t.Helper()
	root := t.TempDir()
	r := chi.NewRouter()
	h := &StreamHandler{Root: root}
	r.Get("/stream/mp4/*", h.ServeHTTP)
	return r, root
}

func writeAsset(t *testing.T, root, rel string, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, data, 0o644))
	return data
}

func TestStreamFullFile(t *testing.T) {
	router, root := newStreamRouter(t)
	data := writeAsset(t, root, "music/clip.mp4", 1000)

	req := httptest.NewRequest(http.MethodGet, "/stream/mp4/music/clip.mp4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
	assert.Equal(t, data, rec.Body.Bytes())
}

func TestStreamByteRange(t *testing.T) {
	router, root := newStreamRouter(t)
	data := writeAsset(t, root, "music/clip.mp4", 1000)

	req := httptest.NewRequest(http.MethodGet, "/stream/mp4/music/clip.mp4", nil)
	req.Header.Set("Range", "bytes=100-199")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 100-199/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "100", rec.Header().Get("Content-Length"))
	assert.Equal(t, data[100:200], rec.Body.Bytes())
}

func TestStreamSuffixRange(t *testing.T) {
	router, root := newStreamRouter(t)
	data := writeAsset(t, root, "clip.mp4", 1000)

	req := httptest.NewRequest(http.MethodGet, "/stream/mp4/clip.mp4", nil)
	req.Header.Set("Range", "bytes=-50")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 950-999/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, data[950:], rec.Body.Bytes())
}

func TestStreamUnsatisfiableRange(t *testing.T) {
	router, root := newStreamRouter(t)
	writeAsset(t, root, "clip.mp4", 1000)

	req := httptest.NewRequest(http.MethodGet, "/stream/mp4/clip.mp4", nil)
	req.Header.Set("Range", "bytes=1000-")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))
	assert.Contains(t, rec.Body.String(), "range not satisfiable")
}

func TestStreamMalformedRange(t *testing.T) {
	router, root := newStreamRouter(t)
	writeAsset(t, root, "clip.mp4", 1000)

	req := httptest.NewRequest(http.MethodGet, "/stream/mp4/clip.mp4", nil)
	req.Header.Set("Range", "notbytes=x")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))
}

func TestStreamMissingAsset(t *testing.T) {
	router, _ := newStreamRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/stream/mp4/nope.mp4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamDirectoryIsNotFound(t *testing.T) {
	router, root := newStreamRouter(t)
	writeAsset(t, root, "music/clip.mp4", 10)

	req := httptest.NewRequest(http.MethodGet, "/stream/mp4/music", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamTraversalRejected(t *testing.T) {
	router, root := newStreamRouter(t)
	// A real file one level above the root that must stay unreachable.
	secret := filepath.Join(filepath.Dir(root), fmt.Sprintf("secret-%d.txt", os.Getpid()))
	require.NoError(t, os.WriteFile(secret, []byte("top secret"), 0o644))
	t.Cleanup(func() { os.Remove(secret) })

	for _, path := range []string{
		"/stream/mp4/../" + filepath.Base(secret),
		"/stream/mp4/../../etc/passwd",
		"/stream/mp4/music/../../" + filepath.Base(secret),
		"/stream/mp4/%2e%2e/" + filepath.Base(secret),
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "path %s", path)
		assert.NotContains(t, rec.Body.String(), "top secret")
	}
}

func TestResolveRejectsBeforeStat(t *testing.T) {
	h := &StreamHandler{Root: "/definitely/not/a/real/root"}

	// resolve is pure path logic; rejection happens with no filesystem
	// involved even when the root itself does not exist.
	for _, logical := range []string{
		"../../etc/passwd",
		"..",
		"a/../../b",
		`..\..\windows\system32`,
		"",
	} {
		_, err := h.resolve(logical)
		assert.Error(t, err, "logical %q", logical)
	}
}

func TestResolveAcceptsNestedPaths(t *testing.T) {
	h := &StreamHandler{Root: "/srv/videos"}

	abs, err := h.resolve("music/sub/clip.mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(abs, filepath.FromSlash("/srv/videos")+string(os.PathSeparator)))
}
