package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kaleida/vjdeck/server/internal/httprange"
	"github.com/kaleida/vjdeck/server/internal/observability"
)

// StreamHandler serves video assets under Root, honoring single byte-range
// requests. Path confinement to Root is the sole traversal defense and runs
// before any filesystem access.
type StreamHandler struct {
	Root    string
	Metrics *observability.Metrics
}

var errOutsideRoot = errors.New("path resolves outside asset root")

func (s *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logical, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		s.reply(w, http.StatusBadRequest, "invalid asset path")
		return
	}

	abs, err := s.resolve(logical)
	if err != nil {
		s.reply(w, http.StatusBadRequest, "invalid asset path")
		return
	}

	fi, err := os.Stat(abs)
	if err != nil || !fi.Mode().IsRegular() {
		s.reply(w, http.StatusNotFound, "asset not found")
		return
	}
	size := fi.Size()

	rng, full, err := httprange.Resolve(r.Header.Get("Range"), size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		s.reply(w, http.StatusRequestedRangeNotSatisfiable, err.Error())
		return
	}

	f, err := os.Open(abs)
	if err != nil {
		s.reply(w, http.StatusInternalServerError, "could not open asset")
		return
	}
	defer f.Close()

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", "video/mp4")

	if full {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		s.count(http.StatusOK)
		w.WriteHeader(http.StatusOK)
		s.copy(w, f, size)
		return
	}

	if _, err := f.Seek(rng.Start, io.SeekStart); err != nil {
		s.reply(w, http.StatusInternalServerError, "could not seek asset")
		return
	}
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.Start, rng.End, size))
	w.Header().Set("Content-Length", strconv.FormatInt(rng.Length(), 10))
	s.count(http.StatusPartialContent)
	w.WriteHeader(http.StatusPartialContent)
	s.copy(w, f, rng.Length())
}

// resolve maps a logical request path to an absolute path strictly inside
// Root. Parent segments are rejected up front, then the joined path is
// checked against the root again after cleaning.
func (s *StreamHandler) resolve(logical string) (string, error) {
	logical = strings.ReplaceAll(logical, "\\", "/")
	if logical == "" {
		return "", errOutsideRoot
	}
	for _, seg := range strings.Split(logical, "/") {
		if seg == ".." {
			return "", errOutsideRoot
		}
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	abs := filepath.Join(root, filepath.FromSlash(logical))
	if abs != root && !strings.HasPrefix(abs, root+string(os.PathSeparator)) {
		return "", errOutsideRoot
	}
	if abs == root {
		return "", errOutsideRoot
	}
	return abs, nil
}

// copy streams n bytes to the client. Once headers are out, a failed write
// can only abort the transport; there is no second response to send.
func (s *StreamHandler) copy(w http.ResponseWriter, f *os.File, n int64) {
	if _, err := io.CopyN(w, f, n); err != nil {
		zap.L().Debug("stream aborted", zap.Error(err))
		panic(http.ErrAbortHandler)
	}
}

func (s *StreamHandler) reply(w http.ResponseWriter, status int, body string) {
	s.count(status)
	http.Error(w, body, status)
}

func (s *StreamHandler) count(status int) {
	if s.Metrics != nil {
		s.Metrics.StreamRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	}
}
