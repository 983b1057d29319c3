package testutil

import (
	"net/http"
	"net/http/httptest"
	"path"
	"testing"

	"github.com/spf13/afero"
)

// NewFs creates an in-memory serving root with the given files.
// Keys are slash-separated paths relative to the root.
func NewFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		WriteFile(t, fs, name, content)
	}
	return fs
}

// WriteFile writes content at name, creating parent directories.
func WriteFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	name = path.Join("/", name)
	if err := fs.MkdirAll(path.Dir(name), 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", path.Dir(name), err)
	}
	if err := afero.WriteFile(fs, name, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// Mkdir creates an (empty) directory.
func Mkdir(t *testing.T, fs afero.Fs, name string) {
	t.Helper()
	if err := fs.MkdirAll(path.Join("/", name), 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
}

// Remove deletes name and everything below it.
func Remove(t *testing.T, fs afero.Fs, name string) {
	t.Helper()
	if err := fs.RemoveAll(path.Join("/", name)); err != nil {
		t.Fatalf("Failed to remove %s: %v", name, err)
	}
}

// Do runs a request through h and returns the recorded response.
func Do(h http.Handler, method, target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// AssertHeader checks a single response header value.
func AssertHeader(t *testing.T, rec *httptest.ResponseRecorder, key, want string) {
	t.Helper()
	if got := rec.Header().Get(key); got != want {
		t.Errorf("%s = %q, want %q", key, got, want)
	}
}

// AssertStatus checks the response status code.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Errorf("status = %d, want %d (body %q)", rec.Code, want, rec.Body.String())
	}
}
