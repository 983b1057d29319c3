package server

import (
	"net/http"
	"strings"
)

// Fixed response header values.
const (
	EmbedderPolicy = "require-corp"
	OpenerPolicy   = "same-origin"
	AllowOrigin    = "*"
	AllowMethods   = "GET, POST, OPTIONS"
	AllowHeaders   = "Content-Type"

	WasmContentType  = "application/wasm"
	WasmCacheControl = "public, max-age=604800" // one week
	JSContentType    = "application/javascript"
)

// Decorate sets the headers every response carries. The content type and
// cache overrides depend only on the trailing suffix of the lower-cased
// request path, never on what is being served.
func Decorate(h http.Header, requestPath string) {
	h.Set("Cross-Origin-Embedder-Policy", EmbedderPolicy)
	h.Set("Cross-Origin-Opener-Policy", OpenerPolicy)
	h.Set("Access-Control-Allow-Origin", AllowOrigin)
	h.Set("Access-Control-Allow-Methods", AllowMethods)
	h.Set("Access-Control-Allow-Headers", AllowHeaders)

	p := strings.ToLower(requestPath)
	switch {
	case strings.HasSuffix(p, ".wasm"):
		h.Set("Content-Type", WasmContentType)
		h.Set("Cache-Control", WasmCacheControl)
	case strings.HasSuffix(p, ".js"):
		h.Set("Content-Type", JSContentType)
	}
}

// decoratingWriter applies Decorate right before the status line goes out,
// so it runs after whatever the handler set and wins over it.
type decoratingWriter struct {
	http.ResponseWriter
	path        string
	wroteHeader bool
}

func (w *decoratingWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		Decorate(w.Header(), w.path)
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *decoratingWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *decoratingWriter) Flush() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *decoratingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// decorate wraps every response, whatever produced it, with Decorate.
func decorate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dw := &decoratingWriter{ResponseWriter: w, path: r.URL.Path}
		next.ServeHTTP(dw, r)
		if !dw.wroteHeader {
			// Handler wrote nothing: still send the decorated headers.
			dw.WriteHeader(http.StatusOK)
		}
	})
}
