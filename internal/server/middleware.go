package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"

	"github.com/Kush-Singh-26/wasmserve/internal/log"
)

// LogExcludedPrefixes are request paths never logged.
var LogExcludedPrefixes = []string{EventsPath}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.statusCode == 0 {
		rw.statusCode = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// logRequests records response sizes and logs each request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w}

		next.ServeHTTP(wrapped, r)

		s.metrics.RecordBytes(wrapped.written)
		if shouldSkipLogging(r) {
			return
		}
		log.Debugw("http request",
			"method", r.Method,
			"url", r.URL.String(),
			"status", wrapped.statusCode,
			"bytes", wrapped.written,
			"took", time.Since(start).String(),
		)
	})
}

func shouldSkipLogging(r *http.Request) bool {
	for _, prefix := range LogExcludedPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// isPreflight reports whether r is a CORS preflight request.
func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions &&
		r.Header.Get("Origin") != "" &&
		r.Header.Get("Access-Control-Request-Method") != ""
}

// preflight answers CORS preflight requests. Everything else, plain
// OPTIONS included, goes straight to next.
func (s *Server) preflight(next http.Handler) http.Handler {
	h := cors.New(cors.Options{
		AllowedOrigins: []string{AllowOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{AllowHeaders},
		MaxAge:         300,
	}).Handler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isPreflight(r) {
			next.ServeHTTP(w, r)
			return
		}
		s.metrics.RecordPreflight()
		h.ServeHTTP(w, r)
	})
}

// compressedETagSuffix marks the entity tag of an encoded response. gzhttp
// turns it into "-zstd" for zstd responses.
const compressedETagSuffix = "-gzip"

// compress encodes responses for clients that accept it. Encoded responses
// carry their own entity tag, distinct from the identity one.
func compress(next http.Handler) http.Handler {
	wrap, err := gzhttp.NewWrapper(gzhttp.SuffixETag(compressedETagSuffix))
	if err != nil {
		log.Warnw("compression disabled", "error", err.Error())
		return next
	}
	return wrap(next)
}
