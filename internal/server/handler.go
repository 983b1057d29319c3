package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/Kush-Singh-26/wasmserve/internal/log"
	"github.com/Kush-Singh-26/wasmserve/internal/router"
)

// NotFoundMessage is the body of every 404 the server produces itself.
const NotFoundMessage = "File not found"

// serve answers GET and HEAD for every path; other methods are refused.
func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.unsupported(w, r)
		return
	}

	// Dot segments are dropped before routing, so "/dash-wasm/../x" stays
	// under the WASM prefix instead of reaching /x.
	p := cleanRequestPath(r.URL.Path)
	if p != r.URL.Path {
		r = withPath(r, p)
	}
	route := s.router.Route(p)
	s.metrics.RecordRoute(route.Kind)
	log.Debugw("route", "path", p, "kind", route.Kind.String(), "file", route.Path)

	switch route.Kind {
	case router.KindStatic, router.KindWasm, router.KindAsset:
		s.serveFile(w, r, route.Path, true)
	case router.KindApp:
		s.serveFile(w, r, route.Path, false)
	case router.KindDevPage:
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		writeBody(w, r, DevPage)
	default:
		writeError(w, r, http.StatusNotFound, NotFoundMessage)
	}
}

// serveFile writes the file at name under the serving root. Directories
// are handed to the directory file server when allowDir is set.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, name string, allowDir bool) {
	name = normalizeRequestPath(name)
	f, err := s.fs.Open(name)
	if err != nil {
		writeError(w, r, http.StatusNotFound, NotFoundMessage)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		writeError(w, r, http.StatusNotFound, NotFoundMessage)
		return
	}
	if info.IsDir() {
		if !allowDir {
			writeError(w, r, http.StatusNotFound, NotFoundMessage)
			return
		}
		// Redirects to the slash-terminated path, then serves index.html
		// or a listing.
		s.dirs.ServeHTTP(w, r)
		return
	}

	if s.cfg.Features.ETag {
		w.Header().Set("Etag", ETag(name, info))
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// withPath returns a shallow copy of r whose URL path is p.
func withPath(r *http.Request, p string) *http.Request {
	r2 := new(http.Request)
	*r2 = *r
	u := *r.URL
	u.Path = p
	u.RawPath = ""
	r2.URL = &u
	return r2
}

// unsupported refuses a method the server does not implement.
func (s *Server) unsupported(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordUnsupported()
	writeError(w, r, http.StatusNotImplemented, fmt.Sprintf("Unsupported method ('%s')", r.Method))
}

// writeError sends a plain-text error body. Headers meant for the file
// that was not served are dropped.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	h := w.Header()
	h.Del("Content-Length")
	h.Del("Etag")
	h.Del("Last-Modified")
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	writeBody(w, r, msg)
}

func writeBody(w http.ResponseWriter, r *http.Request, body string) {
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.WriteString(w, body)
}
