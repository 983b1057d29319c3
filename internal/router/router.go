// Package router decides where the response to a request path comes from.
//
// Routing is a pure function of the request path, the layout and the
// current contents of the serving root: reserved prefixes and asset-like
// paths go to the file system unchanged, everything else is an
// application route answered by the SPA index, the development
// placeholder or a 404, in that order.
package router

import (
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/wasmserve/internal/config"
)

// Kind is the source a route resolves to.
type Kind int

const (
	KindNotFound Kind = iota
	KindStatic        // static-assets prefix
	KindWasm          // WASM-assets prefix
	KindAsset         // API prefix or allow-listed extension
	KindApp           // SPA fallback to the production index
	KindDevPage       // development placeholder page
)

// Kinds lists every kind, in routing order, followed by not-found.
var Kinds = []Kind{KindStatic, KindWasm, KindAsset, KindApp, KindDevPage, KindNotFound}

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindWasm:
		return "wasm"
	case KindAsset:
		return "asset"
	case KindApp:
		return "app"
	case KindDevPage:
		return "dev"
	default:
		return "notfound"
	}
}

// ServesFile reports whether the route is answered from the serving root.
func (k Kind) ServesFile() bool {
	return k == KindStatic || k == KindWasm || k == KindAsset || k == KindApp
}

// Route is the outcome of routing one request path.
type Route struct {
	Kind Kind
	// Path is the slash-separated file path under the serving root for
	// kinds that serve a file; empty otherwise.
	Path string
}

// Layout is the immutable description of the serving root.
type Layout struct {
	OutDir       string
	DevDir       string
	IndexFile    string
	StaticPrefix string
	WasmPrefix   string
	APIPrefix    string
	Assets       []string
}

// NewLayout copies the layout section of the configuration.
func NewLayout(c config.LayoutConfig) Layout {
	return Layout{
		OutDir:       c.OutDir,
		DevDir:       c.DevDir,
		IndexFile:    c.IndexFile,
		StaticPrefix: c.StaticPrefix,
		WasmPrefix:   c.WasmPrefix,
		APIPrefix:    c.APIPrefix,
		Assets:       append([]string(nil), c.Assets...),
	}
}

// DefaultLayout is the layout of a default configuration.
func DefaultLayout() Layout {
	return NewLayout(config.Default().Layout)
}

// IndexPath is the SPA index document, rooted.
func (l Layout) IndexPath() string {
	return path.Join("/", l.OutDir, l.IndexFile)
}

// OutPath is the production output directory, rooted.
func (l Layout) OutPath() string {
	return path.Join("/", l.OutDir)
}

// DevPath is the development artifact directory, rooted.
func (l Layout) DevPath() string {
	return path.Join("/", l.DevDir)
}

// Router routes request paths against a serving root.
type Router struct {
	fs     afero.Fs
	layout Layout
	assets map[string]struct{}
}

// New creates a router over fs, which is the serving root.
func New(fs afero.Fs, layout Layout) *Router {
	assets := make(map[string]struct{}, len(layout.Assets))
	for _, ext := range layout.Assets {
		assets["."+strings.TrimPrefix(ext, ".")] = struct{}{}
	}
	return &Router{fs: fs, layout: layout, assets: assets}
}

// Layout returns the router's layout.
func (r *Router) Layout() Layout {
	return r.layout
}

// Route classifies p, the URL path of a request. The first match wins.
func (r *Router) Route(p string) Route {
	switch {
	case strings.HasPrefix(p, r.layout.StaticPrefix):
		return Route{Kind: KindStatic, Path: p}
	case strings.HasPrefix(p, r.layout.WasmPrefix):
		return Route{Kind: KindWasm, Path: p}
	case r.IsAsset(p):
		return Route{Kind: KindAsset, Path: p}
	}

	// Application route: the filesystem is checked on every request so a
	// build finishing while the server runs is picked up.
	index := r.layout.IndexPath()
	if isFile(r.fs, index) {
		return Route{Kind: KindApp, Path: index}
	}
	if ok, _ := afero.Exists(r.fs, r.layout.DevPath()); ok {
		return Route{Kind: KindDevPage}
	}
	return Route{Kind: KindNotFound}
}

// IsAsset reports whether p is asset-like: under the API prefix or with an
// allow-listed extension. The extension match is case-sensitive.
func (r *Router) IsAsset(p string) bool {
	if strings.HasPrefix(p, r.layout.APIPrefix) {
		return true
	}
	ext := path.Ext(p)
	if ext == "" {
		return false
	}
	_, ok := r.assets[ext]
	return ok
}

func isFile(fs afero.Fs, name string) bool {
	info, err := fs.Stat(name)
	return err == nil && !info.IsDir()
}
