package server

import (
	"fmt"
	"io"
	"strings"

	"github.com/Kush-Singh-26/wasmserve/internal/config"
	"github.com/Kush-Singh-26/wasmserve/internal/router"
)

const bannerRule = "============================================================"

// PrintBanner writes the startup diagnostics: serving root, URL, build
// state and the headers every response carries.
func PrintBanner(w io.Writer, cfg *config.Config, state router.BuildState) {
	url := cfg.URL()
	p := func(format string, args ...any) { _, _ = fmt.Fprintf(w, format+"\n", args...) }

	p(bannerRule)
	p("🚀 WASMSERVE")
	p(bannerRule)
	p("📁 Serving from: %s", cfg.Server.Root)
	p("🌐 Server URL: %s", url)
	p("📦 Build detected: %s", yesNo(state.Detected()))
	p("")
	p("✅ WASM Headers: Cross-Origin-Embedder-Policy & Cross-Origin-Opener-Policy")
	p("✅ CORS: Enabled for all origins")
	p("✅ Content-Type: Proper WASM and JS content types")
	if cfg.Features.Compress {
		p("✅ Compression: gzip")
	}
	if cfg.Features.Watch {
		p("✅ Auto-reload: events on %s", EventsPath)
	}
	p("")

	if !state.Detected() {
		p("⚠️  WARNING: No build detected!")
		p("   Run 'npm run build' to create a production build")
		p("   Or run 'npm run dev' for development mode")
		p("")
	}

	p("🔗 Open %s in your browser", url)
	p("⏹️  Press Ctrl+C to stop the server")
	p(bannerRule)
}

// PrintBuildState describes what application routes resolve to under
// the given layout.
func PrintBuildState(w io.Writer, cfg *config.Config, state router.BuildState) {
	layout := router.NewLayout(cfg.Layout)
	p := func(format string, args ...any) { _, _ = fmt.Fprintf(w, format+"\n", args...) }

	p("📦 Build state for %s", cfg.Server.Root)
	p("   %-12s %s  %s", layout.OutDir, mark(state.Production), describe(state.Production, "production output"))
	p("   %-12s %s  %s", strings.TrimPrefix(layout.IndexPath(), "/"), mark(state.Index), describe(state.Index, "SPA index"))
	p("   %-12s %s  %s", layout.DevDir, mark(state.Development), describe(state.Development, "development artifacts"))
	p("")
	switch state.Mode() {
	case "production":
		p("✅ Application routes serve %s", strings.TrimPrefix(layout.IndexPath(), "/"))
	case "development":
		p("⚠️  Application routes serve a placeholder: %s", DevInstruction)
	default:
		p("❌ Application routes answer 404; run 'npm run build' or 'npm run dev'")
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func mark(b bool) string {
	if b {
		return "✅"
	}
	return "❌"
}

func describe(found bool, what string) string {
	if found {
		return what
	}
	return what + " (missing)"
}
