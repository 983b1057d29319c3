package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// changeToTempDir changes to a temp directory and returns a cleanup function
func changeToTempDir(t *testing.T) func() {
	t.Helper()
	tmpDir := t.TempDir()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	return func() {
		if err := os.Chdir(originalDir); err != nil {
			t.Errorf("Failed to restore original directory: %v", err)
		}
	}
}

func writeConfig(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
}

func mustLoad(t *testing.T, args ...string) *Config {
	t.Helper()
	cfg, _, err := Load(args)
	if err != nil {
		t.Fatalf("Load(%v) error: %v", args, err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cleanup := changeToTempDir(t)
	defer cleanup()

	cfg := mustLoad(t)

	wantRoot, _ := os.Getwd()
	if cfg.Server.Root != wantRoot {
		t.Errorf("Server.Root = %q, want %q", cfg.Server.Root, wantRoot)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.Host != "" {
		t.Errorf("Server.Host = %q, want all interfaces", cfg.Server.Host)
	}
	if cfg.Layout.OutDir != "out" {
		t.Errorf("Layout.OutDir = %q, want %q", cfg.Layout.OutDir, "out")
	}
	if cfg.Layout.DevDir != ".next" {
		t.Errorf("Layout.DevDir = %q, want %q", cfg.Layout.DevDir, ".next")
	}
	if cfg.Layout.StaticPrefix != "/_next/static/" {
		t.Errorf("Layout.StaticPrefix = %q", cfg.Layout.StaticPrefix)
	}
	if cfg.Layout.WasmPrefix != "/dash-wasm/" {
		t.Errorf("Layout.WasmPrefix = %q", cfg.Layout.WasmPrefix)
	}
	if cfg.Layout.APIPrefix != "/api/" {
		t.Errorf("Layout.APIPrefix = %q", cfg.Layout.APIPrefix)
	}
	if !reflect.DeepEqual(cfg.Layout.Assets, DefaultAssetExtensions) {
		t.Errorf("Layout.Assets = %v, want %v", cfg.Layout.Assets, DefaultAssetExtensions)
	}
	if cfg.Features.Compress {
		t.Error("Compression should be disabled by default")
	}
	if !cfg.Features.Watch {
		t.Error("Watcher should be enabled by default")
	}
	if !cfg.Features.ETag {
		t.Error("ETags should be enabled by default")
	}
	if cfg.Timeouts.Shutdown != 5*time.Second {
		t.Errorf("Timeouts.Shutdown = %v, want 5s", cfg.Timeouts.Shutdown)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Addr() != ":3000" {
		t.Errorf("Addr() = %q, want %q", cfg.Addr(), ":3000")
	}
	if cfg.URL() != "http://localhost:3000" {
		t.Errorf("URL() = %q, want %q", cfg.URL(), "http://localhost:3000")
	}
}

func TestLoad_FromYAML(t *testing.T) {
	cleanup := changeToTempDir(t)
	defer cleanup()

	writeConfig(t, DefaultConfigFile, `
server:
  host: "127.0.0.1"
  port: 8080
layout:
  wasm: "wasm"
  assets: [".js", "mjs", "wasm"]
features:
  watch: false
  compress: true
timeouts:
  shutdown: 10s
log:
  level: debug
`)

	cfg := mustLoad(t)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Layout.WasmPrefix != "/wasm/" {
		t.Errorf("Layout.WasmPrefix = %q, want %q", cfg.Layout.WasmPrefix, "/wasm/")
	}
	if want := []string{"js", "mjs", "wasm"}; !reflect.DeepEqual(cfg.Layout.Assets, want) {
		t.Errorf("Layout.Assets = %v, want %v", cfg.Layout.Assets, want)
	}
	if cfg.Features.Watch {
		t.Error("Watch should be disabled")
	}
	if !cfg.Features.Compress {
		t.Error("Compress should be enabled")
	}
	if cfg.Timeouts.Shutdown != 10*time.Second {
		t.Errorf("Timeouts.Shutdown = %v, want 10s", cfg.Timeouts.Shutdown)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	// Untouched keys keep their defaults.
	if cfg.Layout.OutDir != "out" {
		t.Errorf("Layout.OutDir = %q, want %q", cfg.Layout.OutDir, "out")
	}
	if cfg.URL() != "http://127.0.0.1:8080" {
		t.Errorf("URL() = %q", cfg.URL())
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	cleanup := changeToTempDir(t)
	defer cleanup()

	writeConfig(t, DefaultConfigFile, "invalid: yaml: content: [")

	// Should not fail and should use defaults
	cfg := mustLoad(t)

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want default 3000", cfg.Server.Port)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	cleanup := changeToTempDir(t)
	defer cleanup()

	if _, _, err := Load([]string{"--config", "nope.yaml"}); err == nil {
		t.Error("Expected an error for an explicitly requested missing config file")
	}
}

func TestLoad_CLIOverrides(t *testing.T) {
	cleanup := changeToTempDir(t)
	defer cleanup()

	writeConfig(t, DefaultConfigFile, `
server:
  port: 8080
`)

	cfg, flags, err := Load([]string{"-p", "9000", "--layout.out", "dist/", "--features.etag=false", "check"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000 (flag beats file)", cfg.Server.Port)
	}
	if cfg.Layout.OutDir != "dist" {
		t.Errorf("Layout.OutDir = %q, want %q", cfg.Layout.OutDir, "dist")
	}
	if cfg.Features.ETag {
		t.Error("ETag should be disabled by flag")
	}
	if got := flags.Args(); len(got) != 1 || got[0] != "check" {
		t.Errorf("Args() = %v, want [check]", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	cleanup := changeToTempDir(t)
	defer cleanup()

	writeConfig(t, DefaultConfigFile, `
server:
  port: 8080
`)
	t.Setenv("WASMSERVE_SERVER_PORT", "7000")
	t.Setenv("WASMSERVE_LOG_LEVEL", "WARN")

	cfg := mustLoad(t)
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000 (env beats file)", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}

	cfg = mustLoad(t, "--server.port", "7100")
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want 7100 (flag beats env)", cfg.Server.Port)
	}
}

func TestLoad_Errors(t *testing.T) {
	cleanup := changeToTempDir(t)
	defer cleanup()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"port too high", []string{"-p", "70000"}, "invalid port"},
		{"port zero", []string{"--server.port", "0"}, "invalid port"},
		{"bad log level", []string{"-l", "chatty"}, "invalid log level"},
		{"unknown flag", []string{"--nope"}, "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load(%v) error = %v, want containing %q", tt.args, err, tt.want)
			}
		})
	}
}

func TestValidate_Clamps(t *testing.T) {
	cfg := Default()
	cfg.Timeouts.Shutdown = time.Millisecond
	cfg.Timeouts.Debounce = time.Hour
	cfg.Layout.OutDir = "../escape"
	cfg.Layout.DevDir = ""
	cfg.Layout.StaticPrefix = "assets"
	cfg.Layout.APIPrefix = "/"
	cfg.Layout.Assets = []string{" ", "."}

	if err := cfg.validate(); err != nil {
		t.Fatalf("validate() error: %v", err)
	}

	if cfg.Timeouts.Shutdown != time.Second {
		t.Errorf("Timeouts.Shutdown = %v, want 1s", cfg.Timeouts.Shutdown)
	}
	if cfg.Timeouts.Debounce != 5*time.Second {
		t.Errorf("Timeouts.Debounce = %v, want 5s", cfg.Timeouts.Debounce)
	}
	if cfg.Layout.OutDir != "out" {
		t.Errorf("Layout.OutDir = %q, want fallback %q", cfg.Layout.OutDir, "out")
	}
	if cfg.Layout.DevDir != ".next" {
		t.Errorf("Layout.DevDir = %q, want fallback %q", cfg.Layout.DevDir, ".next")
	}
	if cfg.Layout.StaticPrefix != "/assets/" {
		t.Errorf("Layout.StaticPrefix = %q, want %q", cfg.Layout.StaticPrefix, "/assets/")
	}
	if cfg.Layout.APIPrefix != "/api/" {
		t.Errorf("Layout.APIPrefix = %q, want fallback %q", cfg.Layout.APIPrefix, "/api/")
	}
	if !reflect.DeepEqual(cfg.Layout.Assets, DefaultAssetExtensions) {
		t.Errorf("Layout.Assets = %v, want defaults", cfg.Layout.Assets)
	}
}
