package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestNormalizeRequestPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/dash-wasm/app.wasm", "/dash-wasm/app.wasm"},
		{"dash-wasm/app.wasm", "/dash-wasm/app.wasm"},
		{"/a/../b", "/a/b"},
		{"/../../etc/passwd", "/etc/passwd"},
		{"\\out\\index.html", "/out/index.html"},
		{"/_next/static/", "/_next/static"},
		{"", "/"},
	}
	for _, tt := range tests {
		if got := normalizeRequestPath(tt.in); got != tt.want {
			t.Errorf("normalizeRequestPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanRequestPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"", "/"},
		{"/dashboard", "/dashboard"},
		{"/_next/static/chunks/", "/_next/static/chunks/"},
		{"/_next/static/../../.env.local", "/_next/static/.env.local"},
		{"/dash-wasm/../.env.local", "/dash-wasm/.env.local"},
		{"/dash-wasm/./app.wasm", "/dash-wasm/app.wasm"},
		{"//dash-wasm//app.wasm", "/dash-wasm/app.wasm"},
		{"/dash-wasm/..\\..\\x", "/dash-wasm/x"},
		{"/..", "/"},
		{"/a/../", "/a/"},
	}
	for _, tt := range tests {
		if got := cleanRequestPath(tt.in); got != tt.want {
			t.Errorf("cleanRequestPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOSRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "out"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "out", "index.html"), []byte(indexHTML), 0644); err != nil {
		t.Fatal(err)
	}

	fs, err := OSRoot(root)
	if err != nil {
		t.Fatalf("OSRoot() error = %v", err)
	}
	data, err := afero.ReadFile(fs, "/out/index.html")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != indexHTML {
		t.Errorf("ReadFile() = %q, want %q", data, indexHTML)
	}

	if _, err := OSRoot(filepath.Join(root, "missing")); err == nil {
		t.Error("OSRoot() on a missing directory should fail")
	}
	if _, err := OSRoot(filepath.Join(root, "out", "index.html")); err == nil {
		t.Error("OSRoot() on a file should fail")
	}
}
