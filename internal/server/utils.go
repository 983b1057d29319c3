package server

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// OSRoot opens root as the serving root. Paths resolved through the
// returned filesystem cannot escape root.
func OSRoot(root string) (afero.Fs, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid serving root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("invalid serving root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("serving root %s is not a directory", absRoot)
	}
	return afero.NewBasePathFs(afero.NewOsFs(), absRoot), nil
}

// cleanRequestPath drops empty, "." and ".." segments so a request can
// never leave the directory its leading segments name. A trailing slash
// is kept.
func cleanRequestPath(rawPath string) string {
	rawPath = strings.ReplaceAll(rawPath, "\\", "/")
	parts := make([]string, 0, strings.Count(rawPath, "/"))
	for _, seg := range strings.Split(rawPath, "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		parts = append(parts, seg)
	}
	p := "/" + strings.Join(parts, "/")
	if p != "/" && strings.HasSuffix(rawPath, "/") {
		p += "/"
	}
	return p
}

// normalizeRequestPath turns a request path into a rooted, slash-separated
// file path with no dot segments.
func normalizeRequestPath(rawPath string) string {
	return path.Clean(cleanRequestPath(rawPath))
}
