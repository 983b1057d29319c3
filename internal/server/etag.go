package server

import (
	"encoding/hex"
	"fmt"
	"io/fs"

	"github.com/zeebo/blake3"
)

// ETag fingerprints a file from its path, size and modification time, so
// the contents never have to be read.
func ETag(name string, info fs.FileInfo) string {
	h := blake3.New()
	_, _ = fmt.Fprintf(h, "%s:%d:%d;", name, info.Size(), info.ModTime().UnixNano())
	return `"` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`
}
