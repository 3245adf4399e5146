// Package pathutil provides small path helpers shared by the filesystem
// facing components.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// RedactPath reduces a full path to .../<parent>/<basename> for error
// messages that may end up in shared logs.
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	parent := filepath.Base(dir)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// WithinDir reports whether path is base itself or inside base. Both are
// cleaned and made absolute; symlinks are not resolved.
func WithinDir(path, base string) bool {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return false
	}
	if absPath == absBase {
		return true
	}
	return strings.HasPrefix(absPath, absBase+string(os.PathSeparator))
}
