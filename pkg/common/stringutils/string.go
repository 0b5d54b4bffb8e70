package stringutils

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandTildePath replaces a leading ~ with the current user's home directory.
func ExpandTildePath(s string) string {
	if s != "~" && !strings.HasPrefix(s, "~/") {
		return s
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return s
	}
	return filepath.Join(home, strings.TrimPrefix(s, "~"))
}
