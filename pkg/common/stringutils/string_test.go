package stringutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTildePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	assert.Equal(t, filepath.Join(home, ".appprefs", "settings.yaml"), ExpandTildePath("~/.appprefs/settings.yaml"))
	assert.Equal(t, home, ExpandTildePath("~"))
	assert.Equal(t, "/etc/appprefs.yaml", ExpandTildePath("/etc/appprefs.yaml"))
	assert.Equal(t, "relative/~/path", ExpandTildePath("relative/~/path"))
}
