package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRoot(t *testing.T) {
	root := t.TempDir()

	write := func(rel string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	write("WhatsApp Chat with Alice.txt")
	write("family/_chat.txt")
	write("notes.md")          // wrong extension
	write(".hidden/chat.txt")  // hidden dir skipped

	files, err := ScanRoot(root)
	require.NoError(t, err)
	require.Len(t, files, 2)

	byKey := make(map[string]FileInfo)
	for _, f := range files {
		byKey[f.Key] = f
	}

	alice, ok := byKey["WhatsApp Chat with Alice"]
	require.True(t, ok)
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, int64(1), alice.Size)
	assert.NotZero(t, alice.Mtime)

	fam, ok := byKey["family/_chat"]
	require.True(t, ok)
	assert.Equal(t, "family", fam.Name)
}

func TestScanRootMissing(t *testing.T) {
	files, err := ScanRoot(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestChatName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/x/WhatsApp Chat with Alice.txt", "Alice"},
		{"/x/Trip Group/_chat.txt", "Trip Group"},
		{"/x/random-export.txt", "random-export"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ChatName(tt.path), tt.path)
	}
}
