package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestProjectFileReader verifies reads resolve root-relative and escaping paths are rejected.
func TestProjectFileReader(t *testing.T) {
	root := t.TempDir()
	assert.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(root, "data", "f.txt"), []byte("contents"), 0o644))

	reader, err := NewProjectFileReader(root)
	assert.NoError(t, err)

	contents, err := reader.ReadFile("data/f.txt")
	assert.NoError(t, err)
	assert.Equal(t, []byte("contents"), contents)

	// Redundant path elements are cleaned before resolution.
	contents, err = reader.ReadFile("./data/../data/f.txt")
	assert.NoError(t, err)
	assert.Equal(t, []byte("contents"), contents)

	// Paths escaping the root are rejected, not resolved.
	_, err = reader.ReadFile("../outside.txt")
	assert.Error(t, err)
	_, err = reader.ReadFile("data/../../outside.txt")
	assert.Error(t, err)

	// Missing files surface as read errors.
	_, err = reader.ReadFile("data/missing.txt")
	assert.Error(t, err)
}

// TestFileAndDirectoryExists verifies existence checks distinguish files from directories.
func TestFileAndDirectoryExists(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "f.txt")
	assert.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(root))
	assert.True(t, DirectoryExists(root))
	assert.False(t, DirectoryExists(file))
	assert.False(t, DirectoryExists(filepath.Join(root, "missing")))

	assert.NoError(t, MakeDirectory(filepath.Join(root, "a", "b")))
	assert.True(t, DirectoryExists(filepath.Join(root, "a", "b")))
}
