package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ProjectFileReader reads files confined to a project root directory. It backs the file-read
// cheatcodes: paths are joined root-relative and any path escaping the root is rejected.
type ProjectFileReader struct {
	// root describes the absolute project root directory reads are confined to.
	root string
}

// NewProjectFileReader creates a file reader confined to the provided project root.
// Returns an error if the root cannot be resolved to an absolute path.
func NewProjectFileReader(root string) (*ProjectFileReader, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "could not resolve project root '%s'", root)
	}
	return &ProjectFileReader{root: absRoot}, nil
}

// ReadFile reads the contents of a project-root-relative path.
// Returns an error if the path escapes the project root or the file cannot be read.
func (r *ProjectFileReader) ReadFile(path string) ([]byte, error) {
	resolved := filepath.Join(r.root, filepath.Clean(path))
	if resolved != r.root && !strings.HasPrefix(resolved, r.root+string(os.PathSeparator)) {
		return nil, errors.Errorf("path '%s' escapes the project root", path)
	}
	contents, err := os.ReadFile(resolved)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read file '%s'", path)
	}
	return contents, nil
}

// MakeDirectory creates a directory and any missing parents.
func MakeDirectory(path string) error {
	err := os.MkdirAll(path, 0o755)
	return errors.WithStack(err)
}

// FileExists indicates whether a regular file exists at the given path.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DirectoryExists indicates whether a directory exists at the given path.
func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
