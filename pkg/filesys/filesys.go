// Package filesys provides a small collection of file system utilities used
// by the object store: creating the database directory, checking for
// existing registry and header files, and reading and writing them whole.
// It also offers a recursive search for files by extension.
package filesys

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrIsNotDir = errors.New("path isn't a directory")
)

// CreateDir creates a directory at the specified path with the given permissions.
//
// If the directory already exists:
//   - If 'force' is true, it proceeds without error.
//   - If 'force' is false, it returns an error.
//
// It also returns an error if the existing path is a file (not a directory).
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force && !os.IsNotExist(err) {
		if err == nil {
			return fs.ErrExist
		}
		return err
	}

	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}

	return os.Chmod(dirPath, 0755)
}

// DeleteDir deletes a directory and all its contents recursively.
func DeleteDir(path string) error {
	return os.RemoveAll(path)
}

// ReadFile reads the entire content of the file at `filePath` into a byte slice.
func ReadFile(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// WriteFile writes the provided `contents` to the file at `filePath` with the given `permission`.
// If the file does not exist, it will be created. If it exists, it will be truncated.
func WriteFile(filePath string, permission os.FileMode, contents []byte) error {
	return os.WriteFile(filePath, contents, permission)
}

// DeleteFile deletes the file at the specified `filePath`.
func DeleteFile(filePath string) error {
	return os.Remove(filePath)
}

// Exists checks if a file or directory at the given `file` path exists.
func Exists(file string) (bool, error) {
	_, err := os.Stat(file)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// SearchFileExtensions searches for files with a specific `extension` within
// `sourceDir`, skipping any path that contains one of `excludeDirs`.
func SearchFileExtensions(sourceDir string, excludeDirs []string, extension string) ([]string, error) {
	files := make([]string, 0)

	if err := filepath.WalkDir(sourceDir, fs.WalkDirFunc(func(path string, ds fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !ds.IsDir() && !isAncestor(excludeDirs, path) && filepath.Ext(path) == extension {
			files = append(files, path)
		}
		return nil
	})); err != nil {
		return nil, err
	}

	return files, nil
}

// isAncestor reports whether any of excludeDirs is a component of path.
func isAncestor(excludeDirs []string, path string) bool {
	for _, excludeDir := range excludeDirs {
		if strings.Contains(path, excludeDir) {
			return true
		}
	}
	return false
}
