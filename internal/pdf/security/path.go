package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator confines file access to a set of root directories.
// The first root is the base for relative paths.
type PathValidator struct {
	roots []string
}

// NewPathValidator creates a validator for the given roots; empty roots are ignored
func NewPathValidator(roots ...string) (*PathValidator, error) {
	var cleaned []string
	for _, r := range roots {
		if r == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root %s: %w", r, err)
		}
		cleaned = append(cleaned, filepath.Clean(abs))
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	return &PathValidator{roots: cleaned}, nil
}

// GetConfiguredDirectory returns the primary root
func (v *PathValidator) GetConfiguredDirectory() string {
	return v.roots[0]
}

// Resolve turns path into an absolute path and checks that it stays inside a root.
// Relative paths are taken relative to the primary root and NUL bytes are dropped.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.roots[0], path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !v.IsPathWithinRoots(absPath) {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}
	return absPath, nil
}

// ValidateDirectory resolves dirPath and checks that, if it exists, it is a directory
func (v *PathValidator) ValidateDirectory(dirPath string) (string, error) {
	resolved, err := v.Resolve(dirPath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if os.IsNotExist(err) {
		return resolved, nil
	}
	if err != nil {
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", dirPath)
	}
	return resolved, nil
}

// IsPathWithinRoots reports whether an absolute path, and its symlink target, lie inside a root
func (v *PathValidator) IsPathWithinRoots(absPath string) bool {
	cleanPath := filepath.Clean(absPath)

	realPath := cleanPath
	if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
		realPath = resolved
	}

	for _, root := range v.roots {
		// Roots that do not exist yet accept anything under their literal path
		realRoot := root
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			realRoot = resolved
		}

		pathOk := within(cleanPath, root) || within(cleanPath, realRoot)
		realOk := within(realPath, root) || within(realPath, realRoot)
		if pathOk && realOk {
			return true
		}
	}
	return false
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}
