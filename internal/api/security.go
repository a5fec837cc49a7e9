package api

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lingtools/xliffd/internal/validation"
)

var (
	// ErrPathTraversal marks a document path that tries to escape the
	// documents directory.
	ErrPathTraversal = errors.New("path traversal detected")
	// ErrInvalidPath marks a document path or segment id that is
	// malformed for reasons other than traversal.
	ErrInvalidPath = errors.New("invalid path")
)

// ValidatePath checks a document path from a request against the
// documents directory. Paths are always relative to baseDir; anything
// containing "..", an absolute path, or a path that resolves outside
// baseDir is rejected. Returns the cleaned relative path.
func ValidatePath(baseDir, userPath string) (string, error) {
	if userPath == "" {
		return "", fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}
	if strings.Contains(userPath, "..") {
		return "", fmt.Errorf("%w: path contains '..'", ErrPathTraversal)
	}

	clean := filepath.Clean(userPath)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: absolute paths not allowed", ErrInvalidPath)
	}

	// SanitizePath re-checks traversal after normalization, enforces
	// the path length limit, and verifies the joined path stays under
	// baseDir.
	safe, err := validation.SanitizePath(baseDir, clean)
	if err != nil {
		if errors.Is(err, validation.ErrPathTraversal) {
			return "", fmt.Errorf("%w: %v", ErrPathTraversal, err)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return safe, nil
}

// ValidateID checks a segment id taken from a URL path component.
// Segment ids are sdl:seg mid values, but they also end up in journal
// queries and log fields, so they get the same treatment as filenames:
// no separators, no "." or "..", no control characters.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: segment id cannot be empty", ErrInvalidPath)
	}
	if strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("%w: segment id cannot contain path separators", ErrInvalidPath)
	}
	if err := validation.ValidateFilename(id); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if filepath.Base(filepath.Clean(id)) != id {
		return fmt.Errorf("%w: segment id does not normalize to itself", ErrInvalidPath)
	}
	return nil
}
