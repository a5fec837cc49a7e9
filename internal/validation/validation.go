// Package validation provides input validation for user-supplied
// document paths and contents: path traversal prevention, extension
// allowlisting, and resource limits.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// Resource limits to prevent exhaustion (CWE-400).
const (
	// MaxDocumentSize is the maximum allowed document size (50 MB).
	MaxDocumentSize = 50 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTraversal        = errors.New("path traversal detected")
	ErrInvalidFilename      = errors.New("invalid filename")
	ErrPathTooLong          = errors.New("path too long")
	ErrFilenameTooLong      = errors.New("filename too long")
	ErrInvalidCharacter     = errors.New("invalid character in path")
	ErrEmptyPath            = errors.New("path cannot be empty")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrDocumentTooLarge     = errors.New("document exceeds size limit")
)

// documentExtensions lists the bilingual file extensions the parser
// accepts. SDLXLIFF is the primary format; plain XLIFF shares the
// structure.
var documentExtensions = map[string]bool{
	".sdlxliff": true,
	".xliff":    true,
	".xlf":      true,
}

// SanitizePath checks a user-supplied relative path against a base
// directory and returns the cleaned path. The path must stay under
// baseDir after cleaning and resolution; "..", absolute paths, and
// over-long paths are rejected.
func SanitizePath(baseDir, userPath string) (string, error) {
	switch {
	case userPath == "":
		return "", ErrEmptyPath
	case len(userPath) > MaxPathLength:
		return "", ErrPathTooLong
	}

	clean := filepath.Clean(userPath)
	switch {
	case strings.Contains(clean, ".."):
		return "", ErrPathTraversal
	case filepath.IsAbs(clean):
		return "", fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}

	// Resolve both sides and confirm the joined path cannot land
	// outside the base directory.
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(baseDir, clean))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", ErrPathTraversal
	}

	return clean, nil
}

// hasControlChar reports whether s contains a null byte or any other
// control character.
func hasControlChar(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// ValidateFilename checks a bare filename for use inside the documents
// directory. Separators, reserved names, control characters, and
// flag-like leading hyphens are all rejected.
func ValidateFilename(filename string) error {
	switch {
	case filename == "":
		return ErrInvalidFilename
	case len(filename) > MaxFilenameLength:
		return ErrFilenameTooLong
	case filename == "." || filename == "..":
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	case strings.ContainsAny(filename, `/\`):
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	case hasControlChar(filename):
		return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
	case strings.HasPrefix(filename, "-"):
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	return nil
}

// ValidatePath checks a path for dangerous characters and length
// without anchoring it to a base directory. Used for CLI arguments,
// where absolute paths are legitimate.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return ErrEmptyPath
	case len(path) > MaxPathLength:
		return ErrPathTooLong
	case hasControlChar(path):
		return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
	}
	return nil
}

// ValidateDocumentPath checks that path is well formed and carries a
// supported bilingual document extension.
func ValidateDocumentPath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !documentExtensions[ext] {
		return fmt.Errorf("%w: %q (expected .sdlxliff, .xliff or .xlf)", ErrUnsupportedExtension, ext)
	}
	return nil
}

// CheckDocumentSize rejects documents above MaxDocumentSize.
func CheckDocumentSize(size int64) error {
	if size > MaxDocumentSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrDocumentTooLarge, size, int64(MaxDocumentSize))
	}
	return nil
}

// LooksLikeXML reports whether buf plausibly starts an XML document:
// optional UTF-8 BOM, optional leading whitespace, then '<'. A cheap
// pre-parse check, not a well-formedness guarantee.
func LooksLikeXML(buf []byte) bool {
	buf = bytes.TrimPrefix(buf, []byte{0xEF, 0xBB, 0xBF})
	buf = bytes.TrimLeft(buf, " \t\r\n")
	if len(buf) == 0 {
		return false
	}
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}
	return buf[0] == '<'
}
