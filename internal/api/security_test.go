package api

import (
	"errors"
	"strings"
	"testing"

	"github.com/lingtools/xliffd/internal/validation"
)

func TestValidatePath(t *testing.T) {
	baseDir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr error
	}{
		{
			name: "document in subdirectory",
			path: "projects/job1.sdlxliff",
			want: "projects/job1.sdlxliff",
		},
		{
			name: "leading dot segment cleaned",
			path: "./job1.sdlxliff",
			want: "job1.sdlxliff",
		},
		{
			name: "redundant separators cleaned",
			path: "projects//job1.sdlxliff",
			want: "projects/job1.sdlxliff",
		},
		{
			name:    "empty path",
			path:    "",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "parent traversal",
			path:    "../secrets.sdlxliff",
			wantErr: ErrPathTraversal,
		},
		{
			name:    "embedded traversal",
			path:    "projects/../../etc/passwd",
			wantErr: ErrPathTraversal,
		},
		{
			name:    "traversal hidden behind clean segments",
			path:    "projects/./sub/../../../job1.sdlxliff",
			wantErr: ErrPathTraversal,
		},
		{
			name:    "dotdot as filename prefix",
			path:    "..job1.sdlxliff",
			wantErr: ErrPathTraversal,
		},
		{
			name:    "absolute path",
			path:    "/etc/passwd",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "path over length limit",
			path:    "projects/" + strings.Repeat("a", validation.MaxPathLength),
			wantErr: ErrInvalidPath,
		},
		{
			name:    "backslash traversal",
			path:    `..\..\windows\system32`,
			wantErr: ErrPathTraversal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePath(baseDir, tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected error %v, got %v", tt.wantErr, err)
				}
				if got != "" {
					t.Errorf("Expected empty result on error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidatePathStaysRelative(t *testing.T) {
	baseDir := t.TempDir()

	// A valid path never comes back absolute or pointing above baseDir.
	for _, path := range []string{"job1.sdlxliff", "a/b/c.xlf", "review/./final.xliff"} {
		got, err := ValidatePath(baseDir, path)
		if err != nil {
			t.Fatalf("ValidatePath(%q): %v", path, err)
		}
		if strings.HasPrefix(got, "/") || strings.HasPrefix(got, "..") {
			t.Errorf("ValidatePath(%q) = %q, escapes base directory", path, got)
		}
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "numeric mid", id: "1"},
		{name: "compound mid", id: "42.1"},
		{name: "uuid-style id", id: "b9e5c7a0-1f2d-4e3b-8a6c-0d9e8f7a6b5c"},
		{name: "empty", id: "", wantErr: true},
		{name: "forward slash", id: "1/status", wantErr: true},
		{name: "backslash", id: `1\status`, wantErr: true},
		{name: "current directory", id: ".", wantErr: true},
		{name: "parent directory", id: "..", wantErr: true},
		{name: "traversal attempt", id: "../1", wantErr: true},
		{name: "null byte", id: "1\x002", wantErr: true},
		{name: "newline", id: "1\n2", wantErr: true},
		{name: "leading hyphen", id: "-1", wantErr: true},
		{name: "over length limit", id: strings.Repeat("9", validation.MaxFilenameLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ValidateID(%q) = nil, expected error", tt.id)
				} else if !errors.Is(err, ErrInvalidPath) {
					t.Errorf("ValidateID(%q) = %v, expected %v", tt.id, err, ErrInvalidPath)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateID(%q) = %v, expected nil", tt.id, err)
			}
		})
	}
}
