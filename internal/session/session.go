// Package session tracks open documents across operations. Documents
// are keyed by canonical path so repeated opens of the same file reuse
// the in-memory overlay instead of silently discarding pending edits.
package session

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/lingtools/xliffd/core/errors"
	"github.com/lingtools/xliffd/core/sdlxliff"
	"github.com/lingtools/xliffd/internal/logging"
	"github.com/lingtools/xliffd/internal/validation"
)

// Manager holds the open documents. Safe for concurrent use; the
// Documents it hands out are not, so callers serialize per document.
type Manager struct {
	mu   sync.Mutex
	docs map[string]*sdlxliff.Document
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{docs: make(map[string]*sdlxliff.Document)}
}

// Open returns the document at path, parsing it on first use. A cached
// document whose file changed on disk is reparsed, unless it carries
// pending edits: those are never dropped behind the caller's back, so
// the stale copy is returned with a warning logged.
func (m *Manager) Open(path string) (*sdlxliff.Document, error) {
	if err := validation.ValidateDocumentPath(path); err != nil {
		logging.SecurityEvent("path_rejected", "session", "path", path, "error", err.Error())
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	key, err := canonical(path)
	if err != nil {
		return nil, errors.NewIO("resolve", path, err)
	}

	info, err := os.Stat(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Resource: "document", ID: path, Err: err}
		}
		return nil, errors.NewIO("stat", path, err)
	}
	if err := validation.CheckDocumentSize(info.Size()); err != nil {
		return nil, errors.Wrap(errors.ErrDocumentTooLarge, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if doc, ok := m.docs[key]; ok {
		changed, err := fileChanged(key, doc.Fingerprint())
		if err != nil {
			return nil, err
		}
		if !changed {
			return doc, nil
		}
		if doc.HasPendingEdits() {
			logging.Warn("document changed on disk, keeping session with pending edits",
				"path", key, "pending_edits", len(doc.PendingEdits()))
			return doc, nil
		}
		delete(m.docs, key)
	}

	doc, err := sdlxliff.Open(key)
	if err != nil {
		return nil, err
	}
	m.docs[key] = doc
	return doc, nil
}

// Get returns an already-open document without touching the disk.
func (m *Manager) Get(path string) (*sdlxliff.Document, error) {
	key, err := canonical(path)
	if err != nil {
		return nil, errors.NewIO("resolve", path, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, errors.NewNotFound("session", path)
	}
	return doc, nil
}

// Close drops the document and its overlay from the session. It
// reports whether a document was open for path.
func (m *Manager) Close(path string) bool {
	key, err := canonical(path)
	if err != nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[key]
	delete(m.docs, key)
	return ok
}

// Paths lists the canonical paths of all open documents, sorted.
func (m *Manager) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.docs))
	for p := range m.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// fileChanged compares the on-disk bytes against a cached fingerprint.
func fileChanged(path, fingerprint string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, errors.NewIO("read", path, err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]) != fingerprint, nil
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	// Resolve symlinks when the target exists; fall back to the
	// absolute path for not-yet-created files.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
