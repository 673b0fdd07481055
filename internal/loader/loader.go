// Package loader turns uploaded files into plain text ready for chunking.
// Loaders are registered per file extension; ingestion rejects anything
// without a registered loader before chunking starts.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	appErr "github.com/quarind/docqa/internal/pkg/errors"
)

type Loader interface {
	// Load extracts the document text from the file at path.
	Load(path string) (string, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Loader{}
)

func Register(ext string, l Loader) {
	key := normalizeExt(ext)
	if key == "" || l == nil {
		return
	}
	registryMu.Lock()
	registry[key] = l
	registryMu.Unlock()
}

// ForExtension returns the loader for a file extension (with or without the
// leading dot), or ErrUnsupportedType.
func ForExtension(ext string) (Loader, error) {
	key := normalizeExt(ext)
	registryMu.RLock()
	l := registry[key]
	registryMu.RUnlock()
	if l == nil {
		return nil, fmt.Errorf("%w: .%s", appErr.ErrUnsupportedType, key)
	}
	return l, nil
}

// Load extracts text from path using the loader registered for its extension.
func Load(path string) (string, error) {
	l, err := ForExtension(filepath.Ext(path))
	if err != nil {
		return "", err
	}
	return l.Load(path)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
