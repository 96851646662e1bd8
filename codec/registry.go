package codec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/weavedoc/weave/weave"
)

// Registry is a directory-backed collection of named weave documents,
// adapted from storage/kvstore.FileKVStore's collection/persist-on-write
// idiom: instead of one JSON blob holding arbitrary StoredValues, each
// entry is a full Weave persisted through the compact codec in its own
// file, with a small JSON manifest mapping names to filenames.
type Registry struct {
	mu       sync.RWMutex
	dir      string
	manifest map[string]string // name -> filename, relative to dir
}

const manifestFile = "registry.json"

// OpenRegistry opens (creating if absent) a document registry rooted at dir.
func OpenRegistry(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	r := &Registry{dir: dir, manifest: make(map[string]string)}

	raw, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &r.manifest); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Put saves w under name, overwriting any document already registered
// with that name, and persists the manifest.
func (r *Registry) Put(name string, w *weave.Weave) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	filename, ok := r.manifest[name]
	if !ok {
		filename = fmt.Sprintf("%x.weave", len(r.manifest)+1)
		for r.filenameTakenLocked(filename) {
			filename = filename + "_"
		}
	}

	if err := SaveToFile(w, filepath.Join(r.dir, filename)); err != nil {
		return err
	}

	r.manifest[name] = filename
	return r.persistManifestLocked()
}

func (r *Registry) filenameTakenLocked(filename string) bool {
	for _, f := range r.manifest {
		if f == filename {
			return true
		}
	}
	return false
}

// Get loads the document registered under name. The second return value
// reports whether the name exists.
func (r *Registry) Get(name string) (*weave.Weave, bool, error) {
	r.mu.RLock()
	filename, ok := r.manifest[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	w, err := LoadFromFile(filepath.Join(r.dir, filename))
	if err != nil {
		return nil, true, err
	}
	return w, true, nil
}

// List returns the names of all registered documents.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.manifest))
	for name := range r.manifest {
		names = append(names, name)
	}
	return names
}

// Delete removes name from the registry and deletes its backing file.
// Reports whether the name was present.
func (r *Registry) Delete(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filename, ok := r.manifest[name]
	if !ok {
		return false, nil
	}

	delete(r.manifest, name)
	if err := r.persistManifestLocked(); err != nil {
		return true, err
	}

	if err := os.Remove(filepath.Join(r.dir, filename)); err != nil && !os.IsNotExist(err) {
		return true, err
	}
	return true, nil
}

func (r *Registry) persistManifestLocked() error {
	raw, err := json.Marshal(r.manifest)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.dir, manifestFile), raw, 0o644)
}
