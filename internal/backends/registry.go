package backends

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"apifp/internal/errors"
)

// Registry holds the backends a build may choose from
type Registry struct {
	backends map[BackendID]Backend
	logger   *slog.Logger

	mu sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		backends: make(map[BackendID]Backend),
		logger:   logger,
	}
}

// RegisterBackend registers a backend, replacing any previous one with the same ID
func (r *Registry) RegisterBackend(backend Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backends[backend.ID()] = backend
	r.logger.Debug("Registered backend",
		"backend", backend.ID(),
		"extensions", strings.Join(backend.Extensions(), ","),
		"available", backend.IsAvailable(),
	)
}

// UnregisterBackend removes a backend from the registry
func (r *Registry) UnregisterBackend(id BackendID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.backends, id)
}

// List returns all registered backends ordered by priority
func (r *Registry) List() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority() != out[j].Priority() {
			return out[i].Priority() < out[j].Priority()
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

// GetAvailableBackends returns the IDs of backends that can run, by priority
func (r *Registry) GetAvailableBackends() []BackendID {
	var available []BackendID
	for _, b := range r.List() {
		if b.IsAvailable() {
			available = append(available, b.ID())
		}
	}
	return available
}

// Get returns the backend with the given ID if it is registered and available
func (r *Registry) Get(id BackendID) (Backend, error) {
	r.mu.RLock()
	b, ok := r.backends[id]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.NewWithFixes(errors.BackendNotFound, "unknown backend "+string(id), nil)
	}
	if !b.IsAvailable() {
		return nil, errors.NewWithFixes(errors.BackendUnavailable, "backend "+string(id)+" is not available in this build", nil)
	}
	return b, nil
}

// ForPath picks the preferred available backend for path. A file is matched
// on its suffix; a directory is matched on the first suffix claimed by any
// file below it, preferring higher-priority backends.
func (r *Registry) ForPath(path string) (Backend, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New(errors.InputInvalid, "cannot read input "+path, err)
	}

	candidates := r.List()
	if !info.IsDir() {
		for _, b := range candidates {
			if b.IsAvailable() && Claims(b, path) {
				return b, nil
			}
		}
		return nil, r.noBackend(path)
	}

	seen := make(map[string]bool)
	_ = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != path && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		seen[suffixOf(p)] = true
		return nil
	})
	for _, b := range candidates {
		if !b.IsAvailable() {
			continue
		}
		for _, ext := range b.Extensions() {
			if seen[ext] {
				return b, nil
			}
		}
	}
	return nil, r.noBackend(path)
}

func (r *Registry) noBackend(path string) error {
	return errors.NewWithFixes(errors.BackendNotFound, "no available backend handles "+path, nil).
		WithDetails(map[string]interface{}{"available": r.GetAvailableBackends()})
}

// Claims reports whether path carries one of b's extensions
func Claims(b Backend, path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range b.Extensions() {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// suffixOf returns the extension used for backend matching. Compound
// suffixes such as ".scip" and ".xml" are single extensions here.
func suffixOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
