package hosts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/eap-updater/internal/config"
)

// Registry defines persistence operations for the registered host set.
// Add and Remove are idempotent: adding a present host or removing an
// absent one is a no-op.
type Registry interface {
	List(ctx context.Context) ([]string, error)
	Contains(ctx context.Context, host string) (bool, error)
	Add(ctx context.Context, host string) error
	Remove(ctx context.Context, host string) error
}

// FileRegistry persists the host set to a YAML file on disk.
type FileRegistry struct {
	// path is the filesystem location of the hosts file.
	path string
	// mu allows concurrent reads and serializes mutations.
	mu sync.RWMutex
}

// hostsFile is the on-disk YAML shape of the registry.
type hostsFile struct {
	// Hosts preserves registration order; membership is still a set.
	Hosts []string `yaml:"hosts"`
}

// NewFileRegistry creates a registry that reads/writes YAML at the provided path.
func NewFileRegistry(path string) *FileRegistry {
	return &FileRegistry{
		path: filepath.Clean(path),
	}
}

// List returns the registered hosts in registration order.
// A missing file is an empty registry, not an error.
func (r *FileRegistry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.load()
}

// Contains reports whether the host is currently registered.
func (r *FileRegistry) Contains(_ context.Context, host string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	registered, err := r.load()
	if err != nil {
		return false, err
	}

	for _, h := range registered {
		if h == host {
			return true, nil
		}
	}

	return false, nil
}

// Add registers the host. Adding an already-present host is a no-op.
func (r *FileRegistry) Add(_ context.Context, host string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	registered, err := r.load()
	if err != nil {
		return err
	}

	for _, h := range registered {
		if h == host {
			return nil
		}
	}

	return r.store(append(registered, host))
}

// Remove unregisters the host. Removing an absent host is a no-op.
func (r *FileRegistry) Remove(_ context.Context, host string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	registered, err := r.load()
	if err != nil {
		return err
	}

	remaining := registered[:0]
	for _, h := range registered {
		if h != host {
			remaining = append(remaining, h)
		}
	}

	if len(remaining) == len(registered) {
		return nil
	}

	return r.store(remaining)
}

// load reads the host set from disk. Callers must hold the lock.
func (r *FileRegistry) load() ([]string, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read hosts file: %w", err)
	}

	var file hostsFile
	if err = yaml.Unmarshal(contents, &file); err != nil {
		return nil, fmt.Errorf("decode hosts file: %w", err)
	}

	return file.Hosts, nil
}

// store writes the host set to disk. Callers must hold the lock.
func (r *FileRegistry) store(registered []string) error {
	data, err := yaml.Marshal(&hostsFile{Hosts: registered})
	if err != nil {
		return fmt.Errorf("encode hosts file: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write hosts file: %w", err)
	}

	return nil
}
