package eventtype

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// rawEventType is the on-disk YAML shape. The schema template is carried
// as a literal block so token markers survive untouched.
type rawEventType struct {
	ID       string `yaml:"id"`
	Value    string `yaml:"value"`
	Display  string `yaml:"display"`
	Category string `yaml:"category"`
	Schema   string `yaml:"schema"`
}

// FileSystemRepository loads the event-type catalog from *.yaml files in a
// directory. Each file holds exactly one event type. The catalog is loaded
// once at startup and cached in memory.
type FileSystemRepository struct {
	dir string

	mu    sync.RWMutex
	types map[string]EventType
}

// NewFileSystemRepository creates a repository and eagerly loads all event
// types from dir. A missing directory is valid and yields an empty catalog;
// a malformed file or a duplicated value is a load error.
func NewFileSystemRepository(dir string) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{
		dir:   dir,
		types: make(map[string]EventType),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("event type dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("event type path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading event type dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading event type file %s: %w", path, err)
		}

		var raw rawEventType
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing event type file %s: %w", path, err)
		}
		if raw.Value == "" {
			continue
		}

		if _, exists := r.types[raw.Value]; exists {
			return fmt.Errorf("event type %q: duplicate value (check multiple YAML files)", raw.Value)
		}

		id := uuid.New()
		if raw.ID != "" {
			id, err = uuid.Parse(raw.ID)
			if err != nil {
				return fmt.Errorf("event type %q: invalid id: %w", raw.Value, err)
			}
		}

		display := raw.Display
		if display == "" {
			display = raw.Value
		}

		r.types[raw.Value] = EventType{
			ID:       id,
			Value:    raw.Value,
			Display:  display,
			Category: raw.Category,
			Schema:   raw.Schema,
		}
	}
	return nil
}

func (r *FileSystemRepository) Get(_ context.Context, value string) (*EventType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	et, ok := r.types[value]
	if !ok {
		return nil, ErrNotFound
	}
	return &et, nil
}

func (r *FileSystemRepository) List(_ context.Context) ([]EventType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EventType, 0, len(r.types))
	for _, et := range r.types {
		out = append(out, et)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}
