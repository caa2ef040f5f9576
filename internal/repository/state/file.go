package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	domain "github.com/tanin47/single-instance-deep-link/internal/domain/build"
	"github.com/tanin47/single-instance-deep-link/internal/fsutil"
)

// DefaultFilename is the name of the state file inside the build directory.
const DefaultFilename = ".native-packager-state.yaml"

// Repository defines persistence operations for the stage records.
type Repository interface {
	Load(ctx context.Context) (*domain.State, error)
	Save(ctx context.Context, state *domain.State) error
}

// FileRepository persists the stage records to a YAML file on disk.
type FileRepository struct {
	// path is the filesystem location of the YAML state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
	// last is the most recently saved or loaded state; callers only ever see clones.
	last *domain.State
}

// ErrNotFound is returned when the state file does not exist yet.
var ErrNotFound = errors.New("state not found")

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the location of the state file.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the records from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last != nil {
		return r.last.Clone(), nil
	}

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	state := domain.NewState()
	if err = yaml.Unmarshal(contents, state); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	if state.Stages == nil {
		state.Stages = make(map[string]*domain.Record)
	}

	r.last = state

	return state.Clone(), nil
}

// Save writes the records to disk atomically.
func (r *FileRepository) Save(_ context.Context, state *domain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err = fsutil.WriteFile(r.path, data, fsutil.DefaultFileMode); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	r.last = state.Clone()

	return nil
}

// LoadOrEmpty returns the stored state or an empty one if nothing was saved yet.
func LoadOrEmpty(ctx context.Context, repo Repository) (*domain.State, error) {
	s, err := repo.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return domain.NewState(), nil
	}

	return s, err
}
