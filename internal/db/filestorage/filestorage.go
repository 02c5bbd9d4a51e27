package filestorage

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/jayjaytrn/URLMapper/internal/db/memorystorage"
	"github.com/jayjaytrn/URLMapper/internal/types"
)

// header is the first line of the storage file.
type header struct {
	LastID int64 `json:"last_id"`
}

// Manager keeps mappings in memory and persists them as JSON lines.
// Every mutation rewrites the whole file and renames it into place before returning.
type Manager struct {
	mu   sync.RWMutex
	path string
	mem  *memorystorage.Manager
}

// NewManager opens (or creates) the storage file at path and loads its contents.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		return nil, errors.New("file storage path is empty")
	}

	fm := &Manager{
		path: path,
		mem:  memorystorage.NewManager(),
	}
	if err := fm.LoadURLStorageFromFile(); err != nil {
		return nil, fmt.Errorf("failed to load URL storage from file: %w", err)
	}
	return fm, nil
}

func (fm *Manager) FindByShortCode(ctx context.Context, code string) (types.URLMapping, error) {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.mem.FindByShortCode(ctx, code)
}

func (fm *Manager) FindByLongURL(ctx context.Context, longURL string) (types.URLMapping, error) {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.mem.FindByLongURL(ctx, longURL)
}

func (fm *Manager) FindByID(ctx context.Context, id int64) (types.URLMapping, error) {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.mem.FindByID(ctx, id)
}

func (fm *Manager) List(ctx context.Context) ([]types.URLMapping, error) {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.mem.List(ctx)
}

func (fm *Manager) Exists(ctx context.Context, code string) (bool, error) {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.mem.Exists(ctx, code)
}

func (fm *Manager) Insert(ctx context.Context, longURL, code string) (int64, error) {
	var id int64
	err := fm.mutate(func() error {
		var err error
		id, err = fm.mem.Insert(ctx, longURL, code)
		return err
	})
	return id, err
}

func (fm *Manager) Update(ctx context.Context, id int64, longURL string) (types.URLMapping, error) {
	var updated types.URLMapping
	err := fm.mutate(func() error {
		var err error
		updated, err = fm.mem.Update(ctx, id, longURL)
		return err
	})
	return updated, err
}

func (fm *Manager) Delete(ctx context.Context, id int64) error {
	return fm.mutate(func() error {
		return fm.mem.Delete(ctx, id)
	})
}

// Ping checks that the directory holding the storage file is still there.
func (fm *Manager) Ping(_ context.Context) error {
	if _, err := os.Stat(filepath.Dir(fm.path)); err != nil {
		return fmt.Errorf("file storage not available: %w", err)
	}
	return nil
}

func (fm *Manager) Close(_ context.Context) error {
	return nil
}

// mutate applies change to the in-memory index and persists the result.
// If persisting fails the index is rolled back, so readers never see unsaved rows.
func (fm *Manager) mutate(change func() error) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	prev, prevLastID := fm.mem.Snapshot()
	if err := change(); err != nil {
		return err
	}

	if err := fm.WriteURLs(); err != nil {
		fm.mem.Load(prev, prevLastID)
		return err
	}
	return nil
}

// WriteURLs rewrites the storage file from the in-memory index.
func (fm *Manager) WriteURLs() error {
	mappings, lastID := fm.mem.Snapshot()

	tmp, err := os.CreateTemp(filepath.Dir(fm.path), filepath.Base(fm.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	if err = enc.Encode(header{LastID: lastID}); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, u := range mappings {
		if err = enc.Encode(u); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write URL %d: %w", u.ID, err)
		}
	}
	if err = w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush storage file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync storage file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close storage file: %w", err)
	}

	if err = os.Rename(tmp.Name(), fm.path); err != nil {
		return fmt.Errorf("failed to replace storage file: %w", err)
	}
	return nil
}

// checkRecords sorts mappings by id in place and rejects duplicate ids or codes.
func checkRecords(mappings []types.URLMapping) error {
	slices.SortFunc(mappings, func(a, b types.URLMapping) int {
		return cmp.Compare(a.ID, b.ID)
	})

	codes := make(map[string]int64, len(mappings))
	for i, u := range mappings {
		if i > 0 && mappings[i-1].ID == u.ID {
			return fmt.Errorf("bad storage record: duplicate id %d", u.ID)
		}
		if owner, ok := codes[u.ShortCode]; ok {
			return fmt.Errorf("bad storage record: short code %s used by ids %d and %d", u.ShortCode, owner, u.ID)
		}
		codes[u.ShortCode] = u.ID
	}
	return nil
}

// LoadURLStorageFromFile reads the storage file into memory. A missing or empty file means an empty store.
func (fm *Manager) LoadURLStorageFromFile() error {
	file, err := os.Open(fm.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()

	var (
		h        header
		mappings []types.URLMapping
		first    = true
	)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if first {
			first = false
			if err = json.Unmarshal(line, &h); err != nil {
				return fmt.Errorf("bad storage header: %w", err)
			}
			continue
		}

		var u types.URLMapping
		if err = json.Unmarshal(line, &u); err != nil {
			return fmt.Errorf("bad storage record: %w", err)
		}
		mappings = append(mappings, u)
	}
	if err = scanner.Err(); err != nil {
		return err
	}

	if err = checkRecords(mappings); err != nil {
		return err
	}
	fm.mem.Load(mappings, h.LastID)
	return nil
}
