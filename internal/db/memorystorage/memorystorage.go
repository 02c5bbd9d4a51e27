package memorystorage

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/jayjaytrn/URLMapper/internal/types"
)

// Manager handles in-memory storage for URL mappings.
type Manager struct {
	mu       sync.RWMutex
	mappings []types.URLMapping // ordered by id
	byCode   map[string]int64
	lastID   int64
}

// NewManager initializes a new memory storage manager.
func NewManager() *Manager {
	return &Manager{
		byCode: make(map[string]int64),
	}
}

// Load replaces the contents of the manager with mappings, which must be sorted by id.
// Ids are never reused, so lastID starts from the highest loaded id.
func (m *Manager) Load(mappings []types.URLMapping, lastID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mappings = append([]types.URLMapping(nil), mappings...)
	m.byCode = make(map[string]int64, len(mappings))
	m.lastID = lastID
	for _, u := range mappings {
		m.byCode[u.ShortCode] = u.ID
		if u.ID > m.lastID {
			m.lastID = u.ID
		}
	}
}

// Snapshot returns a copy of every mapping along with the last assigned id.
func (m *Manager) Snapshot() ([]types.URLMapping, int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.URLMapping(nil), m.mappings...), m.lastID
}

// FindByShortCode retrieves the mapping that owns code.
func (m *Manager) FindByShortCode(_ context.Context, code string) (types.URLMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byCode[code]
	if !ok {
		return types.URLMapping{}, &types.NotFoundError{Key: code}
	}
	return m.mappings[m.indexOf(id)], nil
}

// FindByLongURL retrieves the oldest mapping for longURL.
func (m *Manager) FindByLongURL(_ context.Context, longURL string) (types.URLMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.mappings {
		if u.LongURL == longURL {
			return u, nil
		}
	}
	return types.URLMapping{}, &types.NotFoundError{Key: longURL}
}

// FindByID retrieves the mapping with the given id.
func (m *Manager) FindByID(_ context.Context, id int64) (types.URLMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.URLMapping{}, &types.NotFoundError{Key: strconv.FormatInt(id, 10)}
	}
	return m.mappings[i], nil
}

// List returns a copy of all mappings ordered by id.
func (m *Manager) List(_ context.Context) ([]types.URLMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.URLMapping{}, m.mappings...), nil
}

// Exists checks if a given short code is already used.
func (m *Manager) Exists(_ context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byCode[code]
	return ok, nil
}

// Insert stores a new mapping, failing with a ConflictError when code is taken.
func (m *Manager) Insert(_ context.Context, longURL, code string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byCode[code]; ok {
		return 0, &types.ConflictError{ShortCode: code}
	}

	m.lastID++
	m.mappings = append(m.mappings, types.URLMapping{
		ID:        m.lastID,
		LongURL:   longURL,
		ShortCode: code,
	})
	m.byCode[code] = m.lastID
	return m.lastID, nil
}

// Update replaces the long URL of the mapping with the given id.
func (m *Manager) Update(_ context.Context, id int64, longURL string) (types.URLMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.URLMapping{}, &types.NotFoundError{Key: strconv.FormatInt(id, 10)}
	}
	m.mappings[i].LongURL = longURL
	return m.mappings[i], nil
}

// Delete removes the mapping with the given id.
func (m *Manager) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return &types.NotFoundError{Key: strconv.FormatInt(id, 10)}
	}
	delete(m.byCode, m.mappings[i].ShortCode)
	m.mappings = append(m.mappings[:i], m.mappings[i+1:]...)
	return nil
}

// Ping always succeeds for memory storage.
func (m *Manager) Ping(_ context.Context) error {
	return nil
}

// Close releases any allocated resources (not required for memory storage).
func (m *Manager) Close(_ context.Context) error {
	return nil
}

// indexOf returns the position of id in the id-ordered slice, or -1. Callers must hold the lock.
func (m *Manager) indexOf(id int64) int {
	i, ok := slices.BinarySearchFunc(m.mappings, id, func(u types.URLMapping, id int64) int {
		return cmp.Compare(u.ID, id)
	})
	if !ok {
		return -1
	}
	return i
}
