package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tokoadmin/internal/models"
)

// MockActivityRepository is an in-memory implementation of ActivityRepository.
type MockActivityRepository struct {
	entries map[string]models.ActivityEntry
	mu      sync.RWMutex
}

// NewMockActivityRepository creates a new instance of MockActivityRepository.
func NewMockActivityRepository() *MockActivityRepository {
	return &MockActivityRepository{
		entries: make(map[string]models.ActivityEntry),
	}
}

// Create adds an entry.
func (r *MockActivityRepository) Create(entry *models.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	r.entries[entry.ID] = *entry
	return nil
}

// List returns the newest entries first.
func (r *MockActivityRepository) List(limit int) ([]models.ActivityEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.ActivityEntry, 0, len(r.entries))
	for _, e := range r.entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].At.After(list[j].At) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// GetByID returns an entry by its ID.
func (r *MockActivityRepository) GetByID(id string) (*models.ActivityEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("activity entry %s: %w", id, ErrActivityNotFound)
	}
	return &entry, nil
}
