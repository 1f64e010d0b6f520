package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tokoadmin/internal/models"
)

// GORMActivityRepository is a GORM implementation of ActivityRepository.
type GORMActivityRepository struct {
	db *gorm.DB
}

// NewGORMActivityRepository creates a new instance of GORMActivityRepository.
func NewGORMActivityRepository(db *gorm.DB) *GORMActivityRepository {
	return &GORMActivityRepository{db: db}
}

// Create appends an entry, filling ID and timestamp when missing.
func (r *GORMActivityRepository) Create(entry *models.ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}
	return nil
}

// List returns the newest entries first. A non-positive limit returns all.
func (r *GORMActivityRepository) List(limit int) ([]models.ActivityEntry, error) {
	var entries []models.ActivityEntry
	q := r.db.Order("at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}

// GetByID returns one entry.
func (r *GORMActivityRepository) GetByID(id string) (*models.ActivityEntry, error) {
	var entry models.ActivityEntry
	if err := r.db.First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("activity entry %s: %w", id, ErrActivityNotFound)
		}
		return nil, fmt.Errorf("failed to get activity entry %s: %w", id, err)
	}
	return &entry, nil
}
