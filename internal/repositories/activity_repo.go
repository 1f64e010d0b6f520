package repositories

import (
	"errors"

	"tokoadmin/internal/models"
)

// ErrActivityNotFound is returned when no activity entry matches.
var ErrActivityNotFound = errors.New("activity entry not found")

// ActivityRepository stores the admin activity log.
type ActivityRepository interface {
	Create(entry *models.ActivityEntry) error
	List(limit int) ([]models.ActivityEntry, error)
	GetByID(id string) (*models.ActivityEntry, error)
}
