package repositories

import (
	"errors"

	"tokoadmin/internal/models"
)

// ErrOperatorNotFound is returned when no operator matches.
var ErrOperatorNotFound = errors.New("operator not found")

// OperatorRepository defines the interface for operator data access.
type OperatorRepository interface {
	Create(op *models.Operator) error
	Save(op *models.Operator) error
	GetByUsername(username string) (*models.Operator, error)
	GetByID(id string) (*models.Operator, error)
}
