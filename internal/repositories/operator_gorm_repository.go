package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tokoadmin/internal/models"
)

// GORMOperatorRepository is a GORM implementation of OperatorRepository.
type GORMOperatorRepository struct {
	db *gorm.DB
}

// NewGORMOperatorRepository creates a new instance of GORMOperatorRepository.
func NewGORMOperatorRepository(db *gorm.DB) *GORMOperatorRepository {
	return &GORMOperatorRepository{
		db: db,
	}
}

// Create creates a new operator in the database.
func (r *GORMOperatorRepository) Create(op *models.Operator) error {
	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	if err := r.db.Create(op).Error; err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}
	return nil
}

// Save updates every column of an existing operator.
func (r *GORMOperatorRepository) Save(op *models.Operator) error {
	if err := r.db.Save(op).Error; err != nil {
		return fmt.Errorf("failed to save operator %s: %w", op.Username, err)
	}
	return nil
}

// GetByUsername retrieves an operator by username.
func (r *GORMOperatorRepository) GetByUsername(username string) (*models.Operator, error) {
	var op models.Operator
	if err := r.db.First(&op, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("operator with username %s: %w", username, ErrOperatorNotFound)
		}
		return nil, fmt.Errorf("failed to get operator by username %s: %w", username, err)
	}
	return &op, nil
}

// GetByID retrieves an operator by ID.
func (r *GORMOperatorRepository) GetByID(id string) (*models.Operator, error) {
	var op models.Operator
	if err := r.db.First(&op, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("operator with ID %s: %w", id, ErrOperatorNotFound)
		}
		return nil, fmt.Errorf("failed to get operator by ID %s: %w", id, err)
	}
	return &op, nil
}
