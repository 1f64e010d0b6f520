package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"tokoadmin/internal/models"
	"tokoadmin/internal/repositories"
)

// EventPublisher sends product events to a broker.
type EventPublisher interface {
	PublishProductEvent(event any) error
}

// ActivityService records admin mutations and publishes them as events.
type ActivityService struct {
	repo      repositories.ActivityRepository
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewActivityService creates a new ActivityService. publisher may be nil.
func NewActivityService(repo repositories.ActivityRepository, publisher EventPublisher, logger *slog.Logger) *ActivityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Record stores and publishes one mutation. Failures are logged only: the
// product change already happened. A nil receiver does nothing.
func (s *ActivityService) Record(action models.ActivityAction, p *models.Product, operator string) *models.ActivityEntry {
	if s == nil || p == nil {
		return nil
	}
	entry := &models.ActivityEntry{
		Action:      action,
		ProductID:   p.ID,
		ProductName: p.Name,
		Operator:    operator,
		At:          s.now().UTC(),
	}

	if err := s.repo.Create(entry); err != nil {
		s.logger.Error("failed to record activity",
			slog.String("action", string(action)),
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}

	if s.publisher == nil {
		return entry
	}
	if err := s.publisher.PublishProductEvent(entry); err != nil {
		s.logger.Warn("failed to publish product event",
			slog.String("action", string(action)),
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}
	return entry
}

// List returns the newest entries first.
func (s *ActivityService) List(limit int) ([]models.ActivityEntry, error) {
	return s.repo.List(limit)
}

// GetByID returns one entry.
func (s *ActivityService) GetByID(id string) (*models.ActivityEntry, error) {
	return s.repo.GetByID(id)
}

// HandleEvent processes a product event consumed from the broker.
func (s *ActivityService) HandleEvent(body []byte) error {
	var entry models.ActivityEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return fmt.Errorf("failed to decode product event: %w", err)
	}
	if entry.Action == "" || entry.ProductID == "" {
		return fmt.Errorf("product event missing action or product id")
	}
	s.logger.Info("product event received",
		slog.String("action", string(entry.Action)),
		slog.String("product_id", entry.ProductID),
		slog.String("operator", entry.Operator),
	)
	return nil
}
