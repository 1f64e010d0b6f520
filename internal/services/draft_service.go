package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tokoadmin/internal/forms"
	"tokoadmin/internal/images"
	"tokoadmin/internal/models"
	"tokoadmin/internal/repositories"
)

// DefaultDraftTTL is how long an idle draft survives.
const DefaultDraftTTL = 30 * time.Minute

// ErrDraftNotFound is returned for unknown or discarded drafts.
var ErrDraftNotFound = errors.New("draft not found")

// DraftConfig tunes the forms a DraftService opens.
type DraftConfig struct {
	PriceCeiling  decimal.Decimal
	ImageMaxBytes int64
	LoadTimeout   time.Duration
	TTL           time.Duration
}

// Draft is one open create or edit form.
type Draft struct {
	ID       string
	Operator string
	Form     *forms.Form
}

// DraftService keeps the open forms, addressed by uuid.
type DraftService struct {
	productRepo repositories.ProductRepository
	codec       images.Codec
	activity    *ActivityService
	cfg         DraftConfig
	logger      *slog.Logger

	base   context.Context
	cancel context.CancelFunc
	now    func() time.Time

	mu     sync.RWMutex
	drafts map[string]*Draft
}

// NewDraftService creates a new DraftService. activity may be nil.
func NewDraftService(productRepo repositories.ProductRepository, codec images.Codec, activity *ActivityService, cfg DraftConfig, logger *slog.Logger) *DraftService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultDraftTTL
	}
	base, cancel := context.WithCancel(context.Background())
	return &DraftService{
		productRepo: productRepo,
		codec:       codec,
		activity:    activity,
		cfg:         cfg,
		logger:      logger,
		base:        base,
		cancel:      cancel,
		now:         time.Now,
		drafts:      make(map[string]*Draft),
	}
}

// Open starts a create draft, or an edit draft when productID is set. Edit
// drafts load in the background; their form reports loading until then.
func (s *DraftService) Open(productID, operator string) *Draft {
	s.Prune()

	d := &Draft{ID: uuid.New().String(), Operator: operator}
	deps := forms.Deps{
		Products:      s.productRepo,
		Images:        s.codec,
		Navigator:     forms.NavigatorFunc(func(context.Context) { s.remove(d.ID) }),
		PriceCeiling:  s.cfg.PriceCeiling,
		ImageMaxBytes: s.cfg.ImageMaxBytes,
		LoadTimeout:   s.cfg.LoadTimeout,
		Logger:        s.logger.With(slog.String("draft_id", d.ID)),
	}
	if productID == "" {
		d.Form = forms.NewCreate(deps)
	} else {
		d.Form = forms.NewEdit(s.base, deps, productID)
	}

	s.mu.Lock()
	s.drafts[d.ID] = d
	s.mu.Unlock()

	s.logger.Debug("draft opened",
		slog.String("draft_id", d.ID),
		slog.String("mode", string(d.Form.Mode())),
		slog.String("product_id", productID),
	)
	return d
}

// Get returns an open draft.
func (s *DraftService) Get(id string) (*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, ErrDraftNotFound)
	}
	return d, nil
}

// Discard closes a draft, abandoning any pending load.
func (s *DraftService) Discard(id string) error {
	if !s.remove(id) {
		return fmt.Errorf("draft %s: %w", id, ErrDraftNotFound)
	}
	return nil
}

// Submit sends a draft to the backend. A successful submit records the
// activity and closes the draft.
func (s *DraftService) Submit(ctx context.Context, id string) (*models.Product, error) {
	d, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	product, err := d.Form.Submit(ctx)
	if err != nil {
		return nil, err
	}

	action := models.ActionCreated
	if d.Form.Mode() == forms.ModeEdit {
		action = models.ActionUpdated
	}
	s.activity.Record(action, product, d.Operator)
	return product, nil
}

// Prune discards drafts idle for longer than the TTL and returns how many.
func (s *DraftService) Prune() int {
	if s.cfg.TTL < 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.TTL)

	s.mu.Lock()
	var stale []*Draft
	for id, d := range s.drafts {
		if d.Form.LastActive().Before(cutoff) {
			stale = append(stale, d)
			delete(s.drafts, id)
		}
	}
	s.mu.Unlock()

	for _, d := range stale {
		d.Form.Close()
		s.logger.Debug("draft expired", slog.String("draft_id", d.ID))
	}
	return len(stale)
}

// Len returns the number of open drafts.
func (s *DraftService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

// Close discards every draft and cancels pending loads.
func (s *DraftService) Close() {
	s.mu.Lock()
	drafts := s.drafts
	s.drafts = make(map[string]*Draft)
	s.mu.Unlock()

	for _, d := range drafts {
		d.Form.Close()
	}
	s.cancel()
}

func (s *DraftService) remove(id string) bool {
	s.mu.Lock()
	d, ok := s.drafts[id]
	delete(s.drafts, id)
	s.mu.Unlock()

	if ok {
		d.Form.Close()
	}
	return ok
}
