// Package forms holds the create and edit form controllers. A Form owns one
// product draft, validates it continuously and submits it to the backend.
package forms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"tokoadmin/internal/colortags"
	"tokoadmin/internal/format"
	"tokoadmin/internal/images"
	"tokoadmin/internal/models"
	"tokoadmin/internal/repositories"
	"tokoadmin/internal/task"
	"tokoadmin/internal/validation"
	"tokoadmin/pkg/httpclient"
)

// Mode tells a create form from an edit form.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Status is the lifecycle state of a form.
type Status string

const (
	StatusReady      Status = "ready"
	StatusLoading    Status = "loading"
	StatusLoadFailed Status = "load_failed"
)

// DefaultLoadTimeout bounds the edit bootstrap fetch.
const DefaultLoadTimeout = 10 * time.Second

var (
	// ErrLoading is returned by mutations while an edit form is still fetching its record.
	ErrLoading = errors.New("form is still loading")
	// ErrLoadFailed is returned by mutations on an edit form whose record could not be fetched.
	ErrLoadFailed = errors.New("form failed to load")
)

// Navigator leaves the form and shows the refreshed product list.
type Navigator interface {
	ReturnToList(ctx context.Context)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context)

// ReturnToList calls f.
func (f NavigatorFunc) ReturnToList(ctx context.Context) { f(ctx) }

// Deps are the collaborators injected into a form.
type Deps struct {
	Products      repositories.ProductRepository
	Images        images.Codec
	Navigator     Navigator
	PriceCeiling  decimal.Decimal
	ImageMaxBytes int64
	LoadTimeout   time.Duration
	Logger        *slog.Logger
}

// Form is one create or edit draft. It is safe for concurrent use.
type Form struct {
	mu sync.Mutex

	mode      Mode
	productID string
	deps      Deps
	rules     *validation.Rules
	now       func() time.Time

	status  Status
	loadErr string
	loader  *task.Task[*models.Product]

	name        string
	price       string
	description string
	editor      *colortags.Editor
	imageRef    string
	createdAt   *time.Time
	updatedAt   *time.Time

	shown      map[validation.Field]validation.Violations
	lastErr    string
	lastActive time.Time
}

// NewCreate returns an empty, ready create form.
func NewCreate(deps Deps) *Form {
	f := newForm(ModeCreate, deps)
	f.status = StatusReady
	return f
}

// NewEdit returns an edit form for productID and starts fetching the record
// in the background. Until the fetch resolves the form reports StatusLoading.
// Close abandons the fetch.
func NewEdit(ctx context.Context, deps Deps, productID string) *Form {
	f := newForm(ModeEdit, deps)
	f.productID = productID
	f.status = StatusLoading

	timeout := deps.LoadTimeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	f.loader = task.Start(ctx, func(ctx context.Context) (*models.Product, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return deps.Products.GetByID(ctx, productID)
	}, f.loaded)
	return f
}

func newForm(mode Mode, deps Deps) *Form {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Navigator == nil {
		deps.Navigator = NavigatorFunc(func(context.Context) {})
	}
	if deps.ImageMaxBytes <= 0 {
		deps.ImageMaxBytes = images.DefaultMaxBytes
	}
	if deps.Images == nil {
		deps.Images = images.DataURLCodec{MaxBytes: deps.ImageMaxBytes}
	}
	f := &Form{
		mode: mode,
		deps: deps,
		rules: validation.New(validation.Config{
			PriceCeiling:       deps.PriceCeiling,
			RequireDescription: mode == ModeCreate,
		}),
		now:    time.Now,
		editor: colortags.New(nil),
		shown:  make(map[validation.Field]validation.Violations),
	}
	f.lastActive = f.now()
	return f
}

func (f *Form) loaded(p *models.Product, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.status = StatusLoadFailed
		f.loadErr = failureMessage("Failed to load product", err)
		f.deps.Logger.Error("edit form bootstrap failed",
			slog.String("product_id", f.productID),
			slog.String("error", err.Error()),
		)
		return
	}
	f.status = StatusReady
	f.name = p.Name
	f.price = decimal.NewFromFloat(p.Price).String()
	f.description = p.Description
	f.editor = colortags.New(p.Colors)
	f.imageRef = p.ImageURL
	f.createdAt = p.CreatedAt
	f.updatedAt = p.UpdatedAt
}

// WaitLoaded blocks until the edit bootstrap finishes or ctx ends. It
// returns the fetch error, if any. Create forms return immediately.
func (f *Form) WaitLoaded(ctx context.Context) error {
	if f.loader == nil {
		return nil
	}
	_, err := f.loader.Wait(ctx)
	return err
}

// Close abandons a pending bootstrap. A result that arrives later is dropped.
func (f *Form) Close() {
	if f.loader != nil {
		f.loader.Cancel()
	}
}

// Mode returns whether this is a create or an edit form.
func (f *Form) Mode() Mode {
	return f.mode
}

// ProductID returns the record being edited, or "" for a create form.
func (f *Form) ProductID() string {
	return f.productID
}

// LastActive returns the time of the most recent interaction.
func (f *Form) LastActive() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastActive
}

// ready must be called with f.mu held.
func (f *Form) ready() error {
	f.lastActive = f.now()
	switch f.status {
	case StatusLoading:
		return ErrLoading
	case StatusLoadFailed:
		return fmt.Errorf("%w: %s", ErrLoadFailed, f.loadErr)
	}
	return nil
}

func (f *Form) draft() validation.Draft {
	return validation.Draft{
		Name:        f.name,
		Price:       f.price,
		Description: f.description,
		Colors:      f.editor.Tags(),
	}
}

// recheck runs one field rule and records the result as the shown state of
// that field, so a field that becomes valid clears its error.
func (f *Form) recheck(field validation.Field) validation.Violations {
	v := f.rules.ValidateField(field, f.draft())
	if v.Valid() {
		delete(f.shown, field)
	} else {
		f.shown[field] = v
	}
	return v
}

// SetName updates the name and returns its violations.
func (f *Form) SetName(name string) (validation.Violations, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ready(); err != nil {
		return nil, err
	}
	f.name = name
	return f.recheck(validation.FieldName), nil
}

// SetPrice updates the raw price text and returns its violations.
func (f *Form) SetPrice(price string) (validation.Violations, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ready(); err != nil {
		return nil, err
	}
	f.price = price
	return f.recheck(validation.FieldPrice), nil
}

// SetDescription updates the description and returns its violations.
func (f *Form) SetDescription(desc string) (validation.Violations, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ready(); err != nil {
		return nil, err
	}
	f.description = desc
	return f.recheck(validation.FieldDescription), nil
}

func (f *Form) withEditor(fn func(e *colortags.Editor)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ready(); err != nil {
		return err
	}
	fn(f.editor)
	return nil
}

// SetColorInput records the color entry field's text without committing it.
func (f *Form) SetColorInput(text string) error {
	return f.withEditor(func(e *colortags.Editor) { e.SetPendingInput(text) })
}

// CommitColorInput splits text on commas and appends the new colors.
func (f *Form) CommitColorInput(text string) error {
	return f.withEditor(func(e *colortags.Editor) { e.CommitInput(text) })
}

// CommitPendingColors commits whatever is in the color entry field.
func (f *Form) CommitPendingColors() error {
	return f.withEditor(func(e *colortags.Editor) { e.CommitPending() })
}

// RemoveColor drops a color tag.
func (f *Form) RemoveColor(value string) error {
	return f.withEditor(func(e *colortags.Editor) { e.RemoveTag(value) })
}

// BeginColorEdit starts editing the color tag at index.
func (f *Form) BeginColorEdit(index int) error {
	return f.withEditor(func(e *colortags.Editor) { e.BeginEdit(index) })
}

// SetColorEditValue records the working text of the color being edited.
func (f *Form) SetColorEditValue(text string) error {
	return f.withEditor(func(e *colortags.Editor) { e.SetEditingValue(text) })
}

// CommitColorEdit applies the working text to the tag at index.
func (f *Form) CommitColorEdit(index int) error {
	return f.withEditor(func(e *colortags.Editor) { e.CommitEdit(index) })
}

// AttachImage checks the file against the size ceiling and stores the codec's
// reference as the draft image. A rejected file leaves the previous image.
func (f *Form) AttachImage(ctx context.Context, file images.File) error {
	f.mu.Lock()
	if err := f.ready(); err != nil {
		f.mu.Unlock()
		return err
	}
	maxBytes := f.deps.ImageMaxBytes
	if err := images.CheckSize(file, maxBytes); err != nil {
		f.lastErr = fmt.Sprintf("Image must be at most %s", humanBytes(maxBytes))
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	ref, err := f.deps.Images.Encode(ctx, file)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.lastErr = failureMessage("Failed to read image", err)
		return fmt.Errorf("failed to encode image %s: %w", file.Filename(), err)
	}
	f.imageRef = ref
	f.lastErr = ""
	return nil
}

// RemoveImage clears the draft image.
func (f *Form) RemoveImage() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ready(); err != nil {
		return err
	}
	f.imageRef = ""
	return nil
}

// Submit validates the whole draft and sends it to the backend. Any violation
// aborts before the network. On success the navigator is called once and the
// saved product returned; on failure the draft is left intact.
func (f *Form) Submit(ctx context.Context) (*models.Product, error) {
	f.mu.Lock()
	if err := f.ready(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.editor.CommitPending()

	d := f.draft()
	violations := f.rules.Validate(d)
	f.shown = make(map[validation.Field]validation.Violations)
	if !violations.Valid() {
		for _, v := range violations {
			f.shown[v.Field] = append(f.shown[v.Field], v)
		}
		f.lastErr = ""
		f.mu.Unlock()
		return nil, &SubmitError{Kind: ValidationFailure, Message: "Please fix the highlighted fields", Violations: violations}
	}

	price, _ := f.rules.CoercePrice(d.Price)
	payload := models.ProductPayload{
		Name:        d.Name,
		Price:       price.InexactFloat64(),
		Description: d.Description,
		Colors:      d.Colors,
		ImageURL:    f.imageRef,
	}
	mode, id := f.mode, f.productID
	f.mu.Unlock()

	var (
		saved *models.Product
		err   error
	)
	if mode == ModeEdit {
		saved, err = f.deps.Products.Update(ctx, id, payload)
	} else {
		saved, err = f.deps.Products.Create(ctx, payload)
	}
	if err != nil {
		msg := failureMessage("Failed to save product", err)
		f.mu.Lock()
		f.lastErr = msg
		f.mu.Unlock()
		f.deps.Logger.Warn("product submit failed",
			slog.String("mode", string(mode)),
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		return nil, &SubmitError{Kind: NetworkFailure, Message: msg, Err: err}
	}

	f.mu.Lock()
	f.lastErr = ""
	f.mu.Unlock()

	f.deps.Navigator.ReturnToList(ctx)
	return saved, nil
}

// failureMessage builds the single user-facing message for a failed call.
func failureMessage(prefix string, err error) string {
	var statusErr *httpclient.StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.Message() != "":
		return prefix + ": " + statusErr.Message()
	case errors.Is(err, repositories.ErrProductNotFound):
		return prefix + ": product not found"
	case errors.Is(err, httpclient.ErrCircuitOpen):
		return prefix + ": inventory backend unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return prefix + ": request timed out"
	}
	return prefix
}

func humanBytes(n int64) string {
	const mib = 1 << 20
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%d MB", n/mib)
	}
	if n >= 1<<10 && n%(1<<10) == 0 {
		return fmt.Sprintf("%d KB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}

// EditState is the color tag currently being edited.
type EditState struct {
	Index int    `json:"index"`
	Value string `json:"value"`
}

// State is a read-only snapshot of a form.
type State struct {
	Mode               Mode                  `json:"mode"`
	Status             Status                `json:"status"`
	ProductID          string                `json:"product_id,omitempty"`
	Name               string                `json:"name"`
	Price              string                `json:"price"`
	Description        string                `json:"description"`
	Colors             []string              `json:"colors"`
	ColorInput         string                `json:"color_input"`
	Editing            *EditState            `json:"editing,omitempty"`
	ImageRef           string                `json:"image_url,omitempty"`
	Violations         validation.Violations `json:"violations"`
	Errors             map[string]string     `json:"errors,omitempty"`
	LastError          string                `json:"last_error,omitempty"`
	NameCounter        string                `json:"name_counter"`
	DescriptionCounter string                `json:"description_counter"`
	PriceCeiling       string                `json:"price_ceiling"`
	CreatedAt          *time.Time            `json:"created_at,omitempty"`
	UpdatedAt          *time.Time            `json:"updated_at,omitempty"`
}

// State returns a snapshot of the form.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	shown := validation.Violations{}
	for _, field := range []validation.Field{validation.FieldName, validation.FieldPrice, validation.FieldDescription} {
		shown = append(shown, f.shown[field]...)
	}

	s := State{
		Mode:               f.mode,
		Status:             f.status,
		ProductID:          f.productID,
		Name:               f.name,
		Price:              f.price,
		Description:        f.description,
		Colors:             f.editor.Tags(),
		ColorInput:         f.editor.PendingInput(),
		ImageRef:           f.imageRef,
		Violations:         shown,
		LastError:          f.lastErr,
		NameCounter:        format.Counter(utf8.RuneCountInString(f.name), validation.NameMax),
		DescriptionCounter: format.Counter(utf8.RuneCountInString(f.description), validation.DescriptionMax),
		PriceCeiling:       format.Price(f.rules.PriceCeiling().InexactFloat64()),
		CreatedAt:          f.createdAt,
		UpdatedAt:          f.updatedAt,
	}
	if len(shown) > 0 {
		s.Errors = shown.Fields()
	}
	if f.status == StatusLoadFailed {
		s.LastError = f.loadErr
	}
	if i, v, ok := f.editor.Editing(); ok {
		s.Editing = &EditState{Index: i, Value: v}
	}
	return s
}
