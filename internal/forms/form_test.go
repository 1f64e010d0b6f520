package forms

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tokoadmin/internal/images"
	"tokoadmin/internal/models"
	"tokoadmin/internal/repositories"
	"tokoadmin/internal/validation"
	"tokoadmin/pkg/httpclient"
	"tokoadmin/pkg/logger"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Search(ctx context.Context, q models.SearchQuery) ([]models.Product, error) {
	args := m.Called(ctx, q)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, payload models.ProductPayload) (*models.Product, error) {
	args := m.Called(ctx, payload)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, id string, payload models.ProductPayload) (*models.Product, error) {
	args := m.Called(ctx, id, payload)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type countingNavigator struct {
	mu    sync.Mutex
	calls int
}

func (n *countingNavigator) ReturnToList(context.Context) {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
}

func (n *countingNavigator) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

type memFile struct {
	name string
	data []byte
	size int64
}

func (m memFile) Filename() string { return m.name }
func (m memFile) Size() int64      { return m.size }
func (m memFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

type stubCodec struct {
	ref string
	err error
}

func (s stubCodec) Encode(context.Context, images.File) (string, error) { return s.ref, s.err }

func newDeps(repo repositories.ProductRepository, nav Navigator) Deps {
	return Deps{
		Products:  repo,
		Images:    stubCodec{ref: "data:image/png;base64,AAAA"},
		Navigator: nav,
		Logger:    logger.Discard(),
	}
}

func fillValid(t *testing.T, f *Form) {
	t.Helper()
	_, err := f.SetName("Gaming Mouse")
	require.NoError(t, err)
	_, err = f.SetPrice("1200")
	require.NoError(t, err)
	_, err = f.SetDescription("Ergonomic wireless mouse")
	require.NoError(t, err)
}

func TestForm_ContinuousValidationClearsErrors(t *testing.T) {
	f := NewCreate(newDeps(new(MockProductRepository), nil))

	v, err := f.SetName("ab")
	require.NoError(t, err)
	assert.True(t, v.Has(validation.FieldName, validation.TooShort))
	assert.Equal(t, "name must be at least 3 characters", f.State().Errors["name"])
	assert.Equal(t, "2/50", f.State().NameCounter)

	v, err = f.SetName("abc")
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.Empty(t, f.State().Violations)
	assert.Nil(t, f.State().Errors)
}

func TestForm_SubmitWithViolationsMakesNoBackendCall(t *testing.T) {
	repo := new(MockProductRepository)
	nav := &countingNavigator{}
	f := NewCreate(newDeps(repo, nav))
	_, _ = f.SetName("Desk")
	_, _ = f.SetPrice("abc")

	product, err := f.Submit(context.Background())
	assert.Nil(t, product)

	var submitErr *SubmitError
	require.True(t, errors.As(err, &submitErr))
	assert.Equal(t, ValidationFailure, submitErr.Kind)
	assert.True(t, submitErr.Violations.Has(validation.FieldPrice, validation.NotANumber))
	assert.True(t, submitErr.Violations.Has(validation.FieldDescription, validation.TooShort))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, 0, nav.Calls())
	assert.Equal(t, "Desk", f.State().Name)
}

func TestForm_CreateSubmitSuccess(t *testing.T) {
	repo := new(MockProductRepository)
	nav := &countingNavigator{}
	f := NewCreate(newDeps(repo, nav))
	fillValid(t, f)
	require.NoError(t, f.CommitColorInput("black, white"))
	require.NoError(t, f.SetColorInput("red"))

	expected := models.ProductPayload{
		Name:        "Gaming Mouse",
		Price:       1200,
		Description: "Ergonomic wireless mouse",
		Colors:      []string{"black", "white", "red"},
	}
	repo.On("Create", mock.Anything, expected).Return(&models.Product{ID: "p1", Name: "Gaming Mouse"}, nil).Once()

	product, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)
	assert.Equal(t, 1, nav.Calls())
	repo.AssertExpectations(t)
}

func TestForm_SubmitNetworkFailureKeepsDraft(t *testing.T) {
	repo := new(MockProductRepository)
	nav := &countingNavigator{}
	f := NewCreate(newDeps(repo, nav))
	fillValid(t, f)

	backendErr := &httpclient.StatusError{Service: "inventory backend", Status: 400, Messages: []string{"name exists", "try again"}}
	repo.On("Create", mock.Anything, mock.Anything).Return(nil, backendErr).Once()

	_, err := f.Submit(context.Background())
	var submitErr *SubmitError
	require.True(t, errors.As(err, &submitErr))
	assert.Equal(t, NetworkFailure, submitErr.Kind)
	assert.Equal(t, "Failed to save product: name exists, try again", submitErr.Message)
	assert.Equal(t, 0, nav.Calls())

	state := f.State()
	assert.Equal(t, "Gaming Mouse", state.Name)
	assert.Equal(t, "1200", state.Price)
	assert.Equal(t, submitErr.Message, state.LastError)
	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestForm_EditBootstrapAndUpdate(t *testing.T) {
	repo := new(MockProductRepository)
	nav := &countingNavigator{}
	repo.On("GetByID", mock.Anything, "p1").Return(&models.Product{
		ID:     "p1",
		Name:   "Lamp",
		Price:  99.5,
		Colors: []string{"red", "red", "blue"},
	}, nil)

	f := NewEdit(context.Background(), newDeps(repo, nav), "p1")
	require.NoError(t, f.WaitLoaded(context.Background()))

	state := f.State()
	assert.Equal(t, StatusReady, state.Status)
	assert.Equal(t, "99.5", state.Price)
	assert.Equal(t, []string{"red", "blue"}, state.Colors)
	assert.Equal(t, "", state.Description)

	repo.On("Update", mock.Anything, "p1", models.ProductPayload{
		Name:   "Desk Lamp",
		Price:  99.5,
		Colors: []string{"red", "blue"},
	}).Return(&models.Product{ID: "p1", Name: "Desk Lamp"}, nil).Once()

	_, err := f.SetName("Desk Lamp")
	require.NoError(t, err)
	_, err = f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, nav.Calls())
	repo.AssertExpectations(t)
}

func TestForm_MutationsBlockedWhileLoading(t *testing.T) {
	repo := new(MockProductRepository)
	release := make(chan time.Time)
	repo.On("GetByID", mock.Anything, "p1").
		WaitUntil(release).
		Return(&models.Product{ID: "p1", Name: "Lamp", Price: 10}, nil)

	f := NewEdit(context.Background(), newDeps(repo, nil), "p1")
	assert.Equal(t, StatusLoading, f.State().Status)

	_, err := f.SetName("x")
	assert.ErrorIs(t, err, ErrLoading)
	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrLoading)

	close(release)
	require.NoError(t, f.WaitLoaded(context.Background()))
	assert.Equal(t, "Lamp", f.State().Name)
}

func TestForm_CloseDropsLateBootstrap(t *testing.T) {
	repo := new(MockProductRepository)
	release := make(chan time.Time)
	repo.On("GetByID", mock.Anything, "p1").
		WaitUntil(release).
		Return(&models.Product{ID: "p1", Name: "Lamp", Price: 10}, nil)

	f := NewEdit(context.Background(), newDeps(repo, nil), "p1")
	f.Close()
	close(release)

	assert.ErrorIs(t, f.WaitLoaded(context.Background()), context.Canceled)
	<-f.loader.Done()
	assert.Equal(t, StatusLoading, f.State().Status)
	assert.Equal(t, "", f.State().Name)
}

func TestForm_BootstrapFailure(t *testing.T) {
	repo := new(MockProductRepository)
	repo.On("GetByID", mock.Anything, "gone").Return(nil, repositories.ErrProductNotFound)

	f := NewEdit(context.Background(), newDeps(repo, nil), "gone")
	assert.ErrorIs(t, f.WaitLoaded(context.Background()), repositories.ErrProductNotFound)

	state := f.State()
	assert.Equal(t, StatusLoadFailed, state.Status)
	assert.Equal(t, "Failed to load product: product not found", state.LastError)

	_, err := f.SetName("abc")
	assert.ErrorIs(t, err, ErrLoadFailed)
}

func TestForm_AttachImage(t *testing.T) {
	deps := newDeps(new(MockProductRepository), nil)
	deps.ImageMaxBytes = 1024
	f := NewCreate(deps)

	err := f.AttachImage(context.Background(), memFile{name: "big.png", size: 2048})
	assert.ErrorIs(t, err, images.ErrFileTooLarge)
	assert.Equal(t, "Image must be at most 1 KB", f.State().LastError)
	assert.Empty(t, f.State().ImageRef)

	require.NoError(t, f.AttachImage(context.Background(), memFile{name: "ok.png", size: 10}))
	assert.Equal(t, "data:image/png;base64,AAAA", f.State().ImageRef)
	assert.Empty(t, f.State().LastError)

	err = f.AttachImage(context.Background(), memFile{name: "big.png", size: 4096})
	assert.ErrorIs(t, err, images.ErrFileTooLarge)
	assert.Equal(t, "data:image/png;base64,AAAA", f.State().ImageRef)

	require.NoError(t, f.RemoveImage())
	assert.Empty(t, f.State().ImageRef)
}

func TestForm_ImageIncludedInPayload(t *testing.T) {
	repo := new(MockProductRepository)
	f := NewCreate(newDeps(repo, nil))
	fillValid(t, f)
	require.NoError(t, f.AttachImage(context.Background(), memFile{name: "a.png", size: 10}))

	repo.On("Create", mock.Anything, mock.MatchedBy(func(p models.ProductPayload) bool {
		return p.ImageURL == "data:image/png;base64,AAAA"
	})).Return(&models.Product{ID: "p2"}, nil).Once()

	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestForm_ColorEditing(t *testing.T) {
	f := NewCreate(newDeps(new(MockProductRepository), nil))
	require.NoError(t, f.CommitColorInput("red,green"))
	require.NoError(t, f.BeginColorEdit(1))

	state := f.State()
	require.NotNil(t, state.Editing)
	assert.Equal(t, EditState{Index: 1, Value: "green"}, *state.Editing)

	require.NoError(t, f.SetColorEditValue("lime, navy"))
	require.NoError(t, f.CommitColorEdit(1))
	assert.Equal(t, []string{"red", "lime", "navy"}, f.State().Colors)
	assert.Nil(t, f.State().Editing)

	require.NoError(t, f.RemoveColor("red"))
	assert.Equal(t, []string{"lime", "navy"}, f.State().Colors)
}

func TestForm_PriceCeilingIsConfigurable(t *testing.T) {
	deps := newDeps(new(MockProductRepository), nil)
	deps.PriceCeiling = decimal.NewFromInt(100000)
	f := NewCreate(deps)

	v, err := f.SetPrice("90000")
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.Equal(t, "฿100,000", f.State().PriceCeiling)
}

func TestForm_LastActiveAdvances(t *testing.T) {
	f := NewCreate(newDeps(new(MockProductRepository), nil))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return start }
	_, _ = f.SetName("abc")
	assert.Equal(t, start, f.LastActive())
}
