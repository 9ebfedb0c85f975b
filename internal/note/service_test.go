package note

import (
	apiErrors "collaborative-notes/internal/errors"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, userID uint64, note *Note) error {
	args := m.Called(ctx, userID, note)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uint64) (*Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Note), args.Error(1)
}

func (m *MockRepository) FindOwned(ctx context.Context, id uint64, userID uint64) (*Note, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Note), args.Error(1)
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]Note, NotesMeta, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]Note), args.Get(1).(NotesMeta), args.Error(2)
}

func (m *MockRepository) ListPublic(ctx context.Context, page, pageSize int) ([]Note, NotesMeta, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]Note), args.Get(1).(NotesMeta), args.Error(2)
}

func (m *MockRepository) UpdateOwned(ctx context.Context, id uint64, userID uint64, patch Patch) (*Note, error) {
	args := m.Called(ctx, id, userID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Note), args.Error(1)
}

func (m *MockRepository) DeleteOwned(ctx context.Context, id uint64, userID uint64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func assertAPIStatus(t *testing.T, err error, status int) {
	t.Helper()
	var apiErr *apiErrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, status, apiErr.Status)
}

func TestGetNote_OwnerReadsPrivateNote(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo)

	repo.On("FindByID", mock.Anything, uint64(1)).
		Return(&Note{ID: 1, UserID: 10, Public: false}, nil)

	note, err := service.GetNote(context.Background(), 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), note.ID)
}

func TestGetNote_StrangerReadsPublicNote(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo)

	repo.On("FindByID", mock.Anything, uint64(1)).
		Return(&Note{ID: 1, UserID: 10, Public: true}, nil)

	note, err := service.GetNote(context.Background(), 1, 99)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), note.ID)
}

func TestGetNote_StrangerDeniedPrivateNote(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo)

	repo.On("FindByID", mock.Anything, uint64(1)).
		Return(&Note{ID: 1, UserID: 10, Public: false}, nil)

	// a private note looks like a missing one to anybody else
	_, err := service.GetNote(context.Background(), 1, 99)
	assertAPIStatus(t, err, http.StatusNotFound)
}

func TestGetNote_Missing(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo)

	repo.On("FindByID", mock.Anything, uint64(1)).
		Return(nil, gorm.ErrRecordNotFound)

	_, err := service.GetNote(context.Background(), 1, 10)
	assertAPIStatus(t, err, http.StatusNotFound)
}

func TestGetPublicNote_PrivateIsHidden(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo)

	repo.On("FindByID", mock.Anything, uint64(1)).
		Return(&Note{ID: 1, UserID: 10, Public: false}, nil)

	_, err := service.GetPublicNote(context.Background(), 1)
	assertAPIStatus(t, err, http.StatusNotFound)
}

func TestUpdateNote_EmptyPatchRejected(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo)

	_, err := service.UpdateNote(context.Background(), 1, 10, Patch{})
	assertAPIStatus(t, err, http.StatusBadRequest)
	repo.AssertNotCalled(t, "UpdateOwned")
}

func TestUpdateNote_NonOwnerGetsNotFound(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo)

	title := "Renamed"
	repo.On("UpdateOwned", mock.Anything, uint64(1), uint64(99), mock.Anything).
		Return(nil, gorm.ErrRecordNotFound)

	_, err := service.UpdateNote(context.Background(), 1, 99, Patch{Title: &title})
	assertAPIStatus(t, err, http.StatusNotFound)
}

func TestCanJoin_OwnerAlwaysAllowed(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo)

	repo.On("FindByID", mock.Anything, uint64(1)).
		Return(&Note{ID: 1, UserID: 10, Public: false}, nil)

	assert.NoError(t, service.CanJoin(context.Background(), 1, 10))
}

func TestCanJoin_StrangerAllowedOnPublicNote(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo)

	repo.On("FindByID", mock.Anything, uint64(1)).
		Return(&Note{ID: 1, UserID: 10, Public: true}, nil)

	assert.NoError(t, service.CanJoin(context.Background(), 1, 99))
}

func TestCanJoin_StrangerDeniedOnPrivateNote(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo)

	repo.On("FindByID", mock.Anything, uint64(1)).
		Return(&Note{ID: 1, UserID: 10, Public: false}, nil)

	err := service.CanJoin(context.Background(), 1, 99)
	assertAPIStatus(t, err, http.StatusForbidden)
}
