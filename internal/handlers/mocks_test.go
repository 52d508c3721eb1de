package handlers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/ukydev/placenotes/internal/db"
	"github.com/ukydev/placenotes/internal/models"
	"github.com/ukydev/placenotes/internal/photos"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPlaceStore is a mock implementation of PlaceStore
type MockPlaceStore struct {
	mock.Mock
}

func (m *MockPlaceStore) InsertPlace(ctx context.Context, place models.Place) (models.Place, error) {
	args := m.Called(ctx, place)
	return args.Get(0).(models.Place), args.Error(1)
}

func (m *MockPlaceStore) FindPlaces(ctx context.Context, filter db.PlaceFilter) ([]models.Place, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Place), args.Error(1)
}

func (m *MockPlaceStore) FindPlaceByID(ctx context.Context, id int64) (*models.Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Place), args.Error(1)
}

func (m *MockPlaceStore) UpdatePlace(ctx context.Context, place models.Place) error {
	args := m.Called(ctx, place)
	return args.Error(0)
}

func (m *MockPlaceStore) DeletePlace(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPlaceStore) Save(ctx context.Context, place models.Place) (models.Place, error) {
	args := m.Called(ctx, place)
	return args.Get(0).(models.Place), args.Error(1)
}

// MockPhotos records deletions and serves canned uploads.
type MockPhotos struct {
	mock.Mock
}

func (m *MockPhotos) Delete(url string) error {
	args := m.Called(url)
	return args.Error(0)
}

func (m *MockPhotos) Save(filename string, r io.Reader) (*photos.Photo, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*photos.Photo), args.Error(1)
}
