package db

import (
	"context"
	"errors"

	"github.com/ukydev/placenotes/internal/models"
)

var (
	ErrPlaceNotFound = errors.New("place not found")
	ErrUserNotFound  = errors.New("user not found")
)

// PlaceFilter narrows a place query.
type PlaceFilter struct {
	// GeohashPrefix keeps only places whose geohash starts with it.
	GeohashPrefix string
}

// PlaceCollection defines the interface for place data operations.
type PlaceCollection interface {
	InsertPlace(ctx context.Context, place models.Place) (models.Place, error)
	FindPlaces(ctx context.Context, filter PlaceFilter) ([]models.Place, error)
	FindPlaceByID(ctx context.Context, id int64) (*models.Place, error)
	UpdatePlace(ctx context.Context, place models.Place) error
	DeletePlace(ctx context.Context, id int64) error
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}
