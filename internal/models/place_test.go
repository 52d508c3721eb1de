package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocation_Valid(t *testing.T) {
	assert.True(t, Location{Lat: 40.4168, Lon: -3.7038}.Valid())
	assert.True(t, Location{Lat: -90, Lon: 180}.Valid())
	assert.False(t, Location{Lat: 91, Lon: 0}.Valid())
	assert.False(t, Location{Lat: 0, Lon: -180.5}.Valid())
}

func TestPlaceRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  PlaceRequest
		want error
	}{
		{"valid", PlaceRequest{Name: "Retiro", Rating: 4.5, Location: Location{Lat: 40.41, Lon: -3.68}}, nil},
		{"blank name", PlaceRequest{Name: "   ", Rating: 3}, ErrNameRequired},
		{"rating too high", PlaceRequest{Name: "Sol", Rating: 5.5}, ErrRatingOutOfRange},
		{"negative rating", PlaceRequest{Name: "Sol", Rating: -1}, ErrRatingOutOfRange},
		{"bad latitude", PlaceRequest{Name: "Sol", Rating: 1, Location: Location{Lat: 100}}, ErrInvalidLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.req.Validate(), tt.want)
		})
	}
}

func TestPlaceRequest_ToPlace(t *testing.T) {
	req := PlaceRequest{
		Name:        "  Mercado  ",
		Description: "tapas",
		Location:    Location{Lat: 1, Lon: 2},
		Rating:      4,
		PhotoURL:    "/photos/abc.jpg",
	}

	p := req.ToPlace(7)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "Mercado", p.Name)
	assert.True(t, p.HasPhoto())
	assert.Equal(t, "/photos/abc.jpg", *p.PhotoURL)

	req.PhotoURL = ""
	assert.False(t, req.ToPlace(7).HasPhoto())
}

func TestParseSortOrder(t *testing.T) {
	o, err := ParseSortOrder("")
	assert.NoError(t, err)
	assert.Equal(t, SortByName, o)

	o, err = ParseSortOrder("Rating")
	assert.NoError(t, err)
	assert.Equal(t, SortByRating, o)

	_, err = ParseSortOrder("distance")
	assert.Error(t, err)
}
