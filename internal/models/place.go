package models

import (
	"errors"
	"fmt"
	"strings"
)

const MaxRating = 5.0

var (
	ErrNameRequired     = errors.New("name is required")
	ErrRatingOutOfRange = fmt.Errorf("rating must be between 0 and %.0f", MaxRating)
)

// Place is a saved note about a spot on the map.
type Place struct {
	ID          int64    `bson:"_id" json:"id"`
	Name        string   `bson:"name" json:"name"`
	Description string   `bson:"description" json:"description"`
	Location    Location `bson:"location" json:"location"`
	Rating      float64  `bson:"rating" json:"rating"`
	PhotoURL    *string  `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Geohash     string   `bson:"geohash,omitempty" json:"geohash,omitempty"`
}

// HasPhoto reports whether a photo reference is attached.
func (p Place) HasPhoto() bool {
	return p.PhotoURL != nil && *p.PhotoURL != ""
}

// RankedPlace pairs a place with its distance from a reference coordinate.
type RankedPlace struct {
	Place          Place   `json:"place"`
	DistanceMeters float64 `json:"distance_meters"`
	DistanceText   string  `json:"distance_text,omitempty"`
}

// PlaceRequest is the body accepted when creating or replacing a place.
type PlaceRequest struct {
	ID          int64    `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    Location `json:"location"`
	Rating      float64  `json:"rating"`
	PhotoURL    string   `json:"photo_url,omitempty"`
}

// Validate checks the fields a place must carry before it is stored.
func (r *PlaceRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	if r.Rating < 0 || r.Rating > MaxRating {
		return ErrRatingOutOfRange
	}
	if !r.Location.Valid() {
		return ErrInvalidLocation
	}
	return nil
}

// ToPlace builds the full record the request describes under the given id.
func (r *PlaceRequest) ToPlace(id int64) Place {
	p := Place{
		ID:          id,
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		Location:    r.Location,
		Rating:      r.Rating,
	}
	if r.PhotoURL != "" {
		url := r.PhotoURL
		p.PhotoURL = &url
	}
	return p
}

// SortOrder selects how a place list is ordered.
type SortOrder string

const (
	SortByName   SortOrder = "name"
	SortByRating SortOrder = "rating"
)

// ParseSortOrder maps a query value to a SortOrder, defaulting to name.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(s)) {
	case "", SortByName:
		return SortByName, nil
	case SortByRating:
		return SortByRating, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}
