package models

import (
	"errors"

	"github.com/golang/geo/s2"
)

var ErrInvalidLocation = errors.New("latitude must be within [-90, 90] and longitude within [-180, 180]")

// Location represents a geographical location with latitude and longitude coordinates.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}

// Valid reports whether the coordinate lies within WGS-84 degree bounds.
func (l Location) Valid() bool {
	return s2.LatLngFromDegrees(l.Lat, l.Lon).IsValid()
}
