// Package nearby ranks saved places by great-circle distance from a reference
// coordinate and keeps that ranking current as the inputs change.
package nearby

import (
	"fmt"
	"math"

	"github.com/ukydev/placenotes/internal/models"
)

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

// kmThreshold is where FormatDistance switches from meters to kilometers.
const kmThreshold = 1000.0

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b models.Location) float64 {
	lat1 := degreesToRadians(a.Lat)
	lat2 := degreesToRadians(b.Lat)
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLon := degreesToRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}

// FormatDistance renders whole meters below one kilometer and kilometers with
// one decimal from there on.
func FormatDistance(meters float64) string {
	if meters < kmThreshold {
		return fmt.Sprintf("%d m", int64(meters))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}
