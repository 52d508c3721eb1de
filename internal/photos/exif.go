package photos

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/ukydev/placenotes/internal/models"
)

// readMetadata pulls the GPS position and capture time out of EXIF data.
// Images without EXIF yield nils.
func readMetadata(data []byte) (*models.Location, *time.Time) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil
	}

	var loc *models.Location
	if lat, lon, err := x.LatLong(); err == nil {
		l := models.Location{Lat: lat, Lon: lon}
		if l.Valid() {
			loc = &l
		}
	}

	var taken *time.Time
	if t, err := x.DateTime(); err == nil {
		taken = &t
	}
	return loc, taken
}
