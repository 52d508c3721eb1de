// Package markers renders places as GeoJSON for map clients.
package markers

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ukydev/placenotes/internal/models"
)

// FeatureCollection returns one point feature per place. The collection
// carries a bounding box when it is not empty.
func FeatureCollection(places []models.Place) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if len(places) == 0 {
		return fc
	}

	points := make(orb.MultiPoint, 0, len(places))
	for _, p := range places {
		fc.Append(Feature(p))
		points = append(points, point(p.Location))
	}
	fc.BBox = geojson.NewBBox(points.Bound())
	return fc
}

// Feature renders a single place.
func Feature(p models.Place) *geojson.Feature {
	f := geojson.NewFeature(point(p.Location))
	f.ID = p.ID
	f.Properties["id"] = p.ID
	f.Properties["name"] = p.Name
	f.Properties["description"] = p.Description
	f.Properties["rating"] = p.Rating
	if p.HasPhoto() {
		f.Properties["photo_url"] = *p.PhotoURL
	}
	if p.Geohash != "" {
		f.Properties["geohash"] = p.Geohash
	}
	return f
}

// GeoJSON positions are longitude first.
func point(loc models.Location) orb.Point {
	return orb.Point{loc.Lon, loc.Lat}
}
