package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/placenotes/internal/db"
	"github.com/ukydev/placenotes/internal/listing"
	"github.com/ukydev/placenotes/internal/markers"
	"github.com/ukydev/placenotes/internal/models"
	"github.com/ukydev/placenotes/internal/nearby"
)

// PlaceStore is the place collection plus the insert-or-update operation.
type PlaceStore interface {
	db.PlaceCollection
	Save(ctx context.Context, place models.Place) (models.Place, error)
}

// PhotoRemover deletes stored photos by URL.
type PhotoRemover interface {
	Delete(url string) error
}

// NearbySource provides the latest continuously maintained ranking.
type NearbySource interface {
	Latest() nearby.Result
}

// PlaceHandler serves the place endpoints.
type PlaceHandler struct {
	places PlaceStore
	photos PhotoRemover
	nearby NearbySource
}

// NewPlaceHandler creates a place handler. photos may be nil.
func NewPlaceHandler(places PlaceStore, photos PhotoRemover, source NearbySource) *PlaceHandler {
	return &PlaceHandler{places: places, photos: photos, nearby: source}
}

// NearbyResponse is the body of GET /api/places/nearby.
type NearbyResponse struct {
	Status    string               `json:"status"`
	Reference *models.Location     `json:"reference,omitempty"`
	Places    []models.RankedPlace `json:"places"`
}

// ShareResponse is the body of GET /api/places/{id}/share.
type ShareResponse struct {
	Message string `json:"message"`
	MapsURL string `json:"maps_url"`
}

// List returns every place, optionally limited to a geohash cell.
func (h *PlaceHandler) List(w http.ResponseWriter, r *http.Request) {
	order, err := models.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	places, err := h.places.FindPlaces(r.Context(), db.PlaceFilter{GeohashPrefix: r.URL.Query().Get("geohash")})
	if err != nil {
		log.WithError(err).Error("Failed to list places")
		http.Error(w, "Failed to list places", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, listing.Sort(places, order))
}

// Create stores a new place, or replaces an existing one when the body
// carries an id.
func (h *PlaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.PlaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.ID != 0 {
		h.replace(w, r, req.ToPlace(req.ID))
		return
	}

	stored, err := h.places.Save(r.Context(), req.ToPlace(0))
	if err != nil {
		log.WithError(err).Error("Failed to create place")
		http.Error(w, "Failed to create place", http.StatusInternalServerError)
		return
	}
	log.WithFields(log.Fields{"place_id": stored.ID, "name": stored.Name}).Info("Place created")
	writeJSON(w, http.StatusCreated, stored)
}

// Get returns a single place.
func (h *PlaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	place, ok := h.find(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, place)
}

// Update replaces the whole record of an existing place.
func (h *PlaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid place ID", http.StatusBadRequest)
		return
	}
	var req models.PlaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.replace(w, r, req.ToPlace(id))
}

// Delete removes a place together with its locally stored photo.
func (h *PlaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	place, ok := h.find(w, r)
	if !ok {
		return
	}

	if err := h.places.DeletePlace(r.Context(), place.ID); err != nil {
		if errors.Is(err, db.ErrPlaceNotFound) {
			http.Error(w, "Place not found", http.StatusNotFound)
			return
		}
		log.WithError(err).WithField("place_id", place.ID).Error("Failed to delete place")
		http.Error(w, "Failed to delete place", http.StatusInternalServerError)
		return
	}
	if place.HasPhoto() {
		h.removePhoto(*place.PhotoURL)
	}

	log.WithField("place_id", place.ID).Info("Place deleted")
	w.WriteHeader(http.StatusNoContent)
}

// Share returns a ready-to-send message pointing at the place on Google Maps.
func (h *PlaceHandler) Share(w http.ResponseWriter, r *http.Request) {
	place, ok := h.find(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, shareFor(*place))
}

// Nearby ranks places by distance. With lat and lon query parameters the
// ranking is computed for that point, otherwise the latest ranking against
// the device location is returned.
func (h *PlaceHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has("lat") || q.Has("lon") {
		ref, err := parseReference(q.Get("lat"), q.Get("lon"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		places, err := h.places.FindPlaces(r.Context(), db.PlaceFilter{})
		if err != nil {
			log.WithError(err).Error("Failed to load places for ranking")
			http.Error(w, "Failed to rank places", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, newNearbyResponse(nearby.Result{
			Reference: &ref,
			Places:    nearby.Rank(&ref, places),
		}))
		return
	}

	writeJSON(w, http.StatusOK, newNearbyResponse(h.nearby.Latest()))
}

// Markers returns places as GeoJSON points.
func (h *PlaceHandler) Markers(w http.ResponseWriter, r *http.Request) {
	places, err := h.places.FindPlaces(r.Context(), db.PlaceFilter{GeohashPrefix: r.URL.Query().Get("geohash")})
	if err != nil {
		log.WithError(err).Error("Failed to load places for markers")
		http.Error(w, "Failed to load markers", http.StatusInternalServerError)
		return
	}
	data, err := markers.FeatureCollection(places).MarshalJSON()
	if err != nil {
		log.WithError(err).Error("Failed to encode markers")
		http.Error(w, "Failed to encode markers", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *PlaceHandler) find(w http.ResponseWriter, r *http.Request) (*models.Place, bool) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid place ID", http.StatusBadRequest)
		return nil, false
	}
	place, err := h.places.FindPlaceByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrPlaceNotFound) {
			http.Error(w, "Place not found", http.StatusNotFound)
			return nil, false
		}
		log.WithError(err).WithField("place_id", id).Error("Failed to load place")
		http.Error(w, "Failed to load place", http.StatusInternalServerError)
		return nil, false
	}
	return place, true
}

// replace overwrites an existing place and drops the photo it no longer uses.
func (h *PlaceHandler) replace(w http.ResponseWriter, r *http.Request, place models.Place) {
	previous, err := h.places.FindPlaceByID(r.Context(), place.ID)
	if err != nil {
		if errors.Is(err, db.ErrPlaceNotFound) {
			http.Error(w, "Place not found", http.StatusNotFound)
			return
		}
		log.WithError(err).WithField("place_id", place.ID).Error("Failed to load place")
		http.Error(w, "Failed to update place", http.StatusInternalServerError)
		return
	}

	stored, err := h.places.Save(r.Context(), place)
	if err != nil {
		if errors.Is(err, db.ErrPlaceNotFound) {
			http.Error(w, "Place not found", http.StatusNotFound)
			return
		}
		log.WithError(err).WithField("place_id", place.ID).Error("Failed to update place")
		http.Error(w, "Failed to update place", http.StatusInternalServerError)
		return
	}

	if previous.HasPhoto() && (!stored.HasPhoto() || *stored.PhotoURL != *previous.PhotoURL) {
		h.removePhoto(*previous.PhotoURL)
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *PlaceHandler) removePhoto(url string) {
	if h.photos == nil {
		return
	}
	if err := h.photos.Delete(url); err != nil {
		log.WithError(err).WithField("photo_url", url).Warn("Failed to remove photo")
	}
}

func parseReference(latStr, lonStr string) (models.Location, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("invalid lat %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("invalid lon %q", lonStr)
	}
	loc := models.Location{Lat: lat, Lon: lon}
	if !loc.Valid() {
		return models.Location{}, models.ErrInvalidLocation
	}
	return loc, nil
}

func newNearbyResponse(r nearby.Result) NearbyResponse {
	places := r.Places
	if places == nil {
		places = []models.RankedPlace{}
	}
	return NearbyResponse{
		Status:    r.Status(),
		Reference: r.Reference,
		Places:    places,
	}
}

func shareFor(p models.Place) ShareResponse {
	mapsURL := fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%v,%v", p.Location.Lat, p.Location.Lon)
	msg := fmt.Sprintf("Check out this place: %s\n", p.Name)
	if p.Description != "" {
		msg += p.Description + "\n"
	}
	msg += "\nLocation: " + mapsURL
	return ShareResponse{Message: msg, MapsURL: mapsURL}
}
