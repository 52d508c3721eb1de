package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/placenotes/internal/broadcast"
	"github.com/ukydev/placenotes/internal/models"
)

// PlaceFeed wraps a PlaceCollection and publishes the full place list to
// subscribers after every successful write.
type PlaceFeed struct {
	PlaceCollection
	snapshots broadcast.Hub[[]models.Place]

	// held across reload and publish so snapshots go out in read order
	refreshMu sync.Mutex
}

// reloadTimeout bounds the snapshot reload that follows a write.
const reloadTimeout = 10 * time.Second

// NewPlaceFeed wraps places. Call Refresh once to publish the initial snapshot.
func NewPlaceFeed(places PlaceCollection) *PlaceFeed {
	return &PlaceFeed{PlaceCollection: places}
}

// Refresh reloads every place and publishes the result.
func (f *PlaceFeed) Refresh(ctx context.Context) error {
	f.refreshMu.Lock()
	defer f.refreshMu.Unlock()

	places, err := f.PlaceCollection.FindPlaces(ctx, PlaceFilter{})
	if err != nil {
		return fmt.Errorf("reload places: %w", err)
	}
	f.snapshots.Publish(places)
	return nil
}

// Subscribe streams place snapshots, starting with the latest one.
// Received slices are shared and must not be modified.
func (f *PlaceFeed) Subscribe(ctx context.Context) <-chan []models.Place {
	return f.snapshots.Subscribe(ctx)
}

// Close ends every subscription.
func (f *PlaceFeed) Close() {
	f.snapshots.Close()
}

// InsertPlace stores place and publishes the new snapshot.
func (f *PlaceFeed) InsertPlace(ctx context.Context, place models.Place) (models.Place, error) {
	stored, err := f.PlaceCollection.InsertPlace(ctx, place)
	if err != nil {
		return models.Place{}, err
	}
	f.afterWrite(ctx, "insert", stored.ID)
	return stored, nil
}

// UpdatePlace replaces a place and publishes the new snapshot.
func (f *PlaceFeed) UpdatePlace(ctx context.Context, place models.Place) error {
	if err := f.PlaceCollection.UpdatePlace(ctx, place); err != nil {
		return err
	}
	f.afterWrite(ctx, "update", place.ID)
	return nil
}

// DeletePlace deletes a place and publishes the new snapshot.
func (f *PlaceFeed) DeletePlace(ctx context.Context, id int64) error {
	if err := f.PlaceCollection.DeletePlace(ctx, id); err != nil {
		return err
	}
	f.afterWrite(ctx, "delete", id)
	return nil
}

// Save inserts place when it has no ID yet and replaces the stored record
// otherwise.
func (f *PlaceFeed) Save(ctx context.Context, place models.Place) (models.Place, error) {
	if place.ID == 0 {
		return f.InsertPlace(ctx, place)
	}
	if err := f.UpdatePlace(ctx, place); err != nil {
		return models.Place{}, err
	}
	stored, err := f.PlaceCollection.FindPlaceByID(ctx, place.ID)
	if err != nil {
		return models.Place{}, err
	}
	return *stored, nil
}

// afterWrite refreshes subscribers. The write already succeeded, so a failed
// reload is logged rather than returned, and the reload outlives the caller's
// cancellation.
func (f *PlaceFeed) afterWrite(ctx context.Context, op string, id int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reloadTimeout)
	defer cancel()
	if err := f.Refresh(ctx); err != nil {
		log.WithError(err).WithFields(log.Fields{"op": op, "place_id": id}).Warn("Failed to publish place snapshot")
	}
}
