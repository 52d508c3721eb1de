// Package location keeps the device's current position and feeds it from
// whichever transport reports fixes.
package location

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/placenotes/internal/broadcast"
	"github.com/ukydev/placenotes/internal/models"
)

// Fix is one reported position.
type Fix struct {
	Location  models.Location `json:"location"`
	Accuracy  float64         `json:"accuracy,omitempty"` // meters
	Timestamp time.Time       `json:"timestamp"`
}

// Tracker holds the latest fix and notifies subscribers of new ones.
type Tracker struct {
	mu    sync.Mutex // orders check-and-publish in Update
	fixes broadcast.Hub[Fix]
	now   func() time.Time
}

// NewTracker creates a tracker without a fix.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Update records a new fix. Fixes with out-of-range coordinates are rejected.
// A fix older than the current one arrived out of order and is dropped.
func (t *Tracker) Update(fix Fix) error {
	if !fix.Location.Valid() {
		return models.ErrInvalidLocation
	}
	if fix.Timestamp.IsZero() {
		fix.Timestamp = t.now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.fixes.Latest(); ok && fix.Timestamp.Before(cur.Timestamp) {
		log.WithFields(log.Fields{
			"timestamp": fix.Timestamp,
			"current":   cur.Timestamp,
		}).Debug("Dropping out-of-order fix")
		return nil
	}
	t.fixes.Publish(fix)

	log.WithFields(log.Fields{
		"lat": fix.Location.Lat,
		"lon": fix.Location.Lon,
	}).Debug("Location updated")
	return nil
}

// Current returns the latest fix, or nil before the first one.
func (t *Tracker) Current() *Fix {
	fix, ok := t.fixes.Latest()
	if !ok {
		return nil
	}
	return &fix
}

// Subscribe streams coordinates, starting with the latest one. The channel
// closes when ctx is done or the tracker is closed.
func (t *Tracker) Subscribe(ctx context.Context) <-chan models.Location {
	fixes := t.fixes.Subscribe(ctx)
	out := make(chan models.Location)
	go func() {
		defer close(out)
		for fix := range fixes {
			select {
			case out <- fix.Location:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close ends every subscription.
func (t *Tracker) Close() {
	t.fixes.Close()
}
