package nearby

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/placenotes/internal/broadcast"
	"github.com/ukydev/placenotes/internal/listing"
	"github.com/ukydev/placenotes/internal/models"
)

// Result statuses.
const (
	StatusWaitingForLocation = "waiting_for_location"
	StatusEmpty              = "empty"
	StatusOK                 = "ok"
)

// Result is one full evaluation of the nearby ranking.
type Result struct {
	Reference *models.Location     `json:"reference,omitempty"`
	Places    []models.RankedPlace `json:"places"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Status tells the presentation layer which state to show.
func (r Result) Status() string {
	switch {
	case r.Reference == nil:
		return StatusWaitingForLocation
	case len(r.Places) == 0:
		return StatusEmpty
	default:
		return StatusOK
	}
}

// Watcher re-ranks the candidate set whenever either the reference coordinate
// or the candidate set changes.
type Watcher struct {
	mu         sync.Mutex
	reference  *models.Location
	candidates []models.Place
	results    broadcast.Hub[Result]
	now        func() time.Time
}

// NewWatcher creates a watcher with no reference and no candidates.
func NewWatcher() *Watcher {
	return &Watcher{now: time.Now}
}

// Run consumes both update channels until ctx is done or both are closed.
func (w *Watcher) Run(ctx context.Context, locations <-chan models.Location, places <-chan []models.Place) error {
	defer w.results.Close()

	for locations != nil || places != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case loc, ok := <-locations:
			if !ok {
				locations = nil
				continue
			}
			w.SetReference(loc)
		case set, ok := <-places:
			if !ok {
				places = nil
				continue
			}
			w.SetCandidates(set)
		}
	}
	return nil
}

// SetReference records a new reference coordinate and re-ranks.
func (w *Watcher) SetReference(loc models.Location) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reference = &loc
	w.results.Publish(w.evaluate())
}

// SetCandidates replaces the candidate set and re-ranks.
func (w *Watcher) SetCandidates(places []models.Place) {
	w.mu.Lock()
	changes := listing.Diff(w.candidates, places)
	w.candidates = places
	// Publish never blocks, so results leave in evaluation order.
	w.results.Publish(w.evaluate())
	w.mu.Unlock()

	if !changes.Empty() {
		log.WithFields(log.Fields{
			"inserted": len(changes.Inserted),
			"removed":  len(changes.Removed),
			"changed":  len(changes.Changed),
			"total":    len(places),
		}).Debug("Candidate places updated")
	}
}

// evaluate must be called with w.mu held.
func (w *Watcher) evaluate() Result {
	var ref *models.Location
	if w.reference != nil {
		loc := *w.reference
		ref = &loc
	}
	return Result{
		Reference: ref,
		Places:    Rank(ref, w.candidates),
		UpdatedAt: w.now(),
	}
}

// Latest returns the most recent evaluation. Before any input has arrived it
// reports the waiting state.
func (w *Watcher) Latest() Result {
	if r, ok := w.results.Latest(); ok {
		if r.Reference != nil {
			ref := *r.Reference
			r.Reference = &ref
		}
		return r
	}
	return Result{Places: []models.RankedPlace{}, UpdatedAt: w.now()}
}

// Subscribe streams evaluations, starting with the latest one. Received
// results are shared with other subscribers and must not be modified.
func (w *Watcher) Subscribe(ctx context.Context) <-chan Result {
	return w.results.Subscribe(ctx)
}
