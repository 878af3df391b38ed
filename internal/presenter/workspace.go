package presenter

import (
	"context"
	"sync"
	"time"

	"github.com/muntakson/salama/internal/models"
)

// Workspace keeps presenters per visitor so UI state survives page loads
type Workspace struct {
	mu       sync.Mutex
	api      Engagement
	ttl      time.Duration
	now      func() time.Time
	visitors map[string]*visitor
}

type visitor struct {
	presenters map[int64]*Presenter
	lastSeen   time.Time
}

// NewWorkspace creates a workspace that forgets visitors idle longer than ttl
func NewWorkspace(api Engagement, ttl time.Duration) *Workspace {
	return &Workspace{
		api:      api,
		ttl:      ttl,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Presenter returns the visitor's presenter for card, creating it on first use.
// An existing presenter gets the fresh snapshot and keeps its state.
func (w *Workspace) Presenter(visitorID string, card *models.TrainingCard) *Presenter {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := w.touch(visitorID)
	if p, ok := v.presenters[card.ID]; ok {
		p.SetCard(card)
		return p
	}

	p := New(card, w.api)
	v.presenters[card.ID] = p
	return p
}

// Lookup returns an existing presenter without creating one
func (w *Workspace) Lookup(visitorID string, cardID int64) (*Presenter, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	v, ok := w.visitors[visitorID]
	if !ok {
		return nil, false
	}
	v.lastSeen = w.now()
	p, ok := v.presenters[cardID]
	return p, ok
}

func (w *Workspace) touch(visitorID string) *visitor {
	v, ok := w.visitors[visitorID]
	if !ok {
		v = &visitor{presenters: make(map[int64]*Presenter)}
		w.visitors[visitorID] = v
	}
	v.lastSeen = w.now()
	return v
}

// Sweep forgets visitors idle longer than the TTL and returns how many were dropped
func (w *Workspace) Sweep(ctx context.Context, now time.Time) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	removed := 0
	for id, v := range w.visitors {
		if now.Sub(v.lastSeen) > w.ttl {
			delete(w.visitors, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked visitors
func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.visitors)
}
