package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PortNumber53/depenados/internal/client"
	"github.com/PortNumber53/depenados/internal/models"
	"go.uber.org/zap"
)

// upcomingLimit caps Upcoming.
const upcomingLimit = 5

// EventStore caches event list items. Fetch failures are only logged.
type EventStore struct {
	api EventAPI
	log *zap.Logger

	mu      sync.RWMutex
	events  []models.EventListItem
	loading bool
}

func NewEventStore(api EventAPI, log *zap.Logger) *EventStore {
	return &EventStore{api: api, log: log, events: []models.EventListItem{}}
}

func (s *EventStore) Events() []models.EventListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.EventListItem(nil), s.events...)
}

func (s *EventStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *EventStore) Fetch(ctx context.Context, f client.EventFilter) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	events, err := s.api.ListEvents(ctx, f)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.log.Warn("fetch events failed", zap.Error(err))
		return
	}
	if events == nil {
		events = []models.EventListItem{}
	}
	s.events = events
}

// listItem reduces a full event to its list shape.
func listItem(e models.Event) models.EventListItem {
	item := models.EventListItem{Event: e, Stories: make([]models.StorySummary, 0, len(e.Stories))}
	for _, st := range e.Stories {
		item.Stories = append(item.Stories, models.StorySummary{ID: st.ID, Title: st.Title, CoverImage: st.CoverImage})
	}
	item.Event.Stories = nil
	if item.Count == nil {
		item.Count = &models.EventCounts{Stories: len(item.Stories)}
	}
	return item
}

func (s *EventStore) Create(ctx context.Context, in models.EventInput) *models.Event {
	e, err := s.api.CreateEvent(ctx, in)
	if err != nil {
		s.log.Warn("create event failed", zap.Error(err))
		return nil
	}
	s.mu.Lock()
	s.events = append(s.events, listItem(*e))
	s.mu.Unlock()
	return e
}

func (s *EventStore) Update(ctx context.Context, id string, in models.EventInput) *models.Event {
	e, err := s.api.UpdateEvent(ctx, id, in)
	if err != nil {
		s.log.Warn("update event failed", zap.String("id", id), zap.Error(err))
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i] = listItem(*e)
			break
		}
	}
	return e
}

func (s *EventStore) Delete(ctx context.Context, id string) bool {
	if err := s.api.DeleteEvent(ctx, id); err != nil {
		s.log.Warn("delete event failed", zap.String("id", id), zap.Error(err))
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0:0]
	for _, e := range s.events {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.events = kept
	return true
}

// Upcoming returns the next cached events that have not happened yet and are
// still upcoming or ongoing, soonest first.
func (s *EventStore) Upcoming(now time.Time) []models.EventListItem {
	s.mu.RLock()
	out := make([]models.EventListItem, 0, len(s.events))
	for _, e := range s.events {
		if e.Date.Before(now) {
			continue
		}
		if e.Status != models.EventStatusUpcoming && e.Status != models.EventStatusOngoing {
			continue
		}
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if len(out) > upcomingLimit {
		out = out[:upcomingLimit]
	}
	return out
}
