package store

import (
	"context"
	"testing"
	"time"

	"github.com/PortNumber53/depenados/internal/client"
	"github.com/PortNumber53/depenados/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func eventAt(id string, date time.Time, status string) models.EventListItem {
	return models.EventListItem{Event: models.Event{ID: id, Date: date, Status: status}, Stories: []models.StorySummary{}}
}

func TestEventStore_FetchPassesFilterAndSwallowsErrors(t *testing.T) {
	var gotFilter client.EventFilter
	api := &fakeAPI{listEvents: func(f client.EventFilter) ([]models.EventListItem, error) {
		gotFilter = f
		return []models.EventListItem{eventAt("e1", time.Now(), models.EventStatusUpcoming)}, nil
	}}
	s := NewEventStore(api, zap.NewNop())
	s.Fetch(context.Background(), client.EventFilter{Upcoming: true})
	assert.True(t, gotFilter.Upcoming)
	require.Len(t, s.Events(), 1)

	api.listEvents = nil
	s.Fetch(context.Background(), client.EventFilter{})
	assert.Len(t, s.Events(), 1)
	assert.False(t, s.Loading())
}

func TestEventStore_Upcoming(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	items := []models.EventListItem{
		eventAt("past", now.Add(-day), models.EventStatusUpcoming),
		eventAt("d7", now.Add(7*day), models.EventStatusUpcoming),
		eventAt("cancel", now.Add(2*day), models.EventStatusCancelled),
		eventAt("d1", now.Add(day), models.EventStatusOngoing),
		eventAt("d3", now.Add(3*day), models.EventStatusUpcoming),
		eventAt("d2", now.Add(2*day), models.EventStatusUpcoming),
		eventAt("d5", now.Add(5*day), models.EventStatusUpcoming),
		eventAt("d4", now.Add(4*day), models.EventStatusUpcoming),
	}
	api := &fakeAPI{listEvents: func(client.EventFilter) ([]models.EventListItem, error) { return items, nil }}
	s := NewEventStore(api, zap.NewNop())
	s.Fetch(context.Background(), client.EventFilter{})

	var ids []string
	for _, e := range s.Upcoming(now) {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"d1", "d2", "d3", "d4", "d5"}, ids)
}

func TestEventStore_CreateUpdateDelete(t *testing.T) {
	date := time.Date(2024, 7, 1, 20, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		createEvent: func(in models.EventInput) (*models.Event, error) {
			return &models.Event{ID: "e1", Title: *in.Title, Date: date, Status: models.EventStatusUpcoming,
				Stories: []models.Story{{ID: "s1", Title: "Noite"}}}, nil
		},
		updateEvent: func(id string, in models.EventInput) (*models.Event, error) {
			return &models.Event{ID: id, Title: *in.Title, Date: date, Status: *in.Status}, nil
		},
		deleteEvent: func(string) error { return nil },
	}
	s := NewEventStore(api, zap.NewNop())
	ctx := context.Background()

	require.NotNil(t, s.Create(ctx, models.EventInput{Title: models.StringPtr("Role")}))
	got := s.Events()
	require.Len(t, got, 1)
	assert.Equal(t, []models.StorySummary{{ID: "s1", Title: "Noite"}}, got[0].Stories)
	assert.Equal(t, 1, got[0].Count.Stories)

	require.NotNil(t, s.Update(ctx, "e1", models.EventInput{Title: models.StringPtr("Role 2"), Status: models.StringPtr(models.EventStatusCompleted)}))
	assert.Equal(t, "Role 2", s.Events()[0].Title)
	assert.Equal(t, models.EventStatusCompleted, s.Events()[0].Status)

	assert.True(t, s.Delete(ctx, "e1"))
	assert.Empty(t, s.Events())
}

func TestEventStore_CreateFailure(t *testing.T) {
	s := NewEventStore(&fakeAPI{}, zap.NewNop())
	assert.Nil(t, s.Create(context.Background(), models.EventInput{}))
	assert.Nil(t, s.Update(context.Background(), "e1", models.EventInput{}))
	assert.False(t, s.Delete(context.Background(), "e1"))
	assert.Empty(t, s.Events())
}
