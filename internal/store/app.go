// Package store holds the client-side caches of API entities. Each store is
// safe for concurrent use. Mutations reach the cache only after the server
// accepted them; failures leave the cache untouched and surface as a nil or
// false return plus Err.
package store

import (
	"context"

	"github.com/PortNumber53/depenados/internal/client"
	"github.com/PortNumber53/depenados/internal/models"
	"go.uber.org/zap"
)

type MemberAPI interface {
	ListMembers(ctx context.Context) ([]models.Member, error)
	GetMember(ctx context.Context, id string) (*models.MemberDetail, error)
	CreateMember(ctx context.Context, in models.MemberInput) (*models.Member, error)
	UpdateMember(ctx context.Context, id string, in models.MemberInput) (*models.Member, error)
	DeleteMember(ctx context.Context, id string) error
}

type EventAPI interface {
	ListEvents(ctx context.Context, f client.EventFilter) ([]models.EventListItem, error)
	CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error)
	UpdateEvent(ctx context.Context, id string, in models.EventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

type StoryAPI interface {
	ListStories(ctx context.Context, f client.StoryFilter) ([]models.Story, error)
	GetStory(ctx context.Context, id string) (*models.Story, error)
	CreateStory(ctx context.Context, in models.StoryInput) (*models.Story, error)
	UpdateStory(ctx context.Context, id string, in models.StoryInput) (*models.Story, error)
	DeleteStory(ctx context.Context, id string) error
}

type CounterAPI interface {
	GetCounters(ctx context.Context) (*models.Counter, error)
	PatchCounter(ctx context.Context, counterType, action string) (*models.Counter, error)
	PutCounters(ctx context.Context, v models.CounterValues) (*models.Counter, error)
}

// API is everything the stores need; *client.Client implements it.
type API interface {
	MemberAPI
	EventAPI
	StoryAPI
	CounterAPI
}

// App owns one store per entity, all sharing the same API client.
type App struct {
	Members  *MemberStore
	Events   *EventStore
	Stories  *StoryStore
	Counters *CounterStore
}

func NewApp(api API, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		Members:  NewMemberStore(api, log.Named("members")),
		Events:   NewEventStore(api, log.Named("events")),
		Stories:  NewStoryStore(api, log.Named("stories")),
		Counters: NewCounterStore(api, log.Named("counters")),
	}
}
