package store

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PortNumber53/depenados/internal/client"
	"github.com/PortNumber53/depenados/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errDown = errors.New("api down")

// fakeAPI serves canned answers; a nil func field fails with errDown.
type fakeAPI struct {
	listMembers  func() ([]models.Member, error)
	getMember    func(id string) (*models.MemberDetail, error)
	createMember func(in models.MemberInput) (*models.Member, error)
	updateMember func(id string, in models.MemberInput) (*models.Member, error)
	deleteMember func(id string) error

	listEvents  func(f client.EventFilter) ([]models.EventListItem, error)
	createEvent func(in models.EventInput) (*models.Event, error)
	updateEvent func(id string, in models.EventInput) (*models.Event, error)
	deleteEvent func(id string) error

	listStories func(f client.StoryFilter) ([]models.Story, error)
	getStory    func(id string) (*models.Story, error)
	createStory func(in models.StoryInput) (*models.Story, error)
	updateStory func(id string, in models.StoryInput) (*models.Story, error)
	deleteStory func(id string) error

	getCounters  func() (*models.Counter, error)
	patchCounter func(t, action string) (*models.Counter, error)
	putCounters  func(v models.CounterValues) (*models.Counter, error)
}

func (f *fakeAPI) ListMembers(context.Context) ([]models.Member, error) {
	if f.listMembers == nil {
		return nil, errDown
	}
	return f.listMembers()
}

func (f *fakeAPI) GetMember(_ context.Context, id string) (*models.MemberDetail, error) {
	if f.getMember == nil {
		return nil, errDown
	}
	return f.getMember(id)
}

func (f *fakeAPI) CreateMember(_ context.Context, in models.MemberInput) (*models.Member, error) {
	if f.createMember == nil {
		return nil, errDown
	}
	return f.createMember(in)
}

func (f *fakeAPI) UpdateMember(_ context.Context, id string, in models.MemberInput) (*models.Member, error) {
	if f.updateMember == nil {
		return nil, errDown
	}
	return f.updateMember(id, in)
}

func (f *fakeAPI) DeleteMember(_ context.Context, id string) error {
	if f.deleteMember == nil {
		return errDown
	}
	return f.deleteMember(id)
}

func (f *fakeAPI) ListEvents(_ context.Context, filter client.EventFilter) ([]models.EventListItem, error) {
	if f.listEvents == nil {
		return nil, errDown
	}
	return f.listEvents(filter)
}

func (f *fakeAPI) CreateEvent(_ context.Context, in models.EventInput) (*models.Event, error) {
	if f.createEvent == nil {
		return nil, errDown
	}
	return f.createEvent(in)
}

func (f *fakeAPI) UpdateEvent(_ context.Context, id string, in models.EventInput) (*models.Event, error) {
	if f.updateEvent == nil {
		return nil, errDown
	}
	return f.updateEvent(id, in)
}

func (f *fakeAPI) DeleteEvent(_ context.Context, id string) error {
	if f.deleteEvent == nil {
		return errDown
	}
	return f.deleteEvent(id)
}

func (f *fakeAPI) ListStories(_ context.Context, filter client.StoryFilter) ([]models.Story, error) {
	if f.listStories == nil {
		return nil, errDown
	}
	return f.listStories(filter)
}

func (f *fakeAPI) GetStory(_ context.Context, id string) (*models.Story, error) {
	if f.getStory == nil {
		return nil, errDown
	}
	return f.getStory(id)
}

func (f *fakeAPI) CreateStory(_ context.Context, in models.StoryInput) (*models.Story, error) {
	if f.createStory == nil {
		return nil, errDown
	}
	return f.createStory(in)
}

func (f *fakeAPI) UpdateStory(_ context.Context, id string, in models.StoryInput) (*models.Story, error) {
	if f.updateStory == nil {
		return nil, errDown
	}
	return f.updateStory(id, in)
}

func (f *fakeAPI) DeleteStory(_ context.Context, id string) error {
	if f.deleteStory == nil {
		return errDown
	}
	return f.deleteStory(id)
}

func (f *fakeAPI) GetCounters(context.Context) (*models.Counter, error) {
	if f.getCounters == nil {
		return nil, errDown
	}
	return f.getCounters()
}

func (f *fakeAPI) PatchCounter(_ context.Context, t, action string) (*models.Counter, error) {
	if f.patchCounter == nil {
		return nil, errDown
	}
	return f.patchCounter(t, action)
}

func (f *fakeAPI) PutCounters(_ context.Context, v models.CounterValues) (*models.Counter, error) {
	if f.putCounters == nil {
		return nil, errDown
	}
	return f.putCounters(v)
}

func TestApp_SharesOneClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/members":
			_, _ = w.Write([]byte(`[{"id":"m1","name":"Ana","nickname":"aninha","joinedAt":"2024-01-01T00:00:00Z"}]`))
		case "/api/counters":
			_, _ = w.Write([]byte(`{"id":"main","brigas":2,"acidentes":1,"pts":9,"updatedAt":"2024-01-01T00:00:00Z"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	app := NewApp(client.New(srv.URL), zap.NewNop())
	ctx := context.Background()

	app.Members.Fetch(ctx)
	app.Counters.Fetch(ctx)

	require.NoError(t, app.Members.Err())
	require.Len(t, app.Members.Members(), 1)
	assert.Equal(t, "aninha", app.Members.Members()[0].Nickname)
	require.NotNil(t, app.Counters.Counter())
	assert.Equal(t, 9, app.Counters.Counter().Pts)
	assert.False(t, app.Members.Loading())
}

func TestStoresStartEmpty(t *testing.T) {
	app := NewApp(&fakeAPI{}, nil)
	assert.Empty(t, app.Members.Members())
	assert.Empty(t, app.Events.Events())
	assert.Empty(t, app.Stories.Stories())
	assert.Nil(t, app.Counters.Counter())
	assert.Equal(t, FilterAll, app.Stories.Filter())
}
