package store

import (
	"context"
	"sort"
	"sync"

	"github.com/PortNumber53/depenados/internal/client"
	"github.com/PortNumber53/depenados/internal/models"
	"go.uber.org/zap"
)

type StoryFilter string

const (
	FilterAll      StoryFilter = "all"
	FilterFeatured StoryFilter = "featured"
	FilterRecent   StoryFilter = "recent"
)

// ParseStoryFilter maps user input onto a filter; anything unknown is all.
func ParseStoryFilter(s string) StoryFilter {
	switch StoryFilter(s) {
	case FilterFeatured, FilterRecent:
		return StoryFilter(s)
	}
	return FilterAll
}

type StoryStore struct {
	api StoryAPI
	log *zap.Logger

	mu      sync.RWMutex
	stories []models.Story
	filter  StoryFilter
	loading bool
	err     error
}

func NewStoryStore(api StoryAPI, log *zap.Logger) *StoryStore {
	return &StoryStore{api: api, log: log, stories: []models.Story{}, filter: FilterAll}
}

func (s *StoryStore) Stories() []models.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Story(nil), s.stories...)
}

func (s *StoryStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *StoryStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *StoryStore) SetFilter(f StoryFilter) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
}

func (s *StoryStore) Filter() StoryFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Filtered applies the current filter to the cache without refetching.
func (s *StoryStore) Filtered() []models.Story {
	s.mu.RLock()
	filter := s.filter
	stories := append([]models.Story(nil), s.stories...)
	s.mu.RUnlock()

	switch filter {
	case FilterFeatured:
		out := stories[:0]
		for _, st := range stories {
			if st.Featured {
				out = append(out, st)
			}
		}
		return out
	case FilterRecent:
		sort.SliceStable(stories, func(i, j int) bool { return stories[i].CreatedAt.After(stories[j].CreatedAt) })
	}
	return stories
}

// setLoading marks the start of a call and clears the previous error.
func (s *StoryStore) setLoading() {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()
}

func (s *StoryStore) fail(msg string, err error, fields ...zap.Field) {
	s.log.Warn(msg, append(fields, zap.Error(err))...)
	s.mu.Lock()
	s.loading = false
	s.err = err
	s.mu.Unlock()
}

func normalizeStory(st *models.Story) {
	if st.Tags == nil {
		st.Tags = models.Tags{}
	}
	if st.Media == nil {
		st.Media = []models.Media{}
	}
}

func (s *StoryStore) Fetch(ctx context.Context, f client.StoryFilter) {
	s.setLoading()
	stories, err := s.api.ListStories(ctx, f)
	if err != nil {
		s.fail("fetch stories failed", err)
		return
	}
	if stories == nil {
		stories = []models.Story{}
	}
	for i := range stories {
		normalizeStory(&stories[i])
	}
	s.mu.Lock()
	s.stories = stories
	s.loading = false
	s.mu.Unlock()
}

// FetchByID loads one story without touching the cache.
func (s *StoryStore) FetchByID(ctx context.Context, id string) *models.Story {
	st, err := s.api.GetStory(ctx, id)
	if err != nil {
		s.log.Debug("fetch story failed", zap.String("id", id), zap.Error(err))
		return nil
	}
	normalizeStory(st)
	return st
}

// Create prepends the new story. A missing cover image defaults to the first
// image in the media list.
func (s *StoryStore) Create(ctx context.Context, in models.StoryInput) *models.Story {
	if in.CoverImage == nil || *in.CoverImage == "" {
		for _, m := range in.Media {
			if m.Type == models.MediaTypeImage {
				in.CoverImage = models.StringPtr(m.URL)
				break
			}
		}
	}
	s.setLoading()
	st, err := s.api.CreateStory(ctx, in)
	if err != nil {
		s.fail("create story failed", err)
		return nil
	}
	normalizeStory(st)
	s.mu.Lock()
	s.stories = append([]models.Story{*st}, s.stories...)
	s.loading = false
	s.mu.Unlock()
	return st
}

func (s *StoryStore) Update(ctx context.Context, id string, in models.StoryInput) *models.Story {
	s.setLoading()
	st, err := s.api.UpdateStory(ctx, id, in)
	if err != nil {
		s.fail("update story failed", err, zap.String("id", id))
		return nil
	}
	normalizeStory(st)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.stories {
		if s.stories[i].ID == id {
			s.stories[i] = *st
			break
		}
	}
	s.loading = false
	return st
}

func (s *StoryStore) Delete(ctx context.Context, id string) bool {
	s.setLoading()
	if err := s.api.DeleteStory(ctx, id); err != nil {
		s.fail("delete story failed", err, zap.String("id", id))
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.stories[:0:0]
	for _, st := range s.stories {
		if st.ID != id {
			kept = append(kept, st)
		}
	}
	s.stories = kept
	s.loading = false
	return true
}
