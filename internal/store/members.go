package store

import (
	"context"
	"sync"

	"github.com/PortNumber53/depenados/internal/models"
	"go.uber.org/zap"
)

type MemberStore struct {
	api MemberAPI
	log *zap.Logger

	mu      sync.RWMutex
	members []models.Member
	loading bool
	err     error
}

func NewMemberStore(api MemberAPI, log *zap.Logger) *MemberStore {
	return &MemberStore{api: api, log: log, members: []models.Member{}}
}

// Members returns a copy of the cached list.
func (s *MemberStore) Members() []models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Member(nil), s.members...)
}

func (s *MemberStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err is the last failure recorded by any operation, nil after a success.
func (s *MemberStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *MemberStore) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *MemberStore) Fetch(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	members, err := s.api.ListMembers(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.log.Warn("fetch members failed", zap.Error(err))
		s.err = err
		return
	}
	if members == nil {
		members = []models.Member{}
	}
	s.members = members
	s.err = nil
}

// FetchByID loads one member with previews without touching the cache.
func (s *MemberStore) FetchByID(ctx context.Context, id string) *models.MemberDetail {
	m, err := s.api.GetMember(ctx, id)
	if err != nil {
		s.log.Warn("fetch member failed", zap.String("id", id), zap.Error(err))
		s.setErr(err)
		return nil
	}
	return m
}

func (s *MemberStore) Create(ctx context.Context, in models.MemberInput) *models.Member {
	m, err := s.api.CreateMember(ctx, in)
	if err != nil {
		s.log.Warn("create member failed", zap.Error(err))
		s.setErr(err)
		return nil
	}
	s.mu.Lock()
	s.members = append(s.members, *m)
	s.err = nil
	s.mu.Unlock()
	return m
}

// Update merges the server's answer into the cached entry, keeping cached
// fields (such as counts) the answer does not carry.
func (s *MemberStore) Update(ctx context.Context, id string, in models.MemberInput) *models.Member {
	m, err := s.api.UpdateMember(ctx, id, in)
	if err != nil {
		s.log.Warn("update member failed", zap.String("id", id), zap.Error(err))
		s.setErr(err)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.members {
		if s.members[i].ID == id {
			merged := *m
			if merged.Count == nil {
				merged.Count = s.members[i].Count
			}
			s.members[i] = merged
			break
		}
	}
	s.err = nil
	return m
}

func (s *MemberStore) Delete(ctx context.Context, id string) bool {
	if err := s.api.DeleteMember(ctx, id); err != nil {
		s.log.Warn("delete member failed", zap.String("id", id), zap.Error(err))
		s.setErr(err)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.members[:0:0]
	for _, m := range s.members {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	s.members = kept
	s.err = nil
	return true
}
