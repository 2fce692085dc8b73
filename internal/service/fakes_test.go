package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"sitepub/internal/core/domain"
	"sitepub/internal/core/ports"
)

// fakeCMS is an in-memory CMS keyed by slug.
type fakeCMS struct {
	mu      sync.Mutex
	pages   map[string]*ports.RemotePage
	nextID  int
	calls   []string
	failOn  map[string]error // slug -> error returned by create/update
	findErr map[string]error // slug -> error returned by lookup

	// beforeWrite runs at the start of every create or update.
	beforeWrite func()
}

func newFakeCMS() *fakeCMS {
	return &fakeCMS{
		pages:   map[string]*ports.RemotePage{},
		nextID:  100,
		failOn:  map[string]error{},
		findErr: map[string]error{},
	}
}

func (f *fakeCMS) FindPageBySlug(_ context.Context, slug string) (*ports.RemotePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "find:"+slug)
	if err := f.findErr[slug]; err != nil {
		return nil, err
	}
	p, ok := f.pages[slug]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCMS) CreatePage(_ context.Context, d ports.PageDraft) (*ports.RemotePage, error) {
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create:"+d.Slug)
	if err := f.failOn[d.Slug]; err != nil {
		return nil, err
	}
	f.nextID++
	p := &ports.RemotePage{
		ID:     fmt.Sprint(f.nextID),
		Slug:   d.Slug,
		Link:   "https://example.test/" + d.Slug + "/",
		Status: "draft",
	}
	f.pages[d.Slug] = p
	cp := *p
	return &cp, nil
}

func (f *fakeCMS) UpdatePage(_ context.Context, id string, d ports.PageDraft) (*ports.RemotePage, error) {
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update:"+id)
	if err := f.failOn[d.Slug]; err != nil {
		return nil, err
	}
	for _, p := range f.pages {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.New("rest_post_invalid_id: Invalid post ID.")
}

func (f *fakeCMS) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// memStore keeps deep copies so that callers cannot mutate stored state
// without saving.
type memStore struct {
	mu        sync.Mutex
	artifacts map[string][]byte
	order     []string
}

func newMemStore() *memStore {
	return &memStore{artifacts: map[string][]byte{}}
}

func (s *memStore) CreateArtifact(_ context.Context, a *domain.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[a.ID]; ok {
		return fmt.Errorf("duplicate artifact %s", a.ID)
	}
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	s.artifacts[a.ID] = b
	s.order = append(s.order, a.ID)
	return nil
}

func (s *memStore) LoadArtifact(_ context.Context, id string) (*domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.artifacts[id]
	if !ok {
		return nil, ports.ErrArtifactNotFound
	}
	var a domain.Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *memStore) SaveArtifact(_ context.Context, a *domain.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[a.ID]; !ok {
		return ports.ErrArtifactNotFound
	}
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	s.artifacts[a.ID] = b
	return nil
}

func (s *memStore) ListArtifacts(_ context.Context) ([]domain.Artifact, error) {
	s.mu.Lock()
	ids := append([]string(nil), s.order...)
	s.mu.Unlock()

	out := make([]domain.Artifact, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		a, err := s.LoadArtifact(context.Background(), ids[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (s *memStore) current(id string) domain.JobStatus {
	a, err := s.LoadArtifact(context.Background(), id)
	if err != nil {
		return ""
	}
	return a.Metadata.JobStatus
}
