// Package memory is an in-process Storage used by tests, the evaluation
// tool and single-node deployments without a database.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/OFFIS-RIT/ned/pkg/common"
	"github.com/OFFIS-RIT/ned/pkg/oracle"
	"github.com/OFFIS-RIT/ned/pkg/store"
)

type backlinkKey struct {
	title        string
	continuation string
}

// Storage keeps everything in maps guarded by one lock. Returned slices and
// maps are copies.
type Storage struct {
	mu         sync.RWMutex
	candidates map[string][]string
	links      map[string][]string
	backlinks  map[backlinkKey]oracle.BacklinkPage
	documents  map[string]store.DocumentRecord
	now        func() time.Time
}

func New() *Storage {
	return &Storage{
		candidates: make(map[string][]string),
		links:      make(map[string][]string),
		backlinks:  make(map[backlinkKey]oracle.BacklinkPage),
		documents:  make(map[string]store.DocumentRecord),
		now:        time.Now,
	}
}

func (s *Storage) GetCandidates(_ context.Context, mention string) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[mention]
	return slices.Clone(c), ok, nil
}

func (s *Storage) PutCandidates(_ context.Context, mention string, candidates []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[mention] = slices.Clone(candidates)
	return nil
}

func (s *Storage) GetLinks(_ context.Context, title string) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.links[title]
	return slices.Clone(l), ok, nil
}

func (s *Storage) PutLinks(_ context.Context, title string, links []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[title] = slices.Clone(links)
	return nil
}

func (s *Storage) GetBacklinkPage(_ context.Context, title string, continuation string) (oracle.BacklinkPage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.backlinks[backlinkKey{title, continuation}]
	return p, ok, nil
}

func (s *Storage) PutBacklinkPage(_ context.Context, title string, continuation string, page oracle.BacklinkPage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backlinks[backlinkKey{title, continuation}] = page
	return nil
}

func (s *Storage) CreateDocument(_ context.Context, doc common.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID]; ok {
		return fmt.Errorf("document %q already exists", doc.ID)
	}
	now := s.now()
	s.documents[doc.ID] = store.DocumentRecord{
		ID:        doc.ID,
		Status:    store.StatusPending,
		Mentions:  slices.Clone(doc.Mentions),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (s *Storage) GetDocument(_ context.Context, id string) (store.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.documents[id]
	if !ok {
		return store.DocumentRecord{}, store.ErrNotFound
	}
	rec.Mentions = slices.Clone(rec.Mentions)
	rec.Disambiguations = maps.Clone(rec.Disambiguations)
	return rec, nil
}

func (s *Storage) SaveResult(_ context.Context, result common.DocumentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.documents[result.DocumentID]
	if !ok {
		return store.ErrNotFound
	}
	result.Disambiguations = maps.Clone(result.Disambiguations)
	rec = store.RecordFromResult(rec, result)
	rec.UpdatedAt = s.now()
	s.documents[result.DocumentID] = rec
	return nil
}
