package oracle

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// MemoLinkOracle caches OutgoingLinks answers so each title is fetched at
// most once. Concurrent requests for the same title share one call. Errors
// are not cached.
type MemoLinkOracle struct {
	inner LinkOracle

	cache   map[string]LinkSet
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewMemoLinkOracle wraps inner. The wrapper is meant to live for one graph
// build.
func NewMemoLinkOracle(inner LinkOracle) *MemoLinkOracle {
	return &MemoLinkOracle{
		inner: inner,
		cache: make(map[string]LinkSet),
	}
}

func (m *MemoLinkOracle) lookup(title string) (LinkSet, bool) {
	m.cacheMu.RLock()
	defer m.cacheMu.RUnlock()
	s, ok := m.cache[title]
	return s, ok
}

// OutgoingLinks returns the cached set for title or fetches it.
func (m *MemoLinkOracle) OutgoingLinks(ctx context.Context, title string) (LinkSet, error) {
	if s, ok := m.lookup(title); ok {
		return s, nil
	}

	result, err, _ := m.group.Do(title, func() (any, error) {
		if s, ok := m.lookup(title); ok {
			return s, nil
		}
		s, err := m.inner.OutgoingLinks(ctx, title)
		if err != nil {
			return nil, err
		}
		if s == nil {
			s = LinkSet{}
		}

		m.cacheMu.Lock()
		m.cache[title] = s
		m.cacheMu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(LinkSet), nil
}

// LinksTo reports whether a's cached link set contains b. Titles that were
// never fetched link nowhere.
func (m *MemoLinkOracle) LinksTo(a, b string) bool {
	s, _ := m.lookup(a)
	return s.Contains(b)
}
