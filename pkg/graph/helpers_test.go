package graph

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/OFFIS-RIT/ned/pkg/oracle"
)

type fakeCandidates struct {
	candidates map[string][]string
	errs       map[string]error
}

func (f *fakeCandidates) GetCandidates(_ context.Context, mention string) ([]string, error) {
	if err := f.errs[mention]; err != nil {
		return nil, err
	}
	return f.candidates[mention], nil
}

type fakeLinks struct {
	mu    sync.Mutex
	links map[string][]string
	errs  map[string]error
	calls map[string]int
}

func newFakeLinks(links map[string][]string) *fakeLinks {
	return &fakeLinks{links: links, calls: make(map[string]int)}
}

func (f *fakeLinks) OutgoingLinks(_ context.Context, title string) (oracle.LinkSet, error) {
	f.mu.Lock()
	f.calls[title]++
	f.mu.Unlock()
	if err := f.errs[title]; err != nil {
		return nil, err
	}
	return oracle.NewLinkSet(f.links[title]...), nil
}

// fakePopularity serves totals[title] backlinks in pages of
// oracle.BacklinkPageSize. Continuation tokens are page offsets.
type fakePopularity struct {
	mu     sync.Mutex
	totals map[string]int
	errs   map[string]error
	calls  []string
}

func (f *fakePopularity) BacklinkPage(_ context.Context, title, continuation string) (oracle.BacklinkPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, title+"@"+continuation)
	f.mu.Unlock()
	if err := f.errs[title]; err != nil {
		return oracle.BacklinkPage{}, err
	}
	offset := 0
	if continuation != "" {
		var err error
		offset, err = strconv.Atoi(continuation)
		if err != nil {
			return oracle.BacklinkPage{}, fmt.Errorf("%w: bad token", oracle.ErrMalformed)
		}
	}
	remaining := f.totals[title] - offset
	if remaining <= oracle.BacklinkPageSize {
		return oracle.BacklinkPage{Count: max(remaining, 0)}, nil
	}
	next := strconv.Itoa(offset + oracle.BacklinkPageSize)
	return oracle.BacklinkPage{Count: oracle.BacklinkPageSize, Next: next}, nil
}

func (f *fakePopularity) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func lincolnOracles() oracle.Oracles {
	return oracle.Oracles{
		Candidates: &fakeCandidates{candidates: map[string][]string{
			"Lincoln":   {"Abraham Lincoln", "Lincoln, England"},
			"Civil War": {"American Civil War", "Spanish Civil War"},
		}},
		Links: newFakeLinks(map[string][]string{
			"Abraham Lincoln": {"American Civil War"},
		}),
		Popularity: &fakePopularity{},
	}
}
