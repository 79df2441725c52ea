// Package oracle defines the knowledge-base lookups the disambiguation
// engine depends on: candidate retrieval, outgoing links and backlink
// popularity. Implementations live in sub-packages.
package oracle

import (
	"context"
	"errors"
)

// BacklinkPageSize is the number of backlinks requested per page.
const BacklinkPageSize = 500

var (
	// ErrTransient marks failures worth retrying (network, 5xx, throttling).
	ErrTransient = errors.New("transient oracle failure")
	// ErrMalformed marks a response that could not be interpreted. It is
	// fatal for the single call that produced it.
	ErrMalformed = errors.New("malformed oracle response")
)

// CandidateProvider proposes knowledge-base titles for a mention. An empty
// result is valid and means the mention cannot be resolved.
type CandidateProvider interface {
	GetCandidates(ctx context.Context, mention string) ([]string, error)
}

// LinkOracle returns every title a page links to. Pagination is handled by
// the implementation; a missing page yields an empty set.
type LinkOracle interface {
	OutgoingLinks(ctx context.Context, title string) (LinkSet, error)
}

// PopularityOracle returns one page of incoming links for title. An empty
// continuation starts at the beginning.
type PopularityOracle interface {
	BacklinkPage(ctx context.Context, title string, continuation string) (BacklinkPage, error)
}

// BacklinkPage is the number of backlinks on one page and the token for the
// next one. Next is empty when the data is exhausted.
type BacklinkPage struct {
	Count int    `json:"count"`
	Next  string `json:"next,omitempty"`
}

// Exhausted reports whether no further page exists.
func (p BacklinkPage) Exhausted() bool {
	return p.Next == ""
}

// LinkSet is a set of article titles.
type LinkSet map[string]struct{}

// NewLinkSet builds a set from titles.
func NewLinkSet(titles ...string) LinkSet {
	s := make(LinkSet, len(titles))
	for _, t := range titles {
		s[t] = struct{}{}
	}
	return s
}

// Contains reports whether title is in the set. A nil set contains nothing.
func (s LinkSet) Contains(title string) bool {
	_, ok := s[title]
	return ok
}

// Titles returns the members in unspecified order.
func (s LinkSet) Titles() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	return out
}

// Oracles bundles the three lookups a disambiguation run needs.
type Oracles struct {
	Candidates CandidateProvider
	Links      LinkOracle
	Popularity PopularityOracle
}

// IsTransient reports whether err should be retried at the boundary.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsMalformed reports whether err stems from an uninterpretable response.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}
