// Package replay records oracle answers into a store and serves them back,
// so that evaluation runs are repeatable without network access.
package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/ned/pkg/logger"
	"github.com/OFFIS-RIT/ned/pkg/oracle"
	"github.com/OFFIS-RIT/ned/pkg/store"
)

type Mode string

const (
	// ModeOff passes every call to the live oracles.
	ModeOff Mode = "off"
	// ModeRecord passes every call to the live oracles and stores the answer.
	ModeRecord Mode = "record"
	// ModeReplay answers from the store. Misses fall through to the live
	// oracles, if any, and are recorded.
	ModeReplay Mode = "replay"
)

// ErrNotRecorded is returned in replay mode for a miss without live oracle.
var ErrNotRecorded = errors.New("answer not recorded")

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeOff:
		return ModeOff, nil
	case ModeRecord, ModeReplay:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown replay mode %q", s)
}

// Oracle implements all three oracle interfaces on top of a store.
type Oracle struct {
	live  oracle.Oracles
	store store.OracleStore
	mode  Mode
}

// New wraps live. live may have nil members in replay mode.
func New(live oracle.Oracles, st store.OracleStore, mode Mode) *Oracle {
	return &Oracle{live: live, store: st, mode: mode}
}

// Oracles returns the bundle to hand to the disambiguation engine. In off
// mode that is live itself.
func (o *Oracle) Oracles() oracle.Oracles {
	if o.mode == ModeOff || o.store == nil {
		return o.live
	}
	return oracle.Oracles{Candidates: o, Links: o, Popularity: o}
}

func (o *Oracle) readStore() bool {
	return o.mode == ModeReplay
}

func (o *Oracle) GetCandidates(ctx context.Context, mention string) ([]string, error) {
	if o.readStore() {
		c, ok, err := o.store.GetCandidates(ctx, mention)
		if err != nil {
			return nil, fmt.Errorf("failed to read recorded candidates: %w", err)
		}
		if ok {
			return c, nil
		}
	}
	if o.live.Candidates == nil {
		return nil, fmt.Errorf("candidates for %q: %w", mention, ErrNotRecorded)
	}
	c, err := o.live.Candidates.GetCandidates(ctx, mention)
	if err != nil {
		return nil, err
	}
	if err := o.store.PutCandidates(ctx, mention, c); err != nil {
		logger.Warn("[Replay] Failed to record candidates", "mention", mention, "err", err)
	}
	return c, nil
}

func (o *Oracle) OutgoingLinks(ctx context.Context, title string) (oracle.LinkSet, error) {
	if o.readStore() {
		l, ok, err := o.store.GetLinks(ctx, title)
		if err != nil {
			return nil, fmt.Errorf("failed to read recorded links: %w", err)
		}
		if ok {
			return oracle.NewLinkSet(l...), nil
		}
	}
	if o.live.Links == nil {
		return nil, fmt.Errorf("links of %q: %w", title, ErrNotRecorded)
	}
	s, err := o.live.Links.OutgoingLinks(ctx, title)
	if err != nil {
		return nil, err
	}
	if err := o.store.PutLinks(ctx, title, s.Titles()); err != nil {
		logger.Warn("[Replay] Failed to record links", "title", title, "err", err)
	}
	return s, nil
}

func (o *Oracle) BacklinkPage(ctx context.Context, title string, continuation string) (oracle.BacklinkPage, error) {
	if o.readStore() {
		p, ok, err := o.store.GetBacklinkPage(ctx, title, continuation)
		if err != nil {
			return oracle.BacklinkPage{}, fmt.Errorf("failed to read recorded backlinks: %w", err)
		}
		if ok {
			return p, nil
		}
	}
	if o.live.Popularity == nil {
		return oracle.BacklinkPage{}, fmt.Errorf("backlinks of %q: %w", title, ErrNotRecorded)
	}
	p, err := o.live.Popularity.BacklinkPage(ctx, title, continuation)
	if err != nil {
		return oracle.BacklinkPage{}, err
	}
	if err := o.store.PutBacklinkPage(ctx, title, continuation, p); err != nil {
		logger.Warn("[Replay] Failed to record backlinks", "title", title, "err", err)
	}
	return p, nil
}
