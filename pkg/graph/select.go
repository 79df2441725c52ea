package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/ned/pkg/common"
	"github.com/OFFIS-RIT/ned/pkg/logger"
	"github.com/OFFIS-RIT/ned/pkg/oracle"
)

// Select picks the highest-scoring candidate of every mention. A unique
// maximum wins without any oracle call; exact ties are settled by
// ResolveTie. Backlink pages fetched for one mention are reused for the
// others.
func (g *GraphClient) Select(ctx context.Context, gr *Graph, pop oracle.PopularityOracle) (common.Disambiguations, error) {
	out := make(common.Disambiguations, len(gr.mentions))
	tally := newBacklinkTally(pop)

	for _, mention := range gr.Mentions() {
		ids := gr.MentionNodes(mention)
		if len(ids) == 0 {
			continue
		}

		best := gr.nodes[ids[0]].Score
		tied := []string{gr.nodes[ids[0]].Candidate}
		for _, id := range ids[1:] {
			n := gr.nodes[id]
			switch {
			case n.Score > best:
				best = n.Score
				tied = []string{n.Candidate}
			case n.Score == best:
				tied = append(tied, n.Candidate)
			}
		}

		if len(tied) == 1 {
			out[mention] = tied[0]
			continue
		}

		logger.Debug("[Graph] Resolving tie", "mention", mention, "candidates", len(tied), "score", best)
		winner, err := resolveTie(ctx, tied, tally)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tie for %q: %w", mention, err)
		}
		out[mention] = winner
	}

	return out, nil
}

// ResolveTie runs a right-to-left elimination tournament over titles: the
// last title is the first champion and meets each earlier title in turn.
// A duel compares running backlink counts page by page and the larger count
// wins; when both titles run out of data with equal counts the
// lexicographically smaller title wins.
//
// The tournament is sequential, so with exactly equal counts the outcome can
// depend on the input order. titles is not modified.
func ResolveTie(ctx context.Context, titles []string, pop oracle.PopularityOracle) (string, error) {
	return resolveTie(ctx, titles, newBacklinkTally(pop))
}

func resolveTie(ctx context.Context, titles []string, tally *backlinkTally) (string, error) {
	if len(titles) == 0 {
		return "", errors.New("no candidates to resolve")
	}
	champion := titles[len(titles)-1]
	for i := len(titles) - 2; i >= 0; i-- {
		winner, err := tally.duel(ctx, champion, titles[i])
		if err != nil {
			return "", err
		}
		champion = winner
	}
	return champion, nil
}

// backlinkTally memoizes backlink pages per title. totals[k] is the running
// count after k+1 pages.
type backlinkTally struct {
	pop    oracle.PopularityOracle
	titles map[string]*titleTally
}

type titleTally struct {
	totals    []int
	next      string
	used      map[string]struct{}
	exhausted bool
}

func newBacklinkTally(pop oracle.PopularityOracle) *backlinkTally {
	return &backlinkTally{pop: pop, titles: make(map[string]*titleTally)}
}

func (b *backlinkTally) duel(ctx context.Context, a, c string) (string, error) {
	if a == c {
		return a, nil
	}
	for depth := 1; ; depth++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		countA, doneA, err := b.countAt(ctx, a, depth)
		if err != nil {
			return "", err
		}
		countC, doneC, err := b.countAt(ctx, c, depth)
		if err != nil {
			return "", err
		}
		switch {
		case countA > countC:
			return a, nil
		case countC > countA:
			return c, nil
		case doneA && doneC:
			logger.Debug("[Graph] Undecided backlink duel", "a", a, "b", c, "count", countA)
			if c < a {
				return c, nil
			}
			return a, nil
		}
	}
}

// countAt returns the running count of title after depth pages (or after
// all pages if fewer exist) and whether no page beyond that depth exists.
func (b *backlinkTally) countAt(ctx context.Context, title string, depth int) (int, bool, error) {
	t, ok := b.titles[title]
	if !ok {
		t = &titleTally{used: make(map[string]struct{})}
		b.titles[title] = t
	}

	for len(t.totals) < depth && !t.exhausted {
		t.used[t.next] = struct{}{}
		page, err := b.pop.BacklinkPage(ctx, title, t.next)
		if err != nil {
			if !oracle.IsMalformed(err) {
				return 0, false, fmt.Errorf("failed to fetch backlinks for %q: %w", title, err)
			}
			logger.Warn("[Graph] Treating malformed backlink page as end of data", "title", title, "err", err)
			t.exhausted = true
			break
		}
		prev := 0
		if len(t.totals) > 0 {
			prev = t.totals[len(t.totals)-1]
		}
		t.totals = append(t.totals, prev+max(page.Count, 0))
		// A continuation seen before would replay pages already counted.
		if _, again := t.used[page.Next]; page.Exhausted() || again {
			t.exhausted = true
		}
		t.next = page.Next
	}

	if len(t.totals) == 0 {
		return 0, true, nil
	}
	if depth > len(t.totals) {
		depth = len(t.totals)
	}
	done := t.exhausted && depth == len(t.totals)
	return t.totals[depth-1], done, nil
}
