package graph

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/ned/pkg/logger"
	"github.com/OFFIS-RIT/ned/pkg/oracle"

	"golang.org/x/sync/errgroup"
)

// BuildEdges connects every pair of nodes with different mentions whose
// candidates link to each other in either direction. The outgoing links of
// each distinct candidate are fetched exactly once before the pairwise pass,
// which is then pure set membership.
//
// A malformed answer for one title only drops that title's links. Any other
// lookup failure aborts the build.
func (g *GraphClient) BuildEdges(ctx context.Context, gr *Graph, links oracle.LinkOracle) error {
	memo := oracle.NewMemoLinkOracle(links)

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelRequests)
	for _, title := range gr.Candidates() {
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}
			_, err := memo.OutgoingLinks(gCtx, title)
			if err == nil {
				return nil
			}
			if oracle.IsMalformed(err) {
				logger.Warn("[Graph] Ignoring malformed link data", "title", title, "err", err)
				return nil
			}
			return fmt.Errorf("failed to fetch links for %q: %w", title, err)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	n := gr.Len()
	for u := 0; u < n; u++ {
		nu := gr.nodes[u]
		for v := u + 1; v < n; v++ {
			nv := gr.nodes[v]
			if nu.Mention == nv.Mention {
				continue
			}
			if memo.LinksTo(nu.Candidate, nv.Candidate) || memo.LinksTo(nv.Candidate, nu.Candidate) {
				gr.AddEdge(u, v)
			}
		}
	}

	logger.Debug("[Graph] Edges built", "nodes", n, "edges", gr.EdgeCount())
	return nil
}
