package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/ned/pkg/common"
	"github.com/OFFIS-RIT/ned/pkg/logger"
	"github.com/OFFIS-RIT/ned/pkg/oracle"

	"golang.org/x/sync/errgroup"
)

// Disambiguate resolves mentions of one document. Candidates are fetched
// from oracles.Candidates; a mention without candidates is left out of the
// result. Phases run strictly one after another.
func (g *GraphClient) Disambiguate(
	ctx context.Context,
	mentions []string,
	oracles oracle.Oracles,
) (common.Disambiguations, error) {
	if oracles.Candidates == nil {
		return nil, errors.New("no candidate provider configured")
	}
	mentions = common.Dedupe(mentions)

	pairs := make([]common.MentionCandidates, 0, len(mentions))
	for _, m := range mentions {
		candidates, err := oracles.Candidates.GetCandidates(ctx, m)
		if err != nil {
			if !oracle.IsMalformed(err) {
				return nil, fmt.Errorf("failed to get candidates for %q: %w", m, err)
			}
			logger.Warn("[Graph] Skipping mention with malformed candidate data", "mention", m, "err", err)
			continue
		}
		pairs = append(pairs, common.MentionCandidates{Mention: m, Candidates: candidates})
	}

	return g.DisambiguateCandidates(ctx, pairs, oracles)
}

// DisambiguateCandidates runs graph construction, influence computation,
// aggregation and selection over already retrieved candidates.
func (g *GraphClient) DisambiguateCandidates(
	ctx context.Context,
	pairs []common.MentionCandidates,
	oracles oracle.Oracles,
) (common.Disambiguations, error) {
	if oracles.Links == nil || oracles.Popularity == nil {
		return nil, errors.New("link and popularity oracles are required")
	}
	start := time.Now()

	gr := NewGraph()
	seen := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		if _, ok := seen[p.Mention]; ok {
			continue
		}
		seen[p.Mention] = struct{}{}
		gr.AddCandidates(p.Mention, p.Candidates)
	}
	if gr.Len() == 0 {
		return common.Disambiguations{}, nil
	}

	if err := g.BuildEdges(ctx, gr, oracles.Links); err != nil {
		return nil, fmt.Errorf("failed to build candidate graph: %w", err)
	}

	s, err := g.InfluenceMatrix(ctx, gr)
	if err != nil {
		return nil, fmt.Errorf("failed to compute influence matrix: %w", err)
	}

	if err := AggregateScores(gr, s); err != nil {
		return nil, err
	}

	res, err := g.Select(ctx, gr, oracles.Popularity)
	if err != nil {
		return nil, err
	}

	logger.Debug(
		"[Graph] Disambiguation finished",
		"mentions", len(gr.Mentions()),
		"nodes", gr.Len(),
		"edges", gr.EdgeCount(),
		"duration", time.Since(start),
	)
	return res, nil
}

// ProcessDocuments disambiguates documents on a bounded worker pool. The
// result slice matches docs by index. A failing document stores its error
// in its result and does not stop the others; only cancellation of ctx
// is returned as an error.
func (g *GraphClient) ProcessDocuments(
	ctx context.Context,
	docs []common.Document,
	oracles oracle.Oracles,
) ([]common.DocumentResult, error) {
	results := make([]common.DocumentResult, len(docs))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelDocs)

	logger.Info("[Graph] Processing", "total_documents", len(docs), "workers", g.parallelDocs)

	for i, doc := range docs {
		eg.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res, err := g.Disambiguate(gCtx, doc.Mentions, oracles)
			results[i] = common.DocumentResult{DocumentID: doc.ID, Disambiguations: res}
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				logger.Error("[Graph] Document failed", "document", doc.ID, "err", err)
				results[i].Err = err
				results[i].Error = err.Error()
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return results, err
	}

	logger.Info("[Graph] Documents processed", "total_documents", len(docs))
	return results, nil
}
