package main

import (
	"context"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/ned/pkg/common"
	"github.com/OFFIS-RIT/ned/pkg/eval"
	"github.com/OFFIS-RIT/ned/pkg/graph"
	"github.com/OFFIS-RIT/ned/pkg/loader/aida"
	"github.com/OFFIS-RIT/ned/pkg/loader/wikitext"
	"github.com/OFFIS-RIT/ned/pkg/logger"
	"github.com/OFFIS-RIT/ned/pkg/oracle"
)

// WikitextSource returns the markup of an article.
type WikitextSource interface {
	Wikitext(ctx context.Context, title string) (string, error)
}

type runner struct {
	graph   *graph.GraphClient
	oracles oracle.Oracles
	pages   WikitextSource
	out     io.Writer
}

// runAida disambiguates every annotated AIDA document and scores it
// against the annotations. Failed documents are reported and left out of
// the overall score.
func (r *runner) runAida(ctx context.Context, tsv io.Reader) (eval.Score, error) {
	docs, err := aida.ParseAnnotations(tsv)
	if err != nil {
		return eval.Score{}, fmt.Errorf("failed to read annotations: %w", err)
	}

	input := make([]common.Document, len(docs))
	for i, d := range docs {
		input[i] = common.Document{ID: d.Name, Mentions: d.Mentions}
	}

	results, err := r.graph.ProcessDocuments(ctx, input, r.oracles)
	if err != nil {
		return eval.Score{}, err
	}

	var overall eval.Score
	for i, res := range results {
		if res.Err != nil {
			fmt.Fprintf(r.out, "%s: failed: %v\n", res.DocumentID, res.Err)
			continue
		}
		s := eval.Compare(eval.AidaTruth(docs[i].Annotations), res.Disambiguations, nil)
		fmt.Fprintf(r.out, "accuracy for %s: %.2f%% (%d/%d)\n", res.DocumentID, s.Percentage(), s.Correct, s.Total)
		overall = overall.Add(s)
	}
	fmt.Fprintf(r.out, "overall accuracy: %.2f%% (%d/%d)\n", overall.Percentage(), overall.Correct, overall.Total)
	return overall, nil
}

// runArticle disambiguates the mentions found in an article and checks
// them against the article's own links.
func (r *runner) runArticle(ctx context.Context, title string, mentions []string) (eval.Score, error) {
	text, err := r.pages.Wikitext(ctx, title)
	if err != nil {
		return eval.Score{}, fmt.Errorf("failed to fetch wikitext of %q: %w", title, err)
	}
	truth := wikitext.ExtractLinks(text)

	res, err := r.graph.Disambiguate(ctx, mentions, r.oracles)
	if err != nil {
		return eval.Score{}, err
	}
	logger.Debug("[Eval] Disambiguations", "title", title, "result", res)

	s := eval.Compare(truth, res, nil)
	fmt.Fprintf(r.out, "Accuracy on article %q: %.2f%% (%d/%d)\n", title, s.Percentage(), s.Correct, s.Total)
	return s, nil
}
