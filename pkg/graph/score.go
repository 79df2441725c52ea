package graph

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInfluence is returned when an influence matrix holds a NaN, an
// infinity or a negative value. It is fatal for the document.
var ErrInvalidInfluence = errors.New("invalid influence matrix")

// ValidateInfluence checks that s matches gr and that every entry is finite
// and non-negative.
func ValidateInfluence(gr *Graph, s *Matrix) error {
	if s == nil || s.Size() != gr.Len() {
		return fmt.Errorf("%w: size does not match graph", ErrInvalidInfluence)
	}
	n := s.Size()
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v := s.At(r, c)
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("%w: entry (%d,%d) = %v", ErrInvalidInfluence, r, c, v)
			}
		}
	}
	return nil
}

// AggregateScores sets the score of every node i to
//
//	sum over mentions m != mention(i) of max_{j in m} S[i][j]
//
// where S[i][j] (row i, column j) is the mass at node i when node j is the
// seed, i.e. how strongly candidate j endorses candidate i. Taking the
// maximum per mention keeps a mention with many weak candidates from
// outvoting a mention with one strong candidate.
func AggregateScores(gr *Graph, s *Matrix) error {
	if err := ValidateInfluence(gr, s); err != nil {
		return err
	}
	mentions := gr.Mentions()
	for i := 0; i < gr.Len(); i++ {
		own := gr.nodes[i].Mention
		var score float64
		for _, m := range mentions {
			if m == own {
				continue
			}
			best := 0.0
			for _, j := range gr.MentionNodes(m) {
				if v := s.At(i, j); v > best {
					best = v
				}
			}
			score += best
		}
		gr.setScore(i, score)
	}
	return nil
}
