package graph

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Matrix is a dense n x n matrix stored row-major.
type Matrix struct {
	n    int
	data []float64
}

// NewMatrix returns an n x n zero matrix.
func NewMatrix(n int) *Matrix {
	return &Matrix{n: n, data: make([]float64, n*n)}
}

// Size returns n.
func (m *Matrix) Size() int { return m.n }

// At returns the entry at row r, column c.
func (m *Matrix) At(r, c int) float64 { return m.data[r*m.n+c] }

// Set stores v at row r, column c.
func (m *Matrix) Set(r, c int, v float64) { m.data[r*m.n+c] = v }

// Column returns a copy of column c.
func (m *Matrix) Column(c int) []float64 {
	out := make([]float64, m.n)
	for r := 0; r < m.n; r++ {
		out[r] = m.At(r, c)
	}
	return out
}

// TransitionMatrix returns the column-stochastic adjacency matrix of gr:
// M[i][j] is 1 for every edge, then each column is divided by its sum.
// Columns of isolated nodes stay all-zero; they receive no teleport mass.
func TransitionMatrix(gr *Graph) *Matrix {
	n := gr.Len()
	m := NewMatrix(n)
	for c := 0; c < n; c++ {
		var sum float64
		for r := 0; r < n; r++ {
			if gr.HasEdge(r, c) {
				m.Set(r, c, 1)
				sum++
			}
		}
		if sum == 0 {
			continue
		}
		for r := 0; r < n; r++ {
			if v := m.At(r, c); v != 0 {
				m.Set(r, c, v/sum)
			}
		}
	}
	return m
}

type entry struct {
	col int
	w   float64
}

// sparseRows lists the non-zero entries of every row in ascending column
// order. Summing them in that order gives the same result as the dense
// product, because skipped terms are exact zeros.
func sparseRows(m *Matrix) [][]entry {
	rows := make([][]entry, m.n)
	for r := 0; r < m.n; r++ {
		for c := 0; c < m.n; c++ {
			if w := m.At(r, c); w != 0 {
				rows[r] = append(rows[r], entry{col: c, w: w})
			}
		}
	}
	return rows
}

// PersonalizedPageRank runs exactly iterations steps of
// v = damping*(M v) + (1-damping)*onehot(seed), starting from the uniform
// vector, and returns v.
func PersonalizedPageRank(m *Matrix, seed int, damping float64, iterations int) []float64 {
	return powerIterate(sparseRows(m), m.n, seed, damping, iterations)
}

func powerIterate(rows [][]entry, n int, seed int, damping float64, iterations int) []float64 {
	v := make([]float64, n)
	if n == 0 {
		return v
	}
	for i := range v {
		v[i] = 1 / float64(n)
	}
	next := make([]float64, n)
	restart := 1 - damping
	for range iterations {
		for r := 0; r < n; r++ {
			var s float64
			for _, e := range rows[r] {
				s += e.w * v[e.col]
			}
			next[r] = damping * s
		}
		next[seed] += restart
		v, next = next, v
	}
	return v
}

// InfluenceMatrix computes S, whose column i is the personalized PageRank
// vector seeded at node i. Seeds are independent and run in parallel; each
// worker writes only its own column.
func (g *GraphClient) InfluenceMatrix(ctx context.Context, gr *Graph) (*Matrix, error) {
	n := gr.Len()
	s := NewMatrix(n)
	if n == 0 {
		return s, nil
	}
	rows := sparseRows(TransitionMatrix(gr))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelSeeds)
	for seed := 0; seed < n; seed++ {
		eg.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			v := powerIterate(rows, n, seed, g.damping, g.iterations)
			for r, x := range v {
				s.Set(r, seed, x)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}
