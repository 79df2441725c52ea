package graph

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/ned/pkg/oracle"
)

func TestAddCandidates(t *testing.T) {
	gr := NewGraph()
	gr.AddCandidates("Lincoln", []string{"Abraham Lincoln", "Lincoln, England", "Abraham Lincoln"})
	gr.AddCandidates("Nowhere", nil)
	gr.AddCandidates("Civil War", []string{"American Civil War"})

	if gr.Len() != 4 {
		t.Fatalf("expected 4 nodes, got %d", gr.Len())
	}
	for i, n := range gr.Nodes() {
		if n.ID != i {
			t.Fatalf("node %d has id %d", i, n.ID)
		}
	}
	if got := gr.Mentions(); !reflect.DeepEqual(got, []string{"Lincoln", "Civil War"}) {
		t.Fatalf("Mentions() = %v", got)
	}
	if got := gr.MentionNodes("Lincoln"); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Fatalf("MentionNodes(Lincoln) = %v", got)
	}
	if got := gr.Candidates(); !reflect.DeepEqual(got, []string{"Abraham Lincoln", "Lincoln, England", "American Civil War"}) {
		t.Fatalf("Candidates() = %v", got)
	}
}

func TestAddEdge(t *testing.T) {
	gr := NewGraph()
	gr.AddCandidates("a", []string{"A1", "A2"})
	gr.AddCandidates("b", []string{"B1"})

	tests := []struct {
		name string
		u, v int
		want bool
	}{
		{"cross mention", 0, 2, true},
		{"duplicate", 2, 0, false},
		{"same mention", 0, 1, false},
		{"self loop", 2, 2, false},
		{"out of range", 0, 9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gr.AddEdge(tt.u, tt.v); got != tt.want {
				t.Fatalf("AddEdge(%d,%d) = %v, want %v", tt.u, tt.v, got, tt.want)
			}
		})
	}
	if gr.EdgeCount() != 1 {
		t.Fatalf("expected 1 edge, got %d", gr.EdgeCount())
	}
	if !gr.HasEdge(0, 2) || !gr.HasEdge(2, 0) {
		t.Fatal("edge must be symmetric")
	}
}

func TestBuildEdges_NeverJoinsSameMention(t *testing.T) {
	gr := NewGraph()
	gr.AddCandidates("Paris", []string{"Paris", "Paris, Texas", "Paris Hilton"})
	gr.AddCandidates("France", []string{"France", "France (band)"})
	links := newFakeLinks(map[string][]string{
		"Paris":        {"Paris, Texas", "France", "Paris Hilton"},
		"Paris, Texas": {"Paris"},
		"France":       {"Paris", "France (band)"},
		"Paris Hilton": {"France (band)"},
	})

	c := NewGraphClient(NewGraphClientParams{})
	if err := c.BuildEdges(context.Background(), gr, links); err != nil {
		t.Fatalf("BuildEdges() error = %v", err)
	}

	for u := 0; u < gr.Len(); u++ {
		for v := 0; v < gr.Len(); v++ {
			if gr.HasEdge(u, v) && gr.Node(u).Mention == gr.Node(v).Mention {
				t.Fatalf("edge %d-%d joins mention %q", u, v, gr.Node(u).Mention)
			}
		}
	}
	// Paris-France (both directions), Paris Hilton-France (band).
	if gr.EdgeCount() != 2 {
		t.Fatalf("expected 2 edges, got %d", gr.EdgeCount())
	}
	if !gr.HasEdge(0, 3) || !gr.HasEdge(2, 4) {
		t.Fatal("expected edges Paris-France and Paris Hilton-France (band)")
	}
	for title, n := range links.calls {
		if n != 1 {
			t.Fatalf("links for %q fetched %d times", title, n)
		}
	}
}

func TestBuildEdges_LinkInEitherDirection(t *testing.T) {
	gr := NewGraph()
	gr.AddCandidates("x", []string{"X"})
	gr.AddCandidates("y", []string{"Y"})
	links := newFakeLinks(map[string][]string{"Y": {"X"}})

	c := NewGraphClient(NewGraphClientParams{})
	if err := c.BuildEdges(context.Background(), gr, links); err != nil {
		t.Fatalf("BuildEdges() error = %v", err)
	}
	if !gr.HasEdge(0, 1) {
		t.Fatal("expected edge from a one-directional link")
	}
}

func TestBuildEdges_Errors(t *testing.T) {
	gr := NewGraph()
	gr.AddCandidates("x", []string{"X"})
	gr.AddCandidates("y", []string{"Y", "Z"})
	links := newFakeLinks(map[string][]string{"X": {"Z"}})
	links.errs = map[string]error{"Y": fmt.Errorf("%w: bad json", oracle.ErrMalformed)}

	c := NewGraphClient(NewGraphClientParams{})
	if err := c.BuildEdges(context.Background(), gr, links); err != nil {
		t.Fatalf("malformed data for one title must not fail the build: %v", err)
	}
	if !gr.HasEdge(0, 2) || gr.HasEdge(0, 1) {
		t.Fatal("unexpected edges after malformed response")
	}

	gr = NewGraph()
	gr.AddCandidates("x", []string{"X"})
	links = newFakeLinks(nil)
	links.errs = map[string]error{"X": oracle.ErrTransient}
	if err := c.BuildEdges(context.Background(), gr, links); !errors.Is(err, oracle.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
