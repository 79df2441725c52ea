package graph

import "runtime"

const (
	DefaultDamping          = 0.85
	DefaultIterations       = 20
	DefaultParallelDocs     = 4
	DefaultParallelRequests = 8
)

// GraphClient runs collective disambiguation. It holds only immutable
// configuration, so one client can serve many documents concurrently.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	damping          float64
	iterations       int
	parallelDocs     int
	parallelSeeds    int
	parallelRequests int
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// Damping is the probability of following an edge instead of restarting at
// the seed. Iterations is the exact number of power-iteration steps.
// ParallelDocs bounds how many documents ProcessDocuments runs at once,
// ParallelSeeds how many seeds of one influence matrix are computed at once
// and ParallelRequests how many link lookups run concurrently.
// Zero values select the defaults.
type NewGraphClientParams struct {
	Damping          float64
	Iterations       int
	ParallelDocs     int
	ParallelSeeds    int
	ParallelRequests int
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client := graph.NewGraphClient(graph.NewGraphClientParams{
//		Damping:    0.85,
//		Iterations: 20,
//	})
//	res, err := client.Disambiguate(ctx, mentions, oracles)
func NewGraphClient(params NewGraphClientParams) *GraphClient {
	g := &GraphClient{
		damping:          params.Damping,
		iterations:       params.Iterations,
		parallelDocs:     params.ParallelDocs,
		parallelSeeds:    params.ParallelSeeds,
		parallelRequests: params.ParallelRequests,
	}
	if g.damping <= 0 || g.damping >= 1 {
		g.damping = DefaultDamping
	}
	if g.iterations <= 0 {
		g.iterations = DefaultIterations
	}
	if g.parallelDocs <= 0 {
		g.parallelDocs = DefaultParallelDocs
	}
	if g.parallelSeeds <= 0 {
		g.parallelSeeds = runtime.NumCPU()
	}
	if g.parallelRequests <= 0 {
		g.parallelRequests = DefaultParallelRequests
	}
	return g
}

func (g *GraphClient) Damping() float64 { return g.damping }

func (g *GraphClient) Iterations() int { return g.iterations }
