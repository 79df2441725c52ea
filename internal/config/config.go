// Package config turns environment variables into the parameter structs of
// the disambiguation engine and its oracles. It is shared by all binaries.
package config

import (
	"github.com/OFFIS-RIT/ned/internal/metrics"
	"github.com/OFFIS-RIT/ned/internal/util"
	"github.com/OFFIS-RIT/ned/pkg/graph"
	"github.com/OFFIS-RIT/ned/pkg/oracle"
	"github.com/OFFIS-RIT/ned/pkg/oracle/replay"
	"github.com/OFFIS-RIT/ned/pkg/oracle/wiki"
	"github.com/OFFIS-RIT/ned/pkg/store"
)

func GraphParams() graph.NewGraphClientParams {
	return graph.NewGraphClientParams{
		Damping:          util.GetEnvNumeric("NED_DAMPING", graph.DefaultDamping),
		Iterations:       util.GetEnvInt("NED_ITERATIONS", graph.DefaultIterations),
		ParallelDocs:     util.GetEnvInt("NED_PARALLEL_DOCS", graph.DefaultParallelDocs),
		ParallelSeeds:    util.GetEnvInt("NED_PARALLEL_SEEDS", 0),
		ParallelRequests: util.GetEnvInt("NED_PARALLEL_REQ", graph.DefaultParallelRequests),
	}
}

func WikiParams() wiki.NewClientParams {
	return wiki.NewClientParams{
		Language:   util.GetEnvString("WIKI_LANGUAGE", wiki.DefaultLanguage),
		APIURL:     util.GetEnv("WIKI_API_URL"),
		UserAgent:  util.GetEnv("WIKI_USER_AGENT"),
		RatePerSec: util.GetEnvNumeric("WIKI_RATE_PER_SEC", wiki.DefaultRatePerSec),
		Timeout:    util.GetEnvDuration("WIKI_TIMEOUT", wiki.DefaultTimeout),
		MaxRetries: util.GetEnvInt("NED_MAX_RETRIES", wiki.DefaultMaxRetries),
	}
}

func ReplayMode() (replay.Mode, error) {
	return replay.ParseMode(util.GetEnvString("NED_REPLAY", string(replay.ModeOff)))
}

// WikiOracles uses one client for all three lookups.
func WikiOracles(c *wiki.Client) oracle.Oracles {
	return oracle.Oracles{Candidates: c, Links: c, Popularity: c}
}

// Oracles instruments live and puts the replay layer on top of it. st may be
// nil, which disables replay.
func Oracles(live oracle.Oracles, st store.OracleStore, mode replay.Mode) oracle.Oracles {
	return replay.New(metrics.Instrument(live), st, mode).Oracles()
}
