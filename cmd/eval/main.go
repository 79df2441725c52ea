// Command eval measures disambiguation accuracy on the AIDA CoNLL-YAGO
// annotations or on a single Wikipedia article.
//
// Usage:
//
//	eval [flags] aida <annotations.tsv>
//	eval [flags] article <title> <corenlp.json>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/ned/internal/config"
	"github.com/OFFIS-RIT/ned/internal/util"
	"github.com/OFFIS-RIT/ned/pkg/graph"
	"github.com/OFFIS-RIT/ned/pkg/loader"
	fileloader "github.com/OFFIS-RIT/ned/pkg/loader/io"
	"github.com/OFFIS-RIT/ned/pkg/logger"
	"github.com/OFFIS-RIT/ned/pkg/logger/console"
	"github.com/OFFIS-RIT/ned/pkg/oracle/replay"
	"github.com/OFFIS-RIT/ned/pkg/oracle/wiki"
	"github.com/OFFIS-RIT/ned/pkg/store"
	"github.com/OFFIS-RIT/ned/pkg/store/memory"
	pgxstore "github.com/OFFIS-RIT/ned/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage:\n  eval [flags] aida <annotations.tsv>\n  eval [flags] article <title> <corenlp.json>\n\nFlags:\n")
	flag.PrintDefaults()
}

func main() {
	util.LoadEnv()

	lang := flag.String("lang", util.GetEnvString("WIKI_LANGUAGE", wiki.DefaultLanguage), "Wikipedia language edition")
	replayMode := flag.String("replay", util.GetEnvString("NED_REPLAY", string(replay.ModeOff)), "oracle replay mode: off, record or replay")
	dbURL := flag.String("db", util.GetEnv("DATABASE_URL"), "PostgreSQL URL for recorded oracle answers (in-memory when empty)")
	debug := flag.Bool("debug", util.GetEnvBool("DEBUG", false), "debug logging")
	flag.Usage = usage
	flag.Parse()

	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{Debug: *debug}))

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode, err := replay.ParseMode(*replayMode)
	if err != nil {
		logger.Fatal("Invalid replay mode", "err", err)
	}

	var st store.OracleStore = memory.New()
	if *dbURL != "" {
		pool, err := pgxpool.New(ctx, *dbURL)
		if err != nil {
			logger.Fatal("Unable to connect to database", "err", err)
		}
		defer pool.Close()
		st = pgxstore.NewDBStorageWithConnection(pool)
	}

	wikiParams := config.WikiParams()
	wikiParams.Language = *lang
	wikiClient := wiki.NewClient(wikiParams)

	r := &runner{
		graph:   graph.NewGraphClient(config.GraphParams()),
		oracles: config.Oracles(config.WikiOracles(wikiClient), st, mode),
		pages:   wikiClient,
		out:     os.Stdout,
	}

	switch args[0] {
	case "aida":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		f, err := os.Open(args[1])
		if err != nil {
			logger.Fatal("Failed to open annotations", "err", err)
		}
		defer f.Close()
		if _, err := r.runAida(ctx, f); err != nil {
			logger.Fatal("Evaluation failed", "err", err)
		}
	case "article":
		if len(args) != 3 {
			usage()
			os.Exit(2)
		}
		file := loader.NewDocumentFile(loader.NewDocumentFileParams{
			ID:       args[1],
			FilePath: args[2],
			Format:   loader.DocumentFormatCoreNLP,
			Loader:   fileloader.NewIODocumentLoader(),
		})
		mentions, err := file.Mentions(ctx)
		if err != nil {
			logger.Fatal("Failed to read entities", "err", err)
		}
		if _, err := r.runArticle(ctx, args[1], mentions); err != nil {
			logger.Fatal("Evaluation failed", "err", err)
		}
	default:
		usage()
		os.Exit(2)
	}
}
