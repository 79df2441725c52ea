package main

import (
	"github.com/OFFIS-RIT/ned/internal/db"
	"github.com/OFFIS-RIT/ned/internal/server"
	"github.com/OFFIS-RIT/ned/internal/util"
	"github.com/OFFIS-RIT/ned/pkg/logger"
	"github.com/OFFIS-RIT/ned/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	if util.GetEnvBool("MIGRATE", true) {
		dir := util.GetEnvString("MIGRATIONS_DIR", db.DefaultMigrationsDir)
		if err := db.Migrate(util.GetEnv("DATABASE_URL"), dir); err != nil {
			logger.Fatal("Failed to migrate database", "err", err)
		}
	}

	server.Init()
}
