// Command sprint solves the 100 Metres event exactly and writes the
// optimal policy to a SQLite database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/dice-decathlon/internal/config"
	"github.com/freeeve/dice-decathlon/internal/logger"
	"github.com/freeeve/dice-decathlon/internal/model"
	"github.com/freeeve/dice-decathlon/internal/repository"
	"github.com/freeeve/dice-decathlon/internal/repository/sqlite"
	"github.com/freeeve/dice-decathlon/internal/solver"
	"github.com/freeeve/dice-decathlon/pkg/decathlon"
)

func main() {
	logger.Init()
	cfg := config.Load()

	var workers int
	flag.IntVar(&workers, "workers", cfg.Workers, "Solver concurrency (0 = one per CPU)")
	flag.Parse()

	// Destination is the single positional argument; SPRINT_DB or the
	// built-in default fills in when omitted.
	dbPath := cfg.SprintDB
	if flag.NArg() > 0 {
		dbPath = flag.Arg(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	res, err := solver.New[decathlon.SprintState](decathlon.Sprint{}, workers).Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Solve failed")
	}

	rows := model.SprintRows(res.Entries)
	summary := model.NewSummary(res.Root, len(rows))

	db, err := sqlite.Open(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Database open failed")
	}
	defer db.Close()

	if err := sqlite.NewSprintRepo(db).Replace(ctx, rows, summary); err != nil {
		log.Error().Err(err).Msg("Persist failed")
		switch {
		case errors.Is(err, repository.ErrSchema):
			os.Exit(2)
		case errors.Is(err, repository.ErrWrite):
			os.Exit(3)
		}
		os.Exit(1)
	}

	log.Info().
		Int("states", res.States).
		Int("levels", res.Levels).
		Int("rows", len(rows)).
		Float64("ev", summary.EV).
		Float64("sd", summary.SD).
		Msg("100 metres policy solved")

	fmt.Printf("100 metres: both sets score %.6f +/- %.6f -- policy saved to %s (%d rows)\n",
		summary.EV, summary.SD, dbPath, len(rows))
}
