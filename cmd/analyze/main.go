// Command analyze replays a stored policy into the exact score
// distribution it induces and reports summary statistics, optionally
// exporting the distribution as CSV.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/freeeve/dice-decathlon/internal/config"
	"github.com/freeeve/dice-decathlon/internal/logger"
	"github.com/freeeve/dice-decathlon/internal/model"
	"github.com/freeeve/dice-decathlon/internal/replay"
	"github.com/freeeve/dice-decathlon/internal/repository/sqlite"
)

func main() {
	logger.Init()
	cfg := config.Load()

	var (
		game     string
		dbPath   string
		csvPath  string
		attempts int
	)
	flag.StringVar(&game, "game", "longjump", "Event to analyze: longjump or sprint")
	flag.StringVar(&dbPath, "db", "", "Policy database path (default per event)")
	flag.StringVar(&csvPath, "csv", "", "Write the single-run distribution to this CSV file")
	flag.IntVar(&attempts, "attempts", 3, "Long jump attempts to report (best one counts)")
	flag.Parse()

	if attempts < 1 {
		log.Fatal().Int("attempts", attempts).Msg("Need at least one attempt")
	}

	ctx := context.Background()

	var (
		pmf     replay.PMF
		summary *model.Summary
		err     error
	)
	switch game {
	case "longjump":
		if dbPath == "" {
			dbPath = cfg.LongJumpDB
		}
		pmf, summary, err = analyzeLongJump(ctx, dbPath)
	case "sprint":
		if dbPath == "" {
			dbPath = cfg.SprintDB
		}
		pmf, summary, err = analyzeSprint(ctx, dbPath)
	default:
		log.Fatal().Str("game", game).Msg("Unknown game (want longjump or sprint)")
	}
	if err != nil {
		log.Fatal().Err(err).Str("db", dbPath).Msg("Analysis failed")
	}

	// The replayed distribution must agree with the scalars the solver
	// stored; drift means the policy rows and meta are out of sync.
	m := pmf.Moments()
	if math.Abs(m.EV-summary.EV) > 1e-9 || math.Abs(m.SD()-summary.SD) > 1e-9 {
		log.Warn().
			Float64("replayed_ev", m.EV).
			Float64("stored_ev", summary.EV).
			Float64("replayed_sd", m.SD()).
			Float64("stored_sd", summary.SD).
			Msg("Replayed moments drift from stored summary")
	}

	fmt.Printf("%s policy over %d states (schema v%d)\n", game, summary.States, summary.SchemaVersion)
	printDistribution("single run", pmf)
	if game == "longjump" && attempts > 1 {
		printDistribution(fmt.Sprintf("best of %d attempts", attempts), pmf.BestOf(attempts))
	}

	if csvPath != "" {
		if err := writeCSV(csvPath, pmf); err != nil {
			log.Fatal().Err(err).Str("csv", csvPath).Msg("CSV export failed")
		}
		fmt.Printf("\ndistribution written to %s\n", csvPath)
	}
}

func analyzeLongJump(ctx context.Context, dbPath string) (replay.PMF, *model.Summary, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	repo := sqlite.NewLongJumpRepo(db)
	summary, err := repo.Summary(ctx)
	if err != nil {
		return nil, nil, err
	}
	pmf, err := replay.LongJump(ctx, repo)
	if err != nil {
		return nil, nil, err
	}
	return pmf, summary, nil
}

func analyzeSprint(ctx context.Context, dbPath string) (replay.PMF, *model.Summary, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	repo := sqlite.NewSprintRepo(db)
	summary, err := repo.Summary(ctx)
	if err != nil {
		return nil, nil, err
	}
	pmf, err := replay.Sprint(ctx, repo)
	if err != nil {
		return nil, nil, err
	}
	return pmf, summary, nil
}

func printDistribution(label string, pmf replay.PMF) {
	support := pmf.Support()
	xs := make([]float64, len(support))
	ws := make([]float64, len(support))
	for i, s := range support {
		xs[i] = float64(s)
		ws[i] = pmf[s]
	}

	m := pmf.Moments()
	fmt.Printf("\n%s:\n", label)
	fmt.Printf("  EV %.6f, SD %.6f\n", m.EV, m.SD())
	fmt.Printf("  p10 %.0f, median %.0f, p90 %.0f\n",
		stat.Quantile(0.1, stat.Empirical, xs, ws),
		stat.Quantile(0.5, stat.Empirical, xs, ws),
		stat.Quantile(0.9, stat.Empirical, xs, ws))
	fmt.Printf("  support %d..%d (%d distinct scores)\n",
		support[0], support[len(support)-1], len(support))
}

func writeCSV(path string, pmf replay.PMF) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"score", "probability", "cdf"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	cdf := 0.0
	for _, s := range pmf.Support() {
		cdf += pmf[s]
		rec := []string{
			strconv.Itoa(s),
			strconv.FormatFloat(pmf[s], 'g', 17, 64),
			strconv.FormatFloat(cdf, 'g', 17, 64),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return f.Close()
}
