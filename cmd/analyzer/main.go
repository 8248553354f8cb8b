package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Baccarat/internal/analyze"
	"github.com/Alias1177/Baccarat/internal/baktest"
	"github.com/Alias1177/Baccarat/internal/config"
	"github.com/Alias1177/Baccarat/internal/render"
	"github.com/Alias1177/Baccarat/models"
)

// output is the -json document
type output struct {
	render.Snapshot
	Backtest   *models.BacktestResults   `json:"backtest,omitempty"`
	Simulation *models.SimulationResults `json:"simulation,omitempty"`
}

func main() {
	results := flag.String("results", "", `scorecard, e.g. "B B T P" or "BBTP" (read from stdin when empty)`)
	strategyName := flag.String("strategy", "", "strategy: "+fmt.Sprint(analyze.Names()))
	runBacktest := flag.Bool("backtest", false, "replay the scorecard round by round")
	runSimulation := flag.Bool("simulate", false, "run a Monte Carlo simulation over random shoes")
	asJSON := flag.Bool("json", false, "print JSON instead of text")
	flag.Parse()

	// Setup context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	config.SetupLogging(cfg.LogLevel)

	name := cfg.Strategy
	if *strategyName != "" {
		name = *strategyName
	}
	strategy, err := analyze.NewStrategy(name)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid strategy")
	}

	// 3. Read the scorecard
	text := *results
	if text == "" {
		if text, err = readAll(os.Stdin); err != nil {
			log.Fatal().Err(err).Msg("Failed to read results from stdin")
		}
	}
	outcomes, err := models.ParseOutcomes(text)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse results")
	}
	printConfig(cfg, name, len(outcomes))

	// 4. Analyze
	report := analyze.Analyze(outcomes, strategy)
	out := output{Snapshot: render.NewSnapshot(report, outcomes)}

	// 5. Run backtesting if enabled
	if *runBacktest {
		out.Backtest = baktest.Replay(outcomes, strategy)
	}

	// 6. Run simulation if enabled
	if *runSimulation {
		out.Simulation, err = baktest.Simulate(ctx, strategy, baktest.SimulationConfig{
			Shoes:        cfg.SimShoes,
			HandsPerShoe: cfg.SimHands,
			Workers:      cfg.SimWorkers,
			Seed:         cfg.SimSeed,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Simulation failed")
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode output")
		}
		return
	}

	fmt.Println(render.Summary(report, cfg.HistoryWindow, tail(outcomes, cfg.HistoryWindow)))
	fmt.Println()
	fmt.Println(render.Roads(report))
	fmt.Println()
	fmt.Println(render.Advice(report.Prediction))
	if out.Backtest != nil {
		fmt.Println()
		fmt.Println(render.Backtest(out.Backtest))
	}
	if out.Simulation != nil {
		fmt.Println()
		fmt.Println(render.Simulation(out.Simulation))
	}
}

// printConfig logs the effective settings
func printConfig(cfg *config.Config, strategy string, rounds int) {
	log.Debug().
		Str("Strategy", strategy).
		Int("Rounds", rounds).
		Int("HistoryWindow", cfg.HistoryWindow).
		Int("SimShoes", cfg.SimShoes).
		Int("SimHands", cfg.SimHands).
		Int("SimWorkers", cfg.SimWorkers).
		Int64("SimSeed", cfg.SimSeed).
		Msg("Configuration loaded")
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(bufio.NewReader(r))
	return string(data), err
}

func tail(outcomes []models.Outcome, n int) []models.Outcome {
	if len(outcomes) > n {
		return outcomes[len(outcomes)-n:]
	}
	return outcomes
}
