package baktest

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/Alias1177/Baccarat/internal/analyze"
	"github.com/Alias1177/Baccarat/models"
)

// Eight-deck hand probabilities
const (
	ProbBanker = 0.4586
	ProbPlayer = 0.4462
	ProbTie    = 0.0952
)

// SimulationConfig controls a Monte Carlo run
type SimulationConfig struct {
	Shoes        int
	HandsPerShoe int
	Workers      int
	Seed         int64 // 0 picks a time based seed
}

// shoeStats is one worker's tally, merged after all workers finish
type shoeStats struct {
	wins, losses, pushes, calls int
	shoes                       int
	sumWinPct                   float64
	best, worst                 float64
	scored                      int // shoes with at least one decided call
}

// DrawHand draws one outcome with eight-deck probabilities
func DrawHand(rng *rand.Rand) models.Outcome {
	x := rng.Float64()
	switch {
	case x < ProbBanker:
		return models.Banker
	case x < ProbBanker+ProbPlayer:
		return models.Player
	default:
		return models.Tie
	}
}

// DrawShoe draws a shoe of n hands
func DrawShoe(rng *rand.Rand, n int) []models.Outcome {
	shoe := make([]models.Outcome, n)
	for i := range shoe {
		shoe[i] = DrawHand(rng)
	}
	return shoe
}

// Simulate replays the strategy over random shoes split across workers
func Simulate(ctx context.Context, strategy analyze.Strategy, cfg SimulationConfig) (*models.SimulationResults, error) {
	if cfg.Shoes <= 0 || cfg.HandsPerShoe < 2 {
		return nil, fmt.Errorf("simulation needs shoes > 0 and at least 2 hands per shoe, got %d/%d", cfg.Shoes, cfg.HandsPerShoe)
	}
	numWorkers := cfg.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > cfg.Shoes {
		numWorkers = cfg.Shoes
	}
	baseSeed := cfg.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	stats := make([]shoeStats, numWorkers) // each worker writes only its own slot
	chunk := cfg.Shoes / numWorkers
	remainder := cfg.Shoes % numWorkers

	for w := 0; w < numWorkers; w++ {
		shoes := chunk
		if w < remainder {
			shoes++
		}
		go func(i, n int) {
			defer wg.Done()
			// distinct seeds so worker sequences do not overlap
			rng := rand.New(rand.NewSource(baseSeed + int64(i)*1337))
			runShoes(ctx, rng, strategy, n, cfg.HandsPerShoe, &stats[i])
		}(w, shoes)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return merge(strategy.Name(), cfg, stats), nil
}

func runShoes(ctx context.Context, rng *rand.Rand, strategy analyze.Strategy, n, hands int, local *shoeStats) {
	for s := 0; s < n; s++ {
		if ctx.Err() != nil {
			return
		}

		res := Replay(DrawShoe(rng, hands), strategy)
		local.shoes++
		local.wins += res.Wins
		local.losses += res.Losses
		local.pushes += res.Pushes
		local.calls += res.TotalCalls

		if res.Wins+res.Losses == 0 {
			continue
		}
		pct := res.WinPercentage
		if local.scored == 0 || pct > local.best {
			local.best = pct
		}
		if local.scored == 0 || pct < local.worst {
			local.worst = pct
		}
		local.sumWinPct += pct
		local.scored++
	}
}

func merge(name string, cfg SimulationConfig, stats []shoeStats) *models.SimulationResults {
	results := &models.SimulationResults{
		Strategy:     name,
		HandsPerShoe: cfg.HandsPerShoe,
	}

	var sumWinPct float64
	scored := 0
	for _, st := range stats {
		results.Shoes += st.shoes
		results.Wins += st.wins
		results.Losses += st.losses
		results.Pushes += st.pushes
		results.TotalCalls += st.calls

		if st.scored == 0 {
			continue
		}
		if scored == 0 || st.best > results.BestShoeWinPct {
			results.BestShoeWinPct = st.best
		}
		if scored == 0 || st.worst < results.WorstShoeWinPct {
			results.WorstShoeWinPct = st.worst
		}
		sumWinPct += st.sumWinPct
		scored += st.scored
	}

	if decided := results.Wins + results.Losses; decided > 0 {
		results.HitRate = float64(results.Wins) / float64(decided) * 100
	}
	if scored > 0 {
		results.AverageShoeWinPct = sumWinPct / float64(scored)
	}

	return results
}
