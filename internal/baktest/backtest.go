package baktest

import (
	"github.com/Alias1177/Baccarat/internal/analyze"
	"github.com/Alias1177/Baccarat/models"
)

// Replay walks the log forward, predicting every round from the rounds
// before it. Holds and insufficient-data calls are not scored; a tie
// after a Banker or Player call is a push.
func Replay(log []models.Outcome, strategy analyze.Strategy) *models.BacktestResults {
	results := &models.BacktestResults{
		Strategy:          strategy.Name(),
		Rounds:            len(log),
		MethodPerformance: make(map[string]float64),
		DetailedResults:   []models.PredictionResult{},
	}

	// Статистика по методам прогноза
	methodStats := make(map[string]struct {
		correct int
		total   int
	})

	consecutiveWins := 0
	consecutiveLosses := 0

	for i := 1; i < len(log); i++ {
		prediction := strategy.Predict(log[:i])
		if prediction.Status != models.StatusOK {
			continue
		}
		if prediction.Side == models.SideHold {
			results.Holds++
			continue
		}

		actual := log[i]
		result := models.PredictionResult{
			Index:      i,
			Side:       prediction.Side,
			Confidence: prediction.Confidence,
			Method:     prediction.Method,
			Actual:     actual,
		}
		results.TotalCalls++

		// Ничья не считается ни выигрышем, ни проигрышем
		if actual == models.Tie {
			result.Push = true
			results.Pushes++
			results.DetailedResults = append(results.DetailedResults, result)
			continue
		}

		result.WasCorrect = models.SideOf(actual) == prediction.Side
		results.DetailedResults = append(results.DetailedResults, result)

		stats := methodStats[prediction.Method]
		stats.total++

		if result.WasCorrect {
			results.Wins++
			stats.correct++
			consecutiveWins++
			consecutiveLosses = 0
			if consecutiveWins > results.MaxConsecutive.Wins {
				results.MaxConsecutive.Wins = consecutiveWins
			}
		} else {
			results.Losses++
			consecutiveLosses++
			consecutiveWins = 0
			if consecutiveLosses > results.MaxConsecutive.Losses {
				results.MaxConsecutive.Losses = consecutiveLosses
			}
		}
		methodStats[prediction.Method] = stats
	}

	if decided := results.Wins + results.Losses; decided > 0 {
		results.WinPercentage = float64(results.Wins) / float64(decided) * 100
	}

	for method, stats := range methodStats {
		if stats.total > 0 {
			results.MethodPerformance[method] = float64(stats.correct) / float64(stats.total) * 100
		}
	}

	return results
}
