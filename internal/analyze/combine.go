package analyze

import (
	"fmt"
	"math"

	"github.com/Alias1177/Baccarat/internal/calculate"
	"github.com/Alias1177/Baccarat/internal/road"
	"github.com/Alias1177/Baccarat/models"
)

const (
	fallbackCap      = 60
	trendCap         = 95
	balancedScore    = 50
	maxImbalanceLift = 10
	confidenceCap    = 99
)

// Combine folds the tally and the three derived roads into one suggestion.
// A red majority follows the last non-tie outcome, a blue majority bets on
// its reversal and an even split holds. With no derived-road checks yet it
// falls back to base frequency.
func Combine(results []models.Outcome) models.Prediction {
	last, ok := calculate.LastNonTie(results)
	if !ok {
		return insufficientData()
	}

	tally := calculate.ComputeTally(results)
	subroads := road.DeriveSubroads(road.BuildColumns(results))
	red, blue := subroads.Counts()
	checks := red + blue

	if checks == 0 {
		return frequencyPrediction(tally)
	}

	diff := tally.Imbalance()
	stability := int(math.RoundToEven(float64(red) / float64(checks) * 100))

	p := models.Prediction{
		Status:    models.StatusOK,
		Stability: stability,
		Red:       red,
		Blue:      blue,
	}

	var note string
	switch {
	case red > blue:
		p.Side = models.SideOf(last)
		p.Method = models.MethodTrend
		p.Confidence = min(trendCap, 50+(stability-50)+diff)
		note = fmt.Sprintf("Derived roads lean red (%d red / %d blue), following the trend", red, blue)
	case blue > red:
		p.Side = models.SideOf(last.Opposite())
		p.Method = models.MethodReversal
		p.Confidence = min(trendCap, 45+(100-stability)+diff)
		note = fmt.Sprintf("Derived roads lean blue (%d blue / %d red), expecting a reversal", blue, red)
	default:
		p.Side = models.SideHold
		p.Method = models.MethodBalanced
		p.Confidence = balancedScore
		note = fmt.Sprintf("Red and blue are even (%d / %d), hold", red, blue)
	}

	p.Confidence = min(confidenceCap, p.Confidence+min(maxImbalanceLift, diff*2))
	p.Rationale = fmt.Sprintf("%s | stability %d%% | confidence %d%%", note, stability, p.Confidence)

	return p
}

// frequencyPrediction bets on the side that has won more rounds
func frequencyPrediction(tally models.Tally) models.Prediction {
	diff := tally.Imbalance()
	confidence := min(fallbackCap, 50+diff*5)

	p := models.Prediction{
		Status:     models.StatusOK,
		Method:     models.MethodFrequency,
		Confidence: confidence,
	}

	switch {
	case tally.Banker > tally.Player:
		p.Side = models.SideBanker
		p.Rationale = fmt.Sprintf("Base frequency favours Banker (Banker %d vs Player %d), confidence %d%%",
			tally.Banker, tally.Player, confidence)
	case tally.Player > tally.Banker:
		p.Side = models.SidePlayer
		p.Rationale = fmt.Sprintf("Base frequency favours Player (Player %d vs Banker %d), confidence %d%%",
			tally.Player, tally.Banker, confidence)
	default:
		p.Side = models.SideHold
		p.Rationale = fmt.Sprintf("Banker and Player are even (%d / %d), hold", tally.Banker, tally.Player)
	}

	return p
}

func insufficientData() models.Prediction {
	return models.Prediction{
		Status:    models.StatusInsufficientData,
		Side:      models.SideNone,
		Method:    models.MethodNone,
		Rationale: "Insufficient data: no Banker or Player rounds recorded yet",
	}
}
