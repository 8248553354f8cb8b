package analyze

import (
	"errors"
	"fmt"

	"github.com/Alias1177/Baccarat/internal/calculate"
	"github.com/Alias1177/Baccarat/models"
)

// ErrUnknownStrategy is returned by NewStrategy for unregistered names
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy names
const (
	StrategyFrequency       = "frequency"
	StrategyFrequencyStreak = "frequency_streak"
	StrategyDerivedRoads    = "derived_roads"
)

// Strategy turns a result log into a next-round suggestion
type Strategy interface {
	Name() string
	Predict(results []models.Outcome) models.Prediction
}

// Names lists the available strategies from simplest to richest
func Names() []string {
	return []string{StrategyFrequency, StrategyFrequencyStreak, StrategyDerivedRoads}
}

// NewStrategy creates a strategy by name
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case StrategyFrequency:
		return FrequencyStrategy{}, nil
	case StrategyFrequencyStreak:
		return FrequencyStreakStrategy{}, nil
	case StrategyDerivedRoads:
		return DerivedRoadsStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// FrequencyStrategy bets on whichever side has won more rounds
type FrequencyStrategy struct{}

func (FrequencyStrategy) Name() string { return StrategyFrequency }

func (FrequencyStrategy) Predict(results []models.Outcome) models.Prediction {
	if _, ok := calculate.LastNonTie(results); !ok {
		return insufficientData()
	}
	return frequencyPrediction(calculate.ComputeTally(results))
}

// FrequencyStreakStrategy is the frequency bet annotated with the live streak
type FrequencyStreakStrategy struct{}

func (FrequencyStreakStrategy) Name() string { return StrategyFrequencyStreak }

func (FrequencyStreakStrategy) Predict(results []models.Outcome) models.Prediction {
	p := FrequencyStrategy{}.Predict(results)
	if p.Status != models.StatusOK {
		return p
	}
	if streak, ok := calculate.ComputeStreak(results); ok {
		p.Rationale = fmt.Sprintf("%s | current streak %d x %s", p.Rationale, streak.Length, streak.Outcome)
	}
	return p
}

// DerivedRoadsStrategy combines the big road with its derived roads
type DerivedRoadsStrategy struct{}

func (DerivedRoadsStrategy) Name() string { return StrategyDerivedRoads }

func (DerivedRoadsStrategy) Predict(results []models.Outcome) models.Prediction {
	return Combine(results)
}
