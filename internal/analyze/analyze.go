package analyze

import (
	"github.com/Alias1177/Baccarat/internal/calculate"
	"github.com/Alias1177/Baccarat/internal/road"
	"github.com/Alias1177/Baccarat/models"
)

// Analyze recomputes every derived view of the log from scratch
func Analyze(results []models.Outcome, strategy Strategy) models.Report {
	report := Overview(results)
	report.Strategy = strategy.Name()
	report.Prediction = strategy.Predict(results)
	return report
}

// Overview is Analyze without a prediction, for refreshing stats after
// every recorded round.
func Overview(results []models.Outcome) models.Report {
	cols := road.BuildColumns(results)
	streak, hasStreak := calculate.ComputeStreak(results)

	return models.Report{
		Tally:     calculate.ComputeTally(results),
		Streak:    streak,
		HasStreak: hasStreak,
		Columns:   cols,
		Subroads:  road.DeriveSubroads(cols),
	}
}
