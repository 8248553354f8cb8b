package render

import "github.com/Alias1177/Baccarat/models"

// Snapshot is the JSON view of a table shared by the web surface and the CLI
type Snapshot struct {
	Log        []models.Outcome   `json:"log"`
	Strategy   string             `json:"strategy"`
	Tally      models.Tally       `json:"tally"`
	Streak     *models.Streak     `json:"streak,omitempty"`
	Columns    []models.Column    `json:"columns"`
	Subroads   models.Subroads    `json:"subroads"`
	Prediction *models.Prediction `json:"prediction,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// NewSnapshot flattens a report. The prediction is only included when the
// report was analyzed.
func NewSnapshot(report models.Report, log []models.Outcome) Snapshot {
	snap := Snapshot{
		Log:      log,
		Strategy: report.Strategy,
		Tally:    report.Tally,
		Columns:  report.Columns,
		Subroads: report.Subroads,
	}
	if snap.Log == nil {
		snap.Log = []models.Outcome{}
	}
	if snap.Columns == nil {
		snap.Columns = []models.Column{}
	}
	if report.HasStreak {
		streak := report.Streak
		snap.Streak = &streak
	}
	if report.Prediction.Status != "" {
		prediction := report.Prediction
		snap.Prediction = &prediction
	}
	return snap
}
