package calculate

import "github.com/Alias1177/Baccarat/models"

// ComputeTally counts each outcome in the log
func ComputeTally(results []models.Outcome) models.Tally {
	t := models.Tally{Total: len(results)}
	for _, r := range results {
		switch r {
		case models.Banker:
			t.Banker++
		case models.Player:
			t.Player++
		case models.Tie:
			t.Tie++
		}
	}
	return t
}

// LastNonTie returns the most recent Banker or Player outcome
func LastNonTie(results []models.Outcome) (models.Outcome, bool) {
	for i := len(results) - 1; i >= 0; i-- {
		if results[i] != models.Tie {
			return results[i], true
		}
	}
	return 0, false
}
