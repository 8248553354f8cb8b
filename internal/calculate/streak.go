package calculate

import "github.com/Alias1177/Baccarat/models"

// ComputeStreak measures the trailing run of the log's last outcome.
// Logs shorter than two rounds carry no streak signal.
func ComputeStreak(results []models.Outcome) (models.Streak, bool) {
	if len(results) < 2 {
		return models.Streak{}, false
	}

	last := results[len(results)-1]
	streak := 1
	for i := len(results) - 2; i >= 0; i-- {
		if results[i] != last {
			break
		}
		streak++
	}

	return models.Streak{Outcome: last, Length: streak}, true
}
