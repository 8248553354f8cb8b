package render

import (
	"fmt"
	"strings"

	"github.com/Alias1177/Baccarat/models"
)

const recordSeparator = " → "

// Record formats the most recent rounds, or "none" for an empty log
func Record(recent []models.Outcome) string {
	if len(recent) == 0 {
		return "none"
	}
	return models.FormatOutcomes(recent, recordSeparator)
}

// Summary renders the record line, the tally and the live streak
func Summary(report models.Report, window int, recent []models.Outcome) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Record (last %d): %s\n", window, Record(recent))

	tally := report.Tally
	fmt.Fprintf(&sb, "Total rounds: %d\n", tally.Total)
	for _, o := range []models.Outcome{models.Banker, models.Player, models.Tie} {
		pct, ok := tally.Percent(o)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%s: %d (%.1f%%)\n", o, tally.Count(o), pct)
	}

	if report.HasStreak {
		fmt.Fprintf(&sb, "Current streak: %d x %s\n", report.Streak.Length, report.Streak.Outcome)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// Roads renders big road column lengths and the derived road colours
func Roads(report models.Report) string {
	if len(report.Columns) == 0 {
		return "Big road: empty"
	}

	var sb strings.Builder
	heads := make([]string, len(report.Columns))
	for i, col := range report.Columns {
		heads[i] = fmt.Sprintf("%s%d", col[0].Short(), len(col))
	}
	fmt.Fprintf(&sb, "Big road: %s\n", strings.Join(heads, " "))

	fmt.Fprintf(&sb, "Big eye boy: %s\n", colours(report.Subroads.BigEye))
	fmt.Fprintf(&sb, "Small road: %s\n", colours(report.Subroads.Small))
	fmt.Fprintf(&sb, "Cockroach: %s", colours(report.Subroads.Cockroach))

	return sb.String()
}

func colours(cs []models.Color) string {
	if len(cs) == 0 {
		return "-"
	}
	out := make([]byte, len(cs))
	for i, c := range cs {
		if c == models.Red {
			out[i] = 'R'
		} else {
			out[i] = 'B'
		}
	}
	return string(out)
}

// Advice renders the suggested bet with its rationale
func Advice(p models.Prediction) string {
	if p.Status == models.StatusInsufficientData {
		return "Not enough data to suggest a bet yet.\n" + p.Rationale
	}

	switch p.Side {
	case models.SideHold:
		return fmt.Sprintf("Suggestion: hold this round (confidence %d%%)\n%s", p.Confidence, p.Rationale)
	case models.SideBanker, models.SidePlayer:
		side, _ := p.Side.Outcome()
		return fmt.Sprintf("Suggestion: %s (confidence %d%%)\n%s", side, p.Confidence, p.Rationale)
	default:
		return p.Rationale
	}
}

// Backtest renders a replay summary
func Backtest(res *models.BacktestResults) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Backtest (%s) over %d rounds\n", res.Strategy, res.Rounds)
	fmt.Fprintf(&sb, "Calls: %d  Wins: %d  Losses: %d  Pushes: %d  Holds: %d\n",
		res.TotalCalls, res.Wins, res.Losses, res.Pushes, res.Holds)
	fmt.Fprintf(&sb, "Win rate: %.1f%%  Longest win run: %d  Longest losing run: %d",
		res.WinPercentage, res.MaxConsecutive.Wins, res.MaxConsecutive.Losses)

	for _, method := range methodOrder {
		if pct, ok := res.MethodPerformance[method]; ok {
			fmt.Fprintf(&sb, "\n  %s: %.1f%%", method, pct)
		}
	}
	return sb.String()
}

var methodOrder = []string{
	models.MethodFrequency,
	models.MethodTrend,
	models.MethodReversal,
	models.MethodBalanced,
}

// Simulation renders a Monte Carlo summary
func Simulation(res *models.SimulationResults) string {
	return fmt.Sprintf(
		"Simulation (%s): %d shoes x %d hands\nCalls: %d  Wins: %d  Losses: %d  Pushes: %d\nHit rate: %.2f%%  Per shoe avg/best/worst: %.1f%% / %.1f%% / %.1f%%",
		res.Strategy, res.Shoes, res.HandsPerShoe,
		res.TotalCalls, res.Wins, res.Losses, res.Pushes,
		res.HitRate, res.AverageShoeWinPct, res.BestShoeWinPct, res.WorstShoeWinPct,
	)
}

// JournalStats renders a user's journal hit rate
func JournalStats(stats models.JournalStats) string {
	if stats.Total == 0 {
		return "No predictions journaled yet. Press Analyze to start."
	}
	return fmt.Sprintf("Predictions: %d  Settled: %d  Hits: %d  Pushes: %d\nHit rate: %.1f%%",
		stats.Total, stats.Resolved, stats.Hits, stats.Pushes, stats.HitPercentage)
}
