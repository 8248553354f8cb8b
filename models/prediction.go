package models

// Side is what the advisor suggests betting on next
type Side string

const (
	SideNone   Side = ""
	SideBanker Side = "BANKER"
	SidePlayer Side = "PLAYER"
	SideHold   Side = "HOLD"
)

// SideOf maps a Banker/Player outcome to the matching bet side
func SideOf(o Outcome) Side {
	switch o {
	case Banker:
		return SideBanker
	case Player:
		return SidePlayer
	default:
		return SideNone
	}
}

// Outcome returns the outcome a bet side wins on, false for Hold/None
func (s Side) Outcome() (Outcome, bool) {
	switch s {
	case SideBanker:
		return Banker, true
	case SidePlayer:
		return Player, true
	default:
		return 0, false
	}
}

// Tally holds per-outcome counts over a result log
type Tally struct {
	Total  int `json:"total"`
	Banker int `json:"banker"`
	Player int `json:"player"`
	Tie    int `json:"tie"`
}

// Count returns the number of rounds that ended with o
func (t Tally) Count(o Outcome) int {
	switch o {
	case Banker:
		return t.Banker
	case Player:
		return t.Player
	case Tie:
		return t.Tie
	default:
		return 0
	}
}

// Percent returns the share of o in percent. It reports false for an empty
// tally instead of dividing by zero.
func (t Tally) Percent(o Outcome) (float64, bool) {
	if t.Total == 0 {
		return 0, false
	}
	return float64(t.Count(o)) / float64(t.Total) * 100, true
}

// Imbalance is |banker - player|
func (t Tally) Imbalance() int {
	if t.Banker > t.Player {
		return t.Banker - t.Player
	}
	return t.Player - t.Banker
}

// Streak is the trailing run of identical outcomes
type Streak struct {
	Outcome Outcome `json:"outcome"`
	Length  int     `json:"length"`
}

// Column is one big-road column: a run of the same non-tie outcome
type Column []Outcome

// Color classifies one derived-road comparison
type Color string

const (
	Red  Color = "red"
	Blue Color = "blue"
)

// Subroads holds the three derived roads (lag 1, 2 and 3)
type Subroads struct {
	BigEye    []Color `json:"big_eye"`
	Small     []Color `json:"small"`
	Cockroach []Color `json:"cockroach"`
}

// Counts returns red and blue totals across all three roads
func (s Subroads) Counts() (red, blue int) {
	for _, road := range [][]Color{s.BigEye, s.Small, s.Cockroach} {
		for _, c := range road {
			if c == Red {
				red++
			} else {
				blue++
			}
		}
	}
	return red, blue
}

// PredictionStatus distinguishes a usable prediction from a data shortfall
type PredictionStatus string

const (
	StatusOK               PredictionStatus = "OK"
	StatusInsufficientData PredictionStatus = "INSUFFICIENT_DATA"
)

// Prediction methods
const (
	MethodNone      = "NONE"
	MethodFrequency = "FREQUENCY"
	MethodTrend     = "TREND_FOLLOWING"
	MethodReversal  = "REVERSAL"
	MethodBalanced  = "BALANCED"
)

// Prediction is the advisor's suggestion for the next round
type Prediction struct {
	Status     PredictionStatus `json:"status"`
	Side       Side             `json:"side"`
	Confidence int              `json:"confidence"` // 0-99
	Stability  int              `json:"stability"`  // % of red derived-road checks
	Red        int              `json:"red"`
	Blue       int              `json:"blue"`
	Method     string           `json:"method"`
	Rationale  string           `json:"rationale"`
}

// Actionable reports whether the prediction names a side to bet on
func (p Prediction) Actionable() bool {
	_, ok := p.Side.Outcome()
	return p.Status == StatusOK && ok
}

// Report bundles every derived view of a result log for display
type Report struct {
	Strategy   string     `json:"strategy"`
	Tally      Tally      `json:"tally"`
	Streak     Streak     `json:"streak"`
	HasStreak  bool       `json:"has_streak"`
	Columns    []Column   `json:"columns"`
	Subroads   Subroads   `json:"subroads"`
	Prediction Prediction `json:"prediction"`
}
