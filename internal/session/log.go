package session

import (
	"fmt"

	"github.com/Alias1177/Baccarat/models"
)

// Log is the chronological record of round outcomes. Entries are only
// appended, removed from the tail or cleared all at once.
type Log struct {
	results []models.Outcome
}

// Record appends one round
func (l *Log) Record(o models.Outcome) error {
	if !o.Valid() {
		return fmt.Errorf("%w: %d", models.ErrUnknownOutcome, int(o))
	}
	l.results = append(l.results, o)
	return nil
}

// Undo removes the latest round. It reports false on an empty log.
func (l *Log) Undo() (models.Outcome, bool) {
	if len(l.results) == 0 {
		return 0, false
	}
	last := l.results[len(l.results)-1]
	l.results = l.results[:len(l.results)-1]
	return last, true
}

// Clear empties the log
func (l *Log) Clear() {
	l.results = nil
}

// Len returns the number of recorded rounds
func (l *Log) Len() int {
	return len(l.results)
}

// Results returns a copy of the whole log
func (l *Log) Results() []models.Outcome {
	out := make([]models.Outcome, len(l.results))
	copy(out, l.results)
	return out
}

// Recent returns a copy of the last n rounds
func (l *Log) Recent(n int) []models.Outcome {
	if n <= 0 || n >= len(l.results) {
		return l.Results()
	}
	out := make([]models.Outcome, n)
	copy(out, l.results[len(l.results)-n:])
	return out
}
