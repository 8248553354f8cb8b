package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownOutcome is returned when text cannot be mapped to a round outcome
var ErrUnknownOutcome = errors.New("unknown outcome")

// Outcome is the result of one baccarat round
type Outcome int

const (
	Banker Outcome = iota + 1
	Player
	Tie
)

// String returns the full outcome name
func (o Outcome) String() string {
	switch o {
	case Banker:
		return "Banker"
	case Player:
		return "Player"
	case Tie:
		return "Tie"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Short returns the one-letter scorecard symbol
func (o Outcome) Short() string {
	switch o {
	case Banker:
		return "B"
	case Player:
		return "P"
	case Tie:
		return "T"
	default:
		return "?"
	}
}

// Opposite swaps Banker and Player. Tie has no opposite and is returned as is.
func (o Outcome) Opposite() Outcome {
	switch o {
	case Banker:
		return Player
	case Player:
		return Banker
	default:
		return o
	}
}

// Valid reports whether o is one of the three outcomes
func (o Outcome) Valid() bool {
	return o == Banker || o == Player || o == Tie
}

// MarshalText encodes the outcome as its short symbol
func (o Outcome) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOutcome, int(o))
	}
	return []byte(o.Short()), nil
}

// UnmarshalText accepts anything ParseOutcome accepts
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOutcome maps user input to an Outcome. It accepts the short symbols,
// the English names in any case and the traditional scorecard glyphs.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "b", "banker", "莊", "庄":
		return Banker, nil
	case "p", "player", "閒", "闲":
		return Player, nil
	case "t", "tie", "和":
		return Tie, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOutcome, s)
}

// ParseOutcomes parses a whole scorecard such as "B B T P", "b,p,t",
// "莊 → 閒 → 和" or the compact "BBTP".
func ParseOutcomes(s string) ([]Outcome, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', ';', '-', '>', '→', '|':
			return true
		}
		return false
	})

	var out []Outcome
	for _, field := range fields {
		if o, err := ParseOutcome(field); err == nil {
			out = append(out, o)
			continue
		}
		// compact form: every rune is one round
		for _, r := range field {
			o, err := ParseOutcome(string(r))
			if err != nil {
				return nil, fmt.Errorf("parsing %q: %w", field, err)
			}
			out = append(out, o)
		}
	}
	return out, nil
}

// FormatOutcomes renders outcomes with their short symbols joined by sep
func FormatOutcomes(outcomes []Outcome, sep string) string {
	parts := make([]string, len(outcomes))
	for i, o := range outcomes {
		parts[i] = o.Short()
	}
	return strings.Join(parts, sep)
}
