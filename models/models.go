package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment status constants
const (
	PaymentStatusPending  = "pending"
	PaymentStatusAccepted = "accepted"
	PaymentStatusClosed   = "closed"
)

// UserSubscription represents a user's subscription status
type UserSubscription struct {
	UserID               int64     `json:"user_id"`
	ChatID               int64     `json:"chat_id"`
	Status               string    `json:"status"` // pending, accepted, closed
	CreatedAt            time.Time `json:"created_at"`
	ExpiresAt            time.Time `json:"expires_at"`
	PaymentID            string    `json:"payment_id"`
	StripeSubscriptionID string    `json:"stripe_subscription_id"`
	Strategy             string    `json:"strategy"` // strategy the user subscribed for
	LastPredicted        time.Time `json:"last_predicted,omitempty"`
}

// Active reports whether the subscription currently grants premium access
func (s *UserSubscription) Active(now time.Time) bool {
	return s != nil && s.Status == PaymentStatusAccepted && now.Before(s.ExpiresAt)
}

// Journal surfaces
const (
	SurfaceTelegram = "telegram"
	SurfaceWeb      = "web"
	SurfaceCLI      = "cli"
)

// JournalEntry records one analysis and, once the next round is known,
// whether it was right. The result log itself is never stored.
type JournalEntry struct {
	ID         uuid.UUID  `json:"id"`
	UserID     int64      `json:"user_id"`
	Surface    string     `json:"surface"`
	Strategy   string     `json:"strategy"`
	Rounds     int        `json:"rounds"`
	Predicted  Side       `json:"predicted"`
	Confidence int        `json:"confidence"`
	Actual     string     `json:"actual,omitempty"`
	Hit        bool       `json:"hit"`
	Push       bool       `json:"push"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// JournalStats summarises a user's journaled predictions
type JournalStats struct {
	Total         int     `json:"total"`
	Resolved      int     `json:"resolved"`
	Hits          int     `json:"hits"`
	Pushes        int     `json:"pushes"`
	HitPercentage float64 `json:"hit_percentage"` // 0-100 over resolved non-push entries
}

// PredictionResult stores the outcome of one replayed prediction
type PredictionResult struct {
	Index      int     `json:"index"`
	Side       Side    `json:"side"`
	Confidence int     `json:"confidence"`
	Method     string  `json:"method"`
	Actual     Outcome `json:"actual"`
	WasCorrect bool    `json:"was_correct"`
	Push       bool    `json:"push"`
}

// BacktestResults stores walk-forward replay results
type BacktestResults struct {
	Strategy       string  `json:"strategy"`
	Rounds         int     `json:"rounds"`
	TotalCalls     int     `json:"total_calls"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	Pushes         int     `json:"pushes"`
	Holds          int     `json:"holds"`
	WinPercentage  float64 `json:"win_percentage"`
	MaxConsecutive struct {
		Wins   int `json:"wins"`
		Losses int `json:"losses"`
	} `json:"max_consecutive"`
	MethodPerformance map[string]float64 `json:"method_performance"`
	DetailedResults   []PredictionResult `json:"detailed_results,omitempty"`
}

// SimulationResults summarises a Monte Carlo run over random shoes
type SimulationResults struct {
	Strategy          string  `json:"strategy"`
	Shoes             int     `json:"shoes"`
	HandsPerShoe      int     `json:"hands_per_shoe"`
	TotalCalls        int     `json:"total_calls"`
	Wins              int     `json:"wins"`
	Losses            int     `json:"losses"`
	Pushes            int     `json:"pushes"`
	HitRate           float64 `json:"hit_rate"`            // 0-100 over decided calls
	AverageShoeWinPct float64 `json:"average_shoe_win_pct"` // mean of per-shoe win %
	BestShoeWinPct    float64 `json:"best_shoe_win_pct"`
	WorstShoeWinPct   float64 `json:"worst_shoe_win_pct"`
}
