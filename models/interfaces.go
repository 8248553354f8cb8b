package models

import (
	"context"

	"github.com/google/uuid"
)

// Journal records analyses and resolves them against the next round
type Journal interface {
	RecordPrediction(ctx context.Context, entry *JournalEntry) error
	ResolvePrediction(ctx context.Context, id uuid.UUID, actual Outcome) error
}

// SubscriptionSource looks up a user's subscription
type SubscriptionSource interface {
	GetSubscription(userID int64) (*UserSubscription, error)
}
