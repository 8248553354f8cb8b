package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Alias1177/Baccarat/models"
)

// settle decides how a journaled call fared against the next round.
// A tie after a Banker or Player call is a push.
func settle(predicted models.Side, actual models.Outcome) (hit, push bool) {
	if actual == models.Tie {
		return false, true
	}
	return models.SideOf(actual) == predicted, false
}

// RecordPrediction stores an actionable prediction awaiting its outcome
func (db *DB) RecordPrediction(ctx context.Context, entry *models.JournalEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := db.exec(ctx, `
		INSERT INTO prediction_journal (
			id, user_id, surface, strategy, rounds, predicted, confidence, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		entry.ID.String(), entry.UserID, entry.Surface, entry.Strategy,
		entry.Rounds, string(entry.Predicted), entry.Confidence, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording prediction %s: %w", entry.ID, err)
	}
	return nil
}

// ResolvePrediction settles a pending entry with the round that followed it.
// Entries that were already resolved are left alone.
func (db *DB) ResolvePrediction(ctx context.Context, id uuid.UUID, actual models.Outcome) error {
	var predicted string
	err := db.queryRow(ctx, `
		SELECT predicted FROM prediction_journal
		WHERE id = $1 AND resolved_at IS NULL
	`, id.String()).Scan(&predicted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("loading prediction %s: %w", id, err)
	}

	hit, push := settle(models.Side(predicted), actual)
	_, err = db.exec(ctx, `
		UPDATE prediction_journal
		SET actual = $1, hit = $2, push = $3, resolved_at = $4
		WHERE id = $5
	`, actual.Short(), hit, push, time.Now(), id.String())
	if err != nil {
		return fmt.Errorf("resolving prediction %s: %w", id, err)
	}
	return nil
}

// JournalStats aggregates a user's journal
func (db *DB) JournalStats(ctx context.Context, userID int64) (models.JournalStats, error) {
	var stats models.JournalStats
	var resolved, hits, pushes sql.NullInt64

	err := db.queryRow(ctx, `
		SELECT
			COUNT(*),
			SUM(CASE WHEN resolved_at IS NOT NULL THEN 1 ELSE 0 END),
			SUM(CASE WHEN hit THEN 1 ELSE 0 END),
			SUM(CASE WHEN push THEN 1 ELSE 0 END)
		FROM prediction_journal
		WHERE user_id = $1
	`, userID).Scan(&stats.Total, &resolved, &hits, &pushes)
	if err != nil {
		return stats, fmt.Errorf("journal stats for %d: %w", userID, err)
	}

	stats.Resolved = int(resolved.Int64)
	stats.Hits = int(hits.Int64)
	stats.Pushes = int(pushes.Int64)
	stats.HitPercentage = hitPercentage(stats)

	return stats, nil
}

func hitPercentage(stats models.JournalStats) float64 {
	decided := stats.Resolved - stats.Pushes
	if decided <= 0 {
		return 0
	}
	return float64(stats.Hits) / float64(decided) * 100
}
