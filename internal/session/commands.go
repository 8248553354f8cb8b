package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Baccarat/models"
)

// Commands runs the record/undo/clear/analyze actions of one display
// surface and keeps the prediction journal in step with them. A nil
// journal disables journaling.
type Commands struct {
	journal models.Journal
	surface string
	logger  zerolog.Logger
}

// NewCommands binds the command set to a surface name and an optional journal
func NewCommands(journal models.Journal, surface string) *Commands {
	return &Commands{
		journal: journal,
		surface: surface,
		logger:  log.With().Str("component", "commands").Str("surface", surface).Logger(),
	}
}

// Record appends an outcome and settles the previous analysis, if any
func (c *Commands) Record(ctx context.Context, s *Session, o models.Outcome) (models.Report, error) {
	settled, err := s.Record(o)
	if err != nil {
		return models.Report{}, err
	}

	if settled != nil && c.journal != nil {
		if err := c.journal.ResolvePrediction(ctx, settled.JournalID, o); err != nil {
			c.logger.Error().Err(err).Str("journal_id", settled.JournalID.String()).Msg("Failed to resolve prediction")
		}
	}

	return s.Overview(), nil
}

// Undo removes the latest round
func (c *Commands) Undo(s *Session) (models.Report, bool) {
	_, ok := s.Undo()
	return s.Overview(), ok
}

// Clear empties the session log
func (c *Commands) Clear(s *Session) models.Report {
	s.Clear()
	return s.Overview()
}

// Analyze recomputes the report and journals actionable predictions
func (c *Commands) Analyze(ctx context.Context, s *Session) models.Report {
	report := s.Analyze()
	if c.journal == nil || !report.Prediction.Actionable() {
		return report
	}

	entry := &models.JournalEntry{
		ID:         uuid.New(),
		UserID:     s.UserID,
		Surface:    c.surface,
		Strategy:   report.Strategy,
		Rounds:     report.Tally.Total,
		Predicted:  report.Prediction.Side,
		Confidence: report.Prediction.Confidence,
		CreatedAt:  time.Now(),
	}
	if err := c.journal.RecordPrediction(ctx, entry); err != nil {
		c.logger.Error().Err(err).Int64("user_id", s.UserID).Msg("Failed to journal prediction")
		return report
	}

	s.SetPending(Pending{JournalID: entry.ID, Side: entry.Predicted})
	return report
}
