package session

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Alias1177/Baccarat/internal/analyze"
	"github.com/Alias1177/Baccarat/models"
)

const (
	B = models.Banker
	P = models.Player
	T = models.Tie
)

func TestLogUndoRestoresPriorState(t *testing.T) {
	var l Log
	for _, o := range []models.Outcome{B, P, T, B} {
		if err := l.Record(o); err != nil {
			t.Fatalf("Record(%v) error = %v", o, err)
		}
	}

	before := l.Results()
	if err := l.Record(P); err != nil {
		t.Fatalf("Record(P) error = %v", err)
	}
	if got, ok := l.Undo(); !ok || got != P {
		t.Errorf("Undo() = (%v, %v), want (P, true)", got, ok)
	}
	if !reflect.DeepEqual(l.Results(), before) {
		t.Errorf("after Undo() log = %v, want %v", l.Results(), before)
	}
}

func TestLogEdgeCases(t *testing.T) {
	var l Log
	if _, ok := l.Undo(); ok {
		t.Errorf("Undo() on empty log should report false")
	}
	if err := l.Record(models.Outcome(42)); !errors.Is(err, models.ErrUnknownOutcome) {
		t.Errorf("Record(42) error = %v, want ErrUnknownOutcome", err)
	}

	for i := 0; i < 100; i++ {
		l.Record(B)
	}
	if got := len(l.Recent(80)); got != 80 {
		t.Errorf("len(Recent(80)) = %d, want 80", got)
	}
	if got := len(l.Recent(0)); got != 100 {
		t.Errorf("len(Recent(0)) = %d, want 100", got)
	}

	results := l.Results()
	results[0] = P
	if l.Results()[0] != B {
		t.Errorf("Results() must return a copy")
	}

	l.Clear()
	if l.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", l.Len())
	}
}

func TestStoreLifecycle(t *testing.T) {
	store := NewStore(analyze.DerivedRoadsStrategy{})

	first := store.Open("42", 42)
	second := store.Open("42", 42)
	if first != second {
		t.Errorf("Open() should return the same session for one owner")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}

	if _, ok := store.Get("7"); ok {
		t.Errorf("Get(7) found a session that was never opened")
	}

	if err := store.Discard("42"); err != nil {
		t.Errorf("Discard(42) error = %v", err)
	}
	if err := store.Discard("42"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Discard(42) twice error = %v, want ErrSessionNotFound", err)
	}

	fresh := store.Open("42", 42)
	if fresh == first || fresh.Len() != 0 {
		t.Errorf("Open() after Discard() should start an empty session")
	}
}

func TestStoreSweep(t *testing.T) {
	store := NewStore(analyze.FrequencyStrategy{})
	store.Open("idle", 1)
	store.Open("busy", 2)

	now := time.Now()
	if n := store.Sweep(now, time.Hour); n != 0 {
		t.Errorf("Sweep() removed %d fresh sessions", n)
	}
	if n := store.Sweep(now.Add(2*time.Hour), time.Hour); n != 2 {
		t.Errorf("Sweep() removed %d sessions, want 2", n)
	}
	if store.Len() != 0 {
		t.Errorf("Len() after sweep = %d, want 0", store.Len())
	}
}

type fakeJournal struct {
	recorded []*models.JournalEntry
	resolved map[uuid.UUID]models.Outcome
	failNext bool
}

func (f *fakeJournal) RecordPrediction(_ context.Context, entry *models.JournalEntry) error {
	if f.failNext {
		f.failNext = false
		return errors.New("db down")
	}
	f.recorded = append(f.recorded, entry)
	return nil
}

func (f *fakeJournal) ResolvePrediction(_ context.Context, id uuid.UUID, actual models.Outcome) error {
	if f.resolved == nil {
		f.resolved = make(map[uuid.UUID]models.Outcome)
	}
	f.resolved[id] = actual
	return nil
}

func TestCommandsJournalFlow(t *testing.T) {
	ctx := context.Background()
	journal := &fakeJournal{}
	cmds := NewCommands(journal, models.SurfaceWeb)
	sess := NewStore(analyze.DerivedRoadsStrategy{}).Open("conn", 0)

	report := cmds.Analyze(ctx, sess)
	if report.Prediction.Status != models.StatusInsufficientData {
		t.Fatalf("Analyze() on empty log status = %v", report.Prediction.Status)
	}
	if len(journal.recorded) != 0 {
		t.Errorf("insufficient data should not be journaled")
	}

	for _, o := range []models.Outcome{B, P, B, P} {
		if _, err := cmds.Record(ctx, sess, o); err != nil {
			t.Fatalf("Record(%v) error = %v", o, err)
		}
	}

	report = cmds.Analyze(ctx, sess)
	if report.Prediction.Side != models.SidePlayer {
		t.Fatalf("Analyze().Side = %v, want PLAYER", report.Prediction.Side)
	}
	if len(journal.recorded) != 1 {
		t.Fatalf("journaled %d entries, want 1", len(journal.recorded))
	}
	entry := journal.recorded[0]
	if entry.Rounds != 4 || entry.Strategy != analyze.StrategyDerivedRoads || entry.Surface != models.SurfaceWeb {
		t.Errorf("journal entry = %+v", entry)
	}

	overview, err := cmds.Record(ctx, sess, P)
	if err != nil {
		t.Fatalf("Record(P) error = %v", err)
	}
	if journal.resolved[entry.ID] != P {
		t.Errorf("pending prediction not resolved with the next round")
	}
	if overview.Tally.Total != 5 || overview.Prediction.Status != "" {
		t.Errorf("Record() overview = %+v", overview)
	}

	// a second round does not resolve anything again
	cmds.Record(ctx, sess, B)
	if len(journal.resolved) != 1 {
		t.Errorf("resolved %d entries, want 1", len(journal.resolved))
	}
}

func TestCommandsUndoDropsPending(t *testing.T) {
	ctx := context.Background()
	journal := &fakeJournal{}
	cmds := NewCommands(journal, models.SurfaceTelegram)
	sess := NewStore(analyze.FrequencyStrategy{}).Open("1", 1)

	cmds.Record(ctx, sess, B)
	cmds.Analyze(ctx, sess)
	if _, ok := cmds.Undo(sess); !ok {
		t.Fatalf("Undo() reported empty log")
	}
	cmds.Record(ctx, sess, P)
	if len(journal.resolved) != 0 {
		t.Errorf("undo should drop the pending prediction, resolved = %v", journal.resolved)
	}

	if report := cmds.Clear(sess); report.Tally.Total != 0 {
		t.Errorf("Clear() tally = %+v", report.Tally)
	}
	if _, ok := cmds.Undo(sess); ok {
		t.Errorf("Undo() on cleared log should report false")
	}
}

func TestCommandsJournalFailureKeepsLog(t *testing.T) {
	ctx := context.Background()
	journal := &fakeJournal{failNext: true}
	cmds := NewCommands(journal, models.SurfaceCLI)
	sess := NewStore(analyze.FrequencyStrategy{}).Open("1", 1)

	cmds.Record(ctx, sess, B)
	report := cmds.Analyze(ctx, sess)
	if report.Prediction.Side != models.SideBanker {
		t.Errorf("Analyze().Side = %v, want BANKER", report.Prediction.Side)
	}
	if sess.Len() != 1 {
		t.Errorf("journal failure changed the log, Len() = %d", sess.Len())
	}

	cmds.Record(ctx, sess, B)
	if len(journal.resolved) != 0 {
		t.Errorf("failed journal write must not leave a pending entry")
	}
}

func TestSessionSetStrategy(t *testing.T) {
	sess := NewStore(analyze.DerivedRoadsStrategy{}).Open("1", 1)
	sess.Record(B)
	sess.Record(P)

	sess.SetStrategy(analyze.FrequencyStrategy{})
	report := sess.Analyze()
	if report.Strategy != analyze.StrategyFrequency || report.Prediction.Side != models.SideHold {
		t.Errorf("Analyze() after SetStrategy = %+v", report)
	}
}

func TestCommandsWithoutJournal(t *testing.T) {
	ctx := context.Background()
	cmds := NewCommands(nil, models.SurfaceCLI)
	sess := NewStore(analyze.DerivedRoadsStrategy{}).Open("1", 1)

	cmds.Record(ctx, sess, B)
	if report := cmds.Analyze(ctx, sess); report.Prediction.Side != models.SideBanker {
		t.Errorf("Analyze().Side = %v, want BANKER", report.Prediction.Side)
	}
}
