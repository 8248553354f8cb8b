package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Alias1177/Baccarat/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(context.Background(), ConnectionParams{
		Driver:         DriverSQLite,
		Path:           filepath.Join(t.TempDir(), "baccarat.db"),
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRebind(t *testing.T) {
	query := "UPDATE t SET a = $1, b = $2 WHERE id = $10"

	if got := rebind(DriverPostgres, query); got != query {
		t.Errorf("rebind(postgres) = %q, want unchanged", got)
	}

	want := "UPDATE t SET a = ?1, b = ?2 WHERE id = ?10"
	if got := rebind(DriverSQLite, query); got != want {
		t.Errorf("rebind(sqlite) = %q, want %q", got, want)
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name    string
		params  ConnectionParams
		want    string
		wantErr bool
	}{
		{
			name: "postgres",
			params: ConnectionParams{
				Driver: DriverPostgres, Host: "db", Port: "5432",
				User: "u", Password: "p", DBName: "bac", SSLMode: "disable",
			},
			want: "host=db port=5432 user=u password=p dbname=bac sslmode=disable",
		},
		{
			name:   "sqlite",
			params: ConnectionParams{Driver: DriverSQLite, Path: "test.db"},
			want:   "file:test.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		},
		{
			name:    "неизвестный драйвер",
			params:  ConnectionParams{Driver: "mysql"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.params.DSN()
			if (err != nil) != tt.wantErr {
				t.Fatalf("DSN() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name      string
		predicted models.Side
		actual    models.Outcome
		wantHit   bool
		wantPush  bool
	}{
		{"banker hit", models.SideBanker, models.Banker, true, false},
		{"banker miss", models.SideBanker, models.Player, false, false},
		{"player hit", models.SidePlayer, models.Player, true, false},
		{"tie is a push", models.SidePlayer, models.Tie, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, push := settle(tt.predicted, tt.actual)
			if hit != tt.wantHit || push != tt.wantPush {
				t.Errorf("settle(%s, %s) = (%v, %v), want (%v, %v)",
					tt.predicted, tt.actual, hit, push, tt.wantHit, tt.wantPush)
			}
		})
	}
}

func TestHitPercentage(t *testing.T) {
	tests := []struct {
		stats models.JournalStats
		want  float64
	}{
		{models.JournalStats{}, 0},
		{models.JournalStats{Resolved: 2, Pushes: 2}, 0},
		{models.JournalStats{Resolved: 5, Hits: 3, Pushes: 1}, 75},
	}

	for _, tt := range tests {
		if got := hitPercentage(tt.stats); got != tt.want {
			t.Errorf("hitPercentage(%+v) = %v, want %v", tt.stats, got, tt.want)
		}
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	db := newTestDB(t)
	const user = int64(7)

	sub, err := db.GetSubscription(user)
	if err != nil || sub != nil {
		t.Fatalf("GetSubscription() = %+v, %v, want nil, nil", sub, err)
	}

	if _, err := db.CreateSubscription(user, 100, "derived_roads"); err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}
	sub, err = db.GetSubscription(user)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != models.PaymentStatusPending || sub.ChatID != 100 || sub.Strategy != "derived_roads" {
		t.Errorf("created = %+v, want pending derived_roads row", sub)
	}

	if err := db.UpdateStripeSubscriptionID(user, "sub_1"); err != nil {
		t.Fatal(err)
	}
	until := time.Now().Add(48 * time.Hour)
	if err := db.RenewSubscription(user, "evt_1", until); err != nil {
		t.Fatalf("RenewSubscription() error = %v", err)
	}
	sub, _ = db.GetSubscription(user)
	if !sub.Active(time.Now()) || sub.PaymentID != "evt_1" || sub.StripeSubscriptionID != "sub_1" {
		t.Errorf("renewed = %+v, want active with payment evt_1", sub)
	}

	if err := db.RenewSubscription(999, "evt_2", until); err == nil {
		t.Error("RenewSubscription() for unknown user returned no error")
	}

	users, err := db.GetAllUsers()
	if err != nil || len(users) != 1 || users[0].UserID != user {
		t.Errorf("GetAllUsers() = %+v, %v", users, err)
	}

	if err := db.CloseSubscription(user); err != nil {
		t.Fatal(err)
	}
	sub, _ = db.GetSubscription(user)
	if sub.Status != models.PaymentStatusClosed {
		t.Errorf("status = %s, want closed", sub.Status)
	}
}

func TestRenewalOutlivesExpirySweep(t *testing.T) {
	db := newTestDB(t)
	const user = int64(8)

	if _, err := db.CreateSubscription(user, 100, "derived_roads"); err != nil {
		t.Fatal(err)
	}
	// first month paid, then already lapsed
	if err := db.RenewSubscription(user, "evt_1", time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	// the renewal invoice arrives before the sweep
	if err := db.RenewSubscription(user, "evt_2", time.Now().AddDate(0, 1, 0)); err != nil {
		t.Fatal(err)
	}

	expired, err := db.CheckAndUpdateExpirations()
	if err != nil {
		t.Fatalf("CheckAndUpdateExpirations() error = %v", err)
	}
	if expired != 0 {
		t.Errorf("expired = %d, want 0", expired)
	}
	sub, _ := db.GetSubscription(user)
	if sub.Status != models.PaymentStatusAccepted {
		t.Errorf("status = %s, want accepted", sub.Status)
	}
}

func TestExpirySweepClosesLapsed(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.CreateSubscription(9, 100, "derived_roads"); err != nil {
		t.Fatal(err)
	}
	if err := db.RenewSubscription(9, "evt_1", time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	// pending rows are never swept
	if _, err := db.CreateSubscription(10, 101, "derived_roads"); err != nil {
		t.Fatal(err)
	}

	expired, err := db.CheckAndUpdateExpirations()
	if err != nil {
		t.Fatal(err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}
	if sub, _ := db.GetSubscription(10); sub.Status != models.PaymentStatusPending {
		t.Errorf("pending row status = %s", sub.Status)
	}
}

func TestJournal(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	const user = int64(7)

	record := func(side models.Side) uuid.UUID {
		t.Helper()
		entry := &models.JournalEntry{
			UserID: user, Surface: models.SurfaceTelegram, Strategy: "frequency",
			Rounds: 4, Predicted: side, Confidence: 60,
		}
		if err := db.RecordPrediction(ctx, entry); err != nil {
			t.Fatalf("RecordPrediction() error = %v", err)
		}
		if entry.ID == uuid.Nil {
			t.Fatal("RecordPrediction() left the ID empty")
		}
		return entry.ID
	}

	hit := record(models.SideBanker)
	miss := record(models.SidePlayer)
	push := record(models.SideBanker)
	record(models.SidePlayer) // still open

	for id, actual := range map[uuid.UUID]models.Outcome{
		hit:  models.Banker,
		miss: models.Banker,
		push: models.Tie,
	} {
		if err := db.ResolvePrediction(ctx, id, actual); err != nil {
			t.Fatalf("ResolvePrediction() error = %v", err)
		}
	}

	// a second resolution and an unknown ID are no-ops
	if err := db.ResolvePrediction(ctx, miss, models.Player); err != nil {
		t.Errorf("re-resolving error = %v", err)
	}
	if err := db.ResolvePrediction(ctx, uuid.New(), models.Player); err != nil {
		t.Errorf("resolving unknown entry error = %v", err)
	}

	stats, err := db.JournalStats(ctx, user)
	if err != nil {
		t.Fatalf("JournalStats() error = %v", err)
	}
	want := models.JournalStats{Total: 4, Resolved: 3, Hits: 1, Pushes: 1, HitPercentage: 50}
	if stats != want {
		t.Errorf("JournalStats() = %+v, want %+v", stats, want)
	}

	empty, err := db.JournalStats(ctx, 999)
	if err != nil || empty != (models.JournalStats{}) {
		t.Errorf("JournalStats(unknown) = %+v, %v", empty, err)
	}
}
