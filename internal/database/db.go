package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/Alias1177/Baccarat/models"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB represents a database connection
type DB struct {
	*sql.DB
	driver string
}

// ConnectionParams holds connection parameters. Path is only used by sqlite.
type ConnectionParams struct {
	Driver         string
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	Path           string
	ConnectTimeout time.Duration
}

// DSN builds the driver-specific data source name
func (p ConnectionParams) DSN() (string, error) {
	switch p.Driver {
	case DriverPostgres, "":
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
		), nil
	case DriverSQLite:
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", p.Path), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", p.Driver)
	}
}

// New creates a new database connection
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	if params.Driver == "" {
		params.Driver = DriverPostgres
	}
	dsn, err := params.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(params.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", params.Driver, err)
	}
	if params.Driver == DriverSQLite {
		// one writer keeps sqlite from returning SQLITE_BUSY under the bot's goroutines
		db.SetMaxOpenConns(1)
	}

	// Retry the ping while the database is still starting up
	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = params.ConnectTimeout
	if backoffStrategy.MaxElapsedTime == 0 {
		backoffStrategy.MaxElapsedTime = 30 * time.Second
	}

	operation := func() error {
		if err := db.PingContext(ctx); err != nil {
			log.Warn().Err(err).Str("driver", params.Driver).Msg("Database not ready, retrying")
			return err
		}
		return nil
	}
	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		db.Close()
		return nil, fmt.Errorf("after retries: %w", err)
	}

	d := &DB{DB: db, driver: params.Driver}

	// Create tables if they don't exist
	if err := d.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return d, nil
}

// Driver returns the driver name the connection was opened with
func (db *DB) Driver() string {
	return db.driver
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// rebind rewrites $n placeholders for drivers that do not understand them
func rebind(driver, query string) string {
	if driver != DriverSQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?$1")
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.ExecContext(ctx, rebind(db.driver, query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.QueryRowContext(ctx, rebind(db.driver, query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.QueryContext(ctx, rebind(db.driver, query), args...)
}

// createTables creates the necessary tables if they don't exist
func (db *DB) createTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_subscriptions (
			user_id BIGINT PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			payment_id TEXT,
			stripe_subscription_id TEXT,
			strategy TEXT,
			last_predicted TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS prediction_journal (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			surface TEXT NOT NULL,
			strategy TEXT NOT NULL,
			rounds INTEGER NOT NULL,
			predicted TEXT NOT NULL,
			confidence INTEGER NOT NULL,
			actual TEXT,
			hit BOOLEAN NOT NULL DEFAULT FALSE,
			push BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL,
			resolved_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS prediction_journal_user_idx ON prediction_journal (user_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateSubscription creates a new pending subscription for a user
func (db *DB) CreateSubscription(userID, chatID int64, strategy string) (*models.UserSubscription, error) {
	now := time.Now()
	sub := &models.UserSubscription{
		UserID:    userID,
		ChatID:    chatID,
		Status:    models.PaymentStatusPending,
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 1, 0), // 1 month from now
		Strategy:  strategy,
	}

	_, err := db.exec(context.Background(), `
		INSERT INTO user_subscriptions (
			user_id, chat_id, status, created_at, expires_at, strategy
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id)
		DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			status = EXCLUDED.status,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			strategy = EXCLUDED.strategy
	`,
		sub.UserID, sub.ChatID, sub.Status, sub.CreatedAt, sub.ExpiresAt, sub.Strategy)

	if err != nil {
		return nil, err
	}

	return sub, nil
}

// GetSubscription retrieves a user's subscription
func (db *DB) GetSubscription(userID int64) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	var lastPredicted sql.NullTime
	var paymentID sql.NullString
	var stripeSubscriptionID sql.NullString
	var strategy sql.NullString

	err := db.queryRow(context.Background(), `
		SELECT
			user_id, chat_id, status, created_at, expires_at,
			payment_id, stripe_subscription_id, strategy, last_predicted
		FROM user_subscriptions
		WHERE user_id = $1
	`, userID).Scan(
		&sub.UserID, &sub.ChatID, &sub.Status, &sub.CreatedAt, &sub.ExpiresAt,
		&paymentID, &stripeSubscriptionID, &strategy, &lastPredicted,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No subscription found
		}
		return nil, err
	}

	sub.PaymentID = paymentID.String
	sub.StripeSubscriptionID = stripeSubscriptionID.String
	sub.Strategy = strategy.String
	if lastPredicted.Valid {
		sub.LastPredicted = lastPredicted.Time
	}

	return &sub, nil
}

// UpdateSubscriptionStatus updates a user's subscription status
func (db *DB) UpdateSubscriptionStatus(userID int64, status string, paymentID string) error {
	_, err := db.exec(context.Background(), `
		UPDATE user_subscriptions
		SET status = $1, payment_id = $2
		WHERE user_id = $3
	`, status, paymentID, userID)

	return err
}

// RenewSubscription accepts a subscription and moves its expiry to until
func (db *DB) RenewSubscription(userID int64, paymentID string, until time.Time) error {
	res, err := db.exec(context.Background(), `
		UPDATE user_subscriptions
		SET status = $1, payment_id = $2, expires_at = $3
		WHERE user_id = $4
	`, models.PaymentStatusAccepted, paymentID, until, userID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no subscription for user %d", userID)
	}
	return nil
}

// CheckAndUpdateExpirations closes accepted subscriptions past their expiry
func (db *DB) CheckAndUpdateExpirations() (int64, error) {
	res, err := db.exec(context.Background(), `
		UPDATE user_subscriptions
		SET status = $1
		WHERE status = $2 AND expires_at <= $3
	`, models.PaymentStatusClosed, models.PaymentStatusAccepted, time.Now())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// CloseSubscription closes a user's subscription
func (db *DB) CloseSubscription(userID int64) error {
	_, err := db.exec(context.Background(), `
		UPDATE user_subscriptions
		SET status = $1
		WHERE user_id = $2
	`, models.PaymentStatusClosed, userID)

	return err
}

// UpdateLastPredicted updates the last time a user ran an analysis
func (db *DB) UpdateLastPredicted(userID int64) error {
	_, err := db.exec(context.Background(), `
		UPDATE user_subscriptions
		SET last_predicted = $1
		WHERE user_id = $2
	`, time.Now(), userID)

	return err
}

// UpdateStripeSubscriptionID updates the Stripe subscription ID for a user
func (db *DB) UpdateStripeSubscriptionID(userID int64, stripeSubscriptionID string) error {
	_, err := db.exec(context.Background(), `
		UPDATE user_subscriptions
		SET stripe_subscription_id = $1
		WHERE user_id = $2
	`, stripeSubscriptionID, userID)

	return err
}

// GetAllUsers returns every user that ever started a subscription
func (db *DB) GetAllUsers() ([]models.UserSubscription, error) {
	rows, err := db.query(context.Background(), `
		SELECT user_id, chat_id, status
		FROM user_subscriptions
		ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.UserSubscription
	for rows.Next() {
		var u models.UserSubscription
		if err := rows.Scan(&u.UserID, &u.ChatID, &u.Status); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
