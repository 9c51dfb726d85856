package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"honesttravel/database/migrations"
)

// ─── Models ──────────────────────────────────────────────────────────────────

const (
	OrderPending = "pending"
	OrderPaid    = "paid"
)

var ErrOrderNotFound = errors.New("order not found")

// Order is one hosted checkout opened for a package purchase.
type Order struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	CheckoutID  string    `json:"checkout_id"`
	PackageID   string    `json:"package_id"`
	City        string    `json:"city"`
	Email       string    `json:"email"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Ledger records orders in Postgres.
type Ledger struct {
	db  *sql.DB
	log *zap.Logger
}

// ─── Init ─────────────────────────────────────────────────────────────────────

const (
	pingAttempts = 10
	pingInterval = 2 * time.Second
)

// Open connects, waits for the database to accept connections and applies
// pending migrations.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*Ledger, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// the database container may still be starting
	for i := 0; i < pingAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		log.Info("waiting for database", zap.Int("attempt", i+1), zap.Int("of", pingAttempts), zap.Error(err))
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(pingInterval):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database after retries: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("database connected and migrated")
	return &Ledger{db: db, log: log}, nil
}

// ─── Migrations ───────────────────────────────────────────────────────────────

// Migrate applies every embedded migration that has not run yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

// ─── CRUD ─────────────────────────────────────────────────────────────────────

// RecordCheckout inserts a pending order. Recording the same checkout twice
// is a no-op.
func (l *Ledger) RecordCheckout(ctx context.Context, o *Order) error {
	if o.Status == "" {
		o.Status = OrderPending
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO orders (id, session_id, checkout_id, package_id, city, email, amount_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (checkout_id) DO NOTHING`,
		o.ID, o.SessionID, o.CheckoutID, o.PackageID, o.City, o.Email, o.AmountCents, o.Status)
	if err != nil {
		return fmt.Errorf("record checkout %s: %w", o.CheckoutID, err)
	}
	return nil
}

// MarkPaid flags the order for a checkout as paid.
func (l *Ledger) MarkPaid(ctx context.Context, checkoutID string) error {
	res, err := l.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW() WHERE checkout_id = $2`,
		OrderPaid, checkoutID)
	if err != nil {
		return fmt.Errorf("mark order paid %s: %w", checkoutID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("mark order paid %s: %w", checkoutID, ErrOrderNotFound)
	}
	return nil
}

func (l *Ledger) GetOrder(ctx context.Context, checkoutID string) (*Order, error) {
	o := &Order{}
	err := l.db.QueryRowContext(ctx, `
		SELECT id, session_id, checkout_id, package_id, city, email, amount_cents, status, created_at, updated_at
		FROM orders WHERE checkout_id = $1`, checkoutID).
		Scan(&o.ID, &o.SessionID, &o.CheckoutID, &o.PackageID, &o.City, &o.Email,
			&o.AmountCents, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// OrdersForSession lists a browser session's orders, newest first.
func (l *Ledger) OrdersForSession(ctx context.Context, sessionID string) ([]Order, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, session_id, checkout_id, package_id, city, email, amount_cents, status, created_at, updated_at
		FROM orders WHERE session_id = $1
		ORDER BY created_at DESC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.SessionID, &o.CheckoutID, &o.PackageID, &o.City, &o.Email,
			&o.AmountCents, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
