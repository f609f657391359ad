package quota

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles generation_quota persistence.
type Store struct {
	db *pgxpool.Pool
}

// NewStore returns a Store backed by the given connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Consume atomically checks the monthly quota and deducts one generation.
// It resets the counter to DefaultAllowance when period_month is behind the
// current month. Returns ErrQuotaExceeded when 0 rows are updated (quota
// exhausted or user absent).
func (s *Store) Consume(ctx context.Context, userID string) error {
	month := time.Now().Format("2006-01")

	tag, err := s.db.Exec(ctx, `
		UPDATE generation_quota SET
			generations_remaining = CASE WHEN period_month != $1 THEN $2 - 1 ELSE generations_remaining - 1 END,
			period_month = $1
		WHERE user_id = $3 AND (period_month < $1 OR generations_remaining > 0)
	`, month, DefaultAllowance, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuotaExceeded
	}
	return nil
}

// EnsureUser inserts a quota row for userID with the default allowance.
// An existing row is left untouched.
func (s *Store) EnsureUser(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO generation_quota (user_id, generations_remaining, period_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, DefaultAllowance, time.Now().Format("2006-01"))
	return err
}

// Remaining reports how many generations the user has left this month.
func (s *Store) Remaining(ctx context.Context, userID string) (int, error) {
	month := time.Now().Format("2006-01")
	var remaining int
	var period string
	err := s.db.QueryRow(ctx,
		`SELECT generations_remaining, period_month FROM generation_quota WHERE user_id = $1`,
		userID).Scan(&remaining, &period)
	if err != nil {
		return 0, err
	}
	if period < month {
		return DefaultAllowance, nil
	}
	return remaining, nil
}
