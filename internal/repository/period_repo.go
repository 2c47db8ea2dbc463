package repository

import (
	"context"

	"taptoearn/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PeriodRepository работает с singleton-строкой period_state и сбросами
// дневных/недельных счётчиков.
type PeriodRepository struct {
	db *pgxpool.Pool
}

func NewPeriodRepository(db *pgxpool.Pool) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// Get reads the period state without locking. Used for the cheap
// already-reconciled fast path.
func (r *PeriodRepository) Get(ctx context.Context) (*domain.PeriodState, error) {
	var s domain.PeriodState
	err := r.db.QueryRow(ctx,
		`SELECT last_daily_reset, last_weekly_reset FROM period_state WHERE id = 1`,
	).Scan(&s.LastDailyReset, &s.LastWeeklyReset)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// LockForUpdate acquires the singleton row lock. Everything between this call
// and commit is the reset critical section: two requests racing across a
// period boundary serialize here.
func (r *PeriodRepository) LockForUpdate(ctx context.Context, tx pgx.Tx) (*domain.PeriodState, error) {
	var s domain.PeriodState
	err := tx.QueryRow(ctx,
		`SELECT last_daily_reset, last_weekly_reset FROM period_state WHERE id = 1 FOR UPDATE`,
	).Scan(&s.LastDailyReset, &s.LastWeeklyReset)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ApplyDailyReset zeroes every player's day-scoped counters, clears claimed
// daily tasks and advances the day marker.
func (r *PeriodRepository) ApplyDailyReset(ctx context.Context, tx pgx.Tx, dayKey string) error {
	if _, err := tx.Exec(ctx,
		`UPDATE players SET daily_ad_count = 0, daily_turbo_used = 0`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM task_statuses
		 WHERE task_id IN (SELECT id FROM tasks WHERE daily = true)`); err != nil {
		return err
	}
	_, err := tx.Exec(ctx,
		`UPDATE period_state SET last_daily_reset = $1 WHERE id = 1`, dayKey)
	return err
}

// TopWeeklyScore returns the best weekly score holder, ties broken by lowest
// player id. Found=false means an empty table.
func (r *PeriodRepository) TopWeeklyScore(ctx context.Context, tx pgx.Tx) (playerID int64, score int64, found bool, err error) {
	err = tx.QueryRow(ctx,
		`SELECT id, weekly_score FROM players
		 ORDER BY weekly_score DESC, id ASC
		 LIMIT 1`,
	).Scan(&playerID, &score)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, 0, false, nil
		}
		return 0, 0, false, err
	}
	return playerID, score, true, nil
}

// RecordWeeklyWinner credits the prize and fixes the winner for the closed
// week. ON CONFLICT DO NOTHING keeps the payout idempotent even if the
// critical section were ever re-entered for the same week.
func (r *PeriodRepository) RecordWeeklyWinner(ctx context.Context, tx pgx.Tx, weekKey int, playerID, score int64, prize decimal.Decimal) error {
	tag, err := tx.Exec(ctx,
		`INSERT INTO weekly_winners (week_key, player_id, score, prize)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (week_key) DO NOTHING`,
		weekKey, playerID, score, prize,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// already paid for this week
		return nil
	}
	_, err = tx.Exec(ctx,
		`UPDATE players SET ton_credits = ton_credits + $1 WHERE id = $2`,
		prize, playerID,
	)
	return err
}

// ApplyWeeklyReset zeroes all weekly scores and advances the week marker.
func (r *PeriodRepository) ApplyWeeklyReset(ctx context.Context, tx pgx.Tx, weekKey int) error {
	if _, err := tx.Exec(ctx, `UPDATE players SET weekly_score = 0`); err != nil {
		return err
	}
	_, err := tx.Exec(ctx,
		`UPDATE period_state SET last_weekly_reset = $1 WHERE id = 1`, weekKey)
	return err
}

// GetWeeklyWinner returns the recorded winner for a week, if any.
func (r *PeriodRepository) GetWeeklyWinner(ctx context.Context, weekKey int) (*domain.WeeklyWinner, error) {
	var w domain.WeeklyWinner
	err := r.db.QueryRow(ctx,
		`SELECT week_key, player_id, score, prize, awarded_at
		 FROM weekly_winners WHERE week_key = $1`, weekKey,
	).Scan(&w.WeekKey, &w.PlayerID, &w.Score, &w.Prize, &w.AwardedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}
