package service

import (
	"context"

	"taptoearn/internal/domain"
	"taptoearn/internal/gameclock"
	"taptoearn/internal/logger"
	"taptoearn/internal/repository"
	"taptoearn/internal/rules"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResetService is the period reset coordinator: it guarantees that daily and
// weekly counter resets (and the weekly prize payout) run exactly once per
// period boundary, no matter how many requests race across it.
type ResetService struct {
	db         *pgxpool.Pool
	clock      *gameclock.Clock
	balance    rules.Balance
	periodRepo *repository.PeriodRepository
	ledgerRepo *repository.LedgerRepository
}

func NewResetService(db *pgxpool.Pool, clock *gameclock.Clock, balance rules.Balance) *ResetService {
	return &ResetService{
		db:         db,
		clock:      clock,
		balance:    balance,
		periodRepo: repository.NewPeriodRepository(db),
		ledgerRepo: repository.NewLedgerRepository(db),
	}
}

// EnsureCurrent reconciles the counters for "now". Called before every
// operation that reads or writes a period-scoped counter.
//
// Fast path: один SELECT без блокировки. Slow path: критическая секция под
// FOR UPDATE на singleton-строке period_state.
func (s *ResetService) EnsureCurrent(ctx context.Context) error {
	day := s.clock.DayKey()
	week := s.clock.WeekKey()

	state, err := s.periodRepo.Get(ctx)
	if err != nil {
		return err
	}
	if state.LastDailyReset == day && state.LastWeeklyReset == week {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Re-check under the lock: the loser of the race sees the winner's marks.
	state, err = s.periodRepo.LockForUpdate(ctx, tx)
	if err != nil {
		return err
	}

	if state.LastWeeklyReset != week {
		if err := s.rolloverWeek(ctx, tx, state.LastWeeklyReset, week); err != nil {
			return err
		}
	}

	if state.LastDailyReset != day {
		if err := s.periodRepo.ApplyDailyReset(ctx, tx, day); err != nil {
			return err
		}
		logger.Info("daily counters reset", "day", day)
	}

	return tx.Commit(ctx)
}

// rolloverWeek pays the outgoing week's prize from pre-reset scores, then
// clears them. If the service slept across several boundaries only the most
// recent transition is applied: missed weeks get no backfilled winners.
func (s *ResetService) rolloverWeek(ctx context.Context, tx pgx.Tx, closedWeek, newWeek int) error {
	winnerID, score, found, err := s.periodRepo.TopWeeklyScore(ctx, tx)
	if err != nil {
		return err
	}

	if found && score > 0 {
		prize := s.balance.WeeklyPrizeTon
		if err := s.periodRepo.RecordWeeklyWinner(ctx, tx, closedWeek, winnerID, score, prize); err != nil {
			return err
		}
		if err := s.ledgerRepo.AppendWithTx(ctx, tx, &domain.LedgerEntry{
			PlayerID: winnerID,
			Kind:     "weekly_prize",
			Ton:      prize,
			Meta:     map[string]interface{}{"week_key": closedWeek, "score": score},
		}); err != nil {
			return err
		}
		logger.Info("weekly prize awarded",
			"week", closedWeek, "player_id", winnerID, "score", score, "prize", prize)
	}

	return s.periodRepo.ApplyWeeklyReset(ctx, tx, newWeek)
}
