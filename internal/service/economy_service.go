package service

import (
	"context"
	"errors"
	"time"

	"taptoearn/internal/domain"
	"taptoearn/internal/gameclock"
	"taptoearn/internal/repository"
	"taptoearn/internal/rules"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxTxRetries = 3
	txRetryDelay = 10 * time.Millisecond
)

// EconomyService mutates per-player game state under the row lock, after the
// reset coordinator has reconciled period counters for "now".
type EconomyService struct {
	db         *pgxpool.Pool
	clock      *gameclock.Clock
	balance    rules.Balance
	reset      *ResetService
	playerRepo *repository.PlayerRepository
	ledgerRepo *repository.LedgerRepository
}

func NewEconomyService(db *pgxpool.Pool, clock *gameclock.Clock, balance rules.Balance, reset *ResetService) *EconomyService {
	return &EconomyService{
		db:         db,
		clock:      clock,
		balance:    balance,
		reset:      reset,
		playerRepo: repository.NewPlayerRepository(db),
		ledgerRepo: repository.NewLedgerRepository(db),
	}
}

func (s *EconomyService) Balance() rules.Balance { return s.balance }

// snapshot нормализует ответ для всех ручек
func (s *EconomyService) snapshot(p *domain.Player) domain.Snapshot {
	return p.ToSnapshot(s.clock.Now(), s.balance.DailyAdLimit, s.balance.DailyTurboLimit)
}

// GetOrCreatePlayer provisions a player on first contact and returns the
// normalized payload.
func (s *EconomyService) GetOrCreatePlayer(ctx context.Context, tgID int64, username, firstName string) (domain.Snapshot, error) {
	if err := s.reset.EnsureCurrent(ctx); err != nil {
		return domain.Snapshot{}, err
	}
	p, err := s.playerRepo.GetOrCreate(ctx, tgID, username, firstName)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return s.snapshot(p), nil
}

// GetPlayer returns the current snapshot without mutating anything.
func (s *EconomyService) GetPlayer(ctx context.Context, playerID int64) (domain.Snapshot, error) {
	if err := s.reset.EnsureCurrent(ctx); err != nil {
		return domain.Snapshot{}, err
	}
	p, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			return domain.Snapshot{}, ErrPlayerNotFound
		}
		return domain.Snapshot{}, err
	}
	return s.snapshot(p), nil
}

// mutate runs fn on the row-locked player inside a transaction, with bounded
// retries on write conflicts. fn returns the ledger entry to append, or nil
// when nothing should be recorded.
func (s *EconomyService) mutate(ctx context.Context, playerID int64, fn func(p *domain.Player) (*domain.LedgerEntry, error)) (domain.Snapshot, error) {
	if err := s.reset.EnsureCurrent(ctx); err != nil {
		return domain.Snapshot{}, err
	}

	var lastErr error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		snap, err := s.mutateOnce(ctx, playerID, fn)
		if err == nil || !isRetryable(err) {
			return snap, err
		}
		lastErr = err
		time.Sleep(txRetryDelay)
	}
	return domain.Snapshot{}, errors.Join(ErrExternalService, lastErr)
}

func (s *EconomyService) mutateOnce(ctx context.Context, playerID int64, fn func(p *domain.Player) (*domain.LedgerEntry, error)) (domain.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := s.playerRepo.GetForUpdate(ctx, tx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			return domain.Snapshot{}, ErrPlayerNotFound
		}
		return domain.Snapshot{}, err
	}

	entry, err := fn(p)
	if err != nil {
		// rule violation: transaction rolls back, nothing was mutated
		return domain.Snapshot{}, err
	}

	if err := s.playerRepo.SaveWithTx(ctx, tx, p); err != nil {
		return domain.Snapshot{}, err
	}
	if entry != nil {
		entry.PlayerID = p.ID
		if err := s.ledgerRepo.AppendWithTx(ctx, tx, entry); err != nil {
			return domain.Snapshot{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Snapshot{}, err
	}
	return s.snapshot(p), nil
}

// isRetryable matches Postgres serialization/deadlock failures.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// Tap credits a batch of taps under the current turbo multiplier.
func (s *EconomyService) Tap(ctx context.Context, playerID int64, taps int64) (domain.Snapshot, error) {
	// reject before opening a transaction; ApplyTap re-checks the same bounds
	if taps <= 0 || (s.balance.MaxTapsPerRequest > 0 && taps > s.balance.MaxTapsPerRequest) {
		return domain.Snapshot{}, ErrInvalidTapCount
	}
	return s.mutate(ctx, playerID, func(p *domain.Player) (*domain.LedgerEntry, error) {
		mult := s.balance.TurboMult(p, s.clock.Now())
		gained, err := s.balance.ApplyTap(p, taps, mult)
		if err != nil {
			return nil, ErrInvalidTapCount
		}
		return &domain.LedgerEntry{
			Kind:  "tap",
			Coins: gained,
			Meta:  map[string]interface{}{"taps": taps, "multiplier": mult},
		}, nil
	})
}

// UpgradeTapPower debits the upgrade cost and bumps tap power.
func (s *EconomyService) UpgradeTapPower(ctx context.Context, playerID int64) (domain.Snapshot, int64, error) {
	var cost int64
	snap, err := s.mutate(ctx, playerID, func(p *domain.Player) (*domain.LedgerEntry, error) {
		c, err := s.balance.UpgradeTapPower(p)
		cost = c
		if err != nil {
			if errors.Is(err, rules.ErrInsufficientFunds) {
				return nil, ErrInsufficientFunds
			}
			return nil, err
		}
		return &domain.LedgerEntry{
			Kind:  "upgrade",
			Coins: -c,
			Meta:  map[string]interface{}{"tap_power": p.TapPower},
		}, nil
	})
	return snap, cost, err
}

// WatchAd credits the fixed TON reward for a fully watched ad.
func (s *EconomyService) WatchAd(ctx context.Context, playerID int64) (domain.Snapshot, error) {
	return s.mutate(ctx, playerID, func(p *domain.Player) (*domain.LedgerEntry, error) {
		reward, err := s.balance.GrantAdReward(p)
		if err != nil {
			return nil, ErrDailyLimitReached
		}
		return &domain.LedgerEntry{
			Kind: "ad_reward",
			Ton:  reward,
			Meta: map[string]interface{}{"daily_count": p.DailyAdCount},
		}, nil
	})
}

// ActivateTurbo arms the tap multiplier window.
func (s *EconomyService) ActivateTurbo(ctx context.Context, playerID int64) (domain.Snapshot, error) {
	return s.mutate(ctx, playerID, func(p *domain.Player) (*domain.LedgerEntry, error) {
		until, err := s.balance.ActivateTurbo(p, s.clock.Now())
		if err != nil {
			return nil, ErrDailyLimitReached
		}
		return &domain.LedgerEntry{
			Kind: "turbo",
			Meta: map[string]interface{}{"until": until.UTC().Format(time.RFC3339)},
		}, nil
	})
}

// ApplyReferral credits the inviter once per invitee. Идемпотентность через
// уникальность referrals(invitee_id).
func (s *EconomyService) ApplyReferral(ctx context.Context, inviteeID, inviterTgID int64) error {
	if err := s.reset.EnsureCurrent(ctx); err != nil {
		return err
	}

	inviter, err := s.playerRepo.GetByTgID(ctx, inviterTgID)
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}
	if inviter.ID == inviteeID {
		return ErrSelfReferral
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`INSERT INTO referrals (inviter_id, invitee_id)
		 VALUES ($1, $2)
		 ON CONFLICT (invitee_id) DO NOTHING`,
		inviter.ID, inviteeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyReferred
	}

	if err := s.playerRepo.IncrementInvited(ctx, tx, inviter.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE players SET ton_credits = ton_credits + $1 WHERE id = $2`,
		s.balance.ReferralTon, inviter.ID); err != nil {
		return err
	}
	if err := s.ledgerRepo.AppendWithTx(ctx, tx, &domain.LedgerEntry{
		PlayerID: inviter.ID,
		Kind:     "referral",
		Ton:      s.balance.ReferralTon,
		Meta:     map[string]interface{}{"invitee_id": inviteeID},
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// History returns the player's recent ledger entries.
func (s *EconomyService) History(ctx context.Context, playerID int64, limit int) ([]*domain.LedgerEntry, error) {
	return s.ledgerRepo.GetByPlayerID(ctx, playerID, limit)
}
