package repository

import (
	"context"
	"errors"

	"taptoearn/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrPlayerNotFound = errors.New("player not found")

const playerColumns = `id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''),
	coins, total_coins, tap_power, level, xp, xp_to_next, ton_credits,
	weekly_score, daily_ad_count, daily_turbo_used, turbo_until, invited_count,
	created_at, updated_at`

type PlayerRepository struct {
	db *pgxpool.Pool
}

func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var p domain.Player
	err := row.Scan(
		&p.ID, &p.TgID, &p.Username, &p.FirstName,
		&p.Coins, &p.TotalCoins, &p.TapPower, &p.Level, &p.XP, &p.XPToNext, &p.TonCredits,
		&p.WeeklyScore, &p.DailyAdCount, &p.DailyTurboUsed, &p.TurboUntil, &p.InvitedCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PlayerRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	return scanPlayer(r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE tg_id = $1`, tgID))
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*domain.Player, error) {
	return scanPlayer(r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
}

// GetOrCreate lazily provisions a player on first contact. ON CONFLICT makes
// concurrent first requests converge on the same row.
func (r *PlayerRepository) GetOrCreate(ctx context.Context, tgID int64, username, firstName string) (*domain.Player, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO players (tg_id, username, first_name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (tg_id) DO NOTHING`,
		tgID, username, firstName,
	)
	if err != nil {
		return nil, err
	}
	return r.GetByTgID(ctx, tgID)
}

// GetForUpdate loads and row-locks a player inside a transaction. All
// mutations of one player's timeline serialize on this lock.
func (r *PlayerRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Player, error) {
	return scanPlayer(tx.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1 FOR UPDATE`, id))
}

// SaveWithTx persists the mutable economy fields computed by the rule engine.
func (r *PlayerRepository) SaveWithTx(ctx context.Context, tx pgx.Tx, p *domain.Player) error {
	_, err := tx.Exec(ctx,
		`UPDATE players
		 SET coins = $1, total_coins = $2, tap_power = $3, level = $4,
		     xp = $5, xp_to_next = $6, ton_credits = $7, weekly_score = $8,
		     daily_ad_count = $9, daily_turbo_used = $10, turbo_until = $11,
		     invited_count = $12, updated_at = now()
		 WHERE id = $13`,
		p.Coins, p.TotalCoins, p.TapPower, p.Level,
		p.XP, p.XPToNext, p.TonCredits, p.WeeklyScore,
		p.DailyAdCount, p.DailyTurboUsed, p.TurboUntil,
		p.InvitedCount, p.ID,
	)
	return err
}

// IncrementInvited bumps the inviter's referral counter atomically.
func (r *PlayerRepository) IncrementInvited(ctx context.Context, tx pgx.Tx, id int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE players SET invited_count = invited_count + 1, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}
