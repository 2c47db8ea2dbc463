package repository

import (
	"context"
	"encoding/json"

	"taptoearn/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// AppendWithTx writes a ledger row inside the same transaction as the balance
// change so a rollback never leaves a dangling entry.
func (r *LedgerRepository) AppendWithTx(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	if e.Reference == "" {
		e.Reference = uuid.NewString()
	}
	metaJSON, err := json.Marshal(e.Meta)
	if err != nil {
		return err
	}
	return tx.QueryRow(ctx,
		`INSERT INTO ledger (player_id, kind, coins, ton, reference, meta)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		e.PlayerID, e.Kind, e.Coins, e.Ton, e.Reference, metaJSON,
	).Scan(&e.ID, &e.CreatedAt)
}

// GetByPlayerID возвращает последние записи журнала игрока
func (r *LedgerRepository) GetByPlayerID(ctx context.Context, playerID int64, limit int) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, player_id, kind, coins, ton, reference, meta, created_at
		 FROM ledger WHERE player_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`,
		playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.Kind, &e.Coins, &e.Ton,
			&e.Reference, &metaJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &e.Meta)
		}
		res = append(res, &e)
	}
	return res, rows.Err()
}
