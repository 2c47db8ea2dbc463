package repository

import (
	"context"
	"errors"
	"time"

	"taptoearn/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTaskNotFound = errors.New("task not found")

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, title, COALESCE(description, ''), kind, COALESCE(target, ''),
	target_count, reward_coins, reward_ton, daily, is_active, sort_order`

func scanTask(row pgx.Row) (*domain.TaskDef, error) {
	var t domain.TaskDef
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Kind, &t.Target,
		&t.TargetCount, &t.RewardCoins, &t.RewardTon, &t.Daily, &t.IsActive, &t.SortOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListActive возвращает все активные задания
func (r *TaskRepository) ListActive(ctx context.Context) ([]*domain.TaskDef, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE is_active = true ORDER BY sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.TaskDef
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.TaskDef, error) {
	return scanTask(r.db.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND is_active = true`, id))
}

// ListStatuses returns the player's progress rows.
func (r *TaskRepository) ListStatuses(ctx context.Context, playerID int64) ([]*domain.TaskStatus, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, player_id, task_id, state, started_at, checked_at, claimed_at
		 FROM task_statuses WHERE player_id = $1`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.TaskStatus
	for rows.Next() {
		var s domain.TaskStatus
		if err := rows.Scan(&s.ID, &s.PlayerID, &s.TaskID, &s.State,
			&s.StartedAt, &s.CheckedAt, &s.ClaimedAt); err != nil {
			return nil, err
		}
		res = append(res, &s)
	}
	return res, rows.Err()
}

// GetOrCreateStatus returns the player's progress row for a task, creating a
// pending one on first touch. started_at is the anchor for the click-through
// delay heuristic.
func (r *TaskRepository) GetOrCreateStatus(ctx context.Context, playerID int64, taskID string) (*domain.TaskStatus, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO task_statuses (player_id, task_id, state)
		 VALUES ($1, $2, 'pending')
		 ON CONFLICT (player_id, task_id) DO NOTHING`,
		playerID, taskID)
	if err != nil {
		return nil, err
	}

	var s domain.TaskStatus
	err = r.db.QueryRow(ctx,
		`SELECT id, player_id, task_id, state, started_at, checked_at, claimed_at
		 FROM task_statuses WHERE player_id = $1 AND task_id = $2`,
		playerID, taskID,
	).Scan(&s.ID, &s.PlayerID, &s.TaskID, &s.State, &s.StartedAt, &s.CheckedAt, &s.ClaimedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// MarkChecked advances pending -> checked. The state guard in the WHERE makes
// concurrent checks collapse into one transition. Метку времени даёт вызывающий:
// все тайм-решения идут через единые игровые часы.
func (r *TaskRepository) MarkChecked(ctx context.Context, statusID int64, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE task_statuses SET state = 'checked', checked_at = $1
		 WHERE id = $2 AND state = 'pending'`,
		at, statusID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkClaimedWithTx advances checked -> claimed inside the reward transaction.
// Returns false when the row was not in checked state (already claimed or
// still pending), so the caller grants nothing.
func (r *TaskRepository) MarkClaimedWithTx(ctx context.Context, tx pgx.Tx, statusID int64, at time.Time) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE task_statuses SET state = 'claimed', claimed_at = $1
		 WHERE id = $2 AND state = 'checked'`,
		at, statusID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
