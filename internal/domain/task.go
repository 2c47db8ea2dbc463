package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaskState - состояние задания для игрока
type TaskState string

const (
	TaskStatePending TaskState = "pending"
	TaskStateChecked TaskState = "checked"
	TaskStateClaimed TaskState = "claimed" // terminal
)

// VerifyKind - способ проверки выполнения задания
type VerifyKind string

const (
	VerifyMembership VerifyKind = "membership" // member of a channel/group
	VerifyVisit      VerifyKind = "visit"      // click-through with a minimum delay
	VerifyInvite     VerifyKind = "invite"     // invited at least target_count friends
)

// TaskDef - шаблон задания (из таблицы tasks)
type TaskDef struct {
	ID          string          `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Kind        VerifyKind      `db:"kind" json:"kind"`
	Target      string          `db:"target" json:"target,omitempty"` // channel @name or URL
	TargetCount int             `db:"target_count" json:"target_count"`
	RewardCoins int64           `db:"reward_coins" json:"reward_coins"`
	RewardTon   decimal.Decimal `db:"reward_ton" json:"reward_ton"`
	Daily       bool            `db:"daily" json:"daily"` // claims cleared at day boundary
	IsActive    bool            `db:"is_active" json:"is_active"`
	SortOrder   int             `db:"sort_order" json:"sort_order"`
}

// TaskStatus - прогресс игрока по заданию
type TaskStatus struct {
	ID        int64      `db:"id" json:"-"`
	PlayerID  int64      `db:"player_id" json:"-"`
	TaskID    string     `db:"task_id" json:"task_id"`
	State     TaskState  `db:"state" json:"status"`
	StartedAt time.Time  `db:"started_at" json:"-"`
	CheckedAt *time.Time `db:"checked_at" json:"checked_at,omitempty"`
	ClaimedAt *time.Time `db:"claimed_at" json:"claimed_at,omitempty"`
}

// CanCheck reports whether a check attempt may transition the task forward.
// Checking an already checked or claimed task is a no-op, not an error.
func (s *TaskStatus) CanCheck() bool {
	return s.State == TaskStatePending
}

// CanClaim reports whether the reward may be granted. Transitions are
// forward-only: claiming from pending is rejected, claiming twice is rejected.
func (s *TaskStatus) CanClaim() bool {
	return s.State == TaskStateChecked
}
