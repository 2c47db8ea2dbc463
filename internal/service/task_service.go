package service

import (
	"context"
	"errors"
	"time"

	"taptoearn/internal/domain"
	"taptoearn/internal/gameclock"
	"taptoearn/internal/logger"
	"taptoearn/internal/repository"
	"taptoearn/internal/rules"
	"taptoearn/internal/telegram"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultVisitDelay - минимальная пауза между GO и CHECK для visit-заданий
const DefaultVisitDelay = 30 * time.Second

// TaskService enforces the per-player task lifecycle:
// pending -> checked -> claimed, forward-only, reward granted exactly once.
type TaskService struct {
	db         *pgxpool.Pool
	clock      *gameclock.Clock
	balance    rules.Balance
	reset      *ResetService
	checker    telegram.MembershipChecker
	visitDelay time.Duration

	taskRepo   *repository.TaskRepository
	playerRepo *repository.PlayerRepository
	ledgerRepo *repository.LedgerRepository
}

func NewTaskService(db *pgxpool.Pool, clock *gameclock.Clock, balance rules.Balance, reset *ResetService, checker telegram.MembershipChecker) *TaskService {
	return &TaskService{
		db:         db,
		clock:      clock,
		balance:    balance,
		reset:      reset,
		checker:    checker,
		visitDelay: DefaultVisitDelay,
		taskRepo:   repository.NewTaskRepository(db),
		playerRepo: repository.NewPlayerRepository(db),
		ledgerRepo: repository.NewLedgerRepository(db),
	}
}

// List returns the active task definitions.
func (s *TaskService) List(ctx context.Context) ([]*domain.TaskDef, error) {
	return s.taskRepo.ListActive(ctx)
}

// Statuses returns the player's progress rows after period reconciliation
// (so expired daily claims are already gone).
func (s *TaskService) Statuses(ctx context.Context, playerID int64) ([]*domain.TaskStatus, error) {
	if err := s.reset.EnsureCurrent(ctx); err != nil {
		return nil, err
	}
	return s.taskRepo.ListStatuses(ctx, playerID)
}

// Check verifies the task-specific condition and, on success, advances
// pending -> checked. Re-checking a checked or claimed task is a no-op that
// returns the current state with verified=true.
//
// verified=false with a nil error means the condition is simply not met yet
// (not a member, visited too recently, not enough invites).
func (s *TaskService) Check(ctx context.Context, playerID int64, taskID string) (*domain.TaskStatus, bool, error) {
	if err := s.reset.EnsureCurrent(ctx); err != nil {
		return nil, false, err
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, false, ErrTaskNotFound
		}
		return nil, false, err
	}

	status, err := s.taskRepo.GetOrCreateStatus(ctx, playerID, taskID)
	if err != nil {
		return nil, false, err
	}
	if !status.CanCheck() {
		return status, true, nil
	}

	ok, err := s.verify(ctx, playerID, task, status)
	if err != nil {
		return status, false, err
	}
	if !ok {
		return status, false, nil
	}

	now := s.clock.Now()
	advanced, err := s.taskRepo.MarkChecked(ctx, status.ID, now)
	if err != nil {
		return status, false, err
	}
	if advanced {
		status.State = domain.TaskStateChecked
		status.CheckedAt = &now
	}
	return status, true, nil
}

func (s *TaskService) verify(ctx context.Context, playerID int64, task *domain.TaskDef, status *domain.TaskStatus) (bool, error) {
	switch task.Kind {
	case domain.VerifyMembership:
		if s.checker == nil {
			return false, ErrExternalService
		}
		player, err := s.playerRepo.GetByID(ctx, playerID)
		if err != nil {
			return false, err
		}
		member, err := s.checker.IsMember(ctx, task.Target, player.TgID)
		if err != nil {
			logger.Warn("membership check failed", "task_id", task.ID, "error", err)
			return false, errors.Join(ErrExternalService, err)
		}
		return member, nil

	case domain.VerifyVisit:
		// click-through heuristic: first check anchors started_at, a later
		// check after the delay passes
		return s.clock.Now().Sub(status.StartedAt) >= s.visitDelay, nil

	case domain.VerifyInvite:
		player, err := s.playerRepo.GetByID(ctx, playerID)
		if err != nil {
			return false, err
		}
		return player.InvitedCount >= task.TargetCount, nil

	default:
		return false, ErrTaskNotFound
	}
}

// Claim grants the task's declared reward exactly once and advances
// checked -> claimed. Claiming from pending fails with ErrTaskNotReady;
// claiming again fails with ErrAlreadyClaimed and grants nothing.
func (s *TaskService) Claim(ctx context.Context, playerID int64, taskID string) (*domain.TaskStatus, *domain.TaskDef, domain.Snapshot, error) {
	if err := s.reset.EnsureCurrent(ctx); err != nil {
		return nil, nil, domain.Snapshot{}, err
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, nil, domain.Snapshot{}, ErrTaskNotFound
		}
		return nil, nil, domain.Snapshot{}, err
	}

	status, err := s.taskRepo.GetOrCreateStatus(ctx, playerID, taskID)
	if err != nil {
		return nil, nil, domain.Snapshot{}, err
	}
	switch {
	case status.State == domain.TaskStateClaimed:
		return status, task, domain.Snapshot{}, ErrAlreadyClaimed
	case !status.CanClaim():
		return status, task, domain.Snapshot{}, ErrTaskNotReady
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, domain.Snapshot{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	player, err := s.playerRepo.GetForUpdate(ctx, tx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			return nil, nil, domain.Snapshot{}, ErrPlayerNotFound
		}
		return nil, nil, domain.Snapshot{}, err
	}

	// The state guard inside the UPDATE is the real idempotency barrier:
	// a concurrent claim that lost the race sees zero rows here.
	now := s.clock.Now()
	advanced, err := s.taskRepo.MarkClaimedWithTx(ctx, tx, status.ID, now)
	if err != nil {
		return nil, nil, domain.Snapshot{}, err
	}
	if !advanced {
		return status, task, domain.Snapshot{}, ErrAlreadyClaimed
	}

	s.balance.GrantTaskReward(player, task)
	if err := s.playerRepo.SaveWithTx(ctx, tx, player); err != nil {
		return nil, nil, domain.Snapshot{}, err
	}
	if err := s.ledgerRepo.AppendWithTx(ctx, tx, &domain.LedgerEntry{
		PlayerID: player.ID,
		Kind:     "task_reward",
		Coins:    task.RewardCoins,
		Ton:      task.RewardTon,
		Meta:     map[string]interface{}{"task_id": task.ID},
	}); err != nil {
		return nil, nil, domain.Snapshot{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, domain.Snapshot{}, err
	}

	status.State = domain.TaskStateClaimed
	status.ClaimedAt = &now
	snap := player.ToSnapshot(now, s.balance.DailyAdLimit, s.balance.DailyTurboLimit)
	return status, task, snap, nil
}
