package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"taptoearn/internal/domain"
	"taptoearn/internal/gameclock"
	"taptoearn/internal/repository"
	"taptoearn/internal/rules"
	"taptoearn/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func setup(t *testing.T) (*pgxpool.Pool, *service.EconomyService) {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	applyMigrations(t, db)

	clock, err := gameclock.New("UTC")
	if err != nil {
		t.Fatalf("clock: %v", err)
	}

	balance := rules.Defaults()
	resets := service.NewResetService(db, clock, balance)
	economy := service.NewEconomyService(db, clock, balance, resets)
	return db, economy
}

func TestEconomy_TapPersists(t *testing.T) {
	_, economy := setup(t)
	ctx := context.Background()

	snap, err := economy.GetOrCreatePlayer(ctx, time.Now().UnixNano(), "itest", "Itest")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	after, err := economy.Tap(ctx, snap.ID, 5)
	if err != nil {
		t.Fatalf("tap: %v", err)
	}
	if after.Coins != snap.Coins+5*snap.TapPower {
		t.Fatalf("coins = %d, want %d", after.Coins, snap.Coins+5*snap.TapPower)
	}

	reloaded, err := economy.GetPlayer(ctx, snap.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Coins != after.Coins {
		t.Fatalf("persisted coins = %d, want %d", reloaded.Coins, after.Coins)
	}
}

func TestEconomy_ConcurrentTapsLoseNothing(t *testing.T) {
	_, economy := setup(t)
	ctx := context.Background()

	snap, err := economy.GetOrCreatePlayer(ctx, time.Now().UnixNano(), "race", "Race")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	const workers = 8
	const tapsEach = 10

	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := economy.Tap(ctx, snap.ID, tapsEach)
			errCh <- err
		}()
	}
	for i := 0; i < workers; i++ {
		if err := <-errCh; err != nil {
			t.Fatalf("concurrent tap: %v", err)
		}
	}

	after, err := economy.GetPlayer(ctx, snap.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	want := snap.Coins + workers*tapsEach*snap.TapPower
	if after.Coins != want {
		t.Fatalf("coins = %d, want %d (lost updates)", after.Coins, want)
	}
}

func TestEconomy_UpgradeInsufficientFunds(t *testing.T) {
	_, economy := setup(t)
	ctx := context.Background()

	snap, err := economy.GetOrCreatePlayer(ctx, time.Now().UnixNano(), "poor", "Poor")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	if _, _, err := economy.UpgradeTapPower(ctx, snap.ID); !errors.Is(err, service.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	after, err := economy.GetPlayer(ctx, snap.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.TapPower != snap.TapPower || after.Coins != snap.Coins {
		t.Fatal("failed upgrade must not change state")
	}
}

func TestWeeklyWinner_RecordedOnce(t *testing.T) {
	db, economy := setup(t)
	ctx := context.Background()

	snap, err := economy.GetOrCreatePlayer(ctx, time.Now().UnixNano(), "winner", "Winner")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	periodRepo := repository.NewPeriodRepository(db)
	weekKey := 100000 + int(time.Now().UnixNano()%100000)
	prize := rules.Defaults().WeeklyPrizeTon

	// crediting the same week twice must pay only once
	for i := 0; i < 2; i++ {
		tx, err := db.Begin(ctx)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := periodRepo.RecordWeeklyWinner(ctx, tx, weekKey, snap.ID, 500, prize); err != nil {
			t.Fatalf("record winner (attempt %d): %v", i+1, err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	after, err := economy.GetPlayer(ctx, snap.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	want := snap.TonCredits.Add(prize)
	if !after.TonCredits.Equal(want) {
		t.Fatalf("ton_credits = %s, want %s (double payout?)", after.TonCredits, want)
	}

	w, err := periodRepo.GetWeeklyWinner(ctx, weekKey)
	if err != nil {
		t.Fatalf("get winner: %v", err)
	}
	if w == nil || w.PlayerID != snap.ID {
		t.Fatalf("winner = %+v, want player %d", w, snap.ID)
	}
}

func TestTaskClaim_GrantsExactlyOnce(t *testing.T) {
	db, economy := setup(t)
	ctx := context.Background()

	clock, err := gameclock.New("UTC")
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	balance := rules.Defaults()
	resets := service.NewResetService(db, clock, balance)
	tasks := service.NewTaskService(db, clock, balance, resets, nil)

	snap, err := economy.GetOrCreatePlayer(ctx, time.Now().UnixNano(), "claimer", "Claimer")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	const taskID = "visit_partner" // из сидов

	taskRepo := repository.NewTaskRepository(db)
	status, err := taskRepo.GetOrCreateStatus(ctx, snap.ID, taskID)
	if err != nil {
		t.Fatalf("create status: %v", err)
	}
	if _, err := taskRepo.MarkChecked(ctx, status.ID, clock.Now()); err != nil {
		t.Fatalf("mark checked: %v", err)
	}

	_, task, after, err := tasks.Claim(ctx, snap.ID, taskID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if after.Coins != snap.Coins+task.RewardCoins {
		t.Fatalf("coins = %d, want %d", after.Coins, snap.Coins+task.RewardCoins)
	}

	if _, _, _, err := tasks.Claim(ctx, snap.ID, taskID); !errors.Is(err, service.ErrAlreadyClaimed) {
		t.Fatalf("second claim err = %v, want ErrAlreadyClaimed", err)
	}

	reloaded, err := economy.GetPlayer(ctx, snap.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Coins != after.Coins {
		t.Fatalf("coins after double claim = %d, want %d", reloaded.Coins, after.Coins)
	}
}

// stubChecker подменяет Bot API в проверках членства.
type stubChecker struct {
	member bool
	err    error
}

func (c *stubChecker) IsMember(context.Context, string, int64) (bool, error) {
	return c.member, c.err
}

func TestTaskCheck_MembershipFailureVersusNotMember(t *testing.T) {
	db, economy := setup(t)
	ctx := context.Background()

	clock, err := gameclock.New("UTC")
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	balance := rules.Defaults()
	resets := service.NewResetService(db, clock, balance)
	checker := &stubChecker{}
	tasks := service.NewTaskService(db, clock, balance, resets, checker)

	snap, err := economy.GetOrCreatePlayer(ctx, time.Now().UnixNano(), "member", "Member")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	const taskID = "join_channel" // из сидов, kind=membership

	// не состоит в канале: это не ошибка, задание остаётся pending
	checker.member, checker.err = false, nil
	status, verified, err := tasks.Check(ctx, snap.ID, taskID)
	if err != nil {
		t.Fatalf("check (not a member): %v", err)
	}
	if verified {
		t.Fatal("verified=true for a non-member")
	}
	if status.State != domain.TaskStatePending {
		t.Fatalf("state = %s, want pending", status.State)
	}

	// Bot API недоступен: наружу уходит ErrExternalService, состояние не трогаем
	checker.member, checker.err = false, errors.New("telegram: bad gateway")
	if _, _, err := tasks.Check(ctx, snap.ID, taskID); !errors.Is(err, service.ErrExternalService) {
		t.Fatalf("check (checker down) err = %v, want ErrExternalService", err)
	}
	statuses, err := tasks.Statuses(ctx, snap.ID)
	if err != nil {
		t.Fatalf("list statuses: %v", err)
	}
	for _, s := range statuses {
		if s.TaskID == taskID && s.State != domain.TaskStatePending {
			t.Fatalf("state after failed check = %s, want pending", s.State)
		}
	}

	// членство подтверждено: pending -> checked
	checker.member, checker.err = true, nil
	status, verified, err = tasks.Check(ctx, snap.ID, taskID)
	if err != nil {
		t.Fatalf("check (member): %v", err)
	}
	if !verified || status.State != domain.TaskStateChecked {
		t.Fatalf("verified=%v state=%s, want verified checked", verified, status.State)
	}
}
