package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"taptoearn/internal/gameclock"
	"taptoearn/internal/rules"
	"taptoearn/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// servicesAt собирает сервисы на замороженных часах, чтобы переходы суток и
// недель можно было разыгрывать детерминированно.
func servicesAt(t *testing.T, db *pgxpool.Pool, at time.Time) (*service.ResetService, *service.EconomyService) {
	t.Helper()
	clock, err := gameclock.NewFixed("UTC", at)
	if err != nil {
		t.Fatalf("fixed clock: %v", err)
	}
	balance := rules.Defaults()
	resets := service.NewResetService(db, clock, balance)
	return resets, service.NewEconomyService(db, clock, balance, resets)
}

func TestReset_DailyCountersResetAcrossDayBoundary(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()

	// среда и четверг одной ISO-недели: пересекается только суточная граница
	day1 := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	_, economy1 := servicesAt(t, db, day1)
	snap, err := economy1.GetOrCreatePlayer(ctx, time.Now().UnixNano(), "dayreset", "DayReset")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	if snap, err = economy1.Tap(ctx, snap.ID, 7); err != nil {
		t.Fatalf("tap: %v", err)
	}
	weeklyBefore := snap.WeeklyScore

	limit := rules.Defaults().DailyAdLimit
	if snap, err = economy1.WatchAd(ctx, snap.ID); err != nil {
		t.Fatalf("watch ad: %v", err)
	}
	if snap.AdsRemaining != limit-1 {
		t.Fatalf("ads_remaining = %d, want %d", snap.AdsRemaining, limit-1)
	}

	// чтение на следующий день тянет за собой суточный сброс
	_, economy2 := servicesAt(t, db, day2)
	after, err := economy2.GetPlayer(ctx, snap.ID)
	if err != nil {
		t.Fatalf("get player after boundary: %v", err)
	}
	if after.AdsRemaining != limit {
		t.Fatalf("daily ad counter survived the boundary: remaining %d, want %d", after.AdsRemaining, limit)
	}
	if after.WeeklyScore != weeklyBefore {
		t.Fatalf("weekly score must survive a daily-only boundary: %d, want %d", after.WeeklyScore, weeklyBefore)
	}
}

func TestReset_WeeklyPayoutExactlyOnceUnderRace(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()

	// пятница недели 202610 и понедельник недели 202611
	week1 := time.Date(2026, time.March, 6, 12, 0, 0, 0, time.UTC)
	week2 := week1.AddDate(0, 0, 3)
	closedKey := gameclock.WeekKeyAt(week1)

	_, economy1 := servicesAt(t, db, week1)
	snap, err := economy1.GetOrCreatePlayer(ctx, time.Now().UnixNano(), "weekly", "Weekly")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	// прошлые прогоны могли уже записать победителя этой недели
	if _, err := db.Exec(ctx, `DELETE FROM weekly_winners WHERE week_key = $1`, closedKey); err != nil {
		t.Fatalf("cleanup winners: %v", err)
	}
	// гарантированно самый высокий счёт в таблице
	if _, err := db.Exec(ctx,
		`UPDATE players SET weekly_score = 9000000000000000 WHERE id = $1`, snap.ID); err != nil {
		t.Fatalf("set score: %v", err)
	}

	var before decimal.Decimal
	if err := db.QueryRow(ctx,
		`SELECT ton_credits FROM players WHERE id = $1`, snap.ID).Scan(&before); err != nil {
		t.Fatalf("read credits: %v", err)
	}

	// два независимых координатора пересекают недельную границу одновременно
	resetsA, _ := servicesAt(t, db, week2)
	resetsB, _ := servicesAt(t, db, week2)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); errs[0] = resetsA.EnsureCurrent(ctx) }()
	go func() { defer wg.Done(); errs[1] = resetsB.EnsureCurrent(ctx) }()
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("EnsureCurrent %d: %v", i, err)
		}
	}

	prize := rules.Defaults().WeeklyPrizeTon
	var after decimal.Decimal
	var weeklyScore int64
	if err := db.QueryRow(ctx,
		`SELECT ton_credits, weekly_score FROM players WHERE id = $1`, snap.ID,
	).Scan(&after, &weeklyScore); err != nil {
		t.Fatalf("read credits: %v", err)
	}
	if want := before.Add(prize); !after.Equal(want) {
		t.Fatalf("ton_credits = %s, want %s (prize paid %s times?)",
			after, want, after.Sub(before).Div(prize))
	}
	if weeklyScore != 0 {
		t.Fatalf("weekly_score = %d after rollover, want 0", weeklyScore)
	}

	var winnerID int64
	if err := db.QueryRow(ctx,
		`SELECT player_id FROM weekly_winners WHERE week_key = $1`, closedKey,
	).Scan(&winnerID); err != nil {
		t.Fatalf("read winner: %v", err)
	}
	if winnerID != snap.ID {
		t.Fatalf("winner = %d, want %d", winnerID, snap.ID)
	}

	// повторный вызов на той же неделе ничего не доначисляет
	if err := resetsA.EnsureCurrent(ctx); err != nil {
		t.Fatalf("repeat EnsureCurrent: %v", err)
	}
	var again decimal.Decimal
	if err := db.QueryRow(ctx,
		`SELECT ton_credits FROM players WHERE id = $1`, snap.ID).Scan(&again); err != nil {
		t.Fatalf("read credits: %v", err)
	}
	if !again.Equal(after) {
		t.Fatalf("ton_credits drifted on repeat: %s -> %s", after, again)
	}
}
