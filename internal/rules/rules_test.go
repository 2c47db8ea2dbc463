package rules

import (
	"testing"
	"time"

	"taptoearn/internal/domain"

	"github.com/shopspring/decimal"
)

func newPlayer() *domain.Player {
	return &domain.Player{
		ID:       1,
		TapPower: 1,
		Level:    1,
		XPToNext: 1000,
	}
}

func TestApplyTap_Basic(t *testing.T) {
	b := Defaults()
	p := newPlayer()

	gained, err := b.ApplyTap(p, 5, 1)
	if err != nil {
		t.Fatalf("ApplyTap: %v", err)
	}
	if gained != 5 {
		t.Fatalf("expected gain 5, got %d", gained)
	}
	if p.Coins != 5 || p.TotalCoins != 5 || p.WeeklyScore != 5 || p.XP != 5 {
		t.Fatalf("unexpected state: %+v", p)
	}
}

func TestApplyTap_RejectsNonPositive(t *testing.T) {
	b := Defaults()
	p := newPlayer()
	for _, taps := range []int64{0, -1} {
		if _, err := b.ApplyTap(p, taps, 1); err != ErrInvalidTapCount {
			t.Fatalf("taps=%d: expected ErrInvalidTapCount, got %v", taps, err)
		}
	}
	if p.Coins != 0 {
		t.Fatalf("state mutated on rejected tap")
	}
}

func TestApplyTap_RejectsOversizedBatch(t *testing.T) {
	b := Defaults()
	p := newPlayer()
	p.TapPower = 2
	p.TotalCoins = 100

	// МАКС+1 и значение у границы int64: обе пачки должны отлететь целиком,
	// иначе произведение переполнится и счётчики уйдут в минус
	for _, taps := range []int64{b.MaxTapsPerRequest + 1, 1 << 62} {
		if _, err := b.ApplyTap(p, taps, b.TurboMultiplier); err != ErrInvalidTapCount {
			t.Fatalf("taps=%d: expected ErrInvalidTapCount, got %v", taps, err)
		}
	}
	if p.Coins != 0 || p.TotalCoins != 100 || p.WeeklyScore != 0 || p.XP != 0 {
		t.Fatalf("state mutated on rejected batch: %+v", p)
	}

	// ровно на границе - валидно
	gained, err := b.ApplyTap(p, b.MaxTapsPerRequest, 1)
	if err != nil {
		t.Fatalf("ApplyTap at limit: %v", err)
	}
	if gained != b.MaxTapsPerRequest*2 {
		t.Fatalf("expected gain %d, got %d", b.MaxTapsPerRequest*2, gained)
	}
	if p.TotalCoins < 100 {
		t.Fatalf("total_coins must stay monotonic, got %d", p.TotalCoins)
	}
}

func TestApplyTap_ClampsTapPowerFloor(t *testing.T) {
	b := Defaults()
	p := newPlayer()
	p.TapPower = 0 // corrupt row

	gained, err := b.ApplyTap(p, 3, 1)
	if err != nil {
		t.Fatalf("ApplyTap: %v", err)
	}
	if gained != 3 {
		t.Fatalf("expected clamp to power 1, got gain %d", gained)
	}
}

func TestApplyTap_TurboMultiplier(t *testing.T) {
	b := Defaults()
	p := newPlayer()
	p.TapPower = 4

	now := time.Now()
	until := now.Add(time.Minute)
	p.TurboUntil = &until

	mult := b.TurboMult(p, now)
	if mult != 2 {
		t.Fatalf("expected multiplier 2, got %d", mult)
	}
	gained, _ := b.ApplyTap(p, 10, mult)
	if gained != 80 {
		t.Fatalf("expected 10*4*2=80, got %d", gained)
	}

	if got := b.TurboMult(p, until.Add(time.Second)); got != 1 {
		t.Fatalf("turbo expired, expected 1, got %d", got)
	}
}

func TestMaybeLevelUp_CrossesMultipleBoundaries(t *testing.T) {
	b := Defaults()
	p := newPlayer()

	// 1000 + 2000 + 500 = 3500: two full levels, 500 left over
	p.XP = 3500
	b.MaybeLevelUp(p)

	if p.Level != 3 {
		t.Fatalf("expected level 3, got %d", p.Level)
	}
	if p.XP != 500 {
		t.Fatalf("expected 500 xp remaining, got %d", p.XP)
	}
	if p.XPToNext != 3000 {
		t.Fatalf("expected threshold 3000, got %d", p.XPToNext)
	}
}

func TestUpgradeTapPower(t *testing.T) {
	b := Defaults()
	p := newPlayer()
	p.Coins = 5

	// insufficient: state must not change
	cost, err := b.UpgradeTapPower(p)
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if cost != 100 {
		t.Fatalf("expected cost 100, got %d", cost)
	}
	if p.Coins != 5 || p.TapPower != 1 {
		t.Fatalf("state changed on failed upgrade: %+v", p)
	}

	p.Coins = 100
	cost, err = b.UpgradeTapPower(p)
	if err != nil {
		t.Fatalf("UpgradeTapPower: %v", err)
	}
	if cost != 100 || p.Coins != 0 || p.TapPower != 2 {
		t.Fatalf("unexpected upgrade result: cost=%d %+v", cost, p)
	}

	// next upgrade gets pricier
	if got := b.UpgradeCost(p); got != 200 {
		t.Fatalf("expected next cost 200, got %d", got)
	}
}

func TestUpgrade_TotalCoinsMonotonic(t *testing.T) {
	b := Defaults()
	p := newPlayer()

	_, _ = b.ApplyTap(p, 100, 1)
	before := p.TotalCoins
	if _, err := b.UpgradeTapPower(p); err != nil {
		t.Fatalf("UpgradeTapPower: %v", err)
	}
	if p.TotalCoins != before {
		t.Fatalf("total_coins decreased on spend: %d -> %d", before, p.TotalCoins)
	}
}

func TestGrantAdReward_DailyCap(t *testing.T) {
	b := Defaults()
	p := newPlayer()

	for i := 0; i < b.DailyAdLimit; i++ {
		if _, err := b.GrantAdReward(p); err != nil {
			t.Fatalf("reward %d: %v", i, err)
		}
	}
	if _, err := b.GrantAdReward(p); err != ErrDailyLimitReached {
		t.Fatalf("expected ErrDailyLimitReached, got %v", err)
	}

	// 10 * 0.01 must be exactly 0.1, no float drift
	want := decimal.New(1, -1)
	if !p.TonCredits.Equal(want) {
		t.Fatalf("expected ton credits %s, got %s", want, p.TonCredits)
	}

	// day boundary: counter reset makes rewards available again
	p.DailyAdCount = 0
	if _, err := b.GrantAdReward(p); err != nil {
		t.Fatalf("after reset: %v", err)
	}
}

func TestActivateTurbo_DailyCap(t *testing.T) {
	b := Defaults()
	p := newPlayer()
	now := time.Now()

	for i := 0; i < b.DailyTurboLimit; i++ {
		until, err := b.ActivateTurbo(p, now)
		if err != nil {
			t.Fatalf("turbo %d: %v", i, err)
		}
		if !until.Equal(now.Add(b.TurboDuration)) {
			t.Fatalf("unexpected turbo window end %v", until)
		}
	}
	if _, err := b.ActivateTurbo(p, now); err != ErrDailyLimitReached {
		t.Fatalf("expected ErrDailyLimitReached, got %v", err)
	}
}

func TestGrantTaskReward(t *testing.T) {
	b := Defaults()
	p := newPlayer()

	task := &domain.TaskDef{
		ID:          "join_channel",
		RewardCoins: 1000,
		RewardTon:   decimal.New(5, -2),
	}
	b.GrantTaskReward(p, task)

	if p.Coins != 1000 || p.TotalCoins != 1000 {
		t.Fatalf("unexpected coins: %+v", p)
	}
	// 1000 xp crosses the first boundary exactly
	if p.Level != 2 || p.XP != 0 {
		t.Fatalf("expected level 2 xp 0, got level %d xp %d", p.Level, p.XP)
	}
	if !p.TonCredits.Equal(decimal.New(5, -2)) {
		t.Fatalf("unexpected ton credits %s", p.TonCredits)
	}
}
