// Package rules holds the pure game-balance arithmetic. Nothing here touches
// storage or the clock: every function takes a player snapshot plus explicit
// inputs and mutates the snapshot in place, so the exact same math is shared
// by the service layer and the tests.
package rules

import (
	"errors"
	"time"

	"taptoearn/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTapCount   = errors.New("invalid tap count")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDailyLimitReached = errors.New("daily limit reached")
)

// Balance holds the declared game-balance constants
type Balance struct {
	UpgradeUnitCost int64 // upgrade cost = tap_power * this
	XPPerLevelStep  int64 // xp_to_next grows by this per level
	BaseXPToNext    int64

	// Один запрос несёт не больше стольких тапов: клиенты батчат мелко,
	// а огромные значения переполнили бы int64-счётчики.
	MaxTapsPerRequest int64

	DailyAdLimit int
	AdRewardTon  decimal.Decimal

	DailyTurboLimit int
	TurboMultiplier int64
	TurboDuration   time.Duration

	WeeklyPrizeTon decimal.Decimal
	ReferralTon    decimal.Decimal
}

// Defaults mirror the shipped webapp economy.
func Defaults() Balance {
	return Balance{
		UpgradeUnitCost:   100,
		XPPerLevelStep:    1000,
		BaseXPToNext:      1000,
		MaxTapsPerRequest: 10000,
		DailyAdLimit:      10,
		AdRewardTon:       decimal.New(1, -2), // 0.01
		DailyTurboLimit:   3,
		TurboMultiplier:   2,
		TurboDuration:     5 * time.Minute,
		WeeklyPrizeTon:    decimal.New(1, 0),  // 1 TON
		ReferralTon:       decimal.New(2, -2), // 0.02
	}
}

// TurboMult returns the multiplier to apply to a tap at the given moment.
func (b Balance) TurboMult(p *domain.Player, now time.Time) int64 {
	if p.IsTurboActive(now) {
		return b.TurboMultiplier
	}
	return 1
}

// ApplyTap credits a batch of taps. Coins, lifetime total, weekly score and XP
// all grow by taps * tapPower * multiplier; tap power is clamped to >= 1
// before use so a corrupt row can never zero out the gain. Batches above
// MaxTapsPerRequest are rejected whole: an oversized count would overflow the
// int64 counters and wrap them negative.
func (b Balance) ApplyTap(p *domain.Player, taps int64, mult int64) (gained int64, err error) {
	if taps <= 0 || (b.MaxTapsPerRequest > 0 && taps > b.MaxTapsPerRequest) {
		return 0, ErrInvalidTapCount
	}
	power := p.TapPower
	if power < 1 {
		power = 1
	}
	gained = taps * power * mult

	p.Coins += gained
	p.TotalCoins += gained
	p.WeeklyScore += gained
	p.XP += gained
	b.MaybeLevelUp(p)
	return gained, nil
}

// MaybeLevelUp consumes XP across as many level boundaries as it covers.
// Threshold growth is linear: xp_to_next += XPPerLevelStep per level.
func (b Balance) MaybeLevelUp(p *domain.Player) {
	if p.XPToNext < 1 {
		p.XPToNext = b.BaseXPToNext
	}
	for p.XP >= p.XPToNext {
		p.XP -= p.XPToNext
		p.Level++
		p.XPToNext += b.XPPerLevelStep
	}
}

// UpgradeCost returns what the next tap power increment costs.
func (b Balance) UpgradeCost(p *domain.Player) int64 {
	power := p.TapPower
	if power < 1 {
		power = 1
	}
	return power * b.UpgradeUnitCost
}

// UpgradeTapPower debits the upgrade cost and bumps tap power by one.
// total_coins не трогаем: апгрейд - трата, а не заработок.
func (b Balance) UpgradeTapPower(p *domain.Player) (cost int64, err error) {
	cost = b.UpgradeCost(p)
	if p.Coins < cost {
		return cost, ErrInsufficientFunds
	}
	p.Coins -= cost
	if p.TapPower < 1 {
		p.TapPower = 1
	}
	p.TapPower++
	return cost, nil
}

// GrantAdReward credits the fixed TON reward for a watched ad, capped per day.
func (b Balance) GrantAdReward(p *domain.Player) (decimal.Decimal, error) {
	if p.DailyAdCount >= b.DailyAdLimit {
		return decimal.Zero, ErrDailyLimitReached
	}
	p.DailyAdCount++
	p.TonCredits = p.TonCredits.Add(b.AdRewardTon)
	return b.AdRewardTon, nil
}

// ActivateTurbo arms the multiplier window, capped per day. An already-running
// window is simply replaced; the daily counter still advances.
func (b Balance) ActivateTurbo(p *domain.Player, now time.Time) (until time.Time, err error) {
	if p.DailyTurboUsed >= b.DailyTurboLimit {
		return time.Time{}, ErrDailyLimitReached
	}
	p.DailyTurboUsed++
	until = now.Add(b.TurboDuration)
	p.TurboUntil = &until
	return until, nil
}

// GrantTaskReward credits a task's declared reward (coins and/or TON).
func (b Balance) GrantTaskReward(p *domain.Player, task *domain.TaskDef) {
	if task.RewardCoins > 0 {
		p.Coins += task.RewardCoins
		p.TotalCoins += task.RewardCoins
		p.XP += task.RewardCoins
		b.MaybeLevelUp(p)
	}
	if task.RewardTon.IsPositive() {
		p.TonCredits = p.TonCredits.Add(task.RewardTon)
	}
}
