package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Player - состояние игрока в экономике
type Player struct {
	ID             int64           `db:"id" json:"id"`
	TgID           int64           `db:"tg_id" json:"tg_id"`
	Username       string          `db:"username" json:"username"`
	FirstName      string          `db:"first_name" json:"first_name"`
	Coins          int64           `db:"coins" json:"coins"`
	TotalCoins     int64           `db:"total_coins" json:"total_coins"`
	TapPower       int64           `db:"tap_power" json:"tap_power"`
	Level          int64           `db:"level" json:"level"`
	XP             int64           `db:"xp" json:"xp"`
	XPToNext       int64           `db:"xp_to_next" json:"xp_to_next"`
	TonCredits     decimal.Decimal `db:"ton_credits" json:"ton_credits"`
	WeeklyScore    int64           `db:"weekly_score" json:"weekly_score"`
	DailyAdCount   int             `db:"daily_ad_count" json:"daily_ad_count"`
	DailyTurboUsed int             `db:"daily_turbo_used" json:"daily_turbo_used"`
	TurboUntil     *time.Time      `db:"turbo_until" json:"turbo_until,omitempty"`
	InvitedCount   int             `db:"invited_count" json:"invited_count"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// IsTurboActive reports whether the tap multiplier applies at the given moment.
func (p *Player) IsTurboActive(now time.Time) bool {
	return p.TurboUntil != nil && now.Before(*p.TurboUntil)
}

// Snapshot is the normalized player payload returned by every mutating endpoint.
type Snapshot struct {
	ID             int64           `json:"id"`
	TgID           int64           `json:"tg_id"`
	Username       string          `json:"username"`
	FirstName      string          `json:"first_name"`
	Coins          int64           `json:"coins"`
	TotalCoins     int64           `json:"total_coins"`
	TapPower       int64           `json:"tap_power"`
	Level          int64           `json:"level"`
	XP             int64           `json:"xp"`
	XPToNext       int64           `json:"xp_to_next"`
	TonCredits     decimal.Decimal `json:"ton_credits"`
	WeeklyScore    int64           `json:"weekly_score"`
	AdsRemaining   int             `json:"ads_remaining"`
	TurboRemaining int             `json:"turbo_remaining"`
	TurboActive    bool            `json:"turbo_active"`
	TurboUntil     *time.Time      `json:"turbo_until,omitempty"`
	InvitedCount   int             `json:"invited_count"`
}

// ToSnapshot строит публичный снапшот по состоянию игрока
func (p *Player) ToSnapshot(now time.Time, dailyAdLimit, dailyTurboLimit int) Snapshot {
	adsLeft := dailyAdLimit - p.DailyAdCount
	if adsLeft < 0 {
		adsLeft = 0
	}
	turboLeft := dailyTurboLimit - p.DailyTurboUsed
	if turboLeft < 0 {
		turboLeft = 0
	}
	return Snapshot{
		ID:             p.ID,
		TgID:           p.TgID,
		Username:       p.Username,
		FirstName:      p.FirstName,
		Coins:          p.Coins,
		TotalCoins:     p.TotalCoins,
		TapPower:       p.TapPower,
		Level:          p.Level,
		XP:             p.XP,
		XPToNext:       p.XPToNext,
		TonCredits:     p.TonCredits,
		WeeklyScore:    p.WeeklyScore,
		AdsRemaining:   adsLeft,
		TurboRemaining: turboLeft,
		TurboActive:    p.IsTurboActive(now),
		TurboUntil:     p.TurboUntil,
		InvitedCount:   p.InvitedCount,
	}
}
