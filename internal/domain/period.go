package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodState - singleton-строка с последними применёнными границами периодов.
// Блокировка этой строки сериализует все сбросы счётчиков между запросами.
type PeriodState struct {
	LastDailyReset  string `db:"last_daily_reset"`  // DayKey, YYYY-MM-DD
	LastWeeklyReset int    `db:"last_weekly_reset"` // WeekKey, isoYear*100+isoWeek
}

// WeeklyWinner - зафиксированный победитель недели
type WeeklyWinner struct {
	WeekKey   int             `db:"week_key" json:"week_key"`
	PlayerID  int64           `db:"player_id" json:"player_id"`
	Score     int64           `db:"score" json:"score"`
	Prize     decimal.Decimal `db:"prize" json:"prize"`
	AwardedAt time.Time       `db:"awarded_at" json:"awarded_at"`
}
