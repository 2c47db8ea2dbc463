package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry - запись в журнале начислений/списаний
type LedgerEntry struct {
	ID        int64                  `db:"id" json:"id"`
	PlayerID  int64                  `db:"player_id" json:"-"`
	Kind      string                 `db:"kind" json:"kind"` // tap, upgrade, ad_reward, task_reward, turbo, weekly_prize, referral
	Coins     int64                  `db:"coins" json:"coins"`
	Ton       decimal.Decimal        `db:"ton" json:"ton"`
	Reference string                 `db:"reference" json:"reference"` // uuid, for external reconciliation
	Meta      map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"date"`
}
