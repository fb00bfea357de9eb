package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillingCycle is the closed set of recurrence units a subscription can use.
type BillingCycle string

const (
	CycleDaily   BillingCycle = "daily"
	CycleWeekly  BillingCycle = "weekly"
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

const (
	SUB_STATUS_ACTIVE    = "active"
	SUB_STATUS_PAUSED    = "paused"
	SUB_STATUS_CANCELLED = "cancelled"
)

type Subscription struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index" json:"user_id"`
	User       User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	WalletID   uint            `gorm:"index" json:"wallet_id"`
	Wallet     Wallet          `gorm:"foreignKey:WalletID" json:"wallet,omitempty"`
	CategoryID *uint           `gorm:"index" json:"category_id"`
	Name       string          `gorm:"type:varchar(150)" json:"name" validate:"required,min=1,max=150"`
	Amount     decimal.Decimal `gorm:"type:decimal(14,2)" json:"amount"`
	Cycle      BillingCycle    `gorm:"type:varchar(20);default:'monthly'" json:"cycle" validate:"oneof=daily weekly monthly yearly"`
	// NextDueAt is never before CreatedAt. The scheduled processor is the
	// only writer that advances it.
	NextDueAt time.Time `gorm:"index" json:"next_due_at"`
	// AnchorDay pins monthly/yearly cycles to their original day of month
	// so a Jan 31 subscription clamped to Feb 28 returns to Mar 31.
	// Zero means "use the due date's own day".
	AnchorDay int            `gorm:"default:0" json:"anchor_day" validate:"min=0,max=31"`
	Status    string         `gorm:"type:varchar(20);default:'active';index" json:"status" validate:"oneof=active paused cancelled"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Subscription) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// IsProcessable reports whether the scheduled processor should touch this
// subscription. Paused and cancelled subscriptions are skipped entirely.
func (s *Subscription) IsProcessable() bool {
	return s.Status == SUB_STATUS_ACTIVE
}

// Pause excludes the subscription from scheduled processing.
func (s *Subscription) Pause() {
	if s.Status == SUB_STATUS_ACTIVE {
		s.Status = SUB_STATUS_PAUSED
	}
}

// Resume reactivates a paused subscription. If the due date fell into the
// past while paused it is caught up on the next processor run.
func (s *Subscription) Resume() {
	if s.Status == SUB_STATUS_PAUSED {
		s.Status = SUB_STATUS_ACTIVE
	}
}
