package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TX_TYPE_EXPENSE = "expense"
	TX_TYPE_INCOME  = "income"

	// Source identifies what created a transaction. Manual entries carry
	// no source; the scheduled processor stamps subscription/installment
	// sources so re-runs can detect already-booked occurrences.
	TX_SOURCE_MANUAL       = "manual"
	TX_SOURCE_SUBSCRIPTION = "subscription"
	TX_SOURCE_INSTALLMENT  = "installment"
)

type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"index" json:"user_id"`
	WalletID    uint            `gorm:"index" json:"wallet_id"`
	Wallet      Wallet          `gorm:"foreignKey:WalletID" json:"wallet,omitempty"`
	CategoryID  *uint           `gorm:"index" json:"category_id"`
	Type        string          `gorm:"type:varchar(20);default:'expense'" json:"type" validate:"oneof=expense income"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2)" json:"amount"`
	Description string          `gorm:"type:varchar(255)" json:"description"`
	Note        string          `gorm:"type:text" json:"note"`
	BookedAt    time.Time       `json:"booked_at"`
	Source      string          `gorm:"type:varchar(20);default:'manual';index:idx_tx_source" json:"source" validate:"oneof=manual subscription installment"`
	SourceID    uint            `gorm:"default:0;index:idx_tx_source" json:"source_id"`
	// OccurrenceDate is the due date of the occurrence this transaction
	// settles. Together with Source and SourceID it makes scheduled
	// bookings idempotent.
	OccurrenceDate *time.Time     `gorm:"index:idx_tx_source" json:"occurrence_date"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
