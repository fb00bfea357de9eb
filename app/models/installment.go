package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	INSTALLMENT_STATUS_ACTIVE    = "active"
	INSTALLMENT_STATUS_COMPLETE  = "complete"
	INSTALLMENT_STATUS_CANCELLED = "cancelled"
)

// Installment is a fixed total split into a known number of payments.
// The sum of all InstallmentPayment amounts equals TotalAmount; once
// RemainingCount reaches zero the installment is complete.
type Installment struct {
	ID             uint                 `gorm:"primaryKey" json:"id"`
	UserID         uint                 `gorm:"index" json:"user_id"`
	User           User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	WalletID       uint                 `gorm:"index" json:"wallet_id"`
	CategoryID     *uint                `gorm:"index" json:"category_id"`
	Name           string               `gorm:"type:varchar(150)" json:"name" validate:"required,min=1,max=150"`
	TotalAmount    decimal.Decimal      `gorm:"type:decimal(14,2)" json:"total_amount"`
	PaymentAmount  decimal.Decimal      `gorm:"type:decimal(14,2)" json:"payment_amount"`
	PaymentCount   int                  `json:"payment_count" validate:"min=1"`
	RemainingCount int                  `json:"remaining_count" validate:"min=0"`
	Status         string               `gorm:"type:varchar(20);default:'active';index" json:"status" validate:"oneof=active complete cancelled"`
	Payments       []InstallmentPayment `gorm:"foreignKey:InstallmentID" json:"payments,omitempty"`
	CreatedAt      time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt       `gorm:"index" json:"-"`
}

type InstallmentPayment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InstallmentID uint            `gorm:"index" json:"installment_id"`
	Sequence      int             `json:"sequence"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2)" json:"amount"`
	DueAt         time.Time       `gorm:"index" json:"due_at"`
	Paid          bool            `gorm:"default:false;index" json:"paid"`
	PaidAt        *time.Time      `json:"paid_at"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Installment) Validate() error {
	v := validator.New()

	return v.Struct(i)
}

// IsProcessable reports whether the scheduled processor should touch this
// installment.
func (i *Installment) IsProcessable() bool {
	return i.Status == INSTALLMENT_STATUS_ACTIVE && i.RemainingCount > 0
}

// BuildPaymentSchedule splits TotalAmount into PaymentCount monthly-spaced
// payments starting at firstDue. Rounding differences are folded into the
// final payment so the schedule always sums to TotalAmount.
func (i *Installment) BuildPaymentSchedule(firstDue time.Time) []InstallmentPayment {
	if i.PaymentCount < 1 {
		return nil
	}
	per := i.TotalAmount.Div(decimal.NewFromInt(int64(i.PaymentCount))).Round(2)
	payments := make([]InstallmentPayment, 0, i.PaymentCount)
	sum := decimal.Zero
	for n := 0; n < i.PaymentCount; n++ {
		amount := per
		if n == i.PaymentCount-1 {
			amount = i.TotalAmount.Sub(sum)
		}
		sum = sum.Add(amount)
		payments = append(payments, InstallmentPayment{
			Sequence: n + 1,
			Amount:   amount,
			DueAt:    firstDue.AddDate(0, n, 0),
		})
	}
	return payments
}
