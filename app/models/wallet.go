package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Wallet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"index" json:"user_id"`
	User      User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name      string          `gorm:"type:varchar(150)" json:"name" validate:"required,min=1,max=150"`
	Currency  string          `gorm:"type:varchar(10);default:'EUR'" json:"currency" validate:"required,len=3"`
	Balance   decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"balance"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (w *Wallet) Validate() error {
	v := validator.New()

	return v.Struct(w)
}

// Debit subtracts the given amount from the wallet balance. The balance may
// go negative; scheduled processing records the debt instead of rejecting
// the occurrence.
func (w *Wallet) Debit(amount decimal.Decimal) {
	w.Balance = w.Balance.Sub(amount)
}

// Credit adds the given amount to the wallet balance.
func (w *Wallet) Credit(amount decimal.Decimal) {
	w.Balance = w.Balance.Add(amount)
}
