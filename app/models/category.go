package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	CATEGORY_KIND_EXPENSE = "expense"
	CATEGORY_KIND_INCOME  = "income"
)

type Category struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index" json:"user_id"`
	Name      string         `gorm:"type:varchar(100)" json:"name" validate:"required,min=1,max=100"`
	Kind      string         `gorm:"type:varchar(20);default:'expense'" json:"kind" validate:"oneof=expense income"`
	Color     string         `gorm:"type:varchar(20);default:'#6b7280'" json:"color"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
