package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	NOTIF_TYPE_DUE_SOON = "payment_due_soon"
	NOTIF_TYPE_OVERDUE  = "payment_overdue"
	NOTIF_TYPE_SYSTEM   = "system"

	DELIVERY_PENDING   = "pending"
	DELIVERY_SENDING   = "sending"
	DELIVERY_SENT      = "sent"
	DELIVERY_FAILED    = "failed"
	DELIVERY_CANCELLED = "cancelled"
)

type Notification struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type    string `gorm:"type:varchar(50)" json:"type" validate:"oneof=payment_due_soon payment_overdue system"`
	Title   string `gorm:"type:varchar(200)" json:"title"`
	Message string `gorm:"type:text" json:"message"`
	// DedupKey prevents a second notification for the same occurrence.
	// See BuildDedupKey for the composite shape.
	DedupKey       string         `gorm:"type:varchar(120);uniqueIndex" json:"-"`
	DeliveryStatus string         `gorm:"type:varchar(20);default:'pending'" json:"delivery_status" validate:"oneof=pending sending sent failed cancelled"`
	DeliveryError  string         `gorm:"type:text" json:"-"`
	ReadAt         *time.Time     `json:"read_at"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// BuildDedupKey composes the idempotency key for one notification
// occurrence: entity kind, entity id, due date and notification type.
func BuildDedupKey(entityKind string, entityID uint, dueDate time.Time, notifType string) string {
	return fmt.Sprintf("%s:%d:%s:%s", entityKind, entityID, dueDate.UTC().Format("2006-01-02"), notifType)
}

// IsRead reports whether the notification has been read.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// MarkAsRead sets the read timestamp. Reading is the only mutation a
// notification allows after creation.
func (n *Notification) MarkAsRead(db *gorm.DB) error {
	now := time.Now()
	n.ReadAt = &now
	return db.Model(n).Update("read_at", now).Error
}
