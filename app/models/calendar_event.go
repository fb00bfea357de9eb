package models

import (
	"time"

	"gorm.io/gorm"
)

// EventType is the closed set of calendar event kinds. The *_due kinds are
// written exclusively by the calendar sync; users create custom and
// reminder events.
type EventType string

const (
	EventTypeCustom          EventType = "custom"
	EventTypeReminder        EventType = "reminder"
	EventTypePaymentDue      EventType = "payment_due"
	EventTypeSubscriptionDue EventType = "subscription_due"
	EventTypeInstallmentDue  EventType = "installment_due"
)

type CalendarEvent struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	UserID  uint      `gorm:"index" json:"user_id"`
	Title   string    `gorm:"type:varchar(200)" json:"title" validate:"required,min=1,max=200"`
	StartAt time.Time `gorm:"index" json:"start_at"`
	EndAt   time.Time `json:"end_at"`
	Type    EventType `gorm:"type:varchar(30);default:'custom';index" json:"type"`
	Color   string    `gorm:"type:varchar(20);default:'#3b82f6'" json:"color"`
	// SourceKind/SourceID/OccurrenceDate identify the synthesized payment
	// occurrence a synced row belongs to; the sync upserts on this triple.
	SourceKind     string              `gorm:"type:varchar(20);default:'';index:idx_event_source" json:"source_kind"`
	SourceID       uint                `gorm:"default:0;index:idx_event_source" json:"source_id"`
	OccurrenceDate *time.Time          `gorm:"index:idx_event_source" json:"occurrence_date"`
	Metadata       string              `gorm:"type:text" json:"metadata"`
	Reminders      []CalendarReminder  `gorm:"foreignKey:EventID" json:"reminders,omitempty"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt      `gorm:"index" json:"-"`
}

type CalendarReminder struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	EventID       uint      `gorm:"index" json:"event_id"`
	MinutesBefore int       `json:"minutes_before" validate:"min=0"`
	Channel       string    `gorm:"type:varchar(20);default:'database'" json:"channel" validate:"oneof=database email sms push"`
	Sent          bool      `gorm:"default:false" json:"sent"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsSynced reports whether the event row was materialized from a
// subscription or installment due date.
func (e *CalendarEvent) IsSynced() bool {
	return e.SourceKind != "" && e.SourceID != 0
}
