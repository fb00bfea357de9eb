package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationSetting stores per-user delivery preferences for payment
// reminders. The database channel cannot be disabled; email, SMS and push
// are opt-in. DueLeadDays controls how far ahead of a due date the
// "due soon" sweep starts notifying.
type NotificationSetting struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"uniqueIndex" json:"user_id"`
	EmailEnabled bool           `gorm:"default:false" json:"email_enabled"`
	SMSEnabled   bool           `gorm:"default:false" json:"sms_enabled"`
	PushEnabled  bool           `gorm:"default:false" json:"push_enabled"`
	DueLeadDays  int            `gorm:"default:3" json:"due_lead_days" validate:"min=0,max=30"`
	PhoneNumber  string         `gorm:"type:varchar(32);default:''" json:"phone_number"`
	PushEndpoint string         `gorm:"type:varchar(500);default:''" json:"push_endpoint"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// GetOrCreateNotificationSetting returns existing settings or creates defaults
func GetOrCreateNotificationSetting(db *gorm.DB, userID uint) (*NotificationSetting, error) {
	var ns NotificationSetting
	if err := db.Where("user_id = ?", userID).First(&ns).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			ns = NotificationSetting{UserID: userID, DueLeadDays: 3}
			if err := db.Create(&ns).Error; err != nil {
				return nil, err
			}
			return &ns, nil
		}
		return nil, err
	}
	return &ns, nil
}
