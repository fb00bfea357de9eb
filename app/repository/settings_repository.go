package repository

import (
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
)

// settingsRepository implements the SettingsRepository interface
type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository instance
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// GetOrCreateUserSettings returns the user's settings, creating defaults on first access
func (r *settingsRepository) GetOrCreateUserSettings(userID uint) (*models.UserSettings, error) {
	return models.GetOrCreateUserSettings(r.db, userID)
}

// SaveUserSettings persists changed user settings
func (r *settingsRepository) SaveUserSettings(settings *models.UserSettings) error {
	return r.db.Save(settings).Error
}

// GetOrCreateNotificationSetting returns the user's notification preferences,
// creating defaults on first access
func (r *settingsRepository) GetOrCreateNotificationSetting(userID uint) (*models.NotificationSetting, error) {
	return models.GetOrCreateNotificationSetting(r.db, userID)
}

// SaveNotificationSetting persists changed notification preferences
func (r *settingsRepository) SaveNotificationSetting(setting *models.NotificationSetting) error {
	return r.db.Save(setting).Error
}
