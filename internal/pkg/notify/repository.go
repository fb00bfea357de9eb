package notify

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MartinKaiser/FinCal/app/models"
)

// ErrNotFound is returned for unknown notification ids and for cross-user
// access, which is deliberately indistinguishable from not-found.
var ErrNotFound = errors.New("notification not found")

// Repository provides DB operations used by the notify service.
type Repository interface {
	ListUpcomingSubscriptions(now time.Time, horizonDays int) ([]models.Subscription, error)
	ListOverdueSubscriptions(now time.Time) ([]models.Subscription, error)
	ListUpcomingInstallmentPayments(now time.Time, horizonDays int) ([]models.InstallmentPayment, error)
	ListOverdueInstallmentPayments(now time.Time) ([]models.InstallmentPayment, error)
	GetInstallment(id uint) (*models.Installment, error)
	GetUser(id uint) (*models.User, error)
	GetNotificationSetting(userID uint) (*models.NotificationSetting, error)
	CreateNotificationIfNotExists(n *models.Notification) (bool, error)
	UpdateNotificationDelivery(id uint, status string, deliveryErr string) error
	GetNotification(id uint) (*models.Notification, error)
	MarkNotificationRead(id uint, readAt time.Time) error
	MarkAllNotificationsRead(userID uint, readAt time.Time) error
	ListNotifications(userID uint, offset, limit int) ([]models.Notification, error)
	CountUnread(userID uint) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a notify repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ListUpcomingSubscriptions(now time.Time, horizonDays int) ([]models.Subscription, error) {
	var subs []models.Subscription
	horizon := now.AddDate(0, 0, horizonDays)
	err := r.db.
		Where("status = ? AND next_due_at >= ? AND next_due_at <= ?", models.SUB_STATUS_ACTIVE, now, horizon).
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) ListOverdueSubscriptions(now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.
		Where("status = ? AND next_due_at < ?", models.SUB_STATUS_ACTIVE, now).
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) ListUpcomingInstallmentPayments(now time.Time, horizonDays int) ([]models.InstallmentPayment, error) {
	var payments []models.InstallmentPayment
	horizon := now.AddDate(0, 0, horizonDays)
	err := r.db.
		Joins("JOIN installments ON installments.id = installment_payments.installment_id").
		Where("installment_payments.paid = ? AND installment_payments.due_at >= ? AND installment_payments.due_at <= ?", false, now, horizon).
		Where("installments.status = ? AND installments.deleted_at IS NULL", models.INSTALLMENT_STATUS_ACTIVE).
		Find(&payments).Error
	return payments, err
}

func (r *gormRepository) ListOverdueInstallmentPayments(now time.Time) ([]models.InstallmentPayment, error) {
	var payments []models.InstallmentPayment
	err := r.db.
		Joins("JOIN installments ON installments.id = installment_payments.installment_id").
		Where("installment_payments.paid = ? AND installment_payments.due_at < ?", false, now).
		Where("installments.status = ? AND installments.deleted_at IS NULL", models.INSTALLMENT_STATUS_ACTIVE).
		Find(&payments).Error
	return payments, err
}

func (r *gormRepository) GetInstallment(id uint) (*models.Installment, error) {
	var inst models.Installment
	if err := r.db.First(&inst, id).Error; err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *gormRepository) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GetNotificationSetting(userID uint) (*models.NotificationSetting, error) {
	return models.GetOrCreateNotificationSetting(r.db, userID)
}

func (r *gormRepository) CreateNotificationIfNotExists(n *models.Notification) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedup_key"}},
		DoNothing: true,
	}).Create(n)
	if tx.Error != nil {
		return false, tx.Error
	}
	if tx.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

func (r *gormRepository) UpdateNotificationDelivery(id uint, status string, deliveryErr string) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"delivery_status": status, "delivery_error": deliveryErr}).Error
}

func (r *gormRepository) GetNotification(id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *gormRepository) MarkNotificationRead(id uint, readAt time.Time) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", readAt).Error
}

func (r *gormRepository) MarkAllNotificationsRead(userID uint, readAt time.Time) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", readAt).Error
}

func (r *gormRepository) ListNotifications(userID uint, offset, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *gormRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}
