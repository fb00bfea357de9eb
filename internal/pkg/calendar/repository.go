package calendar

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
)

// ErrNotFound is returned for unknown event ids and cross-user access.
var ErrNotFound = errors.New("calendar event not found")

// Repository provides DB operations used by the calendar service.
type Repository interface {
	ListEventsInRange(userID uint, from, to time.Time) ([]models.CalendarEvent, error)
	GetEvent(id uint) (*models.CalendarEvent, error)
	CreateEvent(event *models.CalendarEvent) error
	SaveEvent(event *models.CalendarEvent) error
	DeleteEvent(id uint) error
	UpsertPaymentEvent(event *models.CalendarEvent) error
	DeleteStalePaymentEvents(userID uint, keepKeys []string) error
	ListActiveSubscriptions(userID uint) ([]models.Subscription, error)
	ListUnpaidInstallmentPayments(userID uint) ([]models.InstallmentPayment, error)
	GetInstallment(id uint) (*models.Installment, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a calendar repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ListEventsInRange(userID uint, from, to time.Time) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	err := r.db.
		Where("user_id = ? AND start_at >= ? AND start_at <= ?", userID, from, to).
		Preload("Reminders").
		Order("start_at ASC").
		Find(&events).Error
	return events, err
}

func (r *gormRepository) GetEvent(id uint) (*models.CalendarEvent, error) {
	var event models.CalendarEvent
	if err := r.db.Preload("Reminders").First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *gormRepository) CreateEvent(event *models.CalendarEvent) error {
	return r.db.Create(event).Error
}

func (r *gormRepository) SaveEvent(event *models.CalendarEvent) error {
	return r.db.Save(event).Error
}

func (r *gormRepository) DeleteEvent(id uint) error {
	return r.db.Delete(&models.CalendarEvent{}, id).Error
}

// UpsertPaymentEvent writes one synthesized payment row, keyed on
// (user, source kind, source id, occurrence date). Never duplicates.
func (r *gormRepository) UpsertPaymentEvent(event *models.CalendarEvent) error {
	var existing models.CalendarEvent
	err := r.db.
		Where("user_id = ? AND source_kind = ? AND source_id = ? AND occurrence_date = ?",
			event.UserID, event.SourceKind, event.SourceID, event.OccurrenceDate).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.Create(event).Error
		}
		return err
	}

	existing.Title = event.Title
	existing.StartAt = event.StartAt
	existing.EndAt = event.EndAt
	existing.Type = event.Type
	existing.Color = event.Color
	existing.Metadata = event.Metadata
	*event = existing
	return r.db.Save(&existing).Error
}

// DeleteStalePaymentEvents removes synced rows whose occurrence no longer
// exists (subscription advanced, payment settled or plan deleted).
func (r *gormRepository) DeleteStalePaymentEvents(userID uint, keepKeys []string) error {
	query := r.db.
		Where("user_id = ? AND source_kind <> ''", userID)
	if len(keepKeys) > 0 {
		query = query.Where("CONCAT(source_kind, ':', source_id, ':', DATE(occurrence_date)) NOT IN ?", keepKeys)
	}
	return query.Delete(&models.CalendarEvent{}).Error
}

func (r *gormRepository) ListActiveSubscriptions(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.
		Where("user_id = ? AND status = ?", userID, models.SUB_STATUS_ACTIVE).
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) ListUnpaidInstallmentPayments(userID uint) ([]models.InstallmentPayment, error) {
	var payments []models.InstallmentPayment
	err := r.db.
		Joins("JOIN installments ON installments.id = installment_payments.installment_id").
		Where("installments.user_id = ? AND installments.status = ? AND installments.deleted_at IS NULL", userID, models.INSTALLMENT_STATUS_ACTIVE).
		Where("installment_payments.paid = ?", false).
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
