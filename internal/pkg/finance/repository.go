package finance

import (
	"time"

	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
)

// Repository provides DB operations used by the finance service.
type Repository interface {
	ListDueSubscriptions(now time.Time) ([]models.Subscription, error)
	SaveSubscription(sub *models.Subscription) error
	ListDueInstallmentPayments(now time.Time) ([]models.InstallmentPayment, error)
	GetInstallment(id uint) (*models.Installment, error)
	SaveInstallment(inst *models.Installment) error
	SaveInstallmentPayment(payment *models.InstallmentPayment) error
	GetWallet(id uint) (*models.Wallet, error)
	SaveWallet(wallet *models.Wallet) error
	CreateTransaction(tx *models.Transaction) error
	TransactionExists(source string, sourceID uint, occurrence time.Time) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a finance repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ListDueSubscriptions(now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.
		Where("status = ? AND next_due_at <= ?", models.SUB_STATUS_ACTIVE, now).
		Order("next_due_at ASC").
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) ListDueInstallmentPayments(now time.Time) ([]models.InstallmentPayment, error) {
	var payments []models.InstallmentPayment
	err := r.db.
		Joins("JOIN installments ON installments.id = installment_payments.installment_id").
		Where("installment_payments.paid = ? AND installment_payments.due_at <= ?", false, now).
		Where("installments.status = ? AND installments.deleted_at IS NULL", models.INSTALLMENT_STATUS_ACTIVE).
		Order("installment_payments.due_at ASC").
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

func (r *gormRepository) SaveInstallment(inst *models.Installment) error {
	return r.db.Save(inst).Error
}

func (r *gormRepository) SaveInstallmentPayment(payment *models.InstallmentPayment) error {
	return r.db.Save(payment).Error
}

func (r *gormRepository) GetWallet(id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.First(&wallet, id).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *gormRepository) SaveWallet(wallet *models.Wallet) error {
	return r.db.Save(wallet).Error
}

func (r *gormRepository) CreateTransaction(tx *models.Transaction) error {
	return r.db.Create(tx).Error
}

func (r *gormRepository) TransactionExists(source string, sourceID uint, occurrence time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).
		Where("source = ? AND source_id = ? AND occurrence_date = ?", source, sourceID, occurrence).
		Count(&count).Error
	return count > 0, err
}
