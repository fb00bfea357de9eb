package repository

import (
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
)

// installmentRepository implements the InstallmentRepository interface
type installmentRepository struct {
	db *gorm.DB
}

// NewInstallmentRepository creates a new installment repository instance
func NewInstallmentRepository(db *gorm.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

// Create creates a new installment including its payment schedule
func (r *installmentRepository) Create(inst *models.Installment) error {
	return r.db.Create(inst).Error
}

// GetByID retrieves an installment with its payment schedule
func (r *installmentRepository) GetByID(id uint) (*models.Installment, error) {
	var inst models.Installment
	err := r.db.Preload("Payments", func(db *gorm.DB) *gorm.DB {
		return db.Order("installment_payments.sequence ASC")
	}).First(&inst, id).Error
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// GetByUserID retrieves all installments of a user with their schedules
func (r *installmentRepository) GetByUserID(userID uint) ([]models.Installment, error) {
	var insts []models.Installment
	err := r.db.Preload("Payments", func(db *gorm.DB) *gorm.DB {
		return db.Order("installment_payments.sequence ASC")
	}).Where("user_id = ?", userID).Order("created_at DESC").Find(&insts).Error
	return insts, err
}

// Update updates an existing installment in the database
func (r *installmentRepository) Update(inst *models.Installment) error {
	return r.db.Save(inst).Error
}

// Delete soft deletes an installment by its ID
func (r *installmentRepository) Delete(id uint) error {
	return r.db.Delete(&models.Installment{}, id).Error
}
