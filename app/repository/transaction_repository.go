package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
)

// transactionRepository implements the TransactionRepository interface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository instance
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Create creates a new transaction in the database
func (r *transactionRepository) Create(tx *models.Transaction) error {
	return r.db.Create(tx).Error
}

// GetByID retrieves a transaction by its ID
func (r *transactionRepository) GetByID(id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.First(&tx, id).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetByUserID retrieves a paginated list of a user's transactions,
// newest booking first
func (r *transactionRepository) GetByUserID(userID uint, offset, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("user_id = ?", userID).
		Order("booked_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&txs).Error
	return txs, err
}

// GetByWalletID retrieves a paginated list of a wallet's transactions
func (r *transactionRepository) GetByWalletID(walletID uint, offset, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("wallet_id = ?", walletID).
		Order("booked_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&txs).Error
	return txs, err
}

// GetByDateRange retrieves all transactions of a user booked inside [from, to]
func (r *transactionRepository) GetByDateRange(userID uint, from, to time.Time) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("user_id = ? AND booked_at >= ? AND booked_at <= ?", userID, from, to).
		Order("booked_at ASC").
		Find(&txs).Error
	return txs, err
}

// CountByUserID returns the total number of transactions of a user
func (r *transactionRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// SumByType sums transaction amounts of one type inside a date range
func (r *transactionRepository) SumByType(userID uint, txType string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND booked_at >= ? AND booked_at <= ?", userID, txType, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}

// Delete soft deletes a transaction by its ID
func (r *transactionRepository) Delete(id uint) error {
	return r.db.Delete(&models.Transaction{}, id).Error
}
