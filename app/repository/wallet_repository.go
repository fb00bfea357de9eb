package repository

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
)

// walletRepository implements the WalletRepository interface
type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository instance
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

// Create creates a new wallet in the database
func (r *walletRepository) Create(wallet *models.Wallet) error {
	return r.db.Create(wallet).Error
}

// GetByID retrieves a wallet by its ID
func (r *walletRepository) GetByID(id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.First(&wallet, id).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetByUserID retrieves all wallets of a user
func (r *walletRepository) GetByUserID(userID uint) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&wallets).Error
	return wallets, err
}

// Update updates an existing wallet in the database
func (r *walletRepository) Update(wallet *models.Wallet) error {
	return r.db.Save(wallet).Error
}

// Delete soft deletes a wallet by its ID
func (r *walletRepository) Delete(id uint) error {
	return r.db.Delete(&models.Wallet{}, id).Error
}

// TotalBalance sums the balances of all wallets of a user
func (r *walletRepository) TotalBalance(userID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(balance), 0)").
		Row().Scan(&total)
	return total, err
}

// HasTransactions reports whether any transaction references the wallet.
// Wallets with booked transactions must not be deleted.
func (r *walletRepository) HasTransactions(walletID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).
		Where("wallet_id = ?", walletID).
		Count(&count).Error
	return count > 0, err
}
