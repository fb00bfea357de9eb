package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	Update(user *models.User) error
	Delete(id uint) error
}

// WalletRepository defines the interface for wallet-related database operations
type WalletRepository interface {
	Create(wallet *models.Wallet) error
	GetByID(id uint) (*models.Wallet, error)
	GetByUserID(userID uint) ([]models.Wallet, error)
	Update(wallet *models.Wallet) error
	Delete(id uint) error
	TotalBalance(userID uint) (decimal.Decimal, error)
	HasTransactions(walletID uint) (bool, error)
}

// CategoryRepository defines the interface for category-related database operations
type CategoryRepository interface {
	Create(category *models.Category) error
	GetByID(id uint) (*models.Category, error)
	GetByUserID(userID uint) ([]models.Category, error)
	Update(category *models.Category) error
	Delete(id uint) error
}

// TransactionRepository defines the interface for transaction-related database operations
type TransactionRepository interface {
	Create(tx *models.Transaction) error
	GetByID(id uint) (*models.Transaction, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Transaction, error)
	GetByWalletID(walletID uint, offset, limit int) ([]models.Transaction, error)
	GetByDateRange(userID uint, from, to time.Time) ([]models.Transaction, error)
	CountByUserID(userID uint) (int64, error)
	SumByType(userID uint, txType string, from, to time.Time) (decimal.Decimal, error)
	Delete(id uint) error
}

// SubscriptionRepository defines the interface for subscription-related database operations
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByID(id uint) (*models.Subscription, error)
	GetByUserID(userID uint) ([]models.Subscription, error)
	Update(sub *models.Subscription) error
	Delete(id uint) error
}

// InstallmentRepository defines the interface for installment-related database operations
type InstallmentRepository interface {
	Create(inst *models.Installment) error
	GetByID(id uint) (*models.Installment, error)
	GetByUserID(userID uint) ([]models.Installment, error)
	Update(inst *models.Installment) error
	Delete(id uint) error
}

// SettingsRepository defines the interface for user settings and notification preferences
type SettingsRepository interface {
	GetOrCreateUserSettings(userID uint) (*models.UserSettings, error)
	SaveUserSettings(settings *models.UserSettings) error
	GetOrCreateNotificationSetting(userID uint) (*models.NotificationSetting, error)
	SaveNotificationSetting(setting *models.NotificationSetting) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Wallet       WalletRepository
	Category     CategoryRepository
	Transaction  TransactionRepository
	Subscription SubscriptionRepository
	Installment  InstallmentRepository
	Settings     SettingsRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Wallet:       NewWalletRepository(db),
		Category:     NewCategoryRepository(db),
		Transaction:  NewTransactionRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Installment:  NewInstallmentRepository(db),
		Settings:     NewSettingsRepository(db),
	}
}
