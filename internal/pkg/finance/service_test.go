package finance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
)

// fakeRepository is an in-memory Repository for service tests.
type fakeRepository struct {
	subscriptions map[uint]*models.Subscription
	installments  map[uint]*models.Installment
	payments      map[uint]*models.InstallmentPayment
	wallets       map[uint]*models.Wallet
	transactions  []models.Transaction

	failWalletIDs map[uint]bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		subscriptions: map[uint]*models.Subscription{},
		installments:  map[uint]*models.Installment{},
		payments:      map[uint]*models.InstallmentPayment{},
		wallets:       map[uint]*models.Wallet{},
		failWalletIDs: map[uint]bool{},
	}
}

func (f *fakeRepository) ListDueSubscriptions(now time.Time) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range f.subscriptions {
		if s.Status == models.SUB_STATUS_ACTIVE && !s.NextDueAt.After(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeRepository) SaveSubscription(sub *models.Subscription) error {
	cp := *sub
	f.subscriptions[sub.ID] = &cp
	return nil
}

func (f *fakeRepository) ListDueInstallmentPayments(now time.Time) ([]models.InstallmentPayment, error) {
	var out []models.InstallmentPayment
	for _, p := range f.payments {
		inst := f.installments[p.InstallmentID]
		if inst == nil || inst.Status != models.INSTALLMENT_STATUS_ACTIVE {
			continue
		}
		if !p.Paid && !p.DueAt.After(now) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepository) GetInstallment(id uint) (*models.Installment, error) {
	if inst, ok := f.installments[id]; ok {
		cp := *inst
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) SaveInstallment(inst *models.Installment) error {
	cp := *inst
	f.installments[inst.ID] = &cp
	return nil
}

func (f *fakeRepository) SaveInstallmentPayment(payment *models.InstallmentPayment) error {
	cp := *payment
	f.payments[payment.ID] = &cp
	return nil
}

func (f *fakeRepository) GetWallet(id uint) (*models.Wallet, error) {
	if f.failWalletIDs[id] {
		return nil, fmt.Errorf("wallet store unavailable")
	}
	if w, ok := f.wallets[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) SaveWallet(wallet *models.Wallet) error {
	cp := *wallet
	f.wallets[wallet.ID] = &cp
	return nil
}

func (f *fakeRepository) CreateTransaction(tx *models.Transaction) error {
	f.transactions = append(f.transactions, *tx)
	return nil
}

func (f *fakeRepository) TransactionExists(source string, sourceID uint, occurrence time.Time) (bool, error) {
	for _, tx := range f.transactions {
		if tx.Source == source && tx.SourceID == sourceID && tx.OccurrenceDate != nil && tx.OccurrenceDate.Equal(occurrence) {
			return true, nil
		}
	}
	return false, nil
}

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProcessScheduledAdvancesSubscriptionAndBooksTransaction(t *testing.T) {
	repo := newFakeRepository()
	repo.wallets[1] = &models.Wallet{ID: 1, UserID: 7, Balance: decimal.NewFromInt(500)}
	repo.subscriptions[10] = &models.Subscription{
		ID:        10,
		UserID:    7,
		WalletID:  1,
		Name:      "Streaming",
		Amount:    decimal.NewFromInt(100),
		Cycle:     models.CycleMonthly,
		NextDueAt: utcDate(2024, time.January, 1),
		Status:    models.SUB_STATUS_ACTIVE,
	}

	svc := NewService(repo)
	report, err := svc.ProcessScheduled(context.Background(), utcDate(2024, time.January, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, report.SubscriptionsProcessed)
	assert.Equal(t, 1, report.TransactionsCreated)
	assert.Empty(t, report.Failures)

	sub := repo.subscriptions[10]
	assert.Equal(t, utcDate(2024, time.February, 1), sub.NextDueAt)

	require.Len(t, repo.transactions, 1)
	tx := repo.transactions[0]
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, models.TX_SOURCE_SUBSCRIPTION, tx.Source)
	assert.Equal(t, uint(10), tx.SourceID)

	assert.True(t, repo.wallets[1].Balance.Equal(decimal.NewFromInt(400)))
}

func TestProcessScheduledIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	repo.wallets[1] = &models.Wallet{ID: 1, UserID: 7, Balance: decimal.NewFromInt(500)}
	repo.subscriptions[10] = &models.Subscription{
		ID: 10, UserID: 7, WalletID: 1, Name: "Gym",
		Amount: decimal.NewFromInt(40), Cycle: models.CycleMonthly,
		NextDueAt: utcDate(2024, time.January, 1), Status: models.SUB_STATUS_ACTIVE,
	}

	svc := NewService(repo)
	now := utcDate(2024, time.January, 1)

	_, err := svc.ProcessScheduled(context.Background(), now)
	require.NoError(t, err)
	report, err := svc.ProcessScheduled(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 0, report.TransactionsCreated)
	assert.Len(t, repo.transactions, 1)
	assert.True(t, repo.wallets[1].Balance.Equal(decimal.NewFromInt(460)))
}

func TestProcessScheduledCatchesUpMissedOccurrences(t *testing.T) {
	repo := newFakeRepository()
	repo.wallets[1] = &models.Wallet{ID: 1, UserID: 7, Balance: decimal.NewFromInt(1000)}
	repo.subscriptions[10] = &models.Subscription{
		ID: 10, UserID: 7, WalletID: 1, Name: "Hosting",
		Amount: decimal.NewFromInt(10), Cycle: models.CycleMonthly,
		NextDueAt: utcDate(2024, time.January, 1), Status: models.SUB_STATUS_ACTIVE,
	}

	svc := NewService(repo)
	_, err := svc.ProcessScheduled(context.Background(), utcDate(2024, time.March, 15))
	require.NoError(t, err)

	// Jan 1, Feb 1 and Mar 1 are each booked exactly once.
	assert.Len(t, repo.transactions, 3)
	assert.Equal(t, utcDate(2024, time.April, 1), repo.subscriptions[10].NextDueAt)
}

func TestProcessScheduledSkipsPausedSubscriptions(t *testing.T) {
	repo := newFakeRepository()
	repo.wallets[1] = &models.Wallet{ID: 1, Balance: decimal.NewFromInt(100)}
	repo.subscriptions[10] = &models.Subscription{
		ID: 10, WalletID: 1, Amount: decimal.NewFromInt(10), Cycle: models.CycleMonthly,
		NextDueAt: utcDate(2024, time.January, 1), Status: models.SUB_STATUS_PAUSED,
	}

	svc := NewService(repo)
	report, err := svc.ProcessScheduled(context.Background(), utcDate(2024, time.February, 1))
	require.NoError(t, err)

	assert.Zero(t, report.SubscriptionsProcessed)
	assert.Empty(t, repo.transactions)
	assert.Equal(t, utcDate(2024, time.January, 1), repo.subscriptions[10].NextDueAt)
}

func TestProcessScheduledIsolatesPerItemFailures(t *testing.T) {
	repo := newFakeRepository()
	repo.wallets[1] = &models.Wallet{ID: 1, Balance: decimal.NewFromInt(100)}
	repo.failWalletIDs[2] = true

	repo.subscriptions[10] = &models.Subscription{
		ID: 10, WalletID: 2, Name: "Broken", Amount: decimal.NewFromInt(10),
		Cycle: models.CycleMonthly, NextDueAt: utcDate(2024, time.January, 1), Status: models.SUB_STATUS_ACTIVE,
	}
	repo.subscriptions[11] = &models.Subscription{
		ID: 11, WalletID: 1, Name: "Healthy", Amount: decimal.NewFromInt(20),
		Cycle: models.CycleMonthly, NextDueAt: utcDate(2024, time.January, 1), Status: models.SUB_STATUS_ACTIVE,
	}

	svc := NewService(repo)
	report, err := svc.ProcessScheduled(context.Background(), utcDate(2024, time.January, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, report.SubscriptionsProcessed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "subscription", report.Failures[0].Kind)
	assert.Equal(t, uint(10), report.Failures[0].ID)

	// The healthy subscription still advanced.
	assert.Equal(t, utcDate(2024, time.February, 1), repo.subscriptions[11].NextDueAt)
	assert.Equal(t, utcDate(2024, time.January, 1), repo.subscriptions[10].NextDueAt)
}

func TestProcessScheduledBooksDespiteInsufficientBalance(t *testing.T) {
	repo := newFakeRepository()
	repo.wallets[1] = &models.Wallet{ID: 1, Balance: decimal.NewFromInt(5)}
	repo.subscriptions[10] = &models.Subscription{
		ID: 10, WalletID: 1, Name: "Rent", Amount: decimal.NewFromInt(900),
		Cycle: models.CycleMonthly, NextDueAt: utcDate(2024, time.January, 1), Status: models.SUB_STATUS_ACTIVE,
	}

	svc := NewService(repo)
	_, err := svc.ProcessScheduled(context.Background(), utcDate(2024, time.January, 1))
	require.NoError(t, err)

	require.Len(t, repo.transactions, 1)
	assert.Equal(t, "insufficient_funds", repo.transactions[0].Note)
	assert.True(t, repo.wallets[1].Balance.Equal(decimal.NewFromInt(-895)))
}

func newInstallmentFixture(repo *fakeRepository) {
	repo.wallets[1] = &models.Wallet{ID: 1, UserID: 7, Balance: decimal.NewFromInt(900)}
	repo.installments[20] = &models.Installment{
		ID: 20, UserID: 7, WalletID: 1, Name: "Laptop",
		TotalAmount:    decimal.NewFromInt(300),
		PaymentAmount:  decimal.NewFromInt(100),
		PaymentCount:   3,
		RemainingCount: 3,
		Status:         models.INSTALLMENT_STATUS_ACTIVE,
	}
	for i := 0; i < 3; i++ {
		id := uint(30 + i)
		repo.payments[id] = &models.InstallmentPayment{
			ID: id, InstallmentID: 20, Sequence: i + 1,
			Amount: decimal.NewFromInt(100),
			DueAt:  utcDate(2024, time.Month(1+i), 15),
		}
	}
}

func TestProcessScheduledSettlesDueInstallmentPayment(t *testing.T) {
	repo := newFakeRepository()
	newInstallmentFixture(repo)

	svc := NewService(repo)
	report, err := svc.ProcessScheduled(context.Background(), utcDate(2024, time.January, 15))
	require.NoError(t, err)

	assert.Equal(t, 1, report.InstallmentsProcessed)
	assert.Equal(t, 2, repo.installments[20].RemainingCount)
	assert.Equal(t, models.INSTALLMENT_STATUS_ACTIVE, repo.installments[20].Status)
	assert.True(t, repo.payments[30].Paid)
	assert.NotNil(t, repo.payments[30].PaidAt)
	assert.False(t, repo.payments[31].Paid)
	require.Len(t, repo.transactions, 1)
	assert.Equal(t, models.TX_SOURCE_INSTALLMENT, repo.transactions[0].Source)
}

func TestProcessScheduledCompletesInstallmentAfterFinalPayment(t *testing.T) {
	repo := newFakeRepository()
	newInstallmentFixture(repo)

	svc := NewService(repo)
	_, err := svc.ProcessScheduled(context.Background(), utcDate(2024, time.March, 15))
	require.NoError(t, err)

	inst := repo.installments[20]
	assert.Equal(t, 0, inst.RemainingCount)
	assert.Equal(t, models.INSTALLMENT_STATUS_COMPLETE, inst.Status)
	assert.Len(t, repo.transactions, 3)
	assert.True(t, repo.wallets[1].Balance.Equal(decimal.NewFromInt(600)))
}

func TestProcessScheduledInstallmentIdempotent(t *testing.T) {
	repo := newFakeRepository()
	newInstallmentFixture(repo)

	svc := NewService(repo)
	now := utcDate(2024, time.January, 15)
	_, err := svc.ProcessScheduled(context.Background(), now)
	require.NoError(t, err)
	_, err = svc.ProcessScheduled(context.Background(), now)
	require.NoError(t, err)

	assert.Len(t, repo.transactions, 1)
	assert.Equal(t, 2, repo.installments[20].RemainingCount)
}
