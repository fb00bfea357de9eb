package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
	"github.com/MartinKaiser/FinCal/internal/pkg/recurrence"
)

// catchUpLimit bounds how many missed occurrences a single run books for
// one subscription. A subscription paused for years must not spin the
// processor; anything beyond the limit is picked up by the next run.
const catchUpLimit = 120

// ItemFailure records one isolated per-item processing error.
type ItemFailure struct {
	Kind string `json:"kind"` // subscription | installment
	ID   uint   `json:"id"`
	Err  string `json:"error"`
}

// RunReport summarizes one scheduled processing run for operator
// visibility. Failures are collected, never silently dropped.
type RunReport struct {
	RunID                  string        `json:"run_id"`
	StartedAt              time.Time     `json:"started_at"`
	FinishedAt             time.Time     `json:"finished_at"`
	SubscriptionsProcessed int           `json:"subscriptions_processed"`
	InstallmentsProcessed  int           `json:"installments_processed"`
	TransactionsCreated    int           `json:"transactions_created"`
	Failures               []ItemFailure `json:"failures"`
}

// Service advances due subscriptions and installments. Invoked once per
// day by the scheduler; safe to re-run because every booking is keyed on
// (source, source id, occurrence date).
type Service struct {
	repo Repository
}

// NewService creates a finance service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a finance service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// ProcessScheduled runs one batch over everything due at now. A failure
// on one item is recorded in the report and does not abort the rest.
func (s *Service) ProcessScheduled(ctx context.Context, now time.Time) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	if err := s.processSubscriptions(ctx, now, report); err != nil {
		return report, err
	}
	if err := s.processInstallments(ctx, now, report); err != nil {
		return report, err
	}

	report.FinishedAt = time.Now()
	log.Infof("[Finance] run %s: %d subscriptions, %d installment payments, %d transactions, %d failures",
		report.RunID, report.SubscriptionsProcessed, report.InstallmentsProcessed, report.TransactionsCreated, len(report.Failures))
	return report, nil
}

func (s *Service) processSubscriptions(ctx context.Context, now time.Time, report *RunReport) error {
	subs, err := s.repo.ListDueSubscriptions(now)
	if err != nil {
		return fmt.Errorf("failed to list due subscriptions: %w", err)
	}

	for i := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		sub := &subs[i]
		if !sub.IsProcessable() {
			continue
		}
		if err := s.advanceSubscription(sub, now, report); err != nil {
			log.Errorf("[Finance] subscription %d: %v", sub.ID, err)
			report.Failures = append(report.Failures, ItemFailure{Kind: "subscription", ID: sub.ID, Err: err.Error()})
			continue
		}
		report.SubscriptionsProcessed++
	}
	return nil
}

// advanceSubscription books one transaction per missed occurrence and
// moves the due date forward. Re-running with an already-advanced due
// date is a no-op; a booking that exists from an interrupted run is not
// created twice.
func (s *Service) advanceSubscription(sub *models.Subscription, now time.Time, report *RunReport) error {
	advanced := false
	for n := 0; recurrence.DueOn(sub.NextDueAt, now) && n < catchUpLimit; n++ {
		occurrence := sub.NextDueAt

		exists, err := s.repo.TransactionExists(models.TX_SOURCE_SUBSCRIPTION, sub.ID, occurrence)
		if err != nil {
			return fmt.Errorf("failed to check existing booking: %w", err)
		}
		if !exists {
			if err := s.bookOccurrence(sub.UserID, sub.WalletID, sub.CategoryID, sub.Amount,
				models.TX_SOURCE_SUBSCRIPTION, sub.ID, occurrence, sub.Name); err != nil {
				return err
			}
			report.TransactionsCreated++
		}

		sub.NextDueAt = recurrence.NextDueDateAnchored(sub.Cycle, occurrence, sub.AnchorDay)
		advanced = true
	}

	if !advanced {
		return nil
	}
	if err := s.repo.SaveSubscription(sub); err != nil {
		return fmt.Errorf("failed to persist advanced due date: %w", err)
	}
	return nil
}

func (s *Service) processInstallments(ctx context.Context, now time.Time, report *RunReport) error {
	payments, err := s.repo.ListDueInstallmentPayments(now)
	if err != nil {
		return fmt.Errorf("failed to list due installment payments: %w", err)
	}

	for i := range payments {
		if err := ctx.Err(); err != nil {
			return err
		}
		payment := &payments[i]
		if err := s.settleInstallmentPayment(payment, now, report); err != nil {
			log.Errorf("[Finance] installment payment %d: %v", payment.ID, err)
			report.Failures = append(report.Failures, ItemFailure{Kind: "installment", ID: payment.InstallmentID, Err: err.Error()})
			continue
		}
		report.InstallmentsProcessed++
	}
	return nil
}

func (s *Service) settleInstallmentPayment(payment *models.InstallmentPayment, now time.Time, report *RunReport) error {
	if payment.Paid {
		return nil
	}

	inst, err := s.repo.GetInstallment(payment.InstallmentID)
	if err != nil {
		return fmt.Errorf("failed to load installment: %w", err)
	}
	if !inst.IsProcessable() {
		return nil
	}

	exists, err := s.repo.TransactionExists(models.TX_SOURCE_INSTALLMENT, inst.ID, payment.DueAt)
	if err != nil {
		return fmt.Errorf("failed to check existing booking: %w", err)
	}
	if !exists {
		description := fmt.Sprintf("%s (%d/%d)", inst.Name, payment.Sequence, inst.PaymentCount)
		if err := s.bookOccurrence(inst.UserID, inst.WalletID, inst.CategoryID, payment.Amount,
			models.TX_SOURCE_INSTALLMENT, inst.ID, payment.DueAt, description); err != nil {
			return err
		}
		report.TransactionsCreated++
	}

	paidAt := now
	payment.Paid = true
	payment.PaidAt = &paidAt
	if err := s.repo.SaveInstallmentPayment(payment); err != nil {
		return fmt.Errorf("failed to mark payment paid: %w", err)
	}

	inst.RemainingCount--
	if inst.RemainingCount <= 0 {
		inst.RemainingCount = 0
		inst.Status = models.INSTALLMENT_STATUS_COMPLETE
	}
	if err := s.repo.SaveInstallment(inst); err != nil {
		return fmt.Errorf("failed to persist installment: %w", err)
	}
	return nil
}

// bookOccurrence creates the transaction and debits the wallet. A wallet
// with insufficient balance still gets debited into the negative; the
// transaction carries a note so the shortfall is visible.
func (s *Service) bookOccurrence(userID, walletID uint, categoryID *uint, amount decimal.Decimal,
	source string, sourceID uint, occurrence time.Time, description string) error {

	wallet, err := s.repo.GetWallet(walletID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("wallet %d not found", walletID)
		}
		return fmt.Errorf("failed to load wallet: %w", err)
	}

	note := ""
	if wallet.Balance.LessThan(amount) {
		note = "insufficient_funds"
	}

	occ := occurrence
	tx := &models.Transaction{
		UserID:         userID,
		WalletID:       walletID,
		CategoryID:     categoryID,
		Type:           models.TX_TYPE_EXPENSE,
		Amount:         amount,
		Description:    description,
		Note:           note,
		BookedAt:       time.Now(),
		Source:         source,
		SourceID:       sourceID,
		OccurrenceDate: &occ,
	}
	if err := s.repo.CreateTransaction(tx); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	wallet.Debit(amount)
	if err := s.repo.SaveWallet(wallet); err != nil {
		return fmt.Errorf("failed to persist wallet balance: %w", err)
	}
	return nil
}
