package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
	"github.com/MartinKaiser/FinCal/internal/pkg/recurrence"
)

// syncHorizonDays is how far ahead SyncPaymentEventsForUser materializes
// payment rows.
const syncHorizonDays = 90

const (
	colorSubscriptionDue = "#f59e0b"
	colorInstallmentDue  = "#8b5cf6"
)

// Service projects subscriptions and installments onto the calendar and
// manages user-created events.
type Service struct {
	repo Repository
}

// NewService creates a calendar service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a calendar service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// Overview returns the merged calendar view for one user and range:
// stored events plus synthesized due events from subscriptions and
// installments, ordered by start ascending. Synthesized entries are not
// persisted; occurrences already materialized by a sync are not
// synthesized a second time.
func (s *Service) Overview(userID uint, from, to time.Time) ([]models.CalendarEvent, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: end before start")
	}

	events, err := s.repo.ListEventsInRange(userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	materialized := map[string]bool{}
	for _, e := range events {
		if e.IsSynced() && e.OccurrenceDate != nil {
			materialized[occurrenceKey(e.SourceKind, e.SourceID, *e.OccurrenceDate)] = true
		}
	}

	synthesized, err := s.synthesize(userID, from, to, materialized)
	if err != nil {
		return nil, err
	}
	events = append(events, synthesized...)

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartAt.Before(events[j].StartAt)
	})
	return events, nil
}

func (s *Service) synthesize(userID uint, from, to time.Time, materialized map[string]bool) ([]models.CalendarEvent, error) {
	var out []models.CalendarEvent

	subs, err := s.repo.ListActiveSubscriptions(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	for _, sub := range subs {
		for _, due := range subscriptionOccurrences(&sub, from, to) {
			if materialized[occurrenceKey(models.TX_SOURCE_SUBSCRIPTION, sub.ID, due)] {
				continue
			}
			out = append(out, subscriptionEvent(&sub, due))
		}
	}

	payments, err := s.repo.ListUnpaidInstallmentPayments(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list installment payments: %w", err)
	}
	for _, payment := range payments {
		if payment.DueAt.Before(from) || payment.DueAt.After(to) {
			continue
		}
		if materialized[occurrenceKey(models.TX_SOURCE_INSTALLMENT, payment.InstallmentID, payment.DueAt)] {
			continue
		}
		inst, err := s.repo.GetInstallment(payment.InstallmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load installment %d: %w", payment.InstallmentID, err)
		}
		out = append(out, installmentEvent(inst, &payment))
	}

	return out, nil
}

// SyncPaymentEventsForUser materializes upcoming payment due dates as
// real calendar rows. This is the only path that writes subscription_due
// and installment_due events; it upserts per entity and due date and
// clears rows whose occurrence disappeared.
func (s *Service) SyncPaymentEventsForUser(userID uint) error {
	now := time.Now().In(recurrence.Reference)
	horizon := now.AddDate(0, 0, syncHorizonDays)

	var keep []string

	subs, err := s.repo.ListActiveSubscriptions(userID)
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}
	for _, sub := range subs {
		for _, due := range subscriptionOccurrences(&sub, now, horizon) {
			event := subscriptionEvent(&sub, due)
			if err := s.repo.UpsertPaymentEvent(&event); err != nil {
				return fmt.Errorf("failed to upsert subscription event: %w", err)
			}
			keep = append(keep, occurrenceKey(models.TX_SOURCE_SUBSCRIPTION, sub.ID, due))
		}
	}

	payments, err := s.repo.ListUnpaidInstallmentPayments(userID)
	if err != nil {
		return fmt.Errorf("failed to list installment payments: %w", err)
	}
	for _, payment := range payments {
		if payment.DueAt.Before(now) || payment.DueAt.After(horizon) {
			continue
		}
		inst, err := s.repo.GetInstallment(payment.InstallmentID)
		if err != nil {
			return fmt.Errorf("failed to load installment %d: %w", payment.InstallmentID, err)
		}
		event := installmentEvent(inst, &payment)
		if err := s.repo.UpsertPaymentEvent(&event); err != nil {
			return fmt.Errorf("failed to upsert installment event: %w", err)
		}
		keep = append(keep, occurrenceKey(models.TX_SOURCE_INSTALLMENT, inst.ID, payment.DueAt))
	}

	if err := s.repo.DeleteStalePaymentEvents(userID, keep); err != nil {
		return fmt.Errorf("failed to delete stale payment events: %w", err)
	}
	return nil
}

// CreateEvent stores a user-created event. The payment_due kinds are
// reserved for the sync.
func (s *Service) CreateEvent(event *models.CalendarEvent) error {
	switch event.Type {
	case models.EventTypeCustom, models.EventTypeReminder, "":
		if event.Type == "" {
			event.Type = models.EventTypeCustom
		}
	default:
		return fmt.Errorf("event type %q is reserved for payment sync", event.Type)
	}
	return s.repo.CreateEvent(event)
}

// GetEvent loads one event with ownership enforcement.
func (s *Service) GetEvent(id, userID uint) (*models.CalendarEvent, error) {
	event, err := s.repo.GetEvent(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if event.UserID != userID {
		return nil, ErrNotFound
	}
	return event, nil
}

// DeleteEvent removes a user-created event with ownership enforcement.
func (s *Service) DeleteEvent(id, userID uint) error {
	if _, err := s.GetEvent(id, userID); err != nil {
		return err
	}
	return s.repo.DeleteEvent(id)
}

// subscriptionOccurrences expands a subscription's due dates inside
// [from, to], starting at its next due date.
func subscriptionOccurrences(sub *models.Subscription, from, to time.Time) []time.Time {
	var out []time.Time
	due := sub.NextDueAt
	for !due.After(to) {
		if !due.Before(from) {
			out = append(out, due)
		}
		next := recurrence.NextDueDateAnchored(sub.Cycle, due, sub.AnchorDay)
		if !next.After(due) {
			break
		}
		due = next
	}
	return out
}

func occurrenceKey(kind string, id uint, due time.Time) string {
	return fmt.Sprintf("%s:%d:%s", kind, id, due.In(recurrence.Reference).Format("2006-01-02"))
}

func subscriptionEvent(sub *models.Subscription, due time.Time) models.CalendarEvent {
	occ := due
	return models.CalendarEvent{
		UserID:         sub.UserID,
		Title:          fmt.Sprintf("%s (%s)", sub.Name, sub.Amount.StringFixed(2)),
		StartAt:        due,
		EndAt:          due,
		Type:           models.EventTypeSubscriptionDue,
		Color:          colorSubscriptionDue,
		SourceKind:     models.TX_SOURCE_SUBSCRIPTION,
		SourceID:       sub.ID,
		OccurrenceDate: &occ,
	}
}

func installmentEvent(inst *models.Installment, payment *models.InstallmentPayment) models.CalendarEvent {
	occ := payment.DueAt
	return models.CalendarEvent{
		UserID:         inst.UserID,
		Title:          fmt.Sprintf("%s %d/%d (%s)", inst.Name, payment.Sequence, inst.PaymentCount, payment.Amount.StringFixed(2)),
		StartAt:        payment.DueAt,
		EndAt:          payment.DueAt,
		Type:           models.EventTypeInstallmentDue,
		Color:          colorInstallmentDue,
		SourceKind:     models.TX_SOURCE_INSTALLMENT,
		SourceID:       inst.ID,
		OccurrenceDate: &occ,
	}
}
