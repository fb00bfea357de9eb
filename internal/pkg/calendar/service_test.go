package calendar

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
)

type fakeRepository struct {
	events       map[uint]*models.CalendarEvent
	nextID       uint
	subs         []models.Subscription
	installments map[uint]*models.Installment
	payments     []models.InstallmentPayment
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		events:       map[uint]*models.CalendarEvent{},
		installments: map[uint]*models.Installment{},
	}
}

func (f *fakeRepository) ListEventsInRange(userID uint, from, to time.Time) ([]models.CalendarEvent, error) {
	var out []models.CalendarEvent
	for _, e := range f.events {
		if e.UserID != userID || e.StartAt.Before(from) || e.StartAt.After(to) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (f *fakeRepository) GetEvent(id uint) (*models.CalendarEvent, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeRepository) CreateEvent(event *models.CalendarEvent) error {
	f.nextID++
	event.ID = f.nextID
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeRepository) SaveEvent(event *models.CalendarEvent) error {
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeRepository) DeleteEvent(id uint) error {
	delete(f.events, id)
	return nil
}

func (f *fakeRepository) UpsertPaymentEvent(event *models.CalendarEvent) error {
	for _, existing := range f.events {
		if existing.UserID == event.UserID &&
			existing.SourceKind == event.SourceKind &&
			existing.SourceID == event.SourceID &&
			existing.OccurrenceDate != nil && event.OccurrenceDate != nil &&
			existing.OccurrenceDate.Equal(*event.OccurrenceDate) {
			existing.Title = event.Title
			existing.StartAt = event.StartAt
			existing.EndAt = event.EndAt
			existing.Type = event.Type
			existing.Color = event.Color
			*event = *existing
			return nil
		}
	}
	return f.CreateEvent(event)
}

func (f *fakeRepository) DeleteStalePaymentEvents(userID uint, keepKeys []string) error {
	keep := map[string]bool{}
	for _, k := range keepKeys {
		keep[k] = true
	}
	for id, e := range f.events {
		if e.UserID != userID || !e.IsSynced() || e.OccurrenceDate == nil {
			continue
		}
		key := fmt.Sprintf("%s:%d:%s", e.SourceKind, e.SourceID, e.OccurrenceDate.Format("2006-01-02"))
		if !keep[key] {
			delete(f.events, id)
		}
	}
	return nil
}

func (f *fakeRepository) ListActiveSubscriptions(userID uint) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, sub := range f.subs {
		if sub.UserID == userID && sub.Status == models.SUB_STATUS_ACTIVE {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListUnpaidInstallmentPayments(userID uint) ([]models.InstallmentPayment, error) {
	var out []models.InstallmentPayment
	for _, p := range f.payments {
		inst, ok := f.installments[p.InstallmentID]
		if !ok || inst.UserID != userID || inst.Status != models.INSTALLMENT_STATUS_ACTIVE || p.Paid {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepository) GetInstallment(id uint) (*models.Installment, error) {
	inst, ok := f.installments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return inst, nil
}

func (f *fakeRepository) syncedEventCount() int {
	count := 0
	for _, e := range f.events {
		if e.IsSynced() {
			count++
		}
	}
	return count
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func activeSubscription(userID uint, name string, due time.Time, cycle models.BillingCycle) models.Subscription {
	return models.Subscription{
		ID:        uint(len(name)), // distinct per test fixture
		UserID:    userID,
		Name:      name,
		Amount:    decimal.NewFromFloat(9.99),
		Cycle:     cycle,
		NextDueAt: due,
		Status:    models.SUB_STATUS_ACTIVE,
	}
}

func TestOverviewMergesAndSortsAscending(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	require.NoError(t, repo.CreateEvent(&models.CalendarEvent{
		UserID:  1,
		Title:   "Dentist",
		StartAt: date(2024, time.March, 20),
		EndAt:   date(2024, time.March, 20),
		Type:    models.EventTypeCustom,
	}))
	sub := activeSubscription(1, "Netflix", date(2024, time.March, 5), models.CycleMonthly)
	repo.subs = append(repo.subs, sub)

	inst := &models.Installment{ID: 7, UserID: 1, Name: "Laptop", PaymentCount: 12, Status: models.INSTALLMENT_STATUS_ACTIVE}
	repo.installments[inst.ID] = inst
	repo.payments = append(repo.payments, models.InstallmentPayment{
		InstallmentID: inst.ID,
		Sequence:      3,
		Amount:        decimal.NewFromInt(50),
		DueAt:         date(2024, time.March, 12),
	})

	events, err := svc.Overview(1, date(2024, time.March, 1), date(2024, time.March, 31))
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, models.EventTypeSubscriptionDue, events[0].Type)
	assert.Equal(t, models.EventTypeInstallmentDue, events[1].Type)
	assert.Equal(t, "Dentist", events[2].Title)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].StartAt.Before(events[i-1].StartAt), "events must be sorted by start ascending")
	}
}

func TestOverviewDoesNotPersistSynthesizedEvents(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	repo.subs = append(repo.subs, activeSubscription(1, "Spotify", date(2024, time.June, 10), models.CycleMonthly))

	events, err := svc.Overview(1, date(2024, time.June, 1), date(2024, time.June, 30))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Zero(t, events[0].ID)
	assert.Empty(t, repo.events)
}

func TestOverviewSkipsAlreadySyncedOccurrences(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	sub := activeSubscription(1, "Gym", date(2024, time.May, 15), models.CycleMonthly)
	repo.subs = append(repo.subs, sub)

	occ := date(2024, time.May, 15)
	require.NoError(t, repo.CreateEvent(&models.CalendarEvent{
		UserID:         1,
		Title:          "Gym (9.99)",
		StartAt:        occ,
		EndAt:          occ,
		Type:           models.EventTypeSubscriptionDue,
		SourceKind:     models.TX_SOURCE_SUBSCRIPTION,
		SourceID:       sub.ID,
		OccurrenceDate: &occ,
	}))

	events, err := svc.Overview(1, date(2024, time.May, 1), date(2024, time.May, 31))
	require.NoError(t, err)
	// one stored synced row, no synthesized duplicate on top
	require.Len(t, events, 1)
	assert.NotZero(t, events[0].ID)
}

func TestOverviewExpandsMultipleOccurrencesInRange(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	repo.subs = append(repo.subs, activeSubscription(1, "Backup", date(2024, time.April, 1), models.CycleWeekly))

	events, err := svc.Overview(1, date(2024, time.April, 1), date(2024, time.April, 30))
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, date(2024, time.April, 1), events[0].StartAt)
	assert.Equal(t, date(2024, time.April, 29), events[4].StartAt)
}

func TestOverviewRejectsInvertedRange(t *testing.T) {
	svc := NewService(newFakeRepository())

	_, err := svc.Overview(1, date(2024, time.May, 10), date(2024, time.May, 1))
	assert.Error(t, err)
}

func TestOverviewScopedToUser(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	repo.subs = append(repo.subs, activeSubscription(2, "NotMine", date(2024, time.July, 3), models.CycleMonthly))
	require.NoError(t, repo.CreateEvent(&models.CalendarEvent{
		UserID:  2,
		Title:   "Other user's event",
		StartAt: date(2024, time.July, 4),
		EndAt:   date(2024, time.July, 4),
	}))

	events, err := svc.Overview(1, date(2024, time.July, 1), date(2024, time.July, 31))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSyncPaymentEventsIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	due := time.Now().UTC().AddDate(0, 0, 10).Truncate(24 * time.Hour)
	repo.subs = append(repo.subs, activeSubscription(1, "Cloud", due, models.CycleMonthly))

	inst := &models.Installment{ID: 4, UserID: 1, Name: "Phone", PaymentCount: 6, Status: models.INSTALLMENT_STATUS_ACTIVE}
	repo.installments[inst.ID] = inst
	repo.payments = append(repo.payments, models.InstallmentPayment{
		InstallmentID: inst.ID,
		Sequence:      2,
		Amount:        decimal.NewFromInt(80),
		DueAt:         time.Now().UTC().AddDate(0, 0, 20).Truncate(24 * time.Hour),
	})

	require.NoError(t, svc.SyncPaymentEventsForUser(1))
	first := repo.syncedEventCount()
	require.Greater(t, first, 0)

	require.NoError(t, svc.SyncPaymentEventsForUser(1))
	assert.Equal(t, first, repo.syncedEventCount(), "re-sync must not duplicate rows")
}

func TestSyncRemovesStaleRowsAndKeepsUserEvents(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	due := time.Now().UTC().AddDate(0, 0, 5).Truncate(24 * time.Hour)
	sub := activeSubscription(1, "Magazine", due, models.CycleMonthly)
	repo.subs = append(repo.subs, sub)

	require.NoError(t, repo.CreateEvent(&models.CalendarEvent{
		UserID:  1,
		Title:   "Birthday",
		StartAt: due,
		EndAt:   due,
		Type:    models.EventTypeCustom,
	}))

	require.NoError(t, svc.SyncPaymentEventsForUser(1))
	require.Greater(t, repo.syncedEventCount(), 0)

	// cancel the subscription; its materialized rows must disappear
	repo.subs[0].Status = models.SUB_STATUS_CANCELLED
	require.NoError(t, svc.SyncPaymentEventsForUser(1))
	assert.Zero(t, repo.syncedEventCount())

	events, err := repo.ListEventsInRange(1, due.AddDate(0, 0, -1), due.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Birthday", events[0].Title)
}

func TestCreateEventRejectsReservedTypes(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	err := svc.CreateEvent(&models.CalendarEvent{UserID: 1, Title: "x", Type: models.EventTypeSubscriptionDue})
	assert.Error(t, err)

	event := &models.CalendarEvent{UserID: 1, Title: "Plain", StartAt: date(2024, time.May, 1), EndAt: date(2024, time.May, 1)}
	require.NoError(t, svc.CreateEvent(event))
	assert.Equal(t, models.EventTypeCustom, event.Type)
}

func TestGetEventEnforcesOwnership(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	event := &models.CalendarEvent{UserID: 1, Title: "Mine", StartAt: date(2024, time.May, 2), EndAt: date(2024, time.May, 2)}
	require.NoError(t, repo.CreateEvent(event))

	_, err := svc.GetEvent(event.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.GetEvent(event.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)
}

func TestDeleteEventEnforcesOwnership(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	event := &models.CalendarEvent{UserID: 1, Title: "Temp", StartAt: date(2024, time.May, 3), EndAt: date(2024, time.May, 3)}
	require.NoError(t, repo.CreateEvent(event))

	assert.ErrorIs(t, svc.DeleteEvent(event.ID, 2), ErrNotFound)
	require.NoError(t, svc.DeleteEvent(event.ID, 1))
	_, err := repo.GetEvent(event.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
