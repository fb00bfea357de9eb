package notify

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

type fakeRepo struct {
	subscriptions []models.Subscription
	installments  map[uint]*models.Installment
	payments      []models.InstallmentPayment
	users         map[uint]*models.User
	settings      map[uint]*models.NotificationSetting

	notifications []*models.Notification
	nextID        uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		installments: map[uint]*models.Installment{},
		users:        map[uint]*models.User{},
		settings:     map[uint]*models.NotificationSetting{},
	}
}

func (f *fakeRepo) ListUpcomingSubscriptions(now time.Time, horizonDays int) ([]models.Subscription, error) {
	var out []models.Subscription
	horizon := now.AddDate(0, 0, horizonDays)
	for _, s := range f.subscriptions {
		if s.Status == models.SUB_STATUS_ACTIVE && !s.NextDueAt.Before(now) && !s.NextDueAt.After(horizon) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListOverdueSubscriptions(now time.Time) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range f.subscriptions {
		if s.Status == models.SUB_STATUS_ACTIVE && s.NextDueAt.Before(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListUpcomingInstallmentPayments(now time.Time, horizonDays int) ([]models.InstallmentPayment, error) {
	var out []models.InstallmentPayment
	horizon := now.AddDate(0, 0, horizonDays)
	for _, p := range f.payments {
		if !p.Paid && !p.DueAt.Before(now) && !p.DueAt.After(horizon) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListOverdueInstallmentPayments(now time.Time) ([]models.InstallmentPayment, error) {
	var out []models.InstallmentPayment
	for _, p := range f.payments {
		if !p.Paid && p.DueAt.Before(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetInstallment(id uint) (*models.Installment, error) {
	if inst, ok := f.installments[id]; ok {
		return inst, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetUser(id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetNotificationSetting(userID uint) (*models.NotificationSetting, error) {
	if s, ok := f.settings[userID]; ok {
		return s, nil
	}
	s := &models.NotificationSetting{UserID: userID, DueLeadDays: 3}
	f.settings[userID] = s
	return s, nil
}

func (f *fakeRepo) CreateNotificationIfNotExists(n *models.Notification) (bool, error) {
	for _, existing := range f.notifications {
		if existing.DedupKey == n.DedupKey {
			return false, nil
		}
	}
	f.nextID++
	n.ID = f.nextID
	f.notifications = append(f.notifications, n)
	return true, nil
}

func (f *fakeRepo) UpdateNotificationDelivery(id uint, status string, deliveryErr string) error {
	for _, n := range f.notifications {
		if n.ID == id {
			n.DeliveryStatus = status
			n.DeliveryError = deliveryErr
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetNotification(id uint) (*models.Notification, error) {
	for _, n := range f.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) MarkNotificationRead(id uint, readAt time.Time) error {
	for _, n := range f.notifications {
		if n.ID == id && n.ReadAt == nil {
			t := readAt
			n.ReadAt = &t
		}
	}
	return nil
}

func (f *fakeRepo) MarkAllNotificationsRead(userID uint, readAt time.Time) error {
	for _, n := range f.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			t := readAt
			n.ReadAt = &t
		}
	}
	return nil
}

func (f *fakeRepo) ListNotifications(userID uint, offset, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountUnread(userID uint) (int64, error) {
	var count int64
	for _, n := range f.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

// recordingChannel captures sends; optionally fails.
type recordingChannel struct {
	kind    ChannelKind
	enabled func(*models.NotificationSetting) bool
	fail    bool
	sent    []uint
}

func (c *recordingChannel) Kind() ChannelKind { return c.kind }

func (c *recordingChannel) Enabled(s *models.NotificationSetting) bool {
	if c.enabled == nil {
		return true
	}
	return c.enabled(s)
}

func (c *recordingChannel) Send(_ context.Context, _ *models.User, _ *models.NotificationSetting, n *models.Notification) error {
	if c.fail {
		return fmt.Errorf("provider unavailable")
	}
	c.sent = append(c.sent, n.ID)
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dueSubscription(id, userID uint, due time.Time) models.Subscription {
	return models.Subscription{
		ID: id, UserID: userID, WalletID: 1, Name: "Music",
		Amount: decimal.NewFromInt(10), Cycle: models.CycleMonthly,
		NextDueAt: due, Status: models.SUB_STATUS_ACTIVE,
	}
}

func TestSendNotificationsDueRespectsLeadWindow(t *testing.T) {
	repo := newFakeRepo()
	repo.users[7] = &models.User{ID: 7, Email: "u@example.com"}
	repo.settings[7] = &models.NotificationSetting{UserID: 7, DueLeadDays: 3}
	now := day(2024, time.May, 10)

	repo.subscriptions = []models.Subscription{
		dueSubscription(1, 7, day(2024, time.May, 12)), // inside window
		dueSubscription(2, 7, day(2024, time.May, 20)), // outside window
	}

	db := &recordingChannel{kind: ChannelDatabase}
	svc := NewService(repo, db)

	report, err := svc.SendNotificationsDue(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	require.Len(t, repo.notifications, 1)
	assert.Equal(t, models.NOTIF_TYPE_DUE_SOON, repo.notifications[0].Type)
	assert.Equal(t, models.DELIVERY_SENT, repo.notifications[0].DeliveryStatus)
}

func TestSendNotificationsDueDeduplicatesPerOccurrence(t *testing.T) {
	repo := newFakeRepo()
	repo.users[7] = &models.User{ID: 7}
	now := day(2024, time.May, 10)
	repo.subscriptions = []models.Subscription{dueSubscription(1, 7, day(2024, time.May, 11))}

	svc := NewService(repo, &recordingChannel{kind: ChannelDatabase})

	_, err := svc.SendNotificationsDue(context.Background(), now)
	require.NoError(t, err)
	report, err := svc.SendNotificationsDue(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Deduplicated)
	assert.Len(t, repo.notifications, 1)
}

func TestSendNotificationsDueChannelFailureDoesNotBlockOthers(t *testing.T) {
	repo := newFakeRepo()
	repo.users[7] = &models.User{ID: 7}
	repo.users[8] = &models.User{ID: 8}
	now := day(2024, time.May, 10)
	repo.subscriptions = []models.Subscription{
		dueSubscription(1, 7, day(2024, time.May, 11)),
		dueSubscription(2, 8, day(2024, time.May, 11)),
	}

	failing := &recordingChannel{kind: ChannelEmail, fail: true}
	working := &recordingChannel{kind: ChannelDatabase}
	svc := NewService(repo, working, failing)

	report, err := svc.SendNotificationsDue(context.Background(), now)
	require.NoError(t, err)

	// Both users got their notification row; the failing channel is
	// recorded per notification without stopping the sweep.
	assert.Equal(t, 2, report.Created)
	assert.Len(t, report.ChannelFailures, 2)
	assert.Len(t, working.sent, 2)
	for _, n := range repo.notifications {
		assert.Equal(t, models.DELIVERY_FAILED, n.DeliveryStatus)
		assert.Contains(t, n.DeliveryError, "email")
	}
}

func TestSendNotificationsDueSkipsDisabledChannels(t *testing.T) {
	repo := newFakeRepo()
	repo.users[7] = &models.User{ID: 7}
	repo.settings[7] = &models.NotificationSetting{UserID: 7, DueLeadDays: 3, SMSEnabled: false}
	now := day(2024, time.May, 10)
	repo.subscriptions = []models.Subscription{dueSubscription(1, 7, day(2024, time.May, 11))}

	sms := &recordingChannel{kind: ChannelSMS, enabled: func(s *models.NotificationSetting) bool { return s.SMSEnabled }}
	svc := NewService(repo, &recordingChannel{kind: ChannelDatabase}, sms)

	_, err := svc.SendNotificationsDue(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, sms.sent)
}

func TestSendNotificationsOverdue(t *testing.T) {
	repo := newFakeRepo()
	repo.users[7] = &models.User{ID: 7}
	now := day(2024, time.May, 10)
	repo.subscriptions = []models.Subscription{
		dueSubscription(1, 7, day(2024, time.May, 9)),
		dueSubscription(2, 7, day(2024, time.May, 10)), // due today is not overdue
	}
	repo.installments[20] = &models.Installment{
		ID: 20, UserID: 7, Name: "Couch", PaymentCount: 4, Status: models.INSTALLMENT_STATUS_ACTIVE,
	}
	repo.payments = []models.InstallmentPayment{
		{ID: 30, InstallmentID: 20, Sequence: 2, Amount: decimal.NewFromInt(50), DueAt: day(2024, time.May, 1)},
	}

	svc := NewService(repo, &recordingChannel{kind: ChannelDatabase})
	report, err := svc.SendNotificationsOverdue(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Created)
	for _, n := range repo.notifications {
		assert.Equal(t, models.NOTIF_TYPE_OVERDUE, n.Type)
	}
}

func TestMarkAsReadRejectsCrossUserAccess(t *testing.T) {
	repo := newFakeRepo()
	repo.notifications = append(repo.notifications, &models.Notification{ID: 1, UserID: 7})
	repo.nextID = 1

	svc := NewService(repo, &recordingChannel{kind: ChannelDatabase})

	err := svc.MarkAsRead(1, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, repo.notifications[0].ReadAt)

	require.NoError(t, svc.MarkAsRead(1, 7))
	assert.NotNil(t, repo.notifications[0].ReadAt)
}

func TestMarkAllAsRead(t *testing.T) {
	repo := newFakeRepo()
	repo.notifications = []*models.Notification{
		{ID: 1, UserID: 7},
		{ID: 2, UserID: 7},
		{ID: 3, UserID: 8},
	}

	svc := NewService(repo, &recordingChannel{kind: ChannelDatabase})
	require.NoError(t, svc.MarkAllAsRead(7))

	assert.NotNil(t, repo.notifications[0].ReadAt)
	assert.NotNil(t, repo.notifications[1].ReadAt)
	assert.Nil(t, repo.notifications[2].ReadAt)

	unread, err := repo.CountUnread(7)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
