package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
	"github.com/MartinKaiser/FinCal/internal/pkg/recurrence"
)

// maxLeadDays caps the query horizon; individual users narrow it down
// through their DueLeadDays preference.
const maxLeadDays = 30

// ChannelFailure records one failed delivery attempt. Channel failures
// never block other channels or other users.
type ChannelFailure struct {
	NotificationID uint        `json:"notification_id"`
	Channel        ChannelKind `json:"channel"`
	Err            string      `json:"error"`
}

// DispatchReport summarizes one notification sweep.
type DispatchReport struct {
	Created         int              `json:"created"`
	Deduplicated    int              `json:"deduplicated"`
	ChannelFailures []ChannelFailure `json:"channel_failures"`
}

// Service scans for due and overdue payment obligations and fans the
// resulting notifications out to the user's enabled channels.
type Service struct {
	repo     Repository
	channels []Channel
}

// NewService creates a notify service with an explicit channel set.
func NewService(repo Repository, channels ...Channel) *Service {
	if len(channels) == 0 {
		channels = NewDefaultChannels()
	}
	return &Service{repo: repo, channels: channels}
}

// NewServiceFromDB creates a notify service from a GORM DB handle with
// the default channel set.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// SendNotificationsDue notifies about obligations inside each user's
// "due soon" window. Already-notified occurrences are skipped via the
// dedup key.
func (s *Service) SendNotificationsDue(ctx context.Context, now time.Time) (*DispatchReport, error) {
	report := &DispatchReport{}
	settings := map[uint]*models.NotificationSetting{}

	subs, err := s.repo.ListUpcomingSubscriptions(now, maxLeadDays)
	if err != nil {
		return report, fmt.Errorf("failed to list upcoming subscriptions: %w", err)
	}
	for i := range subs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		sub := &subs[i]
		setting, err := s.settingFor(sub.UserID, settings)
		if err != nil {
			log.Errorf("[Notify] settings for user %d: %v", sub.UserID, err)
			continue
		}
		if !recurrence.DueWithin(sub.NextDueAt, now, setting.DueLeadDays) {
			continue
		}
		s.deliver(ctx, subscriptionNotification(sub, models.NOTIF_TYPE_DUE_SOON), setting, report)
	}

	payments, err := s.repo.ListUpcomingInstallmentPayments(now, maxLeadDays)
	if err != nil {
		return report, fmt.Errorf("failed to list upcoming installment payments: %w", err)
	}
	s.deliverInstallments(ctx, payments, models.NOTIF_TYPE_DUE_SOON, settings, report, func(due time.Time, setting *models.NotificationSetting) bool {
		return recurrence.DueWithin(due, now, setting.DueLeadDays)
	})

	return report, nil
}

// SendNotificationsOverdue notifies about obligations whose due date lies
// strictly in the past.
func (s *Service) SendNotificationsOverdue(ctx context.Context, now time.Time) (*DispatchReport, error) {
	report := &DispatchReport{}
	settings := map[uint]*models.NotificationSetting{}

	subs, err := s.repo.ListOverdueSubscriptions(now)
	if err != nil {
		return report, fmt.Errorf("failed to list overdue subscriptions: %w", err)
	}
	for i := range subs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		sub := &subs[i]
		if !recurrence.OverdueOn(sub.NextDueAt, now) {
			continue
		}
		setting, err := s.settingFor(sub.UserID, settings)
		if err != nil {
			log.Errorf("[Notify] settings for user %d: %v", sub.UserID, err)
			continue
		}
		s.deliver(ctx, subscriptionNotification(sub, models.NOTIF_TYPE_OVERDUE), setting, report)
	}

	payments, err := s.repo.ListOverdueInstallmentPayments(now)
	if err != nil {
		return report, fmt.Errorf("failed to list overdue installment payments: %w", err)
	}
	s.deliverInstallments(ctx, payments, models.NOTIF_TYPE_OVERDUE, settings, report, func(due time.Time, _ *models.NotificationSetting) bool {
		return recurrence.OverdueOn(due, now)
	})

	return report, nil
}

func (s *Service) deliverInstallments(ctx context.Context, payments []models.InstallmentPayment, notifType string,
	settings map[uint]*models.NotificationSetting, report *DispatchReport,
	matches func(time.Time, *models.NotificationSetting) bool) {

	for i := range payments {
		if ctx.Err() != nil {
			return
		}
		payment := &payments[i]
		inst, err := s.repo.GetInstallment(payment.InstallmentID)
		if err != nil {
			log.Errorf("[Notify] installment %d: %v", payment.InstallmentID, err)
			continue
		}
		setting, err := s.settingFor(inst.UserID, settings)
		if err != nil {
			log.Errorf("[Notify] settings for user %d: %v", inst.UserID, err)
			continue
		}
		if !matches(payment.DueAt, setting) {
			continue
		}
		s.deliver(ctx, installmentNotification(inst, payment, notifType), setting, report)
	}
}

// deliver creates the notification row (dedup-guarded) and fans out to
// the enabled channels. Failures are recorded per channel on the row.
func (s *Service) deliver(ctx context.Context, n *models.Notification, setting *models.NotificationSetting, report *DispatchReport) {
	created, err := s.repo.CreateNotificationIfNotExists(n)
	if err != nil {
		log.Errorf("[Notify] create notification %s: %v", n.DedupKey, err)
		return
	}
	if !created {
		report.Deduplicated++
		return
	}
	report.Created++

	user, err := s.repo.GetUser(n.UserID)
	if err != nil {
		log.Errorf("[Notify] user %d: %v", n.UserID, err)
		s.updateDelivery(n.ID, models.DELIVERY_FAILED, "user lookup failed")
		return
	}

	var failures []string
	for _, ch := range s.channels {
		if !ch.Enabled(setting) {
			continue
		}
		if err := ch.Send(ctx, user, setting, n); err != nil {
			log.Errorf("[Notify] channel %s for notification %d: %v", ch.Kind(), n.ID, err)
			report.ChannelFailures = append(report.ChannelFailures, ChannelFailure{
				NotificationID: n.ID,
				Channel:        ch.Kind(),
				Err:            err.Error(),
			})
			failures = append(failures, fmt.Sprintf("%s: %v", ch.Kind(), err))
		}
	}

	status := models.DELIVERY_SENT
	if len(failures) > 0 {
		status = models.DELIVERY_FAILED
	}
	s.updateDelivery(n.ID, status, strings.Join(failures, "; "))
}

func (s *Service) updateDelivery(id uint, status, deliveryErr string) {
	if err := s.repo.UpdateNotificationDelivery(id, status, deliveryErr); err != nil {
		log.Errorf("[Notify] update delivery status for notification %d: %v", id, err)
	}
}

func (s *Service) settingFor(userID uint, cache map[uint]*models.NotificationSetting) (*models.NotificationSetting, error) {
	if setting, ok := cache[userID]; ok {
		return setting, nil
	}
	setting, err := s.repo.GetNotificationSetting(userID)
	if err != nil {
		return nil, err
	}
	cache[userID] = setting
	return setting, nil
}

// MarkAsRead transitions one notification to read. Unknown ids and
// notifications owned by another user both return ErrNotFound with no
// state change.
func (s *Service) MarkAsRead(notificationID, userID uint) error {
	n, err := s.repo.GetNotification(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if n.UserID != userID {
		return ErrNotFound
	}
	if n.IsRead() {
		return nil
	}
	return s.repo.MarkNotificationRead(notificationID, time.Now())
}

// MarkAllAsRead marks every unread notification of the user as read.
func (s *Service) MarkAllAsRead(userID uint) error {
	return s.repo.MarkAllNotificationsRead(userID, time.Now())
}

// List returns a page of the user's notifications plus the unread count.
func (s *Service) List(userID uint, offset, limit int) ([]models.Notification, int64, error) {
	notifications, err := s.repo.ListNotifications(userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.repo.CountUnread(userID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

func subscriptionNotification(sub *models.Subscription, notifType string) *models.Notification {
	title := fmt.Sprintf("Payment due soon: %s", sub.Name)
	message := fmt.Sprintf("Subscription %s (%s) is due on %s.", sub.Name, sub.Amount.StringFixed(2), sub.NextDueAt.Format("2006-01-02"))
	if notifType == models.NOTIF_TYPE_OVERDUE {
		title = fmt.Sprintf("Payment overdue: %s", sub.Name)
		message = fmt.Sprintf("Subscription %s (%s) was due on %s.", sub.Name, sub.Amount.StringFixed(2), sub.NextDueAt.Format("2006-01-02"))
	}
	return &models.Notification{
		UserID:         sub.UserID,
		Type:           notifType,
		Title:          title,
		Message:        message,
		DedupKey:       models.BuildDedupKey("subscription", sub.ID, sub.NextDueAt, notifType),
		DeliveryStatus: models.DELIVERY_PENDING,
	}
}

func installmentNotification(inst *models.Installment, payment *models.InstallmentPayment, notifType string) *models.Notification {
	title := fmt.Sprintf("Installment due soon: %s", inst.Name)
	message := fmt.Sprintf("Installment %s payment %d/%d (%s) is due on %s.",
		inst.Name, payment.Sequence, inst.PaymentCount, payment.Amount.StringFixed(2), payment.DueAt.Format("2006-01-02"))
	if notifType == models.NOTIF_TYPE_OVERDUE {
		title = fmt.Sprintf("Installment overdue: %s", inst.Name)
		message = fmt.Sprintf("Installment %s payment %d/%d (%s) was due on %s.",
			inst.Name, payment.Sequence, inst.PaymentCount, payment.Amount.StringFixed(2), payment.DueAt.Format("2006-01-02"))
	}
	return &models.Notification{
		UserID:         inst.UserID,
		Type:           notifType,
		Title:          title,
		Message:        message,
		DedupKey:       models.BuildDedupKey("installment", inst.ID, payment.DueAt, notifType),
		DeliveryStatus: models.DELIVERY_PENDING,
	}
}
