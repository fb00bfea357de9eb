package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MartinKaiser/FinCal/app/models"
	"github.com/MartinKaiser/FinCal/internal/pkg/mail"
	"github.com/MartinKaiser/FinCal/internal/pkg/smsgateway"
)

// ChannelKind is the closed set of delivery channels. Channels are
// dispatched through the Channel interface, never looked up dynamically.
type ChannelKind string

const (
	ChannelDatabase ChannelKind = "database"
	ChannelEmail    ChannelKind = "email"
	ChannelSMS      ChannelKind = "sms"
	ChannelPush     ChannelKind = "push"
)

// Channel delivers one notification to one user over a single transport.
type Channel interface {
	Kind() ChannelKind
	// Enabled reports whether the user's settings opt into this channel.
	Enabled(setting *models.NotificationSetting) bool
	Send(ctx context.Context, user *models.User, setting *models.NotificationSetting, n *models.Notification) error
}

// NewDefaultChannels builds the full channel set with env-configured
// providers. The database channel is always first: the notification row
// itself is the in-app delivery.
func NewDefaultChannels() []Channel {
	return []Channel{
		databaseChannel{},
		emailChannel{},
		smsChannel{client: smsgateway.NewClientFromEnv()},
		pushChannel{httpClient: &http.Client{Timeout: 10 * time.Second}},
	}
}

// databaseChannel is a no-op transport: persisting the Notification row is
// the delivery. It exists so the channel set stays uniform.
type databaseChannel struct{}

func (databaseChannel) Kind() ChannelKind                        { return ChannelDatabase }
func (databaseChannel) Enabled(*models.NotificationSetting) bool { return true }
func (databaseChannel) Send(context.Context, *models.User, *models.NotificationSetting, *models.Notification) error {
	return nil
}

type emailChannel struct{}

func (emailChannel) Kind() ChannelKind { return ChannelEmail }

func (emailChannel) Enabled(setting *models.NotificationSetting) bool {
	return setting != nil && setting.EmailEnabled
}

func (emailChannel) Send(_ context.Context, user *models.User, _ *models.NotificationSetting, n *models.Notification) error {
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("user has no email address")
	}
	body := fmt.Sprintf("<p>%s</p>", n.Message)
	return mail.SendMail(user.Email, n.Title, body)
}

type smsChannel struct {
	client *smsgateway.Client
}

func (smsChannel) Kind() ChannelKind { return ChannelSMS }

func (smsChannel) Enabled(setting *models.NotificationSetting) bool {
	return setting != nil && setting.SMSEnabled && strings.TrimSpace(setting.PhoneNumber) != ""
}

func (c smsChannel) Send(ctx context.Context, _ *models.User, setting *models.NotificationSetting, n *models.Notification) error {
	_, err := c.client.Send(ctx, setting.PhoneNumber, n.Title+" - "+n.Message)
	return err
}

// pushChannel posts the notification payload to the user's registered
// push endpoint (webhook style).
type pushChannel struct {
	httpClient *http.Client
}

func (pushChannel) Kind() ChannelKind { return ChannelPush }

func (pushChannel) Enabled(setting *models.NotificationSetting) bool {
	return setting != nil && setting.PushEnabled && strings.TrimSpace(setting.PushEndpoint) != ""
}

func (c pushChannel) Send(ctx context.Context, _ *models.User, setting *models.NotificationSetting, n *models.Notification) error {
	payload, err := json.Marshal(map[string]interface{}{
		"type":    n.Type,
		"title":   n.Title,
		"message": n.Message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, setting.PushEndpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
