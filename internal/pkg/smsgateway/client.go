package smsgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MartinKaiser/FinCal/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.sms-relay.example.com/v1"

// Client talks to the external SMS relay. The relay exposes a single
// send endpoint returning a message id or an error description.
type Client struct {
	APIBaseURL string
	APIKey     string
	SenderID   string

	HTTPClient *http.Client
}

type sendRequest struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Body string `json:"body"`
}

// SendResult is the normalized provider response.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

func NewClientFromEnv() *Client {
	return &Client{
		APIBaseURL: strings.TrimRight(env.GetEnv("SMS_API_BASE_URL", defaultAPIBaseURL), "/"),
		APIKey:     strings.TrimSpace(env.GetEnv("SMS_API_KEY", "")),
		SenderID:   strings.TrimSpace(env.GetEnv("SMS_SENDER_ID", "FinCal")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Send delivers one SMS. A non-2xx provider response or a transport error
// both surface as an error so the dispatcher can record the channel failure.
func (c *Client) Send(ctx context.Context, to string, body string) (*SendResult, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("sms gateway not configured: SMS_API_KEY missing")
	}
	if strings.TrimSpace(to) == "" {
		return nil, fmt.Errorf("sms recipient is empty")
	}

	payload, err := json.Marshal(sendRequest{To: to, From: c.SenderID, Body: body})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var result SendResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("sms gateway returned unparseable response (status %d)", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !result.Success {
		if result.Error == "" {
			result.Error = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return &result, fmt.Errorf("sms gateway rejected message: %s", result.Error)
	}

	return &result, nil
}
