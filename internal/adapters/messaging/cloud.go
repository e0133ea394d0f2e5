package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"posdesk/internal/core/services"
)

// CloudConfig holds WhatsApp Cloud API configuration
type CloudConfig struct {
	BaseURL       string // e.g. https://graph.facebook.com/v21.0
	AccessToken   string
	PhoneNumberID string
	Timeout       time.Duration
}

// CloudNotifier sends text messages through the WhatsApp Cloud API
type CloudNotifier struct {
	config     CloudConfig
	httpClient *http.Client
}

type cloudTextMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type cloudResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// NewCloudNotifier creates a Cloud API notifier
func NewCloudNotifier(config CloudConfig) *CloudNotifier {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &CloudNotifier{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Send posts one text message and returns the WhatsApp message id
func (n *CloudNotifier) Send(ctx context.Context, msg services.Notification) (string, error) {
	to, err := NormalizePhone(msg.Phone)
	if err != nil {
		return "", err
	}

	payload := cloudTextMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
	}
	payload.Text.Body = FormatText(msg)

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/%s/messages", strings.TrimRight(n.config.BaseURL, "/"), n.config.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+n.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed cloudResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Error != nil {
			return "", fmt.Errorf("whatsapp cloud error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		return "", fmt.Errorf("whatsapp cloud error: status %d", resp.StatusCode)
	}
	if len(parsed.Messages) == 0 {
		return "", nil
	}
	return parsed.Messages[0].ID, nil
}
