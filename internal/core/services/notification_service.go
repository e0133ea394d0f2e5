package services

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"posdesk/internal/core/domain"
)

const lineNotifyEndpoint = "https://notify-api.line.me/api/notify"

// NotificationService sends staff notifications through LINE Notify
type NotificationService struct {
	lineNotifyToken string
	endpoint        string
	enabled         bool
	client          *http.Client
}

// NewNotificationService creates a new notification service. An empty token
// disables it.
func NewNotificationService(token string) *NotificationService {
	return &NotificationService{
		lineNotifyToken: token,
		endpoint:        lineNotifyEndpoint,
		enabled:         token != "",
		client:          &http.Client{Timeout: 10 * time.Second},
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// sendLineNotify sends a message via LINE Notify
func (s *NotificationService) sendLineNotify(message string) error {
	if !s.enabled {
		return nil
	}

	data := url.Values{}
	data.Set("message", message)

	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewBufferString(data.Encode()))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+s.lineNotifyToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("LINE Notify error: status %d", resp.StatusCode)
	}
	return nil
}

// ReminderRunCompleted posts the run summary to the staff channel
func (s *NotificationService) ReminderRunCompleted(summary domain.RunSummary) {
	message := fmt.Sprintf(`
⏰ Loan reminders sent

🆔 Run: %s
📋 Loans checked: %d
📝 Reminders created: %d
📨 Messages sent: %d
❌ Failed: %d`,
		summary.RunID,
		summary.LoansProcessed,
		summary.RemindersGenerated,
		summary.MessagesScheduled,
		summary.LoansFailed,
	)

	if err := s.sendLineNotify(message); err != nil {
		log.Printf("⚠️ LINE Notify failed: %v", err)
	}
}

// ReminderRunFailed alerts staff that a run could not start
func (s *NotificationService) ReminderRunFailed(runErr error) {
	message := fmt.Sprintf(`
❌ Loan reminder run failed

📝 Reason: %v

Please check the server logs.`, runErr)

	if err := s.sendLineNotify(message); err != nil {
		log.Printf("⚠️ LINE Notify failed: %v", err)
	}
}
