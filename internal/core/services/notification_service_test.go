package services

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"posdesk/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_DisabledWithoutToken(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	staff := NewNotificationService("")
	staff.endpoint = srv.URL
	assert.False(t, staff.IsEnabled())

	staff.ReminderRunCompleted(domain.RunSummary{})
	staff.ReminderRunFailed(errors.New("boom"))
	assert.Zero(t, calls)
}

func TestNotificationService_PostsRunReport(t *testing.T) {
	var auth, message string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseForm())
		message = r.PostForm.Get("message")
	}))
	defer srv.Close()

	staff := NewNotificationService("line-token")
	staff.endpoint = srv.URL
	require.True(t, staff.IsEnabled())

	runID := uuid.New()
	staff.ReminderRunCompleted(domain.RunSummary{RunID: runID, LoansProcessed: 4, RemindersGenerated: 3, MessagesScheduled: 2, LoansFailed: 1})

	assert.Equal(t, "Bearer line-token", auth)
	assert.Contains(t, message, runID.String())
	assert.Contains(t, message, "Loans checked: 4")
	assert.Contains(t, message, "Messages sent: 2")
	assert.Contains(t, message, "Failed: 1")
}
