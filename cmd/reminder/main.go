// Command reminder performs a single reminder run and exits. It is meant
// for hosts that schedule jobs externally instead of running the API's cron.
//
// The run result is written to stdout as the same JSON envelope the HTTP
// trigger returns; logs go to stderr. The exit status is 0 on success and
// when another run holds the lock, 1 otherwise.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"posdesk/internal/adapters/http/handlers"
	"posdesk/internal/adapters/persistence/models"
	"posdesk/internal/app"
	"posdesk/internal/config"
	"posdesk/internal/core/domain"
	"posdesk/internal/core/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		return fail(os.Stdout, "Failed to load configuration", err)
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return fail(os.Stdout, "Failed to connect to database", err)
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		return fail(os.Stdout, "Failed to auto migrate", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reminders, err := app.NewReminders(ctx, cfg, db)
	if err != nil {
		return fail(os.Stdout, "Failed to set up reminders", err)
	}
	defer reminders.Close()

	return runOnce(ctx, reminders.Engine, os.Stdout)
}

// runOnce performs one run, writes the result envelope to w and returns
// the exit status
func runOnce(ctx context.Context, runner services.ReminderRunner, w io.Writer) int {
	summary, err := runner.Run(ctx)
	if encErr := writeResult(w, handlers.NewRunResponse(summary, err)); encErr != nil {
		log.Printf("❌ Failed to write run result: %v", encErr)
		return 1
	}

	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		log.Println("⏭️ Another reminder run is in progress, nothing to do")
		return 0
	case err != nil:
		log.Printf("❌ Reminder run failed: %v", err)
		return 1
	}

	log.Printf("✅ Reminder run %s: %d loans, %d reminders, %d sent, %d failed",
		summary.RunID, summary.LoansProcessed, summary.RemindersGenerated,
		summary.MessagesScheduled, summary.LoansFailed)
	return 0
}

// fail reports a setup error before any run started
func fail(w io.Writer, msg string, err error) int {
	log.Printf("❌ %s: %v", msg, err)
	_ = writeResult(w, handlers.NewRunResponse(nil, err))
	return 1
}

func writeResult(w io.Writer, res handlers.RunResponse) error {
	return json.NewEncoder(w).Encode(res)
}
