package services

import (
	"context"
	"errors"
	"log"
	"time"

	"posdesk/internal/core/domain"

	"github.com/robfig/cron/v3"
)

// ReminderRunner is anything that performs one reminder pass
type ReminderRunner interface {
	Run(ctx context.Context) (*domain.RunSummary, error)
}

// CronService runs the reminder engine on a daily schedule
type CronService struct {
	cron    *cron.Cron
	runner  ReminderRunner
	spec    string
	timeout time.Duration
}

// NewCronService creates a scheduler evaluating spec in loc
func NewCronService(runner ReminderRunner, spec string, loc *time.Location) *CronService {
	if loc == nil {
		loc = time.Local
	}
	return &CronService{
		cron:    cron.New(cron.WithLocation(loc)),
		runner:  runner,
		spec:    spec,
		timeout: 30 * time.Minute,
	}
}

// Start registers the reminder job and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runReminders); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("🚀 CronService started (reminders: %q)", s.spec)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

// Next returns the next scheduled run time, zero when not started
func (s *CronService) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *CronService) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.runner.Run(ctx); err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			log.Println("⏭️ Scheduled reminder run skipped: another run holds the lock")
			return
		}
		log.Printf("❌ Scheduled reminder run failed: %v", err)
	}
}
