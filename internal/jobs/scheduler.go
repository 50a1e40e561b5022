// Package jobs runs periodic maintenance next to the API.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	OTPPurgeSpec = "@every 15m"
	ReminderSpec = "@every 1h"

	jobTimeout = 2 * time.Minute
)

// OTPPurger deletes expired one-time passcodes
type OTPPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Reminder emails customers about tomorrow's bookings
type Reminder interface {
	SendReminders(ctx context.Context) (int, error)
}

// Scheduler owns the cron runner. Jobs never overlap with themselves.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(otps OTPPurger, reminders Reminder) (*Scheduler, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	if _, err := c.AddFunc(OTPPurgeSpec, purgeOTPs(otps)); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(ReminderSpec, sendReminders(reminders)); err != nil {
		return nil, err
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("Cron job scheduler started")
}

// Stop prevents new runs and waits for running jobs to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func purgeOTPs(otps OTPPurger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		n, err := otps.PurgeExpired(ctx)
		if err != nil {
			log.Printf("jobs: purge expired otps: %v", err)
			return
		}
		if n > 0 {
			log.Printf("jobs: purged %d expired otps", n)
		}
	}
}

func sendReminders(reminders Reminder) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		n, err := reminders.SendReminders(ctx)
		if err != nil {
			log.Printf("jobs: send booking reminders (%d sent before failure): %v", n, err)
			return
		}
		if n > 0 {
			log.Printf("jobs: sent %d booking reminders", n)
		}
	}
}
