package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/eventyard/eventyard-backend/internal/maillog"
	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/logger"
	"github.com/eventyard/eventyard-backend/pkg/mailer"
)

const (
	checkinReminderBatchSize = 500
	checkinReminderTemplate  = "checkin-reminder"
)

// upcomingCheckInLister is the slice of the reservations repository this job needs.
type upcomingCheckInLister interface {
	ListConfirmedCheckInsBetween(ctx context.Context, from, to time.Time, limit int) ([]models.HotelReservation, error)
}

// reminderSender is the slice of the relay client this job needs.
type reminderSender interface {
	Send(ctx context.Context, msg mailer.Message) (mailer.Result, error)
}

// CheckinReminderJobParams configure the reminder job.
type CheckinReminderJobParams struct {
	Logger       *logger.Logger
	Reservations upcomingCheckInLister
	MailLog      maillog.Repository
	Sender       reminderSender
	LeadTime     time.Duration
	Now          func() time.Time
}

type checkinReminderJob struct {
	logg         *logger.Logger
	reservations upcomingCheckInLister
	mailLog      maillog.Repository
	sender       reminderSender
	leadTime     time.Duration
	now          func() time.Time
}

// NewCheckinReminderJob builds the job that emails guests checking in soon.
func NewCheckinReminderJob(params CheckinReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reservations == nil {
		return nil, fmt.Errorf("reservations repository required")
	}
	if params.MailLog == nil {
		return nil, fmt.Errorf("mail log repository required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	leadTime := params.LeadTime
	if leadTime <= 0 {
		leadTime = 24 * time.Hour
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &checkinReminderJob{
		logg:         params.Logger,
		reservations: params.Reservations,
		mailLog:      params.MailLog,
		sender:       params.Sender,
		leadTime:     leadTime,
		now:          now,
	}, nil
}

func (j *checkinReminderJob) Name() string { return "checkin-reminder" }

// Run sends one reminder per confirmed reservation entering the lead window.
// The email log dedupe key makes re-runs safe; individual send failures are
// aggregated so one bad address does not starve the rest of the batch.
func (j *checkinReminderJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	due, err := j.reservations.ListConfirmedCheckInsBetween(ctx, now, now.Add(j.leadTime), checkinReminderBatchSize)
	if err != nil {
		return fmt.Errorf("list upcoming check-ins: %w", err)
	}

	sent := 0
	var errs error
	for _, reservation := range due {
		delivered, err := j.remind(ctx, reservation)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reservation %s: %w", reservation.ID, err))
			continue
		}
		if delivered {
			sent++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates":     len(due),
		"reminders_sent": sent,
	})
	j.logg.Info(logCtx, "check-in reminder run complete")
	return errs
}

func (j *checkinReminderJob) remind(ctx context.Context, reservation models.HotelReservation) (bool, error) {
	subject := "Your check-in is coming up"
	entry, reserved, err := j.mailLog.Reserve(ctx, maillog.Entry{
		Recipient: reservation.GuestEmail,
		Template:  checkinReminderTemplate,
		Subject:   subject,
		DedupeKey: "checkin:" + reservation.ID.String(),
	})
	if err != nil {
		return false, fmt.Errorf("reserve email log: %w", err)
	}
	if !reserved {
		// Already reminded on a previous run.
		return false, nil
	}

	result, sendErr := j.sender.Send(ctx, mailer.Message{
		To:       reservation.GuestEmail,
		Subject:  subject,
		Template: checkinReminderTemplate,
		Data: map[string]any{
			"guest_name": reservation.GuestName,
			"check_in":   reservation.CheckIn.Format(time.RFC3339),
			"rooms":      reservation.NumberOfRooms,
		},
	})
	if sendErr != nil {
		j.markResult(ctx, entry.ID, maillog.StatusFailed, result.Attempts, sendErr)
		return false, sendErr
	}
	j.markResult(ctx, entry.ID, maillog.StatusSent, result.Attempts, nil)
	return true, nil
}

func (j *checkinReminderJob) markResult(ctx context.Context, id uuid.UUID, status string, attempts int, sendErr error) {
	var lastError *string
	if sendErr != nil {
		msg := sendErr.Error()
		lastError = &msg
	}
	if err := j.mailLog.MarkResult(ctx, id, status, attempts, lastError); err != nil {
		j.logg.Error(ctx, "failed to record email log result", err)
	}
}
