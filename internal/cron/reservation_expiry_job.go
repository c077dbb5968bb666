package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/eventyard/eventyard-backend/pkg/logger"
)

// expirer is the slice of the reservations service the sweep needs.
type expirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// ReservationExpiryJobParams configure the expiry sweep job.
type ReservationExpiryJobParams struct {
	Logger       *logger.Logger
	Reservations expirer
	Now          func() time.Time
}

type reservationExpiryJob struct {
	logg         *logger.Logger
	reservations expirer
	now          func() time.Time
}

// NewReservationExpiryJob builds the job that expires overdue pending holds.
func NewReservationExpiryJob(params ReservationExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reservations == nil {
		return nil, fmt.Errorf("reservations service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &reservationExpiryJob{
		logg:         params.Logger,
		reservations: params.Reservations,
		now:          now,
	}, nil
}

func (j *reservationExpiryJob) Name() string { return "reservation-expiry" }

func (j *reservationExpiryJob) Run(ctx context.Context) error {
	expired, err := j.reservations.ExpireDue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("expire due holds: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "holds_expired", expired)
	j.logg.Info(logCtx, "reservation expiry sweep complete")
	return nil
}
