package reservations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/internal/events"
	"github.com/eventyard/eventyard-backend/internal/hotels"
	"github.com/eventyard/eventyard-backend/internal/notifications"
	"github.com/eventyard/eventyard-backend/pkg/config"
	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/logger"
	"github.com/eventyard/eventyard-backend/pkg/pagination"
)

const expirySweepBatchSize = 200

// Actor identifies who is performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateParams carries the fields for a new hold-first reservation.
type CreateParams struct {
	PackageID      uuid.UUID
	RoomTypeID     uuid.UUID
	GuestName      string
	GuestEmail     string
	CheckIn        time.Time
	CheckOut       time.Time
	NumberOfRooms  int
	NumberOfGuests int
}

// ListResult wraps a reservations page and the next cursor.
type ListResult struct {
	Items  []models.HotelReservation `json:"items"`
	Cursor string                    `json:"cursor"`
}

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service implements the hold/expiry reservation workflow.
type Service interface {
	Create(ctx context.Context, actor Actor, params CreateParams) (*models.HotelReservation, error)
	Confirm(ctx context.Context, actor Actor, id uuid.UUID, paymentRef string) (*models.HotelReservation, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.HotelReservation, error)
	Refund(ctx context.Context, actor Actor, id uuid.UUID) (*models.HotelReservation, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.HotelReservation, error)
	ListForGuest(ctx context.Context, actor Actor, limit int, cursor string) (*ListResult, error)
	ListForEvent(ctx context.Context, actor Actor, eventID uuid.UUID, limit int, cursor string) (*ListResult, error)
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// ServiceParams groups dependencies for the reservations service.
type ServiceParams struct {
	DB        TxRunner
	Repo      Repository
	HotelRepo hotels.Repository
	EventRepo events.Repository
	Notifier  notifications.Service
	Logger    *logger.Logger
	Config    config.ReservationsConfig
	Now       func() time.Time
}

type service struct {
	db        TxRunner
	repo      Repository
	hotelRepo hotels.Repository
	eventRepo events.Repository
	notifier  notifications.Service
	logg      *logger.Logger
	cfg       config.ReservationsConfig
	now       func() time.Time
}

// NewService wires the reservations service. Notifier and Logger are optional.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reservations repository required")
	}
	if params.HotelRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "hotels repository required")
	}
	if params.EventRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "events repository required")
	}
	cfg := params.Config
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = 15 * time.Minute
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:        params.DB,
		repo:      params.Repo,
		hotelRepo: params.HotelRepo,
		eventRepo: params.EventRepo,
		notifier:  params.Notifier,
		logg:      params.Logger,
		cfg:       cfg,
		now:       now,
	}, nil
}

// Create validates the request, claims inventory and inserts the pending hold
// inside one transaction. The claim is a single guarded UPDATE, so two
// concurrent requests can never sell the same room twice.
func (s *service) Create(ctx context.Context, actor Actor, params CreateParams) (*models.HotelReservation, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}
	if params.PackageID == uuid.Nil || params.RoomTypeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "package and room type ids are required")
	}
	if params.NumberOfRooms < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one room is required")
	}
	if params.NumberOfGuests < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one guest is required")
	}
	guestName := strings.TrimSpace(params.GuestName)
	guestEmail := strings.ToLower(strings.TrimSpace(params.GuestEmail))
	if guestName == "" || guestEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest name and email are required")
	}

	nights := nightsBetween(params.CheckIn, params.CheckOut)
	if nights < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout must be after check-in")
	}

	pkg, err := s.hotelRepo.FindPackageByID(ctx, params.PackageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "hotel package not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load hotel package")
	}
	if !pkg.Active {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "hotel package is not accepting reservations")
	}

	roomType, err := s.hotelRepo.FindRoomTypeByID(ctx, params.RoomTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "room type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load room type")
	}
	if roomType.PackageID != pkg.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room type does not belong to package")
	}
	if params.NumberOfGuests > roomType.MaxGuests*params.NumberOfRooms {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("guest count exceeds capacity of %d per room", roomType.MaxGuests))
	}

	now := s.now()
	event, err := s.eventRepo.FindByID(ctx, pkg.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	if event.BookingCutoffHours != nil {
		cutoff := event.StartDate.Add(-time.Duration(*event.BookingCutoffHours) * time.Hour)
		if !now.Before(cutoff) {
			return nil, pkgerrors.New(pkgerrors.CodeBookingClosed, "booking window for this event has closed")
		}
	}

	subtotal, fee, total := priceSnapshot(roomType.PricePerNightCents, nights, params.NumberOfRooms, s.cfg.ServiceFeePct)

	holdToken := uuid.NewString()
	expiresAt := now.Add(s.cfg.HoldTTL)
	reservation := &models.HotelReservation{
		ID:             uuid.New(),
		PackageID:      pkg.ID,
		RoomTypeID:     roomType.ID,
		GuestUserID:    actor.UserID,
		GuestName:      guestName,
		GuestEmail:     guestEmail,
		CheckIn:        params.CheckIn,
		CheckOut:       params.CheckOut,
		NumberOfRooms:  params.NumberOfRooms,
		NumberOfGuests: params.NumberOfGuests,
		Status:         enums.ReservationPending,
		HoldToken:      &holdToken,
		ExpiresAt:      &expiresAt,
		Nights:         nights,
		SubtotalCents:  subtotal,
		FeeCents:       fee,
		TotalCents:     total,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		held, err := s.hotelRepo.WithTx(tx).HoldRooms(ctx, roomType.ID, params.NumberOfRooms)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim rooms")
		}
		if !held {
			return pkgerrors.New(pkgerrors.CodeOversold, "not enough rooms available")
		}
		if err := s.repo.WithTx(tx).Create(ctx, reservation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, actor.UserID, "Reservation held",
		fmt.Sprintf("Your hold on %s expires at %s.", roomType.Name, expiresAt.Format(time.RFC3339)))
	return reservation, nil
}

// Confirm promotes a live pending hold. An expired hold is reported as
// HOLD_EXPIRED and left for the sweep; inventory is never touched here.
func (s *service) Confirm(ctx context.Context, actor Actor, id uuid.UUID, paymentRef string) (*models.HotelReservation, error) {
	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.GuestUserID != actor.UserID && actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the reservation owner")
	}
	if reservation.Status != enums.ReservationPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("reservation is %s, not pending", reservation.Status))
	}

	now := s.now()
	if reservation.ExpiresAt != nil && now.After(*reservation.ExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeHoldExpired, "hold has expired")
	}

	fields := map[string]any{
		"hold_token":   nil,
		"expires_at":   nil,
		"confirmed_at": now,
	}
	if ref := strings.TrimSpace(paymentRef); ref != "" {
		fields["payment_ref"] = ref
	}

	ok, err := s.repo.TransitionStatus(ctx, id, enums.ReservationPending, enums.ReservationConfirmed, fields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm reservation")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is no longer pending")
	}

	s.notify(ctx, reservation.GuestUserID, "Reservation confirmed", "Your rooms are booked.")
	return s.load(ctx, id)
}

// Cancel releases held or booked inventory. Terminal reservations are
// rejected; an expired hold has already returned its rooms.
func (s *service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.HotelReservation, error) {
	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(ctx, actor, reservation); err != nil {
		return nil, err
	}
	if reservation.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("reservation is already %s", reservation.Status))
	}

	now := s.now()
	fields := map[string]any{
		"hold_token":   nil,
		"expires_at":   nil,
		"cancelled_at": now,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).TransitionStatus(ctx, id, reservation.Status, enums.ReservationCancelled, fields)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel reservation")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation state changed, retry")
		}
		if err := s.hotelRepo.WithTx(tx).ReleaseRooms(ctx, reservation.RoomTypeID, reservation.NumberOfRooms); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release rooms")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, reservation.GuestUserID, "Reservation cancelled", "Your rooms have been released.")
	return s.load(ctx, id)
}

// Refund is the organizer-side reversal of a confirmed booking.
func (s *service) Refund(ctx context.Context, actor Actor, id uuid.UUID) (*models.HotelReservation, error) {
	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	organizer, err := s.isEventOrganizer(ctx, actor, reservation.PackageID)
	if err != nil {
		return nil, err
	}
	if !organizer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the event organizer can refund")
	}
	if reservation.Status != enums.ReservationConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only confirmed reservations can be refunded")
	}

	fields := map[string]any{"cancelled_at": s.now()}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).TransitionStatus(ctx, id, enums.ReservationConfirmed, enums.ReservationRefunded, fields)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund reservation")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is no longer confirmed")
		}
		if err := s.hotelRepo.WithTx(tx).ReleaseRooms(ctx, reservation.RoomTypeID, reservation.NumberOfRooms); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release rooms")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, reservation.GuestUserID, "Reservation refunded", "Your booking has been refunded.")
	return s.load(ctx, id)
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.HotelReservation, error) {
	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.GuestUserID == actor.UserID || actor.Role == enums.RoleAdmin {
		return reservation, nil
	}
	organizer, err := s.isEventOrganizer(ctx, actor, reservation.PackageID)
	if err != nil {
		return nil, err
	}
	if !organizer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this reservation")
	}
	return reservation, nil
}

func (s *service) ListForGuest(ctx context.Context, actor Actor, limit int, cursor string) (*ListResult, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}
	decoded, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	reservations, next, err := s.repo.ListForGuest(ctx, actor.UserID, limit, decoded)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}
	return listResult(reservations, next), nil
}

func (s *service) ListForEvent(ctx context.Context, actor Actor, eventID uuid.UUID, limit int, cursor string) (*ListResult, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	if event.OrganizerID != actor.UserID && actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the event organizer")
	}
	decoded, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	reservations, next, err := s.repo.ListForEvent(ctx, eventID, limit, decoded)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}
	return listResult(reservations, next), nil
}

// ExpireDue is the sweep body. Each due hold is expired in its own
// transaction behind a status re-check, so a second sweep (or a racing
// confirm) finds nothing left to do.
func (s *service) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.ListDueExpiry(ctx, now, expirySweepBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list due holds")
	}

	expired := 0
	var errs error
	for _, reservation := range due {
		fields := map[string]any{
			"hold_token": nil,
			"expires_at": nil,
			"expired_at": now,
		}
		transitioned := false
		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			transitioned = false
			ok, err := s.repo.WithTx(tx).TransitionStatus(ctx, reservation.ID, enums.ReservationPending, enums.ReservationExpired, fields)
			if err != nil {
				return err
			}
			if !ok {
				// Confirmed or cancelled since the scan; nothing to release.
				return nil
			}
			if err := s.hotelRepo.WithTx(tx).ReleaseRooms(ctx, reservation.RoomTypeID, reservation.NumberOfRooms); err != nil {
				return err
			}
			transitioned = true
			return nil
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire reservation %s: %w", reservation.ID, err))
			continue
		}
		// Counted only after the transaction commits, so a commit failure
		// never inflates the sweep total.
		if transitioned {
			expired++
		}
	}
	return expired, errs
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.HotelReservation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
	}
	return reservation, nil
}

func (s *service) authorizeManage(ctx context.Context, actor Actor, reservation *models.HotelReservation) error {
	if reservation.GuestUserID == actor.UserID || actor.Role == enums.RoleAdmin {
		return nil
	}
	organizer, err := s.isEventOrganizer(ctx, actor, reservation.PackageID)
	if err != nil {
		return err
	}
	if !organizer {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to manage this reservation")
	}
	return nil
}

func (s *service) isEventOrganizer(ctx context.Context, actor Actor, packageID uuid.UUID) (bool, error) {
	if actor.Role == enums.RoleAdmin {
		return true, nil
	}
	pkg, err := s.hotelRepo.FindPackageByID(ctx, packageID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load hotel package")
	}
	event, err := s.eventRepo.FindByID(ctx, pkg.EventID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	return event.OrganizerID == actor.UserID, nil
}

func (s *service) notify(ctx context.Context, userID uuid.UUID, title, message string) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.Create(ctx, notifications.CreateParams{
		UserID:  userID,
		Type:    enums.NotificationReservation,
		Title:   title,
		Message: message,
	})
	if err != nil && s.logg != nil {
		s.logg.Warn(ctx, "reservation notification failed: "+err.Error())
	}
}

func parseCursor(cursor string) (*pagination.Cursor, error) {
	if cursor == "" {
		return nil, nil
	}
	decoded, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return decoded, nil
}

func listResult(items []models.HotelReservation, next *pagination.Cursor) *ListResult {
	result := &ListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result
}

// nightsBetween counts whole calendar nights between the stay dates.
func nightsBetween(checkIn, checkOut time.Time) int {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	return int(out.Sub(in).Hours() / 24)
}

// priceSnapshot computes the immutable pricing stored on the reservation row.
func priceSnapshot(pricePerNightCents, nights, rooms, feePct int) (subtotal, fee, total int) {
	sub := decimal.NewFromInt(int64(pricePerNightCents)).
		Mul(decimal.NewFromInt(int64(nights))).
		Mul(decimal.NewFromInt(int64(rooms)))
	feeAmount := sub.Mul(decimal.NewFromInt(int64(feePct))).Div(decimal.NewFromInt(100)).Round(0)
	subtotal = int(sub.IntPart())
	fee = int(feeAmount.IntPart())
	total = subtotal + fee
	return subtotal, fee, total
}
