package tickets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/internal/attendance"
	"github.com/eventyard/eventyard-backend/internal/events"
	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/logger"
)

// Actor identifies who is performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IssueParams carries the fields for a newly issued ticket.
type IssueParams struct {
	EventID      uuid.UUID
	HolderUserID uuid.UUID
	Paid         bool
}

// ScanResult is the outcome of a gate scan. Expected states travel in Code so
// the gate client can render each one, only infrastructure failures surface
// as errors.
type ScanResult struct {
	Code            enums.ScanResultCode `json:"code"`
	Ticket          *models.Ticket       `json:"ticket,omitempty"`
	NewAchievements []string             `json:"new_achievements,omitempty"`
}

// Service exposes ticket issuance and gate scanning.
type Service interface {
	Issue(ctx context.Context, actor Actor, params IssueParams) (*models.Ticket, error)
	ListForHolder(ctx context.Context, holderUserID uuid.UUID) ([]models.Ticket, error)
	ListForEvent(ctx context.Context, actor Actor, eventID uuid.UUID) ([]models.Ticket, error)
	Scan(ctx context.Context, actor Actor, eventID uuid.UUID, code string) (*ScanResult, error)
	Unscan(ctx context.Context, actor Actor, ticketID uuid.UUID) (*models.Ticket, error)
}

// ServiceParams groups dependencies for the tickets service.
type ServiceParams struct {
	Repo       Repository
	EventRepo  events.Repository
	Attendance attendance.Service
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	repo       Repository
	eventRepo  events.Repository
	attendance attendance.Service
	logger     *logger.Logger
	now        func() time.Time
}

// NewService wires the tickets service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tickets repository required")
	}
	if params.EventRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "events repository required")
	}
	if params.Attendance == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "attendance service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:       params.Repo,
		eventRepo:  params.EventRepo,
		attendance: params.Attendance,
		logger:     params.Logger,
		now:        now,
	}, nil
}

func (s *service) Issue(ctx context.Context, actor Actor, params IssueParams) (*models.Ticket, error) {
	if err := s.ensureEventOrganizer(ctx, actor, params.EventID); err != nil {
		return nil, err
	}
	if params.HolderUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "holder user id is required")
	}

	paymentStatus := enums.TicketPaymentPending
	if params.Paid {
		paymentStatus = enums.TicketPaymentPaid
	}
	ticket := &models.Ticket{
		ID:            uuid.New(),
		EventID:       params.EventID,
		HolderUserID:  params.HolderUserID,
		Code:          newTicketCode(),
		PaymentStatus: paymentStatus,
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue ticket")
	}
	return ticket, nil
}

func (s *service) ListForHolder(ctx context.Context, holderUserID uuid.UUID) ([]models.Ticket, error) {
	if holderUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	tickets, err := s.repo.ListForHolder(ctx, holderUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tickets")
	}
	return tickets, nil
}

func (s *service) ListForEvent(ctx context.Context, actor Actor, eventID uuid.UUID) ([]models.Ticket, error) {
	if err := s.ensureEventOrganizer(ctx, actor, eventID); err != nil {
		return nil, err
	}
	tickets, err := s.repo.ListForEvent(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list event tickets")
	}
	return tickets, nil
}

func (s *service) Scan(ctx context.Context, actor Actor, eventID uuid.UUID, code string) (*ScanResult, error) {
	if err := s.ensureEventOrganizer(ctx, actor, eventID); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket code is required")
	}

	ticket, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ScanResult{Code: enums.ScanNotFound}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	if ticket.EventID != eventID {
		return &ScanResult{Code: enums.ScanWrongEvent, Ticket: ticket}, nil
	}
	if ticket.PaymentStatus != enums.TicketPaymentPaid {
		return &ScanResult{Code: enums.ScanPendingPayment, Ticket: ticket}, nil
	}
	if ticket.ScannedAt != nil {
		return &ScanResult{Code: enums.ScanAlreadyScanned, Ticket: ticket}, nil
	}

	scannedAt := s.now().UTC()
	won, err := s.repo.MarkScanned(ctx, ticket.ID, scannedAt, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark ticket scanned")
	}
	if !won {
		// Another scanner got there between the read and the update.
		refreshed, err := s.repo.FindByID(ctx, ticket.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload ticket")
		}
		return &ScanResult{Code: enums.ScanAlreadyScanned, Ticket: refreshed}, nil
	}

	ticket.ScannedAt = &scannedAt
	scannedBy := actor.UserID
	ticket.ScannedBy = &scannedBy

	result := &ScanResult{Code: enums.ScanOK, Ticket: ticket}
	checkIn, err := s.attendance.RecordCheckIn(ctx, ticket.HolderUserID, eventID, scannedAt)
	if err != nil {
		// The scan already stuck, attendance can be replayed on a later scan.
		s.logger.Error(ctx, "attendance record failed after scan", err)
		return result, nil
	}
	result.NewAchievements = checkIn.NewlyEarned
	return result, nil
}

func (s *service) Unscan(ctx context.Context, actor Actor, ticketID uuid.UUID) (*models.Ticket, error) {
	if ticketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id is required")
	}
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	if err := s.ensureEventOrganizer(ctx, actor, ticket.EventID); err != nil {
		return nil, err
	}

	cleared, err := s.repo.ClearScan(ctx, ticketID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear ticket scan")
	}
	if !cleared {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is not scanned")
	}
	return s.repo.FindByID(ctx, ticketID)
}

func (s *service) ensureEventOrganizer(ctx context.Context, actor Actor, eventID uuid.UUID) error {
	if eventID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "event not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	if event.OrganizerID != actor.UserID && actor.Role != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not the event organizer")
	}
	return nil
}

// newTicketCode mints the human-scannable code printed on the ticket.
func newTicketCode() string {
	return "TKT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
