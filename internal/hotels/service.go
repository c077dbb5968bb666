package hotels

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/internal/events"
	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
)

// Actor identifies who is performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreatePackageParams carries the fields for a new hotel package.
type CreatePackageParams struct {
	EventID     uuid.UUID
	HotelName   string
	Location    string
	Description string
}

// PackageUpdate enumerates the patchable package fields.
type PackageUpdate struct {
	HotelName   *string
	Location    *string
	Description *string
	Active      *bool
}

// RoomTypeParams carries the fields for a new room type.
type RoomTypeParams struct {
	Name               string
	PricePerNightCents int
	MaxGuests          int
	Quantity           int
}

// RoomTypeUpdate enumerates the patchable room type fields.
type RoomTypeUpdate struct {
	Name               *string
	PricePerNightCents *int
	MaxGuests          *int
	Quantity           *int
}

// RoomAvailability is the public availability view of one room type.
type RoomAvailability struct {
	RoomTypeID         uuid.UUID `json:"room_type_id"`
	Name               string    `json:"name"`
	PricePerNightCents int       `json:"price_per_night_cents"`
	MaxGuests          int       `json:"max_guests"`
	Available          int       `json:"available"`
}

// Service exposes organizer package management and public availability reads.
type Service interface {
	CreatePackage(ctx context.Context, actor Actor, params CreatePackageParams) (*models.HotelPackage, error)
	GetPackage(ctx context.Context, id uuid.UUID) (*models.HotelPackage, error)
	UpdatePackage(ctx context.Context, actor Actor, id uuid.UUID, updates PackageUpdate) (*models.HotelPackage, error)
	ListPackagesForEvent(ctx context.Context, eventID uuid.UUID) ([]models.HotelPackage, error)
	AddRoomType(ctx context.Context, actor Actor, packageID uuid.UUID, params RoomTypeParams) (*models.RoomType, error)
	UpdateRoomType(ctx context.Context, actor Actor, roomTypeID uuid.UUID, updates RoomTypeUpdate) (*models.RoomType, error)
	Availability(ctx context.Context, packageID uuid.UUID) ([]RoomAvailability, error)
}

// ServiceParams groups dependencies for the hotels service.
type ServiceParams struct {
	Repo      Repository
	EventRepo events.Repository
}

type service struct {
	repo      Repository
	eventRepo events.Repository
}

// NewService wires the hotels service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "hotels repository required")
	}
	if params.EventRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "events repository required")
	}
	return &service{repo: params.Repo, eventRepo: params.EventRepo}, nil
}

func (s *service) CreatePackage(ctx context.Context, actor Actor, params CreatePackageParams) (*models.HotelPackage, error) {
	if err := s.ensureEventOrganizer(ctx, actor, params.EventID); err != nil {
		return nil, err
	}
	hotelName := strings.TrimSpace(params.HotelName)
	if hotelName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hotel name is required")
	}

	pkg := &models.HotelPackage{
		ID:          uuid.New(),
		EventID:     params.EventID,
		HotelName:   hotelName,
		Location:    strings.TrimSpace(params.Location),
		Description: strings.TrimSpace(params.Description),
		Active:      true,
	}
	if err := s.repo.CreatePackage(ctx, pkg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create hotel package")
	}
	return pkg, nil
}

func (s *service) GetPackage(ctx context.Context, id uuid.UUID) (*models.HotelPackage, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "package id is required")
	}
	pkg, err := s.repo.FindPackageByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "hotel package not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load hotel package")
	}
	return pkg, nil
}

func (s *service) UpdatePackage(ctx context.Context, actor Actor, id uuid.UUID, updates PackageUpdate) (*models.HotelPackage, error) {
	pkg, err := s.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEventOrganizer(ctx, actor, pkg.EventID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if updates.HotelName != nil {
		name := strings.TrimSpace(*updates.HotelName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "hotel name cannot be empty")
		}
		fields["hotel_name"] = name
	}
	if updates.Location != nil {
		fields["location"] = strings.TrimSpace(*updates.Location)
	}
	if updates.Description != nil {
		fields["description"] = strings.TrimSpace(*updates.Description)
	}
	if updates.Active != nil {
		fields["active"] = *updates.Active
	}

	if len(fields) > 0 {
		if err := s.repo.UpdatePackage(ctx, id, fields); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update hotel package")
		}
	}
	return s.GetPackage(ctx, id)
}

func (s *service) ListPackagesForEvent(ctx context.Context, eventID uuid.UUID) ([]models.HotelPackage, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	packages, err := s.repo.ListPackagesForEvent(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list hotel packages")
	}
	return packages, nil
}

func (s *service) AddRoomType(ctx context.Context, actor Actor, packageID uuid.UUID, params RoomTypeParams) (*models.RoomType, error) {
	pkg, err := s.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEventOrganizer(ctx, actor, pkg.EventID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room type name is required")
	}
	if params.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if params.PricePerNightCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	maxGuests := params.MaxGuests
	if maxGuests <= 0 {
		maxGuests = 2
	}

	roomType := &models.RoomType{
		ID:                 uuid.New(),
		PackageID:          packageID,
		Name:               name,
		PricePerNightCents: params.PricePerNightCents,
		MaxGuests:          maxGuests,
		Quantity:           params.Quantity,
	}
	if err := s.repo.AddRoomType(ctx, roomType); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add room type")
	}
	return roomType, nil
}

func (s *service) UpdateRoomType(ctx context.Context, actor Actor, roomTypeID uuid.UUID, updates RoomTypeUpdate) (*models.RoomType, error) {
	roomType, err := s.findRoomType(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	pkg, err := s.GetPackage(ctx, roomType.PackageID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEventOrganizer(ctx, actor, pkg.EventID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if updates.Name != nil {
		name := strings.TrimSpace(*updates.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "room type name cannot be empty")
		}
		fields["name"] = name
	}
	if updates.PricePerNightCents != nil {
		if *updates.PricePerNightCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		fields["price_per_night_cents"] = *updates.PricePerNightCents
	}
	if updates.MaxGuests != nil {
		if *updates.MaxGuests <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max guests must be positive")
		}
		fields["max_guests"] = *updates.MaxGuests
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateRoomType(ctx, roomTypeID, fields); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update room type")
		}
	}

	if updates.Quantity != nil {
		if *updates.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
		}
		ok, err := s.repo.SetRoomTypeQuantity(ctx, roomTypeID, *updates.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set room type quantity")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quantity cannot drop below rooms already sold")
		}
	}

	return s.findRoomType(ctx, roomTypeID)
}

func (s *service) Availability(ctx context.Context, packageID uuid.UUID) ([]RoomAvailability, error) {
	pkg, err := s.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}

	availability := make([]RoomAvailability, 0, len(pkg.RoomTypes))
	for _, roomType := range pkg.RoomTypes {
		available := roomType.Quantity - roomType.Sold
		if available < 0 {
			available = 0
		}
		availability = append(availability, RoomAvailability{
			RoomTypeID:         roomType.ID,
			Name:               roomType.Name,
			PricePerNightCents: roomType.PricePerNightCents,
			MaxGuests:          roomType.MaxGuests,
			Available:          available,
		})
	}
	return availability, nil
}

func (s *service) findRoomType(ctx context.Context, id uuid.UUID) (*models.RoomType, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room type id is required")
	}
	roomType, err := s.repo.FindRoomTypeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "room type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load room type")
	}
	return roomType, nil
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
