package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/eventyard/eventyard-backend/api/middleware"
	"github.com/eventyard/eventyard-backend/api/responses"
	"github.com/eventyard/eventyard-backend/api/validators"
	"github.com/eventyard/eventyard-backend/internal/hotels"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/logger"
)

func hotelActor(r *http.Request) hotels.Actor {
	return hotels.Actor{
		UserID: middleware.UserIDFromContext(r.Context()),
		Role:   middleware.RoleFromContext(r.Context()),
	}
}

type createPackageRequest struct {
	EventID     uuid.UUID `json:"event_id" validate:"required"`
	HotelName   string    `json:"hotel_name" validate:"required,min=1,max=200"`
	Location    string    `json:"location" validate:"required,min=1,max=200"`
	Description string    `json:"description" validate:"max=2000"`
}

func CreateHotelPackage(svc hotels.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hotels service unavailable"))
			return
		}

		var req createPackageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkg, err := svc.CreatePackage(r.Context(), hotelActor(r), hotels.CreatePackageParams{
			EventID:     req.EventID,
			HotelName:   req.HotelName,
			Location:    req.Location,
			Description: req.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pkg)
	}
}

func GetHotelPackage(svc hotels.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hotels service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "packageID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkg, err := svc.GetPackage(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pkg)
	}
}

type updatePackageRequest struct {
	HotelName   *string `json:"hotel_name" validate:"omitempty,min=1,max=200"`
	Location    *string `json:"location" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Active      *bool   `json:"active"`
}

func UpdateHotelPackage(svc hotels.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hotels service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "packageID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updatePackageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkg, err := svc.UpdatePackage(r.Context(), hotelActor(r), id, hotels.PackageUpdate{
			HotelName:   req.HotelName,
			Location:    req.Location,
			Description: req.Description,
			Active:      req.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pkg)
	}
}

func ListEventHotelPackages(svc hotels.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hotels service unavailable"))
			return
		}

		eventID, err := validators.ParseUUIDParam(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		packages, err := svc.ListPackagesForEvent(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, packages)
	}
}

type roomTypeRequest struct {
	Name               string `json:"name" validate:"required,min=1,max=120"`
	PricePerNightCents int    `json:"price_per_night_cents" validate:"required,gte=0"`
	MaxGuests          int    `json:"max_guests" validate:"required,gte=1"`
	Quantity           int    `json:"quantity" validate:"required,gte=0"`
}

func AddRoomType(svc hotels.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hotels service unavailable"))
			return
		}

		packageID, err := validators.ParseUUIDParam(r, "packageID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req roomTypeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roomType, err := svc.AddRoomType(r.Context(), hotelActor(r), packageID, hotels.RoomTypeParams{
			Name:               req.Name,
			PricePerNightCents: req.PricePerNightCents,
			MaxGuests:          req.MaxGuests,
			Quantity:           req.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, roomType)
	}
}

type updateRoomTypeRequest struct {
	Name               *string `json:"name" validate:"omitempty,min=1,max=120"`
	PricePerNightCents *int    `json:"price_per_night_cents" validate:"omitempty,gte=0"`
	MaxGuests          *int    `json:"max_guests" validate:"omitempty,gte=1"`
	Quantity           *int    `json:"quantity" validate:"omitempty,gte=0"`
}

func UpdateRoomType(svc hotels.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hotels service unavailable"))
			return
		}

		roomTypeID, err := validators.ParseUUIDParam(r, "roomTypeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateRoomTypeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roomType, err := svc.UpdateRoomType(r.Context(), hotelActor(r), roomTypeID, hotels.RoomTypeUpdate{
			Name:               req.Name,
			PricePerNightCents: req.PricePerNightCents,
			MaxGuests:          req.MaxGuests,
			Quantity:           req.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, roomType)
	}
}

// PackageAvailability returns the live remaining-stock view per room type.
func PackageAvailability(svc hotels.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hotels service unavailable"))
			return
		}

		packageID, err := validators.ParseUUIDParam(r, "packageID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		availability, err := svc.Availability(r.Context(), packageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, availability)
	}
}
