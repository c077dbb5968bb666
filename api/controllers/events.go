package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/eventyard/eventyard-backend/api/middleware"
	"github.com/eventyard/eventyard-backend/api/responses"
	"github.com/eventyard/eventyard-backend/api/validators"
	"github.com/eventyard/eventyard-backend/internal/events"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/logger"
)

const maxPageSize = 100

func eventActor(r *http.Request) events.Actor {
	return events.Actor{
		UserID: middleware.UserIDFromContext(r.Context()),
		Role:   middleware.RoleFromContext(r.Context()),
	}
}

type createEventRequest struct {
	Title              string    `json:"title" validate:"required,min=1,max=200"`
	Venue              string    `json:"venue" validate:"required,min=1,max=200"`
	StartDate          time.Time `json:"start_date" validate:"required"`
	BookingCutoffHours *int      `json:"booking_cutoff_hours" validate:"omitempty,gte=0"`
}

func CreateEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		var req createEventRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.Create(r.Context(), eventActor(r), events.CreateParams{
			Title:              req.Title,
			Venue:              req.Venue,
			StartDate:          req.StartDate,
			BookingCutoffHours: req.BookingCutoffHours,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, event)
	}
}

func GetEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, event)
	}
}

type updateEventRequest struct {
	Title              *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Venue              *string    `json:"venue" validate:"omitempty,min=1,max=200"`
	StartDate          *time.Time `json:"start_date"`
	BookingCutoffHours *int       `json:"booking_cutoff_hours" validate:"omitempty,gte=0"`
	Status             *string    `json:"status" validate:"omitempty,oneof=draft published archived"`
}

func UpdateEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateEventRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updates := events.Update{
			Title:              req.Title,
			Venue:              req.Venue,
			StartDate:          req.StartDate,
			BookingCutoffHours: req.BookingCutoffHours,
		}
		if req.Status != nil {
			status := enums.EventStatus(*req.Status)
			updates.Status = &status
		}

		event, err := svc.Update(r.Context(), eventActor(r), id, updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, event)
	}
}

func ListEvents(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		result, err := svc.ListPublished(r.Context(), limit, cursor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ListMyEvents(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "events service unavailable"))
			return
		}

		list, err := svc.ListForOrganizer(r.Context(), eventActor(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
