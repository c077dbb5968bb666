package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/eventyard/eventyard-backend/api/middleware"
	"github.com/eventyard/eventyard-backend/api/responses"
	"github.com/eventyard/eventyard-backend/api/validators"
	"github.com/eventyard/eventyard-backend/internal/providers"
	"github.com/eventyard/eventyard-backend/pkg/db/models"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/logger"
)

func providerActor(r *http.Request) providers.Actor {
	return providers.Actor{
		UserID: middleware.UserIDFromContext(r.Context()),
		Role:   middleware.RoleFromContext(r.Context()),
	}
}

type applyProviderRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Category    string `json:"category" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

// ApplyProvider submits a provider application for moderation.
func ApplyProvider(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "providers service unavailable"))
			return
		}

		var req applyProviderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		provider, err := svc.Apply(r.Context(), providerActor(r), providers.ApplyParams{
			Name:        req.Name,
			Category:    req.Category,
			Description: req.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, provider)
	}
}

// ProviderStatus shows the caller their own application regardless of state.
func ProviderStatus(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "providers service unavailable"))
			return
		}

		provider, err := svc.StatusForOwner(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, provider)
	}
}

func GetProvider(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "providers service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "providerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		provider, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, provider)
	}
}

func ListProviders(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "providers service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListApproved(r.Context(), providers.ListParams{
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ListPendingProviders(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "providers service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListPending(r.Context(), providerActor(r), providers.ListParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type providerDecisionRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

func ApproveProvider(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return providerDecision(svc, logg, func(svc providers.Service) decisionFunc { return svc.Approve })
}

func RejectProvider(svc providers.Service, logg *logger.Logger) http.HandlerFunc {
	return providerDecision(svc, logg, func(svc providers.Service) decisionFunc { return svc.Reject })
}

type decisionFunc = func(ctx context.Context, actor providers.Actor, id uuid.UUID, notes string) (*models.ServiceProvider, error)

func providerDecision(svc providers.Service, logg *logger.Logger, pick func(providers.Service) decisionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "providers service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "providerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req providerDecisionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		provider, err := pick(svc)(r.Context(), providerActor(r), id, req.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, provider)
	}
}
