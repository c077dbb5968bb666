package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/eventyard/eventyard-backend/api/middleware"
	"github.com/eventyard/eventyard-backend/api/responses"
	"github.com/eventyard/eventyard-backend/api/validators"
	"github.com/eventyard/eventyard-backend/internal/favorites"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/logger"
)

type toggleFavoriteRequest struct {
	EntityType string    `json:"entity_type" validate:"required,oneof=provider event package"`
	EntityID   uuid.UUID `json:"entity_id" validate:"required"`
}

// ToggleFavorite flips the favorite state for the given entity.
func ToggleFavorite(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}

		var req toggleFavoriteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Toggle(r.Context(), middleware.UserIDFromContext(r.Context()), enums.FavoriteEntity(req.EntityType), req.EntityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ListFavorites(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := favorites.ListParams{
			UserID: middleware.UserIDFromContext(r.Context()),
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("entity_type")); raw != "" {
			params.EntityType = enums.FavoriteEntity(raw)
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
