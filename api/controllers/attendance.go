package controllers

import (
	"net/http"

	"github.com/eventyard/eventyard-backend/api/middleware"
	"github.com/eventyard/eventyard-backend/api/responses"
	"github.com/eventyard/eventyard-backend/internal/attendance"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/logger"
)

// MyAttendanceHistory returns the caller's check-in history and achievements.
func MyAttendanceHistory(svc attendance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attendance service unavailable"))
			return
		}

		history, err := svc.HistoryForUser(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}
