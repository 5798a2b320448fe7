package controllers

import (
	"net/http"

	"github.com/northfarm/sales-backend/api/middleware"
	"github.com/northfarm/sales-backend/api/responses"
	"github.com/northfarm/sales-backend/api/validators"
	"github.com/northfarm/sales-backend/internal/ledger"
	"github.com/northfarm/sales-backend/pkg/logger"
)

type closureRequest struct {
	Date string `json:"date" validate:"required"`
}

// ClosuresList returns the closed-date marks, newest first.
func ClosuresList(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListClosedDates(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ClosuresClose locks a date. Any authenticated actor may close a day with
// at least one entry.
func ClosuresClose(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body closureRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		mark, err := svc.CloseDay(r.Context(), actor, body.Date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, mark)
	}
}

// ClosuresReopen unlocks a closed date. Routed behind the admin role gate.
func ClosuresReopen(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body closureRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if err := svc.ReopenDay(r.Context(), actor, body.Date); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "reopened", "date": body.Date})
	}
}
