package controllers

import (
	"net/http"
	"strconv"

	"github.com/northfarm/sales-backend/api/responses"
	"github.com/northfarm/sales-backend/internal/audit"
	pkgerrors "github.com/northfarm/sales-backend/pkg/errors"
	"github.com/northfarm/sales-backend/pkg/logger"
)

// AuditRecent returns the newest audit records, most recent first. Routed
// behind the admin role gate.
func AuditRecent(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "limit must be a non-negative integer"))
				return
			}
			limit = parsed
		}

		rows, err := svc.Recent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
