package controllers

import (
	"net/http"
	"strconv"

	"github.com/northfarm/sales-backend/api/responses"
	"github.com/northfarm/sales-backend/internal/summary"
	pkgerrors "github.com/northfarm/sales-backend/pkg/errors"
	"github.com/northfarm/sales-backend/pkg/logger"
)

// SummaryReport returns the yearly aggregation. The year query parameter
// defaults to the newest year carrying entries.
func SummaryReport(svc summary.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, err := resolveYear(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Summarize(r.Context(), year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// SummaryYears lists the selectable years.
func SummaryYears(svc summary.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		years, err := svc.Years(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"years": years})
	}
}

func resolveYear(r *http.Request, svc summary.Service) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		years, err := svc.Years(r.Context())
		if err != nil {
			return 0, err
		}
		return years[0], nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "year must be numeric").
			WithDetails(map[string]any{"year": raw})
	}
	return year, nil
}
