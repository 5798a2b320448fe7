package summary

import (
	"context"
	"time"

	"github.com/northfarm/sales-backend/internal/entries"
	pkgerrors "github.com/northfarm/sales-backend/pkg/errors"
)

// Service exposes the read-side aggregation over the ledger.
type Service interface {
	Summarize(ctx context.Context, year int) (*Report, error)
	Years(ctx context.Context) ([]int, error)
}

type service struct {
	sales     entries.SaleRepository
	closures  entries.ClosureRepository
	locations []string
	now       func() time.Time
}

// NewService wires the summary service over the sale and closure repositories.
func NewService(sales entries.SaleRepository, closures entries.ClosureRepository, locations []string) (Service, error) {
	if sales == nil || closures == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "summary repositories required")
	}
	return &service{
		sales:     sales,
		closures:  closures,
		locations: locations,
		now:       time.Now,
	}, nil
}

func (s *service) Summarize(ctx context.Context, year int) (*Report, error) {
	if year < 1000 || year > 9999 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "year out of range").
			WithDetails(map[string]any{"year": year})
	}

	rows, err := s.sales.ListByYear(ctx, year)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entries for year")
	}
	marks, err := s.closures.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load closed dates")
	}

	return Summarize(rows, ClosedSet(marks), year, s.locations), nil
}

// Years lists the years carrying entries, newest first. An empty ledger
// yields the current year so clients always have something to select.
func (s *service) Years(ctx context.Context) ([]int, error) {
	years, err := s.sales.Years(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list entry years")
	}
	if len(years) == 0 {
		years = []int{s.now().UTC().Year()}
	}
	return years, nil
}
