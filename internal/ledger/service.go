package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/northfarm/sales-backend/internal/audit"
	"github.com/northfarm/sales-backend/internal/entries"
	"github.com/northfarm/sales-backend/internal/permissions"
	"github.com/northfarm/sales-backend/pkg/config"
	"github.com/northfarm/sales-backend/pkg/db/models"
	"github.com/northfarm/sales-backend/pkg/enums"
	pkgerrors "github.com/northfarm/sales-backend/pkg/errors"
	"github.com/northfarm/sales-backend/pkg/logger"
	"github.com/northfarm/sales-backend/pkg/metrics"
)

const dateLayout = "2006-01-02"

// RecordSaleInput carries a new cash sale.
type RecordSaleInput struct {
	Date     string          `json:"date" validate:"required"`
	Location string          `json:"location" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Memo     string          `json:"memo" validate:"omitempty,max=500"`
}

// Service is the ledger write engine: recording and deleting sales, and the
// day-closing ratchet. Every successful mutation lands an audit record and
// triggers a snapshot publish.
type Service interface {
	RecordSale(ctx context.Context, actor permissions.Actor, in RecordSaleInput) (*models.SaleEntry, error)
	DeleteSale(ctx context.Context, actor permissions.Actor, id uuid.UUID) error
	CloseDay(ctx context.Context, actor permissions.Actor, date string) (*models.ClosedDate, error)
	ReopenDay(ctx context.Context, actor permissions.Actor, date string) error
	ListSales(ctx context.Context) ([]models.SaleEntry, error)
	ListClosedDates(ctx context.Context) ([]models.ClosedDate, error)
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SnapshotPublisher pushes the current ledger state to live consumers.
type SnapshotPublisher interface {
	PublishCurrent(ctx context.Context) error
}

type service struct {
	tx        TxRunner
	sales     entries.SaleRepository
	closures  entries.ClosureRepository
	trail     audit.Service
	cfg       config.LedgerConfig
	meter     *metrics.LedgerMetrics
	publisher SnapshotPublisher
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the ledger service.
func NewService(
	tx TxRunner,
	sales entries.SaleRepository,
	closures entries.ClosureRepository,
	trail audit.Service,
	cfg config.LedgerConfig,
	meter *metrics.LedgerMetrics,
	publisher SnapshotPublisher,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil || sales == nil || closures == nil || trail == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger service dependencies required")
	}
	return &service{
		tx:        tx,
		sales:     sales,
		closures:  closures,
		trail:     trail,
		cfg:       cfg,
		meter:     meter,
		publisher: publisher,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) RecordSale(ctx context.Context, actor permissions.Actor, in RecordSaleInput) (*models.SaleEntry, error) {
	const op = "record_sale"

	if !actor.Known() {
		s.meter.IncFailure(op)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown actor")
	}
	if err := s.validateInput(in); err != nil {
		s.meter.IncFailure(op)
		return nil, err
	}

	entry := &models.SaleEntry{
		ID:       uuid.New(),
		Date:     in.Date,
		Location: in.Location,
		Amount:   in.Amount,
		Memo:     strings.TrimSpace(in.Memo),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		closures := s.closures.WithTx(tx)
		closed, err := closures.IsClosed(ctx, in.Date)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check closed status")
		}
		if !permissions.CanMutate(actor, closed) {
			return pkgerrors.New(pkgerrors.CodeDateClosed, "date is closed").
				WithDetails(map[string]any{"date": in.Date})
		}
		if err := s.sales.WithTx(tx).Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store sale entry")
		}
		detail := fmt.Sprintf("recorded %s at %s on %s", entry.Amount, entry.Location, entry.Date)
		return s.appendAudit(ctx, tx, enums.AuditActionRecord, detail, actor.Username)
	})
	if err != nil {
		s.meter.IncFailure(op)
		return nil, err
	}

	s.meter.IncSuccess(op)
	s.publishSnapshot(ctx)
	return entry, nil
}

func (s *service) DeleteSale(ctx context.Context, actor permissions.Actor, id uuid.UUID) error {
	const op = "delete_sale"

	if !actor.Known() {
		s.meter.IncFailure(op)
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown actor")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sales := s.sales.WithTx(tx)
		entry, err := sales.GetByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale entry")
		}
		if entry == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sale entry not found")
		}

		closed, err := s.closures.WithTx(tx).IsClosed(ctx, entry.Date)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check closed status")
		}
		if !permissions.CanMutate(actor, closed) {
			return pkgerrors.New(pkgerrors.CodeDateClosed, "date is closed").
				WithDetails(map[string]any{"date": entry.Date})
		}

		removed, err := sales.Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete sale entry")
		}
		if !removed {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sale entry not found")
		}
		detail := fmt.Sprintf("deleted %s at %s on %s", entry.Amount, entry.Location, entry.Date)
		return s.appendAudit(ctx, tx, enums.AuditActionDelete, detail, actor.Username)
	})
	if err != nil {
		s.meter.IncFailure(op)
		return err
	}

	s.meter.IncSuccess(op)
	s.publishSnapshot(ctx)
	return nil
}

func (s *service) CloseDay(ctx context.Context, actor permissions.Actor, date string) (*models.ClosedDate, error) {
	const op = "close_day"

	if !permissions.CanClose(actor) {
		s.meter.IncFailure(op)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown actor")
	}
	if err := validateDate(date); err != nil {
		s.meter.IncFailure(op)
		return nil, err
	}

	mark := &models.ClosedDate{
		Date:     date,
		ClosedAt: s.now().UTC(),
		ClosedBy: actor.Username,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		closures := s.closures.WithTx(tx)
		closed, err := closures.IsClosed(ctx, date)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check closed status")
		}
		if closed {
			return pkgerrors.New(pkgerrors.CodeAlreadyClosed, "date already closed").
				WithDetails(map[string]any{"date": date})
		}

		count, err := s.sales.WithTx(tx).CountByDate(ctx, date)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count entries for date")
		}
		if count == 0 {
			return pkgerrors.New(pkgerrors.CodeNoEntries, "no entries recorded for date").
				WithDetails(map[string]any{"date": date})
		}

		if err := closures.MarkClosed(ctx, mark); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark date closed")
		}
		return s.appendAudit(ctx, tx, enums.AuditActionClose, fmt.Sprintf("closed %s", date), actor.Username)
	})
	if err != nil {
		s.meter.IncFailure(op)
		return nil, err
	}

	s.meter.IncSuccess(op)
	s.publishSnapshot(ctx)
	return mark, nil
}

func (s *service) ReopenDay(ctx context.Context, actor permissions.Actor, date string) error {
	const op = "reopen_day"

	if !actor.Known() {
		s.meter.IncFailure(op)
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown actor")
	}
	if !permissions.CanReopen(actor) {
		s.meter.IncFailure(op)
		return pkgerrors.New(pkgerrors.CodeForbidden, "reopening requires an administrator")
	}
	if err := validateDate(date); err != nil {
		s.meter.IncFailure(op)
		return err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		removed, err := s.closures.WithTx(tx).UnmarkClosed(ctx, date)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unmark date")
		}
		if !removed {
			return pkgerrors.New(pkgerrors.CodeNotClosed, "date is not closed").
				WithDetails(map[string]any{"date": date})
		}
		return s.appendAudit(ctx, tx, enums.AuditActionReopen, fmt.Sprintf("reopened %s", date), actor.Username)
	})
	if err != nil {
		s.meter.IncFailure(op)
		return err
	}

	s.meter.IncSuccess(op)
	s.publishSnapshot(ctx)
	return nil
}

func (s *service) ListSales(ctx context.Context) ([]models.SaleEntry, error) {
	rows, err := s.sales.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sale entries")
	}
	return rows, nil
}

func (s *service) ListClosedDates(ctx context.Context) ([]models.ClosedDate, error) {
	rows, err := s.closures.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list closed dates")
	}
	return rows, nil
}

func (s *service) validateInput(in RecordSaleInput) error {
	if err := validateDate(in.Date); err != nil {
		return err
	}
	if strings.TrimSpace(in.Location) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "location is required")
	}
	if !s.cfg.HasLocation(in.Location) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown location").
			WithDetails(map[string]any{"location": in.Location, "known": s.cfg.Locations})
	}
	if in.Amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative").
			WithDetails(map[string]any{"amount": in.Amount})
	}
	return nil
}

func validateDate(date string) error {
	if date == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}
	parsed, err := time.Parse(dateLayout, date)
	if err != nil || parsed.Format(dateLayout) != date {
		return pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD").
			WithDetails(map[string]any{"date": date})
	}
	return nil
}

// appendAudit writes the audit record inside the mutation's transaction so a
// rolled-back write never leaves a trail entry behind.
func (s *service) appendAudit(ctx context.Context, tx *gorm.DB, action enums.AuditAction, detail, actor string) error {
	return s.trail.WithTx(tx).Append(ctx, action, detail, actor)
}

// publishSnapshot fans the new state out without blocking the caller. The
// publisher logs its own failures.
func (s *service) publishSnapshot(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		publishCtx, cancel := context.WithTimeout(bg, 5*time.Second)
		defer cancel()
		_ = s.publisher.PublishCurrent(publishCtx)
	}()
}
