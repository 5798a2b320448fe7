package audit

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/northfarm/sales-backend/pkg/db/models"
	"github.com/northfarm/sales-backend/pkg/enums"
	pkgerrors "github.com/northfarm/sales-backend/pkg/errors"
)

// DefaultCap bounds the trail when no explicit cap is configured.
const DefaultCap = 200

// Service defines the append-only audit trail operations. Records are
// immutable and unaddressable; the trail keeps only the newest cap entries.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Append(ctx context.Context, action enums.AuditAction, detail, actor string) error
	Recent(ctx context.Context, n int) ([]models.AuditRecord, error)
}

type service struct {
	repo Repository
	cap  int
}

// NewService wires an audit service with the provided repository and cap.
func NewService(repo Repository, cap int) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit repository required")
	}
	if cap <= 0 {
		cap = DefaultCap
	}
	return &service{repo: repo, cap: cap}, nil
}

// WithTx returns a service writing through the transaction-scoped repository.
func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), cap: s.cap}
}

func (s *service) Append(ctx context.Context, action enums.AuditAction, detail, actor string) error {
	if !action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid audit action")
	}
	if strings.TrimSpace(actor) == "" {
		actor = "unknown"
	}

	record := &models.AuditRecord{
		ID:     uuid.New(),
		Action: action,
		Detail: detail,
		Actor:  actor,
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit record")
	}
	if err := s.repo.PruneBeyond(ctx, s.cap); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "prune audit trail")
	}
	return nil
}

func (s *service) Recent(ctx context.Context, n int) ([]models.AuditRecord, error) {
	if n <= 0 || n > s.cap {
		n = s.cap
	}
	rows, err := s.repo.Recent(ctx, n)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit records")
	}
	return rows, nil
}
