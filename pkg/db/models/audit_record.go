package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/northfarm/sales-backend/pkg/enums"
)

// AuditRecord is one append-only entry in the bounded audit trail. The id is
// storage bookkeeping only and is not part of the API surface.
type AuditRecord struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"-"`
	Action    enums.AuditAction `gorm:"column:action;type:text;not null" json:"action"`
	Detail    string            `gorm:"column:detail;type:text;not null" json:"detail"`
	Actor     string            `gorm:"column:actor;type:text;not null" json:"actor"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime;index" json:"timestamp"`
}
