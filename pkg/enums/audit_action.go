package enums

import "fmt"

// AuditAction tags an audit record with the operation that produced it.
type AuditAction string

const (
	AuditActionRecord     AuditAction = "record"
	AuditActionDelete     AuditAction = "delete"
	AuditActionClose      AuditAction = "close"
	AuditActionReopen     AuditAction = "reopen"
	AuditActionAdminLogin AuditAction = "admin_login"
)

var validAuditActions = []AuditAction{
	AuditActionRecord,
	AuditActionDelete,
	AuditActionClose,
	AuditActionReopen,
	AuditActionAdminLogin,
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
