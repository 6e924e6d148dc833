package reports

import (
	"context"
	"fmt"

	"github.com/agrosense/plant-health/internal/access"
	"github.com/agrosense/plant-health/internal/models"
)

// AuditReader lists audit entries newest first.
type AuditReader interface {
	List(ctx context.Context, limit, offset int) ([]models.AuditLog, int, error)
}

// AuditLog exposes the audit trail to administrators.
type AuditLog struct {
	reader AuditReader
	policy access.Policy
}

// NewAuditLog creates the audit query service.
func NewAuditLog(reader AuditReader, policy access.Policy) *AuditLog {
	if policy == nil {
		policy = access.NewRolePolicy()
	}
	return &AuditLog{reader: reader, policy: policy}
}

// List returns one page of audit entries. Only administrators may read the
// trail.
func (a *AuditLog) List(ctx context.Context, p access.Principal, page, pageSize int) ([]models.AuditLog, models.Pagination, error) {
	if !a.policy.IsAdmin(p) {
		return nil, models.Pagination{}, ErrForbidden
	}
	page, pageSize = normalizePage(page, pageSize)

	entries, total, err := a.reader.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("%w: list audit logs: %v", ErrPersistence, err)
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}
	return entries, paginate(page, pageSize, total), nil
}
