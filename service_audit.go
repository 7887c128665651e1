package tenantkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// AUDIT LOG
// ============================================================================

// audit writes an audit entry, filling request metadata from context. Audit
// failures are logged but never fail the mutation they describe.
func (s *Service) audit(ctx context.Context, entry *AuditEntry) {
	ac := GetAuditContext(ctx)
	entry.IPAddress = ac.IPAddress
	entry.UserAgent = ac.UserAgent
	entry.RequestID = ac.RequestID

	if _, err := s.db.NewInsert().Model(entry.ToModel()).Exec(ctx); err != nil {
		s.log.Warn().
			Err(err).
			Str("organization_id", entry.OrganizationID).
			Str("action", string(entry.Action)).
			Msg("audit log write failed")
	}
}

// GetAuditLog retrieves audit log entries for one organization with
// optional filters, newest first.
func (s *Service) GetAuditLog(ctx context.Context, orgID string, filter AuditLogFilter) ([]PermissionAuditLog, error) {
	var logs []PermissionAuditLog
	q := s.db.NewSelect().Model(&logs).
		Where("organization_id = ?", orgID)
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.TargetUserID != "" {
		q = q.Where("target_user_id = ?", filter.TargetUserID)
	}
	if filter.RoleID != "" {
		q = q.Where("role_id = ?", filter.RoleID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("timestamp DESC")
	err := dbkit.WithErr1(q.Scan(ctx), "GetAuditLog").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, s.storageErr(ctx, err, "GetAuditLog", orgID)
	}

	return logs, nil
}
