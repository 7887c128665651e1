package tenantkit

import (
	"time"

	"github.com/uptrace/bun"
)

// Organization is the root of tenant isolation. Every entity row and every
// role belongs to exactly one organization; organizations are never merged
// or split.
type Organization struct {
	bun.BaseModel `bun:"table:organizations,alias:o"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name      string    `bun:"name,notnull"`
	Slug      string    `bun:"slug,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// OrganizationMembership is the tenant-membership edge. A user may hold
// memberships in multiple organizations; the resolver picks exactly one
// active organization per request.
type OrganizationMembership struct {
	bun.BaseModel `bun:"table:organization_memberships,alias:om"`

	ID             string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	OrganizationID string    `bun:"organization_id,notnull,type:uuid"`
	UserID         string    `bun:"user_id,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Role is an organization-scoped bundle of permissions. Organization A can
// never see or reuse organization B's roles.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID             string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	OrganizationID string    `bun:"organization_id,notnull,type:uuid"`
	Name           string    `bun:"name,notnull"`
	IsDefault      bool      `bun:"is_default,notnull,default:false"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// RolePermission grants one catalog permission to a role. The permission
// itself is identified by its (feature_area, permission_type) pair; the
// catalog lives in code, not in a table.
type RolePermission struct {
	bun.BaseModel `bun:"table:role_permissions,alias:rp"`

	ID             string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	RoleID         string    `bun:"role_id,notnull,type:uuid"`
	OrganizationID string    `bun:"organization_id,notnull,type:uuid"`
	FeatureArea    string    `bun:"feature_area,notnull"`
	PermissionType string    `bun:"permission_type,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Permission returns the catalog pair stored in this grant.
func (rp *RolePermission) Permission() Permission {
	return Permission{Feature: FeatureArea(rp.FeatureArea), Action: Action(rp.PermissionType)}
}

// UserRoleAssignment binds a user to a role within one organization. A user
// may hold multiple roles in the same organization; effective permissions
// are the union across all of them. The assignment's organization always
// matches the role's organization; AssignRole enforces this.
type UserRoleAssignment struct {
	bun.BaseModel `bun:"table:user_role_assignments,alias:ura"`

	ID             string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID         string    `bun:"user_id,notnull"`
	RoleID         string    `bun:"role_id,notnull,type:uuid"`
	OrganizationID string    `bun:"organization_id,notnull,type:uuid"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// PermissionAuditLog records every role, grant, and assignment change for
// compliance and debugging.
type PermissionAuditLog struct {
	bun.BaseModel `bun:"table:permission_audit_log,alias:pal"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp"`

	// Who performed the action
	ActorID string `bun:"actor_id,notnull"`

	// What action was performed
	Action string `bun:"action,notnull"`

	// Target of the action
	OrganizationID string `bun:"organization_id,notnull,type:uuid"`
	TargetUserID   string `bun:"target_user_id"`
	RoleID         string `bun:"role_id"`
	RoleName       string `bun:"role_name"`
	Permission     string `bun:"permission"`

	// Context: what did the target's grants look like around the change?
	PreviousState []string `bun:"previous_state,type:text[]"`
	NewState      []string `bun:"new_state,type:text[]"`

	// Request metadata for forensics
	IPAddress string `bun:"ip_address"`
	UserAgent string `bun:"user_agent"`
	RequestID string `bun:"request_id"`

	Metadata map[string]any `bun:"metadata,type:jsonb"`
}

// AuditAction represents the type of action in the audit log.
type AuditAction string

const (
	AuditActionRoleCreated       AuditAction = "role_created"
	AuditActionRoleDeleted       AuditAction = "role_deleted"
	AuditActionPermissionGranted AuditAction = "permission_granted"
	AuditActionPermissionRevoked AuditAction = "permission_revoked"
	AuditActionRoleAssigned      AuditAction = "role_assigned"
	AuditActionRoleRevoked       AuditAction = "role_revoked"
)

// AuditEntry is used to create new audit log entries.
type AuditEntry struct {
	ActorID        string
	Action         AuditAction
	OrganizationID string
	TargetUserID   string
	RoleID         string
	RoleName       string
	Permission     string
	PreviousState  []string
	NewState       []string
	IPAddress      string
	UserAgent      string
	RequestID      string
	Metadata       map[string]any
}

// ToModel converts an AuditEntry to a PermissionAuditLog model.
func (e *AuditEntry) ToModel() *PermissionAuditLog {
	return &PermissionAuditLog{
		ActorID:        e.ActorID,
		Action:         string(e.Action),
		OrganizationID: e.OrganizationID,
		TargetUserID:   e.TargetUserID,
		RoleID:         e.RoleID,
		RoleName:       e.RoleName,
		Permission:     e.Permission,
		PreviousState:  e.PreviousState,
		NewState:       e.NewState,
		IPAddress:      e.IPAddress,
		UserAgent:      e.UserAgent,
		RequestID:      e.RequestID,
		Metadata:       e.Metadata,
		Timestamp:      time.Now().UTC(),
	}
}
