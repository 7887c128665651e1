package tenantkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestRolePermissionPermission tests the stored pair conversion
func TestRolePermissionPermission(t *testing.T) {
	rp := RolePermission{FeatureArea: "clients", PermissionType: "view"}
	p := rp.Permission()
	assert.Equal(t, FeatureClients, p.Feature)
	assert.Equal(t, ActionView, p.Action)
	assert.True(t, p.Valid())

	// Rows with junk pairs convert but never validate
	rp = RolePermission{FeatureArea: "billing", PermissionType: "nuke"}
	assert.False(t, rp.Permission().Valid())
}

// TestAuditEntryToModel tests conversion to the storage model
func TestAuditEntryToModel(t *testing.T) {
	entry := &AuditEntry{
		ActorID:        "actor-1",
		Action:         AuditActionPermissionGranted,
		OrganizationID: "org-1",
		TargetUserID:   "user-2",
		RoleID:         "role-1",
		RoleName:       "sales",
		Permission:     "clients.view",
		PreviousState:  []string{"clients.create"},
		NewState:       []string{"clients.create", "clients.view"},
		IPAddress:      "10.0.0.1",
		UserAgent:      "test-agent",
		RequestID:      "req-1",
		Metadata:       map[string]any{"source": "api"},
	}

	before := time.Now().UTC()
	model := entry.ToModel()

	assert.Equal(t, "actor-1", model.ActorID)
	assert.Equal(t, "permission_granted", model.Action)
	assert.Equal(t, "org-1", model.OrganizationID)
	assert.Equal(t, "user-2", model.TargetUserID)
	assert.Equal(t, "role-1", model.RoleID)
	assert.Equal(t, "sales", model.RoleName)
	assert.Equal(t, "clients.view", model.Permission)
	assert.Equal(t, []string{"clients.create"}, model.PreviousState)
	assert.Equal(t, []string{"clients.create", "clients.view"}, model.NewState)
	assert.Equal(t, "10.0.0.1", model.IPAddress)
	assert.Equal(t, "test-agent", model.UserAgent)
	assert.Equal(t, "req-1", model.RequestID)
	assert.Equal(t, "api", model.Metadata["source"])
	assert.False(t, model.Timestamp.Before(before))
}

// TestAuditActions tests the audit action constants
func TestAuditActions(t *testing.T) {
	assert.Equal(t, AuditAction("role_created"), AuditActionRoleCreated)
	assert.Equal(t, AuditAction("role_deleted"), AuditActionRoleDeleted)
	assert.Equal(t, AuditAction("permission_granted"), AuditActionPermissionGranted)
	assert.Equal(t, AuditAction("permission_revoked"), AuditActionPermissionRevoked)
	assert.Equal(t, AuditAction("role_assigned"), AuditActionRoleAssigned)
	assert.Equal(t, AuditAction("role_revoked"), AuditActionRoleRevoked)
}
