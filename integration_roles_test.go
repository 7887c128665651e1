package tenantkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIntegrationFailClosed tests that a member with no role assignments is
// denied everything
func TestIntegrationFailClosed(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	owner := h.CreateTestUser("fc-owner")
	stranger := h.CreateTestUser("fc-stranger")
	orgID := h.BootstrapOrg(owner)

	for _, p := range AllPermissions() {
		h.AssertPermissionDenied(stranger, orgID, p.Feature, p.Action)
	}

	checker, err := h.service.GetChecker(h.ctx, stranger, orgID)
	assert.NoError(t, err)
	assert.True(t, checker.IsEmpty())
}

// TestIntegrationRoleUnion tests that permissions union across a user's
// roles
func TestIntegrationRoleUnion(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	owner := h.CreateTestUser("union-owner")
	member := h.CreateTestUser("union-member")
	orgID := h.BootstrapOrg(owner)
	ctx := h.ActorContext(owner)

	viewer := h.CreateTestRole(owner, orgID, "viewer")
	assert.NoError(t, h.service.Grant(ctx, orgID, viewer.ID, Permission{Feature: FeatureClients, Action: ActionView}))

	cleaner := h.CreateTestRole(owner, orgID, "cleaner")
	assert.NoError(t, h.service.Grant(ctx, orgID, cleaner.ID, Permission{Feature: FeatureClients, Action: ActionDelete}))

	assert.NoError(t, h.service.AssignRole(ctx, orgID, member, viewer.ID))
	assert.NoError(t, h.service.AssignRole(ctx, orgID, member, cleaner.ID))

	h.AssertPermissionGranted(member, orgID, FeatureClients, ActionView)
	h.AssertPermissionGranted(member, orgID, FeatureClients, ActionDelete)
	h.AssertPermissionDenied(member, orgID, FeatureClients, ActionEdit)
	h.AssertPermissionDenied(member, orgID, FeatureDeals, ActionView)

	checker, err := h.service.GetChecker(h.ctx, member, orgID)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"viewer", "cleaner"}, checker.Roles())
}

// TestIntegrationRevokeTakesEffect tests that a revoked grant denies on the
// next evaluation
func TestIntegrationRevokeTakesEffect(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	owner := h.CreateTestUser("revoke-owner")
	member := h.CreateTestUser("revoke-member")
	orgID := h.BootstrapOrg(owner)
	ctx := h.ActorContext(owner)

	role := h.CreateTestRole(owner, orgID, "exporter")
	p := Permission{Feature: FeatureReports, Action: ActionExport}
	assert.NoError(t, h.service.Grant(ctx, orgID, role.ID, p))
	assert.NoError(t, h.service.AssignRole(ctx, orgID, member, role.ID))

	h.AssertPermissionGranted(member, orgID, FeatureReports, ActionExport)

	assert.NoError(t, h.service.RevokeGrant(ctx, orgID, role.ID, p))
	h.AssertPermissionDenied(member, orgID, FeatureReports, ActionExport)

	// Revoking again is a not-found
	assert.True(t, IsNotFound(h.service.RevokeGrant(ctx, orgID, role.ID, p)))
}

// TestIntegrationRoleConflicts tests duplicate names, duplicate grants, and
// duplicate assignments
func TestIntegrationRoleConflicts(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	owner := h.CreateTestUser("conf-owner")
	member := h.CreateTestUser("conf-member")
	orgID := h.BootstrapOrg(owner)
	ctx := h.ActorContext(owner)

	role := h.CreateTestRole(owner, orgID, "sales")

	_, err := h.service.CreateRole(ctx, orgID, "sales", false)
	assert.True(t, IsConflict(err))

	p := Permission{Feature: FeatureDeals, Action: ActionView}
	assert.NoError(t, h.service.Grant(ctx, orgID, role.ID, p))
	assert.True(t, IsConflict(h.service.Grant(ctx, orgID, role.ID, p)))

	assert.NoError(t, h.service.AssignRole(ctx, orgID, member, role.ID))
	assert.True(t, IsConflict(h.service.AssignRole(ctx, orgID, member, role.ID)))
}

// TestIntegrationDeleteRoleBlockedByAssignments tests that a role with live
// assignments cannot be deleted
func TestIntegrationDeleteRoleBlockedByAssignments(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	owner := h.CreateTestUser("delrole-owner")
	member := h.CreateTestUser("delrole-member")
	orgID := h.BootstrapOrg(owner)
	ctx := h.ActorContext(owner)

	role := h.CreateTestRole(owner, orgID, "temp")
	assert.NoError(t, h.service.AssignRole(ctx, orgID, member, role.ID))

	err := h.service.DeleteRole(ctx, orgID, role.ID)
	assert.True(t, IsConflict(err))
	assert.Equal(t, 1, ConflictCounts(err)["assignments"])

	// After revoking the assignment the role deletes cleanly, grants included
	assert.NoError(t, h.service.RevokeRole(ctx, orgID, member, role.ID))
	assert.NoError(t, h.service.DeleteRole(ctx, orgID, role.ID))

	_, err = h.service.GetRole(h.ctx, orgID, role.ID)
	assert.True(t, IsNotFound(err))
}

// TestIntegrationCrossOrgRole tests that another organization's role is
// invisible and unassignable
func TestIntegrationCrossOrgRole(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	ownerA := h.CreateTestUser("xrole-a")
	ownerB := h.CreateTestUser("xrole-b")
	orgA := h.BootstrapOrg(ownerA)
	orgB := h.BootstrapOrg(ownerB)

	roleB := h.CreateTestRole(ownerB, orgB, "foreign")

	// Lookup through the wrong organization is a not-found
	_, err := h.service.GetRole(h.ctx, orgA, roleB.ID)
	assert.True(t, IsNotFound(err))

	// Assignment through the wrong organization fails the same way
	err = h.service.AssignRole(h.ActorContext(ownerA), orgA, ownerA, roleB.ID)
	assert.True(t, IsNotFound(err))
}

// TestIntegrationRoleManagementRequiresActor tests that mutations without
// an actor in context are rejected
func TestIntegrationRoleManagementRequiresActor(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	owner := h.CreateTestUser("actor-owner")
	orgID := h.BootstrapOrg(owner)

	// Plain context: no actor
	_, err := h.service.CreateRole(h.ctx, orgID, "nobody", false)
	assert.ErrorIs(t, err, ErrNoActorID)

	// Actor without roles.create: denied
	stranger := h.CreateTestUser("actor-stranger")
	_, err = h.service.CreateRole(h.ActorContext(stranger), orgID, "nope", false)
	assert.True(t, IsPermissionDenied(err))
}

// TestIntegrationAuditTrail tests that role mutations leave audit entries
func TestIntegrationAuditTrail(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	owner := h.CreateTestUser("audit-owner")
	member := h.CreateTestUser("audit-member")
	orgID := h.BootstrapOrg(owner)
	ctx := h.ActorContext(owner)
	ctx = WithIPAddress(ctx, "10.0.0.9")
	ctx = WithRequestID(ctx, "req-audit")

	role, err := h.service.CreateRole(ctx, orgID, "audited", false)
	assert.NoError(t, err)
	p := Permission{Feature: FeatureContacts, Action: ActionEdit}
	assert.NoError(t, h.service.Grant(ctx, orgID, role.ID, p))
	assert.NoError(t, h.service.AssignRole(ctx, orgID, member, role.ID))

	logs, err := h.service.GetAuditLog(h.ctx, orgID,
		NewAuditLogFilter().WithActor(owner))
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, len(logs), 3)

	// Newest first
	assert.Equal(t, string(AuditActionRoleAssigned), logs[0].Action)
	assert.Equal(t, member, logs[0].TargetUserID)
	assert.Equal(t, "audited", logs[0].RoleName)
	assert.Equal(t, "10.0.0.9", logs[0].IPAddress)
	assert.Equal(t, "req-audit", logs[0].RequestID)

	granted, err := h.service.GetAuditLog(h.ctx, orgID,
		NewAuditLogFilter().WithAction(AuditActionPermissionGranted).WithRole(role.ID))
	assert.NoError(t, err)
	assert.Len(t, granted, 1)
	assert.Equal(t, "contacts.edit", granted[0].Permission)
	assert.Contains(t, granted[0].NewState, "contacts.edit")
}

// TestIntegrationRolePermissionsListing tests reading a role's grants back
func TestIntegrationRolePermissionsListing(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	owner := h.CreateTestUser("rp-owner")
	orgID := h.BootstrapOrg(owner)
	ctx := h.ActorContext(owner)

	role := h.CreateTestRole(owner, orgID, "mixed")
	assert.NoError(t, h.service.Grant(ctx, orgID, role.ID, Permission{Feature: FeatureDeals, Action: ActionView}))
	assert.NoError(t, h.service.Grant(ctx, orgID, role.ID, Permission{Feature: FeatureClients, Action: ActionCreate}))

	perms, err := h.service.RolePermissions(h.ctx, orgID, role.ID)
	assert.NoError(t, err)
	// Catalog order: clients before deals
	assert.Equal(t, []Permission{
		{Feature: FeatureClients, Action: ActionCreate},
		{Feature: FeatureDeals, Action: ActionView},
	}, perms)
}
