package tenantkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
)

// ============================================================================
// TENANT CONTEXT RESOLUTION
// ============================================================================

// ResolveTenant resolves the active organization for an already
// authenticated user. A user with multiple memberships gets the oldest one
// (created_at, then id) so the choice is deterministic across requests. A
// user with no membership gets a freshly bootstrapped organization instead
// of an error; first use must not dead-end on an onboarding gate.
//
// The result is always an organization the user is a member of; the only
// failure mode is storage.
func (s *Service) ResolveTenant(ctx context.Context, userID string) (string, error) {
	var membership OrganizationMembership
	err := dbkit.WithErr1(
		s.db.NewSelect().Model(&membership).
			Where("user_id = ?", userID).
			Order("created_at ASC").
			Order("id ASC").
			Limit(1).
			Scan(ctx),
		"ResolveTenant").Err()
	if err == nil {
		return membership.OrganizationID, nil
	}
	if !dbkit.IsNotFound(err) {
		return "", s.storageErr(ctx, err, "ResolveTenant", "")
	}

	return s.bootstrapTenant(ctx, userID)
}

// Memberships returns all organization memberships for a user, oldest
// first. The first entry is the one ResolveTenant would pick.
func (s *Service) Memberships(ctx context.Context, userID string) ([]OrganizationMembership, error) {
	var memberships []OrganizationMembership
	err := dbkit.WithErr1(
		s.db.NewSelect().Model(&memberships).
			Where("user_id = ?", userID).
			Order("created_at ASC").
			Order("id ASC").
			Scan(ctx),
		"Memberships").Err()
	if err != nil {
		return nil, s.storageErr(ctx, err, "Memberships", "")
	}
	return memberships, nil
}

// GetOrganization retrieves an organization by id.
func (s *Service) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	var org Organization
	err := dbkit.WithErr1(
		s.db.NewSelect().Model(&org).Where("id = ?", orgID).Limit(1).Scan(ctx),
		"GetOrganization").Err()
	if err != nil {
		return nil, s.storageErr(ctx, err, "GetOrganization", orgID)
	}
	return &org, nil
}

// bootstrapTenant creates an organization, a membership, and a default
// owner role holding the full permission catalog for a first-time user.
// Everything happens in one transaction; a cancelled or failed bootstrap
// leaves no partial rows behind. Bootstrap is serialized per user with an
// advisory lock: two concurrent first requests race to the lock, and the
// loser finds the winner's membership instead of creating a second
// workspace.
func (s *Service) bootstrapTenant(ctx context.Context, userID string) (string, error) {
	var orgID string
	err := s.inTransaction(ctx, func(tx dbkit.IDB) error {
		id, err := s.bootstrapIn(ctx, tx, userID)
		orgID = id
		return err
	})
	if err != nil {
		return "", s.storageErr(ctx, err, "BootstrapTenant", orgID)
	}
	return orgID, nil
}

func (s *Service) bootstrapIn(ctx context.Context, idb dbkit.IDB, userID string) (string, error) {
	// Held until the transaction commits or rolls back.
	if _, err := idb.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", userID).Exec(ctx); err != nil {
		return "", dbkit.WithErr1(err, "BootstrapLock").Err()
	}

	// A concurrent bootstrap may have finished while we waited on the lock.
	var existing OrganizationMembership
	err := dbkit.WithErr1(
		idb.NewSelect().Model(&existing).
			Where("user_id = ?", userID).
			Order("created_at ASC").
			Order("id ASC").
			Limit(1).
			Scan(ctx),
		"BootstrapRecheck").Err()
	if err == nil {
		return existing.OrganizationID, nil
	}
	if !dbkit.IsNotFound(err) {
		return "", err
	}

	now := time.Now().UTC()

	org := &Organization{
		ID:        uuid.NewString(),
		Name:      "My Workspace",
		Slug:      "ws-" + uuid.NewString()[:8],
		CreatedAt: now,
		UpdatedAt: now,
	}
	result, err := idb.NewInsert().Model(org).Exec(ctx)
	if err := dbkit.WithErr(result, err, "BootstrapOrganization").Err(); err != nil {
		return "", err
	}

	membership := &OrganizationMembership{
		ID:             uuid.NewString(),
		OrganizationID: org.ID,
		UserID:         userID,
		CreatedAt:      now,
	}
	result, err = idb.NewInsert().Model(membership).Exec(ctx)
	if err := dbkit.WithErr(result, err, "BootstrapMembership").Err(); err != nil {
		return "", err
	}

	role := &Role{
		ID:             uuid.NewString(),
		OrganizationID: org.ID,
		Name:           "owner",
		IsDefault:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	result, err = idb.NewInsert().Model(role).Exec(ctx)
	if err := dbkit.WithErr(result, err, "BootstrapRole").Err(); err != nil {
		return "", err
	}

	perms := AllPermissions()
	grants := make([]*RolePermission, 0, len(perms))
	for _, p := range perms {
		grants = append(grants, &RolePermission{
			ID:             uuid.NewString(),
			RoleID:         role.ID,
			OrganizationID: org.ID,
			FeatureArea:    string(p.Feature),
			PermissionType: string(p.Action),
			CreatedAt:      now,
		})
	}
	if _, err := dbkit.BatchInsert(ctx, idb, grants, dbkit.BatchSize); err != nil {
		return "", dbkit.WithErr1(err, "BootstrapGrants").Err()
	}

	assignment := &UserRoleAssignment{
		ID:             uuid.NewString(),
		UserID:         userID,
		RoleID:         role.ID,
		OrganizationID: org.ID,
		CreatedAt:      now,
	}
	result, err = idb.NewInsert().Model(assignment).Exec(ctx)
	if err := dbkit.WithErr(result, err, "BootstrapAssignment").Err(); err != nil {
		return "", err
	}

	entry := &AuditEntry{
		ActorID:        userID,
		Action:         AuditActionRoleAssigned,
		OrganizationID: org.ID,
		TargetUserID:   userID,
		RoleID:         role.ID,
		RoleName:       role.Name,
		NewState:       []string{role.Name},
		IPAddress:      GetIPAddress(ctx),
		UserAgent:      GetUserAgent(ctx),
		RequestID:      GetRequestID(ctx),
	}
	if _, err := idb.NewInsert().Model(entry.ToModel()).Exec(ctx); err != nil {
		return "", dbkit.WithErr1(err, "BootstrapAudit").Err()
	}

	return org.ID, nil
}
