package tenantkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ============================================================================
// PERMISSION EVALUATION
// ============================================================================

// Authorize reports whether (userID, orgID) is granted (feature, action).
// Denial is the default: a user with no assignments, or assignments whose
// roles carry no matching grant, gets false. The result is evaluated fresh
// per call unless a permission cache is configured; the cache is versioned
// per organization and bumped on every mutation, so it can never serve a
// revoked grant.
func (s *Service) Authorize(ctx context.Context, userID, orgID string, feature FeatureArea, action Action) (bool, error) {
	p := Permission{Feature: feature, Action: action}
	if !p.Valid() {
		return false, NewError(ErrValidation, "permission outside the catalog").WithPermission(p)
	}

	checker, err := s.GetChecker(ctx, userID, orgID)
	if err != nil {
		return false, err
	}
	return checker.Can(feature, action), nil
}

// Require is Authorize folded into an error: nil when granted,
// ErrPermissionDenied when not.
func (s *Service) Require(ctx context.Context, userID, orgID string, feature FeatureArea, action Action) error {
	ok, err := s.Authorize(ctx, userID, orgID, feature, action)
	if err != nil {
		return err
	}
	if !ok {
		return NewError(ErrPermissionDenied, "missing permission").
			WithOrg(orgID).
			WithUser(userID).
			WithPermission(Permission{Feature: feature, Action: action})
	}
	return nil
}

// GetChecker builds the evaluated permission view for a user within an
// organization. Handlers that perform several checks per request should
// build one checker and reuse it for the request's lifetime only.
func (s *Service) GetChecker(ctx context.Context, userID, orgID string) (*Checker, error) {
	if s.cache != nil {
		snap, ok, err := s.cache.GetSnapshot(ctx, orgID, userID)
		if err != nil {
			s.log.Warn().Err(err).Str("organization_id", orgID).Msg("permission cache read failed")
		} else if ok {
			return NewChecker(userID, orgID, snap.Roles, snap.Grants), nil
		}
	}

	snap, err := s.loadSnapshot(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.PutSnapshot(ctx, orgID, userID, snap); err != nil {
			s.log.Warn().Err(err).Str("organization_id", orgID).Msg("permission cache write failed")
		}
	}
	return NewChecker(userID, orgID, snap.Roles, snap.Grants), nil
}

// loadSnapshot reads the user's roles in the organization and the grant
// rows of those roles. The join pins the assignment's organization to the
// role's organization, so a cross-tenant assignment row could never widen
// the result even if one existed.
func (s *Service) loadSnapshot(ctx context.Context, userID, orgID string) (*PermissionSnapshot, error) {
	var roles []Role
	err := dbkit.WithErr1(
		s.db.NewSelect().Model(&roles).
			Join("JOIN user_role_assignments AS ura ON ura.role_id = r.id AND ura.organization_id = r.organization_id").
			Where("ura.user_id = ?", userID).
			Where("r.organization_id = ?", orgID).
			Scan(ctx),
		"LoadRoles").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, s.storageErr(ctx, err, "LoadRoles", orgID)
	}

	snap := &PermissionSnapshot{Roles: roles}
	if len(roles) == 0 {
		return snap, nil
	}

	roleIDs := make([]string, 0, len(roles))
	for _, r := range roles {
		roleIDs = append(roleIDs, r.ID)
	}

	var grants []RolePermission
	err = dbkit.WithErr1(
		s.db.NewSelect().Model(&grants).
			Where("organization_id = ?", orgID).
			Where("role_id IN (?)", bun.In(roleIDs)).
			Scan(ctx),
		"LoadGrants").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, s.storageErr(ctx, err, "LoadGrants", orgID)
	}

	snap.Grants = grants
	return snap, nil
}

// ============================================================================
// ROLE MANAGEMENT
// ============================================================================

// Roles returns all roles defined in an organization.
func (s *Service) Roles(ctx context.Context, orgID string) ([]Role, error) {
	var roles []Role
	err := dbkit.WithErr1(
		s.db.NewSelect().Model(&roles).
			Where("organization_id = ?", orgID).
			Order("created_at ASC").
			Order("id ASC").
			Scan(ctx),
		"Roles").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, s.storageErr(ctx, err, "Roles", orgID)
	}
	return roles, nil
}

// GetRole retrieves one role. A role belonging to another organization is
// reported as not found.
func (s *Service) GetRole(ctx context.Context, orgID, roleID string) (*Role, error) {
	var role Role
	err := dbkit.WithErr1(
		s.db.NewSelect().Model(&role).
			Where("organization_id = ?", orgID).
			Where("id = ?", roleID).
			Limit(1).
			Scan(ctx),
		"GetRole").Err()
	if err != nil {
		return nil, s.storageErr(ctx, err, "GetRole", orgID)
	}
	return &role, nil
}

// RolePermissions returns the catalog permissions granted to a role.
func (s *Service) RolePermissions(ctx context.Context, orgID, roleID string) ([]Permission, error) {
	if _, err := s.GetRole(ctx, orgID, roleID); err != nil {
		return nil, err
	}

	var grants []RolePermission
	err := dbkit.WithErr1(
		s.db.NewSelect().Model(&grants).
			Where("organization_id = ?", orgID).
			Where("role_id = ?", roleID).
			Scan(ctx),
		"RolePermissions").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, s.storageErr(ctx, err, "RolePermissions", orgID)
	}

	set := make(PermissionSet, len(grants))
	for _, g := range grants {
		if p := g.Permission(); p.Valid() {
			set.Add(p)
		}
	}
	return set.List(), nil
}

// CreateRole creates an organization-scoped role. The actor needs
// roles.create in the organization.
func (s *Service) CreateRole(ctx context.Context, orgID, name string, isDefault bool) (*Role, error) {
	actorID, err := s.requireActor(ctx, orgID, ActionCreate)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	role := &Role{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Name:           name,
		IsDefault:      isDefault,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	result, err := s.db.NewInsert().Model(role).Exec(ctx)
	if err := dbkit.WithErr(result, err, "CreateRole").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrConflict, "role name already exists").WithOrg(orgID)
		}
		return nil, s.storageErr(ctx, err, "CreateRole", orgID)
	}

	s.audit(ctx, &AuditEntry{
		ActorID:        actorID,
		Action:         AuditActionRoleCreated,
		OrganizationID: orgID,
		RoleID:         role.ID,
		RoleName:       role.Name,
	})
	return role, s.invalidatePermissions(ctx, orgID)
}

// DeleteRole removes a role and its grants. Roles with live assignments
// cannot be deleted; the conflict reports how many assignments block it.
func (s *Service) DeleteRole(ctx context.Context, orgID, roleID string) error {
	actorID, err := s.requireActor(ctx, orgID, ActionDelete)
	if err != nil {
		return err
	}

	role, err := s.GetRole(ctx, orgID, roleID)
	if err != nil {
		return err
	}

	assigned, err := dbkit.Count[UserRoleAssignment](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("organization_id = ?", orgID).Where("role_id = ?", roleID)
	})
	if err != nil {
		return s.storageErr(ctx, err, "DeleteRoleAssignmentCount", orgID)
	}
	if assigned > 0 {
		return NewError(ErrConflict, "role has active assignments").
			WithOrg(orgID).
			WithCounts(map[string]int{"assignments": assigned})
	}

	err = s.inTransaction(ctx, func(idb dbkit.IDB) error {
		result, err := idb.NewDelete().Table("role_permissions").
			Where("organization_id = ? AND role_id = ?", orgID, roleID).
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "DeleteRoleGrants").Err(); err != nil {
			return err
		}

		result, err = idb.NewDelete().Table("roles").
			Where("organization_id = ? AND id = ?", orgID, roleID).
			Exec(ctx)
		return dbkit.WithErr(result, err, "DeleteRole").Err()
	})
	if err != nil {
		return s.storageErr(ctx, err, "DeleteRole", orgID)
	}

	s.audit(ctx, &AuditEntry{
		ActorID:        actorID,
		Action:         AuditActionRoleDeleted,
		OrganizationID: orgID,
		RoleID:         roleID,
		RoleName:       role.Name,
	})
	return s.invalidatePermissions(ctx, orgID)
}

// Grant adds a catalog permission to a role. Granting a permission the role
// already holds is a conflict.
func (s *Service) Grant(ctx context.Context, orgID, roleID string, p Permission) error {
	actorID, err := s.requireActor(ctx, orgID, ActionEdit)
	if err != nil {
		return err
	}
	if !p.Valid() {
		return NewError(ErrValidation, "permission outside the catalog").WithPermission(p)
	}

	role, err := s.GetRole(ctx, orgID, roleID)
	if err != nil {
		return err
	}

	before, err := s.RolePermissions(ctx, orgID, roleID)
	if err != nil {
		return err
	}

	grant := &RolePermission{
		ID:             uuid.NewString(),
		RoleID:         roleID,
		OrganizationID: orgID,
		FeatureArea:    string(p.Feature),
		PermissionType: string(p.Action),
		CreatedAt:      time.Now().UTC(),
	}
	result, err := s.db.NewInsert().Model(grant).Exec(ctx)
	if err := dbkit.WithErr(result, err, "GrantPermission").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return NewError(ErrConflict, "permission already granted").
				WithOrg(orgID).
				WithPermission(p)
		}
		return s.storageErr(ctx, err, "GrantPermission", orgID)
	}

	s.audit(ctx, &AuditEntry{
		ActorID:        actorID,
		Action:         AuditActionPermissionGranted,
		OrganizationID: orgID,
		RoleID:         roleID,
		RoleName:       role.Name,
		Permission:     p.String(),
		PreviousState:  permissionStrings(before),
		NewState:       permissionStrings(append(before, p)),
	})
	return s.invalidatePermissions(ctx, orgID)
}

// RevokeGrant removes a catalog permission from a role.
func (s *Service) RevokeGrant(ctx context.Context, orgID, roleID string, p Permission) error {
	actorID, err := s.requireActor(ctx, orgID, ActionEdit)
	if err != nil {
		return err
	}

	role, err := s.GetRole(ctx, orgID, roleID)
	if err != nil {
		return err
	}

	before, err := s.RolePermissions(ctx, orgID, roleID)
	if err != nil {
		return err
	}

	result, err := s.db.NewDelete().Table("role_permissions").
		Where("organization_id = ? AND role_id = ? AND feature_area = ? AND permission_type = ?",
			orgID, roleID, string(p.Feature), string(p.Action)).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "RevokeGrant").Err(); err != nil {
		return s.storageErr(ctx, err, "RevokeGrant", orgID)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return NewError(ErrNotFound, "permission not granted").
			WithOrg(orgID).
			WithPermission(p)
	}

	after := make([]Permission, 0, len(before))
	for _, existing := range before {
		if existing != p {
			after = append(after, existing)
		}
	}

	s.audit(ctx, &AuditEntry{
		ActorID:        actorID,
		Action:         AuditActionPermissionRevoked,
		OrganizationID: orgID,
		RoleID:         roleID,
		RoleName:       role.Name,
		Permission:     p.String(),
		PreviousState:  permissionStrings(before),
		NewState:       permissionStrings(after),
	})
	return s.invalidatePermissions(ctx, orgID)
}

// ============================================================================
// ROLE ASSIGNMENT
// ============================================================================

// AssignRole binds a user to a role within the role's own organization.
// The role is looked up scoped to orgID, so an assignment can never
// reference another organization's role.
func (s *Service) AssignRole(ctx context.Context, orgID, userID, roleID string) error {
	actorID, err := s.requireActor(ctx, orgID, ActionEdit)
	if err != nil {
		return err
	}

	role, err := s.GetRole(ctx, orgID, roleID)
	if err != nil {
		return err
	}

	previous, err := s.userRoleNames(ctx, userID, orgID)
	if err != nil {
		return err
	}
	for _, name := range previous {
		if name == role.Name {
			return NewError(ErrConflict, "user already has this role").
				WithOrg(orgID).
				WithUser(userID)
		}
	}

	assignment := &UserRoleAssignment{
		ID:             uuid.NewString(),
		UserID:         userID,
		RoleID:         roleID,
		OrganizationID: orgID,
		CreatedAt:      time.Now().UTC(),
	}
	result, err := s.db.NewInsert().Model(assignment).Exec(ctx)
	if err := dbkit.WithErr(result, err, "AssignRole").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return NewError(ErrConflict, "user already has this role").
				WithOrg(orgID).
				WithUser(userID)
		}
		return s.storageErr(ctx, err, "AssignRole", orgID)
	}

	s.audit(ctx, &AuditEntry{
		ActorID:        actorID,
		Action:         AuditActionRoleAssigned,
		OrganizationID: orgID,
		TargetUserID:   userID,
		RoleID:         roleID,
		RoleName:       role.Name,
		PreviousState:  previous,
		NewState:       append(previous, role.Name),
	})
	return s.invalidatePermissions(ctx, orgID)
}

// RevokeRole removes a user's role assignment within an organization.
func (s *Service) RevokeRole(ctx context.Context, orgID, userID, roleID string) error {
	actorID, err := s.requireActor(ctx, orgID, ActionEdit)
	if err != nil {
		return err
	}

	role, err := s.GetRole(ctx, orgID, roleID)
	if err != nil {
		return err
	}

	previous, err := s.userRoleNames(ctx, userID, orgID)
	if err != nil {
		return err
	}

	result, err := s.db.NewDelete().Table("user_role_assignments").
		Where("organization_id = ? AND user_id = ? AND role_id = ?", orgID, userID, roleID).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "RevokeRole").Err(); err != nil {
		return s.storageErr(ctx, err, "RevokeRole", orgID)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return NewError(ErrNotFound, "user does not have this role").
			WithOrg(orgID).
			WithUser(userID)
	}

	after := make([]string, 0, len(previous))
	for _, name := range previous {
		if name != role.Name {
			after = append(after, name)
		}
	}

	s.audit(ctx, &AuditEntry{
		ActorID:        actorID,
		Action:         AuditActionRoleRevoked,
		OrganizationID: orgID,
		TargetUserID:   userID,
		RoleID:         roleID,
		RoleName:       role.Name,
		PreviousState:  previous,
		NewState:       after,
	})
	return s.invalidatePermissions(ctx, orgID)
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

// requireActor resolves the acting user from context and checks their
// grant on the roles feature area. Role management is itself governed by
// the catalog it manages.
func (s *Service) requireActor(ctx context.Context, orgID string, action Action) (string, error) {
	actorID := GetActorID(ctx)
	if actorID == "" {
		return "", NewError(ErrNoActorID, "actor ID required for role management").WithOrg(orgID)
	}
	if err := s.Require(ctx, actorID, orgID, FeatureRoles, action); err != nil {
		return "", err
	}
	return actorID, nil
}

// userRoleNames returns the names of the roles a user holds in an
// organization, for audit snapshots.
func (s *Service) userRoleNames(ctx context.Context, userID, orgID string) ([]string, error) {
	var names []string
	err := dbkit.WithErr1(
		s.db.NewRaw(
			"SELECT r.name FROM roles r JOIN user_role_assignments ura ON ura.role_id = r.id WHERE ura.user_id = ? AND ura.organization_id = ? AND r.organization_id = ? ORDER BY r.name",
			userID, orgID, orgID).
			Scan(ctx, &names),
		"UserRoleNames").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, s.storageErr(ctx, err, "UserRoleNames", orgID)
	}
	return names, nil
}

// invalidatePermissions bumps the organization's cache version. A failed
// invalidation is returned as an error even though the mutation stands:
// serving stale grants is a security defect, so the caller must know.
func (s *Service) invalidatePermissions(ctx context.Context, orgID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, orgID); err != nil {
		s.log.Error().Err(err).Str("organization_id", orgID).Msg("permission cache invalidation failed")
		return NewError(ErrInternal, "permission cache invalidation failed").WithOrg(orgID)
	}
	return nil
}

func permissionStrings(perms []Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.String())
	}
	return out
}
