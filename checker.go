package tenantkit

// Checker is the evaluated permission view for one user within one
// organization: the union of every grant across all roles the user holds
// there. It is a snapshot of the assignment state at the time it was built;
// the Service builds a fresh one per request.
type Checker struct {
	userID string
	orgID  string
	roles  []Role
	perms  PermissionSet
}

// NewChecker builds a Checker from the user's roles in the organization and
// the grant rows belonging to those roles. Grant rows whose pair is outside
// the catalog are ignored; they can never match a check.
func NewChecker(userID, orgID string, roles []Role, grants []RolePermission) *Checker {
	perms := make(PermissionSet, len(grants))
	for _, g := range grants {
		p := g.Permission()
		if p.Valid() {
			perms.Add(p)
		}
	}

	return &Checker{
		userID: userID,
		orgID:  orgID,
		roles:  roles,
		perms:  perms,
	}
}

// UserID returns the user this checker is for.
func (c *Checker) UserID() string {
	return c.userID
}

// OrganizationID returns the organization this checker is scoped to.
func (c *Checker) OrganizationID() string {
	return c.orgID
}

// Can reports whether the user is granted (feature, action). Absence of an
// explicit grant is a denial.
//
// Example:
//
//	if checker.Can(tenantkit.FeatureClients, tenantkit.ActionDelete) {
//	    // user may delete client companies in this organization
//	}
func (c *Checker) Can(feature FeatureArea, action Action) bool {
	return c.perms.Has(Permission{Feature: feature, Action: action})
}

// CanAll reports whether the user holds every one of the permissions.
// Operations that need multiple grants (e.g. send invoice = invoices.view
// + invoices.edit) check them together.
func (c *Checker) CanAll(perms ...Permission) bool {
	for _, p := range perms {
		if !c.perms.Has(p) {
			return false
		}
	}
	return true
}

// CanAny reports whether the user holds at least one of the permissions.
func (c *Checker) CanAny(perms ...Permission) bool {
	for _, p := range perms {
		if c.perms.Has(p) {
			return true
		}
	}
	return false
}

// Permissions returns the user's effective permissions in catalog order.
func (c *Checker) Permissions() []Permission {
	return c.perms.List()
}

// Roles returns the names of the roles the user holds in the organization.
func (c *Checker) Roles() []string {
	names := make([]string, 0, len(c.roles))
	for _, r := range c.roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole reports whether the user holds a role with the given name.
func (c *Checker) HasRole(name string) bool {
	for _, r := range c.roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// IsEmpty returns true if the user has no role assignments in the
// organization. An empty checker denies everything.
func (c *Checker) IsEmpty() bool {
	return len(c.roles) == 0
}
