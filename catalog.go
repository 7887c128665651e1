package tenantkit

import (
	"fmt"
	"strings"
)

// FeatureArea is a functional area of the application that permissions are
// scoped to.
type FeatureArea string

// The closed set of feature areas. Permissions referencing anything else
// are invalid.
const (
	FeatureClients   FeatureArea = "clients"
	FeatureContacts  FeatureArea = "contacts"
	FeatureDeals     FeatureArea = "deals"
	FeatureInvoices  FeatureArea = "invoices"
	FeatureProposals FeatureArea = "proposals"
	FeatureProjects  FeatureArea = "projects"
	FeatureRoles     FeatureArea = "roles"
	FeatureReports   FeatureArea = "reports"
)

// Action is an operation within a feature area.
type Action string

// The closed set of actions. There are no wildcards; a role that needs
// every action on a feature gets one grant per action.
const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

// Permission is one (feature area, action) pair from the catalog.
type Permission struct {
	Feature FeatureArea
	Action  Action
}

// String returns the canonical "feature.action" form, e.g. "clients.view".
func (p Permission) String() string {
	return string(p.Feature) + "." + string(p.Action)
}

// Valid reports whether both halves of the pair belong to the catalog.
func (p Permission) Valid() bool {
	if !validFeature(p.Feature) {
		return false
	}
	return validAction(p.Action)
}

func validFeature(f FeatureArea) bool {
	switch f {
	case FeatureClients, FeatureContacts, FeatureDeals, FeatureInvoices,
		FeatureProposals, FeatureProjects, FeatureRoles, FeatureReports:
		return true
	}
	return false
}

func validAction(a Action) bool {
	switch a {
	case ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport:
		return true
	}
	return false
}

// AllFeatureAreas returns the catalog's feature areas in canonical order.
func AllFeatureAreas() []FeatureArea {
	return []FeatureArea{
		FeatureClients,
		FeatureContacts,
		FeatureDeals,
		FeatureInvoices,
		FeatureProposals,
		FeatureProjects,
		FeatureRoles,
		FeatureReports,
	}
}

// AllActions returns the catalog's actions in canonical order.
func AllActions() []Action {
	return []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport}
}

// AllPermissions returns the full catalog: the cross product of every
// feature area and every action, in canonical order.
func AllPermissions() []Permission {
	features := AllFeatureAreas()
	actions := AllActions()
	perms := make([]Permission, 0, len(features)*len(actions))
	for _, f := range features {
		for _, a := range actions {
			perms = append(perms, Permission{Feature: f, Action: a})
		}
	}
	return perms
}

// ParsePermission parses the canonical "feature.action" form. Strings whose
// halves fall outside the catalog are rejected.
func ParsePermission(s string) (Permission, error) {
	feature, action, ok := strings.Cut(s, ".")
	if !ok {
		return Permission{}, NewError(ErrValidation, fmt.Sprintf("permission %q is not of the form feature.action", s))
	}

	p := Permission{Feature: FeatureArea(feature), Action: Action(action)}
	if !p.Valid() {
		return Permission{}, NewError(ErrValidation, fmt.Sprintf("permission %q is outside the catalog", s))
	}
	return p, nil
}

// PermissionSet is a set of catalog permissions.
type PermissionSet map[Permission]struct{}

// Has reports whether the set contains the permission.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Add inserts a permission into the set.
func (s PermissionSet) Add(p Permission) {
	s[p] = struct{}{}
}

// List returns the set's permissions in catalog order.
func (s PermissionSet) List() []Permission {
	out := make([]Permission, 0, len(s))
	for _, p := range AllPermissions() {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}
