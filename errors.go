package tenantkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for tenantkit operations.
var (
	// ErrNotFound is returned when an entity id does not exist, or exists
	// in a different organization. The two cases are deliberately
	// indistinguishable so callers cannot probe for other tenants' data.
	ErrNotFound = errors.New("tenantkit: not found")

	// ErrPermissionDenied is returned when the acting user's role set does
	// not grant the required (feature, action) pair.
	ErrPermissionDenied = errors.New("tenantkit: permission denied")

	// ErrConflict is returned when a delete is blocked by dependent rows,
	// or a role delete is blocked by live assignments.
	ErrConflict = errors.New("tenantkit: conflict")

	// ErrValidation is returned for catalog or registry misuse: unknown
	// entity types, permissions outside the catalog, cross-organization
	// role assignments.
	ErrValidation = errors.New("tenantkit: validation failed")

	// ErrInternal wraps storage failures. The raw database error is logged
	// server-side and preserved in the chain, never surfaced bare.
	ErrInternal = errors.New("tenantkit: internal error")

	// ErrNoActorID is returned when an audit-relevant mutation has no actor
	// in context.
	ErrNoActorID = errors.New("tenantkit: no actor ID in context")

	// ErrNoUserID is returned when user ID is not found in context.
	ErrNoUserID = errors.New("tenantkit: no user ID in context")
)

// Error wraps a sentinel error with operation context.
type Error struct {
	Err        error          // Underlying sentinel error
	Message    string         // Additional context
	OrgID      string         // Organization involved
	EntityType string         // Entity type involved (if applicable)
	EntityID   string         // Entity id involved (if applicable)
	UserID     string         // User involved (if applicable)
	ActorID    string         // Actor who triggered the error (if applicable)
	Permission string         // Permission involved (if applicable)
	Counts     map[string]int // Per-edge dependent counts for conflicts
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithOrg adds organization information to the error.
func (e *Error) WithOrg(orgID string) *Error {
	e.OrgID = orgID
	return e
}

// WithEntity adds entity information to the error.
func (e *Error) WithEntity(entityType, entityID string) *Error {
	e.EntityType = entityType
	e.EntityID = entityID
	return e
}

// WithUser adds user information to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// WithPermission adds the permission that was checked.
func (e *Error) WithPermission(p Permission) *Error {
	e.Permission = p.String()
	return e
}

// WithCounts attaches per-edge dependent counts to a conflict error so the
// caller can present actionable detail.
func (e *Error) WithCounts(counts map[string]int) *Error {
	e.Counts = counts
	return e
}

// IsNotFound checks if an error means the entity does not exist for the
// caller's organization.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPermissionDenied checks if an error is an authorization denial.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsConflict checks if an error is a dependency conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if an error is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// ConflictCounts extracts the per-edge dependent counts from a conflict
// error. Returns nil when the error carries none.
func ConflictCounts(err error) map[string]int {
	var e *Error
	if errors.As(err, &e) {
		return e.Counts
	}
	return nil
}
