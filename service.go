package tenantkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
	"github.com/rs/zerolog"
)

// Service is the storage facade: the single chokepoint every read, write,
// permission check, dependency count, and aggregate goes through to reach
// the database. Every method takes the organization id as an explicit
// parameter; there is no ambient "current organization" anywhere.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping, then map
// into the tenantkit taxonomy before returning: missing rows (including
// rows owned by another organization) become ErrNotFound, everything else
// storage-related becomes ErrInternal after being logged with full context.
//
// Example:
//
//	entities := tenantkit.DefaultEntityRegistry()
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := tenantkit.NewService(entities, db,
//	    tenantkit.WithLogger(logger))
type Service struct {
	db        dbkit.IDB
	entities  *EntityRegistry
	cache     PermissionCache
	log       zerolog.Logger
	txMonitor *transactionMonitor
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger used for internal errors and pool
// events. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithPermissionCache enables caching of evaluated permission sets. The
// cache is invalidated structurally (per-organization version bump) on
// every role, grant, or assignment mutation; without a cache every
// authorize call evaluates fresh.
func WithPermissionCache(cache PermissionCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// NewService creates a new tenantkit service.
func NewService(entities *EntityRegistry, db dbkit.IDB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		entities:  entities,
		log:       zerolog.Nop(),
		txMonitor: newTransactionMonitor(),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Entities returns the entity registry.
func (s *Service) Entities() *EntityRegistry {
	return s.entities
}

// entityDef resolves an entity type name against the registry.
func (s *Service) entityDef(entityType string) (*EntityDefinition, error) {
	def := s.entities.Get(entityType)
	if def == nil {
		return nil, NewError(ErrValidation, "entity type not defined").WithEntity(entityType, "")
	}
	return def, nil
}

// storageErr logs a storage failure with its context and returns the
// classified taxonomy error. Row absence is mapped to ErrNotFound so a
// caller can never distinguish "missing" from "another tenant's row".
func (s *Service) storageErr(ctx context.Context, err error, op, orgID string) error {
	if err == nil {
		return nil
	}
	if dbkit.IsNotFound(err) {
		return NewError(ErrNotFound, op).WithOrg(orgID)
	}

	s.log.Error().
		Err(err).
		Str("op", op).
		Str("organization_id", orgID).
		Str("request_id", GetRequestID(ctx)).
		Msg("storage operation failed")

	return &Error{Err: ErrInternal, Message: op, OrgID: orgID}
}
