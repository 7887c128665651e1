package tenantkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection
type Database interface {
	dbkit.IDB
}

// TenantResolver defines the tenant context resolution interface
type TenantResolver interface {
	ResolveTenant(ctx context.Context, userID string) (string, error)
	Memberships(ctx context.Context, userID string) ([]OrganizationMembership, error)
	GetOrganization(ctx context.Context, orgID string) (*Organization, error)
}

// Authorizer defines the permission evaluation interface
type Authorizer interface {
	Authorize(ctx context.Context, userID, orgID string, feature FeatureArea, action Action) (bool, error)
	Require(ctx context.Context, userID, orgID string, feature FeatureArea, action Action) error
	GetChecker(ctx context.Context, userID, orgID string) (*Checker, error)
}

// RoleManager defines the role and grant management interface
type RoleManager interface {
	Roles(ctx context.Context, orgID string) ([]Role, error)
	GetRole(ctx context.Context, orgID, roleID string) (*Role, error)
	RolePermissions(ctx context.Context, orgID, roleID string) ([]Permission, error)
	CreateRole(ctx context.Context, orgID, name string, isDefault bool) (*Role, error)
	DeleteRole(ctx context.Context, orgID, roleID string) error
	Grant(ctx context.Context, orgID, roleID string, p Permission) error
	RevokeGrant(ctx context.Context, orgID, roleID string, p Permission) error
	AssignRole(ctx context.Context, orgID, userID, roleID string) error
	RevokeRole(ctx context.Context, orgID, userID, roleID string) error
}

// DependencyChecker defines the cascade dependency inspection interface
type DependencyChecker interface {
	CheckDependencies(ctx context.Context, orgID, entityType, id string) (*DependencyReport, error)
}

// StatsProvider defines the organization-scoped statistics interface
type StatsProvider interface {
	Stats(ctx context.Context, orgID, entityType string) (*StatsReport, error)
}

// AuditReader defines the audit log retrieval interface
type AuditReader interface {
	GetAuditLog(ctx context.Context, orgID string, filter AuditLogFilter) ([]PermissionAuditLog, error)
}

// TransactionManager defines the transaction management interface
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(tx dbkit.IDB) error) error
	TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(tx dbkit.IDB) error) error
	ReadOnlyTransaction(ctx context.Context, fn func(tx dbkit.IDB) error) error
}

// MigrationManager defines the migration management interface
type MigrationManager interface {
	Migrations() []dbkit.Migration
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// PoolManager defines the connection pool management interface
type PoolManager interface {
	ConfigureConnectionPool(config PoolConfig) error
	GetConnectionPoolConfig() (*PoolConfig, error)
	OptimizeConnectionPool() error
	ResetConnectionPool() error
}

// TransactionMonitor defines the transaction monitoring interface
type TransactionMonitor interface {
	GetTransactionMetrics() TransactionMetrics
	ResetTransactionMetrics()
	IsTransactionHealthy() bool
}
