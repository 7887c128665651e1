package tenantkit

import (
	"github.com/fernandezvara/dbkit"
)

// MigrationService provides migration management functionality as an
// extension to Service.
type MigrationService struct {
	*Service
}

// NewMigrationService creates a new migration service extension.
func NewMigrationService(service *Service) *MigrationService {
	return &MigrationService{Service: service}
}

// Migrations returns all database migrations required for tenantkit.
// Use dbkit.Migrate(ctx, service.Migrations()) to run migrations.
func (ms *MigrationService) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "tenantkit-001",
			Description: "Create organizations and memberships",
			SQL: `
                CREATE TABLE IF NOT EXISTS organizations (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    name TEXT NOT NULL,
                    slug TEXT NOT NULL UNIQUE,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                );
                CREATE TABLE IF NOT EXISTS organization_memberships (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    organization_id UUID NOT NULL,
                    user_id TEXT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (organization_id, user_id)
                );
                CREATE INDEX IF NOT EXISTS idx_memberships_user ON organization_memberships (user_id)`,
		},
		{
			ID:          "tenantkit-002",
			Description: "Create roles, grants, and assignments",
			SQL: `
                CREATE TABLE IF NOT EXISTS roles (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    organization_id UUID NOT NULL,
                    name TEXT NOT NULL,
                    is_default BOOLEAN NOT NULL DEFAULT false,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (organization_id, name)
                );
                CREATE TABLE IF NOT EXISTS role_permissions (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    role_id UUID NOT NULL,
                    organization_id UUID NOT NULL,
                    feature_area TEXT NOT NULL,
                    permission_type TEXT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (role_id, feature_area, permission_type)
                );
                CREATE TABLE IF NOT EXISTS user_role_assignments (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    user_id TEXT NOT NULL,
                    role_id UUID NOT NULL,
                    organization_id UUID NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (organization_id, user_id, role_id)
                );
                CREATE INDEX IF NOT EXISTS idx_assignments_user_org ON user_role_assignments (user_id, organization_id)`,
		},
		{
			ID:          "tenantkit-003",
			Description: "Create permission audit log",
			SQL: `
                CREATE TABLE IF NOT EXISTS permission_audit_log (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    actor_id TEXT NOT NULL,
                    action TEXT NOT NULL,
                    organization_id UUID NOT NULL,
                    target_user_id TEXT,
                    role_id TEXT,
                    role_name TEXT,
                    permission TEXT,
                    previous_state TEXT[],
                    new_state TEXT[],
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT,
                    metadata JSONB
                );
                CREATE INDEX IF NOT EXISTS idx_audit_org_time ON permission_audit_log (organization_id, timestamp DESC)`,
		},
		{
			ID:          "tenantkit-004",
			Description: "Create client companies",
			SQL: `
                CREATE TABLE IF NOT EXISTS client_companies (
                    id UUID PRIMARY KEY,
                    organization_id UUID NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL,
                    updated_at TIMESTAMPTZ NOT NULL,
                    name TEXT NOT NULL,
                    website TEXT,
                    industry TEXT,
                    city TEXT,
                    country TEXT,
                    phone TEXT
                );
                CREATE INDEX IF NOT EXISTS idx_clients_org_created ON client_companies (organization_id, created_at DESC, id DESC)`,
		},
		{
			ID:          "tenantkit-005",
			Description: "Create contacts",
			SQL: `
                CREATE TABLE IF NOT EXISTS contacts (
                    id UUID PRIMARY KEY,
                    organization_id UUID NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL,
                    updated_at TIMESTAMPTZ NOT NULL,
                    company_id UUID,
                    first_name TEXT NOT NULL,
                    last_name TEXT,
                    email TEXT,
                    phone TEXT,
                    job_title TEXT
                );
                CREATE INDEX IF NOT EXISTS idx_contacts_org_created ON contacts (organization_id, created_at DESC, id DESC);
                CREATE INDEX IF NOT EXISTS idx_contacts_company ON contacts (organization_id, company_id)`,
		},
		{
			ID:          "tenantkit-006",
			Description: "Create deals",
			SQL: `
                CREATE TABLE IF NOT EXISTS deals (
                    id UUID PRIMARY KEY,
                    organization_id UUID NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL,
                    updated_at TIMESTAMPTZ NOT NULL,
                    company_id UUID,
                    contact_id UUID,
                    title TEXT NOT NULL,
                    stage TEXT NOT NULL,
                    value_cents BIGINT NOT NULL DEFAULT 0,
                    currency TEXT
                );
                CREATE INDEX IF NOT EXISTS idx_deals_org_created ON deals (organization_id, created_at DESC, id DESC);
                CREATE INDEX IF NOT EXISTS idx_deals_company ON deals (organization_id, company_id);
                CREATE INDEX IF NOT EXISTS idx_deals_contact ON deals (organization_id, contact_id)`,
		},
		{
			ID:          "tenantkit-007",
			Description: "Create invoices",
			SQL: `
                CREATE TABLE IF NOT EXISTS invoices (
                    id UUID PRIMARY KEY,
                    organization_id UUID NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL,
                    updated_at TIMESTAMPTZ NOT NULL,
                    company_id UUID,
                    deal_id UUID,
                    number TEXT NOT NULL,
                    status TEXT NOT NULL,
                    amount_cents BIGINT NOT NULL DEFAULT 0,
                    currency TEXT,
                    due_date TIMESTAMPTZ
                );
                CREATE INDEX IF NOT EXISTS idx_invoices_org_created ON invoices (organization_id, created_at DESC, id DESC);
                CREATE INDEX IF NOT EXISTS idx_invoices_company ON invoices (organization_id, company_id);
                CREATE INDEX IF NOT EXISTS idx_invoices_deal ON invoices (organization_id, deal_id)`,
		},
	}
}
