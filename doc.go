// Package tenantkit provides organization-scoped data access and
// authorization for multi-tenant business-records applications.
//
// TenantKit sits between request handlers and the database: it resolves
// which organization a request acts in, evaluates a closed catalog of
// permissions against that organization's roles, and routes every entity
// read and write through queries that carry the organization predicate.
//
// # Core Concepts
//
// Organization: The tenancy boundary. Every record, role, and permission
// grant belongs to exactly one organization; no operation ever crosses it.
//
// Permission: A (feature area, action) pair from a fixed catalog, e.g.
// ("clients", "view") or ("invoices", "export"). There are no wildcards
// and no permissions outside the catalog.
//
// Role: A named set of catalog permissions defined per organization. A user
// holds zero or more roles; their effective permissions are the union of
// every grant across all of them. No roles means no permissions.
//
// # Key Features
//
//   - Fail-closed authorization: denial is the default answer
//   - Union semantics: multiple roles combine, never conflict
//   - Deterministic tenant resolution with first-run bootstrap
//   - Paginated, filtered, searched listing over registered entity types
//   - Concurrent dependency checks before cascading deletes
//   - Organization-scoped dashboard statistics
//   - Detailed audit logging for every role and grant change
//   - Optional Redis-backed permission cache with versioned invalidation
//   - DBKit integration: uses your existing database connection
//
// # Basic Usage
//
//	// 1. Register your entity types (at application startup)
//	registry := tenantkit.DefaultEntityRegistry()
//
//	// 2. Create the service
//	service := tenantkit.NewService(registry, db)
//
//	// 3. Run migrations
//	db.Migrate(ctx, tenantkit.NewMigrationService(service).Migrations())
//
//	// 4. Resolve the tenant for an authenticated user
//	orgID, err := service.ResolveTenant(ctx, userID)
//
//	// 5. Check permissions
//	if err := service.Require(ctx, userID, orgID, tenantkit.FeatureClients, tenantkit.ActionView); err != nil {
//	    return err
//	}
//
//	// 6. Read and write through the scoped facade
//	page, err := tenantkit.List[tenantkit.ClientCompany](ctx, service, orgID, tenantkit.EntityClients,
//	    tenantkit.NewListOptions().WithSearch("acme").WithPage(1))
//
// # Middleware Usage
//
//	mw := tenantkit.NewMiddleware(service)
//
//	router.Use(mw.InjectAuditContext())
//	router.With(mw.RequirePermission(tenantkit.FeatureClients, tenantkit.ActionDelete,
//	    tenantkit.OrgFromParam("orgID"))).
//	    Delete("/orgs/{orgID}/clients/{clientID}", deleteClientHandler)
//
// # Deletion and Dependencies
//
// Entity types declare their dependency edges in the registry. Delete
// re-checks those edges inside the delete path and refuses with a conflict
// carrying per-edge counts when dependents exist:
//
//	report, _ := service.CheckDependencies(ctx, orgID, tenantkit.EntityClients, clientID)
//	if report.HasDependencies {
//	    // surface report.Counts to the user before they confirm
//	}
//
// # Audit Log
//
// All role and grant changes are automatically logged with:
//   - Actor (who made the change)
//   - Target user, role, and permission
//   - Previous state and new state
//   - Timestamp
//   - Request metadata (IP, user agent, request ID)
package tenantkit
