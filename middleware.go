package tenantkit

import (
	"net/http"
)

// Middleware provides HTTP middleware for permission checking.
type Middleware struct {
	service      *Service
	getUserID    func(*http.Request) string
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := tenantkit.NewMiddleware(service,
//	    tenantkit.WithUserIDExtractor(func(r *http.Request) string {
//	        return r.Context().Value("user_id").(string)
//	    }),
//	)
func NewMiddleware(service *Service, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		service:      service,
		getUserID:    defaultGetUserID,
		errorHandler: defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithUserIDExtractor sets a custom function to extract user ID from request.
func WithUserIDExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.getUserID = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetUserID(r *http.Request) string {
	return GetUserID(r.Context())
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if IsPermissionDenied(err) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if IsNotFound(err) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if IsValidation(err) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// OrgExtractor extracts the target organization ID from an HTTP request.
// The organization is always request data, never ambient context state.
type OrgExtractor func(*http.Request) (string, error)

// OrgFromParam creates an OrgExtractor that reads the organization ID from
// URL parameters. Compatible with chi, gorilla/mux, and standard library
// patterns.
//
// Example:
//
//	// For route /orgs/{orgID}/clients
//	mw.RequirePermission(tenantkit.FeatureClients, tenantkit.ActionView, tenantkit.OrgFromParam("orgID"))
func OrgFromParam(paramName string) OrgExtractor {
	return func(r *http.Request) (string, error) {
		// net/http pattern routing (Go 1.22+)
		orgID := r.PathValue(paramName)
		if orgID == "" {
			// Try context (set by router middleware)
			if v := r.Context().Value(paramName); v != nil {
				if s, ok := v.(string); ok {
					orgID = s
				}
			}
		}
		if orgID == "" {
			return "", NewError(ErrValidation, "organization ID not found in request")
		}
		return orgID, nil
	}
}

// OrgFromQuery creates an OrgExtractor that reads the organization ID from
// query parameters.
//
// Example:
//
//	// For route /api/clients?org_id=org_123
//	mw.RequirePermission(tenantkit.FeatureClients, tenantkit.ActionView, tenantkit.OrgFromQuery("org_id"))
func OrgFromQuery(queryParam string) OrgExtractor {
	return func(r *http.Request) (string, error) {
		orgID := r.URL.Query().Get(queryParam)
		if orgID == "" {
			return "", NewError(ErrValidation, "organization ID not found in query")
		}
		return orgID, nil
	}
}

// OrgFromHeader creates an OrgExtractor that reads the organization ID from
// a header.
//
// Example:
//
//	// For header X-Organization-ID: org_123
//	mw.RequirePermission(tenantkit.FeatureDeals, tenantkit.ActionEdit, tenantkit.OrgFromHeader("X-Organization-ID"))
func OrgFromHeader(headerName string) OrgExtractor {
	return func(r *http.Request) (string, error) {
		orgID := r.Header.Get(headerName)
		if orgID == "" {
			return "", NewError(ErrValidation, "organization ID not found in header")
		}
		return orgID, nil
	}
}

// OrgFromResolver creates an OrgExtractor that resolves the user's active
// organization through Service.ResolveTenant. Use this for routes that have
// no explicit organization in the URL; a first-time user gets a bootstrapped
// workspace instead of an error.
//
// Example:
//
//	mw.RequirePermission(tenantkit.FeatureReports, tenantkit.ActionView, mw.OrgFromResolver())
func (m *Middleware) OrgFromResolver() OrgExtractor {
	return func(r *http.Request) (string, error) {
		userID := m.getUserID(r)
		if userID == "" {
			return "", ErrNoUserID
		}
		return m.service.ResolveTenant(r.Context(), userID)
	}
}

// RequirePermission creates middleware that requires a catalog permission in
// the extracted organization.
//
// Example:
//
//	router.With(mw.RequirePermission(tenantkit.FeatureClients, tenantkit.ActionDelete, tenantkit.OrgFromParam("orgID"))).
//	    Delete("/orgs/{orgID}/clients/{clientID}", deleteClientHandler)
func (m *Middleware) RequirePermission(feature FeatureArea, action Action, extractor OrgExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == "" {
				m.errorHandler(w, r, ErrNoUserID)
				return
			}

			orgID, err := extractor(r)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			if err := m.service.Require(ctx, userID, orgID, feature, action); err != nil {
				m.errorHandler(w, r, err)
				return
			}

			// Add checker to context for use in handlers
			checker, err := m.service.GetChecker(ctx, userID, orgID)
			if err == nil {
				ctx = WithChecker(ctx, checker)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission creates middleware that requires any of the specified
// catalog permissions.
//
// Example:
//
//	perms := []tenantkit.Permission{
//	    {Feature: tenantkit.FeatureInvoices, Action: tenantkit.ActionView},
//	    {Feature: tenantkit.FeatureInvoices, Action: tenantkit.ActionExport},
//	}
//	router.With(mw.RequireAnyPermission(perms, tenantkit.OrgFromParam("orgID"))).
//	    Get("/orgs/{orgID}/invoices", listInvoicesHandler)
func (m *Middleware) RequireAnyPermission(permissions []Permission, extractor OrgExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == "" {
				m.errorHandler(w, r, ErrNoUserID)
				return
			}

			orgID, err := extractor(r)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			checker, err := m.service.GetChecker(ctx, userID, orgID)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			if !checker.CanAny(permissions...) {
				m.errorHandler(w, r, NewError(ErrPermissionDenied, "missing required permission").
					WithOrg(orgID).
					WithUser(userID))
				return
			}

			ctx = WithChecker(ctx, checker)
			r = r.WithContext(ctx)

			next.ServeHTTP(w, r)
		})
	}
}

// LoadChecker creates middleware that loads the user's Checker into context.
// Use this when you want to do permission checks in the handler rather than
// middleware.
//
// Example:
//
//	router.With(mw.LoadChecker(tenantkit.OrgFromParam("orgID"))).Get("/orgs/{orgID}/dashboard", dashboardHandler)
//
//	func dashboardHandler(w http.ResponseWriter, r *http.Request) {
//	    checker := tenantkit.GetChecker(r.Context())
//	    if checker != nil && checker.Can(tenantkit.FeatureReports, tenantkit.ActionView) {
//	        // Show reports section
//	    }
//	}
func (m *Middleware) LoadChecker(extractor OrgExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == "" {
				// No user, continue without checker
				next.ServeHTTP(w, r)
				return
			}

			orgID, err := extractor(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			checker, err := m.service.GetChecker(ctx, userID, orgID)
			if err != nil {
				// Log error but continue
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithChecker(ctx, checker)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InjectAuditContext creates middleware that extracts audit information from
// the request and adds it to the context for use in role management
// operations.
//
// Example:
//
//	router.Use(mw.InjectAuditContext())
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Extract IP address
			ip := r.Header.Get("X-Forwarded-For")
			if ip == "" {
				ip = r.Header.Get("X-Real-IP")
			}
			if ip == "" {
				ip = r.RemoteAddr
			}
			ctx = WithIPAddress(ctx, ip)

			// Extract User Agent
			ctx = WithUserAgent(ctx, r.UserAgent())

			// Extract Request ID (commonly set by other middleware)
			requestID := r.Header.Get("X-Request-ID")
			if requestID != "" {
				ctx = WithRequestID(ctx, requestID)
			}

			// Set actor ID from user ID if available
			userID := m.getUserID(r)
			if userID != "" {
				ctx = WithActorID(ctx, userID)
				ctx = WithUserID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
