package tenantkit

import (
	"fmt"
	"sync"

	"github.com/uptrace/bun"
)

// Entity type names served by the default registry.
const (
	EntityClients  = "clients"
	EntityContacts = "contacts"
	EntityDeals    = "deals"
	EntityInvoices = "invoices"
)

// EntityRegistry holds the static per-entity-type configuration: table
// names, searchable fields, breakdown dimensions, dependency edges, and
// derived statistic predicates. It is created at startup and should be
// treated as immutable after initialization.
type EntityRegistry struct {
	mu       sync.RWMutex
	entities map[string]*EntityDefinition
}

// EntityDefinition describes one entity type. All queries the engine builds
// for the type are driven by this definition, never by caller input.
type EntityDefinition struct {
	name       string
	table      string
	searchable []string
	sortColumn string
	dimensions []string
	edges      []DependencyEdge
	derived    []DerivedCount
	registry   *EntityRegistry
}

// DependencyEdge is a declarative relation from one entity type to another,
// used by the dependency resolver before destructive operations.
type DependencyEdge struct {
	Name       string // edge name reported in DependencyReport counts
	Table      string // table holding the dependent rows
	ForeignKey string // column on Table referencing the entity id
}

// DerivedCount is a named cross-entity predicate counted by the statistics
// aggregator. Apply narrows an already organization-scoped count query.
type DerivedCount struct {
	Name  string
	Apply func(q *bun.SelectQuery) *bun.SelectQuery
}

// NewEntityRegistry creates an empty entity registry.
func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{
		entities: make(map[string]*EntityDefinition),
	}
}

// DefineEntity starts defining a new entity type.
// Returns an EntityDefinition builder for fluent configuration.
//
// Example:
//
//	registry.DefineEntity("clients").
//	    Table("client_companies").
//	    Searchable("name", "website", "industry", "city", "country").
//	    Breakdowns("industry", "country").
//	    DependentEdge("contacts", "contacts", "company_id")
func (r *EntityRegistry) DefineEntity(name string) *EntityDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()

	def := &EntityDefinition{
		name:       name,
		table:      name,
		sortColumn: "created_at",
		registry:   r,
	}
	r.entities[name] = def
	return def
}

// Get returns the definition for an entity type.
// Returns nil if the entity type is not defined.
func (r *EntityRegistry) Get(name string) *EntityDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities[name]
}

// EntityTypes returns all defined entity type names.
func (r *EntityRegistry) EntityTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	return names
}

// Validate checks that an entity type is defined.
func (r *EntityRegistry) Validate(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.entities[name]; !exists {
		return NewError(ErrValidation, fmt.Sprintf("entity type %q not defined", name))
	}
	return nil
}

// Table sets the database table for this entity type. Defaults to the
// entity type name.
func (d *EntityDefinition) Table(table string) *EntityDefinition {
	d.table = table
	return d
}

// Searchable sets the text fields the search term is matched against.
// A row matches when any of these fields contains the term.
func (d *EntityDefinition) Searchable(fields ...string) *EntityDefinition {
	d.searchable = append(d.searchable, fields...)
	return d
}

// OrderBy overrides the default sort column (created_at). Sorting is always
// descending with an id tiebreak so pagination stays stable.
func (d *EntityDefinition) OrderBy(column string) *EntityDefinition {
	d.sortColumn = column
	return d
}

// Breakdowns sets the dimension fields the statistics aggregator groups by.
func (d *EntityDefinition) Breakdowns(dimensions ...string) *EntityDefinition {
	d.dimensions = append(d.dimensions, dimensions...)
	return d
}

// DependentEdge declares that rows in table reference this entity type via
// foreignKey. The dependency resolver counts these before deletion.
func (d *EntityDefinition) DependentEdge(name, table, foreignKey string) *EntityDefinition {
	d.edges = append(d.edges, DependencyEdge{Name: name, Table: table, ForeignKey: foreignKey})
	return d
}

// Derived declares a named predicate counted by the statistics aggregator.
func (d *EntityDefinition) Derived(name string, apply func(q *bun.SelectQuery) *bun.SelectQuery) *EntityDefinition {
	d.derived = append(d.derived, DerivedCount{Name: name, Apply: apply})
	return d
}

// DefineEntity continues defining entity types on the registry (fluent API).
func (d *EntityDefinition) DefineEntity(name string) *EntityDefinition {
	return d.registry.DefineEntity(name)
}

// Name returns the entity type name.
func (d *EntityDefinition) Name() string { return d.name }

// TableName returns the database table backing this entity type.
func (d *EntityDefinition) TableName() string { return d.table }

// SearchableFields returns the configured searchable text fields.
func (d *EntityDefinition) SearchableFields() []string { return d.searchable }

// SortColumn returns the primary sort column.
func (d *EntityDefinition) SortColumn() string { return d.sortColumn }

// Dimensions returns the breakdown dimensions.
func (d *EntityDefinition) Dimensions() []string { return d.dimensions }

// Edges returns the declared dependency edges.
func (d *EntityDefinition) Edges() []DependencyEdge { return d.edges }

// DerivedCounts returns the declared derived count predicates.
func (d *EntityDefinition) DerivedCounts() []DerivedCount { return d.derived }

// DefaultEntityRegistry wires the business-records entity set: client
// companies and their dependent contacts, deals, and invoices.
func DefaultEntityRegistry() *EntityRegistry {
	r := NewEntityRegistry()

	r.DefineEntity(EntityClients).
		Table("client_companies").
		Searchable("name", "website", "industry", "city", "country").
		Breakdowns("industry", "country").
		DependentEdge("contacts", "contacts", "company_id").
		DependentEdge("deals", "deals", "company_id").
		DependentEdge("invoices", "invoices", "company_id").
		Derived("with_contacts", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("EXISTS (SELECT 1 FROM contacts WHERE contacts.organization_id = client_companies.organization_id AND contacts.company_id = client_companies.id)")
		}).
		Derived("without_contacts", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("NOT EXISTS (SELECT 1 FROM contacts WHERE contacts.organization_id = client_companies.organization_id AND contacts.company_id = client_companies.id)")
		}).
		Derived("with_open_deals", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("EXISTS (SELECT 1 FROM deals WHERE deals.organization_id = client_companies.organization_id AND deals.company_id = client_companies.id AND deals.stage NOT IN (?, ?))", DealStageWon, DealStageLost)
		})

	r.DefineEntity(EntityContacts).
		Table("contacts").
		Searchable("first_name", "last_name", "email", "job_title").
		Breakdowns("job_title").
		DependentEdge("deals", "deals", "contact_id")

	r.DefineEntity(EntityDeals).
		Table("deals").
		Searchable("title").
		Breakdowns("stage", "currency").
		DependentEdge("invoices", "invoices", "deal_id").
		Derived("open", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("deals.stage NOT IN (?, ?)", DealStageWon, DealStageLost)
		}).
		Derived("won", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("deals.stage = ?", DealStageWon)
		})

	r.DefineEntity(EntityInvoices).
		Table("invoices").
		Searchable("number").
		Breakdowns("status", "currency").
		Derived("overdue", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("invoices.status NOT IN (?, ?)", InvoiceStatusPaid, InvoiceStatusVoid).
				Where("invoices.due_date IS NOT NULL AND invoices.due_date < current_timestamp")
		})

	return r
}
