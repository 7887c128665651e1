package tenantkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

// TestRegistryDefineEntity tests the fluent entity builder
func TestRegistryDefineEntity(t *testing.T) {
	r := NewEntityRegistry()

	r.DefineEntity("widgets").
		Table("widget_rows").
		Searchable("name", "sku").
		OrderBy("updated_at").
		Breakdowns("color").
		DependentEdge("parts", "widget_parts", "widget_id").
		Derived("active", func(q *bun.SelectQuery) *bun.SelectQuery { return q })

	def := r.Get("widgets")
	assert.NotNil(t, def)
	assert.Equal(t, "widgets", def.Name())
	assert.Equal(t, "widget_rows", def.TableName())
	assert.Equal(t, []string{"name", "sku"}, def.SearchableFields())
	assert.Equal(t, "updated_at", def.SortColumn())
	assert.Equal(t, []string{"color"}, def.Dimensions())
	assert.Len(t, def.Edges(), 1)
	assert.Equal(t, "widget_parts", def.Edges()[0].Table)
	assert.Equal(t, "widget_id", def.Edges()[0].ForeignKey)
	assert.Len(t, def.DerivedCounts(), 1)
}

// TestRegistryDefaults tests builder defaults
func TestRegistryDefaults(t *testing.T) {
	r := NewEntityRegistry()
	r.DefineEntity("things")

	def := r.Get("things")
	assert.Equal(t, "things", def.TableName())
	assert.Equal(t, "created_at", def.SortColumn())
	assert.Empty(t, def.SearchableFields())
	assert.Empty(t, def.Edges())
}

// TestRegistryValidate tests entity type validation
func TestRegistryValidate(t *testing.T) {
	r := NewEntityRegistry()
	r.DefineEntity("clients")

	assert.NoError(t, r.Validate("clients"))

	err := r.Validate("unknown")
	assert.Error(t, err)
	assert.True(t, IsValidation(err))
}

// TestRegistryEntityTypes tests listing defined types
func TestRegistryEntityTypes(t *testing.T) {
	r := NewEntityRegistry()
	r.DefineEntity("a").DefineEntity("b")

	assert.ElementsMatch(t, []string{"a", "b"}, r.EntityTypes())
}

// TestDefaultEntityRegistry tests the business-records entity wiring
func TestDefaultEntityRegistry(t *testing.T) {
	r := DefaultEntityRegistry()

	assert.ElementsMatch(t,
		[]string{EntityClients, EntityContacts, EntityDeals, EntityInvoices},
		r.EntityTypes())

	clients := r.Get(EntityClients)
	assert.Equal(t, "client_companies", clients.TableName())
	assert.Contains(t, clients.SearchableFields(), "name")
	assert.Contains(t, clients.Dimensions(), "industry")

	// Clients block on contacts, deals, and invoices
	edgeNames := make([]string, 0)
	for _, e := range clients.Edges() {
		edgeNames = append(edgeNames, e.Name)
	}
	assert.ElementsMatch(t, []string{"contacts", "deals", "invoices"}, edgeNames)

	contacts := r.Get(EntityContacts)
	assert.Len(t, contacts.Edges(), 1)
	assert.Equal(t, "deals", contacts.Edges()[0].Name)
	assert.Equal(t, "contact_id", contacts.Edges()[0].ForeignKey)

	deals := r.Get(EntityDeals)
	assert.Len(t, deals.Edges(), 1)
	assert.Equal(t, "invoices", deals.Edges()[0].Name)

	// Invoices are a leaf: nothing depends on them
	invoices := r.Get(EntityInvoices)
	assert.Empty(t, invoices.Edges())
}
