package tenantkit

import (
	"testing"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/stretchr/testify/assert"
)

// backdate rewrites a client company's creation timestamp
func backdate(t *testing.T, h *TestDataHelper, clientID string, createdAt time.Time) {
	t.Helper()
	err := h.service.Transaction(h.ctx, func(tx dbkit.IDB) error {
		_, err := tx.NewUpdate().Table("client_companies").
			Set("created_at = ?", createdAt).
			Where("id = ?", clientID).
			Exec(h.ctx)
		return err
	})
	assert.NoError(t, err)
}

// TestIntegrationStats tests totals, the recent window, and breakdowns
func TestIntegrationStats(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	userID := h.CreateTestUser("stats")
	orgID := h.BootstrapOrg(userID)

	h.SeedClient(orgID, "Alpha", "Tech")
	h.SeedClient(orgID, "Beta", "Tech")
	h.SeedClient(orgID, "Gamma", "")
	h.SeedClient(orgID, "Delta", "")
	old := h.SeedClient(orgID, "Epsilon", "")
	backdate(t, h, old.ID, time.Now().UTC().Add(-40*24*time.Hour))

	report, err := h.service.Stats(h.ctx, orgID, EntityClients)
	assert.NoError(t, err)

	assert.Equal(t, EntityClients, report.EntityType)
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 4, report.RecentlyAdded)

	// Null industries count toward the total but form no bucket
	industry := report.Breakdowns["industry"]
	assert.Equal(t, map[string]int{"Tech": 2}, industry)
}

// TestIntegrationStatsDerivedCounts tests the registered derived predicates
func TestIntegrationStatsDerivedCounts(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	userID := h.CreateTestUser("derived")
	orgID := h.BootstrapOrg(userID)

	linked := h.SeedClient(orgID, "Linked", "Tech")
	h.SeedClient(orgID, "Unlinked", "Tech")
	h.SeedContact(orgID, linked.ID, "Ana")
	h.SeedDeal(orgID, linked.ID, "Big deal", DealStageProposal)

	report, err := h.service.Stats(h.ctx, orgID, EntityClients)
	assert.NoError(t, err)

	assert.Equal(t, 1, report.DerivedCounts["with_contacts"])
	assert.Equal(t, 1, report.DerivedCounts["without_contacts"])
	assert.Equal(t, 1, report.DerivedCounts["with_open_deals"])
}

// TestIntegrationStatsDealStages tests deal breakdowns and open/won counts
func TestIntegrationStatsDealStages(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	userID := h.CreateTestUser("dealstats")
	orgID := h.BootstrapOrg(userID)

	client := h.SeedClient(orgID, "Pipeline Corp", "Tech")
	h.SeedDeal(orgID, client.ID, "D1", DealStageLead)
	h.SeedDeal(orgID, client.ID, "D2", DealStageProposal)
	h.SeedDeal(orgID, client.ID, "D3", DealStageWon)
	h.SeedDeal(orgID, client.ID, "D4", DealStageLost)

	report, err := h.service.Stats(h.ctx, orgID, EntityDeals)
	assert.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, map[string]int{
		DealStageLead:     1,
		DealStageProposal: 1,
		DealStageWon:      1,
		DealStageLost:     1,
	}, report.Breakdowns["stage"])
	assert.Equal(t, 2, report.DerivedCounts["open"])
	assert.Equal(t, 1, report.DerivedCounts["won"])
}

// TestIntegrationStatsIsolation tests that aggregates never mix tenants
func TestIntegrationStatsIsolation(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	userA := h.CreateTestUser("statiso-a")
	userB := h.CreateTestUser("statiso-b")
	orgA := h.BootstrapOrg(userA)
	orgB := h.BootstrapOrg(userB)

	h.SeedClient(orgA, "A Corp", "Tech")
	h.SeedClient(orgA, "A2 Corp", "Tech")
	h.SeedClient(orgB, "B Corp", "Food")

	reportA, err := h.service.Stats(h.ctx, orgA, EntityClients)
	assert.NoError(t, err)
	assert.Equal(t, 2, reportA.Total)
	assert.Empty(t, reportA.Breakdowns["industry"]["Food"])

	reportB, err := h.service.Stats(h.ctx, orgB, EntityClients)
	assert.NoError(t, err)
	assert.Equal(t, 1, reportB.Total)
}

// TestIntegrationStatsUnknownEntity tests validation of the entity type
func TestIntegrationStatsUnknownEntity(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	userID := h.CreateTestUser("statsbad")
	orgID := h.BootstrapOrg(userID)

	_, err := h.service.Stats(h.ctx, orgID, "widgets")
	assert.True(t, IsValidation(err))
}
