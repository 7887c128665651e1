package tenantkit

import (
	"context"
	"sync"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

// DependencyReport is the result of a pre-deletion dependency check: one
// count per declared edge, all scoped to the organization.
type DependencyReport struct {
	EntityType      string         `json:"entity_type"`
	EntityID        string         `json:"entity_id"`
	HasDependencies bool           `json:"has_dependencies"`
	Counts          map[string]int `json:"counts"`
}

// CheckDependencies counts dependent rows across the entity type's declared
// dependency edges. The per-edge count queries are independent reads, so
// they run concurrently. An entity type with no declared edges reports no
// dependencies.
//
// The check only reports; Delete is where a non-zero count actually blocks.
func (s *Service) CheckDependencies(ctx context.Context, orgID, entityType, id string) (*DependencyReport, error) {
	def, err := s.entityDef(entityType)
	if err != nil {
		return nil, err
	}

	edges := def.Edges()
	counts := make(map[string]int, len(edges))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, edge := range edges {
		g.Go(func() error {
			count, err := s.db.NewSelect().Table(edge.Table).
				Where("organization_id = ?", orgID).
				Where("? = ?", bun.Ident(edge.ForeignKey), id).
				Count(gctx)
			if err := dbkit.WithErr1(err, "CountDependents:"+edge.Name).Err(); err != nil {
				return err
			}

			mu.Lock()
			counts[edge.Name] = count
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.storageErr(ctx, err, "CheckDependencies", orgID)
	}

	report := &DependencyReport{
		EntityType: entityType,
		EntityID:   id,
		Counts:     counts,
	}
	for _, count := range counts {
		if count > 0 {
			report.HasDependencies = true
			break
		}
	}
	return report, nil
}
