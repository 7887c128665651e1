package tenantkit

import (
	"context"
	"strings"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// likeEscaper neutralizes LIKE metacharacters so a search term is matched
// as a literal substring. "100%" must match only rows containing "100%".
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// record is the constraint for the facade's generic operations: a pointer
// to a struct embedding TenantModel.
type record[T any] interface {
	TenantRecord
	*T
}

// ============================================================================
// READS
// ============================================================================

// Get retrieves one organization-scoped record by id. A row that exists in
// another organization is reported exactly like a row that does not exist.
//
// Example:
//
//	client, err := tenantkit.Get[tenantkit.ClientCompany](ctx, service, orgID, id)
func Get[T any, PT record[T]](ctx context.Context, s *Service, orgID, id string) (PT, error) {
	entity := PT(new(T))
	err := dbkit.WithErr1(
		s.db.NewSelect().Model(entity).
			Where("organization_id = ?", orgID).
			Where("id = ?", id).
			Limit(1).
			Scan(ctx),
		"Get").Err()
	if err != nil {
		return nil, s.storageErr(ctx, err, "Get", orgID)
	}
	return entity, nil
}

// List returns one page of an organization-scoped, filtered, searched,
// sorted listing. Filters are exact-match AND; the search term matches
// case-insensitively as a substring against any of the entity type's
// searchable fields. Ordering is newest-first on the registered sort
// column with an id tiebreak, so repeated calls paginate stably.
//
// Example:
//
//	page, err := tenantkit.List[tenantkit.ClientCompany](ctx, service, orgID,
//	    tenantkit.EntityClients,
//	    tenantkit.NewListOptions().WithFilter("industry", "Tech").WithSearch("acme"))
func List[T any, PT record[T]](ctx context.Context, s *Service, orgID, entityType string, opts ListOptions) (*Page[T], error) {
	def, err := s.entityDef(entityType)
	if err != nil {
		return nil, err
	}

	page, limit := opts.normalize()

	var items []T
	q := s.db.NewSelect().Model(&items).
		Where("organization_id = ?", orgID)

	for field, value := range opts.Filters {
		q = q.Where("? = ?", bun.Ident(field), value)
	}

	if opts.Search != "" && len(def.SearchableFields()) > 0 {
		term := "%" + likeEscaper.Replace(opts.Search) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, field := range def.SearchableFields() {
				q = q.WhereOr(`? ILIKE ? ESCAPE '\'`, bun.Ident(field), term)
			}
			return q
		})
	}

	q = q.OrderExpr("? DESC", bun.Ident(def.SortColumn())).
		OrderExpr("id DESC").
		Limit(limit).
		Offset((page - 1) * limit)

	total, err := q.ScanAndCount(ctx)
	if err := dbkit.WithErr1(err, "List").Err(); err != nil && !dbkit.IsNotFound(err) {
		return nil, s.storageErr(ctx, err, "List", orgID)
	}

	return newPage(items, total, page, limit), nil
}

// Exists reports whether a record with the id exists in the organization.
func Exists[T any, PT record[T]](ctx context.Context, s *Service, orgID, id string) (bool, error) {
	exists, err := dbkit.Exists[T](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("organization_id = ?", orgID).Where("id = ?", id)
	})
	if err != nil {
		return false, s.storageErr(ctx, err, "Exists", orgID)
	}
	return exists, nil
}

// ============================================================================
// WRITES
// ============================================================================

// Create inserts an organization-scoped record. The organization id and
// timestamps are set here: whatever the caller put in those fields is
// discarded, so a request body can never plant a row in another tenant.
func Create[T any, PT record[T]](ctx context.Context, s *Service, orgID string, entity PT) error {
	rec := entity.tenantModel()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.OrganizationID = orgID
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	result, err := s.db.NewInsert().Model(entity).Exec(ctx)
	if err := dbkit.WithErr(result, err, "Create").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return NewError(ErrConflict, "record already exists").
				WithOrg(orgID).
				WithEntity("", rec.ID)
		}
		return s.storageErr(ctx, err, "Create", orgID)
	}
	return nil
}

// Update replaces an organization-scoped record. The stored organization id
// and creation timestamp are pinned before the write; a caller-supplied
// organization id is never applied, so a row can never move between
// tenants. Updating a row that is missing or owned by another organization
// returns ErrNotFound.
func Update[T any, PT record[T]](ctx context.Context, s *Service, orgID, id string, entity PT) error {
	existing, err := Get[T, PT](ctx, s, orgID, id)
	if err != nil {
		return err
	}

	rec := entity.tenantModel()
	rec.ID = id
	rec.OrganizationID = orgID
	rec.CreatedAt = existing.tenantModel().CreatedAt
	rec.UpdatedAt = time.Now().UTC()

	result, err := s.db.NewUpdate().Model(entity).
		Where("organization_id = ?", orgID).
		Where("id = ?", id).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "Update").Err(); err != nil {
		return s.storageErr(ctx, err, "Update", orgID)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return NewError(ErrNotFound, "Update").WithOrg(orgID).WithEntity("", id)
	}
	return nil
}

// Delete removes an organization-scoped record after re-running the
// dependency check. Deletion is physical; there is no tombstone state to
// leak into every other query. A blocked delete returns ErrConflict
// carrying the per-edge counts.
func (s *Service) Delete(ctx context.Context, orgID, entityType, id string) error {
	def, err := s.entityDef(entityType)
	if err != nil {
		return err
	}

	report, err := s.CheckDependencies(ctx, orgID, entityType, id)
	if err != nil {
		return err
	}
	if report.HasDependencies {
		return NewError(ErrConflict, "record has dependent records").
			WithOrg(orgID).
			WithEntity(entityType, id).
			WithCounts(report.Counts)
	}

	result, err := s.db.NewDelete().Table(def.TableName()).
		Where("organization_id = ? AND id = ?", orgID, id).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "Delete").Err(); err != nil {
		return s.storageErr(ctx, err, "Delete", orgID)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return NewError(ErrNotFound, "Delete").
			WithOrg(orgID).
			WithEntity(entityType, id)
	}
	return nil
}
