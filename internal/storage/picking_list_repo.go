// Package storage implements the Postgres-backed repositories of the
// picking domain. SQL is built with goqu and executed through the adapters
// package, so the same repository code runs on pgx or sqlx.
//
// Every statement carries the tenant id as a mandatory predicate. Rows for
// picking lists guard updates with an optimistic version column; a write
// that affects zero rows is reported as shell.ErrConcurrencyConflict.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"

	"github.com/stocklift/picking-orchestrator/internal/core"
	"github.com/stocklift/picking-orchestrator/internal/observability"
	"github.com/stocklift/picking-orchestrator/internal/shell"
	"github.com/stocklift/picking-orchestrator/internal/storage/adapters"
)

const (
	pickingListsTable = "picking_lists"
	loadsTable        = "loads"

	colID            = "id"
	colTenantID      = "tenant_id"
	colPickingListID = "picking_list_id"
	colStatus        = "status"
	colVersion       = "version"

	dialectPostgres = "postgres"
)

// ErrPickingListNotFound is returned when no list exists for id and tenant.
var ErrPickingListNotFound = errors.New("picking list not found")

// PickingListRepository persists PickingList aggregates.
type PickingListRepository struct {
	db     adapters.DBAdapter
	logger observability.Logger
}

// NewPickingListRepository creates a repository on the given adapter.
func NewPickingListRepository(db adapters.DBAdapter, logger observability.Logger) *PickingListRepository {
	return &PickingListRepository{db: db, logger: logger}
}

// Get loads a picking list by id and tenant from the primary, including
// the ids of its owned loads. Reads here back optimistic writes, so they
// must observe the latest committed state.
func (r *PickingListRepository) Get(ctx context.Context, tenantID uuid.UUID, listID uuid.UUID) (*core.PickingList, error) {
	query, _, err := goqu.Dialect(dialectPostgres).
		From(pickingListsTable).
		Select(colID, colTenantID, colStatus, colVersion).
		Where(goqu.Ex{colID: listID.String(), colTenantID: tenantID.String()}).
		ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryStrong(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		// An execution failure must not masquerade as not-found: the
		// consumer acknowledges not-found as a stale event, while a
		// transient failure has to be redelivered.
		if rowsErr := rows.Err(); rowsErr != nil {
			return nil, errors.Join(shell.ErrDownstreamUnavailable, rowsErr)
		}

		return nil, fmt.Errorf("%w: %s", ErrPickingListNotFound, listID)
	}

	var (
		id, tenant, status string
		version            uint
	)

	if err := rows.Scan(&id, &tenant, &status, &version); err != nil {
		return nil, err
	}

	list := &core.PickingList{
		Status:  core.ListStatus(status),
		Version: version,
	}

	if list.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}

	if list.TenantID, err = uuid.Parse(tenant); err != nil {
		return nil, err
	}

	if list.LoadRefs, err = r.loadRefs(ctx, tenantID, listID); err != nil {
		return nil, err
	}

	return list, nil
}

// Save persists the list's status under the optimistic version guard and
// bumps the in-memory version on success. Zero affected rows means a
// concurrent writer advanced the row first.
func (r *PickingListRepository) Save(ctx context.Context, list *core.PickingList) error {
	query, _, err := goqu.Dialect(dialectPostgres).
		Update(pickingListsTable).
		Set(goqu.Record{
			colStatus:  string(list.Status),
			colVersion: list.Version + 1,
		}).
		Where(goqu.Ex{
			colID:       list.ID.String(),
			colTenantID: list.TenantID.String(),
			colVersion:  list.Version,
		}).
		ToSQL()
	if err != nil {
		return err
	}

	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		r.logger.Debug("optimistic lock conflict on picking list",
			"list_id", list.ID.String(), "expected_version", list.Version)

		return shell.ErrConcurrencyConflict
	}

	list.Version++

	return nil
}

// Create inserts a new picking list at version 0.
func (r *PickingListRepository) Create(ctx context.Context, list *core.PickingList) error {
	query, _, err := goqu.Dialect(dialectPostgres).
		Insert(pickingListsTable).
		Cols(colID, colTenantID, colStatus, colVersion).
		Vals(goqu.Vals{list.ID.String(), list.TenantID.String(), string(list.Status), 0}).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query)

	return err
}

func (r *PickingListRepository) loadRefs(ctx context.Context, tenantID uuid.UUID, listID uuid.UUID) ([]uuid.UUID, error) {
	query, _, err := goqu.Dialect(dialectPostgres).
		From(loadsTable).
		Select(colID).
		Where(goqu.Ex{colPickingListID: listID.String(), colTenantID: tenantID.String()}).
		Order(goqu.I(colID).Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryStrong(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var refs []uuid.UUID

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}

		refs = append(refs, id)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, errors.Join(shell.ErrDownstreamUnavailable, rowsErr)
	}

	return refs, nil
}
