package storage

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/stocklift/picking-orchestrator/internal/core"
	"github.com/stocklift/picking-orchestrator/internal/observability"
	"github.com/stocklift/picking-orchestrator/internal/shell"
	"github.com/stocklift/picking-orchestrator/internal/storage/adapters"
)

// LoadRepository reads Load rows. Loads are mutated by their own command
// handlers; this service only ever reads them.
type LoadRepository struct {
	db     adapters.DBAdapter
	logger observability.Logger
}

// NewLoadRepository creates a repository on the given adapter.
func NewLoadRepository(db adapters.DBAdapter, logger observability.Logger) *LoadRepository {
	return &LoadRepository{db: db, logger: logger}
}

// FindByPickingList returns all loads owned by the given list, read from
// the system of record. The convergence consumer depends on this read
// reflecting just-committed sibling writes as closely as the database
// allows, so it goes to the primary, never a cache.
func (r *LoadRepository) FindByPickingList(ctx context.Context, tenantID uuid.UUID, listID uuid.UUID) ([]core.Load, error) {
	query, _, err := goqu.Dialect(dialectPostgres).
		From(loadsTable).
		Select(colID, colTenantID, colPickingListID, colStatus).
		Where(goqu.Ex{colPickingListID: listID.String(), colTenantID: tenantID.String()}).
		ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryStrong(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var loads []core.Load

	for rows.Next() {
		var rawID, rawTenant, rawListID, status string

		if err := rows.Scan(&rawID, &rawTenant, &rawListID, &status); err != nil {
			return nil, err
		}

		load := core.Load{Status: core.LoadStatus(status)}

		if load.ID, err = uuid.Parse(rawID); err != nil {
			return nil, err
		}

		if load.TenantID, err = uuid.Parse(rawTenant); err != nil {
			return nil, err
		}

		if parentID, parseErr := uuid.Parse(rawListID); parseErr == nil {
			load.PickingListID = &parentID
		}

		loads = append(loads, load)
	}

	// A failure at iteration end would otherwise look like an empty or
	// truncated load list, which the convergence consumer treats as benign
	// replication lag and acknowledges.
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, errors.Join(shell.ErrDownstreamUnavailable, rowsErr)
	}

	return loads, nil
}
