package clients

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// LocationPlannerClient issues "plan locations for this load" commands to
// the planning service.
type LocationPlannerClient struct {
	httpClient
}

// NewLocationPlannerClient creates a client for the planner base URL.
func NewLocationPlannerClient(baseURL string) *LocationPlannerClient {
	return &LocationPlannerClient{httpClient: newHTTPClient(baseURL)}
}

// PlanLocations requests location planning for one load. Planning is
// idempotent on the planner side, so redelivering the triggering event
// re-issues this command safely.
func (c *LocationPlannerClient) PlanLocations(ctx context.Context, tenantID uuid.UUID, loadID uuid.UUID) error {
	path := "/v1/loads/" + loadID.String() + "/plan"

	return c.doJSON(ctx, http.MethodPost, path, tenantID.String(), nil, nil)
}
