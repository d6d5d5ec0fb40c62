package clients

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// StockItem is the subset of the stock service's item the orchestrator
// needs to build a movement.
type StockItem struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"productId"`
	LocationID uuid.UUID `json:"locationId"`
	Quantity   int       `json:"quantity"`
}

// StockMovement is the command payload for creating a movement.
type StockMovement struct {
	ID               uuid.UUID `json:"id"`
	ProductID        uuid.UUID `json:"productId"`
	SourceLocationID uuid.UUID `json:"sourceLocationId"`
	TargetLocationID uuid.UUID `json:"targetLocationId"`
	Quantity         int       `json:"quantity"`
	ActorID          string    `json:"actorId"`
}

// StockServiceClient talks to the stock service: item lookups, the
// tenant's shipping location, and movement creation.
type StockServiceClient struct {
	httpClient
}

// NewStockServiceClient creates a client for the stock service base URL.
func NewStockServiceClient(baseURL string) *StockServiceClient {
	return &StockServiceClient{httpClient: newHTTPClient(baseURL)}
}

// FindStockItem resolves the stock item for a product at a location.
// Returns ErrNotFound when no item exists there, which callers treat as
// benign: the item may have already been moved away.
func (c *StockServiceClient) FindStockItem(ctx context.Context, tenantID uuid.UUID, productID uuid.UUID, locationID uuid.UUID) (StockItem, error) {
	var item StockItem

	path := "/v1/stock-items?productId=" + productID.String() + "&locationId=" + locationID.String()
	if err := c.doJSON(ctx, http.MethodGet, path, tenantID.String(), nil, &item); err != nil {
		return StockItem{}, err
	}

	return item, nil
}

// FindShippingLocation resolves the tenant's designated shipping location.
// Returns ErrNotFound when none is configured.
func (c *StockServiceClient) FindShippingLocation(ctx context.Context, tenantID uuid.UUID) (uuid.UUID, error) {
	var location struct {
		ID uuid.UUID `json:"id"`
	}

	if err := c.doJSON(ctx, http.MethodGet, "/v1/locations/shipping", tenantID.String(), nil, &location); err != nil {
		return uuid.Nil, err
	}

	return location.ID, nil
}

// CreateMovement issues the "create stock movement" command.
func (c *StockServiceClient) CreateMovement(ctx context.Context, tenantID uuid.UUID, movement StockMovement) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/stock-movements", tenantID.String(), movement, nil)
}
