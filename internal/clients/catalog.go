package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// Product is the subset of the catalog's product the orchestrator needs.
type Product struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
}

// ProductCatalogClient resolves product codes against the product service.
type ProductCatalogClient struct {
	httpClient
}

// NewProductCatalogClient creates a client for the catalog base URL.
func NewProductCatalogClient(baseURL string) *ProductCatalogClient {
	return &ProductCatalogClient{httpClient: newHTTPClient(baseURL)}
}

// FindProductByCode resolves a product by its code. Returns ErrNotFound
// when the catalog does not know the code.
func (c *ProductCatalogClient) FindProductByCode(ctx context.Context, tenantID uuid.UUID, code string) (Product, error) {
	var product Product

	path := "/v1/products?code=" + url.QueryEscape(code)
	if err := c.doJSON(ctx, http.MethodGet, path, tenantID.String(), nil, &product); err != nil {
		return Product{}, err
	}

	return product, nil
}
