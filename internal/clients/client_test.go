package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklift/picking-orchestrator/internal/shell"
)

func Test_DoJSON_MapsServerErrorToDownstreamUnavailable(t *testing.T) {
	// arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewLocationPlannerClient(server.URL)

	// act
	err := client.PlanLocations(context.Background(), uuid.New(), uuid.New())

	// assert - 5xx must be classified retryable so the broker redelivers
	assert.ErrorIs(t, err, shell.ErrDownstreamUnavailable)
	assert.True(t, shell.IsRetryable(err))
}

func Test_DoJSON_MapsNotFound(t *testing.T) {
	// arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewStockServiceClient(server.URL)

	// act
	_, err := client.FindStockItem(context.Background(), uuid.New(), uuid.New(), uuid.New())

	// assert - not-found is not retryable, callers decide whether it is benign
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, shell.IsRetryable(err))
}

func Test_DoJSON_MapsConnectionFailureToDownstreamUnavailable(t *testing.T) {
	// arrange - a closed server simulates connection refused
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := NewLocationPlannerClient(server.URL)

	// act
	err := client.PlanLocations(context.Background(), uuid.New(), uuid.New())

	// assert
	assert.ErrorIs(t, err, shell.ErrDownstreamUnavailable)
}

func Test_FindProductByCode_DecodesResponse(t *testing.T) {
	// arrange
	productID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "P-100", r.URL.Query().Get("code"))
		assert.NotEmpty(t, r.Header.Get("X-Tenant-ID"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"` + productID.String() + `","code":"P-100"}`))
	}))
	defer server.Close()

	client := NewProductCatalogClient(server.URL)

	// act
	product, err := client.FindProductByCode(context.Background(), uuid.New(), "P-100")

	// assert
	require.NoError(t, err)
	assert.Equal(t, productID, product.ID)
}
