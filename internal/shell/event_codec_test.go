package shell

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklift/picking-orchestrator/internal/core"
)

func Test_UnmarshalDomainEvent_SelectsConcreteVariant(t *testing.T) {
	// arrange
	listID := uuid.New()
	original := core.BuildLoadPlanned(uuid.New(), uuid.New(), &listID, []uuid.UUID{uuid.New()}, time.Now().UTC())

	raw, err := MarshalDomainEvent(original)
	require.NoError(t, err)

	// act
	decoded, err := UnmarshalDomainEvent(raw)

	// assert
	require.NoError(t, err)
	loadPlanned, ok := decoded.(core.LoadPlanned)
	require.True(t, ok)
	assert.Equal(t, original.LoadID, loadPlanned.LoadID)
	assert.Equal(t, original.ListID, loadPlanned.ListID)
	assert.True(t, loadPlanned.HasParentList())
}

func Test_UnmarshalDomainEvent_PreservesMetadata(t *testing.T) {
	// arrange
	event := core.BuildPickingListReceived(uuid.New(), uuid.New(), []uuid.UUID{uuid.New()}, time.Now().UTC())
	metadata := core.BuildEventMetadata("corr", "cause", "actor", "tenant")
	enriched := event.WithMetadata(metadata)

	raw, err := MarshalDomainEvent(enriched)
	require.NoError(t, err)

	// act
	decoded, err := UnmarshalDomainEvent(raw)

	// assert
	require.NoError(t, err)
	got, has := decoded.Metadata()
	require.True(t, has)
	assert.Equal(t, metadata, got)
}

func Test_UnmarshalDomainEvent_UnknownType_IsPoison(t *testing.T) {
	_, err := UnmarshalDomainEvent([]byte(`{"eventType":"SomethingElseEntirely"}`))

	assert.ErrorIs(t, err, ErrUnknownEventType)
	assert.True(t, IsPoison(err))
}

func Test_UnmarshalDomainEvent_InvalidJSON_IsPoison(t *testing.T) {
	_, err := UnmarshalDomainEvent([]byte(`not json at all`))

	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func Test_MessageContextFrom_InheritsCorrelation(t *testing.T) {
	// arrange
	event := core.BuildLoadPlanned(uuid.New(), uuid.New(), nil, nil, time.Now()).
		WithMetadata(core.BuildEventMetadata("corr-1", "cause-0", "user-7", "tenant-1"))

	// act
	mc := MessageContextFrom(event)

	// assert
	assert.Equal(t, "corr-1", mc.CorrelationID)
	assert.Equal(t, "user-7", mc.ActorID)
	assert.Equal(t, "tenant-1", mc.TenantID)
	assert.Contains(t, mc.CausationID, core.LoadPlannedEventType)
}

func Test_MessageContextFrom_StartsFreshCorrelation_WhenNoneAttached(t *testing.T) {
	// arrange
	event := core.BuildLoadPlanned(uuid.New(), uuid.New(), nil, nil, time.Now())

	// act
	mc := MessageContextFrom(event)

	// assert
	assert.NotEmpty(t, mc.CorrelationID)
	assert.Equal(t, SystemActorID, mc.ActorID)
}
