package convergence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklift/picking-orchestrator/internal/core"
	"github.com/stocklift/picking-orchestrator/internal/shell"
	"github.com/stocklift/picking-orchestrator/internal/storage"
)

/*** Fakes ***/

// listRepoFake holds one picking list and mimics the repository's
// optimistic version guard. onSave hooks let tests simulate a concurrent
// sibling winning the race between Get and Save.
type listRepoFake struct {
	list      *core.PickingList
	getCalls  int
	saveCalls int
	onSave    func(attempt int, list *core.PickingList) error
}

func (f *listRepoFake) Get(_ context.Context, tenantID uuid.UUID, listID uuid.UUID) (*core.PickingList, error) {
	f.getCalls++

	if f.list == nil || f.list.ID != listID || f.list.TenantID != tenantID {
		return nil, storage.ErrPickingListNotFound
	}

	copied := *f.list

	return &copied, nil
}

func (f *listRepoFake) Save(_ context.Context, list *core.PickingList) error {
	f.saveCalls++

	if f.onSave != nil {
		if err := f.onSave(f.saveCalls, list); err != nil {
			return err
		}
	}

	if list.Version != f.list.Version {
		return shell.ErrConcurrencyConflict
	}

	stored := *list
	stored.Version++
	f.list = &stored
	list.Version++

	return nil
}

type loadReaderFake struct {
	// results is consumed one call at a time; the last entry repeats.
	results [][]core.Load
	calls   int
	err     error
}

func (f *loadReaderFake) FindByPickingListFromStore(_ context.Context, _ uuid.UUID, _ uuid.UUID) ([]core.Load, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	idx := f.calls - 1
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}

	return f.results[idx], nil
}

type publisherSpy struct {
	published core.DomainEvents
	err       error
}

func (s *publisherSpy) PublishAll(_ context.Context, _ shell.MessageContext, events core.DomainEvents) error {
	if s.err != nil {
		return s.err
	}

	s.published = append(s.published, events...)

	return nil
}

type loggerStub struct{}

func (loggerStub) Debug(string, ...any) {}
func (loggerStub) Info(string, ...any)  {}
func (loggerStub) Warn(string, ...any)  {}
func (loggerStub) Error(string, ...any) {}

type metricsStub struct{}

func (metricsStub) RecordDuration(string, time.Duration, map[string]string) {}
func (metricsStub) IncrementCounter(string, map[string]string)              {}
func (metricsStub) RecordValue(string, float64, map[string]string)          {}

/*** Helpers ***/

func fastConfig() Config {
	return Config{
		ReadAttempts: 3,
		ReadDelay:    time.Millisecond,
		RetryOptions: []shell.RetryOption{shell.WithBaseDelay(time.Millisecond)},
	}
}

func buildConsumer(repo *listRepoFake, reader *loadReaderFake, publisher *publisherSpy) *Consumer {
	return NewConsumer(repo, reader, publisher, fastConfig(), loggerStub{}, metricsStub{})
}

func plannedMessage(t *testing.T, tenantID uuid.UUID, listID uuid.UUID, loadID uuid.UUID) kafka.Message {
	t.Helper()

	event := core.BuildLoadPlanned(loadID, tenantID, &listID, nil, time.Now().UTC())
	raw, err := shell.MarshalDomainEvent(event)
	require.NoError(t, err)

	return kafka.Message{Key: []byte(event.LoadID), Value: raw}
}

func loadsFor(list *core.PickingList, planned ...uuid.UUID) []core.Load {
	plannedSet := make(map[uuid.UUID]bool, len(planned))
	for _, id := range planned {
		plannedSet[id] = true
	}

	loads := make([]core.Load, 0, len(list.LoadRefs))

	for _, id := range list.LoadRefs {
		status := core.LoadStatusDraft
		if plannedSet[id] {
			status = core.LoadStatusPlanned
		}

		listID := list.ID
		loads = append(loads, core.Load{
			ID:            id,
			TenantID:      list.TenantID,
			PickingListID: &listID,
			Status:        status,
		})
	}

	return loads
}

/*** Tests ***/

func Test_Handle_FirstSiblingPlanned_DoesNotTransition(t *testing.T) {
	// arrange
	loadA, loadB := uuid.New(), uuid.New()
	list := core.BuildPickingList(uuid.New(), uuid.New(), []uuid.UUID{loadA, loadB})
	repo := &listRepoFake{list: list}
	reader := &loadReaderFake{results: [][]core.Load{loadsFor(list, loadA)}}
	publisher := &publisherSpy{}
	consumer := buildConsumer(repo, reader, publisher)

	// act
	err := consumer.Handle(context.Background(), plannedMessage(t, list.TenantID, list.ID, loadA))

	// assert
	require.NoError(t, err)
	assert.Zero(t, repo.saveCalls)
	assert.Equal(t, core.ListStatusReceived, repo.list.Status)
	assert.Empty(t, publisher.published)
}

func Test_Handle_LastSiblingPlanned_ConvergesInOneSave(t *testing.T) {
	// arrange
	loadA, loadB := uuid.New(), uuid.New()
	list := core.BuildPickingList(uuid.New(), uuid.New(), []uuid.UUID{loadA, loadB})
	repo := &listRepoFake{list: list}
	reader := &loadReaderFake{results: [][]core.Load{loadsFor(list, loadA, loadB)}}
	publisher := &publisherSpy{}
	consumer := buildConsumer(repo, reader, publisher)

	// act
	err := consumer.Handle(context.Background(), plannedMessage(t, list.TenantID, list.ID, loadB))

	// assert - RECEIVED -> PROCESSING -> PLANNED lands as a single save
	require.NoError(t, err)
	assert.Equal(t, 1, repo.saveCalls)
	assert.Equal(t, core.ListStatusPlanned, repo.list.Status)
	assert.Equal(t, uint(1), repo.list.Version)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, core.PickingListPlannedEventType, publisher.published[0].EventType())
}

func Test_Handle_AlreadyPlanned_IsIdempotentNoOp(t *testing.T) {
	// arrange
	loadA := uuid.New()
	list := core.BuildPickingList(uuid.New(), uuid.New(), []uuid.UUID{loadA})
	list.Status = core.ListStatusPlanned
	repo := &listRepoFake{list: list}
	reader := &loadReaderFake{results: [][]core.Load{loadsFor(list, loadA)}}
	publisher := &publisherSpy{}
	consumer := buildConsumer(repo, reader, publisher)

	// act
	err := consumer.Handle(context.Background(), plannedMessage(t, list.TenantID, list.ID, loadA))

	// assert - exits before even reading the loads
	require.NoError(t, err)
	assert.Zero(t, repo.saveCalls)
	assert.Zero(t, reader.calls)
	assert.Empty(t, publisher.published)
}

func Test_Handle_StandaloneLoad_IsSkipped(t *testing.T) {
	// arrange
	repo := &listRepoFake{}
	reader := &loadReaderFake{results: [][]core.Load{nil}}
	consumer := buildConsumer(repo, reader, &publisherSpy{})

	event := core.BuildLoadPlanned(uuid.New(), uuid.New(), nil, nil, time.Now().UTC())
	raw, err := shell.MarshalDomainEvent(event)
	require.NoError(t, err)

	// act
	handleErr := consumer.Handle(context.Background(), kafka.Message{Value: raw})

	// assert
	require.NoError(t, handleErr)
	assert.Zero(t, repo.getCalls)
}

func Test_Handle_ParentListAbsent_AcknowledgesStaleEvent(t *testing.T) {
	// arrange
	repo := &listRepoFake{} // holds no list at all
	reader := &loadReaderFake{results: [][]core.Load{nil}}
	consumer := buildConsumer(repo, reader, &publisherSpy{})

	// act
	err := consumer.Handle(context.Background(), plannedMessage(t, uuid.New(), uuid.New(), uuid.New()))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, repo.getCalls)
	assert.Zero(t, reader.calls)
}

func Test_Handle_EmptyLoadReads_RetriesThenDefers(t *testing.T) {
	// arrange - the store never shows the loads within the retry bound
	loadA := uuid.New()
	list := core.BuildPickingList(uuid.New(), uuid.New(), []uuid.UUID{loadA})
	repo := &listRepoFake{list: list}
	reader := &loadReaderFake{results: [][]core.Load{{}}}
	publisher := &publisherSpy{}
	consumer := buildConsumer(repo, reader, publisher)

	// act
	err := consumer.Handle(context.Background(), plannedMessage(t, list.TenantID, list.ID, loadA))

	// assert - acknowledged without a transition, a later sibling re-triggers
	require.NoError(t, err)
	assert.Equal(t, 3, reader.calls)
	assert.Zero(t, repo.saveCalls)
	assert.Equal(t, core.ListStatusReceived, repo.list.Status)
}

func Test_Handle_LateVisibleLoads_ConvergeWithinReadRetries(t *testing.T) {
	// arrange - first read misses, second sees the loads
	loadA := uuid.New()
	list := core.BuildPickingList(uuid.New(), uuid.New(), []uuid.UUID{loadA})
	repo := &listRepoFake{list: list}
	reader := &loadReaderFake{results: [][]core.Load{{}, loadsFor(list, loadA)}}
	consumer := buildConsumer(repo, reader, &publisherSpy{})

	// act
	err := consumer.Handle(context.Background(), plannedMessage(t, list.TenantID, list.ID, loadA))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, reader.calls)
	assert.Equal(t, core.ListStatusPlanned, repo.list.Status)
}

func Test_Handle_ConcurrencyConflict_ReloadsAndYieldsToWinner(t *testing.T) {
	// arrange - a concurrent sibling converges the list between this
	// handler's Get and Save
	loadA, loadB := uuid.New(), uuid.New()
	list := core.BuildPickingList(uuid.New(), uuid.New(), []uuid.UUID{loadA, loadB})
	repo := &listRepoFake{list: list}
	repo.onSave = func(attempt int, _ *core.PickingList) error {
		if attempt == 1 {
			winner := *repo.list
			winner.Status = core.ListStatusPlanned
			winner.Version++
			repo.list = &winner

			return shell.ErrConcurrencyConflict
		}

		return nil
	}
	reader := &loadReaderFake{results: [][]core.Load{loadsFor(list, loadA, loadB)}}
	publisher := &publisherSpy{}
	consumer := buildConsumer(repo, reader, publisher)

	// act
	err := consumer.Handle(context.Background(), plannedMessage(t, list.TenantID, list.ID, loadB))

	// assert - second attempt reloads, sees PLANNED and backs off
	require.NoError(t, err)
	assert.Equal(t, 1, repo.saveCalls)
	assert.Equal(t, 2, repo.getCalls)
	assert.Equal(t, core.ListStatusPlanned, repo.list.Status)
	assert.Empty(t, publisher.published, "the losing handler must not publish a second PickingListPlanned")
}

func Test_Handle_RepositoryFailure_SurfacesForRedelivery(t *testing.T) {
	// arrange
	loadA := uuid.New()
	list := core.BuildPickingList(uuid.New(), uuid.New(), []uuid.UUID{loadA})
	repo := &listRepoFake{list: list}
	reader := &loadReaderFake{err: shell.ErrDownstreamUnavailable}
	consumer := buildConsumer(repo, reader, &publisherSpy{})

	// act
	err := consumer.Handle(context.Background(), plannedMessage(t, list.TenantID, list.ID, loadA))

	// assert
	assert.ErrorIs(t, err, shell.ErrDownstreamUnavailable)
	assert.True(t, shell.IsRetryable(err))
}

func Test_Handle_PublishFailureAfterSave_SurfacesForRedelivery(t *testing.T) {
	// arrange - the save sticks, the publish does not; the redelivered
	// message finds the list already settled and exits without publishing,
	// so a crash in this window loses the PickingListPlanned event
	loadA := uuid.New()
	list := core.BuildPickingList(uuid.New(), uuid.New(), []uuid.UUID{loadA})
	repo := &listRepoFake{list: list}
	reader := &loadReaderFake{results: [][]core.Load{loadsFor(list, loadA)}}
	publisher := &publisherSpy{err: shell.ErrDownstreamUnavailable}
	consumer := buildConsumer(repo, reader, publisher)

	// act
	err := consumer.Handle(context.Background(), plannedMessage(t, list.TenantID, list.ID, loadA))

	// assert
	assert.ErrorIs(t, err, shell.ErrDownstreamUnavailable)
	assert.Equal(t, core.ListStatusPlanned, repo.list.Status)
}

func Test_Handle_MalformedTenantID_IsPoison(t *testing.T) {
	// arrange
	consumer := buildConsumer(&listRepoFake{}, &loadReaderFake{results: [][]core.Load{nil}}, &publisherSpy{})

	raw := []byte(`{"eventType":"LoadPlanned","loadId":"` + uuid.New().String() +
		`","tenantId":"not-a-uuid","pickingListId":"` + uuid.New().String() + `","taskIds":[]}`)

	// act
	err := consumer.Handle(context.Background(), kafka.Message{Value: raw})

	// assert
	assert.True(t, shell.IsPoison(err))
}

func Test_Handle_IgnoresUnrelatedEventTypes(t *testing.T) {
	// arrange
	repo := &listRepoFake{}
	consumer := buildConsumer(repo, &loadReaderFake{results: [][]core.Load{nil}}, &publisherSpy{})

	event := core.BuildPickingListReceived(uuid.New(), uuid.New(), []uuid.UUID{uuid.New()}, time.Now().UTC())
	raw, err := shell.MarshalDomainEvent(event)
	require.NoError(t, err)

	// act
	handleErr := consumer.Handle(context.Background(), kafka.Message{Value: raw})

	// assert
	require.NoError(t, handleErr)
	assert.Zero(t, repo.getCalls)
}
