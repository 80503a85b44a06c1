package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tienda/pkg/logger"
	"tienda/pkg/order"
	"tienda/pkg/order/file"
)

const seedLog = `{"orders":[{"id":1,"client":"Luis","date":"2023-12-31","status":"Delivered",
	"lineItems":[{"name":"Lamp","quantity":1,"unitPrice":"10"}],"total":"999"}]}`

type recorder struct {
	mu     sync.Mutex
	events []order.Created
}

func (r *recorder) Publish(_ context.Context, ev order.Created) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// flakyLog fails on demand.
type flakyLog struct {
	order.Log
	failLoad, failSave bool
}

var errDisk = errors.New("disk on fire")

func (f *flakyLog) Load(ctx context.Context) (order.Snapshot, error) {
	if f.failLoad {
		return order.Snapshot{}, errDisk
	}
	return f.Log.Load(ctx)
}

func (f *flakyLog) Save(ctx context.Context, s order.Snapshot) error {
	if f.failSave {
		return errDisk
	}
	return f.Log.Save(ctx, s)
}

type fixture struct {
	path  string
	log   *flakyLog
	store *Store
	pub   *recorder
}

func setup(t *testing.T, seed string, opts ...Option) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.json")
	if seed != "" {
		require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))
	}
	f := &fixture{path: path, log: &flakyLog{Log: file.New(path)}, pub: &recorder{}}
	opts = append([]Option{WithPublisher(f.pub)}, opts...)
	f.store = New(f.log, logger.NewNop(), opts...)
	require.NoError(t, f.store.Hydrate(context.Background()))
	return f
}

// restart builds a second store over the same log, as a new process would.
func (f *fixture) restart(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s := New(file.New(f.path), logger.NewNop(), opts...)
	require.NoError(t, s.Hydrate(context.Background()))
	return s
}

func (f *fixture) logBytes(t *testing.T) []byte {
	t.Helper()
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return b
}

func (f *fixture) snapshot(t *testing.T) order.Snapshot {
	t.Helper()
	s, err := file.New(f.path).Load(context.Background())
	require.NoError(t, err)
	return s
}

func TestHydrateRecomputesTotals(t *testing.T) {
	f := setup(t, seedLog)
	o, err := f.store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "10", o.Total.String())
	assert.Equal(t, order.StatusDelivered, o.Status)
}

func TestCreateScenario(t *testing.T) {
	ctx := context.Background()
	f := setup(t, seedLog)

	o, err := f.store.Create(ctx, order.CreateInput{
		Client: "Ana", Date: "2024-01-01", Status: "Pending",
		LineItems: []string{"Widget", "3", "2.50"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, o.ID)
	require.Len(t, o.LineItems, 1)
	assert.Equal(t, "Widget", o.LineItems[0].Name)
	assert.Equal(t, 3, o.LineItems[0].Quantity)
	assert.Equal(t, "2.5", o.LineItems[0].UnitPrice.String())
	assert.Equal(t, "7.5", o.Total.String())

	snap := f.snapshot(t)
	assert.Len(t, snap.Orders, 2)
	assert.Equal(t, 3, snap.NextID)

	got, err := f.store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Client)
	assert.Equal(t, order.Date("2024-01-01"), got.Date)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, o.LineItems, got.LineItems)

	require.Equal(t, 1, f.pub.len())
	assert.Equal(t, 2, f.pub.events[0].ID)
	assert.Equal(t, "Ana", f.pub.events[0].Client)
}

func TestCreateFiltersLineItems(t *testing.T) {
	f := setup(t, "")
	o, err := f.store.Create(context.Background(), order.CreateInput{
		Client: "Ana", Date: "2024-01-01", Status: "Pending",
		LineItems: []string{"A", "0", "5.00", "B", "2", "3.00"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, o.ID)
	require.Len(t, o.LineItems, 1)
	assert.Equal(t, "B", o.LineItems[0].Name)
	assert.Equal(t, "6", o.Total.String())
	for _, li := range o.LineItems {
		assert.Positive(t, li.Quantity)
		assert.True(t, li.UnitPrice.IsPositive())
	}
}

func TestCreateValidationLeavesStateUnchanged(t *testing.T) {
	for name, items := range map[string][]string{
		"length not a multiple of three": {"A", "1"},
		"no surviving triple":            {"A", "0", "1", "B", "1", "0"},
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := setup(t, seedLog)
			before := f.logBytes(t)

			_, err := f.store.Create(ctx, order.CreateInput{Client: "Ana", Date: "2024-01-01", Status: "Pending", LineItems: items})
			assert.ErrorIs(t, err, order.ErrInvalidLineItems)

			list, err := f.store.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
			assert.Equal(t, before, f.logBytes(t))
			assert.Zero(t, f.pub.len())
		})
	}
}

func TestCreateStorageFailure(t *testing.T) {
	ctx := context.Background()
	f := setup(t, seedLog)
	f.log.failSave = true

	_, err := f.store.Create(ctx, order.CreateInput{Client: "Ana", Date: "2024-01-01", Status: "Pending", LineItems: []string{"W", "1", "1"}})
	assert.ErrorIs(t, err, order.ErrStorage)
	assert.ErrorIs(t, err, errDisk)

	list, _ := f.store.List(ctx)
	assert.Len(t, list, 1, "index must not run ahead of the log")
	assert.Zero(t, f.pub.len())
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := setup(t, seedLog)

	o, err := f.store.UpdateStatus(ctx, 1, "enviado")
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, o.Status)

	got, _ := f.store.Get(ctx, 1)
	assert.Equal(t, order.StatusShipped, got.Status)
	assert.Equal(t, order.StatusShipped, f.snapshot(t).Orders[0].Status)
}

func TestUpdateStatusNotFound(t *testing.T) {
	ctx := context.Background()
	f := setup(t, seedLog)
	before := f.logBytes(t)

	_, err := f.store.UpdateStatus(ctx, 99, "Shipped")
	assert.ErrorIs(t, err, order.ErrNotFound)
	assert.Equal(t, before, f.logBytes(t))

	got, _ := f.store.Get(ctx, 1)
	assert.Equal(t, order.StatusDelivered, got.Status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := setup(t, seedLog)
	_, err := f.store.UpdateStatus(context.Background(), 1, "Teleported")
	assert.ErrorIs(t, err, order.ErrValidation)
}

func TestUpdateStatusStorageFailureKeepsIndex(t *testing.T) {
	ctx := context.Background()
	f := setup(t, seedLog)

	f.log.failSave = true
	_, err := f.store.UpdateStatus(ctx, 1, "Cancelled")
	assert.ErrorIs(t, err, order.ErrStorage)

	f.log.failSave, f.log.failLoad = false, true
	_, err = f.store.UpdateStatus(ctx, 1, "Cancelled")
	assert.ErrorIs(t, err, order.ErrStorage)

	got, _ := f.store.Get(ctx, 1)
	assert.Equal(t, order.StatusDelivered, got.Status)
}

func TestDeleteIndexOnlyIsResurrectedOnRestart(t *testing.T) {
	ctx := context.Background()
	f := setup(t, seedLog)

	require.NoError(t, f.store.Delete(ctx, 1))
	_, err := f.store.Get(ctx, 1)
	assert.ErrorIs(t, err, order.ErrNotFound)
	assert.ErrorIs(t, f.store.Delete(ctx, 1), order.ErrNotFound)

	restarted := f.restart(t)
	o, err := restarted.Get(ctx, 1)
	require.NoError(t, err, "index-only deletes do not survive a restart")
	assert.Equal(t, "Luis", o.Client)
}

func TestDeleteThenCreateDoesNotReuseIDs(t *testing.T) {
	ctx := context.Background()
	f := setup(t, seedLog)
	require.NoError(t, f.store.Delete(ctx, 1))

	o, err := f.store.Create(ctx, order.CreateInput{Client: "Ana", Date: "2024-01-01", Status: "Pending", LineItems: []string{"W", "1", "1"}})
	require.NoError(t, err)
	assert.Equal(t, 2, o.ID)
}

func TestDeletePersist(t *testing.T) {
	ctx := context.Background()
	f := setup(t, seedLog, WithDeletePolicy(DeletePersist))

	require.NoError(t, f.store.Delete(ctx, 1))
	restarted := f.restart(t)
	_, err := restarted.Get(ctx, 1)
	assert.ErrorIs(t, err, order.ErrNotFound)

	o, err := restarted.Create(ctx, order.CreateInput{Client: "Ana", Date: "2024-01-01", Status: "Pending", LineItems: []string{"W", "1", "1"}})
	require.NoError(t, err)
	assert.Equal(t, 2, o.ID, "ids are never reused")
}

func TestDeletePersistStorageFailureKeepsIndex(t *testing.T) {
	ctx := context.Background()
	f := setup(t, seedLog, WithDeletePolicy(DeletePersist))
	f.log.failSave = true

	assert.ErrorIs(t, f.store.Delete(ctx, 1), order.ErrStorage)
	_, err := f.store.Get(ctx, 1)
	assert.NoError(t, err)
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "")

	const n = 20
	ids := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := f.store.Create(ctx, order.CreateInput{Client: "Ana", Date: "2024-01-01", Status: "Pending", LineItems: []string{"W", "1", "1"}})
			if assert.NoError(t, err) {
				ids <- o.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.Len(t, f.snapshot(t).Orders, n)
}

func TestHydrateFailureIsDegradedNotFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	s := New(file.New(path), logger.NewNop())

	err := s.Hydrate(context.Background())
	assert.ErrorIs(t, err, order.ErrStorage)

	select {
	case <-s.Ready():
	default:
		t.Fatal("store must be ready after a failed hydrate")
	}
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOperationsWaitForHydrate(t *testing.T) {
	s := New(file.New(filepath.Join(t.TempDir(), "orders.json")), logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.List(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() {
		_, err := s.List(context.Background())
		done <- err
	}()
	require.NoError(t, s.Hydrate(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("List did not resume after Hydrate")
	}
}
