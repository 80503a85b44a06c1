// Package store owns the order aggregate. It keeps an in-memory index in
// step with a durable log: the log write is the commit point, and the index
// only changes after the log accepted the new state.
package store

import (
	"context"
	"fmt"
	"sync"

	"tienda/pkg/logger"
	"tienda/pkg/order"
	"tienda/pkg/order/memory"
)

// DeletePolicy selects whether deletions reach the durable log.
type DeletePolicy int

const (
	// DeleteIndexOnly removes orders from the index only. A restart brings
	// them back from the log.
	DeleteIndexOnly DeletePolicy = iota
	// DeletePersist rewrites the log without the order before unindexing it.
	DeletePersist
)

// Publisher receives committed orders.
type Publisher interface {
	Publish(ctx context.Context, ev order.Created) error
}

// Option configures a Store.
type Option func(*Store)

// WithDeletePolicy sets how Delete treats the log.
func WithDeletePolicy(p DeletePolicy) Option {
	return func(s *Store) { s.deletes = p }
}

// WithPublisher sets the receiver of order.Created events.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.pub = p }
}

// Store serves order reads from the index and commits writes to the log.
type Store struct {
	log     order.Log
	index   *memory.Index
	logger  *logger.Logger
	pub     Publisher
	deletes DeletePolicy

	// wmu serializes the read-modify-write span of every write.
	wmu sync.Mutex

	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a store over log. It serves nothing until Hydrate returns.
func New(log order.Log, lg *logger.Logger, opts ...Option) *Store {
	s := &Store{
		log:    log,
		index:  memory.New(),
		logger: lg,
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate replaces the index with the content of the log. On failure the
// index is left empty and the store still becomes ready.
func (s *Store) Hydrate(ctx context.Context) error {
	defer s.readyOnce.Do(func() { close(s.ready) })

	s.wmu.Lock()
	defer s.wmu.Unlock()

	snap, err := s.log.Load(ctx)
	if err != nil {
		s.index.Replace(nil)
		s.logger.Error(ctx, "hydrate orders", "error", err)
		return fmt.Errorf("%w: %w", order.ErrStorage, err)
	}
	for i := range snap.Orders {
		snap.Orders[i].Recompute()
	}
	s.index.Replace(snap.Orders)
	s.logger.Info(ctx, "orders hydrated", "count", s.index.Len())
	return nil
}

// Ready is closed once the first Hydrate finished.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

func (s *Store) await(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns every indexed order sorted by id.
func (s *Store) List(ctx context.Context) ([]order.Order, error) {
	if err := s.await(ctx); err != nil {
		return nil, err
	}
	return s.index.List(), nil
}

// Get returns the order with id or order.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int) (order.Order, error) {
	if err := s.await(ctx); err != nil {
		return order.Order{}, err
	}
	return s.index.Get(id)
}

// Create validates in, commits the new order to the log and indexes it.
// Listeners are notified after the commit.
func (s *Store) Create(ctx context.Context, in order.CreateInput) (order.Order, error) {
	if err := s.await(ctx); err != nil {
		return order.Order{}, err
	}
	o, err := in.Validate()
	if err != nil {
		return order.Order{}, err
	}

	s.wmu.Lock()
	snap, err := s.log.Load(ctx)
	if err != nil {
		s.wmu.Unlock()
		return order.Order{}, s.storageErr(ctx, "load order log", err)
	}
	o.ID = snap.Allocate()
	snap.Orders = append(snap.Orders, o)
	if err := s.log.Save(ctx, snap); err != nil {
		s.wmu.Unlock()
		return order.Order{}, s.storageErr(ctx, "save order log", err)
	}
	s.index.Put(o)
	s.wmu.Unlock()

	s.logger.Info(ctx, "order created", "order_id", o.ID, "client", o.Client, "total", o.Total.String())
	s.publish(ctx, o)
	return o.Clone(), nil
}

// UpdateStatus sets the status of an existing order.
func (s *Store) UpdateStatus(ctx context.Context, id int, status string) (order.Order, error) {
	if err := s.await(ctx); err != nil {
		return order.Order{}, err
	}
	st, err := order.ParseStatus(status)
	if err != nil {
		return order.Order{}, err
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	current, err := s.index.Get(id)
	if err != nil {
		return order.Order{}, err
	}
	snap, err := s.log.Load(ctx)
	if err != nil {
		return order.Order{}, s.storageErr(ctx, "load order log", err)
	}
	i := snap.Find(id)
	if i < 0 {
		s.logger.Warn(ctx, "indexed order missing from log", "order_id", id)
		return order.Order{}, order.ErrNotFound
	}
	snap.Orders[i].Status = st
	snap.ClampNextID()
	if err := s.log.Save(ctx, snap); err != nil {
		return order.Order{}, s.storageErr(ctx, "save order log", err)
	}
	current.Status = st
	s.index.Put(current)

	s.logger.Info(ctx, "order status updated", "order_id", id, "status", string(st))
	return current, nil
}

// Delete removes an order. Under DeleteIndexOnly the log keeps it.
func (s *Store) Delete(ctx context.Context, id int) error {
	if err := s.await(ctx); err != nil {
		return err
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if _, err := s.index.Get(id); err != nil {
		return err
	}
	if s.deletes == DeletePersist {
		snap, err := s.log.Load(ctx)
		if err != nil {
			return s.storageErr(ctx, "load order log", err)
		}
		if i := snap.Find(id); i >= 0 {
			snap.ClampNextID()
			snap.Orders = append(snap.Orders[:i], snap.Orders[i+1:]...)
			if err := s.log.Save(ctx, snap); err != nil {
				return s.storageErr(ctx, "save order log", err)
			}
		}
	}
	if err := s.index.Delete(id); err != nil {
		return err
	}
	s.logger.Info(ctx, "order deleted", "order_id", id, "persisted", s.deletes == DeletePersist)
	return nil
}

func (s *Store) storageErr(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, op, "error", err)
	return fmt.Errorf("%w: %s: %w", order.ErrStorage, op, err)
}

func (s *Store) publish(ctx context.Context, o order.Order) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, order.CreatedFrom(o)); err != nil {
		s.logger.Warn(ctx, "order event not delivered", "order_id", o.ID, "error", err)
	}
}
