// Package memory implements the in-memory order index.
package memory

import (
	"sort"
	"sync"

	"tienda/pkg/order"
)

// Index maps order ids to orders. Values are copied on the way in and out.
type Index struct {
	mu     sync.RWMutex
	orders map[int]order.Order
}

// New creates an empty index.
func New() *Index {
	return &Index{orders: make(map[int]order.Order)}
}

// Replace discards the current content and indexes orders. A later order
// wins over an earlier one with the same id.
func (x *Index) Replace(orders []order.Order) {
	m := make(map[int]order.Order, len(orders))
	for _, o := range orders {
		m[o.ID] = o.Clone()
	}
	x.mu.Lock()
	x.orders = m
	x.mu.Unlock()
}

// Put stores o, replacing any order with the same id.
func (x *Index) Put(o order.Order) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.orders[o.ID] = o.Clone()
}

// Get retrieves an order by id.
func (x *Index) Get(id int) (order.Order, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	o, ok := x.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o.Clone(), nil
}

// List returns all orders sorted by id.
func (x *Index) List() []order.Order {
	x.mu.RLock()
	out := make([]order.Order, 0, len(x.orders))
	for _, o := range x.orders {
		out = append(out, o.Clone())
	}
	x.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Delete removes an order by id.
func (x *Index) Delete(id int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.orders[id]; !ok {
		return order.ErrNotFound
	}
	delete(x.orders, id)
	return nil
}

// Len reports the number of indexed orders.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.orders)
}
