// Package events delivers order notifications to real-time listeners.
package events

import (
	"context"
	"errors"

	"tienda/pkg/order"
)

// TypeOrderCreated names the event emitted after an order is committed.
const TypeOrderCreated = "order.created"

// Publisher delivers order events. Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, ev order.Created) error
}

// Multi fans an event out to every publisher.
type Multi []Publisher

// Publish calls every publisher and joins their errors.
func (m Multi) Publish(ctx context.Context, ev order.Created) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
