// Package order defines the order aggregate, its validation rules and the
// storage contracts shared by the order backends.
package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a named quantity/price pair within an Order.
type LineItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Subtotal returns quantity * unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Order represents a customer purchase order.
type Order struct {
	ID        int             `json:"id"`
	Client    string          `json:"client"`
	Date      Date            `json:"date"`
	Status    Status          `json:"status"`
	LineItems []LineItem      `json:"lineItems"`
	Total     decimal.Decimal `json:"total"`
}

// Clone returns a copy of o that shares no memory with it.
func (o Order) Clone() Order {
	if o.LineItems != nil {
		items := make([]LineItem, len(o.LineItems))
		copy(items, o.LineItems)
		o.LineItems = items
	}
	return o
}

// Recompute sets Total from the current line items.
func (o *Order) Recompute() {
	o.Total = Total(o.LineItems)
}

// Total sums the subtotals of items.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Subtotal())
	}
	return total
}

// Created is the event published after an order is committed.
type Created struct {
	ID        int        `json:"id"`
	Client    string     `json:"client"`
	Date      Date       `json:"date"`
	Status    Status     `json:"status"`
	LineItems []LineItem `json:"lineItems"`
}

// CreatedFrom builds the public event payload for o.
func CreatedFrom(o Order) Created {
	o = o.Clone()
	return Created{ID: o.ID, Client: o.Client, Date: o.Date, Status: o.Status, LineItems: o.LineItems}
}

// Snapshot is the full content of a durable order log.
type Snapshot struct {
	NextID int     `json:"nextId,omitempty"`
	Orders []Order `json:"orders"`
}

// Find returns the position of id in s.Orders or -1.
func (s *Snapshot) Find(id int) int {
	for i, o := range s.Orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// ClampNextID raises NextID to at least max(id)+1. The counter never moves
// backwards, so ids stay unique after orders leave the snapshot.
func (s *Snapshot) ClampNextID() {
	if s.NextID < 1 {
		s.NextID = 1
	}
	for _, o := range s.Orders {
		if o.ID >= s.NextID {
			s.NextID = o.ID + 1
		}
	}
}

// Allocate reserves the next order id.
func (s *Snapshot) Allocate() int {
	s.ClampNextID()
	id := s.NextID
	s.NextID++
	return id
}

// Log persists whole order snapshots.
type Log interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrValidation indicates malformed order input.
	ErrValidation = errors.New("invalid order")
	// ErrStorage indicates the durable log could not be read or written.
	ErrStorage = errors.New("order storage failure")

	// ErrInvalidLineItems is returned when no usable line item was submitted.
	ErrInvalidLineItems = fmt.Errorf("%w: add valid line items with quantity and price greater than 0", ErrValidation)
)

// CreateInput is a raw order submission. LineItems is a flat run of
// name, quantity, price triples.
type CreateInput struct {
	Client    string   `json:"client"`
	Date      string   `json:"date"`
	Status    string   `json:"status"`
	LineItems []string `json:"lineItems"`
}

// Validate turns the submission into an order without an id.
func (in CreateInput) Validate() (Order, error) {
	items, err := ParseLineItems(in.LineItems)
	if err != nil {
		return Order{}, err
	}
	client := strings.TrimSpace(in.Client)
	if client == "" {
		return Order{}, fmt.Errorf("%w: client is required", ErrValidation)
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return Order{}, err
	}
	status, err := ParseStatus(in.Status)
	if err != nil {
		return Order{}, err
	}
	o := Order{Client: client, Date: date, Status: status, LineItems: items}
	o.Recompute()
	return o, nil
}

// ParseLineItems groups fields into triples and drops those whose quantity
// or price is not positive.
func ParseLineItems(fields []string) ([]LineItem, error) {
	if len(fields) == 0 || len(fields)%3 != 0 {
		return nil, ErrInvalidLineItems
	}
	items := make([]LineItem, 0, len(fields)/3)
	for i := 0; i < len(fields); i += 3 {
		qty := parseQuantity(fields[i+1])
		price := parsePrice(fields[i+2])
		if qty <= 0 || !price.IsPositive() {
			continue
		}
		items = append(items, LineItem{Name: fields[i], Quantity: qty, UnitPrice: price})
	}
	if len(items) == 0 {
		return nil, ErrInvalidLineItems
	}
	return items, nil
}

var (
	leadingInt     = regexp.MustCompile(`^\s*[+-]?\d+`)
	leadingDecimal = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d+)?|\.\d+)([eE][+-]?\d+)?`)
)

// parseQuantity reads the leading integer of s, 0 when there is none.
func parseQuantity(s string) int {
	m := strings.TrimSpace(leadingInt.FindString(s))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// Prices longer than maxPriceLen characters or with an exponent beyond
// maxPriceExp in either direction read as 0, which drops the line item.
// Totals are rescaled to the smallest exponent, so both bound their size.
const (
	maxPriceLen = 32
	maxPriceExp = 18
)

// parsePrice reads the leading decimal of s, 0 when there is none or it is
// out of range.
func parsePrice(s string) decimal.Decimal {
	m := strings.TrimSpace(leadingDecimal.FindString(s))
	if m == "" || len(m) > maxPriceLen {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero
	}
	if e := d.Exponent(); e > maxPriceExp || e < -maxPriceExp {
		return decimal.Zero
	}
	return d
}

// Date is a calendar date in YYYY-MM-DD form.
type Date string

const dateLayout = "2006-01-02"

// ParseDate validates s as a calendar date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, s)
	}
	return Date(t.Format(dateLayout)), nil
}

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// Statuses lists every accepted status in lifecycle order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

var statusAliases = map[string]Status{
	"pending":    StatusPending,
	"pendiente":  StatusPending,
	"processing": StatusProcessing,
	"procesando": StatusProcessing,
	"shipped":    StatusShipped,
	"enviado":    StatusShipped,
	"delivered":  StatusDelivered,
	"entregado":  StatusDelivered,
	"cancelled":  StatusCancelled,
	"canceled":   StatusCancelled,
	"cancelado":  StatusCancelled,
}

// ParseStatus maps s onto the closed set of statuses, ignoring case.
func ParseStatus(s string) (Status, error) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return st, nil
}
