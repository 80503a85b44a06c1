package order

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineItems(t *testing.T) {
	t.Run("single triple", func(t *testing.T) {
		items, err := ParseLineItems([]string{"Widget", "3", "2.50"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Widget", items[0].Name)
		assert.Equal(t, 3, items[0].Quantity)
		assert.True(t, decimal.RequireFromString("2.50").Equal(items[0].UnitPrice))
		assert.Equal(t, "7.5", Total(items).String())
	})

	t.Run("drops non positive quantity", func(t *testing.T) {
		items, err := ParseLineItems([]string{"A", "0", "5.00", "B", "2", "3.00"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "B", items[0].Name)
		assert.Equal(t, 2, items[0].Quantity)
		assert.Equal(t, "6", Total(items).String())
	})

	t.Run("lenient numeric prefixes", func(t *testing.T) {
		items, err := ParseLineItems([]string{"A", "3.7", "2.5€", "B", " 2x", "0.5"})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, 3, items[0].Quantity)
		assert.Equal(t, "2.5", items[0].UnitPrice.String())
		assert.Equal(t, 2, items[1].Quantity)
		assert.Equal(t, "0.5", items[1].UnitPrice.String())
	})

	t.Run("out of range prices are dropped", func(t *testing.T) {
		items, err := ParseLineItems([]string{
			"A", "1", "1e999999",
			"B", "1", "1e2147483647",
			"C", "1", "1e-40",
			"D", "1", strings.Repeat("9", 40),
			"E", "2", "1e3",
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "E", items[0].Name)
		assert.Equal(t, "2000", Total(items).String())

		_, err = ParseLineItems([]string{"A", "1", "1e999999"})
		assert.ErrorIs(t, err, ErrInvalidLineItems)
	})

	for name, fields := range map[string][]string{
		"empty":             nil,
		"not a multiple":    {"A", "1", "1", "B"},
		"all invalid":       {"A", "0", "1", "B", "2", "-1", "C", "x", "y"},
		"negative quantity": {"A", "-2", "3"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLineItems(fields)
			assert.ErrorIs(t, err, ErrInvalidLineItems)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateInputValidate(t *testing.T) {
	in := CreateInput{Client: " Ana ", Date: "2024-01-01", Status: "pendiente", LineItems: []string{"Widget", "3", "2.50"}}
	o, err := in.Validate()
	require.NoError(t, err)
	assert.Equal(t, "Ana", o.Client)
	assert.Equal(t, Date("2024-01-01"), o.Date)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "7.5", o.Total.String())

	bad := in
	bad.Client = "  "
	_, err = bad.Validate()
	assert.ErrorIs(t, err, ErrValidation)

	bad = in
	bad.Date = "01/01/2024"
	_, err = bad.Validate()
	assert.ErrorIs(t, err, ErrValidation)

	bad = in
	bad.Status = "Lost"
	_, err = bad.Validate()
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{
		"Pending":   StatusPending,
		"SHIPPED":   StatusShipped,
		"Entregado": StatusDelivered,
		"canceled":  StatusCancelled,
	} {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseStatus("")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Date("2024-02-29"), d)

	_, err = ParseDate("2023-02-29")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSnapshotAllocate(t *testing.T) {
	s := Snapshot{Orders: []Order{{ID: 1}}}
	assert.Equal(t, 2, s.Allocate())
	assert.Equal(t, 3, s.Allocate())

	// the counter survives deletions from the order list
	s = Snapshot{NextID: 7, Orders: []Order{{ID: 2}}}
	assert.Equal(t, 7, s.Allocate())

	s = Snapshot{}
	assert.Equal(t, 1, s.Allocate())
}

func TestClone(t *testing.T) {
	o := Order{ID: 1, LineItems: []LineItem{{Name: "A", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}}}
	c := o.Clone()
	c.LineItems[0].Name = "B"
	assert.Equal(t, "A", o.LineItems[0].Name)
}

func TestSnapshotClampNextID(t *testing.T) {
	s := Snapshot{Orders: []Order{{ID: 4}, {ID: 2}}}
	s.ClampNextID()
	assert.Equal(t, 5, s.NextID)

	s.Orders = nil
	s.ClampNextID()
	assert.Equal(t, 5, s.NextID, "the counter never moves backwards")
}
