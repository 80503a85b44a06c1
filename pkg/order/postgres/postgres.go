package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"tienda/pkg/order"
)

// Schema creates the tables used by Log.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	id         INT PRIMARY KEY,
	client     TEXT NOT NULL,
	date       TEXT NOT NULL,
	status     TEXT NOT NULL,
	line_items JSONB NOT NULL,
	total      NUMERIC NOT NULL
);
CREATE TABLE IF NOT EXISTS order_meta (
	key   TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);`

// Log persists order snapshots in PostgreSQL.
type Log struct {
	db *sql.DB
}

// New creates a PostgreSQL order log. Call Migrate before first use.
func New(db *sql.DB) *Log {
	return &Log{db: db}
}

// Migrate creates the schema if it is missing.
func (l *Log) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, Schema)
	return errors.Wrap(err, "migrate order schema")
}

// Load reads every order and the id counter.
func (l *Log) Load(ctx context.Context) (order.Snapshot, error) {
	var s order.Snapshot
	err := l.db.QueryRowContext(ctx, "SELECT value FROM order_meta WHERE key='next_id'").Scan(&s.NextID)
	if err != nil && err != sql.ErrNoRows {
		return order.Snapshot{}, errors.Wrap(err, "read next id")
	}

	rows, err := l.db.QueryContext(ctx, "SELECT id,client,date,status,line_items,total FROM orders ORDER BY id")
	if err != nil {
		return order.Snapshot{}, errors.Wrap(err, "query orders")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			o     order.Order
			items []byte
		)
		if err := rows.Scan(&o.ID, &o.Client, &o.Date, &o.Status, &items, &o.Total); err != nil {
			return order.Snapshot{}, errors.Wrap(err, "scan order")
		}
		if err := json.Unmarshal(items, &o.LineItems); err != nil {
			return order.Snapshot{}, errors.Wrapf(err, "decode line items of order %d", o.ID)
		}
		s.Orders = append(s.Orders, o)
	}
	return s, errors.Wrap(rows.Err(), "iterate orders")
}

// Save replaces the stored snapshot inside one transaction.
func (l *Log) Save(ctx context.Context, s order.Snapshot) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM orders"); err != nil {
		return errors.Wrap(err, "clear orders")
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO orders (id,client,date,status,line_items,total) VALUES ($1,$2,$3,$4,$5,$6)")
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()
	for _, o := range s.Orders {
		items, err := json.Marshal(o.LineItems)
		if err != nil {
			return errors.Wrapf(err, "encode line items of order %d", o.ID)
		}
		if _, err := stmt.ExecContext(ctx, o.ID, o.Client, string(o.Date), string(o.Status), string(items), o.Total); err != nil {
			return errors.Wrapf(err, "insert order %d", o.ID)
		}
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO order_meta (key,value) VALUES ('next_id',$1) ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value",
		s.NextID)
	if err != nil {
		return errors.Wrap(err, "store next id")
	}
	return errors.Wrap(tx.Commit(), "commit")
}
