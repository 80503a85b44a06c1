// Command tiendactl inspects the order log and generates passwords offline.
package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"

	"tienda/pkg/order"
	"tienda/pkg/order/file"
	"tienda/pkg/order/postgres"
	"tienda/pkg/passgen"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tiendactl:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "tiendactl",
		Usage:  "operate on tienda orders without the server",
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:  "orders",
				Usage: "read the durable order log",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Value: "data/orders.json", EnvVars: []string{"TIENDA_ORDERS_FILE"}, Usage: "JSON order log"},
					&cli.StringFlag{Name: "database-url", EnvVars: []string{"TIENDA_DATABASE_URL"}, Usage: "read from postgres instead of the file"},
				},
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "list every stored order", Action: listOrders},
					{Name: "show", Usage: "print one order as JSON", ArgsUsage: "ID", Action: showOrder},
				},
			},
			{
				Name:  "password",
				Usage: "generate a dictionary password",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "words", Aliases: []string{"n"}, Value: 4, Usage: "number of words (1-32)"},
					&cli.StringFlag{Name: "dict", EnvVars: []string{"TIENDA_DICTIONARY_FILE"}, Usage: "newline separated word list"},
				},
				Action: generatePassword,
			},
		},
	}
}

// loadSnapshot reads the configured log and names where it came from.
func loadSnapshot(c *cli.Context) (order.Snapshot, string, error) {
	fl := file.New(c.String("file"))
	var log order.Log = fl
	source := fl.Path()
	if dsn := c.String("database-url"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return order.Snapshot{}, "", err
		}
		defer db.Close()
		log = postgres.New(db)
		source = "postgres"
	}
	snap, err := log.Load(c.Context)
	if err != nil {
		return order.Snapshot{}, "", err
	}
	for i := range snap.Orders {
		snap.Orders[i].Recompute()
	}
	return snap, source, nil
}

func listOrders(c *cli.Context) error {
	snap, source, err := loadSnapshot(c)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCLIENT\tDATE\tSTATUS\tITEMS\tTOTAL")
	for _, o := range snap.Orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", o.ID, o.Client, o.Date, o.Status, len(o.LineItems), o.Total.StringFixed(2))
	}
	fmt.Fprintf(tw, "\nsource: %s\nnext id: %d\n", source, nextID(snap))
	return tw.Flush()
}

func nextID(s order.Snapshot) int {
	s.ClampNextID()
	return s.NextID
}

func showOrder(c *cli.Context) error {
	id, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return errors.New("usage: tiendactl orders show ID")
	}
	snap, _, err := loadSnapshot(c)
	if err != nil {
		return err
	}
	i := snap.Find(id)
	if i < 0 {
		return fmt.Errorf("order %d: %w", id, order.ErrNotFound)
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(snap.Orders[i])
}

func generatePassword(c *cli.Context) error {
	g := passgen.Default()
	if path := c.String("dict"); path != "" {
		var err error
		if g, err = passgen.Load(path); err != nil {
			return err
		}
	}
	pw, err := g.Generate(c.Int("words"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, pw)
	return err
}
