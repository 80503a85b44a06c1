package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	_ "tienda/docs"
	"tienda/pkg/config"
	"tienda/pkg/events"
	"tienda/pkg/logger"
	"tienda/pkg/order"
	"tienda/pkg/order/file"
	"tienda/pkg/order/postgres"
	"tienda/pkg/order/store"
	"tienda/pkg/otel"
	"tienda/pkg/passgen"
	"tienda/pkg/session"
	"tienda/pkg/user"
	"tienda/pkg/web"
)

const serviceName = "tienda"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tienda:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), serviceName, otel.GetTraceID)
	defer log.Sync()

	tp, shutdownTracing, err := otel.InitTracing(log, otel.Config{
		ServiceName: serviceName,
		Host:        cfg.OTELHost,
		Probability: cfg.OTELProbability,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())
	tracer := tp.Tracer(serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orderLog, closeLog, err := openOrderLog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	hub := events.NewHub(cfg.EventBuffer)
	pubs := events.Multi{hub}
	if len(cfg.KafkaBrokers) > 0 {
		w := events.NewKafkaWriter(cfg.KafkaBrokers)
		defer w.Close()
		kp := events.NewKafkaPublisher(log, w, cfg.KafkaTopic)
		defer kp.Wait()
		pubs = append(pubs, kp)
		log.Info(ctx, "kafka events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	opts := []store.Option{store.WithPublisher(pubs)}
	if cfg.PersistDeletes {
		opts = append(opts, store.WithDeletePolicy(store.DeletePersist))
	}
	orders := store.New(orderLog, log, opts...)

	users := user.NewStore(cfg.BcryptCost)
	if err := users.Seed(cfg.SeedUsers); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	passwords := passgen.Default()
	if cfg.DictionaryFile != "" {
		if passwords, err = passgen.Load(cfg.DictionaryFile); err != nil {
			return fmt.Errorf("dictionary: %w", err)
		}
	}

	h := web.New(web.Deps{
		Orders:    orders,
		Users:     users,
		Sessions:  session.NewManager(rdb, cfg.SessionTTL, cfg.TLS()),
		Hub:       hub,
		Passwords: passwords,
		Log:       log,
		Tracer:    tracer,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	// Event streams only return once their subscription ends.
	srv.RegisterOnShutdown(hub.Close)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// A failed hydration leaves the store empty but serving.
		if err := orders.Hydrate(gctx); err != nil {
			log.Warn(gctx, "serving without stored orders", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info(gctx, "listening", "addr", cfg.Addr, "tls", cfg.TLS())
		var err error
		if cfg.TLS() {
			err = srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func openOrderLog(ctx context.Context, cfg config.Config) (order.Log, func() error, error) {
	if cfg.OrdersBackend != "postgres" {
		return file.New(cfg.OrdersFile), func() error { return nil }, nil
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	pl := postgres.New(db)
	if err := pl.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return pl, db.Close, nil
}
