package main

import (
	"context"
	"fmt"
	"log"

	"github.com/MikeMC777/storefront/internal/cache"
	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/events"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/store"
	"github.com/MikeMC777/storefront/internal/user"
)

// app owns every long-lived resource of the process. close releases them in
// reverse order of acquisition.
type app struct {
	cfg      config.Config
	products product.Repository
	users    user.Repository
	orders   order.Store
	ping     func(ctx context.Context) error

	accounts *user.Service
	checkout *order.Service

	closers []func()
}

// openApp connects the configured database and brings its schema up to date.
func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := store.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := store.MigratePostgres(ctx, pool); err != nil {
			a.close()
			return nil, fmt.Errorf("db migrate: %w", err)
		}
		a.products = product.NewPGRepo(pool)
		a.users = user.NewPGRepo(pool)
		a.orders = order.NewPGRepo(pool)
		a.ping = pool.Ping
	default:
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		a.products = product.NewSQLiteRepo(db.DB())
		a.users = user.NewSQLiteRepo(db.DB())
		a.orders = order.NewSQLiteRepo(db.DB())
		a.ping = db.DB().PingContext
	}
	log.Printf("[db] %s ready", cfg.DBDriver)
	return a, nil
}

// wire builds the services and their optional collaborators: the Redis
// product cache and the order event publisher.
func (a *app) wire(ctx context.Context) error {
	var listeners []order.Listener

	if a.cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, a.cfg.RedisAddr, a.cfg.CacheTTL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = rc.Close() })
		cached := product.NewCachedRepo(a.products, rc)
		a.products = cached
		listeners = append(listeners, evictOrdered(cached))
	}

	pub, err := a.publisher()
	if err != nil {
		return err
	}
	listeners = append(listeners, events.OrderListener(pub))

	a.accounts = user.NewService(a.users, user.NewTokens(a.cfg.JWTSecret, a.cfg.TokenTTL))
	a.checkout = order.NewService(a.orders, listeners...)
	return nil
}

func (a *app) publisher() (events.Publisher, error) {
	switch a.cfg.EventsDriver {
	case "kafka":
		p := events.NewKafkaPublisher(a.cfg.KafkaBrokers, a.cfg.KafkaTopic, 1024)
		p.Start()
		a.closers = append(a.closers, func() {
			p.Close()
			p.WaitClosed()
		})
		log.Printf("[events] kafka topic %s", a.cfg.KafkaTopic)
		return p, nil
	case "rabbitmq":
		p, err := events.NewRabbitPublisher(a.cfg.AMQPURL, a.cfg.AMQPQueue)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p.Close)
		return p, nil
	case "log", "":
		return events.LogPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", a.cfg.EventsDriver)
	}
}

// evictOrdered drops cached copies of products whose stock an order changed.
func evictOrdered(c *product.CachedRepo) order.Listener {
	return order.ListenerFunc(func(ctx context.Context, o *order.Order) error {
		ids := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			ids = append(ids, it.ProductID)
		}
		c.Evict(ctx, ids...)
		return nil
	})
}

func (a *app) deps(limiter *httpx.IPLimiter) deps {
	return deps{
		products:    a.products,
		accounts:    a.accounts,
		orders:      a.checkout,
		ping:        a.ping,
		limiter:     limiter,
		staticDir:   a.cfg.StaticDir,
		corsOrigins: a.cfg.CORSOrigins,
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
