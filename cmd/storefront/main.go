// @title        Storefront API
// @version      1.0
// @description  Catalog browsing, accounts and checkout for the storefront.
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in           header
// @name         Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/product"
)

type rootOptions struct {
	cfg config.Config
	// overrides applied on top of the environment
	driver string
	addr   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront API server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.cfg = config.Load()
			if opts.driver != "" {
				opts.cfg.DBDriver = opts.driver
			}
			if opts.addr != "" {
				opts.cfg.HTTPAddr = opts.addr
			}
			switch opts.cfg.DBDriver {
			case config.DriverSQLite, config.DriverPostgres:
				return nil
			default:
				return fmt.Errorf("invalid db driver %q: must be %s or %s", opts.cfg.DBDriver, config.DriverSQLite, config.DriverPostgres)
			}
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.driver, "db-driver", "", "database driver (sqlite|postgres), overrides DB_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.addr, "addr", "", "listen address, overrides HTTP_ADDR")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts.cfg, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", true, "load the sample catalog when the products table is empty")
	return cmd
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.close()
			log.Printf("[db] %s schema up to date", opts.cfg.DBDriver)
			return nil
		},
	}
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample catalog into an empty products table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.close()
			n, err := product.Seed(cmd.Context(), a.products)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", n)
			return nil
		},
	}
}

func serve(ctx context.Context, cfg config.Config, seed bool) error {
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if seed {
		if n, err := product.Seed(ctx, a.products); err != nil {
			return err
		} else if n > 0 {
			log.Printf("[db] seeded %d products", n)
		}
	}
	if err := a.wire(ctx); err != nil {
		return err
	}

	limiter := httpx.NewIPLimiter(cfg.LoginRPS, cfg.LoginBurst)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(a.deps(limiter)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[http] listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("[http] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
