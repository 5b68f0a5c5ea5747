package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/amqppool/broker"
	"github.com/rickgao/amqppool/internal/config"
	"github.com/rickgao/amqppool/internal/metrics"
	"github.com/rickgao/amqppool/internal/version"
	"github.com/rickgao/amqppool/manager"
	"github.com/rickgao/amqppool/pool"
)

var (
	configPath string
	brokerAddr string
	workers    int
	serve      bool
)

func main() {
	app := &cli.App{
		Name:    "amqpcheck",
		Usage:   "Exercise a pooled set of AMQP connections against a broker",
		Version: version.String(),
		Description: `amqpcheck builds a connection pool from the given configuration, warms it,
checks out connections from concurrent workers and opens a channel on each.
With --serve it keeps the pool open and serves /health and metrics.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file (defaults are used when empty)",
				EnvVars:     []string{"AMQPCHECK_CONFIG"},
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "broker URL, overrides the config file and " + config.EnvAddr,
				Destination: &brokerAddr,
			},
			&cli.IntFlag{
				Name:        "workers",
				Usage:       "concurrent checkouts (0 = from config)",
				Destination: &workers,
			},
			&cli.BoolFlag{
				Name:        "serve",
				Usage:       "keep running and serve /health and metrics",
				Destination: &serve,
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadWithAddr(configPath, brokerAddr)
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Check.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("starting amqpcheck",
		slog.Group("build", version.Attrs()...),
		"config", configPath,
		"broker", redact(cfg.Broker.Address()),
	)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr := manager.New(cfg.Broker.Address(), cfg.Broker.Options())
	p, err := pool.New[*broker.Connection](mgr, cfg.Pool.Settings(), logger)
	if err != nil {
		return err
	}
	defer p.Close()

	logger.Info("warming pool",
		"min_idle", cfg.Pool.MinIdle,
		"max_size", cfg.Pool.MaxSize,
	)
	if err := p.Warm(ctx); err != nil {
		return err
	}

	start := time.Now()
	if err := checkout(ctx, p, cfg.Check, logger); err != nil {
		return err
	}
	logger.Info("checkouts complete",
		"workers", cfg.Check.Workers,
		"elapsed", time.Since(start),
	)
	logStat(logger, p.Stat())

	if !serve {
		return nil
	}
	return serveHTTP(ctx, cfg, p, logger)
}

// checkout runs cfg.Workers concurrent checkouts, opening and closing one
// channel on each connection.
func checkout(ctx context.Context, p *pool.Pool[*broker.Connection], cfg config.CheckConfig, logger *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < cfg.Workers; i++ {
		i := i
		g.Go(func() error {
			pc, err := p.Get(ctx)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			defer pc.Release()

			conn := pc.Value()
			ch, err := conn.Channel()
			if err != nil {
				return fmt.Errorf("worker %d: open channel: %w", i, err)
			}
			defer ch.Close()

			if cfg.Hold > 0 {
				select {
				case <-time.After(cfg.Hold):
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			logger.Debug("checkout ok",
				"worker", i,
				"conn_id", conn.ID(),
				"state", conn.State(),
			)
			return nil
		})
	}

	return g.Wait()
}

func serveHTTP(ctx context.Context, cfg *config.Config, p *pool.Pool[*broker.Connection], logger *slog.Logger) error {
	reg, err := metrics.NewRegistry(metrics.NewCollector("amqppool", cfg.Broker.ConnectionName, p))
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: newRouter(p, metrics.Handler(reg), cfg.Metrics.Path),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func logStat(logger *slog.Logger, s pool.Stat) {
	logger.Info("pool stats",
		"total", s.Total,
		"idle", s.Idle,
		"acquired", s.Acquired,
		"max", s.Max,
		"acquires", s.AcquireCount,
		"evicted", s.Evicted,
	)
}

// redact hides the password in a broker URL.
func redact(address string) string {
	u, err := url.Parse(address)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}
