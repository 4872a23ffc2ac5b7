// Command digitaltwins-server runs the digital twins graph service HTTP
// API: it loads configuration, wires pkg/dtwinclient to one AGE-backed
// graph, and serves internal/api's routes until an interrupt or terminate
// signal triggers a graceful shutdown.
//
// Grounded on the teacher's cmd/eve/main.go wiring order (load config,
// build logger, construct the long-lived service, start the HTTP
// listener, wait on an OS signal, shut down with a bounded timeout), with
// cobra/CLI flag parsing dropped since this service has no subcommands.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/evalgo/digitaltwins/internal/api"
	"github.com/evalgo/digitaltwins/internal/catalog"
	"github.com/evalgo/digitaltwins/internal/config"
	"github.com/evalgo/digitaltwins/internal/store"
	"github.com/evalgo/digitaltwins/internal/telemetry"
	"github.com/evalgo/digitaltwins/pkg/dtwinclient"
)

func main() {
	configPath := os.Getenv("DTWIN_CONFIG_FILE")

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := telemetry.NewLogger(telemetry.Config{
		Level:       telemetry.LogLevel(cfg.Log.Level),
		Format:      telemetry.Format(cfg.Log.Format),
		ServiceName: cfg.ServiceName,
	})
	entry := log.WithField("graph", cfg.Store.DefaultGraph)

	if cfg.Store.DefaultGraph == "" {
		entry.Fatal("store.default_graph must be set")
	}

	var redisClient *redis.Client
	if cfg.Cache.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
	}

	ctx := context.Background()
	client, err := dtwinclient.New(ctx, dtwinclient.Config{
		Store: store.Options{
			DSN:             cfg.Store.DSN,
			MaxConns:        cfg.Store.MaxConns,
			MinConns:        cfg.Store.MinConns,
			ConnMaxLifetime: int64(cfg.Store.ConnMaxLifetime.Seconds()),
		},
		Graph:      cfg.Store.DefaultGraph,
		InstanceID: instanceID(),
		CatalogConfig: catalog.Config{
			CacheTTL:        cfg.Cache.TTL,
			CacheMaxEntries: cfg.Cache.MaxEntries,
			RedisClient:     redisClient,
		},
		Log: entry,
	})
	if err != nil {
		entry.WithError(err).Fatal("failed to construct digital twins client")
	}

	e := api.NewServer(client, api.FromConfig(cfg.Server), log, cfg.ServiceName, "dev")

	go func() {
		entry.WithField("host", cfg.Server.Host).WithField("port", cfg.Server.Port).Info("starting HTTP server")
		if err := api.StartServer(e, api.FromConfig(cfg.Server)); err != nil {
			entry.WithError(err).Fatal("server stopped unexpectedly")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	entry.Info("shutdown signal received")
	if err := api.GracefulShutdown(e, cfg.Server.ShutdownTimeout); err != nil {
		entry.WithError(err).Error("graceful shutdown failed")
	}
	client.Store.Close()
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "digitaltwins-server"
	}
	return host
}
