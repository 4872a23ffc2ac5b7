// Package dtwinclient is the client-facing facade over the digital-twin
// graph service: one Go type composing internal/catalog, internal/dataplane,
// internal/query, internal/tdql, internal/jobs, internal/importer, and
// internal/deleter into a single coherent surface, the way
// db/repository.CompositeRepository composes DocumentRepository/
// GraphRepository/MetricsRepository/CacheRepository into one storage
// façade for callers. Hosting concerns (HTTP transport, auth, config
// loading, telemetry export) are out of scope per spec §1 and live in
// cmd/digitaltwins-server instead.
package dtwinclient

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/evalgo/digitaltwins/internal/catalog"
	"github.com/evalgo/digitaltwins/internal/dataplane"
	"github.com/evalgo/digitaltwins/internal/deleter"
	"github.com/evalgo/digitaltwins/internal/importer"
	"github.com/evalgo/digitaltwins/internal/jobs"
	"github.com/evalgo/digitaltwins/internal/query"
	"github.com/evalgo/digitaltwins/internal/store"
	"github.com/evalgo/digitaltwins/internal/tdql"
	"github.com/evalgo/digitaltwins/internal/telemetry"
)

// Config configures Client construction. Graph is the AGE graph name this
// Client operates against; one Client instance is scoped to exactly one
// graph, matching how internal/catalog, internal/dataplane, and
// internal/jobs are each constructed per-graph.
type Config struct {
	Store         store.Options
	Graph         string
	InstanceID    string // identifies this process to internal/jobs' distributed lock
	CatalogConfig catalog.Config
	Log           *logrus.Entry
}

// Client is the composed façade: exported fields give direct access to
// each subsystem (matching CompositeRepository's Documents/Graph/Metrics/
// Cache fields), and the convenience methods below are thin pass-throughs
// for the common single-call operations spec §6 describes as this
// service's public surface.
type Client struct {
	Store     *store.Adapter
	Catalog   *catalog.Catalog
	Dataplane *dataplane.Dataplane
	Query     *query.Executor
	Jobs      *jobs.Service
	Importer  *importer.Importer
	Deleter   *deleter.Deleter

	graph string
	log   *logrus.Entry
}

// New constructs every subsystem over one pooled store.Adapter for
// cfg.Graph, creating the graph if it does not already exist.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Graph == "" {
		return nil, fmt.Errorf("dtwinclient: graph name is required")
	}
	log := cfg.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	adapter, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("dtwinclient: opening store: %w", err)
	}
	if err := adapter.CreateGraph(ctx, cfg.Graph); err != nil {
		return nil, fmt.Errorf("dtwinclient: creating graph %q: %w", cfg.Graph, err)
	}

	cat, err := catalog.New(adapter, cfg.Graph, cfg.CatalogConfig, log)
	if err != nil {
		return nil, fmt.Errorf("dtwinclient: constructing catalog: %w", err)
	}
	dp := dataplane.New(adapter, cat, cfg.Graph, log)
	qe := query.New(adapter, cfg.Graph)

	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID = "dtwinclient"
	}
	svc := jobs.New(adapter, cfg.Graph, instanceID, log)
	imp := importer.New(cat, dp, svc)
	del := deleter.New(adapter, cat, dp, svc, cfg.Graph)

	return &Client{
		Store:     adapter,
		Catalog:   cat,
		Dataplane: dp,
		Query:     qe,
		Jobs:      svc,
		Importer:  imp,
		Deleter:   del,
		graph:     cfg.Graph,
		log:       log,
	}, nil
}

// Graph returns the graph name this Client is scoped to.
func (c *Client) Graph() string { return c.graph }
