// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package app wires the configured backends into the category service and
// its transport. Both the server and the CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"catalog/internal/cache"
	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/docstore"
	"catalog/internal/docstore/memstore"
	"catalog/internal/docstore/mongostore"
	"catalog/internal/docstore/pgstore"
	"catalog/internal/importer"
	"catalog/internal/metrics"
	"catalog/internal/models"
	"catalog/internal/router"
	"catalog/internal/seed"
	"catalog/internal/service"
	"catalog/internal/store"
	"catalog/internal/transport"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "catalog"

// Collection names used by the mongo backend.
const (
	mongoCategories = "categories"
	mongoTreeCache  = "category_tree_cache"
	mongoCacheLog   = "cache_invalidation_log"
)

// collections groups the document collections of one backend.
type collections struct {
	categories docstore.Collection[models.Category]
	trees      docstore.Collection[models.CategoryTreeCache]
	cacheLog   docstore.Collection[store.CacheLogEntry]
}

// App holds the wired components.
type App struct {
	Config    *config.Config
	Metrics   *metrics.Collector
	Store     *store.CategoryStore
	CacheLog  *store.CacheLogStore
	Tree      *cache.TreeCache
	Service   *service.CategoryService
	Importer  *importer.Importer
	Transport *transport.Server

	closers []func(context.Context) error
}

// New connects the configured backends and builds the service graph. The
// caller must Close the returned App.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.New(MetricsNamespace)}

	colls, err := a.openCollections(ctx)
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}

	snapshots, err := a.snapshotStore(colls.trees)
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}

	a.CacheLog = store.NewCacheLogStore(colls.cacheLog)
	a.Store = store.NewCategoryStore(colls.categories, snapshots, a.CacheLog)
	a.Tree = cache.NewTreeCache(snapshots, a.Store, a.Metrics)
	a.Service = service.NewCategoryService(a.Store, a.Tree)
	a.Service.SetExportBatchSize(cfg.ExportBatchSize)
	a.Importer = importer.New(a.Service, a.Metrics)

	a.Transport = transport.NewServer(transport.Options{
		Workers: cfg.WorkerPoolSize,
		Timeout: cfg.RequestTimeout,
		Metrics: a.Metrics,
	})
	transport.RegisterCategoryHandlers(a.Transport, a.Service, a.Importer)

	slog.Info("catalog wired",
		"store_backend", cfg.StoreBackend,
		"tree_cache_backend", cfg.TreeCacheBackend,
		"workers", cfg.WorkerPoolSize,
	)
	return a, nil
}

// Handler returns the HTTP handler serving the transport subjects, health
// and metrics.
func (a *App) Handler() http.Handler {
	return router.New(a.Transport, a.Metrics, a.Config.MaxBodyBytes)
}

// Seed imports the sample catalog when the store is empty.
func (a *App) Seed(ctx context.Context) error {
	return seed.Seed(ctx, a.Store, a.Importer)
}

// Close releases backend connections in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *App) openCollections(ctx context.Context) (*collections, error) {
	switch a.Config.StoreBackend {
	case config.BackendMemory:
		slog.Warn("using the in-memory store, data is lost on exit")
		return &collections{
			categories: memstore.New[models.Category](models.FieldSlug),
			trees:      memstore.New[models.CategoryTreeCache](),
			cacheLog:   memstore.New[store.CacheLogEntry](),
		}, nil
	case config.BackendPostgres:
		return a.openPostgres()
	case config.BackendMongo:
		return a.openMongo(ctx)
	default:
		return nil, fmt.Errorf("unknown store backend %q", a.Config.StoreBackend)
	}
}

func (a *App) openPostgres() (*collections, error) {
	db, err := database.Connect(a.Config.DSN())
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	categories, err := pgstore.New[models.Category](db, database.CategoriesTable)
	if err != nil {
		return nil, err
	}
	trees, err := pgstore.New[models.CategoryTreeCache](db, database.TreeCacheTable)
	if err != nil {
		return nil, err
	}
	cacheLog, err := pgstore.New[store.CacheLogEntry](db, database.CacheLogTable)
	if err != nil {
		return nil, err
	}
	return &collections{categories: categories, trees: trees, cacheLog: cacheLog}, nil
}

func (a *App) openMongo(ctx context.Context) (*collections, error) {
	client, err := mongostore.Connect(a.Config.MongoURI)
	if err != nil {
		return nil, err
	}
	a.onClose(client.Disconnect)
	db := client.Database(a.Config.MongoDB)

	categories, err := mongostore.Open[models.Category](ctx, db, mongoCategories, models.FieldSlug)
	if err != nil {
		return nil, err
	}
	for _, field := range []string{models.FieldParentID, models.FieldAncestors, models.FieldLevel} {
		if err := categories.EnsureIndex(ctx, field); err != nil {
			return nil, err
		}
	}
	trees, err := mongostore.Open[models.CategoryTreeCache](ctx, db, mongoTreeCache)
	if err != nil {
		return nil, err
	}
	cacheLog, err := mongostore.Open[store.CacheLogEntry](ctx, db, mongoCacheLog)
	if err != nil {
		return nil, err
	}
	if err := cacheLog.EnsureIndex(ctx, "seq"); err != nil {
		return nil, err
	}
	return &collections{categories: categories, trees: trees, cacheLog: cacheLog}, nil
}

// snapshotStore picks where tree snapshots live: next to the categories or
// in Valkey.
func (a *App) snapshotStore(trees docstore.Collection[models.CategoryTreeCache]) (cache.SnapshotStore, error) {
	if a.Config.TreeCacheBackend != config.TreeCacheValkey {
		return cache.NewDocSnapshotStore(trees), nil
	}

	client, err := cache.ConnectValkey(a.Config.ValkeyHost, a.Config.ValkeyPort, a.Config.ValkeyPassword, a.Config.ValkeyDB)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return client.Close() })
	return cache.NewValkeySnapshotStore(client), nil
}
