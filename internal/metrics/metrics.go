// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics holds the Prometheus collectors for the catalog service.
// Every method is safe to call on a nil *Collector, so components can be
// built without metrics in tests and tools.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the service in a private
// registry.
type Collector struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	importItems     *prometheus.CounterVec
	treeRebuilds    *prometheus.CounterVec
	treeNodes       prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
}

// New creates a collector with the given metric namespace.
func New(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of handled requests by subject and status.",
		}, []string{"subject", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request handling duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"subject"}),
		importItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_items_total",
			Help:      "Bulk import items by outcome.",
		}, []string{"outcome"}),
		treeRebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tree_rebuilds_total",
			Help:      "Tree snapshot rebuilds by result.",
		}, []string{"result"}),
		treeNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_nodes",
			Help:      "Number of nodes in the last built tree snapshot.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tree_cache_lookups_total",
			Help:      "Tree cache reads by result (hit or miss).",
		}, []string{"result"}),
	}

	c.registry.MustRegister(
		c.requests, c.requestDuration, c.importItems,
		c.treeRebuilds, c.treeNodes, c.cacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveRequest records one handled request.
func (c *Collector) ObserveRequest(subject, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(subject, status).Inc()
	c.requestDuration.WithLabelValues(subject).Observe(d.Seconds())
}

// ImportItem counts one import item outcome ("created", "validated",
// "failed").
func (c *Collector) ImportItem(outcome string) {
	if c == nil {
		return
	}
	c.importItems.WithLabelValues(outcome).Inc()
}

// TreeRebuilt records a rebuild; published is false when a concurrent
// invalidation superseded it.
func (c *Collector) TreeRebuilt(nodes int, published bool) {
	if c == nil {
		return
	}
	result := "published"
	if !published {
		result = "superseded"
	}
	c.treeRebuilds.WithLabelValues(result).Inc()
	c.treeNodes.Set(float64(nodes))
}

// TreeRebuildFailed records a rebuild that returned an error.
func (c *Collector) TreeRebuildFailed() {
	if c == nil {
		return
	}
	c.treeRebuilds.WithLabelValues("error").Inc()
}

// CacheLookup records a tree cache read.
func (c *Collector) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}
