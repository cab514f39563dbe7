// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus instruments for this coordinator, grounded on
// pkg/ingestion/metrics.go's metricsIngestion — the embedding- and
// batch-specific counters are dropped since there is no embedding stage
// here, leaving parse/resolve/upsert counts and durations.
type metrics struct {
	once sync.Once

	filesProcessed prometheus.Counter
	parseErrors    prometheus.Counter
	entitiesByKind *prometheus.CounterVec
	edgesByKind    *prometheus.CounterVec
	resolved       prometheus.Counter
	unresolved     prometheus.Counter

	parseDuration   prometheus.Histogram
	resolveDuration prometheus.Histogram
	upsertDuration  prometheus.Histogram
	projectDuration prometheus.Histogram
}

var pipelineMetrics metrics

func (m *metrics) init() {
	m.once.Do(func() {
		m.filesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cie_pipeline_files_processed_total", Help: "Source files successfully extracted",
		})
		m.parseErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cie_pipeline_parse_errors_total", Help: "Files that failed syntactic extraction",
		})
		m.entitiesByKind = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cie_pipeline_entities_extracted_total", Help: "Entities extracted, by kind",
		}, []string{"kind"})
		m.edgesByKind = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cie_pipeline_edges_resolved_total", Help: "Edges resolved, by kind",
		}, []string{"kind"})
		m.resolved = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cie_pipeline_relationships_resolved_total", Help: "References resolved to a concrete entity",
		})
		m.unresolved = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cie_pipeline_relationships_unresolved_total", Help: "References left unresolved",
		})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
		m.parseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "cie_pipeline_parse_seconds", Help: "Duration of the extraction phase", Buckets: buckets,
		})
		m.resolveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "cie_pipeline_resolve_seconds", Help: "Duration of the resolution phase", Buckets: buckets,
		})
		m.upsertDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "cie_pipeline_upsert_seconds", Help: "Duration of the graph upsert phase", Buckets: buckets,
		})
		m.projectDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "cie_pipeline_project_seconds", Help: "Duration of a full ParseProject run", Buckets: buckets,
		})

		prometheus.MustRegister(
			m.filesProcessed, m.parseErrors, m.entitiesByKind, m.edgesByKind,
			m.resolved, m.unresolved,
			m.parseDuration, m.resolveDuration, m.upsertDuration, m.projectDuration,
		)
	})
}

func (m *metrics) recordResult(r *ParseResult) {
	m.init()
	m.filesProcessed.Add(float64(r.FilesProcessed))
	m.parseErrors.Add(float64(r.ParseErrors))
	m.entitiesByKind.WithLabelValues("function").Add(float64(r.FunctionsExtracted))
	m.entitiesByKind.WithLabelValues("class").Add(float64(r.ClassesExtracted))
	m.entitiesByKind.WithLabelValues("interface").Add(float64(r.InterfacesExtracted))
	m.entitiesByKind.WithLabelValues("variable").Add(float64(r.VariablesExtracted))
	m.entitiesByKind.WithLabelValues("type").Add(float64(r.TypesExtracted))
	m.entitiesByKind.WithLabelValues("component").Add(float64(r.ComponentsExtracted))
	m.edgesByKind.WithLabelValues("contains").Add(float64(r.ContainsEdges))
	m.edgesByKind.WithLabelValues("imports").Add(float64(r.ImportsEdges))
	m.edgesByKind.WithLabelValues("calls").Add(float64(r.CallsEdges))
	m.edgesByKind.WithLabelValues("extends").Add(float64(r.ExtendsEdges))
	m.edgesByKind.WithLabelValues("implements").Add(float64(r.ImplementsEdges))
	m.edgesByKind.WithLabelValues("renders").Add(float64(r.RendersEdges))
	m.resolved.Add(float64(r.ResolvedRelationships))
	m.unresolved.Add(float64(r.UnresolvedReferences))
	m.projectDuration.Observe(r.Duration.Seconds())
}
