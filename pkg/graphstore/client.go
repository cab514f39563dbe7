// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

// Package graphstore implements C4, the Graph Upsert Layer: idempotent
// writes of entities and edges against an external property-graph store
// (§4.4), here Neo4j. The client wrapper, connection-pool tuning, and
// ExecuteQuery usage are grounded on a Neo4j client from elsewhere in this
// pipeline's reference corpus; the upsert/delete query shapes are this
// package's own, built to the exact ordering and merge-semantics contract
// of §4.4.
package graphstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	cieerrors "github.com/kraklabs/cie/internal/errors"
)

// Client wraps the Neo4j driver with the connection-pool settings and
// logging conventions this pipeline uses elsewhere, plus the per-file
// write lock §5 requires ("per-file locks serialise writers of the same
// file; different files may proceed in parallel").
type Client struct {
	driver     neo4j.DriverWithContext
	database   string
	logger     *slog.Logger
	fileLocks  sync.Map // absolute path -> *sync.Mutex
	timeout    time.Duration
}

// Config carries the connection settings recognised by the core (§6
// Configuration: storeTimeoutMs, plus the store's own address).
type Config struct {
	URI        string
	User       string
	Password   string
	Database   string // defaults to "neo4j"
	TimeoutMs  int    // defaults to 30000
}

// NewClient connects to Neo4j and verifies connectivity before returning,
// so store-unreachable is surfaced at startup rather than on first query
// (§7 "Store connection error ... fatal for the current operation").
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URI == "" || cfg.User == "" || cfg.Password == "" {
		return nil, cieerrors.NewConfigError(
			"Cannot connect to the graph store",
			"Neo4j URI, user, or password is empty",
			"Set store.uri/user/password in the config file or CIE_STORE_* environment variables",
			nil,
		)
	}
	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	timeoutMs := cfg.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = 30000
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = 50
			c.ConnectionAcquisitionTimeout = 60 * time.Second
			c.MaxConnectionLifetime = 3600 * time.Second
			c.SocketConnectTimeout = 5 * time.Second
			c.SocketKeepalive = true
		})
	if err != nil {
		return nil, cieerrors.NewDatabaseError(
			"Cannot create the graph store driver",
			err.Error(),
			"Check that the store URI is well-formed, e.g. neo4j://localhost:7687",
			err,
		)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, cieerrors.NewDatabaseError(
			fmt.Sprintf("Cannot connect to the graph store at %s", cfg.URI),
			err.Error(),
			"Confirm the store is running and reachable, then retry",
			err,
		)
	}

	logger = logger.With("component", "graphstore")
	logger.Info("graphstore.connected", "uri", cfg.URI, "database", database)

	return &Client{
		driver:   driver,
		database: database,
		logger:   logger,
		timeout:  time.Duration(timeoutMs) * time.Millisecond,
	}, nil
}

// Close releases the underlying driver.
func (c *Client) Close(ctx context.Context) error {
	if err := c.driver.Close(ctx); err != nil {
		return fmt.Errorf("close neo4j driver: %w", err)
	}
	return nil
}

// lockFor returns the per-path mutex serializing writers of the same file
// (§5 "C4 writes use a per-file lock").
func (c *Client) lockFor(path string) *sync.Mutex {
	v, _ := c.fileLocks.LoadOrStore(path, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// run executes a single write query, wrapping store errors with the
// QUERY_FAILED taxonomy of §7.
func (c *Client) run(ctx context.Context, query string, params map[string]any) error {
	queryCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := neo4j.ExecuteQuery(queryCtx, c.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database))
	if err != nil {
		return cieerrors.NewDatabaseError(
			"Graph store write failed",
			err.Error(),
			"Retry the operation; if it persists, check store connectivity and disk space",
			err,
		)
	}
	return nil
}

// query executes a read query and returns the raw records.
func (c *Client) query(ctx context.Context, q string, params map[string]any) ([]map[string]any, error) {
	queryCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	result, err := neo4j.ExecuteQuery(queryCtx, c.driver, q, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
		neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, cieerrors.NewDatabaseError(
			"Graph store read failed",
			err.Error(),
			"Retry the operation; if it persists, check store connectivity",
			err,
		)
	}
	records := make([]map[string]any, 0, len(result.Records))
	for _, rec := range result.Records {
		records = append(records, rec.AsMap())
	}
	return records, nil
}
