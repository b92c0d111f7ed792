// Package graph wraps the Neo4j driver with the typed capability the
// rest of the pipeline depends on (spec §4.2, §9 GraphWriter+GraphReader):
// parameterized Session/ExecuteWrite/Run, batched UNWIND writes, and
// index/constraint management.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"
)

// Pool tuning from spec §4.2: max 50 sessions, 30-minute lifetime,
// 30-second acquisition timeout, 30-second transaction retry ceiling.
const (
	MaxConnectionPoolSize        = 50
	MaxConnectionLifetime        = 30 * time.Minute
	ConnectionAcquisitionTimeout = 30 * time.Second
	TransactionRetryCeiling      = 30 * time.Second
)

// Client is the sole writer/reader of the graph store; it owns the
// session pool (spec §5 "Shared-resource policy").
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *logrus.Entry
}

// Config carries connection parameters. URI, User and Password must all
// be non-empty; config.Load fills Password from the OS keyring
// (config.LookupKeyringPassword) when neither file nor env sets it.
type Config struct {
	URI      string
	User     string
	Password string
	Database string
}

// NewClient opens a driver, configures the pool per spec §4.2, and fails
// fast if the store is unreachable.
func NewClient(ctx context.Context, cfg Config, logger *logrus.Logger) (*Client, error) {
	if cfg.URI == "" || cfg.User == "" || cfg.Password == "" {
		return nil, fmt.Errorf("graph store credentials missing (uri/user/password)")
	}
	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI,
		neo4j.BasicAuth(cfg.User, cfg.Password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = MaxConnectionPoolSize
			c.ConnectionAcquisitionTimeout = ConnectionAcquisitionTimeout
			c.MaxConnectionLifetime = MaxConnectionLifetime
			c.MaxTransactionRetryTime = TransactionRetryCeiling
		})
	if err != nil {
		return nil, fmt.Errorf("create graph driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect to graph store at %s: %w", cfg.URI, err)
	}

	entry := logger.WithField("component", "graph")
	entry.WithFields(logrus.Fields{"uri": cfg.URI, "database": database}).Info("graph store connected")

	return &Client{driver: driver, database: database, logger: entry}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("graph store health check failed: %w", err)
	}
	return nil
}

func (c *Client) Database() string { return c.database }

func (c *Client) Driver() neo4j.DriverWithContext { return c.driver }

// Session runs fn inside an auto-commit session against the configured
// database (spec §4.2 "Session(fn)").
func (c *Client) Session(ctx context.Context, fn func(neo4j.SessionWithContext) error) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)
	return fn(session)
}

// ExecuteWrite runs fn inside a managed write transaction with the
// configured retry ceiling (spec §4.2 "ExecuteWrite(tx -> result)").
func (c *Client) ExecuteWrite(ctx context.Context, fn func(neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, fn)
}

// ExecuteRead runs fn inside a managed read transaction, routed to a
// reader replica when the backend supports it.
func (c *Client) ExecuteRead(ctx context.Context, fn func(neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, fn)
}

// Run executes a single parameterized Cypher statement and returns rows
// as plain maps (spec §4.2 "Run(cypher, params)").
func (c *Client) Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	result, err := neo4j.ExecuteQuery(ctx, c.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database))
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	rows := make([]map[string]any, 0, len(result.Records))
	for _, rec := range result.Records {
		rows = append(rows, rec.AsMap())
	}
	return rows, nil
}

// RunRead is Run routed explicitly to a read replica when available.
func (c *Client) RunRead(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	result, err := neo4j.ExecuteQuery(ctx, c.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
		neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, fmt.Errorf("read query failed: %w", err)
	}
	rows := make([]map[string]any, 0, len(result.Records))
	for _, rec := range result.Records {
		rows = append(rows, rec.AsMap())
	}
	return rows, nil
}
