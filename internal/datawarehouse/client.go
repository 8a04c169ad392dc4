// Package datawarehouse provides read-only connectivity to the MS SQL Server data warehouse.
// The warehouse publishes the daily exchange rates that back the "warehouse" currency feed.
package datawarehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/config"
	"github.com/straye-as/sales-api/internal/currency"
	"go.uber.org/zap"
)

const (
	connectAttempts    = 3
	initialBackoff     = time.Second
	maxBackoff         = 10 * time.Second
	healthCheckTimeout = 5 * time.Second
	defaultRatesTable  = "dbo.currency_rates"
	defaultMSSQLPort   = "1433"
)

// tableName accepts schema-qualified identifiers only
var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Client reads exchange rates from the warehouse
type Client struct {
	db           *sql.DB
	config       *config.DataWarehouseConfig
	logger       *zap.Logger
	queryTimeout time.Duration
	ratesTable   string
}

// HealthStatus is the readiness view of the warehouse pool
type HealthStatus struct {
	Status     string        `json:"status"`
	Latency    time.Duration `json:"latency_ms"`
	Error      string        `json:"error,omitempty"`
	MaxOpen    int           `json:"max_open_connections"`
	Open       int           `json:"open_connections"`
	InUse      int           `json:"in_use"`
	Idle       int           `json:"idle"`
	WaitCount  int64         `json:"wait_count"`
	WaitTimeMs int64         `json:"wait_time_ms"`
}

// NewClient connects to the warehouse with exponential backoff.
// It returns a nil client and no error when the warehouse is disabled or has no credentials.
func NewClient(cfg *config.DataWarehouseConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Data warehouse disabled, rate feed falls back to stored rates")
		return nil, nil
	}
	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("Data warehouse enabled without credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	dsn, err := buildConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		db, err := open(dsn, cfg)
		if err == nil {
			logger.Info("Data warehouse connected",
				zap.Int("attempt", attempt),
				zap.Int("max_open_conns", cfg.MaxOpenConns),
				zap.Int("query_timeout_seconds", cfg.QueryTimeout),
			)
			return newClient(db, cfg, logger), nil
		}
		logger.Warn("Data warehouse connection attempt failed", zap.Error(err), zap.Int("attempt", attempt))
		if attempt == connectAttempts {
			return nil, fmt.Errorf("failed to connect to data warehouse after %d attempts: %w", connectAttempts, err)
		}
		time.Sleep(backoff)
		backoff = min(2*backoff, maxBackoff)
	}
}

// open configures the pool and pings it once
func open(dsn string, cfg *config.DataWarehouseConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// buildConnectionString turns "host[:port][/database]" into a sqlserver:// URL
func buildConnectionString(cfg *config.DataWarehouseConfig) (string, error) {
	hostPort, database, _ := strings.Cut(cfg.URL, "/")
	host, port, found := strings.Cut(hostPort, ":")
	if host == "" {
		return "", fmt.Errorf("data warehouse url %q has no host", cfg.URL)
	}
	if !found || port == "" {
		port = defaultMSSQLPort
	}

	query := url.Values{}
	query.Set("encrypt", "true")
	query.Set("TrustServerCertificate", "false")
	query.Set("connection timeout", "30")
	if database != "" {
		query.Set("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(host, port),
		RawQuery: query.Encode(),
	}
	return u.String(), nil
}

func newClient(db *sql.DB, cfg *config.DataWarehouseConfig, logger *zap.Logger) *Client {
	table := cfg.RatesTable
	if table == "" {
		table = defaultRatesTable
	}
	timeout := cfg.QueryTimeoutDuration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		db:           db,
		config:       cfg,
		logger:       logger,
		queryTimeout: timeout,
		ratesTable:   table,
	}
}

// Close releases the pool. It is safe on a nil client.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close data warehouse connection: %w", err)
	}
	c.logger.Info("Data warehouse connection closed")
	return nil
}

// HealthCheck pings the warehouse and reports pool statistics.
// A ctx without deadline gets the default health check timeout.
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if c == nil || c.db == nil {
		return &HealthStatus{Status: "disabled"}
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.db.PingContext(ctx)
	stats := c.db.Stats()
	status := &HealthStatus{
		Status:     "healthy",
		Latency:    time.Since(start),
		MaxOpen:    stats.MaxOpenConnections,
		Open:       stats.OpenConnections,
		InUse:      stats.InUse,
		Idle:       stats.Idle,
		WaitCount:  stats.WaitCount,
		WaitTimeMs: stats.WaitDuration.Milliseconds(),
	}
	if err != nil {
		c.logger.Warn("Data warehouse health check failed", zap.Error(err), zap.Duration("latency", status.Latency))
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

// GetCurrencyRates reads the most recent rate date from the rates table.
// Rows are units of currency per one unit of base; the base itself is always 1.
func (c *Client) GetCurrencyRates(ctx context.Context, base string) (*currency.Rates, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("data warehouse client not initialized")
	}
	if !tableName.MatchString(c.ratesTable) {
		return nil, fmt.Errorf("invalid rates table name: %q", c.ratesTable)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	query := fmt.Sprintf(
		"SELECT currency_code, rate, rate_date FROM %[1]s WHERE rate_date = (SELECT MAX(rate_date) FROM %[1]s)",
		c.ratesTable)

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		c.logger.Error("Data warehouse rates query failed",
			zap.Error(err),
			zap.String("table", c.ratesTable),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	base = strings.ToUpper(base)
	rates := map[string]decimal.Decimal{base: decimal.NewFromInt(1)}
	var fetched time.Time
	for rows.Next() {
		var (
			code string
			rate decimal.Decimal
			date time.Time
		)
		if err := rows.Scan(&code, &rate, &date); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		if !rate.IsPositive() {
			c.logger.Warn("Skipping non-positive warehouse rate", zap.String("code", code))
			continue
		}
		rates[code] = rate
		fetched = date
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	if len(rates) == 1 {
		return nil, currency.ErrNoRates
	}

	c.logger.Debug("Data warehouse rates loaded",
		zap.Int("currencies", len(rates)),
		zap.Time("rate_date", fetched),
		zap.Duration("duration", time.Since(start)),
	)
	return currency.NewRates(base, rates, fetched.UTC()), nil
}

// RateFeed exposes the warehouse rates as a currency feed against base
func (c *Client) RateFeed(base string) currency.Feed {
	return currency.FeedFunc(func(ctx context.Context) (*currency.Rates, error) {
		return c.GetCurrencyRates(ctx, base)
	})
}

// IsEnabled returns true if the client is initialized and ready for queries.
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}
