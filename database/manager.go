/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

// defaultDatabaseManager keeps a single bun handle from Connect until
// Disconnect.
type defaultDatabaseManager struct {
	config *ConnectionConfig

	mu sync.RWMutex
	db *bun.DB

	logMu  sync.RWMutex
	logger Logger

	// reconnecting serializes Reconnect between the monitor and callers.
	reconnecting sync.Mutex
	stop         chan struct{}
	monitorDone  chan struct{}
}

// NewDatabaseManager returns a manager for config, or for
// DefaultConnectionConfig when config is nil.
func NewDatabaseManager(config *ConnectionConfig) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &defaultDatabaseManager{config: config}
}

// Connect opens the pool, verifies it with a ping and starts the health
// monitor. Connecting an open manager does nothing.
func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.db != nil {
		return nil
	}

	db, err := dm.open()
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, dm.connectTimeout())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}

	dm.db = db
	dm.startMonitor()
	dm.info("Database connected", "type", dm.config.Type, "host", dm.config.Host, "dbname", dm.config.DBName)
	return nil
}

func (dm *defaultDatabaseManager) connectTimeout() time.Duration {
	if dm.config.ConnectTimeout > 0 {
		return dm.config.ConnectTimeout
	}
	return 30 * time.Second
}

func (dm *defaultDatabaseManager) open() (*bun.DB, error) {
	kind, ok := NormalizeType(dm.config.Type)
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", dm.config.Type)
	}

	var (
		driver, dsn string
		dialect     schema.Dialect
	)
	switch kind {
	case TypeMySQL:
		driver, dsn, dialect = "mysql", mysqlDSN(dm.config, dm.connectTimeout()), mysqldialect.New()
	case TypePostgres:
		driver, dsn, dialect = "postgres", postgresDSN(dm.config, dm.connectTimeout()), pgdialect.New()
	case TypeSQLite:
		driver, dsn, dialect = sqliteshim.ShimName, sqliteDSN(dm.config.DBName), sqlitedialect.New()
	}
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	dm.configurePool(sqlDB)

	db := bun.NewDB(sqlDB, dialect)
	if dm.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true), bundebug.WithWriter(os.Stderr), bundebug.FromEnv("BUNDEBUG")))
	} else {
		db.AddQueryHook(NewQueryHook("BUNDEBUG", os.Stderr))
	}
	if dm.config.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(dm.config.SlowQueryTime, dm.getLogger()))
	}
	db.RegisterModel(RegisteredModels()...)
	return db, nil
}

func mysqlDSN(c *ConnectionConfig, timeout time.Duration) string {
	cfg := mysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.DBName
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Timeout = timeout
	cfg.ReadTimeout = c.ReadTimeout
	cfg.WriteTimeout = c.WriteTimeout
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

func postgresDSN(c *ConnectionConfig, timeout time.Duration) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	query.Set("connect_timeout", strconv.Itoa(int(timeout.Seconds())))
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.DBName,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// sqliteDSN maps a database name to a file DSN.
func sqliteDSN(name string) string {
	switch {
	case name == "" || name == ":memory:":
		return ":memory:"
	case strings.HasSuffix(name, ".db"):
		return name
	default:
		return name + ".db"
	}
}

// configurePool applies the pool settings. An in-memory sqlite database
// exists only on its one connection, which must never be closed.
func (dm *defaultDatabaseManager) configurePool(sqlDB *sql.DB) {
	if dm.config.InMemory() {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		return
	}
	sqlDB.SetMaxOpenConns(dm.config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dm.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(dm.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dm.config.ConnMaxIdleTime)
}

// Disconnect stops the monitor and closes the pool. Handles obtained from
// GetDB stop working.
func (dm *defaultDatabaseManager) Disconnect() error {
	dm.mu.Lock()
	stop, done := dm.stop, dm.monitorDone
	dm.stop, dm.monitorDone = nil, nil
	dm.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.db == nil {
		return nil
	}
	err := dm.db.Close()
	dm.db = nil
	if err != nil {
		dm.error("Failed to close database", "error", err)
		return err
	}
	dm.info("Database connection closed")
	return nil
}

// Reconnect waits for the database to answer again, pinging up to
// MaxReconnectTries times ReconnectInterval apart. The pool redials on its
// own, so the handle is kept; a disconnected manager connects afresh.
func (dm *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	if dm.GetDB() == nil {
		return dm.Connect(ctx)
	}
	dm.reconnecting.Lock()
	defer dm.reconnecting.Unlock()

	tries := dm.config.MaxReconnectTries
	if tries < 1 || dm.config.InMemory() {
		tries = 1
	}
	var err error
	for try := 1; try <= tries; try++ {
		if err = dm.ping(ctx); err == nil {
			if try > 1 {
				dm.info("Database reachable again", "tries", try)
			}
			return nil
		}
		dm.warn("Database unreachable", "try", try, "error", err)
		if try == tries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dm.config.ReconnectInterval):
		}
	}
	return fmt.Errorf("database unreachable after %d tries: %w", tries, err)
}

func (dm *defaultDatabaseManager) ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, dm.connectTimeout())
	defer cancel()
	status := dm.HealthCheck(pingCtx)
	if !status.Healthy {
		return fmt.Errorf("%s", status.LastError)
	}
	return nil
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

// GetDB returns the handle, or nil before Connect and after Disconnect.
func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

// HealthCheck pings the database and reports the pool state.
func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	db := dm.GetDB()
	start := time.Now()
	status := HealthStatus{LastCheckTime: start}
	if db == nil {
		status.LastError = "database not connected"
		return &status
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)
	status.Connected = err == nil
	status.Healthy = err == nil
	if err != nil {
		status.LastError = err.Error()
	}
	stats := db.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return &status
}

// startMonitor runs periodic health checks. In-memory databases have no
// server to lose and are not monitored. Called with dm.mu held.
func (dm *defaultDatabaseManager) startMonitor() {
	if dm.config.HealthCheckInterval <= 0 || dm.config.InMemory() {
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})
	dm.stop, dm.monitorDone = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(dm.config.HealthCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				select {
				case <-stop:
					cancel()
				case <-ctx.Done():
				}
			}()
			if status := dm.HealthCheck(ctx); !status.Healthy && dm.config.EnableReconnect {
				if err := dm.Reconnect(ctx); err != nil {
					dm.error("Database still unreachable", "error", err)
				}
			}
			cancel()
		}
	}()
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	db := dm.GetDB()
	if db == nil {
		return &DBStats{}
	}
	stats := db.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (dm *defaultDatabaseManager) RunMigrations(ctx context.Context, cfg DataMigrateConfig) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return NewMigrationManager(db, dm.getLogger()).RunMigrations(ctx, cfg)
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	dm.logMu.Lock()
	defer dm.logMu.Unlock()
	dm.logger = logger
}

func (dm *defaultDatabaseManager) getLogger() Logger {
	dm.logMu.RLock()
	defer dm.logMu.RUnlock()
	return dm.logger
}

func (dm *defaultDatabaseManager) info(msg string, fields ...interface{}) {
	if l := dm.getLogger(); l != nil {
		l.Info(msg, fields...)
	}
}

func (dm *defaultDatabaseManager) warn(msg string, fields ...interface{}) {
	if l := dm.getLogger(); l != nil {
		l.Warn(msg, fields...)
	}
}

func (dm *defaultDatabaseManager) error(msg string, fields ...interface{}) {
	if l := dm.getLogger(); l != nil {
		l.Error(msg, fields...)
	}
}
