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
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// BaseDatabaseFactory creates and manages a configured database manager and
// provides helpers for initialization, health checks, and statistics.
type BaseDatabaseFactory struct {
	manager AbstractDatabaseManager
	logger  Logger
}

// NewDatabaseFactory returns a factory logging to logger, or to the package
// logger when logger is nil.
func NewDatabaseFactory(logger Logger) *BaseDatabaseFactory {
	if logger == nil {
		logger = GetLogger()
	}
	return &BaseDatabaseFactory{logger: logger}
}

// CreateFromConfig applies the DB_* environment overrides to cfg and
// builds its manager.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *ConnectionConfig) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	ApplyEnvOverrides(cfg)
	kind, ok := NormalizeType(cfg.Type)
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.Type, SupportedTypes)
	}
	cfg.Type = kind

	manager := NewDatabaseManager(cfg)
	manager.SetLogger(f.logger)
	f.manager = manager
	return manager, nil
}

type envOverride struct {
	name  string
	apply func(cfg *ConnectionConfig, value string) error
}

func setString(field func(*ConnectionConfig) *string) func(*ConnectionConfig, string) error {
	return func(cfg *ConnectionConfig, v string) error {
		*field(cfg) = v
		return nil
	}
}

func setInt(field func(*ConnectionConfig) *int) func(*ConnectionConfig, string) error {
	return func(cfg *ConnectionConfig, v string) error {
		n, err := strconv.Atoi(v)
		if err == nil {
			*field(cfg) = n
		}
		return err
	}
}

func setBool(field func(*ConnectionConfig) *bool) func(*ConnectionConfig, string) error {
	return func(cfg *ConnectionConfig, v string) error {
		*field(cfg) = v == "true"
		return nil
	}
}

// setSeconds accepts a whole number of seconds or a duration such as "90s".
func setSeconds(field func(*ConnectionConfig) *time.Duration) func(*ConnectionConfig, string) error {
	return func(cfg *ConnectionConfig, v string) error {
		if n, err := strconv.Atoi(v); err == nil {
			*field(cfg) = time.Duration(n) * time.Second
			return nil
		}
		d, err := time.ParseDuration(v)
		if err == nil {
			*field(cfg) = d
		}
		return err
	}
}

var envOverrides = []envOverride{
	{"DB_TYPE", setString(func(c *ConnectionConfig) *string { return &c.Type })},
	{"DB_HOST", setString(func(c *ConnectionConfig) *string { return &c.Host })},
	{"DB_PORT", setInt(func(c *ConnectionConfig) *int { return &c.Port })},
	{"DB_USERNAME", setString(func(c *ConnectionConfig) *string { return &c.Username })},
	{"DB_PASSWORD", setString(func(c *ConnectionConfig) *string { return &c.Password })},
	{"DB_NAME", setString(func(c *ConnectionConfig) *string { return &c.DBName })},
	{"DB_SSLMODE", setString(func(c *ConnectionConfig) *string { return &c.SSLMode })},
	{"DB_MAX_IDLE_CONNS", setInt(func(c *ConnectionConfig) *int { return &c.MaxIdleConns })},
	{"DB_MAX_OPEN_CONNS", setInt(func(c *ConnectionConfig) *int { return &c.MaxOpenConns })},
	{"DB_CONN_MAX_LIFETIME", setSeconds(func(c *ConnectionConfig) *time.Duration { return &c.ConnMaxLifetime })},
	{"DB_ENABLE_RECONNECT", setBool(func(c *ConnectionConfig) *bool { return &c.EnableReconnect })},
	{"DB_RECONNECT_INTERVAL", setSeconds(func(c *ConnectionConfig) *time.Duration { return &c.ReconnectInterval })},
	{"DB_ENABLE_QUERY_LOG", setBool(func(c *ConnectionConfig) *bool { return &c.EnableQueryLog })},
	{"DB_SLOW_QUERY_TIME", setSeconds(func(c *ConnectionConfig) *time.Duration { return &c.SlowQueryTime })},
}

// ApplyEnvOverrides copies the non-empty DB_* environment variables into
// cfg, ignoring values that do not parse. Applying it twice is harmless.
func ApplyEnvOverrides(cfg *ConnectionConfig) {
	for _, o := range envOverrides {
		if v := os.Getenv(o.name); v != "" {
			_ = o.apply(cfg, v)
		}
	}
}

// InitializeDatabase connects and runs migrations when the migrate config
// enables them on startup.
func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context, migrate DataMigrateConfig) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}
	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if migrate.EnableMigrateOnStartup {
		if err := f.manager.RunMigrations(ctx, migrate); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	f.logger.Info("Database initialization completed")
	return nil
}

// GetManager returns the underlying database manager.
func (f *BaseDatabaseFactory) GetManager() AbstractDatabaseManager {
	return f.manager
}

// GetDB returns the Bun database instance, or nil if not initialized.
func (f *BaseDatabaseFactory) GetDB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

// SetLogger sets the logger on the factory and the underlying manager.
func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	f.logger = logger
	if f.manager != nil {
		f.manager.SetLogger(logger)
	}
}

// Close closes the database connection managed by the factory.
func (f *BaseDatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

// GetHealthStatus returns the current database health status from the manager.
func (f *BaseDatabaseFactory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{
			Healthy:       false,
			Connected:     false,
			LastError:     "Database manager not initialized",
			LastCheckTime: time.Now(),
		}
	}
	return f.manager.HealthCheck(ctx)
}

// GetStats returns database connection statistics from the manager.
func (f *BaseDatabaseFactory) GetStats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}
