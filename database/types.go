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
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// AbstractDatabaseManager owns one bun handle for the life of a connection.
// The handle returned by GetDB stays valid until Disconnect.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Reconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetDB() *bun.DB
	RunMigrations(ctx context.Context, cfg DataMigrateConfig) error
	GetStats() *DBStats
	SetLogger(logger Logger)
}

// AbstractDatabaseConfigProvider exposes configuration loading.
type AbstractDatabaseConfigProvider interface {
	ConfigLoader() *Config
}

// Database types accepted in ConnectionConfig.Type.
const (
	TypeMySQL    = "mysql"
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// SupportedTypes lists the canonical database types.
var SupportedTypes = []string{TypeMySQL, TypePostgres, TypeSQLite}

var typeAliases = map[string]string{
	TypeMySQL:    TypeMySQL,
	TypePostgres: TypePostgres,
	"postgresql": TypePostgres,
	TypeSQLite:   TypeSQLite,
	"sqlite3":    TypeSQLite,
}

// NormalizeType maps a configured type or one of its aliases to the
// canonical name.
func NormalizeType(t string) (string, bool) {
	canonical, ok := typeAliases[strings.ToLower(strings.TrimSpace(t))]
	return canonical, ok
}

// HealthStatus is the outcome of one ping.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats is a snapshot of the connection pool.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// ConnectionConfig describes the server, the pool and the connection
// monitor. For sqlite, DBName is a file name (".db" is appended when
// missing) or ":memory:".
type ConnectionConfig struct {
	Type     string `json:"type" mapstructure:"type"`
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	DBName   string `json:"dbname" mapstructure:"dbname"`
	SSLMode  string `json:"sslmode" mapstructure:"sslmode"`

	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `json:"max_open_conns" mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`

	ConnectTimeout time.Duration `json:"connect_timeout" mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout" mapstructure:"write_timeout"`

	// A failed health check is retried MaxReconnectTries times,
	// ReconnectInterval apart, when EnableReconnect is set.
	EnableReconnect     bool          `json:"enable_reconnect" mapstructure:"enable_reconnect"`
	ReconnectInterval   time.Duration `json:"reconnect_interval" mapstructure:"reconnect_interval"`
	MaxReconnectTries   int           `json:"max_reconnect_tries" mapstructure:"max_reconnect_tries"`
	HealthCheckInterval time.Duration `json:"health_check_interval" mapstructure:"health_check_interval"`

	EnableQueryLog bool          `json:"enable_query_log" mapstructure:"enable_query_log"`
	SlowQueryTime  time.Duration `json:"slow_query_time" mapstructure:"slow_query_time"`
}

// InMemory reports a sqlite database that lives inside the process.
func (c *ConnectionConfig) InMemory() bool {
	t, _ := NormalizeType(c.Type)
	return t == TypeSQLite && (c.DBName == "" || c.DBName == ":memory:")
}

// DataMigrateConfig selects the migrations applied by RunMigrations.
type DataMigrateConfig struct {
	EnableMigrateOnStartup bool   `json:"enable_migrate_on_startup" mapstructure:"enable_migrate_on_startup"`
	EnableForeignKey       bool   `json:"enable_foreign_key" mapstructure:"enable_foreign_key"`
	ForeignKeyFile         string `json:"foreign_key_file" mapstructure:"foreign_key_file"`
}

// Config is the database section of the application configuration.
type Config struct {
	ConnectionConfig  ConnectionConfig  `json:"connection_config" mapstructure:"connection"`
	DataMigrateConfig DataMigrateConfig `json:"data_migrate_config" mapstructure:"migrate"`
}

// DefaultConnectionConfig returns a file-backed sqlite configuration.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:                TypeSQLite,
		DBName:              "storyboard",
		MaxIdleConns:        10,
		MaxOpenConns:        100,
		ConnMaxLifetime:     time.Hour,
		ConnMaxIdleTime:     30 * time.Minute,
		ConnectTimeout:      10 * time.Second,
		ReadTimeout:         30 * time.Second,
		WriteTimeout:        30 * time.Second,
		EnableReconnect:     true,
		ReconnectInterval:   5 * time.Second,
		MaxReconnectTries:   3,
		HealthCheckInterval: 5 * time.Minute,
		SlowQueryTime:       2 * time.Second,
	}
}
