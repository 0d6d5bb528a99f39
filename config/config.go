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

// Package config loads the storyboard configuration from a YAML file and
// STORYBOARD_* environment variables.
package config

import (
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/viper"

	"github.com/tomoncle/storyboard/database"
	"github.com/tomoncle/storyboard/utils"
)

const envPrefix = "STORYBOARD"

// MetricsConfig controls the Prometheus recorder.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config is the application configuration.
type Config struct {
	Database database.Config `mapstructure:"database"`
	Log      utils.LogConfig `mapstructure:"log"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
}

var _ database.AbstractDatabaseConfigProvider = (*Config)(nil)

// ConfigLoader returns a copy of the database section.
func (c *Config) ConfigLoader() *database.Config {
	cfg := c.Database
	return &cfg
}

// Validate checks the settings that cannot be defaulted. The database type
// may be any name accepted by database.NormalizeType.
func (c *Config) Validate() error {
	conn := c.Database.ConnectionConfig
	kind, ok := database.NormalizeType(conn.Type)
	if !ok {
		return errors.NotSupportedf("database type %q (supported: %s)", conn.Type, strings.Join(database.SupportedTypes, ", "))
	}
	if kind != database.TypeSQLite {
		if conn.Host == "" {
			return errors.NotValidf("database.connection.host for %s", conn.Type)
		}
		if conn.DBName == "" {
			return errors.NotValidf("empty database.connection.dbname")
		}
	}
	if conn.MaxOpenConns < 0 || conn.MaxIdleConns < 0 {
		return errors.NotValidf("negative connection pool size")
	}
	return nil
}

// New returns a viper instance carrying the defaults and environment
// bindings. Nested keys map to variables such as
// STORYBOARD_DATABASE_CONNECTION_TYPE.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	conn := database.DefaultConnectionConfig()
	defaults := map[string]interface{}{
		"database.connection.type":                   conn.Type,
		"database.connection.host":                   conn.Host,
		"database.connection.port":                   conn.Port,
		"database.connection.username":               conn.Username,
		"database.connection.password":               conn.Password,
		"database.connection.dbname":                 conn.DBName,
		"database.connection.sslmode":                conn.SSLMode,
		"database.connection.max_idle_conns":         conn.MaxIdleConns,
		"database.connection.max_open_conns":         conn.MaxOpenConns,
		"database.connection.conn_max_lifetime":      conn.ConnMaxLifetime,
		"database.connection.conn_max_idle_time":     conn.ConnMaxIdleTime,
		"database.connection.connect_timeout":        conn.ConnectTimeout,
		"database.connection.read_timeout":           conn.ReadTimeout,
		"database.connection.write_timeout":          conn.WriteTimeout,
		"database.connection.enable_reconnect":       conn.EnableReconnect,
		"database.connection.reconnect_interval":     conn.ReconnectInterval,
		"database.connection.max_reconnect_tries":    conn.MaxReconnectTries,
		"database.connection.health_check_interval":  conn.HealthCheckInterval,
		"database.connection.enable_query_log":       conn.EnableQueryLog,
		"database.connection.slow_query_time":        conn.SlowQueryTime,
		"database.migrate.enable_migrate_on_startup": true,
		"database.migrate.enable_foreign_key":        false,
		"database.migrate.foreign_key_file":          "",
		"log.level":                                  "info",
		"log.console_level":                          "",
		"log.file_level":                             "",
		"log.console_format":                         "text",
		"log.file_format":                            "text",
		"log.file.enabled":                           utils.EnvDefaultBool("FILE_LOG_ENABLED", false),
		"log.file.dir":                               "logs",
		"log.file.filename":                          "storyboard.log",
		"log.file.max_size_mb":                       100,
		"log.file.max_backups":                       7,
		"log.file.max_age_days":                      30,
		"log.file.compress":                          false,
		"metrics.enabled":                            true,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load reads path (when non-empty) over the defaults and environment, then
// validates the result.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}
	return FromViper(v)
}

// FromViper decodes the configuration held by v, applies the DB_*
// overrides the database factory also honours, and validates the result.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Annotate(err, "decode config")
	}
	database.ApplyEnvOverrides(&cfg.Database.ConnectionConfig)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &cfg, nil
}
