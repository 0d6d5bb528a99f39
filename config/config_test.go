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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
database:
  connection:
    type: postgres
    host: db.internal
    port: 5432
    dbname: storyboard
    slow_query_time: 250ms
  migrate:
    enable_foreign_key: true
    foreign_key_file: configs/foreign_keys.yaml
log:
  level: debug
  console_format: json
metrics:
  enabled: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storyboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	conn := cfg.Database.ConnectionConfig
	assert.Equal(t, "sqlite", conn.Type)
	assert.Equal(t, "storyboard", conn.DBName)
	assert.Equal(t, 2*time.Second, conn.SlowQueryTime)
	assert.True(t, cfg.Database.DataMigrateConfig.EnableMigrateOnStartup)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	conn := cfg.ConfigLoader().ConnectionConfig
	assert.Equal(t, "postgres", conn.Type)
	assert.Equal(t, "db.internal", conn.Host)
	assert.Equal(t, 5432, conn.Port)
	assert.Equal(t, 250*time.Millisecond, conn.SlowQueryTime)
	assert.Equal(t, 100, conn.MaxOpenConns)

	migrate := cfg.ConfigLoader().DataMigrateConfig
	assert.True(t, migrate.EnableForeignKey)
	assert.Equal(t, "configs/foreign_keys.yaml", migrate.ForeignKeyFile)
	assert.Equal(t, "json", cfg.Log.ConsoleFormat)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("STORYBOARD_DATABASE_CONNECTION_HOST", "override.internal")
	t.Setenv("STORYBOARD_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "override.internal", cfg.Database.ConnectionConfig.Host)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Database.ConnectionConfig.Type = "oracle"
	assert.True(t, errors.Is(cfg.Validate(), errors.NotSupported))

	cfg.Database.ConnectionConfig.Type = "mysql"
	cfg.Database.ConnectionConfig.Host = ""
	assert.True(t, errors.Is(cfg.Validate(), errors.NotValid))
}

func TestValidateAcceptsTypeAliases(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Database.ConnectionConfig.Type = "sqlite3"
	assert.NoError(t, cfg.Validate())

	cfg.Database.ConnectionConfig.Type = "postgresql"
	cfg.Database.ConnectionConfig.Host = "db.internal"
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseEnvOverridesAreValidated(t *testing.T) {
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_HOST", "")

	_, err := Load("")
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)

	t.Setenv("DB_TYPE", "oracle")
	_, err = Load("")
	assert.True(t, errors.Is(err, errors.NotSupported), "got %v", err)

	t.Setenv("DB_TYPE", "sqlite3")
	t.Setenv("DB_NAME", ":memory:")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Database.ConnectionConfig.DBName)
}

func TestConfigLoaderReturnsCopy(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	loaded := cfg.ConfigLoader()
	loaded.ConnectionConfig.DBName = "changed"
	assert.Equal(t, "storyboard", cfg.Database.ConnectionConfig.DBName)
}
