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

// Package storyboard wires configuration, logging, the database, the
// repositories and the story service into one application.
package storyboard

import (
	"context"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/tomoncle/storyboard/config"
	"github.com/tomoncle/storyboard/database"
	"github.com/tomoncle/storyboard/metrics"
	"github.com/tomoncle/storyboard/model"
	"github.com/tomoncle/storyboard/repository"
	"github.com/tomoncle/storyboard/service"
	"github.com/tomoncle/storyboard/utils"
)

// App owns the database connection and the services built on it.
type App struct {
	config   *config.Config
	factory  *database.BaseDatabaseFactory
	registry *prometheus.Registry
	logger   *logrus.Logger

	Stories *service.StoryService
}

// ForeignKeys returns the constraints the foreign key migration applies
// under cfg: those of its foreign key file, else the ones the models declare.
func ForeignKeys(cfg *config.Config) *database.ForeignKeyManager {
	model.Register()
	return database.NewForeignKeyManagerFromFile(
		database.GetLogger(),
		cfg.Database.DataMigrateConfig.ForeignKeyFile,
		database.RegisteredForeignKeys(),
	)
}

// New configures logging, connects the database, applies startup
// migrations and builds the story service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.NotValidf("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if err := utils.Configure(cfg.Log); err != nil {
		return nil, errors.Annotate(err, "configure logging")
	}
	logger := utils.NewLogger("APP")
	database.InitLogger(database.NewLogrusLogger(utils.NewLogger("DATABASE")))
	model.Register()

	factory, err := database.Open(ctx, cfg.ConfigLoader(), database.GetLogger())
	if err != nil {
		return nil, errors.Annotate(err, "open database")
	}

	app := &App{config: cfg, factory: factory, registry: prometheus.NewRegistry(), logger: logger}
	var recorder metrics.Recorder = metrics.NopRecorder{}
	if cfg.Metrics.Enabled {
		recorder = metrics.NewPrometheusRecorder(app.registry)
	}
	app.Stories = service.NewStoryService(service.StoryServiceConfig{
		Transactor: repository.NewTransactor(factory.GetDB(), utils.NewLogger("TX")),
		Logger:     utils.NewLogger("STORY"),
		Metrics:    recorder,
	})
	logger.WithField("database", cfg.Database.ConnectionConfig.Type).Info("storyboard ready")
	return app, nil
}

// Migrate applies pending migrations regardless of the startup setting.
func (a *App) Migrate(ctx context.Context) error {
	return errors.Trace(a.factory.GetManager().RunMigrations(ctx, a.config.Database.DataMigrateConfig))
}

// AppliedMigrations lists the recorded migrations.
func (a *App) AppliedMigrations(ctx context.Context) ([]database.Migration, error) {
	return database.NewMigrationManager(a.factory.GetDB(), database.GetLogger()).GetAppliedMigrations(ctx)
}

// Health pings the database.
func (a *App) Health(ctx context.Context) *database.HealthStatus {
	return a.factory.GetHealthStatus(ctx)
}

// Stats returns the connection pool statistics.
func (a *App) Stats() *database.DBStats {
	return a.factory.GetStats()
}

// Registry is the Prometheus registry holding the service metrics.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Close releases the database connection.
func (a *App) Close() error {
	return a.factory.Close()
}
