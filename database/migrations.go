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
	"time"

	"github.com/uptrace/bun"
)

// Migration is a row of schema_migrations.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// step is one schema change. Steps run in slice order, each inside its own
// transaction together with its schema_migrations row.
type step struct {
	version     string
	name        string
	description string
	enabled     func(DataMigrateConfig) bool
	up          func(ctx context.Context, tx bun.Tx, cfg DataMigrateConfig, logger Logger) error
}

var steps = []step{
	{
		version:     "001",
		name:        "create_base_tables",
		description: "Create tables for registered models",
		up:          createTables,
	},
	{
		version:     "002",
		name:        "add_foreign_keys",
		description: "Add table foreign key constraints",
		enabled:     func(cfg DataMigrateConfig) bool { return cfg.EnableForeignKey },
		up:          addForeignKeys,
	},
}

// MigrationManager applies the schema steps to one database.
type MigrationManager struct {
	db     *bun.DB
	logger Logger
}

// NewMigrationManager returns a manager for db.
func NewMigrationManager(db *bun.DB, logger Logger) *MigrationManager {
	return &MigrationManager{db: db, logger: logger}
}

// RunMigrations applies every enabled step not yet recorded. Query hooks
// stay silent unless BUNDEBUG_MIGRATION is set.
func (mm *MigrationManager) RunMigrations(ctx context.Context, cfg DataMigrateConfig) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		EnableQuerySilent(true)
		defer EnableQuerySilent(false)
	}

	if _, err := mm.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := 0
	for _, s := range steps {
		if s.enabled != nil && !s.enabled(cfg) {
			continue
		}
		done, err := mm.apply(ctx, s, cfg)
		if err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", s.version, err)
		}
		if done {
			applied++
		}
	}
	mm.log("Database migrations completed", "applied", applied)
	return nil
}

// apply runs s unless it is already recorded and reports whether it ran.
func (mm *MigrationManager) apply(ctx context.Context, s step, cfg DataMigrateConfig) (bool, error) {
	recorded, err := mm.db.NewSelect().Model((*Migration)(nil)).Where("version = ?", s.version).Exists(ctx)
	if err != nil || recorded {
		return false, err
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.up(ctx, tx, cfg, mm.logger); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&Migration{
			Version:     s.version,
			Name:        s.name,
			AppliedAt:   time.Now(),
			Description: s.description,
		}).Exec(ctx)
		return err
	})
	if err != nil {
		return false, err
	}
	mm.log("Migration applied", "version", s.version, "name", s.name)
	return true, nil
}

func (mm *MigrationManager) log(msg string, fields ...interface{}) {
	if mm.logger != nil {
		mm.logger.Info(msg, fields...)
	}
}

func createTables(ctx context.Context, tx bun.Tx, _ DataMigrateConfig, _ Logger) error {
	for _, model := range RegisteredModels() {
		if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

func addForeignKeys(ctx context.Context, tx bun.Tx, cfg DataMigrateConfig, logger Logger) error {
	fk := NewForeignKeyManagerFromFile(logger, cfg.ForeignKeyFile, RegisteredForeignKeys())
	if errs := fk.ValidateConstraints(); len(errs) > 0 {
		if logger != nil {
			for _, err := range errs {
				logger.Debug("Invalid foreign key constraint", "error", err.Error())
			}
		}
		return fmt.Errorf("foreign key constraint validation failed, %d errors in total", len(errs))
	}
	return fk.AddAllForeignKeys(ctx, tx)
}

// GetAppliedMigrations returns the recorded steps ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var applied []Migration
	err := mm.db.NewSelect().Model(&applied).Order("version ASC").Scan(ctx)
	return applied, err
}
