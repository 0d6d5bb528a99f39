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
	"path/filepath"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"gopkg.in/yaml.v3"
)

var referentialActions = map[string]bool{
	"CASCADE":   true,
	"RESTRICT":  true,
	"SET NULL":  true,
	"NO ACTION": true,
}

// ForeignKeyConstraint is one foreign key. OnDelete and OnUpdate take a
// referential action such as CASCADE or SET NULL, in any case.
type ForeignKeyConstraint struct {
	Table           string `yaml:"table"`
	Column          string `yaml:"column"`
	ReferenceTable  string `yaml:"reference_table"`
	ReferenceColumn string `yaml:"reference_column"`
	OnDelete        string `yaml:"on_delete,omitempty"`
	OnUpdate        string `yaml:"on_update,omitempty"`
	ConstraintName  string `yaml:"constraint_name,omitempty"`
}

// GenerateConstraintName returns ConstraintName, or fk_<table>_<column>.
func (fk *ForeignKeyConstraint) GenerateConstraintName() string {
	if fk.ConstraintName != "" {
		return fk.ConstraintName
	}
	return "fk_" + fk.Table + "_" + fk.Column
}

// GenerateSQL returns the ALTER TABLE statement adding the constraint.
func (fk *ForeignKeyConstraint) GenerateSQL() string {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		fk.Table, fk.GenerateConstraintName(), fk.Column, fk.ReferenceTable, fk.ReferenceColumn)
	if fk.OnDelete != "" {
		stmt += " ON DELETE " + strings.ToUpper(fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		stmt += " ON UPDATE " + strings.ToUpper(fk.OnUpdate)
	}
	return stmt
}

func (fk *ForeignKeyConstraint) Validate() error {
	for _, required := range []struct{ name, value string }{
		{"table", fk.Table},
		{"column", fk.Column},
		{"reference table", fk.ReferenceTable},
		{"reference column", fk.ReferenceColumn},
	} {
		if required.value == "" {
			return fmt.Errorf("foreign key %s.%s: empty %s", fk.Table, fk.Column, required.name)
		}
	}
	for _, action := range []string{fk.OnDelete, fk.OnUpdate} {
		if action != "" && !referentialActions[strings.ToUpper(action)] {
			return fmt.Errorf("foreign key %s: invalid referential action %q", fk.GenerateConstraintName(), action)
		}
	}
	return nil
}

type foreignKeyFile struct {
	ForeignKeys []ForeignKeyConstraint `yaml:"foreign_keys"`
}

// LoadForeignKeyFile reads the constraints listed in a YAML file.
func LoadForeignKeyFile(path string) ([]ForeignKeyConstraint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read foreign key file: %w", err)
	}
	var file foreignKeyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse foreign key file %s: %w", path, err)
	}
	return file.ForeignKeys, nil
}

// ForeignKeyManager applies a set of constraints to a schema.
type ForeignKeyManager struct {
	constraints []ForeignKeyConstraint
	logger      Logger
}

func NewForeignKeyManager(logger Logger, constraints []ForeignKeyConstraint) *ForeignKeyManager {
	return &ForeignKeyManager{constraints: constraints, logger: logger}
}

// NewForeignKeyManagerFromFile uses the constraints of the YAML file at path,
// or defaults when path is empty or unreadable.
func NewForeignKeyManagerFromFile(logger Logger, path string, defaults []ForeignKeyConstraint) *ForeignKeyManager {
	if path == "" {
		return NewForeignKeyManager(logger, defaults)
	}
	constraints, err := LoadForeignKeyFile(path)
	if err != nil {
		if logger != nil {
			logger.Warn("Using model foreign keys", "error", err.Error(), "path", path)
		}
		constraints = defaults
	}
	return NewForeignKeyManager(logger, constraints)
}

// AddAllForeignKeys adds every constraint, logging and skipping those the
// database refuses. SQLite cannot add constraints to existing tables, so
// nothing happens there.
func (fkm *ForeignKeyManager) AddAllForeignKeys(ctx context.Context, db bun.IDB) error {
	if db.Dialect().Name() == dialect.SQLite {
		fkm.debug("Skipping foreign keys on sqlite", "constraints", len(fkm.constraints))
		return nil
	}
	for i := range fkm.constraints {
		fk := &fkm.constraints[i]
		if _, err := db.ExecContext(ctx, fk.GenerateSQL()); err != nil {
			fkm.debug("Foreign key not added", "constraint", fk.GenerateConstraintName(), "error", err.Error())
			continue
		}
		fkm.debug("Foreign key added", "constraint", fk.GenerateConstraintName())
	}
	return nil
}

func (fkm *ForeignKeyManager) debug(msg string, fields ...interface{}) {
	if fkm.logger != nil {
		fkm.logger.Debug(msg, fields...)
	}
}

// GetConstraintsByTable returns the constraints of one table, matched
// case-insensitively.
func (fkm *ForeignKeyManager) GetConstraintsByTable(tableName string) []ForeignKeyConstraint {
	var result []ForeignKeyConstraint
	for _, fk := range fkm.constraints {
		if strings.EqualFold(fk.Table, tableName) {
			result = append(result, fk)
		}
	}
	return result
}

func (fkm *ForeignKeyManager) ListAllConstraints() []ForeignKeyConstraint {
	return fkm.constraints
}

// ValidateConstraints returns one error per invalid constraint.
func (fkm *ForeignKeyManager) ValidateConstraints() []error {
	var errs []error
	for i := range fkm.constraints {
		if err := fkm.constraints[i].Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// ExportToFile writes the constraints in the format LoadForeignKeyFile
// reads, creating parent directories.
func (fkm *ForeignKeyManager) ExportToFile(path string) error {
	data, err := yaml.Marshal(&foreignKeyFile{ForeignKeys: fkm.constraints})
	if err != nil {
		return fmt.Errorf("encode foreign keys: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}
