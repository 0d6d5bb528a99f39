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
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   bool
		kind SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"no rows", fmt.Errorf("find: %w", sql.ErrNoRows), true, NoRowsErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true, DuplicateKeyErr},
		{"mysql fk", &mysql.MySQLError{Number: 1452}, true, ForeignKeyViolationErr},
		{"mysql other", &mysql.MySQLError{Number: 9999}, true, UnknownErr},
		{"postgres unique", &pq.Error{Code: "23505"}, true, DuplicateKeyErr},
		{"postgres fk wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23503"}), true, ForeignKeyViolationErr},
		{"sqlite unique", fmt.Errorf("constraint failed: UNIQUE constraint failed: projects.code"), true, DuplicateKeyErr},
		{"sqlite no table", fmt.Errorf("SQL logic error: no such table: stories"), true, NoTableErr},
		{"sqlite not null", fmt.Errorf("NOT NULL constraint failed: stories.title"), true, NotNullViolationErr},
		{"plain", fmt.Errorf("boom"), false, UnknownErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is, kind := IsSqlError(tt.err)
			assert.Equal(t, tt.is, is)
			assert.Equal(t, tt.kind, kind, "got %s", kind)
		})
	}
}

func TestSQLErrorString(t *testing.T) {
	assert.Equal(t, "duplicate_key", DuplicateKeyErr.String())
	assert.Equal(t, "unknown", SQLError(999).String())
}
