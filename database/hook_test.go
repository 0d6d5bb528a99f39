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
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// hooked shares the manager's pool under a handle carrying only hook.
func hooked(manager AbstractDatabaseManager, hook bun.QueryHook) *bun.DB {
	db := bun.NewDB(manager.GetDB().DB, sqlitedialect.New())
	db.AddQueryHook(hook)
	return db
}

func TestQueryHookPrintsFailuresOnly(t *testing.T) {
	manager := memoryManager(t)
	ctx := context.Background()
	require.NoError(t, manager.RunMigrations(ctx, DataMigrateConfig{}))

	var out bytes.Buffer
	db := hooked(manager, NewQueryHook("STORYBOARD_TEST_QUERY_LOG", &out))

	_, err := db.NewInsert().Model(&widget{Name: "ok"}).Exec(ctx)
	require.NoError(t, err)
	assert.Empty(t, out.String())

	_, err = db.ExecContext(ctx, "SELECT * FROM missing_table")
	require.Error(t, err)
	assert.Contains(t, out.String(), "missing_table")
}

func TestQueryHookVerboseFromEnv(t *testing.T) {
	manager := memoryManager(t)
	t.Setenv("STORYBOARD_TEST_QUERY_LOG", "2")

	var out bytes.Buffer
	db := hooked(manager, NewQueryHook("STORYBOARD_TEST_QUERY_LOG", &out))
	_, err := db.ExecContext(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "SELECT 1")
}
