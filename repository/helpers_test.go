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

package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/storyboard/model"
)

type fixture struct {
	db      *bun.DB
	user    *model.User
	project *model.Project
	epic    *model.Epic
	sprint  *model.Sprint
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, m := range model.All() {
		_, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{db: newTestDB(t)}

	f.user = &model.User{Username: "ann", Email: "ann@example.com"}
	f.project = &model.Project{Name: "Storyboard", Code: "SB"}
	_, err := f.db.NewInsert().Model(f.user).Exec(ctx)
	require.NoError(t, err)
	_, err = f.db.NewInsert().Model(f.project).Exec(ctx)
	require.NoError(t, err)

	f.epic = &model.Epic{ProjectID: f.project.ID, Title: "Onboarding"}
	f.sprint = &model.Sprint{ProjectID: f.project.ID, Name: "Sprint 1"}
	_, err = f.db.NewInsert().Model(f.epic).Exec(ctx)
	require.NoError(t, err)
	_, err = f.db.NewInsert().Model(f.sprint).Exec(ctx)
	require.NoError(t, err)
	return f
}

func (f *fixture) story(title string, priority model.Priority) *model.Story {
	return &model.Story{
		Title:      title,
		Status:     model.StatusTodo,
		Priority:   priority,
		EpicID:     f.epic.ID,
		SprintID:   f.sprint.ID,
		ProjectID:  f.project.ID,
		ReporterID: f.user.ID,
	}
}
