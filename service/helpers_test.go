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

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/storyboard/dto"
	"github.com/tomoncle/storyboard/model"
	"github.com/tomoncle/storyboard/repository"
)

type env struct {
	db       *bun.DB
	svc      *StoryService
	logs     *test.Hook
	metrics  *recordedMetrics
	reporter *model.User
	assignee *model.User
	project  *model.Project
	epic     *model.Epic
	epic2    *model.Epic
	sprint   *model.Sprint
}

type observation struct {
	operation string
	outcome   string
}

type recordedMetrics struct {
	observations []observation
}

func (r *recordedMetrics) ObserveOperation(operation, outcome string, _ time.Duration) {
	r.observations = append(r.observations, observation{operation, outcome})
}

func (r *recordedMetrics) last() observation {
	return r.observations[len(r.observations)-1]
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	for _, m := range model.All() {
		_, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	e := &env{db: db, metrics: &recordedMetrics{}}
	e.reporter = &model.User{Username: "reporter"}
	e.assignee = &model.User{Username: "assignee"}
	e.project = &model.Project{Name: "Storyboard", Code: "SB"}
	insert(t, db, e.reporter, e.assignee, e.project)
	e.epic = &model.Epic{ProjectID: e.project.ID, Title: "Onboarding"}
	e.epic2 = &model.Epic{ProjectID: e.project.ID, Title: "Billing"}
	e.sprint = &model.Sprint{ProjectID: e.project.ID, Name: "Sprint 1"}
	insert(t, db, e.epic, e.epic2, e.sprint)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	e.logs = hook
	e.svc = NewStoryService(StoryServiceConfig{
		Transactor: repository.NewTransactor(db, logger),
		Logger:     logger,
		Metrics:    e.metrics,
	})
	return e
}

func insert(t *testing.T, db *bun.DB, models ...interface{}) {
	t.Helper()
	for _, m := range models {
		_, err := db.NewInsert().Model(m).Exec(context.Background())
		require.NoError(t, err)
	}
}

func (e *env) input(title string) *dto.StoryDTO {
	return &dto.StoryDTO{
		Title:              title,
		Description:        "As a user I want " + title,
		Status:             model.StatusTodo,
		Priority:           model.PriorityMedium,
		StoryPoints:        dto.Int(3),
		AcceptanceCriteria: "works",
		EpicID:             dto.Int64(e.epic.ID),
		SprintID:           dto.Int64(e.sprint.ID),
		ProjectID:          dto.Int64(e.project.ID),
		ReporterID:         dto.Int64(e.reporter.ID),
	}
}

func (e *env) storyCount(t *testing.T) int {
	t.Helper()
	n, err := e.db.NewSelect().Model((*model.Story)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}
