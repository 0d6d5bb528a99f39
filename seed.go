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

package storyboard

import (
	"context"
	"database/sql"
	"time"

	"github.com/juju/errors"
	"github.com/uptrace/bun"

	"github.com/tomoncle/storyboard/model"
	"github.com/tomoncle/storyboard/repository"
)

// Seeded holds the reference rows written by Seed.
type Seeded struct {
	Project  *model.Project `json:"project"`
	Reporter *model.User    `json:"reporter"`
	Assignee *model.User    `json:"assignee"`
	Epic     *model.Epic    `json:"epic"`
	Sprint   *model.Sprint  `json:"sprint"`
}

// Seed writes a demo project with a reporter, an assignee, an epic and a
// sprint. Running it again reuses the existing rows.
func (a *App) Seed(ctx context.Context) (*Seeded, error) {
	seeded := &Seeded{}
	err := a.factory.GetDB().RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		project := &model.Project{Code: "DEMO", Name: "Demo project"}
		if err := repository.NewRepository[model.Project](tx).
			Upsert(ctx, []string{"name"}, []string{"code"}, project); err != nil {
			return errors.Trace(err)
		}
		seeded.Project = &model.Project{}
		if err := tx.NewSelect().Model(seeded.Project).Where("?TableAlias.code = ?", project.Code).Scan(ctx); err != nil {
			return errors.Annotate(err, "reload project")
		}

		users := []*model.User{
			{Username: "reporter", Email: "reporter@example.com", FullName: "Demo Reporter"},
			{Username: "developer", Email: "developer@example.com", FullName: "Demo Developer"},
		}
		if err := repository.NewRepository[model.User](tx).
			Upsert(ctx, []string{"email", "full_name"}, []string{"username"}, users...); err != nil {
			return errors.Trace(err)
		}
		loaded := make([]*model.User, len(users))
		for i, u := range users {
			loaded[i] = &model.User{}
			if err := tx.NewSelect().Model(loaded[i]).Where("?TableAlias.username = ?", u.Username).Scan(ctx); err != nil {
				return errors.Annotatef(err, "reload user %s", u.Username)
			}
		}
		seeded.Reporter, seeded.Assignee = loaded[0], loaded[1]

		seeded.Epic = &model.Epic{ProjectID: seeded.Project.ID, Title: "Onboarding"}
		if err := firstOrCreate(ctx, tx, seeded.Epic,
			"?TableAlias.project_id = ? AND ?TableAlias.title = ?", seeded.Epic.ProjectID, seeded.Epic.Title); err != nil {
			return err
		}

		start := time.Now().UTC().Truncate(24 * time.Hour)
		seeded.Sprint = &model.Sprint{
			ProjectID: seeded.Project.ID,
			Name:      "Sprint 1",
			Goal:      "First usable board",
			StartDate: start,
			EndDate:   start.Add(14 * 24 * time.Hour),
		}
		return firstOrCreate(ctx, tx, seeded.Sprint,
			"?TableAlias.project_id = ? AND ?TableAlias.name = ?", seeded.Sprint.ProjectID, seeded.Sprint.Name)
	})
	if err != nil {
		return nil, errors.Annotate(err, "seed reference data")
	}
	a.logger.WithField("project_id", seeded.Project.ID).Info("reference data seeded")
	return seeded, nil
}

// firstOrCreate loads the first row matching where into entity, inserting
// entity when no row matches.
func firstOrCreate[T any](ctx context.Context, db bun.IDB, entity *T, where string, args ...interface{}) error {
	err := db.NewSelect().Model(entity).Where(where, args...).Limit(1).Scan(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return errors.Annotatef(err, "find %T", entity)
	}
	return repository.NewRepository[T](db).Create(ctx, entity)
}
