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
	"strings"

	"github.com/juju/errors"
	"github.com/uptrace/bun"

	"github.com/tomoncle/storyboard/model"
	"github.com/tomoncle/storyboard/types"
)

const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

type storyRepositoryImpl struct {
	Repository[model.Story]
}

// NewStoryRepository returns the story repository bound to db.
func NewStoryRepository(db bun.IDB) StoryRepository {
	return &storyRepositoryImpl{Repository: NewRepository[model.Story](db)}
}

func (r *storyRepositoryImpl) FindByEpicID(ctx context.Context, epicID int64) ([]*model.Story, error) {
	return r.findBy(ctx, "epic_id", epicID)
}

func (r *storyRepositoryImpl) FindByProjectID(ctx context.Context, projectID int64) ([]*model.Story, error) {
	return r.findBy(ctx, "project_id", projectID)
}

func (r *storyRepositoryImpl) FindByStatus(ctx context.Context, status model.StoryStatus) ([]*model.Story, error) {
	return r.findBy(ctx, "status", status)
}

func (r *storyRepositoryImpl) FindByAssigneeID(ctx context.Context, assigneeID int64) ([]*model.Story, error) {
	return r.findBy(ctx, "assignee_id", assigneeID)
}

func (r *storyRepositoryImpl) FindBySprintID(ctx context.Context, sprintID int64) ([]*model.Story, error) {
	return r.findBy(ctx, "sprint_id", sprintID)
}

func (r *storyRepositoryImpl) findBy(ctx context.Context, column string, value interface{}) ([]*model.Story, error) {
	stories, err := r.List(ctx, types.NewQueryFilter("?TableAlias.? = ?", bun.Ident(column), value))
	return stories, errors.Annotatef(err, "by %s", column)
}

// Search pages through stories matching every non-nil field of filter.
// The title matches case-insensitively anywhere in the story title.
func (r *storyRepositoryImpl) Search(ctx context.Context, filter StoryFilter, page *types.PageRequest) (*types.Pagination[model.Story], error) {
	if page == nil {
		page = types.NewDefaultPageRequest(1, types.DefaultPageSize)
	}
	return r.Page(ctx, page.WithFilter(filter.queryFilter()))
}

func (f StoryFilter) queryFilter() *types.QueryFilter {
	var (
		clauses []string
		args    []interface{}
	)
	if f.Title != nil {
		clauses = append(clauses, "LOWER(s.title) LIKE ? ESCAPE '"+likeEscape+"'")
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(*f.Title))+"%")
	}
	if f.Priority != nil {
		clauses = append(clauses, "s.priority = ?")
		args = append(args, *f.Priority)
	}
	if f.EpicID != nil {
		clauses = append(clauses, "s.epic_id = ?")
		args = append(args, *f.EpicID)
	}
	if f.ProjectID != nil {
		clauses = append(clauses, "s.project_id = ?")
		args = append(args, *f.ProjectID)
	}
	if f.SprintID != nil {
		clauses = append(clauses, "s.sprint_id = ?")
		args = append(args, *f.SprintID)
	}
	if len(clauses) == 0 {
		return nil
	}
	return types.NewQueryFilter(strings.Join(clauses, " AND "), args...)
}
