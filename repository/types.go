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

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/storyboard/model"
	"github.com/tomoncle/storyboard/types"
)

// LookupRepository resolves an entity by id. FindByID returns (nil, nil)
// when no row matches.
type LookupRepository[T any] interface {
	FindByID(ctx context.Context, id int64) (*T, error)
}

// CrudRepository defines basic CRUD operations for a generic entity type.
type CrudRepository[T any] interface {
	LookupRepository[T]

	FindAll(ctx context.Context) ([]*T, error)

	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	ExistsByID(ctx context.Context, id int64) (bool, error)

	Create(ctx context.Context, entity ...*T) error

	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error

	Update(ctx context.Context, entity *T) error

	DeleteByID(ctx context.Context, id int64) error
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines CRUD and pagination and exposes bun query builders
// bound to the same connection or transaction.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}

// StoryFilter narrows a story search. Nil fields do not constrain.
type StoryFilter struct {
	Title     *string
	Priority  *model.Priority
	EpicID    *int64
	ProjectID *int64
	SprintID  *int64
}

// StoryRepository adds the story finders to the generic repository.
type StoryRepository interface {
	Repository[model.Story]

	FindByEpicID(ctx context.Context, epicID int64) ([]*model.Story, error)
	FindByProjectID(ctx context.Context, projectID int64) ([]*model.Story, error)
	FindByStatus(ctx context.Context, status model.StoryStatus) ([]*model.Story, error)
	FindByAssigneeID(ctx context.Context, assigneeID int64) ([]*model.Story, error)
	FindBySprintID(ctx context.Context, sprintID int64) ([]*model.Story, error)
	Search(ctx context.Context, filter StoryFilter, page *types.PageRequest) (*types.Pagination[model.Story], error)
}
