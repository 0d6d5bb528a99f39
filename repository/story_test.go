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
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/storyboard/model"
	"github.com/tomoncle/storyboard/types"
)

func TestFindByIDMissingReturnsNil(t *testing.T) {
	f := newFixture(t)
	repo := NewStoryRepository(f.db)

	story, err := repo.FindByID(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, story)

	exists, err := repo.ExistsByID(context.Background(), 404)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateAndFindStory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewStoryRepository(f.db)

	points := 5
	story := f.story("Sign up", model.PriorityHigh)
	story.StoryPoints = &points
	story.Assign(f.user)
	require.NoError(t, repo.Create(ctx, story))
	require.NotZero(t, story.ID)

	found, err := repo.FindByID(ctx, story.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Sign up", found.Title)
	assert.Equal(t, model.PriorityHigh, found.Priority)
	assert.Equal(t, 5, *found.StoryPoints)
	assigneeID, ok := found.Assignee()
	assert.True(t, ok)
	assert.Equal(t, f.user.ID, assigneeID)
	assert.False(t, found.CreatedAt.IsZero())
}

func TestFindersReturnEmptySlices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewStoryRepository(f.db)

	byEpic, err := repo.FindByEpicID(ctx, f.epic.ID)
	require.NoError(t, err)
	assert.NotNil(t, byEpic)
	assert.Empty(t, byEpic)

	byAssignee, err := repo.FindByAssigneeID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.NotNil(t, byAssignee)
	assert.Empty(t, byAssignee)
}

func TestFindersFilterByColumn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewStoryRepository(f.db)

	first := f.story("First", model.PriorityLow)
	second := f.story("Second", model.PriorityLow)
	second.Status = model.StatusDone
	second.Assign(f.user)
	require.NoError(t, repo.Create(ctx, first, second))

	byEpic, err := repo.FindByEpicID(ctx, f.epic.ID)
	require.NoError(t, err)
	require.Len(t, byEpic, 2)
	assert.Equal(t, "First", byEpic[0].Title)

	byStatus, err := repo.FindByStatus(ctx, model.StatusDone)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Second", byStatus[0].Title)

	byAssignee, err := repo.FindByAssigneeID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, byAssignee, 1)

	bySprint, err := repo.FindBySprintID(ctx, f.sprint.ID)
	require.NoError(t, err)
	assert.Len(t, bySprint, 2)

	byProject, err := repo.FindByProjectID(ctx, f.project.ID+1)
	require.NoError(t, err)
	assert.Empty(t, byProject)
}

func TestSearchStories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewStoryRepository(f.db)

	require.NoError(t, repo.Create(ctx,
		f.story("Login page", model.PriorityHigh),
		f.story("LOGIN audit", model.PriorityLow),
		f.story("Reach 100% coverage", model.PriorityHigh),
		f.story("Billing", model.PriorityHigh),
	))

	title := "login"
	page, err := repo.Search(ctx, StoryFilter{Title: &title}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	high := model.PriorityHigh
	page, err = repo.Search(ctx, StoryFilter{Title: &title, Priority: &high}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "Login page", page.Items[0].Title)

	percent := "100%"
	page, err = repo.Search(ctx, StoryFilter{Title: &percent}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "Reach 100% coverage", page.Items[0].Title)

	wildcard := "%"
	page, err = repo.Search(ctx, StoryFilter{Title: &wildcard}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	epicID := f.epic.ID
	page, err = repo.Search(ctx, StoryFilter{EpicID: &epicID, Priority: &high},
		types.NewPageRequestWithOrders(2, 1, []string{"title DESC"}))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 3, page.TotalPages())
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Login page", page.Items[0].Title)
}

func TestPageRejectsInvalidOrder(t *testing.T) {
	f := newFixture(t)
	repo := NewStoryRepository(f.db)

	_, err := repo.Page(context.Background(), types.NewPageRequestWithOrders(1, 10, []string{"title; DROP TABLE stories"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestPageEmpty(t *testing.T) {
	f := newFixture(t)
	page, err := NewStoryRepository(f.db).Page(context.Background(), types.NewDefaultPageRequest(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestUpdateAndDeleteStory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewStoryRepository(f.db)

	story := f.story("Draft", model.PriorityLow)
	require.NoError(t, repo.Create(ctx, story))

	story.Title = "Final"
	story.Assign(nil)
	require.NoError(t, repo.Update(ctx, story))

	found, err := repo.FindByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", found.Title)

	require.NoError(t, repo.DeleteByID(ctx, story.ID))
	exists, err := repo.ExistsByID(ctx, story.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpsertUsersByUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := NewRepository[model.User](f.db)

	err := users.Upsert(ctx, []string{"email"}, []string{"username"},
		&model.User{Username: "ann", Email: "ann@corp.example"},
		&model.User{Username: "bob", Email: "bob@corp.example"},
	)
	require.NoError(t, err)

	list, err := users.List(ctx, types.NewQueryFilter("u.username = ?", "ann"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ann@corp.example", list[0].Email)

	all, err := users.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	err = users.Upsert(ctx, []string{"email = 1; --"}, nil, &model.User{Username: "x"})
	assert.True(t, errors.Is(err, errors.NotValid))
}
