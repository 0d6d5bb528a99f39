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

package dto

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/storyboard/model"
)

func TestFromStoryWithoutAssignee(t *testing.T) {
	points := 3
	s := &model.Story{
		ID:          11,
		Title:       "Burndown chart",
		Status:      model.StatusDone,
		Priority:    model.PriorityLow,
		StoryPoints: &points,
		EpicID:      1,
		SprintID:    2,
		ProjectID:   3,
		ReporterID:  4,
	}

	d := FromStory(s)
	require.NotNil(t, d)
	assert.Equal(t, int64(11), *d.ID)
	assert.Equal(t, "Burndown chart", d.Title)
	assert.Equal(t, int64(1), *d.EpicID)
	assert.Equal(t, int64(4), *d.ReporterID)
	assert.Nil(t, d.AssigneeID)

	points = 8
	assert.Equal(t, 3, *d.StoryPoints)
}

func TestFromStoryWithAssignee(t *testing.T) {
	s := &model.Story{AssigneeID: sql.NullInt64{Int64: 6, Valid: true}}
	d := FromStory(s)
	require.NotNil(t, d.AssigneeID)
	assert.Equal(t, int64(6), *d.AssigneeID)
	assert.Nil(t, d.ID)
	assert.Nil(t, d.EpicID)
}

func TestFromStoryNil(t *testing.T) {
	assert.Nil(t, FromStory(nil))
	out := FromStories(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestApplyToOverwritesScalars(t *testing.T) {
	points := 5
	s := &model.Story{
		ID:                 2,
		Title:              "old",
		Description:        "old description",
		Status:             model.StatusInReview,
		StoryPoints:        &points,
		AcceptanceCriteria: "old criteria",
		EpicID:             9,
		AssigneeID:         sql.NullInt64{Int64: 3, Valid: true},
	}

	(&StoryDTO{Title: "new", Priority: model.PriorityHigh, EpicID: Int64(1)}).ApplyTo(s)

	assert.Equal(t, "new", s.Title)
	assert.Empty(t, s.Description)
	assert.Empty(t, s.Status)
	assert.Equal(t, model.PriorityHigh, s.Priority)
	assert.Nil(t, s.StoryPoints)
	assert.Empty(t, s.AcceptanceCriteria)
	assert.Equal(t, int64(2), s.ID)
	assert.Equal(t, int64(9), s.EpicID)
	id, ok := s.Assignee()
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
}

func TestNewStoryLeavesReferencesUnset(t *testing.T) {
	s := (&StoryDTO{Title: "t", StoryPoints: Int(2), ProjectID: Int64(4)}).NewStory()
	assert.Equal(t, "t", s.Title)
	assert.Equal(t, 2, *s.StoryPoints)
	assert.Zero(t, s.ProjectID)
}

func TestJSONFieldNames(t *testing.T) {
	b, err := json.Marshal(&StoryDTO{EpicID: Int64(1), AssigneeID: Int64(2)})
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &fields))
	assert.EqualValues(t, 1, fields["epicId"])
	assert.EqualValues(t, 2, fields["assigneeId"])
	assert.Contains(t, fields, "acceptanceCriteria")
	assert.Contains(t, fields, "storyPoints")
}

func TestTimestampsOmittedUntilAssigned(t *testing.T) {
	b, err := json.Marshal(FromStory(&model.Story{Title: "unsaved"}))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "createdAt")
	assert.NotContains(t, string(b), "updatedAt")

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	d := FromStory(&model.Story{CreatedAt: created, UpdatedAt: created})
	require.NotNil(t, d.CreatedAt)
	assert.True(t, created.Equal(*d.CreatedAt))
	b, err = json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"createdAt":"2024-03-01T12:00:00Z"`)
}
