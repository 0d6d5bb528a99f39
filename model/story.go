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

package model

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
)

// Story is a single unit of user-facing work. Epic, Sprint, Project and
// Reporter are mandatory; Assignee is optional.
type Story struct {
	bun.BaseModel `bun:"table:stories,alias:s"`

	ID                 int64         `bun:"id,pk,autoincrement" json:"id"`
	Title              string        `bun:"title,notnull" json:"title"`
	Description        string        `bun:"description,nullzero" json:"description"`
	Status             StoryStatus   `bun:"status,nullzero,type:varchar(32)" json:"status"`
	Priority           Priority      `bun:"priority,nullzero,type:varchar(32)" json:"priority"`
	StoryPoints        *int          `bun:"story_points" json:"storyPoints"`
	AcceptanceCriteria string        `bun:"acceptance_criteria,nullzero" json:"acceptanceCriteria"`
	EpicID             int64         `bun:"epic_id,notnull" json:"epicId"`
	SprintID           int64         `bun:"sprint_id,notnull" json:"sprintId"`
	ProjectID          int64         `bun:"project_id,notnull" json:"projectId"`
	ReporterID         int64         `bun:"reporter_id,notnull" json:"reporterId"`
	AssigneeID         sql.NullInt64 `bun:"assignee_id" json:"assigneeId"`
	CreatedAt          time.Time     `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt          time.Time     `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

var _ bun.BeforeAppendModelHook = (*Story)(nil)

// BeforeAppendModel maintains the timestamps.
func (s *Story) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		s.UpdatedAt = now
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}

// LinkEpic points the story at epic.
func (s *Story) LinkEpic(epic *Epic) { s.EpicID = epic.ID }

// LinkSprint points the story at sprint.
func (s *Story) LinkSprint(sprint *Sprint) { s.SprintID = sprint.ID }

// LinkProject points the story at project.
func (s *Story) LinkProject(project *Project) { s.ProjectID = project.ID }

// LinkReporter records the user who reported the story.
func (s *Story) LinkReporter(user *User) { s.ReporterID = user.ID }

// Assign sets the assignee, or clears it when user is nil.
func (s *Story) Assign(user *User) {
	if user == nil {
		s.AssigneeID = sql.NullInt64{}
		return
	}
	s.AssigneeID = sql.NullInt64{Int64: user.ID, Valid: true}
}

// Assignee returns the assignee id and whether one is set.
func (s *Story) Assignee() (int64, bool) {
	return s.AssigneeID.Int64, s.AssigneeID.Valid
}
