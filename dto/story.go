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
	"time"

	"github.com/tomoncle/storyboard/model"
)

// StoryDTO is the transfer shape of a story. References are plain nullable
// identifiers.
type StoryDTO struct {
	ID                 *int64            `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Status             model.StoryStatus `json:"status"`
	Priority           model.Priority    `json:"priority"`
	StoryPoints        *int              `json:"storyPoints"`
	AcceptanceCriteria string            `json:"acceptanceCriteria"`
	EpicID             *int64            `json:"epicId"`
	SprintID           *int64            `json:"sprintId"`
	ProjectID          *int64            `json:"projectId"`
	ReporterID         *int64            `json:"reporterId"`
	AssigneeID         *int64            `json:"assigneeId"`
	CreatedAt          *time.Time        `json:"createdAt,omitempty"`
	UpdatedAt          *time.Time        `json:"updatedAt,omitempty"`
}

// FromStory translates an entity. A nil story yields nil; unset references
// translate to nil identifiers.
func FromStory(s *model.Story) *StoryDTO {
	if s == nil {
		return nil
	}
	d := &StoryDTO{
		ID:                 idOrNil(s.ID),
		Title:              s.Title,
		Description:        s.Description,
		Status:             s.Status,
		Priority:           s.Priority,
		StoryPoints:        copyInt(s.StoryPoints),
		AcceptanceCriteria: s.AcceptanceCriteria,
		EpicID:             idOrNil(s.EpicID),
		SprintID:           idOrNil(s.SprintID),
		ProjectID:          idOrNil(s.ProjectID),
		ReporterID:         idOrNil(s.ReporterID),
		CreatedAt:          timeOrNil(s.CreatedAt),
		UpdatedAt:          timeOrNil(s.UpdatedAt),
	}
	if id, ok := s.Assignee(); ok {
		d.AssigneeID = &id
	}
	return d
}

// FromStories translates a slice, always returning a non-nil result.
func FromStories(stories []*model.Story) []*StoryDTO {
	out := make([]*StoryDTO, 0, len(stories))
	for _, s := range stories {
		out = append(out, FromStory(s))
	}
	return out
}

// ApplyTo overwrites the scalar attributes of s with the values of d.
// Zero values overwrite too; references are left to the caller.
func (d *StoryDTO) ApplyTo(s *model.Story) {
	s.Title = d.Title
	s.Description = d.Description
	s.Status = d.Status
	s.Priority = d.Priority
	s.StoryPoints = copyInt(d.StoryPoints)
	s.AcceptanceCriteria = d.AcceptanceCriteria
}

// NewStory builds an unsaved entity carrying the scalar attributes of d.
func (d *StoryDTO) NewStory() *model.Story {
	s := &model.Story{}
	d.ApplyTo(s)
	return s
}

// Int64 returns a pointer to v, for building DTOs.
func Int64(v int64) *int64 { return &v }

// Int returns a pointer to v, for building DTOs.
func Int(v int) *int { return &v }

func idOrNil(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// timeOrNil leaves timestamps the database has not assigned yet unset.
func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
