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
	"time"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/tomoncle/storyboard/dto"
	"github.com/tomoncle/storyboard/metrics"
	"github.com/tomoncle/storyboard/model"
	"github.com/tomoncle/storyboard/repository"
	"github.com/tomoncle/storyboard/types"
	"github.com/tomoncle/storyboard/utils"
)

const (
	opCreate        = "create_story"
	opGet           = "get_story"
	opGetAll        = "get_all_stories"
	opGetAllPage    = "get_all_stories_page"
	opByEpic        = "get_stories_by_epic"
	opByProject     = "get_stories_by_project"
	opByStatus      = "get_stories_by_status"
	opByAssignee    = "get_stories_by_assignee"
	opBySprint      = "get_stories_by_sprint"
	opUpdate        = "update_story"
	opDelete        = "delete_story"
	opSearch        = "search_stories"
	storyLoggerName = "STORY"
)

// StorySearchCriteria narrows SearchStories. Nil fields do not constrain;
// set fields combine with AND.
type StorySearchCriteria struct {
	Title     *string
	Priority  *model.Priority
	EpicID    *int64
	ProjectID *int64
	SprintID  *int64
}

func (c StorySearchCriteria) filter() repository.StoryFilter {
	return repository.StoryFilter{
		Title:     c.Title,
		Priority:  c.Priority,
		EpicID:    c.EpicID,
		ProjectID: c.ProjectID,
		SprintID:  c.SprintID,
	}
}

// StoryServiceConfig holds the collaborators of a StoryService. Only
// Transactor is required.
type StoryServiceConfig struct {
	Transactor repository.Transactor
	Logger     logrus.FieldLogger
	Metrics    metrics.Recorder
}

// StoryService implements the story operations.
type StoryService struct {
	tx      repository.Transactor
	logger  logrus.FieldLogger
	metrics metrics.Recorder
}

// NewStoryService returns a service using cfg.
func NewStoryService(cfg StoryServiceConfig) *StoryService {
	if cfg.Logger == nil {
		cfg.Logger = utils.NewLogger(storyLoggerName)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NopRecorder{}
	}
	return &StoryService{tx: cfg.Transactor, logger: cfg.Logger, metrics: cfg.Metrics}
}

// CreateStory resolves every reference of in, then persists a new story.
// A missing reference, or a nil required one, fails with NotFoundError and
// nothing is written.
func (s *StoryService) CreateStory(ctx context.Context, in *dto.StoryDTO) (out *dto.StoryDTO, err error) {
	defer s.track(opCreate, time.Now(), &err)
	if in == nil {
		return nil, errors.NotValidf("nil story")
	}

	err = s.tx.ReadWrite(ctx, func(ctx context.Context, stores *repository.Stores) error {
		epic, err := lookup(ctx, stores.Epics, KindEpic, in.EpicID)
		if err != nil {
			return err
		}
		sprint, err := lookup(ctx, stores.Sprints, KindSprint, in.SprintID)
		if err != nil {
			return err
		}
		project, err := lookup(ctx, stores.Projects, KindProject, in.ProjectID)
		if err != nil {
			return err
		}
		reporter, err := lookup(ctx, stores.Users, KindReporter, in.ReporterID)
		if err != nil {
			return err
		}
		var assignee *model.User
		if in.AssigneeID != nil {
			if assignee, err = lookup(ctx, stores.Users, KindAssignee, in.AssigneeID); err != nil {
				return err
			}
		}

		story := in.NewStory()
		story.LinkEpic(epic)
		story.LinkSprint(sprint)
		story.LinkProject(project)
		story.LinkReporter(reporter)
		story.Assign(assignee)
		if err := stores.Stories.Create(ctx, story); err != nil {
			return err
		}
		out = dto.FromStory(story)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetStoryByID returns the story with id.
func (s *StoryService) GetStoryByID(ctx context.Context, id int64) (out *dto.StoryDTO, err error) {
	defer s.track(opGet, time.Now(), &err)
	err = s.tx.ReadOnly(ctx, func(ctx context.Context, stores *repository.Stores) error {
		story, err := requireStory(ctx, stores, id)
		if err != nil {
			return err
		}
		out = dto.FromStory(story)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetAllStories returns every story in primary-key order.
func (s *StoryService) GetAllStories(ctx context.Context) (out []*dto.StoryDTO, err error) {
	defer s.track(opGetAll, time.Now(), &err)
	err = s.tx.ReadOnly(ctx, func(ctx context.Context, stores *repository.Stores) error {
		stories, err := stores.Stories.FindAll(ctx)
		if err != nil {
			return err
		}
		out = dto.FromStories(stories)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetAllStoriesPage returns one page of stories.
func (s *StoryService) GetAllStoriesPage(ctx context.Context, page *types.PageRequest) (out *types.Pagination[dto.StoryDTO], err error) {
	defer s.track(opGetAllPage, time.Now(), &err)
	err = s.tx.ReadOnly(ctx, func(ctx context.Context, stores *repository.Stores) error {
		stories, err := stores.Stories.Page(ctx, page)
		if err != nil {
			return err
		}
		out = types.MapPagination(stories, dto.FromStory)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetStoriesByEpic lists the stories of an epic. An unknown epic yields an
// empty list.
func (s *StoryService) GetStoriesByEpic(ctx context.Context, epicID int64) ([]*dto.StoryDTO, error) {
	return s.list(ctx, opByEpic, func(ctx context.Context, stories repository.StoryRepository) ([]*model.Story, error) {
		return stories.FindByEpicID(ctx, epicID)
	})
}

// GetStoriesByProjectID lists the stories of a project.
func (s *StoryService) GetStoriesByProjectID(ctx context.Context, projectID int64) ([]*dto.StoryDTO, error) {
	return s.list(ctx, opByProject, func(ctx context.Context, stories repository.StoryRepository) ([]*model.Story, error) {
		return stories.FindByProjectID(ctx, projectID)
	})
}

// GetStoriesByStatus lists the stories with status.
func (s *StoryService) GetStoriesByStatus(ctx context.Context, status model.StoryStatus) ([]*dto.StoryDTO, error) {
	return s.list(ctx, opByStatus, func(ctx context.Context, stories repository.StoryRepository) ([]*model.Story, error) {
		return stories.FindByStatus(ctx, status)
	})
}

// GetStoriesByAssignee lists the stories assigned to a user.
func (s *StoryService) GetStoriesByAssignee(ctx context.Context, assigneeID int64) ([]*dto.StoryDTO, error) {
	return s.list(ctx, opByAssignee, func(ctx context.Context, stories repository.StoryRepository) ([]*model.Story, error) {
		return stories.FindByAssigneeID(ctx, assigneeID)
	})
}

// GetStoriesBySprint lists the stories of a sprint.
func (s *StoryService) GetStoriesBySprint(ctx context.Context, sprintID int64) ([]*dto.StoryDTO, error) {
	return s.list(ctx, opBySprint, func(ctx context.Context, stories repository.StoryRepository) ([]*model.Story, error) {
		return stories.FindBySprintID(ctx, sprintID)
	})
}

func (s *StoryService) list(
	ctx context.Context,
	op string,
	find func(context.Context, repository.StoryRepository) ([]*model.Story, error),
) (out []*dto.StoryDTO, err error) {
	defer s.track(op, time.Now(), &err)
	err = s.tx.ReadOnly(ctx, func(ctx context.Context, stores *repository.Stores) error {
		stories, err := find(ctx, stores.Stories)
		if err != nil {
			return err
		}
		out = dto.FromStories(stories)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStory overwrites the attributes of story id with in. Epic, sprint
// and project are looked up only when in names a different one. A non-nil
// assignee is always looked up and a nil one unassigns the story. The
// reporter never changes.
func (s *StoryService) UpdateStory(ctx context.Context, id int64, in *dto.StoryDTO) (out *dto.StoryDTO, err error) {
	defer s.track(opUpdate, time.Now(), &err)
	if in == nil {
		return nil, errors.NotValidf("nil story")
	}

	err = s.tx.ReadWrite(ctx, func(ctx context.Context, stores *repository.Stores) error {
		story, err := requireStory(ctx, stores, id)
		if err != nil {
			return err
		}

		var (
			epic     *model.Epic
			sprint   *model.Sprint
			project  *model.Project
			assignee *model.User
		)
		if changed(in.EpicID, story.EpicID) {
			if epic, err = lookup(ctx, stores.Epics, KindEpic, in.EpicID); err != nil {
				return err
			}
		}
		if changed(in.SprintID, story.SprintID) {
			if sprint, err = lookup(ctx, stores.Sprints, KindSprint, in.SprintID); err != nil {
				return err
			}
		}
		if changed(in.ProjectID, story.ProjectID) {
			if project, err = lookup(ctx, stores.Projects, KindProject, in.ProjectID); err != nil {
				return err
			}
		}
		if in.AssigneeID != nil {
			if assignee, err = lookup(ctx, stores.Users, KindAssignee, in.AssigneeID); err != nil {
				return err
			}
		}

		in.ApplyTo(story)
		if epic != nil {
			story.LinkEpic(epic)
		}
		if sprint != nil {
			story.LinkSprint(sprint)
		}
		if project != nil {
			story.LinkProject(project)
		}
		story.Assign(assignee)

		if err := stores.Stories.Update(ctx, story); err != nil {
			return err
		}
		out = dto.FromStory(story)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteStory removes story id. Nothing referencing it is touched.
func (s *StoryService) DeleteStory(ctx context.Context, id int64) (err error) {
	defer s.track(opDelete, time.Now(), &err)
	return s.tx.ReadWrite(ctx, func(ctx context.Context, stores *repository.Stores) error {
		exists, err := stores.Stories.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return notFound(KindStory, id)
		}
		return stores.Stories.DeleteByID(ctx, id)
	})
}

// SearchStories returns one page of stories matching criteria.
func (s *StoryService) SearchStories(ctx context.Context, criteria StorySearchCriteria, page *types.PageRequest) (out *types.Pagination[dto.StoryDTO], err error) {
	defer s.track(opSearch, time.Now(), &err)
	err = s.tx.ReadOnly(ctx, func(ctx context.Context, stores *repository.Stores) error {
		stories, err := stores.Stories.Search(ctx, criteria.filter(), page)
		if err != nil {
			return err
		}
		out = types.MapPagination(stories, dto.FromStory)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *StoryService) track(op string, start time.Time, errp *error) {
	duration := time.Since(start)
	outcome := metrics.OutcomeOK
	log := s.logger.WithFields(logrus.Fields{"operation": op, "duration": duration})

	switch err := *errp; {
	case err == nil:
		log.Debug("story operation completed")
	case IsNotFound(err):
		outcome = metrics.OutcomeNotFound
		log.WithError(err).Info("story operation found no entity")
	default:
		outcome = metrics.OutcomeError
		log.WithError(err).Error("story operation failed")
	}
	s.metrics.ObserveOperation(op, outcome, duration)
}

func requireStory(ctx context.Context, stores *repository.Stores, id int64) (*model.Story, error) {
	return lookup[model.Story](ctx, stores.Stories, KindStory, &id)
}

// lookup resolves a reference. A nil id is reported as missing id 0
// without touching the store.
func lookup[T any](ctx context.Context, repo repository.LookupRepository[T], kind string, id *int64) (*T, error) {
	if id == nil {
		return nil, notFound(kind, 0)
	}
	entity, err := repo.FindByID(ctx, *id)
	if err != nil {
		return nil, errors.Annotatef(err, "load %s %d", kind, *id)
	}
	if entity == nil {
		return nil, notFound(kind, *id)
	}
	return entity, nil
}

func changed(in *int64, current int64) bool {
	return in != nil && (current == 0 || *in != current)
}
