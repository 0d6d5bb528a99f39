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

package main

import (
	"context"
	"strconv"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/tomoncle/storyboard"
	"github.com/tomoncle/storyboard/dto"
	"github.com/tomoncle/storyboard/model"
	"github.com/tomoncle/storyboard/service"
	"github.com/tomoncle/storyboard/types"
)

const (
	ArgTitle       = "title"
	ArgDescription = "description"
	ArgStatus      = "status"
	ArgPriority    = "priority"
	ArgPoints      = "points"
	ArgAcceptance  = "acceptance"
	ArgEpic        = "epic"
	ArgSprint      = "sprint"
	ArgProject     = "project"
	ArgReporter    = "reporter"
	ArgAssignee    = "assignee"
	ArgPage        = "page"
	ArgPageSize    = "page-size"
	ArgOrder       = "order"
)

var storyCmd = addCommand(rootCmd, &cobra.Command{
	Use:   "story",
	Short: "Contains sub-commands for creating and querying stories.",
})

func withStoryFlags(cmd *cobra.Command) {
	cmd.Flags().String(ArgTitle, "", "Story title.")
	cmd.Flags().String(ArgDescription, "", "Story description.")
	cmd.Flags().String(ArgStatus, string(model.StatusTodo), "Status: TODO, IN_PROGRESS, IN_REVIEW or DONE.")
	cmd.Flags().String(ArgPriority, string(model.PriorityMedium), "Priority: LOW, MEDIUM, HIGH or CRITICAL.")
	cmd.Flags().Int(ArgPoints, 0, "Story point estimate. Omit for no estimate.")
	cmd.Flags().String(ArgAcceptance, "", "Acceptance criteria.")
	cmd.Flags().Int64(ArgEpic, 0, "Epic id.")
	cmd.Flags().Int64(ArgSprint, 0, "Sprint id.")
	cmd.Flags().Int64(ArgProject, 0, "Project id.")
	cmd.Flags().Int64(ArgReporter, 0, "Reporter user id.")
	cmd.Flags().Int64(ArgAssignee, 0, "Assignee user id. Omit for an unassigned story.")
}

func withPageFlags(cmd *cobra.Command) {
	cmd.Flags().Int(ArgPage, 1, "Page number, starting at 1.")
	cmd.Flags().Int(ArgPageSize, types.DefaultPageSize, "Items per page, capped at "+strconv.Itoa(types.MaxPageSize)+".")
	cmd.Flags().StringSlice(ArgOrder, nil, "Sort orders such as \"title DESC\".")
}

// optionalInt64 returns the flag value when it was set on the command line.
func optionalInt64(cmd *cobra.Command, name string) *int64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt64(name)
	return &v
}

func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

// storyInput builds a DTO from the story flags.
func storyInput(cmd *cobra.Command) (*dto.StoryDTO, error) {
	flags := cmd.Flags()
	status, err := model.ParseStoryStatus(mustString(flags.GetString(ArgStatus)))
	if err != nil {
		return nil, errors.NewNotValid(err, "--"+ArgStatus)
	}
	priority, err := model.ParsePriority(mustString(flags.GetString(ArgPriority)))
	if err != nil {
		return nil, errors.NewNotValid(err, "--"+ArgPriority)
	}
	in := &dto.StoryDTO{
		Title:              mustString(flags.GetString(ArgTitle)),
		Description:        mustString(flags.GetString(ArgDescription)),
		Status:             status,
		Priority:           priority,
		AcceptanceCriteria: mustString(flags.GetString(ArgAcceptance)),
		EpicID:             optionalInt64(cmd, ArgEpic),
		SprintID:           optionalInt64(cmd, ArgSprint),
		ProjectID:          optionalInt64(cmd, ArgProject),
		ReporterID:         optionalInt64(cmd, ArgReporter),
		AssigneeID:         optionalInt64(cmd, ArgAssignee),
	}
	if flags.Changed(ArgPoints) {
		points, _ := flags.GetInt(ArgPoints)
		in.StoryPoints = &points
	}
	return in, nil
}

func pageRequest(cmd *cobra.Command) *types.PageRequest {
	page, _ := cmd.Flags().GetInt(ArgPage)
	size, _ := cmd.Flags().GetInt(ArgPageSize)
	orders, _ := cmd.Flags().GetStringSlice(ArgOrder)
	return types.NewPageRequestWithOrders(page, size, orders)
}

func mustString(s string, _ error) string { return s }

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NotValidf("story id %q", arg)
	}
	return id, nil
}

var storyCreateCmd = addCommand(storyCmd, &cobra.Command{
	Use:   "create",
	Short: "Creates a story. --epic, --sprint, --project and --reporter are required.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := storyInput(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *storyboard.App, out *printer) error {
			created, err := app.Stories.CreateStory(ctx, in)
			if err != nil {
				return err
			}
			return out.story(created)
		})
	},
}, withStoryFlags)

var storyGetCmd = addCommand(storyCmd, &cobra.Command{
	Use:   "get {id}",
	Short: "Prints a story.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *storyboard.App, out *printer) error {
			story, err := app.Stories.GetStoryByID(ctx, id)
			if err != nil {
				return err
			}
			return out.story(story)
		})
	},
})

var storyListCmd = addCommand(storyCmd, &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Lists stories, optionally those of one epic, project, sprint, assignee or status.",
	Long: "Lists stories. At most one of --epic, --project, --sprint, --assignee and --status " +
		"may be given. Without a filter, --page selects a page of all stories.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lister, err := storyLister(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *storyboard.App, out *printer) error {
			return lister(ctx, app.Stories, out)
		})
	},
}, func(cmd *cobra.Command) {
	cmd.Flags().Int64(ArgEpic, 0, "Only stories of this epic.")
	cmd.Flags().Int64(ArgProject, 0, "Only stories of this project.")
	cmd.Flags().Int64(ArgSprint, 0, "Only stories of this sprint.")
	cmd.Flags().Int64(ArgAssignee, 0, "Only stories assigned to this user.")
	cmd.Flags().String(ArgStatus, "", "Only stories with this status.")
}, withPageFlags)

var listByID = map[string]func(*service.StoryService, context.Context, int64) ([]*dto.StoryDTO, error){
	ArgEpic:     (*service.StoryService).GetStoriesByEpic,
	ArgProject:  (*service.StoryService).GetStoriesByProjectID,
	ArgSprint:   (*service.StoryService).GetStoriesBySprint,
	ArgAssignee: (*service.StoryService).GetStoriesByAssignee,
}

type listFunc func(ctx context.Context, stories *service.StoryService, out *printer) error

// storyLister picks the service query matching the flags of the list command.
func storyLister(cmd *cobra.Command) (listFunc, error) {
	var chosen []string
	for _, name := range []string{ArgEpic, ArgProject, ArgSprint, ArgAssignee, ArgStatus} {
		if cmd.Flags().Changed(name) {
			chosen = append(chosen, name)
		}
	}
	if len(chosen) > 1 {
		return nil, errors.NotValidf("more than one list filter %v", chosen)
	}

	switch {
	case len(chosen) == 0 && (cmd.Flags().Changed(ArgPage) || cmd.Flags().Changed(ArgPageSize) || cmd.Flags().Changed(ArgOrder)):
		page := pageRequest(cmd)
		return func(ctx context.Context, stories *service.StoryService, out *printer) error {
			result, err := stories.GetAllStoriesPage(ctx, page)
			if err != nil {
				return err
			}
			return out.page(result)
		}, nil
	case len(chosen) == 0:
		return func(ctx context.Context, stories *service.StoryService, out *printer) error {
			all, err := stories.GetAllStories(ctx)
			if err != nil {
				return err
			}
			return out.stories(all)
		}, nil
	case chosen[0] == ArgStatus:
		status, err := model.ParseStoryStatus(mustString(cmd.Flags().GetString(ArgStatus)))
		if err != nil {
			return nil, errors.NewNotValid(err, "--"+ArgStatus)
		}
		return func(ctx context.Context, stories *service.StoryService, out *printer) error {
			found, err := stories.GetStoriesByStatus(ctx, status)
			if err != nil {
				return err
			}
			return out.stories(found)
		}, nil
	default:
		key, _ := cmd.Flags().GetInt64(chosen[0])
		query := listByID[chosen[0]]
		return func(ctx context.Context, stories *service.StoryService, out *printer) error {
			found, err := query(stories, ctx, key)
			if err != nil {
				return err
			}
			return out.stories(found)
		}, nil
	}
}

var storyUpdateCmd = addCommand(storyCmd, &cobra.Command{
	Use:   "update {id}",
	Short: "Replaces the attributes of a story.",
	Long: "Replaces every scalar attribute of a story with the given flags; omitted flags reset " +
		"the attribute. --epic, --sprint and --project relink only when given. The assignee is " +
		"cleared unless --assignee is given. The reporter never changes.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		in, err := storyInput(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *storyboard.App, out *printer) error {
			updated, err := app.Stories.UpdateStory(ctx, id, in)
			if err != nil {
				return err
			}
			return out.story(updated)
		})
	},
}, withStoryFlags)

var storyDeleteCmd = addCommand(storyCmd, &cobra.Command{
	Use:     "delete {id}",
	Aliases: []string{"rm"},
	Short:   "Deletes a story.",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *storyboard.App, out *printer) error {
			if err := app.Stories.DeleteStory(ctx, id); err != nil {
				return err
			}
			return out.deleted(id)
		})
	},
})

var storySearchCmd = addCommand(storyCmd, &cobra.Command{
	Use:   "search",
	Short: "Searches stories by title substring, priority, epic, project and sprint.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		criteria, err := searchCriteria(cmd)
		if err != nil {
			return err
		}
		page := pageRequest(cmd)
		return withApp(cmd, func(ctx context.Context, app *storyboard.App, out *printer) error {
			result, err := app.Stories.SearchStories(ctx, criteria, page)
			if err != nil {
				return err
			}
			return out.page(result)
		})
	},
}, func(cmd *cobra.Command) {
	cmd.Flags().String(ArgTitle, "", "Case-insensitive title substring.")
	cmd.Flags().String(ArgPriority, "", "Priority.")
	cmd.Flags().Int64(ArgEpic, 0, "Epic id.")
	cmd.Flags().Int64(ArgProject, 0, "Project id.")
	cmd.Flags().Int64(ArgSprint, 0, "Sprint id.")
}, withPageFlags)

func searchCriteria(cmd *cobra.Command) (service.StorySearchCriteria, error) {
	criteria := service.StorySearchCriteria{
		Title:     optionalString(cmd, ArgTitle),
		EpicID:    optionalInt64(cmd, ArgEpic),
		ProjectID: optionalInt64(cmd, ArgProject),
		SprintID:  optionalInt64(cmd, ArgSprint),
	}
	if raw := optionalString(cmd, ArgPriority); raw != nil {
		priority, err := model.ParsePriority(*raw)
		if err != nil {
			return criteria, errors.NewNotValid(err, "--"+ArgPriority)
		}
		criteria.Priority = &priority
	}
	return criteria, nil
}
