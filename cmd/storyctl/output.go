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
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"

	"github.com/tomoncle/storyboard"
	"github.com/tomoncle/storyboard/database"
	"github.com/tomoncle/storyboard/dto"
	"github.com/tomoncle/storyboard/types"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

var storyHeader = []string{"ID", "Title", "Status", "Priority", "Points", "Epic", "Sprint", "Project", "Reporter", "Assignee"}

// printer renders command results as a table or as indented JSON.
type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case formatTable, formatJSON:
		return &printer{w: w, format: format}, nil
	case "":
		return &printer{w: w, format: formatTable}, nil
	default:
		return nil, errors.NotSupportedf("output format %q", format)
	}
}

func (p *printer) json(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Trace(err)
	}
	_, err = fmt.Fprintln(p.w, string(b))
	return err
}

func (p *printer) table(header []string, rows [][]string) {
	t := tablewriter.NewWriter(p.w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetReflowDuringAutoWrap(false)
	t.AppendBulk(rows)
	t.Render()
}

func (p *printer) story(s *dto.StoryDTO) error {
	if p.format == formatJSON {
		return p.json(s)
	}
	p.table(storyHeader, [][]string{storyRow(s)})
	return nil
}

func (p *printer) stories(stories []*dto.StoryDTO) error {
	if p.format == formatJSON {
		return p.json(stories)
	}
	rows := make([][]string, 0, len(stories))
	for _, s := range stories {
		rows = append(rows, storyRow(s))
	}
	p.table(storyHeader, rows)
	return nil
}

func (p *printer) page(page *types.Pagination[dto.StoryDTO]) error {
	if p.format == formatJSON {
		return p.json(struct {
			*types.Pagination[dto.StoryDTO]
			TotalPages int `json:"totalPages"`
		}{page, page.TotalPages()})
	}
	if err := p.stories(page.Items); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.w, "page %d of %d (%d stories)\n", page.Page, page.TotalPages(), page.Total)
	return err
}

func (p *printer) deleted(id int64) error {
	if p.format == formatJSON {
		return p.json(map[string]int64{"deleted": id})
	}
	_, err := fmt.Fprintf(p.w, "deleted story %d\n", id)
	return err
}

func (p *printer) migrations(applied []database.Migration) error {
	if p.format == formatJSON {
		return p.json(applied)
	}
	rows := make([][]string, 0, len(applied))
	for _, m := range applied {
		rows = append(rows, []string{m.Version, m.Name, m.AppliedAt.Format(time.RFC3339)})
	}
	p.table([]string{"Version", "Name", "Applied At"}, rows)
	return nil
}

func (p *printer) health(status *database.HealthStatus, stats *database.DBStats) error {
	if p.format == formatJSON {
		return p.json(struct {
			Health *database.HealthStatus `json:"health"`
			Stats  *database.DBStats      `json:"stats"`
		}{status, stats})
	}
	p.table([]string{"Healthy", "Response Time", "Open", "In Use", "Idle", "Max Open", "Last Error"}, [][]string{{
		strconv.FormatBool(status.Healthy),
		status.ResponseTime.String(),
		strconv.Itoa(stats.OpenConns),
		strconv.Itoa(stats.InUse),
		strconv.Itoa(stats.Idle),
		strconv.Itoa(stats.MaxOpenConns),
		status.LastError,
	}})
	return nil
}

func (p *printer) seeded(s *storyboard.Seeded) error {
	if p.format == formatJSON {
		return p.json(s)
	}
	p.table([]string{"Kind", "ID", "Name"}, [][]string{
		{"project", strconv.FormatInt(s.Project.ID, 10), s.Project.Name},
		{"reporter", strconv.FormatInt(s.Reporter.ID, 10), s.Reporter.Username},
		{"assignee", strconv.FormatInt(s.Assignee.ID, 10), s.Assignee.Username},
		{"epic", strconv.FormatInt(s.Epic.ID, 10), s.Epic.Title},
		{"sprint", strconv.FormatInt(s.Sprint.ID, 10), s.Sprint.Name},
	})
	return nil
}

func (p *printer) foreignKeys(constraints []database.ForeignKeyConstraint) error {
	if p.format == formatJSON {
		return p.json(constraints)
	}
	rows := make([][]string, 0, len(constraints))
	for i := range constraints {
		fk := &constraints[i]
		rows = append(rows, []string{
			fk.GenerateConstraintName(),
			fk.Table + "." + fk.Column,
			fk.ReferenceTable + "." + fk.ReferenceColumn,
			fk.OnDelete,
			fk.OnUpdate,
		})
	}
	p.table([]string{"Name", "Column", "References", "On Delete", "On Update"}, rows)
	return nil
}

func storyRow(s *dto.StoryDTO) []string {
	points := "-"
	if s.StoryPoints != nil {
		points = strconv.Itoa(*s.StoryPoints)
	}
	return []string{
		idString(s.ID),
		s.Title,
		s.Status.String(),
		s.Priority.String(),
		points,
		idString(s.EpicID),
		idString(s.SprintID),
		idString(s.ProjectID),
		idString(s.ReporterID),
		idString(s.AssigneeID),
	}
}

func idString(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}
