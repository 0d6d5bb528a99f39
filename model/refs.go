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
	"time"

	"github.com/uptrace/bun"
)

// Project groups epics, sprints and stories.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:p"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Code        string    `bun:"code,unique,nullzero,type:varchar(16)" json:"code"`
	Description string    `bun:"description,nullzero" json:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Epic is a large unit of work grouping stories.
type Epic struct {
	bun.BaseModel `bun:"table:epics,alias:e"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	ProjectID   int64     `bun:"project_id,notnull" json:"projectId"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description,nullzero" json:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Sprint is a fixed-duration work interval.
type Sprint struct {
	bun.BaseModel `bun:"table:sprints,alias:sp"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	ProjectID int64     `bun:"project_id,notnull" json:"projectId"`
	Name      string    `bun:"name,notnull" json:"name"`
	Goal      string    `bun:"goal,nullzero" json:"goal"`
	StartDate time.Time `bun:"start_date,nullzero" json:"startDate"`
	EndDate   time.Time `bun:"end_date,nullzero" json:"endDate"`
}

// User reports and works on stories.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Username  string    `bun:"username,notnull,unique" json:"username"`
	Email     string    `bun:"email,nullzero" json:"email"`
	FullName  string    `bun:"full_name,nullzero" json:"fullName"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

var (
	_ bun.BeforeAppendModelHook = (*Project)(nil)
	_ bun.BeforeAppendModelHook = (*Epic)(nil)
	_ bun.BeforeAppendModelHook = (*User)(nil)
)

func stampCreated(createdAt *time.Time, query bun.Query) {
	if _, ok := query.(*bun.InsertQuery); ok && createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}

func (p *Project) BeforeAppendModel(_ context.Context, query bun.Query) error {
	stampCreated(&p.CreatedAt, query)
	return nil
}

func (e *Epic) BeforeAppendModel(_ context.Context, query bun.Query) error {
	stampCreated(&e.CreatedAt, query)
	return nil
}

func (u *User) BeforeAppendModel(_ context.Context, query bun.Query) error {
	stampCreated(&u.CreatedAt, query)
	return nil
}
