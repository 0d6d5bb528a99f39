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

import "github.com/tomoncle/storyboard/database"

var (
	_ database.ForeignKeyDeclarer = (*Story)(nil)
	_ database.ForeignKeyDeclarer = (*Epic)(nil)
	_ database.ForeignKeyDeclarer = (*Sprint)(nil)
)

func references(table, column, refTable, onDelete string) database.ForeignKeyConstraint {
	return database.ForeignKeyConstraint{
		Table:           table,
		Column:          column,
		ReferenceTable:  refTable,
		ReferenceColumn: "id",
		OnDelete:        onDelete,
		OnUpdate:        "CASCADE",
	}
}

// ForeignKeys declares the story references. Deleting an assigned user
// unassigns the story; every other referenced row is protected.
func (*Story) ForeignKeys() []database.ForeignKeyConstraint {
	return []database.ForeignKeyConstraint{
		references("stories", "epic_id", "epics", "RESTRICT"),
		references("stories", "sprint_id", "sprints", "RESTRICT"),
		references("stories", "project_id", "projects", "RESTRICT"),
		references("stories", "reporter_id", "users", "RESTRICT"),
		references("stories", "assignee_id", "users", "SET NULL"),
	}
}

func (*Epic) ForeignKeys() []database.ForeignKeyConstraint {
	return []database.ForeignKeyConstraint{references("epics", "project_id", "projects", "CASCADE")}
}

func (*Sprint) ForeignKeys() []database.ForeignKeyConstraint {
	return []database.ForeignKeyConstraint{references("sprints", "project_id", "projects", "CASCADE")}
}
