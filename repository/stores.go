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
	"github.com/uptrace/bun"

	"github.com/tomoncle/storyboard/model"
)

// Stores groups the repositories the story service works with. All of them
// share one connection or transaction.
type Stores struct {
	Stories  StoryRepository
	Epics    LookupRepository[model.Epic]
	Sprints  LookupRepository[model.Sprint]
	Projects LookupRepository[model.Project]
	Users    LookupRepository[model.User]
}

// NewStores binds every repository to db.
func NewStores(db bun.IDB) *Stores {
	return &Stores{
		Stories:  NewStoryRepository(db),
		Epics:    NewRepository[model.Epic](db),
		Sprints:  NewRepository[model.Sprint](db),
		Projects: NewRepository[model.Project](db),
		Users:    NewRepository[model.User](db),
	}
}
