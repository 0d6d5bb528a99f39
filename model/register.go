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
	"sync"

	"github.com/tomoncle/storyboard/database"
)

var registerOnce sync.Once

// Table creation order: referenced tables first.
const (
	priorityUsers    = 10
	priorityProjects = 10
	priorityEpics    = 20
	prioritySprints  = 20
	priorityStories  = 30
)

// Register adds every storyboard model to the database model registry so
// migrations create their tables. It is safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		database.RegisterModel((*User)(nil), priorityUsers)
		database.RegisterModel((*Project)(nil), priorityProjects)
		database.RegisterModel((*Epic)(nil), priorityEpics)
		database.RegisterModel((*Sprint)(nil), prioritySprints)
		database.RegisterModel((*Story)(nil), priorityStories)
	})
}

// All returns one nil instance per model, in creation order.
func All() []interface{} {
	return []interface{}{(*User)(nil), (*Project)(nil), (*Epic)(nil), (*Sprint)(nil), (*Story)(nil)}
}
