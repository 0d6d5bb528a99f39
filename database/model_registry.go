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

package database

import (
	"sort"
	"sync"
)

// ForeignKeyDeclarer is implemented by models that declare the foreign keys
// of their table.
type ForeignKeyDeclarer interface {
	ForeignKeys() []ForeignKeyConstraint
}

type registeredModel struct {
	instance interface{}
	priority int
}

var models struct {
	sync.RWMutex
	list []registeredModel
}

// RegisterModel records a bun model pointer for table creation. Tables are
// created by ascending priority, then in registration order.
func RegisterModel(instance interface{}, priority int) {
	models.Lock()
	defer models.Unlock()
	models.list = append(models.list, registeredModel{instance: instance, priority: priority})
}

// RegisteredModels returns the model pointers in table creation order.
func RegisteredModels() []interface{} {
	models.RLock()
	sorted := append([]registeredModel(nil), models.list...)
	models.RUnlock()

	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].priority < sorted[j].priority })
	out := make([]interface{}, len(sorted))
	for i, m := range sorted {
		out[i] = m.instance
	}
	return out
}

// RegisteredForeignKeys collects the constraints declared by registered models.
func RegisteredForeignKeys() []ForeignKeyConstraint {
	var constraints []ForeignKeyConstraint
	for _, instance := range RegisteredModels() {
		if declarer, ok := instance.(ForeignKeyDeclarer); ok {
			constraints = append(constraints, declarer.ForeignKeys()...)
		}
	}
	return constraints
}
