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
	"fmt"

	"github.com/juju/errors"
)

// Kinds of entity a NotFoundError can report.
const (
	KindStory    = "Story"
	KindEpic     = "Epic"
	KindSprint   = "Sprint"
	KindProject  = "Project"
	KindReporter = "Reporter"
	KindAssignee = "Assignee"
)

// NotFoundError reports a missing entity. It matches errors.NotFound.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %d", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return errors.NotFound
}

func notFound(kind string, id int64) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err is, or wraps, a missing entity error.
func IsNotFound(err error) bool {
	return errors.Is(err, errors.NotFound)
}

// AsNotFound extracts the NotFoundError from err's chain.
func AsNotFound(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}
