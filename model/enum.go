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
	"fmt"
	"strings"

	"github.com/tomoncle/storyboard/types"
)

// StoryStatus is the workflow tag of a story. No transitions are enforced.
type StoryStatus string

const (
	StatusTodo       StoryStatus = "TODO"
	StatusInProgress StoryStatus = "IN_PROGRESS"
	StatusInReview   StoryStatus = "IN_REVIEW"
	StatusDone       StoryStatus = "DONE"
)

var statusTable = map[StoryStatus]types.EnumEntry{
	StatusTodo:       {Number: 0, Desc: "to do"},
	StatusInProgress: {Number: 1, Desc: "in progress"},
	StatusInReview:   {Number: 2, Desc: "in review"},
	StatusDone:       {Number: 3, Desc: "done"},
}

var _ types.BaseEnum = StoryStatus("")

func (s StoryStatus) IsValid() bool {
	_, ok := statusTable[s]
	return ok
}

func (s StoryStatus) Number() int { return types.LookupEnum(statusTable, s).Number }

func (s StoryStatus) String() string { return string(s) }

func (s StoryStatus) Desc() string { return types.LookupEnum(statusTable, s).Desc }

func (s StoryStatus) Name() string {
	if !s.IsValid() {
		return types.IllegalName
	}
	return string(s)
}

// ParseStoryStatus accepts the canonical name in any case.
func ParseStoryStatus(s string) (StoryStatus, error) {
	st := StoryStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("unknown story status %q", s)
	}
	return st, nil
}

// Priority ranks stories. It is an opaque tag in this layer.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

var priorityTable = map[Priority]types.EnumEntry{
	PriorityLow:      {Number: 0, Desc: "low"},
	PriorityMedium:   {Number: 1, Desc: "medium"},
	PriorityHigh:     {Number: 2, Desc: "high"},
	PriorityCritical: {Number: 3, Desc: "critical"},
}

var _ types.BaseEnum = Priority("")

func (p Priority) IsValid() bool {
	_, ok := priorityTable[p]
	return ok
}

func (p Priority) Number() int { return types.LookupEnum(priorityTable, p).Number }

func (p Priority) String() string { return string(p) }

func (p Priority) Desc() string { return types.LookupEnum(priorityTable, p).Desc }

func (p Priority) Name() string {
	if !p.IsValid() {
		return types.IllegalName
	}
	return string(p)
}

// ParsePriority accepts the canonical name in any case.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}
