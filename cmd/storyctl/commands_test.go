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
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/storyboard"
	"github.com/tomoncle/storyboard/database"
	"github.com/tomoncle/storyboard/dto"
	"github.com/tomoncle/storyboard/model"
	"github.com/tomoncle/storyboard/utils"
)

// run executes storyctl with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	t.Setenv("STORYBOARD_DATABASE_CONNECTION_DBNAME", filepath.Join(t.TempDir(), "board.db"))
	t.Setenv("STORYBOARD_LOG_LEVEL", "error")
	t.Setenv("STORYBOARD_DATABASE_CONNECTION_HEALTH_CHECK_INTERVAL", "1h")

	out, err := run(t, "seed", "-o", "json")
	require.NoError(t, err)
	var seeded storyboard.Seeded
	require.NoError(t, json.Unmarshal([]byte(out), &seeded))
	require.NotZero(t, seeded.Epic.ID)

	out, err = run(t, "story", "create", "-o", "json",
		"--title", "Card drag and drop",
		"--priority", "high",
		"--points", "5",
		"--epic", idArg(seeded.Epic.ID),
		"--sprint", idArg(seeded.Sprint.ID),
		"--project", idArg(seeded.Project.ID),
		"--reporter", idArg(seeded.Reporter.ID),
	)
	require.NoError(t, err)
	var created dto.StoryDTO
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.NotNil(t, created.ID)
	assert.Equal(t, model.PriorityHigh, created.Priority)
	assert.Equal(t, model.StatusTodo, created.Status)
	require.NotNil(t, created.StoryPoints)
	assert.Equal(t, 5, *created.StoryPoints)
	assert.Nil(t, created.AssigneeID)

	out, err = run(t, "story", "get", idArg(*created.ID), "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Card drag and drop")

	out, err = run(t, "story", "search", "--title", "DRAG", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total": 1`)

	_, err = run(t, "story", "delete", "999", "-o", "table")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))

	_, err = run(t, "story", "get", "abc", "-o", "table")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Equal(t, 1, exitCode(err))
}

func TestJSONOutputKeepsStdoutClean(t *testing.T) {
	t.Setenv("STORYBOARD_DATABASE_CONNECTION_DBNAME", filepath.Join(t.TempDir(), "board.db"))
	t.Setenv("STORYBOARD_LOG_LEVEL", "debug")
	t.Setenv("STORYBOARD_DATABASE_CONNECTION_HEALTH_CHECK_INTERVAL", "1h")

	var logs bytes.Buffer
	rootCmd.SetErr(&logs)
	t.Cleanup(func() {
		rootCmd.SetErr(nil)
		utils.SetConsoleOutput(os.Stdout)
	})

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	leaked := make(chan []byte)
	go func() {
		b, _ := io.ReadAll(r)
		leaked <- b
	}()

	out, runErr := run(t, "seed", "-o", "json")
	os.Stdout = stdout
	require.NoError(t, w.Close())
	require.NoError(t, runErr)

	assert.Empty(t, string(<-leaked))
	assert.True(t, json.Valid([]byte(out)), out)
	assert.Contains(t, logs.String(), "storyboard ready")
}

func TestForeignKeysExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fk", "foreign_keys.yaml")

	out, err := run(t, "foreign-keys", "export", path)
	require.NoError(t, err)
	assert.Contains(t, out, "7 foreign keys")

	constraints, err := database.LoadForeignKeyFile(path)
	require.NoError(t, err)
	require.Len(t, constraints, 7)
	assert.Equal(t, "epics", constraints[0].Table)
	assert.Equal(t, "stories", constraints[6].Table)

	t.Setenv("STORYBOARD_DATABASE_MIGRATE_FOREIGN_KEY_FILE", path)
	out, err = run(t, "foreign-keys", "list", "-o", "json", "--table", "sprints")
	require.NoError(t, err)
	var listed []database.ForeignKeyConstraint
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "project_id", listed[0].Column)
}

func idArg(id int64) string {
	return strconv.FormatInt(id, 10)
}
