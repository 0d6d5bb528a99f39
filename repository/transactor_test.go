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
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/storyboard/model"
)

func TestReadWriteCommits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := NewTransactor(f.db, nil)

	var id int64
	err := tx.ReadWrite(ctx, func(ctx context.Context, stores *Stores) error {
		story := f.story("Committed", model.PriorityMedium)
		if err := stores.Stories.Create(ctx, story); err != nil {
			return err
		}
		id = story.ID
		return nil
	})
	require.NoError(t, err)

	err = tx.ReadOnly(ctx, func(ctx context.Context, stores *Stores) error {
		story, err := stores.Stories.FindByID(ctx, id)
		require.NotNil(t, story)
		return err
	})
	require.NoError(t, err)
}

func TestReadWriteRollsBackOnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	tx := NewTransactor(f.db, logger)

	boom := errors.New("boom")
	err := tx.ReadWrite(ctx, func(ctx context.Context, stores *Stores) error {
		require.NoError(t, stores.Stories.Create(ctx, f.story("Rolled back", model.PriorityLow)))
		return boom
	})
	assert.Equal(t, boom, err)

	all, err := NewStoryRepository(f.db).FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "transaction rolled back", hook.LastEntry().Message)
	assert.NotEmpty(t, hook.LastEntry().Data["tx_id"])
}

func TestReadWriteRollsBackOnPanic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := NewTransactor(f.db, nil)

	assert.Panics(t, func() {
		_ = tx.ReadWrite(ctx, func(ctx context.Context, stores *Stores) error {
			require.NoError(t, stores.Stories.Create(ctx, f.story("Panicked", model.PriorityLow)))
			panic("unexpected")
		})
	})

	all, err := NewStoryRepository(f.db).FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStoresShareTransaction(t *testing.T) {
	f := newFixture(t)
	tx := NewTransactor(f.db, nil)

	err := tx.ReadOnly(context.Background(), func(ctx context.Context, stores *Stores) error {
		epic, err := stores.Epics.FindByID(ctx, f.epic.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, "Onboarding", epic.Title)

		user, err := stores.Users.FindByID(ctx, f.user.ID+100)
		assert.Nil(t, user)
		return err
	})
	require.NoError(t, err)
}
