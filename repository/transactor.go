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
	"database/sql"
	"io"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// TxFunc is the body of a transaction. The stores passed in are bound to
// the transaction and must not escape it.
type TxFunc func(ctx context.Context, stores *Stores) error

// Transactor runs a unit of work in a transaction. The transaction commits
// when fn returns nil and rolls back on any error or panic.
type Transactor interface {
	ReadOnly(ctx context.Context, fn TxFunc) error
	ReadWrite(ctx context.Context, fn TxFunc) error
}

// BunTransactor is the Transactor backed by a bun database.
type BunTransactor struct {
	db     *bun.DB
	logger logrus.FieldLogger
}

var _ Transactor = (*BunTransactor)(nil)

// NewTransactor returns a transactor over db.
func NewTransactor(db *bun.DB, logger logrus.FieldLogger) *BunTransactor {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &BunTransactor{db: db, logger: logger}
}

func (t *BunTransactor) ReadOnly(ctx context.Context, fn TxFunc) error {
	return t.run(ctx, true, fn)
}

func (t *BunTransactor) ReadWrite(ctx context.Context, fn TxFunc) error {
	return t.run(ctx, false, fn)
}

func (t *BunTransactor) run(ctx context.Context, readOnly bool, fn TxFunc) error {
	log := t.logger.WithFields(logrus.Fields{"tx_id": uuid.NewString(), "read_only": readOnly})

	// SQLite drivers reject read-only transaction options.
	opts := &sql.TxOptions{ReadOnly: readOnly && t.db.Dialect().Name() != dialect.SQLite}
	tx, err := t.db.BeginTx(ctx, opts)
	if err != nil {
		return errors.Annotate(err, "begin transaction")
	}
	log.Debug("transaction started")

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.WithError(rbErr).Warn("transaction rollback failed")
			return
		}
		log.Debug("transaction rolled back")
	}()

	if err := fn(ctx, NewStores(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Annotate(err, "commit transaction")
	}
	committed = true
	log.Debug("transaction committed")
	return nil
}
