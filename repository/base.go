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
	"fmt"
	"strings"

	"github.com/juju/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/storyboard/database"
	"github.com/tomoncle/storyboard/types"
)

// storeError annotates a failed write. Constraint violations become
// errors.AlreadyExists (unique key) or errors.NotFound (missing referenced
// row) so callers can tell them from outages.
func storeError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	switch _, kind := database.IsSqlError(err); kind {
	case database.DuplicateKeyErr:
		err = errors.NewAlreadyExists(err, "")
	case database.ForeignKeyViolationErr:
		err = errors.NewNotFound(err, "referenced row")
	case database.NotNullViolationErr, database.CheckConstraintViolationErr, database.DataTruncatedErr:
		err = errors.NewNotValid(err, "")
	}
	return errors.Annotatef(err, format, args...)
}

type baseRepositoryImpl[T any] struct {
	db bun.IDB
}

// NewRepository returns a generic repository bound to db, which may be a
// *bun.DB, a bun.Tx or a bun.Conn.
func NewRepository[T any](db bun.IDB) Repository[T] {
	return &baseRepositoryImpl[T]{db: db}
}

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	entity := new(T)
	err := r.db.NewSelect().Model(entity).Where("?TableAlias.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Annotatef(err, "find %T by id %d", entity, id)
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) FindAll(ctx context.Context) ([]*T, error) {
	entities := make([]*T, 0)
	err := r.db.NewSelect().Model(&entities).OrderExpr("?TableAlias.id ASC").Scan(ctx)
	if err != nil {
		return nil, errors.Annotatef(err, "find all %T", new(T))
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	entities := make([]*T, 0)
	query := r.db.NewSelect().Model(&entities)
	if filter != nil && filter.Schema != "" {
		query = query.Where(filter.Schema, filter.Args...)
	}
	if err := query.OrderExpr("?TableAlias.id ASC").Scan(ctx); err != nil {
		return nil, errors.Annotatef(err, "list %T", new(T))
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) ExistsByID(ctx context.Context, id int64) (bool, error) {
	exists, err := r.db.NewSelect().Model((*T)(nil)).Where("?TableAlias.id = ?", id).Exists(ctx)
	if err != nil {
		return false, errors.Annotatef(err, "check %T %d exists", new(T), id)
	}
	return exists, nil
}

// Page returns one page of rows. Orders are validated and quoted; without
// orders rows come back in primary-key order.
func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	if pageRequest == nil {
		pageRequest = types.NewDefaultPageRequest(1, types.DefaultPageSize)
	}
	orders, err := pageRequest.ParsedOrders()
	if err != nil {
		return nil, errors.NewNotValid(err, "page order")
	}

	entities := make([]*T, 0)
	query := r.db.NewSelect().Model(&entities)
	if filter := pageRequest.GetFilter(); filter != nil && filter.Schema != "" {
		query = query.Where(filter.Schema, filter.Args...)
	}
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := query.Count(ctx)
	if err != nil {
		return nil, errors.Annotatef(err, "count %T", new(T))
	}
	if total == 0 {
		return pagination, nil
	}

	for _, o := range orders {
		query = query.OrderExpr("? "+o.Direction(), bun.Ident(o.Column))
	}
	if len(orders) == 0 {
		query = query.OrderExpr("?TableAlias.id ASC")
	}
	err = query.
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Scan(ctx)
	if err != nil {
		return nil, errors.Annotatef(err, "page %T", new(T))
	}
	pagination.Total = total
	pagination.Items = entities
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	if len(entity) == 1 {
		_, err := r.db.NewInsert().Model(entity[0]).Exec(ctx)
		return storeError(err, "create %T", entity[0])
	}
	entities := append([]*T(nil), entity...)
	_, err := r.db.NewInsert().Model(&entities).Exec(ctx)
	return storeError(err, "create %d %T", len(entities), new(T))
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T) error {
	_, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return storeError(err, "update %T", entity)
}

func (r *baseRepositoryImpl[T]) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx)
	return storeError(err, "delete %T %d", new(T), id)
}

// Upsert inserts entities and updates fields on a conflict with
// duplicateKeys, using whichever conflict clause the dialect supports.
func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	if len(entity) == 0 {
		return nil
	}
	for _, name := range append(append([]string(nil), fields...), duplicateKeys...) {
		if !types.IsIdentifier(name) {
			return errors.NotValidf("upsert column %q", name)
		}
	}
	entities := append([]*T(nil), entity...)

	features := r.db.Dialect().Features()
	switch {
	case features.Has(feature.InsertOnConflict):
		return r.upsertOnConflict(ctx, fields, duplicateKeys, entities)
	case features.Has(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, fields, entities)
	default:
		return r.upsertFallback(ctx, entities)
	}
}

func (r *baseRepositoryImpl[T]) upsertOnDuplicateKey(ctx context.Context, fields []string, entities []*T) error {
	assignments := make([]string, 0, len(fields))
	for _, field := range fields {
		assignments = append(assignments, fmt.Sprintf("%[1]s = VALUES(%[1]s)", field))
	}
	_, err := r.db.NewInsert().
		Model(&entities).
		On("DUPLICATE KEY UPDATE " + strings.Join(assignments, ", ")).
		Exec(ctx)
	return storeError(err, "upsert %T", new(T))
}

func (r *baseRepositoryImpl[T]) upsertOnConflict(ctx context.Context, fields []string, duplicateKeys []string, entities []*T) error {
	if len(duplicateKeys) == 0 {
		duplicateKeys = []string{"id"}
	}
	assignments := make([]string, 0, len(fields))
	for _, field := range fields {
		assignments = append(assignments, fmt.Sprintf("%[1]s = EXCLUDED.%[1]s", field))
	}
	_, err := r.db.NewInsert().
		Model(&entities).
		On("CONFLICT (" + strings.Join(duplicateKeys, ", ") + ") DO UPDATE").
		Set(strings.Join(assignments, ", ")).
		Exec(ctx)
	return storeError(err, "upsert %T", new(T))
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
			if _, updateErr := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx); updateErr != nil {
				return storeError(updateErr, "upsert %T after insert failed with %v", entity, err)
			}
		}
	}
	return nil
}
