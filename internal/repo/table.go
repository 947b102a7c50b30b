package repo

import (
	"Go_Blog/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no row matches a primary key lookup.
var ErrNotFound = errors.New("record not found")

// Query narrows a Find call. Where uses the driver's placeholder syntax.
type Query struct {
	Where  string
	Args   []any
	Order  string
	Offset int
	Limit  int
}

// Table maps rows of one entity type using its declared Schema.
type Table[T any] struct {
	db     *gorm.DB
	schema model.Schema
	key    func(*T) uint64
}

// NewTable binds an entity schema and its primary key accessor to a database.
func NewTable[T any](db *gorm.DB, schema model.Schema, key func(*T) uint64) *Table[T] {
	return &Table[T]{db: db, schema: schema, key: key}
}

// Schema returns the mapping the table was built with.
func (t *Table[T]) Schema() model.Schema {
	return t.schema
}

// DB exposes the underlying handle for transactions.
func (t *Table[T]) DB() *gorm.DB {
	return t.db
}

// WithDB returns a copy of the table bound to db, typically a transaction.
func (t *Table[T]) WithDB(db *gorm.DB) *Table[T] {
	return &Table[T]{db: db, schema: t.schema, key: t.key}
}

func (t *Table[T]) read(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx).Table(t.schema.Table).Select(t.schema.Columns)
}

func (t *Table[T]) pkEquals() string {
	return t.schema.PrimaryKey + " = ?"
}

// Get loads the row with the given primary key.
func (t *Table[T]) Get(ctx context.Context, id uint64) (*T, error) {
	var row T
	err := t.read(ctx).Where(t.pkEquals(), id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// All loads every row ordered by primary key.
func (t *Table[T]) All(ctx context.Context) ([]T, error) {
	return t.Find(ctx, Query{Order: t.schema.PrimaryKey})
}

// Query loads the rows matching a predicate.
func (t *Table[T]) Query(ctx context.Context, where string, args ...any) ([]T, error) {
	return t.Find(ctx, Query{Where: where, Args: args, Order: t.schema.PrimaryKey})
}

// Find loads rows with optional predicate, ordering and paging.
func (t *Table[T]) Find(ctx context.Context, q Query) ([]T, error) {
	tx := t.read(ctx)
	if q.Where != "" {
		tx = tx.Where(q.Where, q.Args...)
	}
	if q.Order != "" {
		tx = tx.Order(q.Order)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	rows := make([]T, 0)
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of rows matching a predicate. An empty predicate
// counts the whole table.
func (t *Table[T]) Count(ctx context.Context, where string, args ...any) (int64, error) {
	var n int64
	tx := t.db.WithContext(ctx).Table(t.schema.Table)
	if where != "" {
		tx = tx.Where(where, args...)
	}
	if err := tx.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Insert stores a new row and returns its primary key.
func (t *Table[T]) Insert(ctx context.Context, row *T) (uint64, error) {
	tx := t.db.WithContext(ctx).Table(t.schema.Table)
	if len(t.schema.Ignored) > 0 {
		tx = tx.Omit(t.schema.Ignored...)
	}
	if err := tx.Create(row).Error; err != nil {
		return 0, err
	}
	return t.key(row), nil
}

// Update writes every persisted column of row. ErrNotFound is returned when
// the primary key matches nothing.
func (t *Table[T]) Update(ctx context.Context, row *T) error {
	res := t.db.WithContext(ctx).
		Table(t.schema.Table).
		Where(t.pkEquals(), t.key(row)).
		Select(t.schema.Writable()).
		Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := t.Get(ctx, t.key(row)); err != nil {
			return err
		}
	}
	return nil
}

// UpdateColumns writes the given column values on the row with id.
func (t *Table[T]) UpdateColumns(ctx context.Context, id uint64, values map[string]any) error {
	res := t.db.WithContext(ctx).
		Table(t.schema.Table).
		Where(t.pkEquals(), id).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := t.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes row by primary key.
func (t *Table[T]) Delete(ctx context.Context, row *T) error {
	return t.DeleteWhere(ctx, t.pkEquals(), t.key(row))
}

// DeleteWhere removes the rows matching a predicate.
func (t *Table[T]) DeleteWhere(ctx context.Context, where string, args ...any) error {
	return t.db.WithContext(ctx).
		Table(t.schema.Table).
		Where(where, args...).
		Delete(new(T)).Error
}
