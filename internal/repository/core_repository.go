package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/users-service/internal/auth"
	"github.com/spec-kit/users-service/internal/columns"
	"github.com/spec-kit/users-service/internal/domain"
)

var (
	// ErrNotFound signals an absent entity from FindOneOrFail and updates.
	ErrNotFound = errors.New("entity not found")
	// ErrIntegrity signals a malformed parent-link structure (a cycle).
	ErrIntegrity = errors.New("entity tree integrity violation")
	// ErrNotHierarchical signals tree operations on a flat entity.
	ErrNotHierarchical = errors.New("entity has no parent column")
)

// Querier is the subset of pgxpool.Pool the repositories depend on.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RowScanner is satisfied by both pgx.Row and pgx.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// Descriptor statically maps an entity type to its table shape. It replaces
// runtime reflection: every entity registers one descriptor at startup.
type Descriptor[T any] struct {
	// Table is the backing table name.
	Table string
	// Columns lists the entity's data columns in insert order, excluding
	// identity and audit columns which the core layer owns.
	Columns []string
	// ParentColumn names the adjacency link for hierarchical entities.
	// Empty for flat entities; tree operations then fail.
	ParentColumn string
	// Codecs transform individual column values at the store boundary.
	Codecs columns.Table
	// Values extracts data column values in Columns order.
	Values func(e *T) []any
	// Scan reads one full row (see SelectColumns for the order).
	Scan func(row RowScanner) (*T, error)
	// Meta returns the entity's identity/audit block.
	Meta func(e *T) *domain.Entity
	// Parent returns the parent identity for hierarchical entities.
	Parent func(e *T) *int64
}

// SelectColumns is the full select list: identity, data columns, then audit
// columns. Descriptor.Scan must read targets in exactly this order.
func (d Descriptor[T]) SelectColumns() []string {
	cols := make([]string, 0, len(d.Columns)+8)
	cols = append(cols, "id", "client_id")
	cols = append(cols, d.Columns...)
	cols = append(cols, "created_at", "updated_at", "deleted_at", "created_by", "updated_by", "deleted_by")
	return cols
}

// CoreRepository is a uniform CRUD/query facade parameterized over an entity
// shape. Resource repositories embed it and add their own filtered queries.
type CoreRepository[T any] struct {
	db   Querier
	desc Descriptor[T]
}

// NewCoreRepository binds a descriptor to a store handle.
func NewCoreRepository[T any](db Querier, desc Descriptor[T]) *CoreRepository[T] {
	return &CoreRepository[T]{db: db, desc: desc}
}

// Select starts a default-scoped query over the entity's table.
func (r *CoreRepository[T]) Select() *SelectQuery {
	return NewSelectQuery(r.desc.Table, r.desc.SelectColumns())
}

// Find returns all matches with no implicit limit.
func (r *CoreRepository[T]) Find(ctx context.Context, q *SelectQuery) ([]*T, error) {
	return r.fetch(ctx, q, 0, 0)
}

// FindOne returns the first match, or nil when nothing matches. Absence is
// not an error.
func (r *CoreRepository[T]) FindOne(ctx context.Context, q *SelectQuery) (*T, error) {
	items, err := r.fetch(ctx, q, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// FindOneOrFail returns the first match or ErrNotFound.
func (r *CoreRepository[T]) FindOneOrFail(ctx context.Context, q *SelectQuery) (*T, error) {
	entity, err := r.FindOne(ctx, q)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, ErrNotFound
	}
	return entity, nil
}

// Count returns the number of matches under the query's scope.
func (r *CoreRepository[T]) Count(ctx context.Context, q *SelectQuery) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, q.CountSQL(), q.Args()...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Save persists the entity: an insert when it has no identity yet, otherwise
// a full update of its data columns. UpdatedBy is stamped from the ambient
// acting user; on first save it falls back to CreatedBy when unset.
func (r *CoreRepository[T]) Save(ctx context.Context, entity *T) (*T, error) {
	meta := r.desc.Meta(entity)

	if actor, ok := auth.ActingUserFrom(ctx); ok {
		id := actor.ID
		meta.UpdatedBy = &id
	}
	if meta.ID == 0 && meta.UpdatedBy == nil {
		meta.UpdatedBy = meta.CreatedBy
	}

	values, err := r.encodeValues(entity)
	if err != nil {
		return nil, err
	}

	if meta.ID == 0 {
		return entity, r.insert(ctx, meta, values)
	}
	return entity, r.update(ctx, meta, values)
}

func (r *CoreRepository[T]) encodeValues(entity *T) ([]any, error) {
	values := r.desc.Values(entity)
	if len(values) != len(r.desc.Columns) {
		return nil, fmt.Errorf("repository: descriptor for %s produced %d values for %d columns",
			r.desc.Table, len(values), len(r.desc.Columns))
	}
	for i, col := range r.desc.Columns {
		encoded, err := r.desc.Codecs.Encode(col, values[i])
		if err != nil {
			return nil, err
		}
		values[i] = encoded
	}
	return values, nil
}

func (r *CoreRepository[T]) insert(ctx context.Context, meta *domain.Entity, values []any) error {
	cols := append([]string{"client_id"}, r.desc.Columns...)
	cols = append(cols, "created_by", "updated_by")

	args := make([]any, 0, len(cols))
	args = append(args, meta.ClientID)
	args = append(args, values...)
	args = append(args, meta.CreatedBy, meta.UpdatedBy)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id, created_at, updated_at",
		r.desc.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	return r.db.QueryRow(ctx, query, args...).Scan(&meta.ID, &meta.CreatedAt, &meta.UpdatedAt)
}

func (r *CoreRepository[T]) update(ctx context.Context, meta *domain.Entity, values []any) error {
	assignments := []string{"client_id=$1"}
	args := []any{meta.ClientID}
	for i, col := range r.desc.Columns {
		args = append(args, values[i])
		assignments = append(assignments, fmt.Sprintf("%s=$%d", col, i+2))
	}
	args = append(args, meta.UpdatedBy)
	assignments = append(assignments, fmt.Sprintf("updated_by=$%d", len(args)), "updated_at=NOW()")
	args = append(args, meta.ID)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id=$%d AND deleted_at IS NULL RETURNING updated_at",
		r.desc.Table, strings.Join(assignments, ", "), len(args))

	if err := r.db.QueryRow(ctx, query, args...).Scan(&meta.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// SoftDelete marks all matching rows deleted, stamping the acting user. The
// clause uses `?` placeholders. Rows already soft-deleted are untouched; the
// affected count is returned.
func (r *CoreRepository[T]) SoftDelete(ctx context.Context, clause string, args ...any) (int64, error) {
	var deletedBy *int64
	if actor, ok := auth.ActingUserFrom(ctx); ok {
		id := actor.ID
		deletedBy = &id
	}

	query := fmt.Sprintf(
		"UPDATE %s SET deleted_at=NOW(), deleted_by=$1 WHERE deleted_at IS NULL AND (%s)",
		r.desc.Table, rebind(clause, 2))

	execArgs := append([]any{deletedBy}, args...)
	cmd, err := r.db.Exec(ctx, query, execArgs...)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *CoreRepository[T]) fetch(ctx context.Context, q *SelectQuery, limit, offset int) ([]*T, error) {
	rows, err := r.db.Query(ctx, q.SelectSQL(limit, offset), q.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*T
	for rows.Next() {
		entity, err := r.desc.Scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entity)
	}
	return result, rows.Err()
}
