// Package mappers translates between the guide's relational schema and its
// domain object graph. Each entity type has one mapper; mappers resolve
// foreign keys by delegating to the mapper of the referenced type.
//
// Every mapper reads its connection from the context (see database.SetSession).
// Reads return (nil, nil) when no row matches. Writes that affect no row
// return an error wrapping apperrors.ErrNotFound; writes rejected by a unique
// constraint wrap apperrors.ErrConflict.
package mappers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hearc-ig/guideresto/pkg/apperrors"
	"github.com/hearc-ig/guideresto/pkg/database"
	"github.com/hearc-ig/guideresto/pkg/models"
	"github.com/hearc-ig/guideresto/pkg/sequence"
)

// Mapper is the CRUD contract shared by every entity mapper.
type Mapper[T any] interface {
	// FindByID returns nil and no error when no row has this id.
	FindByID(ctx context.Context, id int64) (*T, error)
	// FindAll returns every row, ordered by id.
	FindAll(ctx context.Context) ([]*T, error)
	// Create assigns a fresh id to a transient entity and inserts it.
	Create(ctx context.Context, entity *T) (*T, error)
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, entity *T) error
	DeleteByID(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// table holds what the generic helpers need to know about one relation.
type table struct {
	name     string
	entity   string
	sequence string
}

func (t table) nextID(ctx context.Context, seq sequence.Source) (int64, error) {
	id, err := seq.NextID(ctx, t.sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", t.entity, err)
	}
	return id, nil
}

func (t table) exists(ctx context.Context, id int64) (bool, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return false, err
	}

	var found bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", t.name)
	if err := q.QueryRow(ctx, query, id).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", t.entity, err)
	}
	return found, nil
}

func (t table) count(ctx context.Context) (int64, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM "+t.name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", t.entity, err)
	}
	return n, nil
}

func (t table) deleteByID(ctx context.Context, id int64) error {
	return t.execOne(ctx, "delete", id, "DELETE FROM "+t.name+" WHERE id = $1", id)
}

// execOne runs a write expected to touch exactly the row with the given id.
func (t table) execOne(ctx context.Context, verb string, id int64, query string, args ...any) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		// unique_violation
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("failed to %s %s %d: %w", verb, t.entity, id, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to %s %s %d: %w", verb, t.entity, id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", t.entity, id, apperrors.ErrNotFound)
	}
	return nil
}

// queryRow scans a single row. found is false when the query matched nothing.
func queryRow(ctx context.Context, query string, args []any, dest ...any) (found bool, err error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return false, err
	}

	if err := q.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// collect drains a result set into raw rows. The result set is closed before
// collect returns, so callers may run further statements on the same
// connection while resolving references.
func collect[R any](ctx context.Context, query string, args []any, scan func(pgx.Rows) (R, error)) ([]R, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []R
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func notPersistent(entity string) error {
	return fmt.Errorf("%s has no id: %w", entity, apperrors.ErrNotFound)
}

func alreadyPersistent(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, apperrors.ErrAlreadyPersistent)
}

func transientReference(entity, field string) error {
	return fmt.Errorf("%s %s is not persistent: %w", entity, field, apperrors.ErrInvalidReference)
}

func danglingReference(entity string, id int64, field string, ref int64) error {
	return fmt.Errorf("%s %d references missing %s %d: %w", entity, id, field, ref, apperrors.ErrInvalidReference)
}

func nilEntity(entity string) error {
	return fmt.Errorf("nil %s: %w", entity, apperrors.ErrInvalidReference)
}

func checkScore(g *models.Grade) error {
	if g.Score < models.MinScore || g.Score > models.MaxScore {
		return fmt.Errorf("grade score %d not in %d..%d: %w", g.Score, models.MinScore, models.MaxScore, apperrors.ErrInvalidScore)
	}
	return nil
}
