// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pgstore implements docstore.Collection over a PostgreSQL table of
// the shape (id TEXT PRIMARY KEY, doc JSONB). Tables and unique indexes are
// created by the goose migrations in internal/database.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"catalog/internal/docstore"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Collection stores documents of type T as JSONB rows.
type Collection[T any] struct {
	db    *sql.DB
	table string
}

// New returns a collection over table. The table name must be a plain
// identifier.
func New[T any](db *sql.DB, table string) (*Collection[T], error) {
	if !isIdent(table) {
		return nil, fmt.Errorf("pgstore: invalid table name %q", table)
	}
	return &Collection[T]{db: db, table: table}, nil
}

var _ docstore.Collection[struct{}] = (*Collection[struct{}])(nil)

// InsertOne adds doc.
func (c *Collection[T]) InsertOne(ctx context.Context, doc *T) error {
	id, raw, err := encode(doc)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO `+c.table+` (id, doc) VALUES ($1, $2::jsonb)`, id, raw)
	if err != nil {
		return mapErr("insert document", err)
	}
	return nil
}

// FindOne returns the first matching document, or nil.
func (c *Collection[T]) FindOne(ctx context.Context, filter docstore.Filter, sort ...docstore.SortField) (*T, error) {
	docs, err := c.Find(ctx, filter, docstore.FindOptions{Sort: sort, Limit: 1})
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return &docs[0], nil
}

// Find returns matching documents.
func (c *Collection[T]) Find(ctx context.Context, filter docstore.Filter, opts docstore.FindOptions) ([]T, error) {
	where, args, err := BuildWhere(filter, 1)
	if err != nil {
		return nil, err
	}
	query := `SELECT doc FROM ` + c.table + ` WHERE ` + where + ` ORDER BY ` + orderBy(opts.Sort)
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Skip > 0 {
		query += fmt.Sprintf(" OFFSET %d", opts.Skip)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// ReplaceOne replaces the first matching document.
func (c *Collection[T]) ReplaceOne(ctx context.Context, filter docstore.Filter, doc *T) (bool, error) {
	id, raw, err := encode(doc)
	if err != nil {
		return false, err
	}
	where, args, err := BuildWhere(filter, 3)
	if err != nil {
		return false, err
	}
	query := `UPDATE ` + c.table + ` SET id = $1, doc = $2::jsonb WHERE ` + firstMatch(c.table, where)
	res, err := c.db.ExecContext(ctx, query, append([]any{id, raw}, args...)...)
	if err != nil {
		return false, mapErr("replace document", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteOne removes the first matching document.
func (c *Collection[T]) DeleteOne(ctx context.Context, filter docstore.Filter) (bool, error) {
	where, args, err := BuildWhere(filter, 1)
	if err != nil {
		return false, err
	}
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM `+c.table+` WHERE `+firstMatch(c.table, where), args...)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteMany removes every matching document.
func (c *Collection[T]) DeleteMany(ctx context.Context, filter docstore.Filter) (int64, error) {
	where, args, err := BuildWhere(filter, 1)
	if err != nil {
		return 0, err
	}
	res, err := c.db.ExecContext(ctx, `DELETE FROM `+c.table+` WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return res.RowsAffected()
}

// CountDocuments counts matching documents.
func (c *Collection[T]) CountDocuments(ctx context.Context, filter docstore.Filter) (int64, error) {
	where, args, err := BuildWhere(filter, 1)
	if err != nil {
		return 0, err
	}
	var n int64
	err = c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+c.table+` WHERE `+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// firstMatch selects the first row matching where. The predicate is
// repeated outside the subquery so Postgres rechecks it against a row a
// concurrent writer changed while this statement waited for the lock.
func firstMatch(table, where string) string {
	return `id = (SELECT id FROM ` + table + ` WHERE ` + where + ` LIMIT 1) AND (` + where + `)`
}

// BuildWhere renders filter as a SQL boolean expression over the doc
// column. Placeholders are numbered from first.
func BuildWhere(filter docstore.Filter, first int) (string, []any, error) {
	if len(filter) == 0 {
		return "TRUE", nil, nil
	}
	var (
		parts []string
		args  []any
		n     = first
	)
	param := func(v any) (string, error) {
		raw, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		args = append(args, string(raw))
		p := fmt.Sprintf("$%d::jsonb", n)
		n++
		return p, nil
	}

	for _, cond := range filter {
		if !isIdent(cond.Field) {
			return "", nil, fmt.Errorf("pgstore: invalid field name %q", cond.Field)
		}
		field := fmt.Sprintf("doc->'%s'", cond.Field)

		switch cond.Op {
		case docstore.OpEq:
			if cond.Value == nil {
				parts = append(parts, fmt.Sprintf("(%s IS NULL OR %s = 'null'::jsonb)", field, field))
				continue
			}
			p, err := param(cond.Value)
			if err != nil {
				return "", nil, fmt.Errorf("filter %s: %w", cond.Field, err)
			}
			parts = append(parts, field+" = "+p)

		case docstore.OpIn:
			values, _ := cond.Value.([]any)
			if len(values) == 0 {
				parts = append(parts, "FALSE")
				continue
			}
			ps := make([]string, 0, len(values))
			for _, v := range values {
				p, err := param(v)
				if err != nil {
					return "", nil, fmt.Errorf("filter %s: %w", cond.Field, err)
				}
				ps = append(ps, p)
			}
			parts = append(parts, field+" IN ("+strings.Join(ps, ", ")+")")

		case docstore.OpContains:
			p, err := param([]any{cond.Value})
			if err != nil {
				return "", nil, fmt.Errorf("filter %s: %w", cond.Field, err)
			}
			parts = append(parts, field+" @> "+p)

		default:
			return "", nil, fmt.Errorf("pgstore: unsupported operator %d", cond.Op)
		}
	}
	return strings.Join(parts, " AND "), args, nil
}

func orderBy(sort []docstore.SortField) string {
	var parts []string
	for _, s := range sort {
		if !isIdent(s.Field) {
			continue
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("doc->'%s' %s", s.Field, dir))
	}
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", ")
}

func encode(doc any) (string, string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", "", fmt.Errorf("encode document: %w", err)
	}
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", "", fmt.Errorf("read document id: %w", err)
	}
	if head.ID == "" {
		return "", "", errors.New("pgstore: document has no id")
	}
	return head.ID, string(raw), nil
}

func mapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w: %s", op, docstore.ErrDuplicateKey, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
