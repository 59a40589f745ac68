package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"reflect"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"talentflow/internal/talentflow"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// index maps a queryable key of T onto a column of its table.
type index[T any] struct {
	name   string // name used in talentflow.Query.Index
	column string
	key    func(*T) any
}

// schema describes how records of T are laid out in a table: the full
// record as a JSON document in "data" plus one column per index.
type schema[T any] struct {
	table   string
	id      func(*T) *int64
	indexes []index[T]
}

func (s *schema[T]) column(name string) (string, bool) {
	if name == "" || name == "id" {
		return "id", true
	}
	for _, idx := range s.indexes {
		if idx.name == name {
			return idx.column, true
		}
	}
	return "", false
}

// Collection stores records of one type in one table.
type Collection[T any] struct {
	db     dbtx
	schema *schema[T]
}

func newCollection[T any](db dbtx, s *schema[T]) *Collection[T] {
	return &Collection[T]{db: db, schema: s}
}

func (c *Collection[T]) Put(ctx context.Context, rec *T) (int64, error) {
	if err := c.put(ctx, c.db, rec); err != nil {
		return 0, err
	}
	return *c.schema.id(rec), nil
}

func (c *Collection[T]) put(ctx context.Context, db dbtx, rec *T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding %s record: %w", c.schema.table, err)
	}

	columns := []string{"id", "data"}
	args := []any{nil, string(data)}
	if id := *c.schema.id(rec); id != 0 {
		args[0] = id
	}
	updates := []string{"data = excluded.data"}
	for _, idx := range c.schema.indexes {
		columns = append(columns, idx.column)
		args = append(args, keyValue(idx.key(rec)))
		updates = append(updates, idx.column+" = excluded."+idx.column)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		c.schema.table,
		strings.Join(columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
		strings.Join(updates, ", "),
	)
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError("putting "+c.schema.table+" record", err)
	}
	if args[0] == nil {
		id, err := res.LastInsertId()
		if err != nil {
			return mapError("reading new "+c.schema.table+" id", err)
		}
		*c.schema.id(rec) = id
	}
	return nil
}

func (c *Collection[T]) Get(ctx context.Context, id int64) (*T, error) {
	return c.get(ctx, c.db, id)
}

func (c *Collection[T]) get(ctx context.Context, db dbtx, id int64) (*T, error) {
	row := db.QueryRowContext(ctx, "SELECT id, data FROM "+c.schema.table+" WHERE id = ?", id)
	rec, err := c.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", c.schema.table, id, talentflow.ErrNotFound)
	}
	return rec, err
}

// Query runs lazily: the statement executes when the sequence is ranged
// over. The rows hold a connection until iteration ends, so callers must not
// issue other calls on the same store from inside the loop.
func (c *Collection[T]) Query(ctx context.Context, q talentflow.Query) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		query, args, err := c.buildQuery(q)
		if err != nil {
			yield(nil, err)
			return
		}
		rows, err := c.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, mapError("querying "+c.schema.table, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := c.scan(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, mapError("iterating "+c.schema.table, err))
		}
	}
}

func (c *Collection[T]) All(ctx context.Context, q talentflow.Query) ([]*T, error) {
	var out []*T
	for rec, err := range c.Query(ctx, q) {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Collection[T]) Update(ctx context.Context, id int64, fields map[string]any) (*T, error) {
	var updated *T
	err := c.inTx(ctx, func(db dbtx) error {
		current, err := c.get(ctx, db, id)
		if err != nil {
			return err
		}
		merged, err := merge(current, fields)
		if err != nil {
			return fmt.Errorf("updating %s %d: %w", c.schema.table, id, err)
		}
		*c.schema.id(merged) = id
		if err := c.put(ctx, db, merged); err != nil {
			return err
		}
		updated = merged
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id int64) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM "+c.schema.table+" WHERE id = ?", id); err != nil {
		return mapError("deleting "+c.schema.table+" record", err)
	}
	return nil
}

func (c *Collection[T]) Count(ctx context.Context, pred func(*T) bool) (int, error) {
	if pred == nil {
		var n int
		if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.schema.table).Scan(&n); err != nil {
			return 0, mapError("counting "+c.schema.table, err)
		}
		return n, nil
	}

	n := 0
	for rec, err := range c.Query(ctx, talentflow.Query{}) {
		if err != nil {
			return 0, err
		}
		if pred(rec) {
			n++
		}
	}
	return n, nil
}

func (c *Collection[T]) BulkPut(ctx context.Context, recs []*T) ([]int64, error) {
	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		id, err := c.Put(ctx, rec)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Collection[T]) buildQuery(q talentflow.Query) (string, []any, error) {
	column, ok := c.schema.column(q.Index)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s has no index %q", talentflow.ErrValidation, c.schema.table, q.Index)
	}

	var sb strings.Builder
	var args []any
	fmt.Fprintf(&sb, "SELECT id, data FROM %s", c.schema.table)

	switch {
	case q.Equals != nil:
		fmt.Fprintf(&sb, " WHERE %s = ?", column)
		args = append(args, keyValue(q.Equals))
	case q.Range != nil:
		var conds []string
		if q.Range.Lower != nil {
			conds = append(conds, column+" >= ?")
			args = append(args, keyValue(q.Range.Lower))
		}
		if q.Range.Upper != nil {
			conds = append(conds, column+" <= ?")
			args = append(args, keyValue(q.Range.Upper))
		}
		if len(conds) > 0 {
			sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
		}
	}

	dir := "ASC"
	if q.Reverse {
		dir = "DESC"
	}
	if column == "id" {
		fmt.Fprintf(&sb, " ORDER BY id %s", dir)
	} else {
		fmt.Fprintf(&sb, " ORDER BY %s %s, id %s", column, dir, dir)
	}

	limit := -1
	if q.Limit > 0 {
		limit = q.Limit
	}
	sb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, max(q.Offset, 0))

	return sb.String(), args, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (c *Collection[T]) scan(row scanner) (*T, error) {
	var id int64
	var data string
	if err := row.Scan(&id, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, mapError("reading "+c.schema.table+" row", err)
	}
	rec := new(T)
	if err := json.Unmarshal([]byte(data), rec); err != nil {
		return nil, fmt.Errorf("%w: decoding %s %d: %w", talentflow.ErrStorage, c.schema.table, id, err)
	}
	*c.schema.id(rec) = id
	return rec, nil
}

// inTx runs fn in a transaction, or directly when the collection is
// already bound to one.
func (c *Collection[T]) inTx(ctx context.Context, fn func(dbtx) error) error {
	db, ok := c.db.(*sql.DB)
	if !ok {
		return fn(c.db)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return mapError("starting transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError("committing transaction", err)
	}
	return nil
}

// merge overlays fields onto the JSON form of rec, by JSON field name.
func merge[T any](rec *T, fields map[string]any) (*T, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	raw, err = json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", talentflow.ErrValidation, err)
	}
	merged := new(T)
	if err := json.Unmarshal(raw, merged); err != nil {
		return nil, fmt.Errorf("%w: %w", talentflow.ErrValidation, err)
	}
	return merged, nil
}

// keyValue converts an index key into the value stored in its column.
func keyValue(v any) any {
	switch k := v.(type) {
	case nil:
		return nil
	case time.Time:
		return k.UnixNano()
	case *time.Time:
		if k == nil {
			return nil
		}
		return k.UnixNano()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(rv.Uint())
	}
	return v
}

func mapError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%s: %w: %w", op, talentflow.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w: %w", op, talentflow.ErrStorage, err)
}
