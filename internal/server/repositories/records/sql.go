package records

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/dbx"
	"github.com/dmitrijs2005/duet/internal/gateway"
)

// sqliteTimeLayout is fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLRepository stores records in one table per collection.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) timeArg(t time.Time) any {
	if r.dialect == dbx.SQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

func (r *SQLRepository) List(ctx context.Context, c gateway.Collection, q gateway.Query) ([]gateway.Record, error) {
	t, err := lookup(c)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(t.columns))
	for _, col := range t.columns {
		names = append(names, col.name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT id, created_at, %s FROM %s", strings.Join(names, ", "), t.name)

	args := make([]any, 0, len(q.Filters))
	for i, f := range q.Filters {
		col, ok := t.column(f.Field)
		if !ok {
			return nil, fmt.Errorf("%w: cannot filter %s by %q", common.ErrValidation, t.name, f.Field)
		}
		arg, err := filterArg(col, f.Value)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		fmt.Fprintf(&sb, "%s = %s", col.name, r.dialect.Placeholder(i+1))
		args = append(args, arg)
	}

	order, err := t.orderColumn(q.OrderBy)
	if err != nil {
		return nil, err
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s", order, dir, dir)
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []gateway.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows, t)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Insert writes rec as given. The caller assigns ID and CreatedAt.
func (r *SQLRepository) Insert(ctx context.Context, c gateway.Collection, rec gateway.Record) error {
	t, err := lookup(c)
	if err != nil {
		return err
	}

	names := []string{"id", "created_at"}
	args := []any{rec.ID, r.timeArg(rec.CreatedAt)}
	for _, col := range t.columns {
		v, err := columnArg(col, rec.Fields[col.name])
		if err != nil {
			return err
		}
		names = append(names, col.name)
		args = append(args, v)
	}

	ph := make([]string, len(names))
	for i := range ph {
		ph[i] = r.dialect.Placeholder(i + 1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(names, ", "), strings.Join(ph, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteByID reports whether a row was removed. scope narrows the delete
// to rows whose columns also match, so a row outside it is left alone.
func (r *SQLRepository) DeleteByID(ctx context.Context, c gateway.Collection, id string, scope ...gateway.Filter) (bool, error) {
	t, err := lookup(c)
	if err != nil {
		return false, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "DELETE FROM %s WHERE id = %s", t.name, r.dialect.Placeholder(1))
	args := []any{id}
	for _, f := range scope {
		col, ok := t.column(f.Field)
		if !ok {
			return false, fmt.Errorf("%w: cannot filter %s by %q", common.ErrValidation, t.name, f.Field)
		}
		arg, err := filterArg(col, f.Value)
		if err != nil {
			return false, err
		}
		args = append(args, arg)
		fmt.Fprintf(&sb, " AND %s = %s", col.name, r.dialect.Placeholder(len(args)))
	}

	res, err := r.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func filterArg(col column, value string) (any, error) {
	if col.kind == kindInt {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", common.ErrValidation, col.name)
		}
		return n, nil
	}
	return value, nil
}

func columnArg(col column, v any) (any, error) {
	switch col.kind {
	case kindInt:
		switch n := v.(type) {
		case nil:
			return int64(0), nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n != float64(int64(n)) {
				return nil, fmt.Errorf("%w: %s must be an integer", common.ErrValidation, col.name)
			}
			return int64(n), nil
		}
	case kindOptionalText:
		switch s := v.(type) {
		case nil:
			return nil, nil
		case string:
			if s == "" {
				return nil, nil
			}
			return s, nil
		}
	default:
		switch s := v.(type) {
		case nil:
			return "", nil
		case string:
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: unexpected %T for %s", common.ErrValidation, v, col.name)
}

func scanRecord(rows *sql.Rows, t table) (gateway.Record, error) {
	var (
		id        string
		createdAt any
	)
	text := make([]sql.NullString, len(t.columns))
	ints := make([]sql.NullInt64, len(t.columns))

	dest := []any{&id, &createdAt}
	for i, col := range t.columns {
		if col.kind == kindInt {
			dest = append(dest, &ints[i])
		} else {
			dest = append(dest, &text[i])
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return gateway.Record{}, fmt.Errorf("db error: %w", err)
	}

	ts, err := parseTime(createdAt)
	if err != nil {
		return gateway.Record{}, fmt.Errorf("record %s: %w", id, err)
	}

	fields := make(map[string]any, len(t.columns))
	for i, col := range t.columns {
		switch {
		case col.kind == kindInt:
			fields[col.name] = ints[i].Int64
		case text[i].Valid:
			fields[col.name] = text[i].String
		case col.kind == kindText:
			fields[col.name] = ""
		}
	}

	return gateway.Record{ID: id, CreatedAt: ts, Fields: fields}, nil
}

func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTimeText(t)
	case []byte:
		return parseTimeText(string(t))
	}
	return time.Time{}, fmt.Errorf("unexpected created_at %T", v)
}

func parseTimeText(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable created_at %q", s)
}
