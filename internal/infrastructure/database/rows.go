package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidIdentifier is returned when a table or column name is not a plain SQL identifier.
var ErrInvalidIdentifier = errors.New("database: invalid identifier")

// identifierPattern accepts the bare identifiers valid in both MySQL and SQLite.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Querier is the subset of *sql.DB, *sql.Conn and *sql.Tx used by repositories.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Record is a single row keyed by column name.
//
// The remote schema is owned by another system and carries attributes this
// service does not know about, so rows are kept dynamic rather than mapped
// onto structs.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Without returns a copy of the record with the given fields removed.
func (r Record) Without(fields []string) Record {
	out := r.Clone()
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// ValidateIdentifier checks that name can be interpolated into SQL as a bare identifier.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// Placeholders returns n comma-separated "?" placeholders for an IN clause.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// QueryRecords runs query and returns every row as a Record.
//
// Driver values are normalised so they serialise cleanly to JSON: byte slices
// become integers, floats or strings depending on the column's declared type.
//
// Returns:
//   - []Record: All rows in the order returned by the database (never nil)
//   - error: If the query or scan fails
func QueryRecords(ctx context.Context, q Querier, query string, args ...any) ([]Record, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// QueryRecord runs query and returns the first row.
//
// Returns:
//   - Record: The first row
//   - error: sql.ErrNoRows when the query returned nothing
func QueryRecord(ctx context.Context, q Querier, query string, args ...any) (Record, error) {
	records, err := QueryRecords(ctx, q, query, args...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, sql.ErrNoRows
	}
	return records[0], nil
}

// Columns returns the column names of table in declaration order.
// It selects no rows, so it works identically on MySQL and SQLite.
func Columns(ctx context.Context, q Querier, table string) ([]string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, "SELECT * FROM "+table+" WHERE 1 = 0")
	if err != nil {
		return nil, fmt.Errorf("describing %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	return cols, nil
}

// scanRecords drains rows into Records.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("reading column types: %w", err)
	}

	records := []Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		rec := make(Record, len(cols))
		for i, col := range cols {
			rec[col] = normalise(values[i], types[i].DatabaseTypeName())
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return records, nil
}

// normalise converts raw driver bytes into a JSON-friendly value using the column type.
func normalise(v any, dbType string) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	s := string(b)

	switch strings.ToUpper(dbType) {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR",
		"UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT", "UNSIGNED INT", "UNSIGNED BIGINT":
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case "DECIMAL", "FLOAT", "DOUBLE", "REAL", "NUMERIC":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case "BIT":
		if len(b) == 1 {
			return int64(b[0])
		}
	}
	return s
}
