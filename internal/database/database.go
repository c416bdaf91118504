// Package database introspects relational schemas and compiles each table
// into CRUD tool descriptors. SQLite and PostgreSQL are supported; both
// produce the same descriptor shape.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/toolforge/toolforge/internal/schema"
)

// Engine names a supported database engine.
type Engine string

const (
	EnginePostgres Engine = "postgresql"
	EngineSQLite   Engine = "sqlite"
)

// ColumnInfo describes one introspected column.
type ColumnInfo struct {
	Name          string
	DataType      string // native SQL type as reported by the catalog
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
	Default       *string
	ForeignKey    string // "table.column", "" when none
}

// TableInfo describes one introspected table with its columns in
// declaration order.
type TableInfo struct {
	Name    string
	Schema  string // pg schema, "" for SQLite
	Columns []ColumnInfo
}

// PrimaryKey returns the table's primary-key column, or nil. Composite
// keys report only their first column.
func (t *TableInfo) PrimaryKey() *ColumnInfo {
	for i := range t.Columns {
		if t.Columns[i].PrimaryKey {
			return &t.Columns[i]
		}
	}
	return nil
}

// Introspector reads table metadata from a live database.
type Introspector interface {
	// Connect opens the connection; fatal when the source is unreachable.
	Connect(ctx context.Context) error

	// Tables reads the catalog and returns every user table.
	Tables(ctx context.Context) ([]TableInfo, error)

	Close() error
}

// Open builds an Introspector for a DSN, detecting the engine from its
// scheme. schemaName applies to PostgreSQL only and defaults to public.
func Open(dsn, schemaName string) (Introspector, error) {
	switch DetectEngine(dsn) {
	case EnginePostgres:
		return NewPostgres(dsn, schemaName), nil
	case EngineSQLite:
		return NewSQLite(dsn), nil
	}
	return nil, fmt.Errorf("database: unsupported DSN %q", dsn)
}

// DetectEngine maps a DSN to an engine: postgres URLs by scheme,
// anything else is treated as a SQLite file path.
func DetectEngine(dsn string) Engine {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return EnginePostgres
	}
	return EngineSQLite
}

// KindForSQLType maps a native SQL type name to a schema kind using
// substring matching, so engine spellings like BIGSERIAL and varchar(40)
// land in the right bucket.
func KindForSQLType(dataType string) schema.Kind {
	t := strings.ToLower(dataType)
	switch {
	case containsAny(t, "int", "serial"):
		return schema.KindInteger
	case containsAny(t, "real", "double", "float", "decimal", "numeric"):
		return schema.KindNumber
	case strings.Contains(t, "bool"):
		return schema.KindBoolean
	case containsAny(t, "json", "jsonb"):
		return schema.KindObject
	case containsAny(t, "array", "[]"):
		return schema.KindArray
	default:
		return schema.KindString
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// isAutoIncrement reports whether a primary-key column is populated by the
// engine: detected sequences, identity columns, and integer/serial keys.
func isAutoIncrement(col ColumnInfo) bool {
	if !col.PrimaryKey {
		return false
	}
	if col.AutoIncrement {
		return true
	}
	return containsAny(strings.ToLower(col.DataType), "int", "serial")
}
