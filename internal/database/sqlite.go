package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go driver, keeps generated projects CGO-free
)

// SQLite introspects a SQLite database file via sqlite_master and the
// table_info/foreign_key_list pragmas.
type SQLite struct {
	path string
	db   *sql.DB
}

func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

func (s *SQLite) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("database: opening %s: %w", s.path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("database: opening %s: %w", s.path, err)
	}
	s.db = db
	return nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *SQLite) Tables(ctx context.Context) ([]TableInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database: not connected; call Connect first")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("database: listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tables := make([]TableInfo, 0, len(names))
	for _, name := range names {
		t, err := s.table(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("database: introspecting %s: %w", name, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func (s *SQLite) table(ctx context.Context, name string) (TableInfo, error) {
	t := TableInfo{Name: name}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", name))
	if err != nil {
		return t, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			colName, colType string
			defaultVal       sql.NullString
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultVal, &pk); err != nil {
			return t, err
		}
		col := ColumnInfo{
			Name:       colName,
			DataType:   colType,
			Nullable:   notNull == 0,
			PrimaryKey: pk > 0,
		}
		if defaultVal.Valid {
			v := defaultVal.String
			col.Default = &v
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return t, err
	}

	return t, s.foreignKeys(ctx, &t)
}

func (s *SQLite) foreignKeys(ctx context.Context, t *TableInfo) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", t.Name))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, seq                          int
			refTable, from                   string
			to, onUpdate, onDelete, matching sql.NullString
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &matching); err != nil {
			return err
		}
		for i := range t.Columns {
			if t.Columns[i].Name == from {
				target := to.String
				if target == "" {
					target = t.Columns[i].Name
				}
				t.Columns[i].ForeignKey = refTable + "." + target
				break
			}
		}
	}
	return rows.Err()
}

var _ Introspector = (*SQLite)(nil)
