package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres introspects a PostgreSQL schema over pgx.
type Postgres struct {
	dsn    string
	schema string // defaults to "public"
	pool   *pgxpool.Pool
}

func NewPostgres(dsn, schemaName string) *Postgres {
	if schemaName == "" {
		schemaName = "public"
	}
	return &Postgres{dsn: dsn, schema: schemaName}
}

func (p *Postgres) Connect(ctx context.Context) error {
	cfg, err := pgxpool.ParseConfig(p.dsn)
	if err != nil {
		return fmt.Errorf("database: parsing DSN: %w", err)
	}
	// Introspection is a linear scan of the catalog; one connection is enough.
	cfg.MaxConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database: connecting to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("database: pinging PostgreSQL: %w", err)
	}
	p.pool = pool
	return nil
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return nil
}

func (p *Postgres) Tables(ctx context.Context) ([]TableInfo, error) {
	if p.pool == nil {
		return nil, fmt.Errorf("database: not connected; call Connect first")
	}

	names, err := p.tableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("database: listing tables: %w", err)
	}

	tables := make([]TableInfo, 0, len(names))
	byName := make(map[string]*TableInfo, len(names))
	for _, name := range names {
		tables = append(tables, TableInfo{Name: name, Schema: p.schema})
	}
	for i := range tables {
		byName[tables[i].Name] = &tables[i]
	}

	if err := p.loadColumns(ctx, byName); err != nil {
		return nil, fmt.Errorf("database: reading columns: %w", err)
	}
	if err := p.loadPrimaryKeys(ctx, byName); err != nil {
		return nil, fmt.Errorf("database: reading primary keys: %w", err)
	}
	if err := p.loadForeignKeys(ctx, byName); err != nil {
		return nil, fmt.Errorf("database: reading foreign keys: %w", err)
	}
	return tables, nil
}

func (p *Postgres) tableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := p.pool.Query(ctx, query, p.schema)
	if err != nil {
		return nil, err
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
	return names, rows.Err()
}

func (p *Postgres) loadColumns(ctx context.Context, byName map[string]*TableInfo) error {
	query := `
		SELECT
			table_name,
			column_name,
			data_type,
			is_nullable,
			column_default,
			(column_default LIKE 'nextval(%' OR is_identity = 'YES') AS is_sequence
		FROM information_schema.columns
		WHERE table_schema = $1
		ORDER BY table_name, ordinal_position`

	rows, err := p.pool.Query(ctx, query, p.schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tableName, colName, dataType, nullable string
			defaultVal                             *string
			isSequence                             bool
		)
		if err := rows.Scan(&tableName, &colName, &dataType, &nullable, &defaultVal, &isSequence); err != nil {
			return err
		}
		t, ok := byName[tableName]
		if !ok {
			continue
		}
		t.Columns = append(t.Columns, ColumnInfo{
			Name:          colName,
			DataType:      dataType,
			Nullable:      nullable == "YES",
			Default:       defaultVal,
			AutoIncrement: isSequence,
		})
	}
	return rows.Err()
}

func (p *Postgres) loadPrimaryKeys(ctx context.Context, byName map[string]*TableInfo) error {
	query := `
		SELECT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		  AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1
		ORDER BY tc.table_name, kcu.ordinal_position`

	rows, err := p.pool.Query(ctx, query, p.schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, colName string
		if err := rows.Scan(&tableName, &colName); err != nil {
			return err
		}
		t, ok := byName[tableName]
		if !ok {
			continue
		}
		for i := range t.Columns {
			if t.Columns[i].Name == colName {
				t.Columns[i].PrimaryKey = true
				break
			}
		}
	}
	return rows.Err()
}

func (p *Postgres) loadForeignKeys(ctx context.Context, byName map[string]*TableInfo) error {
	query := `
		SELECT
			tc.table_name,
			kcu.column_name,
			ccu.table_name AS referenced_table,
			ccu.column_name AS referenced_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		  AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name
		  AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = $1
		ORDER BY tc.table_name, kcu.ordinal_position`

	rows, err := p.pool.Query(ctx, query, p.schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, colName, refTable, refColumn string
		if err := rows.Scan(&tableName, &colName, &refTable, &refColumn); err != nil {
			return err
		}
		t, ok := byName[tableName]
		if !ok {
			continue
		}
		for i := range t.Columns {
			if t.Columns[i].Name == colName {
				t.Columns[i].ForeignKey = refTable + "." + refColumn
				break
			}
		}
	}
	return rows.Err()
}

var _ Introspector = (*Postgres)(nil)
