package database

import (
	"fmt"
	"strings"

	"github.com/toolforge/toolforge/internal/nameutil"
	"github.com/toolforge/toolforge/internal/schema"
	"github.com/toolforge/toolforge/internal/toolspec"
)

const (
	defaultListLimit  = 100
	defaultListOffset = 0
)

var driverImports = map[Engine]string{
	EnginePostgres: "github.com/jackc/pgx/v5/stdlib",
	EngineSQLite:   "modernc.org/sqlite",
}

// Tools compiles introspected tables into CRUD tool descriptors. Tables
// with a primary key get get/list/create/update/delete; tables without one
// get only list and create. Auto-increment keys are left out of create's
// writable fields but stay the sole required key of get/update/delete.
func Tools(engine Engine, tables []TableInfo) []toolspec.ToolSpec {
	var specs []toolspec.ToolSpec
	for i := range tables {
		specs = append(specs, tableTools(engine, &tables[i])...)
	}
	return toolspec.Dedupe(specs)
}

func tableTools(engine Engine, table *TableInfo) []toolspec.ToolSpec {
	safe := nameutil.SanitizeTable(table.Name)
	pk := table.PrimaryKey()

	var specs []toolspec.ToolSpec
	if pk != nil {
		specs = append(specs, getTool(engine, table, safe, pk))
	}
	specs = append(specs, listTool(engine, table, safe))
	specs = append(specs, createTool(engine, table, safe))
	if pk != nil {
		specs = append(specs, updateTool(engine, table, safe, pk))
		specs = append(specs, deleteTool(engine, table, safe, pk))
	}
	return specs
}

func getTool(engine Engine, table *TableInfo, safe string, pk *ColumnInfo) toolspec.ToolSpec {
	input := schema.New(schema.KindObject)
	input.SetProp(pk.Name, columnNode(*pk, "Primary key value"))
	input.Required = []string{pk.Name}

	impl := fmt.Sprintf("return dbQuery(ctx, %q, args[%q])",
		fmt.Sprintf("SELECT * FROM %s WHERE %s = %s", table.Name, pk.Name, placeholder(engine, 1)),
		pk.Name)

	return toolspec.ToolSpec{
		Name:         "get_" + safe,
		Description:  fmt.Sprintf("Get a %s record by %s", table.Name, pk.Name),
		Input:        input,
		Impl:         impl,
		Dependencies: []string{driverImports[engine]},
	}
}

func listTool(engine Engine, table *TableInfo, safe string) toolspec.ToolSpec {
	input := schema.New(schema.KindObject)
	for _, col := range table.Columns {
		input.SetProp(col.Name, columnNode(col, "Filter by "+col.Name))
	}
	limit := schema.New(schema.KindInteger)
	limit.Description = "Maximum records to return"
	limit.Default = defaultListLimit
	input.SetProp("limit", limit)
	offset := schema.New(schema.KindInteger)
	offset.Description = "Number of records to skip"
	offset.Default = defaultListOffset
	input.SetProp("offset", offset)

	var b strings.Builder
	fmt.Fprintf(&b, "where := make([]string, 0, %d)\n", len(table.Columns))
	fmt.Fprintf(&b, "params := make([]any, 0, %d)\n", len(table.Columns))
	for _, col := range table.Columns {
		fmt.Fprintf(&b, "if v, ok := args[%q]; ok {\n\tparams = append(params, v)\n\twhere = append(where, %q+dbPlaceholder(len(params)))\n}\n",
			col.Name, col.Name+" = ")
	}
	fmt.Fprintf(&b, "query := %q\n", "SELECT * FROM "+table.Name)
	b.WriteString("if len(where) > 0 {\n\tquery += \" WHERE \" + strings.Join(where, \" AND \")\n}\n")
	fmt.Fprintf(&b, "query += fmt.Sprintf(\" LIMIT %%d OFFSET %%d\", argInt(args, \"limit\", %d), argInt(args, \"offset\", %d))\n",
		defaultListLimit, defaultListOffset)
	b.WriteString("return dbQuery(ctx, query, params...)")

	return toolspec.ToolSpec{
		Name:         "list_" + safe,
		Description:  fmt.Sprintf("List %s records with optional filtering", table.Name),
		Input:        input,
		Impl:         b.String(),
		Dependencies: []string{driverImports[engine]},
	}
}

func createTool(engine Engine, table *TableInfo, safe string) toolspec.ToolSpec {
	input := schema.New(schema.KindObject)
	var writable []string
	for _, col := range table.Columns {
		if isAutoIncrement(col) {
			continue
		}
		input.SetProp(col.Name, columnNode(col, col.DataType))
		writable = append(writable, col.Name)
		if !col.Nullable && col.Default == nil {
			input.Required = append(input.Required, col.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "cols := make([]string, 0, %d)\n", len(writable))
	fmt.Fprintf(&b, "params := make([]any, 0, %d)\n", len(writable))
	fmt.Fprintf(&b, "for _, name := range %s {\n", stringSliceLiteral(writable))
	b.WriteString("\tif v, ok := args[name]; ok {\n\t\tparams = append(params, v)\n\t\tcols = append(cols, name)\n\t}\n}\n")
	b.WriteString("if len(cols) == 0 {\n\treturn nil, fmt.Errorf(\"no fields to insert\")\n}\n")
	b.WriteString("marks := make([]string, len(cols))\nfor i := range cols {\n\tmarks[i] = dbPlaceholder(i + 1)\n}\n")
	fmt.Fprintf(&b, "query := fmt.Sprintf(\"INSERT INTO %s (%%s) VALUES (%%s)\", strings.Join(cols, \", \"), strings.Join(marks, \", \"))\n", table.Name)
	b.WriteString("return dbExec(ctx, query, params...)")

	return toolspec.ToolSpec{
		Name:         "create_" + safe,
		Description:  fmt.Sprintf("Create a new %s record", table.Name),
		Input:        input,
		Impl:         b.String(),
		Dependencies: []string{driverImports[engine]},
	}
}

func updateTool(engine Engine, table *TableInfo, safe string, pk *ColumnInfo) toolspec.ToolSpec {
	input := schema.New(schema.KindObject)
	input.SetProp(pk.Name, columnNode(*pk, "Primary key of the record to update"))
	input.Required = []string{pk.Name}

	var updatable []string
	for _, col := range table.Columns {
		if col.PrimaryKey {
			continue
		}
		input.SetProp(col.Name, columnNode(col, "New value for "+col.Name))
		updatable = append(updatable, col.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "sets := make([]string, 0, %d)\n", len(updatable))
	fmt.Fprintf(&b, "params := make([]any, 0, %d)\n", len(updatable))
	fmt.Fprintf(&b, "for _, name := range %s {\n", stringSliceLiteral(updatable))
	b.WriteString("\tif v, ok := args[name]; ok {\n\t\tparams = append(params, v)\n\t\tsets = append(sets, name+\" = \"+dbPlaceholder(len(params)))\n\t}\n}\n")
	b.WriteString("if len(sets) == 0 {\n\treturn nil, fmt.Errorf(\"no fields to update\")\n}\n")
	fmt.Fprintf(&b, "params = append(params, args[%q])\n", pk.Name)
	fmt.Fprintf(&b, "query := fmt.Sprintf(\"UPDATE %s SET %%s WHERE %s = %%s\", strings.Join(sets, \", \"), dbPlaceholder(len(params)))\n",
		table.Name, pk.Name)
	b.WriteString("return dbExec(ctx, query, params...)")

	return toolspec.ToolSpec{
		Name:         "update_" + safe,
		Description:  fmt.Sprintf("Update a %s record", table.Name),
		Input:        input,
		Impl:         b.String(),
		Dependencies: []string{driverImports[engine]},
	}
}

func deleteTool(engine Engine, table *TableInfo, safe string, pk *ColumnInfo) toolspec.ToolSpec {
	input := schema.New(schema.KindObject)
	input.SetProp(pk.Name, columnNode(*pk, "Primary key of the record to delete"))
	input.Required = []string{pk.Name}

	impl := fmt.Sprintf("return dbExec(ctx, %q, args[%q])",
		fmt.Sprintf("DELETE FROM %s WHERE %s = %s", table.Name, pk.Name, placeholder(engine, 1)),
		pk.Name)

	return toolspec.ToolSpec{
		Name:         "delete_" + safe,
		Description:  fmt.Sprintf("Delete a %s record", table.Name),
		Input:        input,
		Impl:         impl,
		Dependencies: []string{driverImports[engine]},
	}
}

func columnNode(col ColumnInfo, description string) *schema.Node {
	n := schema.New(KindForSQLType(col.DataType))
	n.Description = description
	return n
}

func placeholder(engine Engine, i int) string {
	if engine == EnginePostgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

func stringSliceLiteral(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}
