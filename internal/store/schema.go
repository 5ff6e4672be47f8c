package store

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// dialect renders column types for one SQL backend.
type dialect struct {
	text      string
	real      string
	integer   string
	boolean   string
	timestamp string
	zeroTime  string
	zeroBool  string
}

var postgresDialect = dialect{
	text:      "TEXT",
	real:      "DOUBLE PRECISION",
	integer:   "INTEGER",
	boolean:   "BOOLEAN",
	timestamp: "TIMESTAMPTZ",
	zeroTime:  "'0001-01-01T00:00:00Z'",
	zeroBool:  "false",
}

// SQLite keeps dates as TEXT so that malformed values survive the round
// trip and surface as zero dates instead of driver errors.
var sqliteDialect = dialect{
	text:      "TEXT",
	real:      "REAL",
	integer:   "INTEGER",
	boolean:   "INTEGER",
	timestamp: "TEXT",
	zeroTime:  "''",
	zeroBool:  "0",
}

var timeType = reflect.TypeFor[time.Time]()

// column maps one struct field to one table column.
type column struct {
	name     string
	index    int
	base     reflect.Type // field type with any pointer removed
	nullable bool
}

func columnsOf(t reflect.Type) []column {
	cols := make([]column, 0, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		name := f.Tag.Get("db")
		if name == "" || name == "-" {
			continue
		}
		c := column{name: name, index: i, base: f.Type}
		if f.Type.Kind() == reflect.Pointer {
			c.base = f.Type.Elem()
			c.nullable = true
		}
		cols = append(cols, c)
	}
	return cols
}

func columnNames(cols []column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

func (d dialect) columnDDL(c column) string {
	var typ, zero string
	switch {
	case c.base == timeType:
		typ, zero = d.timestamp, d.zeroTime
	case c.base.Kind() == reflect.String:
		typ, zero = d.text, "''"
	case c.base.Kind() == reflect.Float64:
		typ, zero = d.real, "0"
	case c.base.Kind() == reflect.Int:
		typ, zero = d.integer, "0"
	case c.base.Kind() == reflect.Bool:
		typ, zero = d.boolean, d.zeroBool
	default:
		typ, zero = d.text, "''"
	}
	if c.name == "id" {
		return "id TEXT PRIMARY KEY"
	}
	if c.nullable {
		return c.name + " " + typ
	}
	return fmt.Sprintf("%s %s NOT NULL DEFAULT %s", c.name, typ, zero)
}

// createSQL returns the CREATE TABLE and foreign-key index statements for tb.
func (d dialect) createSQL(tb table) []string {
	cols := columnsOf(tb.typ)
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = "\t" + d.columnDDL(c)
	}
	stmts := []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", tb.name, strings.Join(defs, ",\n"))}
	for _, c := range cols {
		if strings.HasSuffix(c.name, "_id") {
			stmts = append(stmts, fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", tb.name, c.name, tb.name, c.name))
		}
	}
	return stmts
}

// selectSQL lists every row of tb in id order.
func selectSQL(tb table) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY id",
		strings.Join(columnNames(columnsOf(tb.typ)), ", "), tb.name)
}

// sqliteInsertSQL upserts one row of tb.
func sqliteInsertSQL(tb table) string {
	cols := columnNames(columnsOf(tb.typ))
	ph := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		tb.name, strings.Join(cols, ", "), ph)
}

// rowValues flattens a record into driver values in column order. encode
// converts non-nil time values for the target backend.
func rowValues(rec reflect.Value, cols []column, encode func(time.Time) any) []any {
	vals := make([]any, len(cols))
	for i, c := range cols {
		f := rec.Field(c.index)
		if c.nullable {
			if f.IsNil() {
				vals[i] = nil
				continue
			}
			f = f.Elem()
		}
		switch {
		case c.base == timeType:
			vals[i] = encode(f.Interface().(time.Time))
		case c.base.Kind() == reflect.String:
			vals[i] = f.String()
		case c.base.Kind() == reflect.Float64:
			vals[i] = f.Float()
		case c.base.Kind() == reflect.Int:
			vals[i] = f.Int()
		case c.base.Kind() == reflect.Bool:
			vals[i] = f.Bool()
		default:
			vals[i] = f.Interface()
		}
	}
	return vals
}
