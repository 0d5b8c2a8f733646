// Package ddl defines a small, backend-agnostic model for SQL DDL and renders
// CREATE TABLE statements from it through a per-backend Dialect.
//
// Backends (internal/storage/postgres, sqlite, mysql, mssql) own their
// Dialect: identifier quoting, the SQL type of each ColumnKind, and how a
// "create if missing" guard is spelled.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures what differs between SQL backends when rendering DDL.
type Dialect struct {
	// Name prefixes error messages, e.g. "sqlite".
	Name string

	// Quote quotes a single identifier segment.
	Quote func(id string) string

	// Types maps each ColumnKind to the backend SQL type.
	Types map[ColumnKind]string

	// Guard wraps a bare "CREATE TABLE ..." statement so it is a no-op when
	// the table exists. Nil means the dialect supports IF NOT EXISTS.
	Guard func(quotedFQN, create string) string
}

// QuoteFQN quotes each dotted segment of fqn with d.Quote.
//
//	"dbo.orders" -> [dbo].[orders]   (mssql)
//	"orders"     -> "orders"         (postgres, sqlite)
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.Quote(p))
	}
	return strings.Join(out, ".")
}

// QuoteAll quotes every column name in cols.
func (d Dialect) QuoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = d.Quote(c)
	}
	return out
}

// BuildCreateTableSQL renders an idempotent CREATE TABLE statement for t.
//
// Rules:
//
//   - t.FQN must be non-empty.
//   - Each column must have a non-empty Name and a Kind known to d.Types.
//   - A column is rendered as <quoted name> <type> [NOT NULL].
//
// Without a Guard the statement has the form:
//
//	CREATE TABLE IF NOT EXISTS "t" (
//	  "col1" TYPE NOT NULL,
//	  "col2" TYPE
//	);
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ, ok := d.Types[c.Kind]
		if !ok || typ == "" {
			return "", fmt.Errorf("%s ddl: no SQL type for column %s (kind %d)", d.Name, name, c.Kind)
		}

		var sb strings.Builder
		sb.WriteString(d.Quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	quoted := d.QuoteFQN(fqn)
	if d.Guard != nil {
		create := fmt.Sprintf("CREATE TABLE %s (\n    %s\n  );", quoted, strings.Join(cols, ",\n    "))
		return d.Guard(quoted, create), nil
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoted,
		strings.Join(cols, ",\n  "),
	), nil
}

// DoubleQuote quotes an identifier with ANSI double quotes, doubling any
// embedded quote. Shared by the postgres and sqlite dialects.
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
