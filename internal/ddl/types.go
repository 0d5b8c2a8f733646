package ddl

// ColumnKind is the logical type of a column. Dialects map each kind to a
// concrete SQL type at render time.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindDate
	KindFloat
	KindInt
)

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - Kind: logical type, resolved through Dialect.Types
//   - Nullable: whether NULL is allowed
type ColumnDef struct {
	Name     string
	Kind     ColumnKind
	Nullable bool
}

// TableDef holds the table name and an ordered list of columns. The FQN may
// be dotted ("schema.table"); each segment is quoted separately.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}
