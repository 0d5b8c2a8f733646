// Package mysql implements a MySQL-backed storage.Repository using
// go-sql-driver/mysql. CopyFrom issues multi-row INSERT statements inside a
// transaction, chunked to stay under the server's placeholder limit.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"salesreport/internal/ddl"
)

// maxPlaceholders is MySQL's prepared-statement parameter limit.
const maxPlaceholders = 65535

// Dialect renders MySQL DDL.
var Dialect = ddl.Dialect{
	Name:  "mysql",
	Quote: myIdent,
	Types: map[ddl.ColumnKind]string{
		ddl.KindText:  "VARCHAR(255)",
		ddl.KindDate:  "DATE",
		ddl.KindFloat: "DOUBLE",
		ddl.KindInt:   "INT",
	},
}

// Config holds MySQL repository configuration.
type Config struct {
	DSN     string // go-sql-driver DSN, e.g. "user:pass@tcp(host:3306)/db"
	Table   string
	Columns []string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository parses the DSN, opens a pool and pings it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	mc.ParseTime = true
	mc.Loc = time.UTC

	conn, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(conn)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// CopyFrom inserts rows with multi-row INSERT statements in one transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	per := rowsPerStatement(len(columns))
	var inserted int64
	for start := 0; start < len(rows); start += per {
		end := min(start+per, len(rows))
		chunk := rows[start:end]

		args := make([]any, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			if len(row) != len(columns) {
				rollback()
				return 0, fmt.Errorf("mysql: row %d length %d != columns length %d", start+i, len(row), len(columns))
			}
			args = append(args, row...)
		}
		res, err := tx.ExecContext(ctx, buildInsertSQL(r.cfg.Table, columns, len(chunk)), args...)
		if err != nil {
			rollback()
			return 0, fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			rollback()
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// Exec executes a single SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("mysql: exec: %w", err)
	}
	return nil
}

func rowsPerStatement(ncols int) int {
	if ncols <= 0 {
		return 1
	}
	return max(1, maxPlaceholders/ncols)
}

// buildInsertSQL renders INSERT INTO `t` (`a`,`b`) VALUES (?,?),(?,?).
func buildInsertSQL(table string, columns []string, nrows int) string {
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(myFQN(table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(Dialect.QuoteAll(columns), ","))
	sb.WriteString(") VALUES ")
	for i := 0; i < nrows; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(tuple)
	}
	return sb.String()
}

func myIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

func myFQN(name string) string { return Dialect.QuoteFQN(name) }
