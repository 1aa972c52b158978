package accountstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// SQLType is the registry type of the SQL store.
const SQLType = "sql"

const defaultTable = "dsauth_accounts"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Dialect selects placeholder and upsert syntax.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

var dialectAliases = map[string]Dialect{
	"postgres":   Postgres,
	"postgresql": Postgres,
	"mysql":      MySQL,
	"mariadb":    MySQL,
}

// SQLStore keeps secrets in a two column table (account_id, secret).
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sql.DB, dialect Dialect, table string) (*SQLStore, error) {
	if table == "" {
		table = defaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if dialect != Postgres && dialect != MySQL {
		return nil, fmt.Errorf("unsupported SQL dialect %q", dialect)
	}
	return &SQLStore{db: db, dialect: dialect, table: table}, nil
}

// NewSQLStoreFactory opens a database from "driver", "dsn" and "table".
func NewSQLStoreFactory(config map[string]interface{}) (Store, error) {
	name := strings.ToLower(stringOption(config, "driver", "postgres"))
	dialect, ok := dialectAliases[name]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", name)
	}

	dsn := stringOption(config, "dsn", "")
	if dsn == "" {
		return nil, fmt.Errorf("missing required 'dsn' field for SQL account store")
	}
	if dialect == MySQL {
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
		}
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	return NewSQLStore(db, dialect, stringOption(config, "table", defaultTable))
}

func (s *SQLStore) Name() string { return SQLType }

func (s *SQLStore) placeholder(n int) string {
	if s.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// EnsureSchema creates the table when it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (account_id VARCHAR(255) PRIMARY KEY, secret TEXT NOT NULL)", s.table)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return storeError(SQLType, "create table", s.table, transientSQL(err), err)
	}
	return nil
}

func (s *SQLStore) Password(ctx context.Context, accountID string) (string, bool, error) {
	q := fmt.Sprintf("SELECT secret FROM %s WHERE account_id = %s", s.table, s.placeholder(1))

	var secret string
	err := s.db.QueryRowContext(ctx, q, accountID).Scan(&secret)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storeError(SQLType, "select", accountID, transientSQL(err), err)
	}
	return secret, true, nil
}

func (s *SQLStore) SetPassword(ctx context.Context, accountID, secret string) error {
	var q string
	switch s.dialect {
	case Postgres:
		q = fmt.Sprintf("INSERT INTO %s (account_id, secret) VALUES ($1, $2) ON CONFLICT (account_id) DO UPDATE SET secret = EXCLUDED.secret", s.table)
	default:
		q = fmt.Sprintf("INSERT INTO %s (account_id, secret) VALUES (?, ?) ON DUPLICATE KEY UPDATE secret = VALUES(secret)", s.table)
	}

	if _, err := s.db.ExecContext(ctx, q, accountID, secret); err != nil {
		return storeError(SQLType, "upsert", accountID, transientSQL(err), err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, accountID string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE account_id = %s", s.table, s.placeholder(1))

	res, err := s.db.ExecContext(ctx, q, accountID)
	if err != nil {
		return storeError(SQLType, "delete", accountID, transientSQL(err), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// transientSQL reports connection level failures. Constraint violations,
// syntax errors and permission problems are permanent.
func transientSQL(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 08: connection exception, 53: insufficient resources, 57P: operator intervention
		class := string(pqErr.Code.Class())
		return class == "08" || class == "53" || strings.HasPrefix(string(pqErr.Code), "57P")
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1040, 1205, 1213: // too many connections, lock wait timeout, deadlock
			return true
		}
		return false
	}

	// unknown driver errors are assumed to come from the network
	return true
}
