// Package sqlite implements the embedded-database log destination: an
// append-only LogEntries table written through a bounded connection
// pool.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/msto63/logpipe/core/log"
	"github.com/msto63/logpipe/sink"
)

// DefaultPoolSize bounds the connection pool when none is configured.
const DefaultPoolSize = 4

// Options configures the sqlite destination.
type Options struct {
	sink.Options

	// PoolSize bounds the connection pool; zero selects DefaultPoolSize
	// and a negative value is rejected.
	PoolSize int
}

// Sink writes log entries into the LogEntries table of an embedded
// SQLite database.
type Sink struct {
	*sink.Base
	db   *sql.DB
	pool *Pool
}

// dbConn adapts *sql.Conn to the pool's Conn interface.
type dbConn struct {
	*sql.Conn
}

func (c *dbConn) Ping(ctx context.Context) error {
	return c.PingContext(ctx)
}

// New opens (or creates) the database, initializes the schema and
// builds the destination. Schema initialization failures are fatal:
// they mean the sink is unusable for the process lifetime.
func New(path string, opts Options) (*Sink, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: database path cannot be empty")
	}
	poolSize := opts.PoolSize
	if poolSize == 0 {
		poolSize = DefaultPoolSize
	}
	if poolSize < 0 {
		return nil, ErrBadPoolSize
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	db.SetMaxOpenConns(poolSize)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: initializing schema: %w", err)
	}

	pool, err := NewPool(poolSize, func(ctx context.Context) (Conn, error) {
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, err
		}
		return &dbConn{conn}, nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Sink{db: db, pool: pool}
	s.Base = sink.NewBase("sqlite", opts.Options, s.persistEntry)
	return s, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS LogEntries (
		Id TEXT PRIMARY KEY,
		TimestampUtc DATETIME NOT NULL,
		LogLevel TEXT NOT NULL,
		CategoryName TEXT NOT NULL,
		EventId INTEGER NOT NULL DEFAULT 0,
		EventName TEXT,
		Message TEXT NOT NULL,
		MessageTemplate TEXT,
		Properties TEXT,
		ScopeProperties TEXT,
		Exception TEXT,
		CreatedAt DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_logentries_timestamp ON LogEntries(TimestampUtc DESC);
	CREATE INDEX IF NOT EXISTS idx_logentries_level ON LogEntries(LogLevel);
	CREATE INDEX IF NOT EXISTS idx_logentries_category ON LogEntries(CategoryName);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *Sink) persistEntry(ctx context.Context, entry *log.Entry) error {
	lease, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	healthy := false
	defer func() { lease.Release(healthy) }()

	properties, err := marshalFields(entry.Properties)
	if err != nil {
		healthy = true
		return fmt.Errorf("encoding properties: %w", err)
	}
	scope, err := marshalFields(entry.ScopeProperties)
	if err != nil {
		healthy = true
		return fmt.Errorf("encoding scope properties: %w", err)
	}
	var exception []byte
	if entry.Exception != nil {
		exception, _ = json.Marshal(entry.Exception)
	}

	conn := lease.Conn().(*dbConn)
	_, err = conn.ExecContext(ctx, `
		INSERT INTO LogEntries (Id, TimestampUtc, LogLevel, CategoryName, EventId, EventName,
			Message, MessageTemplate, Properties, ScopeProperties, Exception, CreatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), entry.TimestampUtc, entry.Level.String(), entry.Category,
		entry.EventID, entry.EventName, entry.Message, entry.MessageTemplate,
		nullable(properties), nullable(scope), nullable(exception), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	healthy = true
	return nil
}

func marshalFields(fields log.Fields) ([]byte, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	return json.Marshal(fields)
}

func nullable(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return string(b)
}

// Filter defines criteria for querying persisted entries.
type Filter struct {
	Level     log.Level
	HasLevel  bool
	Category  string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// Record is one persisted log entry as read back from the table.
type Record struct {
	ID        string
	Entry     log.Entry
	CreatedAt time.Time
}

// Query reads persisted entries, newest first.
func (s *Sink) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	query := `SELECT Id, TimestampUtc, LogLevel, CategoryName, EventId, EventName,
		Message, MessageTemplate, Properties, ScopeProperties, Exception, CreatedAt
		FROM LogEntries WHERE 1=1`
	var args []interface{}

	if filter.HasLevel {
		query += " AND LogLevel = ?"
		args = append(args, filter.Level.String())
	}
	if filter.Category != "" {
		query += " AND CategoryName = ?"
		args = append(args, filter.Category)
	}
	if !filter.StartTime.IsZero() {
		query += " AND TimestampUtc >= ?"
		args = append(args, filter.StartTime)
	}
	if !filter.EndTime.IsZero() {
		query += " AND TimestampUtc <= ?"
		args = append(args, filter.EndTime)
	}
	query += " ORDER BY TimestampUtc DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying entries: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		r          Record
		level      string
		eventName  sql.NullString
		template   sql.NullString
		properties sql.NullString
		scope      sql.NullString
		exception  sql.NullString
	)
	if err := rows.Scan(&r.ID, &r.Entry.TimestampUtc, &level, &r.Entry.Category,
		&r.Entry.EventID, &eventName, &r.Entry.Message, &template,
		&properties, &scope, &exception, &r.CreatedAt); err != nil {
		return nil, fmt.Errorf("sqlite: scanning entry: %w", err)
	}
	if parsed, err := log.ParseLevel(level); err == nil {
		r.Entry.Level = parsed
	}
	r.Entry.EventName = eventName.String
	r.Entry.MessageTemplate = template.String
	if properties.Valid {
		json.Unmarshal([]byte(properties.String), &r.Entry.Properties)
	}
	if scope.Valid {
		json.Unmarshal([]byte(scope.String), &r.Entry.ScopeProperties)
	}
	if exception.Valid {
		json.Unmarshal([]byte(exception.String), &r.Entry.Exception)
	}
	return &r, nil
}

// Prune deletes entries older than the given age and returns the number
// removed.
func (s *Sink) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := s.db.ExecContext(ctx, `DELETE FROM LogEntries WHERE TimestampUtc < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sqlite: pruning entries: %w", err)
	}
	return result.RowsAffected()
}

// Close performs a final flush and releases the pool and database.
func (s *Sink) Close(ctx context.Context) error {
	s.Flush(ctx)
	s.pool.Close()
	return s.db.Close()
}
