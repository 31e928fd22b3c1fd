package journal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"crawshaw.io/sqlite"
	"github.com/google/uuid"
)

// SQLiteJournal is an implementation of Journal that uses SQLite.
type SQLiteJournal struct {
	mu     sync.Mutex
	conn   *sqlite.Conn
	dbPath string
}

// NewSQLiteJournal creates a new SQLiteJournal instance.
func NewSQLiteJournal() *SQLiteJournal {
	return &SQLiteJournal{}
}

// Initialize initializes the journal with the given database path.
func (j *SQLiteJournal) Initialize(dbPath string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.dbPath = dbPath

	conn, err := sqlite.OpenConn(dbPath, sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_READWRITE)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	j.conn = conn

	if err := j.createTable(); err != nil {
		j.conn.Close()
		j.conn = nil
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// createTable creates the change_journal table if it doesn't exist.
func (j *SQLiteJournal) createTable() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS change_journal (
		id TEXT PRIMARY KEY,
		recorded_at INTEGER NOT NULL,
		tool TEXT NOT NULL,
		target TEXT NOT NULL,
		behavior TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		endpoint_created INTEGER NOT NULL DEFAULT 0,
		endpoint_updated INTEGER NOT NULL DEFAULT 0,
		schema_created INTEGER NOT NULL DEFAULT 0,
		schema_updated INTEGER NOT NULL DEFAULT 0,
		fingerprint TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT ''
	);`

	stmt, err := j.conn.Prepare(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare create table statement: %w", err)
	}
	defer stmt.Reset()

	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to execute create table statement: %w", err)
	}

	return nil
}

// Close closes the journal and releases any resources.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.conn != nil {
		err := j.conn.Close()
		j.conn = nil
		return err
	}
	return nil
}

// Record stores one entry.
func (j *SQLiteJournal) Record(e Entry) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.conn == nil {
		return e, errors.New("journal not initialized")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	insertSQL := `
	INSERT INTO change_journal (id, recorded_at, tool, target, behavior, status,
		endpoint_created, endpoint_updated, schema_created, schema_updated, fingerprint, detail)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	stmt, err := j.conn.Prepare(insertSQL)
	if err != nil {
		return e, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Reset()

	// sqlite parameters are 1-based
	stmt.BindText(1, e.ID)
	stmt.BindInt64(2, e.Time.UnixNano())
	stmt.BindText(3, e.Tool)
	stmt.BindText(4, e.Target)
	stmt.BindText(5, e.Behavior)
	stmt.BindText(6, e.Status)
	stmt.BindInt64(7, int64(e.EndpointCreated))
	stmt.BindInt64(8, int64(e.EndpointUpdated))
	stmt.BindInt64(9, int64(e.SchemaCreated))
	stmt.BindInt64(10, int64(e.SchemaUpdated))
	stmt.BindText(11, e.Fingerprint)
	stmt.BindText(12, e.Detail)

	if _, err := stmt.Step(); err != nil {
		return e, fmt.Errorf("failed to insert journal entry: %w", err)
	}

	return e, nil
}

// Recent returns the newest entries first.
func (j *SQLiteJournal) Recent(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.conn == nil {
		return nil, errors.New("journal not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	selectSQL := `
	SELECT id, recorded_at, tool, target, behavior, status,
		endpoint_created, endpoint_updated, schema_created, schema_updated, fingerprint, detail
	FROM change_journal
	ORDER BY recorded_at DESC
	LIMIT ?;`

	stmt, err := j.conn.Prepare(selectSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Reset()
	stmt.BindInt64(1, int64(limit))

	var entries []Entry
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, fmt.Errorf("failed to execute select statement: %w", err)
		}
		if !hasRow {
			break
		}

		// columns are 0-based
		entries = append(entries, Entry{
			ID:              stmt.ColumnText(0),
			Time:            time.Unix(0, stmt.ColumnInt64(1)),
			Tool:            stmt.ColumnText(2),
			Target:          stmt.ColumnText(3),
			Behavior:        stmt.ColumnText(4),
			Status:          stmt.ColumnText(5),
			EndpointCreated: int(stmt.ColumnInt64(6)),
			EndpointUpdated: int(stmt.ColumnInt64(7)),
			SchemaCreated:   int(stmt.ColumnInt64(8)),
			SchemaUpdated:   int(stmt.ColumnInt64(9)),
			Fingerprint:     stmt.ColumnText(10),
			Detail:          stmt.ColumnText(11),
		})
	}

	return entries, nil
}
