// Package history provides SQLite-based persistence for scheduling
// requests. The database is opened lazily and created on first use.
// If opening the DB or executing queries fails, the package falls back
// to in-memory storage.
package history

import (
	"database/sql"
	"os"
	"sync"

	_ "github.com/glebarez/go-sqlite"

	"github.com/penciled/penciled/internal/logger"
)

var (
	mu      sync.Mutex
	records []Record // in-memory fallback

	dbOnce  sync.Once
	db      *sql.DB
	initErr error
)

// initDB lazily opens the SQLite database and creates the requests table if it doesn't exist.
func initDB() {
	var err error
	dbPath := os.Getenv("HISTORY_DB_PATH")
	if dbPath == "" {
		dbPath = "history.db"
	}
	db, err = sql.Open("sqlite", "file:"+dbPath+"?_busy_timeout=10000&_fk=1")
	if err != nil {
		initErr = err
		logger.L.Warn("sqlite open failed; using in-memory history", "error", err)
		return
	}
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS requests (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id TEXT,
        sentence TEXT,
        raw_output TEXT,
        event_id TEXT,
        html_link TEXT,
        starts_at DATETIME,
        ends_at DATETIME,
        status TEXT,
        error TEXT,
        created_at DATETIME
    );`); err != nil {
		initErr = err
		logger.L.Warn("sqlite table creation failed; using in-memory history", "error", err)
		return
	}
	logger.L.Info("sqlite history DB initialized")
}

// Save persists a record to the SQLite database when available and always keeps
// an in-memory copy as fallback.
func Save(rec Record) {
	dbOnce.Do(initDB)

	if initErr == nil && db != nil {
		_, err := db.Exec(`INSERT INTO requests (request_id, sentence, raw_output, event_id, html_link, starts_at, ends_at, status, error, created_at)
            VALUES (?,?,?,?,?,?,?,?,?,?);`,
			rec.RequestID, rec.Sentence, rec.RawOutput, rec.EventID, rec.HTMLLink, rec.StartsAt, rec.EndsAt, rec.Status, rec.Error, rec.CreatedAt)
		if err != nil {
			logger.L.Error("failed to store record in sqlite; falling back to memory", "error", err)
		}
	}

	mu.Lock()
	records = append(records, rec)
	mu.Unlock()
}

// Recent returns up to n records, newest first.
func Recent(n int) []Record {
	dbOnce.Do(initDB)
	var out []Record
	if initErr == nil && db != nil {
		rows, err := db.Query(`SELECT id, request_id, sentence, raw_output, event_id, html_link, starts_at, ends_at, status, error, created_at
            FROM requests ORDER BY id DESC LIMIT ?;`, n)
		if err == nil {
			defer rows.Close()
			for rows.Next() {
				var r Record
				if err := rows.Scan(&r.ID, &r.RequestID, &r.Sentence, &r.RawOutput, &r.EventID, &r.HTMLLink, &r.StartsAt, &r.EndsAt, &r.Status, &r.Error, &r.CreatedAt); err == nil {
					out = append(out, r)
				}
			}
			return out
		}
	}
	mu.Lock()
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, records[i])
	}
	mu.Unlock()
	return out
}
