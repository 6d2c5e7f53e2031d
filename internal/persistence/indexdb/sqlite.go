// Package indexdb maintains a secondary sqlite index of sessions and handled
// commands. It is a read model for operators; the sim never reads it back.
package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"homestead.ai/internal/sim/authority"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqSession reqKind = iota + 1
	reqAudit
)

type req struct {
	kind reqKind

	session sessionRow
	audit   authority.AuditEntry
}

type sessionRow struct {
	SessionID  string
	EditorName string
	StartedAt  string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// High buffer: absorb bursty command traffic without stalling the host loop.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			editor_name TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			command_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			entity TEXT,
			ok INTEGER NOT NULL,
			code TEXT,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_session_tick ON commands(session_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordSession notes a new editor session. Non-blocking; drops if the
// indexer falls behind.
func (s *SQLiteIndex) RecordSession(sessionID, editorName string) {
	if s == nil || s.closed.Load() {
		return
	}
	r := sessionRow{
		SessionID:  sessionID,
		EditorName: editorName,
		StartedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqSession, session: r}:
	default:
	}
}

// WriteAudit implements authority.AuditSink. Non-blocking; the JSONL audit
// log remains the source of truth if rows get dropped here.
func (s *SQLiteIndex) WriteAudit(entry authority.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
	}
	return nil
}

func (s *SQLiteIndex) loop() {
	insertSession, _ := s.db.Prepare(`INSERT OR REPLACE INTO sessions(session_id,editor_name,started_at) VALUES(?,?,?)`)
	insertCommand, _ := s.db.Prepare(`INSERT OR REPLACE INTO commands(tick,seq,session_id,command_id,kind,entity,ok,code) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertSession != nil {
			_ = insertSession.Close()
		}
		if insertCommand != nil {
			_ = insertCommand.Close()
		}
	}()

	var (
		lastTick uint64
		seq      int
	)
	for r := range s.ch {
		switch r.kind {
		case reqSession:
			if insertSession == nil {
				continue
			}
			_, _ = insertSession.Exec(r.session.SessionID, r.session.EditorName, r.session.StartedAt)
		case reqAudit:
			if insertCommand == nil {
				continue
			}
			if r.audit.Tick != lastTick {
				lastTick = r.audit.Tick
				seq = 0
			}
			ok := 0
			if r.audit.OK {
				ok = 1
			}
			_, _ = insertCommand.Exec(
				r.audit.Tick, seq, r.audit.SessionID, r.audit.CommandID,
				r.audit.Kind, r.audit.Entity, ok, r.audit.Code,
			)
			seq++
		}
	}
}

// CountCommands reports how many command rows a session has.
func (s *SQLiteIndex) CountCommands(sessionID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM commands WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
