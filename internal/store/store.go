package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const currentVersion = 1

const timeLayout = time.RFC3339

type Store struct {
	db     *sql.DB
	userID string
	now    func() time.Time
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := db.QueryRow(`SELECT value FROM settings WHERE key = ?`, SettingUserID).Scan(&s.userID); err != nil {
		db.Close()
		return nil, fmt.Errorf("read user id: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// UserID is the identity minted when the database was created. Every row
// the store writes belongs to it.
func (s *Store) UserID() string { return s.userID }

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS daily_logs (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id          TEXT NOT NULL,
		date             TEXT NOT NULL,
		calls_total      INTEGER NOT NULL DEFAULT 0,
		calls_refused    INTEGER NOT NULL DEFAULT 0,
		calls_no_answer  INTEGER NOT NULL DEFAULT 0,
		calls_answered   INTEGER NOT NULL DEFAULT 0,
		messages_sent    INTEGER NOT NULL DEFAULT 0,
		booked_la        INTEGER NOT NULL DEFAULT 0,
		booked_fv        INTEGER NOT NULL DEFAULT 0,
		booked_cad       INTEGER NOT NULL DEFAULT 0,
		new_leads        INTEGER NOT NULL DEFAULT 0,
		done_la          INTEGER NOT NULL DEFAULT 0,
		done_fv          INTEGER NOT NULL DEFAULT 0,
		done_cad         INTEGER NOT NULL DEFAULT 0,
		done_cde         INTEGER NOT NULL DEFAULT 0,
		won_la           INTEGER NOT NULL DEFAULT 0,
		won_fv           INTEGER NOT NULL DEFAULT 0,
		won_cad          INTEGER NOT NULL DEFAULT 0,
		target_calls     INTEGER NOT NULL DEFAULT 50,
		target_booked    INTEGER NOT NULL DEFAULT 2,
		target_won       INTEGER NOT NULL DEFAULT 1,
		energy_level     INTEGER NOT NULL DEFAULT 7,
		focus_level      INTEGER NOT NULL DEFAULT 7,
		confidence_level INTEGER NOT NULL DEFAULT 7,
		mood_note        TEXT NOT NULL DEFAULT '',
		updated_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		UNIQUE(user_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_logs_date ON daily_logs(date);

	CREATE TABLE IF NOT EXISTS monthly_plans (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id           TEXT NOT NULL,
		month             TEXT NOT NULL,
		workdays_per_week INTEGER NOT NULL DEFAULT 5,
		target_won_la     INTEGER NOT NULL DEFAULT 0,
		target_won_fv     INTEGER NOT NULL DEFAULT 0,
		target_won_cad    INTEGER NOT NULL DEFAULT 0,
		target_new_leads  INTEGER NOT NULL DEFAULT 0,
		updated_at        TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		UNIQUE(user_id, month)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('workdays_per_week',   '5'),
		('daily_call_capacity', '0'),
		('last_sync',           '');
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, SettingUserID, uuid.NewString())
	return err
}

// DefaultDBPath returns ~/.config/quotadesk/quotadesk.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "quotadesk", "quotadesk.db"), nil
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, _ := time.Parse(timeLayout, v)
	return t
}
