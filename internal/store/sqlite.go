package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/everforgeworks/tradepost/internal/market"
)

// SQLite is the durable Store used by the daemon. The trading core runs on a
// single executor tick, so one connection is enough and keeps SQLite happy.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
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
	return &SQLite{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL keeps the per-mutation stock writes cheap enough to run inside
	// the executor tick budget.
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
		`CREATE TABLE IF NOT EXISTS stock (
			product_id TEXT PRIMARY KEY,
			qty INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS currencies (
			name TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS presets (
			actor_id TEXT NOT NULL,
			preset_id TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (actor_id, preset_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_presets_actor ON presets(actor_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) LoadStock(productID string) (int, bool, error) {
	var qty int
	err := s.db.QueryRow(`SELECT qty FROM stock WHERE product_id = ?`, productID).Scan(&qty)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load stock %q: %w", productID, err)
	}
	return qty, true, nil
}

func (s *SQLite) SaveStock(productID string, qty int) error {
	_, err := s.db.Exec(
		`INSERT INTO stock(product_id, qty, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(product_id) DO UPDATE SET qty = excluded.qty, updated_at = excluded.updated_at`,
		productID, qty, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save stock %q: %w", productID, err)
	}
	return nil
}

func (s *SQLite) LoadStockBulk(productIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(productIDs)), ",")
	args := make([]any, len(productIDs))
	for i, id := range productIDs {
		args[i] = id
	}

	rows, err := s.db.Query(
		`SELECT product_id, qty FROM stock WHERE product_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("bulk load stock: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var qty int
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		out[id] = qty
	}
	return out, rows.Err()
}

func (s *SQLite) SaveCurrency(c *market.CurrencyType) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO currencies(name, json, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET json = excluded.json, updated_at = excluded.updated_at`,
		c.Name, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save currency %q: %w", c.Name, err)
	}
	return nil
}

func (s *SQLite) LoadCurrencies() ([]market.CurrencyType, error) {
	rows, err := s.db.Query(`SELECT json FROM currencies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load currencies: %w", err)
	}
	defer rows.Close()

	var out []market.CurrencyType
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var c market.CurrencyType
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("decode currency record: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) SavePresets(actorID string, presets []market.Preset) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM presets WHERE actor_id = ?`, actorID); err != nil {
		return fmt.Errorf("clear presets for %q: %w", actorID, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for i := range presets {
		raw, err := json.Marshal(&presets[i])
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO presets(actor_id, preset_id, json, updated_at) VALUES(?, ?, ?, ?)`,
			actorID, presets[i].ID, string(raw), now); err != nil {
			return fmt.Errorf("save preset %q: %w", presets[i].ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) LoadPresets(actorID string) ([]market.Preset, error) {
	rows, err := s.db.Query(`SELECT json FROM presets WHERE actor_id = ? ORDER BY preset_id`, actorID)
	if err != nil {
		return nil, fmt.Errorf("load presets for %q: %w", actorID, err)
	}
	defer rows.Close()

	var out []market.Preset
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var p market.Preset
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode preset record: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
