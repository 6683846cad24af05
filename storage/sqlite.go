package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/msmirnov/askanswerbot/models"
)

// SQLiteBackend stores banks as rows in a SQLite database. Each row holds
// the same JSON document the file backend writes, keyed by bank name; the
// meta record lives in a single-row table.
type SQLiteBackend struct {
	conn *sql.DB
}

// NewSQLiteBackend opens the database and initializes tables.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err = createTables(db); err != nil {
		return nil, err
	}

	return &SQLiteBackend{conn: db}, nil
}

// Close closes the database connection.
func (s *SQLiteBackend) Close() error {
	return s.conn.Close()
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS banks (
			name TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			current_bank TEXT NOT NULL
		)
	`)
	return err
}

// LoadBank reads a bank row, bootstrapping an empty bank for an unknown
// name.
func (s *SQLiteBackend) LoadBank(name string) (*models.Bank, error) {
	if err := ValidateBankName(name); err != nil {
		return nil, err
	}

	var data string
	err := s.conn.QueryRow("SELECT data FROM banks WHERE name = ?", name).Scan(&data)
	if err == sql.ErrNoRows {
		bank := models.NewBank()
		if err := s.SaveBank(name, bank); err != nil {
			return nil, err
		}
		return bank, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bank %q: %w", name, err)
	}

	var bank models.Bank
	if err := json.Unmarshal([]byte(data), &bank); err != nil {
		return nil, fmt.Errorf("failed to parse bank %q: %w", name, err)
	}
	if bank.Questions == nil {
		bank.Questions = []models.Question{}
	}
	return &bank, nil
}

// SaveBank overwrites the bank row.
func (s *SQLiteBackend) SaveBank(name string, bank *models.Bank) error {
	if err := ValidateBankName(name); err != nil {
		return err
	}
	data, err := json.Marshal(bank)
	if err != nil {
		return fmt.Errorf("failed to serialize bank %q: %w", name, err)
	}
	_, err = s.conn.Exec(
		"INSERT OR REPLACE INTO banks (name, data) VALUES (?, ?)",
		name, string(data),
	)
	return err
}

// DeleteBank removes the bank row.
func (s *SQLiteBackend) DeleteBank(name string) error {
	if err := ValidateBankName(name); err != nil {
		return err
	}
	res, err := s.conn.Exec("DELETE FROM banks WHERE name = ?", name)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBanks returns the names of all stored banks.
func (s *SQLiteBackend) ListBanks() ([]string, error) {
	rows, err := s.conn.Query("SELECT name FROM banks ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LoadMeta reads the active-bank record, bootstrapping a default one on
// first use.
func (s *SQLiteBackend) LoadMeta() (*models.Meta, error) {
	var current string
	err := s.conn.QueryRow("SELECT current_bank FROM meta WHERE id = 1").Scan(&current)
	if err == sql.ErrNoRows {
		meta := &models.Meta{CurrentBank: DefaultBank}
		if err := s.SaveMeta(meta); err != nil {
			return nil, err
		}
		return meta, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read meta record: %w", err)
	}
	return &models.Meta{CurrentBank: current}, nil
}

// SaveMeta overwrites the active-bank record.
func (s *SQLiteBackend) SaveMeta(meta *models.Meta) error {
	_, err := s.conn.Exec(
		"INSERT OR REPLACE INTO meta (id, current_bank) VALUES (1, ?)",
		meta.CurrentBank,
	)
	return err
}
