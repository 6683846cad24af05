package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/msmirnov/askanswerbot/models"
)

const metaFile = "meta.json"

// FileBackend keeps one JSON file per bank plus meta.json in a data
// directory. Saves go through a temp file and rename so a bank file is
// never left half-written.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the data directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) bankPath(name string) string {
	return filepath.Join(f.dir, name+".json")
}

// LoadBank reads a bank's persisted state. An unknown name is not an
// error: an empty bank is persisted and returned.
func (f *FileBackend) LoadBank(name string) (*models.Bank, error) {
	if err := ValidateBankName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.bankPath(name))
	if os.IsNotExist(err) {
		bank := models.NewBank()
		if err := f.SaveBank(name, bank); err != nil {
			return nil, err
		}
		return bank, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bank %q: %w", name, err)
	}

	var bank models.Bank
	if err := json.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse bank %q: %w", name, err)
	}
	if bank.Questions == nil {
		bank.Questions = []models.Question{}
	}
	return &bank, nil
}

// SaveBank overwrites the bank's persisted state atomically.
func (f *FileBackend) SaveBank(name string, bank *models.Bank) error {
	if err := ValidateBankName(name); err != nil {
		return err
	}
	data, err := json.MarshalIndent(bank, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize bank %q: %w", name, err)
	}
	return f.writeAtomic(f.bankPath(name), data)
}

// DeleteBank removes a bank's persisted state irreversibly.
func (f *FileBackend) DeleteBank(name string) error {
	if err := ValidateBankName(name); err != nil {
		return err
	}
	err := os.Remove(f.bankPath(name))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

// ListBanks returns the names of all stored banks. The meta record and
// in-flight temp files are not banks.
func (f *FileBackend) ListBanks() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == metaFile || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// LoadMeta reads the active-bank record, bootstrapping a default one on
// first use.
func (f *FileBackend) LoadMeta() (*models.Meta, error) {
	path := filepath.Join(f.dir, metaFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		meta := &models.Meta{CurrentBank: DefaultBank}
		if err := f.SaveMeta(meta); err != nil {
			return nil, err
		}
		return meta, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read meta record: %w", err)
	}

	var meta models.Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse meta record: %w", err)
	}
	if meta.CurrentBank == "" {
		meta.CurrentBank = DefaultBank
	}
	return &meta, nil
}

// SaveMeta overwrites the active-bank record.
func (f *FileBackend) SaveMeta(meta *models.Meta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize meta record: %w", err)
	}
	return f.writeAtomic(filepath.Join(f.dir, metaFile), data)
}

// Close is a no-op for the file backend.
func (f *FileBackend) Close() error {
	return nil
}

func (f *FileBackend) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
