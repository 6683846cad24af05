// Package bank maintains the catalog of named question banks and the
// pointer to the one currently in use.
package bank

import (
	"errors"
	"fmt"

	"github.com/msmirnov/askanswerbot/models"
	"github.com/msmirnov/askanswerbot/storage"
)

var (
	// ErrNotFound is returned when a referenced bank does not exist.
	ErrNotFound = errors.New("bank does not exist")
	// ErrAlreadyExists is returned on a name collision during create.
	ErrAlreadyExists = errors.New("bank already exists")
	// ErrActiveBank is returned on an attempt to delete the active bank.
	ErrActiveBank = errors.New("bank is currently active")
)

// Store is the catalog of named banks plus the active-bank pointer. The
// pointer is persisted in the backend's meta record so it survives
// restarts.
type Store struct {
	backend storage.Backend
	active  string
}

// NewStore loads the active-bank pointer and bootstraps the active bank
// so a fresh installation starts with a usable (empty) default bank.
func NewStore(backend storage.Backend) (*Store, error) {
	meta, err := backend.LoadMeta()
	if err != nil {
		return nil, fmt.Errorf("failed to load meta record: %w", err)
	}
	if _, err := backend.LoadBank(meta.CurrentBank); err != nil {
		return nil, fmt.Errorf("failed to load active bank %q: %w", meta.CurrentBank, err)
	}
	return &Store{backend: backend, active: meta.CurrentBank}, nil
}

// Active returns the name of the currently active bank.
func (s *Store) Active() string {
	return s.active
}

// List returns the names of all known banks.
func (s *Store) List() ([]string, error) {
	return s.backend.ListBanks()
}

// Load returns a bank's persisted state. Unknown names yield a freshly
// persisted empty bank; this is the first-use bootstrap path, not an
// error.
func (s *Store) Load(name string) (*models.Bank, error) {
	return s.backend.LoadBank(name)
}

// Save overwrites a bank's persisted state.
func (s *Store) Save(name string, b *models.Bank) error {
	return s.backend.SaveBank(name, b)
}

// Create persists a fresh empty bank under a new name.
func (s *Store) Create(name string) error {
	exists, err := s.contains(name)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}
	// the load path persists the empty bank
	_, err = s.backend.LoadBank(name)
	return err
}

// Delete removes a bank irreversibly. The active bank can never be
// deleted; callers must switch away first.
func (s *Store) Delete(name string) error {
	if name == s.active {
		return ErrActiveBank
	}
	if err := s.backend.DeleteBank(name); err != nil {
		// a storage-unsafe name can never name an existing bank
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrBadName) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// SwitchActive makes an existing bank the active one, persists the new
// pointer, and returns the loaded bank. On failure the previous pointer
// stays in place.
func (s *Store) SwitchActive(name string) (*models.Bank, error) {
	exists, err := s.contains(name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	b, err := s.backend.LoadBank(name)
	if err != nil {
		return nil, err
	}
	if err := s.backend.SaveMeta(&models.Meta{CurrentBank: name}); err != nil {
		return nil, err
	}
	s.active = name
	return b, nil
}

func (s *Store) contains(name string) (bool, error) {
	names, err := s.backend.ListBanks()
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
