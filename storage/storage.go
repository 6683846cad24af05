// Package storage provides the persistence backends for question banks.
// A Backend stores each bank under a key derived from its name plus a
// single meta record with the active-bank pointer.
package storage

import (
	"errors"
	"strings"

	"github.com/msmirnov/askanswerbot/models"
)

// DefaultBank is the bank bootstrapped on a fresh installation.
const DefaultBank = "default"

var (
	// ErrNotFound is returned when a named bank has no persisted state.
	ErrNotFound = errors.New("bank not found")
	// ErrBadName is returned for bank names that are unsafe as storage keys.
	ErrBadName = errors.New("invalid bank name")
)

// Backend is the persistence collaborator for banks and the meta record.
// LoadBank and LoadMeta bootstrap missing entries instead of failing: a
// brand-new bank name yields a persisted empty bank, an empty store yields
// a meta record pointing at DefaultBank. Callers relying on first-use
// bootstrap depend on this.
type Backend interface {
	LoadBank(name string) (*models.Bank, error)
	SaveBank(name string, bank *models.Bank) error
	DeleteBank(name string) error
	ListBanks() ([]string, error)
	LoadMeta() (*models.Meta, error)
	SaveMeta(meta *models.Meta) error
	Close() error
}

// ValidateBankName rejects names that cannot serve as storage keys:
// empty strings, path traversal characters, and the reserved meta name.
func ValidateBankName(name string) error {
	if name == "" {
		return ErrBadName
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ErrBadName
	}
	if name == "meta" {
		return ErrBadName
	}
	return nil
}
