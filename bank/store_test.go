package bank

import (
	"errors"
	"testing"

	"github.com/msmirnov/askanswerbot/models"
	"github.com/msmirnov/askanswerbot/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend, err := storage.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	store, err := NewStore(backend)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestNewStoreBootstrapsDefaultBank(t *testing.T) {
	s := newTestStore(t)

	if s.Active() != storage.DefaultBank {
		t.Errorf("Active() = %q, want %q", s.Active(), storage.DefaultBank)
	}
	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != storage.DefaultBank {
		t.Errorf("List() = %v, want just the default bank", names)
	}
}

func TestCreateDuplicate(t *testing.T) {
	s := newTestStore(t)

	if err := s.Create("math"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create("math"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second Create = %v, want ErrAlreadyExists", err)
	}

	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	count := 0
	for _, n := range names {
		if n == "math" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("bank %q listed %d times, want once", "math", count)
	}
}

func TestDeleteActiveBank(t *testing.T) {
	s := newTestStore(t)

	if err := s.Delete(s.Active()); !errors.Is(err, ErrActiveBank) {
		t.Errorf("Delete(active) = %v, want ErrActiveBank", err)
	}
}

func TestDeleteMissingBank(t *testing.T) {
	s := newTestStore(t)

	if err := s.Delete("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(ghost) = %v, want ErrNotFound", err)
	}
}

func TestDeleteUnsafeName(t *testing.T) {
	s := newTestStore(t)

	// names the storage layer refuses cannot name an existing bank
	if err := s.Delete("a/b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(a/b) = %v, want ErrNotFound", err)
	}
}

func TestDeleteBank(t *testing.T) {
	s := newTestStore(t)

	if err := s.Create("old"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete("old"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, n := range names {
		if n == "old" {
			t.Errorf("deleted bank still listed: %v", names)
		}
	}
}

func TestSwitchActiveMissingKeepsPointer(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.SwitchActive("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SwitchActive(ghost) = %v, want ErrNotFound", err)
	}
	if s.Active() != storage.DefaultBank {
		t.Errorf("Active() = %q after failed switch, want %q", s.Active(), storage.DefaultBank)
	}
}

func TestSwitchActivePersistsPointer(t *testing.T) {
	backend, err := storage.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	s, err := NewStore(backend)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := s.Create("math"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.SwitchActive("math"); err != nil {
		t.Fatalf("SwitchActive: %v", err)
	}

	// a store reopened over the same backend sees the new pointer
	reopened, err := NewStore(backend)
	if err != nil {
		t.Fatalf("NewStore (reopen): %v", err)
	}
	if reopened.Active() != "math" {
		t.Errorf("Active() after reopen = %q, want %q", reopened.Active(), "math")
	}
}

func TestLoadBootstrapsUnknownBank(t *testing.T) {
	s := newTestStore(t)

	b, err := s.Load("brand-new")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(b.Questions) != 0 || b.CurrentQuestion != nil {
		t.Errorf("bootstrap bank = %+v, want empty", b)
	}

	// the bootstrap persists, so the name is now listed
	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for _, n := range names {
		if n == "brand-new" {
			found = true
		}
	}
	if !found {
		t.Errorf("bootstrapped bank not listed: %v", names)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s := newTestStore(t)

	id := 2
	b := &models.Bank{
		Questions: []models.Question{
			{ID: 1, Text: "q1", Answer: "a1", AnsweredBy: &models.Solver{Nickname: "alice", UserID: 7}},
			{ID: 2, Text: "q2", Answer: "a2"},
		},
		CurrentQuestion: &id,
	}
	if err := s.Save("geo", b); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load("geo")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Questions) != 2 {
		t.Fatalf("loaded %d questions, want 2", len(loaded.Questions))
	}
	if loaded.CurrentQuestion == nil || *loaded.CurrentQuestion != 2 {
		t.Errorf("CurrentQuestion = %v, want 2", loaded.CurrentQuestion)
	}
	solver := loaded.Questions[0].AnsweredBy
	if solver == nil || solver.Nickname != "alice" || solver.UserID != 7 {
		t.Errorf("solver = %+v, want alice (7)", solver)
	}
}
