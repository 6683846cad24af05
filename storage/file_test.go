package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/msmirnov/askanswerbot/models"
)

func newFileBackend(t *testing.T) *FileBackend {
	t.Helper()
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	return backend
}

func TestValidateBankName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "plain", input: "math", valid: true},
		{name: "empty", input: "", valid: false},
		{name: "slash", input: "a/b", valid: false},
		{name: "backslash", input: `a\b`, valid: false},
		{name: "traversal", input: "..", valid: false},
		{name: "reserved meta", input: "meta", valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBankName(tt.input)
			if tt.valid && err != nil {
				t.Errorf("ValidateBankName(%q) = %v, want nil", tt.input, err)
			}
			if !tt.valid && !errors.Is(err, ErrBadName) {
				t.Errorf("ValidateBankName(%q) = %v, want ErrBadName", tt.input, err)
			}
		})
	}
}

func TestLoadBankCreatesEmptyBank(t *testing.T) {
	f := newFileBackend(t)

	b, err := f.LoadBank("fresh")
	if err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	if len(b.Questions) != 0 || b.CurrentQuestion != nil {
		t.Errorf("fresh bank = %+v, want empty", b)
	}

	// the empty bank was persisted, not just returned
	if _, err := os.Stat(filepath.Join(f.dir, "fresh.json")); err != nil {
		t.Errorf("fresh bank not persisted: %v", err)
	}
}

func TestSaveBankRoundTrip(t *testing.T) {
	f := newFileBackend(t)

	id := 1
	bank := &models.Bank{
		Questions: []models.Question{
			{ID: 1, Text: "capital of France?", Answer: "Paris", AnsweredBy: &models.Solver{Nickname: "alice", UserID: 42}},
		},
		CurrentQuestion: &id,
	}
	if err := f.SaveBank("geo", bank); err != nil {
		t.Fatalf("SaveBank: %v", err)
	}

	loaded, err := f.LoadBank("geo")
	if err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	if len(loaded.Questions) != 1 {
		t.Fatalf("loaded %d questions, want 1", len(loaded.Questions))
	}
	q := loaded.Questions[0]
	if q.Text != "capital of France?" || q.Answer != "Paris" {
		t.Errorf("question = %+v", q)
	}
	if q.AnsweredBy == nil || q.AnsweredBy.UserID != 42 {
		t.Errorf("solver = %+v, want user 42", q.AnsweredBy)
	}
	if loaded.CurrentQuestion == nil || *loaded.CurrentQuestion != 1 {
		t.Errorf("CurrentQuestion = %v, want 1", loaded.CurrentQuestion)
	}
}

func TestSaveBankRejectsUnsafeName(t *testing.T) {
	f := newFileBackend(t)

	if err := f.SaveBank("../escape", models.NewBank()); !errors.Is(err, ErrBadName) {
		t.Errorf("SaveBank with traversal name = %v, want ErrBadName", err)
	}
}

func TestDeleteBank(t *testing.T) {
	f := newFileBackend(t)

	if err := f.DeleteBank("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteBank(ghost) = %v, want ErrNotFound", err)
	}

	if _, err := f.LoadBank("doomed"); err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	if err := f.DeleteBank("doomed"); err != nil {
		t.Fatalf("DeleteBank: %v", err)
	}
	names, err := f.ListBanks()
	if err != nil {
		t.Fatalf("ListBanks: %v", err)
	}
	for _, n := range names {
		if n == "doomed" {
			t.Errorf("deleted bank still listed: %v", names)
		}
	}
}

func TestListBanksSkipsMetaAndStrays(t *testing.T) {
	f := newFileBackend(t)

	if _, err := f.LoadBank("alpha"); err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	if _, err := f.LoadBank("beta"); err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	if _, err := f.LoadMeta(); err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if err := os.WriteFile(filepath.Join(f.dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	names, err := f.ListBanks()
	if err != nil {
		t.Fatalf("ListBanks: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("ListBanks() = %v, want [alpha beta]", names)
	}
}

func TestLoadMetaDefaults(t *testing.T) {
	f := newFileBackend(t)

	meta, err := f.LoadMeta()
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if meta.CurrentBank != DefaultBank {
		t.Errorf("CurrentBank = %q, want %q", meta.CurrentBank, DefaultBank)
	}

	if err := f.SaveMeta(&models.Meta{CurrentBank: "math"}); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}
	meta, err = f.LoadMeta()
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if meta.CurrentBank != "math" {
		t.Errorf("CurrentBank = %q, want %q", meta.CurrentBank, "math")
	}
}
