// Package quiz implements the question-bank state machine: advancing
// through questions, resolving free-text answers with first-correct-wins,
// and aggregating participation tallies.
package quiz

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/msmirnov/askanswerbot/bank"
	"github.com/msmirnov/askanswerbot/models"
)

var (
	// ErrNoMoreQuestions is returned by Advance when no unsolved question
	// with a higher id remains.
	ErrNoMoreQuestions = errors.New("no more questions")
	// ErrQuestionNotFound is returned by JumpTo for an unknown question id.
	ErrQuestionNotFound = errors.New("question id not found")
	// ErrEmptyField is returned by AddQuestion when the question or answer
	// is empty after trimming.
	ErrEmptyField = errors.New("question and answer must not be empty")
)

// RankingLimit is how many users the ranking lists individually before
// the rest collapse into a participant total.
const RankingLimit = 5

// SubmitOutcome classifies the result of a candidate answer. Rejections
// and missing active questions are expected outcomes, not errors; callers
// typically ignore them silently.
type SubmitOutcome int

const (
	SubmitNoActiveQuestion SubmitOutcome = iota
	SubmitRejected
	SubmitAccepted
)

// SolvedEntry pairs a question id with the user who solved it.
type SolvedEntry struct {
	QuestionID int
	Solver     models.Solver
}

// RankEntry is one row of the participation ranking.
type RankEntry struct {
	UserID   int64
	Nickname string
	Count    int
}

// Engine owns the in-memory state of the active bank. Every operation,
// including bank switches, runs under one mutex: the solved-by
// check-then-set in SubmitAnswer must be a single critical section so a
// question is accepted at most once, and a switch must not race an
// in-flight submission against the old bank.
type Engine struct {
	mu    sync.Mutex
	store *bank.Store
	bank  *models.Bank
}

// NewEngine loads the active bank into memory.
func NewEngine(store *bank.Store) (*Engine, error) {
	b, err := store.Load(store.Active())
	if err != nil {
		return nil, fmt.Errorf("failed to load active bank: %w", err)
	}
	return &Engine{store: store, bank: b}, nil
}

// persist writes the active bank back to the store. Mutating operations
// that fail to persist roll back their in-memory change so memory and
// storage never diverge.
func (e *Engine) persist() error {
	return e.store.Save(e.store.Active(), e.bank)
}

// Advance moves the current-question pointer to the first unsolved
// question whose id is greater than the current one. Progression is
// forward-only: ids at or below the pointer are never revisited here,
// even if they were left unsolved (that path is JumpTo). With no pointer
// set, any unsolved question qualifies.
func (e *Engine) Advance() (*models.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := -1
	if e.bank.CurrentQuestion != nil {
		cur = *e.bank.CurrentQuestion
	}

	for i := range e.bank.Questions {
		q := &e.bank.Questions[i]
		if q.ID <= cur || q.AnsweredBy != nil {
			continue
		}
		prev := e.bank.CurrentQuestion
		id := q.ID
		e.bank.CurrentQuestion = &id
		if err := e.persist(); err != nil {
			e.bank.CurrentQuestion = prev
			return nil, err
		}
		out := *q
		return &out, nil
	}
	return nil, ErrNoMoreQuestions
}

// JumpTo sets the current-question pointer to an explicit id. Unlike
// Advance it is an override: already-solved questions are valid targets.
func (e *Engine) JumpTo(id int) (*models.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.bank.Find(id)
	if q == nil {
		return nil, ErrQuestionNotFound
	}

	prev := e.bank.CurrentQuestion
	target := id
	e.bank.CurrentQuestion = &target
	if err := e.persist(); err != nil {
		e.bank.CurrentQuestion = prev
		return nil, err
	}
	out := *q
	return &out, nil
}

// AddQuestion appends a question with the next sequential id. Duplicate
// text/answer pairs are allowed as distinct questions.
func (e *Engine) AddQuestion(text, answer string) (*models.Question, error) {
	text = strings.TrimSpace(text)
	answer = strings.TrimSpace(answer)
	if text == "" || answer == "" {
		return nil, ErrEmptyField
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	q := models.Question{ID: e.bank.NextID(), Text: text, Answer: answer}
	e.bank.Questions = append(e.bank.Questions, q)
	if err := e.persist(); err != nil {
		e.bank.Questions = e.bank.Questions[:len(e.bank.Questions)-1]
		return nil, err
	}
	return &q, nil
}

// ClearAll removes every question and the current-question pointer from
// the active bank. Other banks are untouched.
func (e *Engine) ClearAll() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	prevQuestions := e.bank.Questions
	prevCurrent := e.bank.CurrentQuestion
	e.bank.Questions = []models.Question{}
	e.bank.CurrentQuestion = nil
	if err := e.persist(); err != nil {
		e.bank.Questions = prevQuestions
		e.bank.CurrentQuestion = prevCurrent
		return err
	}
	return nil
}

// SubmitAnswer judges a candidate answer against the current question.
// Comparison is literal equality of the trimmed candidate against the
// stored answer. The first correct responder is recorded; any later
// submission is rejected with no side effect. The returned error is only
// ever a persistence failure.
func (e *Engine) SubmitAnswer(candidate string, from models.Responder) (SubmitOutcome, *models.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.bank.CurrentQuestion == nil {
		return SubmitNoActiveQuestion, nil, nil
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return SubmitRejected, nil, nil
	}

	q := e.bank.Find(*e.bank.CurrentQuestion)
	if q == nil {
		// pointer referencing a missing question; treat as a non-answer
		return SubmitRejected, nil, nil
	}
	if q.AnsweredBy != nil {
		return SubmitRejected, nil, nil
	}
	if candidate != q.Answer {
		return SubmitRejected, nil, nil
	}

	q.AnsweredBy = &models.Solver{Nickname: from.Nickname, UserID: from.UserID}
	if err := e.persist(); err != nil {
		q.AnsweredBy = nil
		return SubmitRejected, nil, err
	}
	out := *q
	return SubmitAccepted, &out, nil
}

// Solved lists every solved question with its solver, in ascending id
// order.
func (e *Engine) Solved() []SolvedEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	var entries []SolvedEntry
	for _, q := range e.bank.Questions {
		if q.AnsweredBy != nil {
			entries = append(entries, SolvedEntry{QuestionID: q.ID, Solver: *q.AnsweredBy})
		}
	}
	return entries
}

// Ranking groups solved questions by user and sorts by count descending;
// equal counts keep first-solve order. When more than RankingLimit users
// participated only the top RankingLimit entries are returned; the second
// return value is always the true distinct-participant count.
func (e *Engine) Ranking() ([]RankEntry, int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	index := make(map[int64]int)
	var entries []RankEntry
	for _, q := range e.bank.Questions {
		if q.AnsweredBy == nil {
			continue
		}
		i, ok := index[q.AnsweredBy.UserID]
		if !ok {
			i = len(entries)
			index[q.AnsweredBy.UserID] = i
			entries = append(entries, RankEntry{UserID: q.AnsweredBy.UserID})
		}
		entries[i].Count++
		// the most recent solve decides the displayed nickname
		entries[i].Nickname = q.AnsweredBy.Nickname
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	total := len(entries)
	if total > RankingLimit {
		entries = entries[:RankingLimit]
	}
	return entries, total
}

// ActiveBank returns the name of the bank answers currently target.
func (e *Engine) ActiveBank() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Active()
}

// Banks lists all known bank names.
func (e *Engine) Banks() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.List()
}

// CreateBank persists a fresh empty bank without touching the active one.
func (e *Engine) CreateBank(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Create(name)
}

// DeleteBank removes a passive bank. Deleting the active bank fails with
// bank.ErrActiveBank.
func (e *Engine) DeleteBank(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Delete(name)
}

// SwitchBank replaces the in-memory active bank with a freshly loaded
// one. Sharing the engine mutex sequences the switch after any in-flight
// submission against the old bank.
func (e *Engine) SwitchBank(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.store.SwitchActive(name)
	if err != nil {
		return err
	}
	e.bank = b
	return nil
}
