package models

// Solver identifies the first user who answered a question correctly.
type Solver struct {
	Nickname string `json:"nickname"`
	UserID   int64  `json:"user_id"`
}

// Question is a single prompt/answer pair inside a bank. AnsweredBy is set
// at most once and only cleared by a bank-wide clear.
type Question struct {
	ID         int     `json:"id"`
	Text       string  `json:"question"`
	Answer     string  `json:"answer"`
	AnsweredBy *Solver `json:"answered_by,omitempty"`
}

// Bank is a named collection of questions plus the pointer to the question
// currently open for answers. CurrentQuestion is nil when no question is
// active; when set it must reference an existing question id.
type Bank struct {
	Questions       []Question `json:"questions"`
	CurrentQuestion *int       `json:"current_question"`
}

// NewBank returns an empty bank in its persisted shape.
func NewBank() *Bank {
	return &Bank{Questions: []Question{}}
}

// Find returns the question with the given id, or nil. The pointer aliases
// the bank's slice so callers may mutate the question in place.
func (b *Bank) Find(id int) *Question {
	for i := range b.Questions {
		if b.Questions[i].ID == id {
			return &b.Questions[i]
		}
	}
	return nil
}

// NextID returns the id for the next appended question: max existing id
// plus one, starting at 1 for an empty bank.
func (b *Bank) NextID() int {
	maxID := 0
	for _, q := range b.Questions {
		if q.ID > maxID {
			maxID = q.ID
		}
	}
	return maxID + 1
}

// Meta is the registry record telling which bank is active across restarts.
type Meta struct {
	CurrentBank string `json:"current_bank"`
}

// Responder is the identity attached to an incoming answer.
type Responder struct {
	Nickname string
	UserID   int64
}
