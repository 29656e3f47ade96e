package session

import (
	"time"

	"github.com/google/uuid"
)

// Participant is one joined student, identified by its connection ID. A
// display name is whatever the student typed at join time; dedup happens by
// connection identity only.
type Participant struct {
	ID   uuid.UUID
	Name string
}

// Option is one answer choice of a question.
type Option struct {
	Text      string
	IsCorrect bool
}

// Question is the currently (or most recently) active poll question. Options
// keep their submitted order; the position in the slice plus one is the
// display position used on the wire.
type Question struct {
	Number    int
	Prompt    string
	Options   []Option
	TimeLimit time.Duration
}

// QuestionSpec is the teacher's request to start a question. The engine takes
// it as given: it does not validate sequence numbers or that exactly one
// option is marked correct.
type QuestionSpec struct {
	Number    int
	Prompt    string
	Options   []Option
	TimeLimit time.Duration
}

// Status is the liveness snapshot served by the /status endpoint. Field names
// are kept compatible with existing monitoring.
type Status struct {
	Students       int     `json:"students"`
	ActiveQuestion bool    `json:"activeQuestion"`
	Answers        int     `json:"answers"`
	Question       *string `json:"question"`
}
