package ws

import "encoding/json"

// MessageType constants for the polling WebSocket protocol.
const (
	// Client -> Server
	TypeJoin         = "join"
	TypeNewQuestion  = "newQuestion"
	TypeSubmitAnswer = "submitAnswer"
	TypeGetResults   = "getResults"

	// Server -> Client
	TypeStudentsUpdate     = "studentsUpdate"
	TypeQuestionStarted    = "questionStarted"
	TypeWaitingForQuestion = "waitingForQuestion"
	TypeAnswerSubmitted    = "answerSubmitted"
	TypeAnswerCount        = "answerCount"
	TypeShowResults        = "showResults"
	TypeCurrentResults     = "currentResults"
	TypeError              = "error"
)

// Message wraps all WebSocket payloads with a type tag.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client Messages (incoming)

// The join payload is the bare display name (JSON string) and the submitAnswer
// payload is the bare 1-based option position (JSON number), so neither gets a
// struct here.

// NewQuestionPayload starts a fresh poll. Option IDs supplied by the teacher
// client are ignored; the server relabels options to contiguous 1-based
// positions in everything it sends out.
type NewQuestionPayload struct {
	QuestionNumber int                 `json:"questionNumber"`
	Question       string              `json:"question"`
	Options        []NewQuestionOption `json:"options"`
	TimeLimit      string              `json:"timeLimit"`
	CorrectAnswer  json.RawMessage     `json:"correctAnswer,omitempty"`
}

type NewQuestionOption struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Server Messages (outgoing)

// Student is one roster entry in a studentsUpdate broadcast.
type Student struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QuestionStartedPayload carries the active question to clients. Correctness
// flags are withheld while voting is open; they only appear in result payloads.
type QuestionStartedPayload struct {
	QuestionNumber int              `json:"questionNumber"`
	Question       string           `json:"question"`
	Options        []QuestionOption `json:"options"`
	TimeLimit      string           `json:"timeLimit"`
	TimeRemaining  int              `json:"timeRemaining"`
}

type QuestionOption struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type AnswerCountPayload struct {
	Count int `json:"count"`
	Total int `json:"total"`
}

// OptionResult is the per-option aggregate in result payloads. Percentages are
// rounded independently per option and are not normalized to sum to 100.
type OptionResult struct {
	ID         int    `json:"id"`
	Label      string `json:"label"`
	Percentage int    `json:"percentage"`
	Count      int    `json:"count"`
	IsCorrect  bool   `json:"isCorrect"`
}

type ShowResultsPayload struct {
	QuestionNumber int            `json:"questionNumber"`
	Question       string         `json:"question"`
	Results        []OptionResult `json:"results"`
	TotalStudents  int            `json:"totalStudents"`
	TotalAnswers   int            `json:"totalAnswers"`
}

// CurrentResultsPayload answers a getResults pull. Question fields are null
// when no question has ever been started.
type CurrentResultsPayload struct {
	QuestionNumber *int           `json:"questionNumber"`
	Question       *string        `json:"question"`
	Results        []OptionResult `json:"results"`
	TotalStudents  int            `json:"totalStudents"`
	TotalAnswers   int            `json:"totalAnswers"`
	IsActive       bool           `json:"isActive"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
