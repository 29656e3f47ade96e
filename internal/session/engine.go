package session

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pollwave/pollwave/internal/history"
	"github.com/pollwave/pollwave/internal/metrics"
	ws "github.com/pollwave/pollwave/pkg/http/ws"
)

// Notifier delivers engine events to connected clients. *ws.Hub satisfies it;
// tests substitute a fake so the engine runs without a transport.
type Notifier interface {
	SendToConn(connID uuid.UUID, msg ws.Message) error
	BroadcastAll(msg ws.Message) error
}

// Archive receives the final snapshot of every closed poll.
type Archive interface {
	Save(ctx context.Context, rec history.Record) error
}

// EngineOptions carries optional engine collaborators.
type EngineOptions struct {
	Archive Archive          // nil disables archiving
	Clock   func() time.Time // nil means time.Now, overridable in tests
}

// Result triggers, used for metrics labels and archived records.
const (
	TriggerTimeout     = "timeout"
	TriggerAllAnswered = "all_answered"
)

const archiveTimeout = 3 * time.Second

// Engine is the single authoritative owner of the polling session: the
// participant roster, the active question, the answer set and the countdown.
// Every operation runs to completion under one mutex, so events arriving
// concurrently from any number of connections (including the timer callback)
// can never interleave partial state updates.
type Engine struct {
	notifier Notifier
	archive  Archive
	logger   zerolog.Logger
	now      func() time.Time

	mu           sync.Mutex
	participants []Participant
	question     *Question
	answers      map[uuid.UUID]int
	open         bool
	startedAt    time.Time
	timer        *time.Timer
	epoch        uint64
}

// NewEngine creates the session engine. There is exactly one per process; the
// session is deliberately global.
func NewEngine(notifier Notifier, opts EngineOptions, logger zerolog.Logger) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		notifier: notifier,
		archive:  opts.Archive,
		logger:   logger,
		now:      clock,
		answers:  make(map[uuid.UUID]int),
	}
}

// Connected syncs a freshly upgraded connection with the current session
// state, before the client has joined or identified itself: the roster, plus
// either the in-flight question or the last shown results.
func (e *Engine) Connected(connID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.unicast(connID, ws.TypeStudentsUpdate, e.rosterLocked())

	switch {
	case e.open && e.question != nil:
		e.unicast(connID, ws.TypeQuestionStarted, e.questionPayloadLocked(e.remainingSecondsLocked()))
	case e.question != nil:
		e.unicast(connID, ws.TypeShowResults, e.resultsPayloadLocked())
	}
}

// Join registers a student under its connection ID and broadcasts the updated
// roster. A joiner mid-question immediately receives the open question with
// the remaining time; otherwise it is told to wait.
func (e *Engine) Join(connID uuid.UUID, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.findParticipantLocked(connID) >= 0 {
		return ErrAlreadyJoined
	}

	e.participants = append(e.participants, Participant{ID: connID, Name: name})
	metrics.ConnectedStudents.Set(float64(len(e.participants)))

	e.logger.Info().
		Str("conn_id", connID.String()).
		Str("name", name).
		Int("students", len(e.participants)).
		Msg("student joined")

	e.broadcast(ws.TypeStudentsUpdate, e.rosterLocked())

	if e.open && e.question != nil {
		e.unicast(connID, ws.TypeQuestionStarted, e.questionPayloadLocked(e.remainingSecondsLocked()))
	} else {
		e.notifier.SendToConn(connID, ws.Message{Type: ws.TypeWaitingForQuestion})
	}
	return nil
}

// StartQuestion replaces any previous question, clears all answers and opens
// the new one for the configured duration. Calling it while a question is
// still open supersedes the old question; its answers are discarded and no
// results are ever emitted for it.
func (e *Engine) StartQuestion(spec QuestionSpec) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTimerLocked()
	e.epoch++

	options := make([]Option, len(spec.Options))
	copy(options, spec.Options)

	e.question = &Question{
		Number:    spec.Number,
		Prompt:    spec.Prompt,
		Options:   options,
		TimeLimit: spec.TimeLimit,
	}
	e.answers = make(map[uuid.UUID]int)
	e.open = true
	e.startedAt = e.now()

	metrics.QuestionsStarted.Inc()
	e.logger.Info().
		Int("question_number", spec.Number).
		Int("options", len(options)).
		Dur("time_limit", spec.TimeLimit).
		Msg("question started")

	e.broadcast(ws.TypeQuestionStarted, e.questionPayloadLocked(int(spec.TimeLimit/time.Second)))

	// The captured epoch lets a late-firing timer from a superseded question
	// detect it is stale even if Stop raced with the firing.
	epoch := e.epoch
	e.timer = time.AfterFunc(spec.TimeLimit, func() {
		e.handleTimeout(epoch)
	})
}

// SubmitAnswer records one answer for a joined student. Preconditions are
// checked in protocol order; the first failure wins and is reported only to
// the submitter. When the last missing answer arrives the engine closes the
// question synchronously, before the timer has any chance to fire.
func (e *Engine) SubmitAnswer(connID uuid.UUID, position int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkSubmitLocked(connID, position); err != nil {
		metrics.AnswersRejected.WithLabelValues(ErrorCode(err)).Inc()
		return err
	}

	e.answers[connID] = position
	metrics.AnswersAccepted.Inc()

	e.logger.Info().
		Str("conn_id", connID.String()).
		Int("position", position).
		Int("answered", len(e.answers)).
		Int("students", len(e.participants)).
		Msg("answer recorded")

	e.notifier.SendToConn(connID, ws.Message{Type: ws.TypeAnswerSubmitted})
	e.broadcast(ws.TypeAnswerCount, ws.AnswerCountPayload{
		Count: len(e.answers),
		Total: len(e.participants),
	})

	if len(e.participants) > 0 && len(e.answers) == len(e.participants) {
		e.showResultsLocked(TriggerAllAnswered)
	}
	return nil
}

func (e *Engine) checkSubmitLocked(connID uuid.UUID, position int) error {
	if !e.open {
		return ErrNoActiveQuestion
	}
	if _, answered := e.answers[connID]; answered {
		return ErrDuplicateAnswer
	}
	if e.findParticipantLocked(connID) < 0 {
		return ErrNotJoined
	}
	if position < 1 || position > len(e.question.Options) {
		return ErrInvalidAnswer
	}
	return nil
}

// RequestResults unicasts the current aggregated snapshot to the caller. It is
// a pure read: any number of calls yields the same answer absent other events,
// whether the question is still open or already closed.
func (e *Engine) RequestResults(connID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload := ws.CurrentResultsPayload{
		Results:       []ws.OptionResult{},
		TotalStudents: len(e.participants),
	}
	if e.question != nil {
		number := e.question.Number
		prompt := e.question.Prompt
		payload.QuestionNumber = &number
		payload.Question = &prompt
		payload.Results = e.computeResultsLocked()
		payload.TotalAnswers = len(e.answers)
		payload.IsActive = e.open
	}

	e.unicast(connID, ws.TypeCurrentResults, payload)
}

// Disconnect removes the participant and its answer, then re-checks
// completion: if everyone still connected has answered, the poll must not hang
// on a non-responder who left.
func (e *Engine) Disconnect(connID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i := e.findParticipantLocked(connID); i >= 0 {
		e.logger.Info().
			Str("conn_id", connID.String()).
			Str("name", e.participants[i].Name).
			Msg("student disconnected")
		e.participants = append(e.participants[:i], e.participants[i+1:]...)
	}
	delete(e.answers, connID)
	metrics.ConnectedStudents.Set(float64(len(e.participants)))

	e.broadcast(ws.TypeStudentsUpdate, e.rosterLocked())

	if e.open {
		e.broadcast(ws.TypeAnswerCount, ws.AnswerCountPayload{
			Count: len(e.answers),
			Total: len(e.participants),
		})
		if len(e.participants) > 0 && len(e.answers) == len(e.participants) {
			e.showResultsLocked(TriggerAllAnswered)
		}
	}
}

// Status reports the liveness snapshot for the /status endpoint.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		Students:       len(e.participants),
		ActiveQuestion: e.open,
		Answers:        len(e.answers),
	}
	if e.question != nil {
		prompt := e.question.Prompt
		st.Question = &prompt
	}
	return st
}

func (e *Engine) handleTimeout(epoch uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// A stale timer from a superseded question, or one that lost the race
	// against all-answered completion, must not emit a second result set.
	if epoch != e.epoch || !e.open {
		return
	}
	e.logger.Info().Int("question_number", e.question.Number).Msg("question timed out")
	e.showResultsLocked(TriggerTimeout)
}

// showResultsLocked closes the question and broadcasts the final aggregate.
// Callers guarantee e.open && e.question != nil; the timer-vs-completion race
// is settled by the epoch guard and the open flag, so this runs exactly once
// per question instance.
func (e *Engine) showResultsLocked(trigger string) {
	e.stopTimerLocked()
	e.open = false

	payload := e.resultsPayloadLocked()
	e.broadcast(ws.TypeShowResults, payload)
	metrics.ResultsShown.WithLabelValues(trigger).Inc()

	e.logger.Info().
		Int("question_number", payload.QuestionNumber).
		Int("answers", payload.TotalAnswers).
		Int("students", payload.TotalStudents).
		Str("trigger", trigger).
		Msg("results shown")

	if e.archive != nil {
		rec := history.Record{
			QuestionNumber: payload.QuestionNumber,
			Question:       payload.Question,
			Results:        payload.Results,
			TotalStudents:  payload.TotalStudents,
			TotalAnswers:   payload.TotalAnswers,
			Trigger:        trigger,
			ClosedAt:       e.now(),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
			defer cancel()
			if err := e.archive.Save(ctx, rec); err != nil {
				e.logger.Warn().Err(err).Msg("archive result failed")
			}
		}()
	}
}

func (e *Engine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) findParticipantLocked(connID uuid.UUID) int {
	for i, p := range e.participants {
		if p.ID == connID {
			return i
		}
	}
	return -1
}

func (e *Engine) rosterLocked() []ws.Student {
	roster := make([]ws.Student, len(e.participants))
	for i, p := range e.participants {
		roster[i] = ws.Student{ID: p.ID.String(), Name: p.Name}
	}
	return roster
}

func (e *Engine) questionPayloadLocked(remainingSeconds int) ws.QuestionStartedPayload {
	options := make([]ws.QuestionOption, len(e.question.Options))
	for i, opt := range e.question.Options {
		options[i] = ws.QuestionOption{ID: i + 1, Text: opt.Text}
	}
	return ws.QuestionStartedPayload{
		QuestionNumber: e.question.Number,
		Question:       e.question.Prompt,
		Options:        options,
		TimeLimit:      FormatTimeLimit(e.question.TimeLimit),
		TimeRemaining:  remainingSeconds,
	}
}

func (e *Engine) resultsPayloadLocked() ws.ShowResultsPayload {
	return ws.ShowResultsPayload{
		QuestionNumber: e.question.Number,
		Question:       e.question.Prompt,
		Results:        e.computeResultsLocked(),
		TotalStudents:  len(e.participants),
		TotalAnswers:   len(e.answers),
	}
}

// computeResultsLocked recomputes the aggregate purely from the question and
// the answer set. Each percentage is rounded on its own; the sum may drift
// from 100 and that drift is intentionally left uncorrected.
func (e *Engine) computeResultsLocked() []ws.OptionResult {
	counts := make([]int, len(e.question.Options))
	for _, position := range e.answers {
		if position >= 1 && position <= len(counts) {
			counts[position-1]++
		}
	}

	total := len(e.answers)
	results := make([]ws.OptionResult, len(e.question.Options))
	for i, opt := range e.question.Options {
		percentage := 0
		if total > 0 {
			percentage = int(math.Round(float64(counts[i]) * 100 / float64(total)))
		}
		results[i] = ws.OptionResult{
			ID:         i + 1,
			Label:      opt.Text,
			Percentage: percentage,
			Count:      counts[i],
			IsCorrect:  opt.IsCorrect,
		}
	}
	return results
}

// remainingSecondsLocked reports the whole seconds left on the clock, rounded
// up so a client never shows 0 while the question is still open.
func (e *Engine) remainingSecondsLocked() int {
	remaining := e.question.TimeLimit - e.now().Sub(e.startedAt)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}

func (e *Engine) unicast(connID uuid.UUID, msgType string, payload any) {
	data, _ := json.Marshal(payload)
	e.notifier.SendToConn(connID, ws.Message{Type: msgType, Payload: data})
}

func (e *Engine) broadcast(msgType string, payload any) {
	data, _ := json.Marshal(payload)
	e.notifier.BroadcastAll(ws.Message{Type: msgType, Payload: data})
}

// FormatTimeLimit renders a duration in the wire format clients expect,
// e.g. "30 seconds".
func FormatTimeLimit(d time.Duration) string {
	return fmt.Sprintf("%d seconds", int(d/time.Second))
}

// ParseTimeLimit maps the wire time-limit enum onto a duration. Anything
// other than "30 seconds" falls back to 60 seconds, matching what deployed
// clients rely on.
func ParseTimeLimit(s string) time.Duration {
	if s == "30 seconds" {
		return 30 * time.Second
	}
	return 60 * time.Second
}
