package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	httperrors "github.com/pollwave/pollwave/pkg/http/errors"
	ws "github.com/pollwave/pollwave/pkg/http/ws"
)

// Handler owns the WebSocket side of the protocol: it assigns connection IDs,
// decodes inbound events and routes them to the engine. All session semantics
// live in the engine; the handler only translates.
type Handler struct {
	engine   *Engine
	hub      *ws.Hub
	notifier Notifier
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates the poll WebSocket handler.
func NewHandler(engine *Engine, hub *ws.Hub, upgrader websocket.Upgrader, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		hub:      hub,
		notifier: hub,
		upgrader: upgrader,
		logger:   logger,
	}
}

// HandleConnection runs one connection to completion: register, sync initial
// state, pump messages, and on exit clean up both hub and engine. Per-connection
// ordering is guaranteed because ReadPump dispatches sequentially.
func (h *Handler) HandleConnection(conn *websocket.Conn) {
	connID := uuid.New()
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.Register(connID, wsConn)

	go wsConn.WritePump()

	h.engine.Connected(connID)

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(connID, msg)
	})

	h.hub.Unregister(connID)
	h.engine.Disconnect(connID)
}

// handleMessage routes one inbound event.
func (h *Handler) handleMessage(connID uuid.UUID, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoin:
		return h.handleJoin(connID, msg.Payload)
	case ws.TypeNewQuestion:
		return h.handleNewQuestion(connID, msg.Payload)
	case ws.TypeSubmitAnswer:
		return h.handleSubmitAnswer(connID, msg.Payload)
	case ws.TypeGetResults:
		h.engine.RequestResults(connID)
		return nil
	default:
		return h.sendError(connID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleJoin(connID uuid.UUID, payload json.RawMessage) error {
	var name string
	if err := json.Unmarshal(payload, &name); err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid join payload")
	}

	if err := h.engine.Join(connID, name); err != nil {
		return h.sendEngineError(connID, err)
	}
	return nil
}

func (h *Handler) handleNewQuestion(connID uuid.UUID, payload json.RawMessage) error {
	var req ws.NewQuestionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid newQuestion payload")
	}

	options := make([]Option, len(req.Options))
	for i, opt := range req.Options {
		options[i] = Option{Text: opt.Text, IsCorrect: opt.IsCorrect}
	}

	h.engine.StartQuestion(QuestionSpec{
		Number:    req.QuestionNumber,
		Prompt:    req.Question,
		Options:   options,
		TimeLimit: ParseTimeLimit(req.TimeLimit),
	})
	return nil
}

func (h *Handler) handleSubmitAnswer(connID uuid.UUID, payload json.RawMessage) error {
	var position int
	if err := json.Unmarshal(payload, &position); err != nil {
		return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid submitAnswer payload")
	}

	if err := h.engine.SubmitAnswer(connID, position); err != nil {
		return h.sendEngineError(connID, err)
	}
	return nil
}

func (h *Handler) sendEngineError(connID uuid.UUID, err error) error {
	return h.sendError(connID, ErrorCode(err), errorMessage(err))
}

func (h *Handler) sendError(connID uuid.UUID, code, message string) error {
	data, _ := json.Marshal(ws.ErrorPayload{Code: code, Message: message})
	return h.notifier.SendToConn(connID, ws.Message{Type: ws.TypeError, Payload: data})
}

// errorMessage renders the reason strings deployed clients display verbatim.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyJoined):
		return "Already joined"
	case errors.Is(err, ErrNoActiveQuestion):
		return "No active question"
	case errors.Is(err, ErrDuplicateAnswer):
		return "You already answered"
	case errors.Is(err, ErrNotJoined):
		return "You must join first"
	case errors.Is(err, ErrInvalidAnswer):
		return "Invalid answer"
	default:
		return err.Error()
	}
}
