package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/exam"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
	ws "github.com/stemsi/exstem-quiz/internal/websocket"
)

// tickInterval is how often the countdown is corrected on the client.
const tickInterval = time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the exam countdown and accepts answers over WebSocket.
type WSHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
	interval    time.Duration
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		examService: examService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
		interval:    tickInterval,
	}
}

// ExamStream godoc
// WS /ws/v1/exam/stream?token=...
// Pushes a tick every second and the full state whenever the question or
// phase changes. Reading the state on each tick also drives due timeouts.
func (h *WSHandler) ExamStream(c *gin.Context) {
	sessionID, err := middleware.SessionIDFromContext(c)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", sessionID).Logger()
	ctx := context.Background()

	state, err := h.examService.State(ctx, sessionID)
	if err != nil {
		_ = ws.WriteError(conn, string(response.ErrSessionNotFound), response.GetMessage(response.ErrSessionNotFound))
		return
	}
	if err := ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: state}); err != nil {
		return
	}

	wsLog.Info().Msg("Student connected")

	incoming := make(chan json.RawMessage)
	quit := make(chan struct{})
	defer close(quit)
	go h.readLoop(conn, wsLog, incoming, quit)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case raw, ok := <-incoming:
			if !ok {
				return
			}
			next, err := h.handleMessage(ctx, conn, sessionID, raw)
			if err != nil {
				return
			}
			if next != nil {
				state = *next
			}

		case <-ticker.C:
			next, err := h.examService.State(ctx, sessionID)
			if err != nil {
				_ = ws.WriteError(conn, string(response.ErrSessionNotFound), response.GetMessage(response.ErrSessionNotFound))
				return
			}
			if changed(state, next) {
				err = ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: next})
			} else if next.Phase == exam.PhaseInProgress {
				err = ws.WriteTyped(conn, ws.NewTick(next))
			}
			if err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
			state = next
		}
	}
}

// readLoop forwards raw client messages until the connection fails.
func (h *WSHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, out chan<- json.RawMessage, quit <-chan struct{}) {
	defer close(out)
	for {
		var raw json.RawMessage
		if err := ws.ReadJSON(conn, &raw); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		select {
		case out <- raw:
		case <-quit:
			return
		}
	}
}

// handleMessage runs one client action. A returned state replaces the last
// one sent; a returned error ends the stream.
func (h *WSHandler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, raw json.RawMessage) (*exam.State, error) {
	var env ws.RequestEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ws.WriteError(conn, string(response.ErrInvalidPayload), response.GetMessage(response.ErrInvalidPayload))
	}

	switch env.Action {
	case ws.ActionPing:
		return nil, ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})

	case ws.ActionSubmit:
		var req ws.SubmitRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, ws.WriteError(conn, string(response.ErrInvalidPayload), response.GetMessage(response.ErrInvalidPayload))
		}
		if req.QuestionIndex == nil || *req.QuestionIndex < 0 {
			return nil, ws.WriteError(conn, string(response.ErrValidation), "question_index is required")
		}
		state, err := h.examService.Submit(ctx, sessionID, *req.QuestionIndex, req.Option)
		if err != nil {
			_, code := mapExamError(err)
			if werr := ws.WriteError(conn, string(code), response.GetMessage(code)); werr != nil {
				return nil, werr
			}
		}
		if err := ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: state}); err != nil {
			return nil, err
		}
		return &state, nil

	default:
		h.log.Warn().Str("action", string(env.Action)).Msg("Unknown action")
		return nil, ws.WriteError(conn, string(response.ErrInvalidPayload), "unknown action: "+string(env.Action))
	}
}

func changed(prev, next exam.State) bool {
	return prev.Phase != next.Phase || prev.Index != next.Index
}
