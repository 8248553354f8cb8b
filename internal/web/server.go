// Package web serves the live table over a websocket plus a stateless
// analyze endpoint.
package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Alias1177/Baccarat/internal/analyze"
	"github.com/Alias1177/Baccarat/internal/payment"
	"github.com/Alias1177/Baccarat/internal/render"
	"github.com/Alias1177/Baccarat/internal/session"
	"github.com/Alias1177/Baccarat/models"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	maxBodySize    = 64 << 10
)

// Actions a client frame may carry
const (
	ActionBanker   = "banker"
	ActionPlayer   = "player"
	ActionTie      = "tie"
	ActionUndo     = "undo"
	ActionClear    = "clear"
	ActionAnalyze  = "analyze"
	ActionStrategy = "strategy"
)

// Frame is one client command
type Frame struct {
	Action   string `json:"action"`
	Strategy string `json:"strategy,omitempty"`
}

// AnalyzeRequest is the body of POST /analyze
type AnalyzeRequest struct {
	Results  string `json:"results"`
	Strategy string `json:"strategy,omitempty"`
}

// Access decides whether a strategy may run. *payment.Gate implements it.
type Access interface {
	Allow(userID int64, strategy string) error
}

// Server hosts the web display surface
type Server struct {
	store           *session.Store
	commands        *session.Commands
	access          Access
	defaultStrategy string
	commandsPerSec  float64
	upgrader        websocket.Upgrader
	logger          zerolog.Logger
}

// NewServer creates the web surface. journal and access may be nil, a nil
// access allows every strategy.
func NewServer(store *session.Store, journal models.Journal, access Access, defaultStrategy string, commandsPerSec float64) *Server {
	return &Server{
		store:           store,
		commands:        session.NewCommands(journal, models.SurfaceWeb),
		access:          access,
		defaultStrategy: defaultStrategy,
		commandsPerSec:  commandsPerSec,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log.With().Str("component", "web").Logger(),
	}
}

// Routes returns the HTTP handler
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.Len()})
	})
	return mux
}

// handleWS runs one table per connection for as long as it stays open
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	owner := "ws:" + uuid.NewString()
	sess := s.store.Open(owner, 0)
	defer func() {
		if err := s.store.Discard(owner); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
			s.logger.Warn().Err(err).Str("owner", owner).Msg("Failed to discard session")
		}
	}()

	logger := s.logger.With().Str("session_id", sess.ID.String()).Logger()
	logger.Debug().Str("remote", r.RemoteAddr).Msg("Table opened")

	limiter := rate.NewLimiter(rate.Limit(s.commandsPerSec), max(1, int(s.commandsPerSec)))
	ctx := r.Context()

	if err := s.write(conn, render.NewSnapshot(sess.Overview(), sess.Results())); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("Websocket closed unexpectedly")
			}
			return
		}

		var snap render.Snapshot
		if !limiter.Allow() {
			snap = render.NewSnapshot(sess.Overview(), sess.Results())
			snap.Error = "rate limit exceeded, slow down"
		} else {
			snap = s.apply(ctx, sess, data)
		}

		if err := s.write(conn, snap); err != nil {
			logger.Debug().Err(err).Msg("Write failed")
			return
		}
	}
}

// apply runs one client frame and returns the resulting table
func (s *Server) apply(ctx context.Context, sess *session.Session, data []byte) render.Snapshot {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return s.failed(sess, "malformed frame")
	}

	var report models.Report
	switch strings.ToLower(frame.Action) {
	case ActionBanker, ActionPlayer, ActionTie:
		o, err := models.ParseOutcome(frame.Action)
		if err != nil {
			return s.failed(sess, err.Error())
		}
		if report, err = s.commands.Record(ctx, sess, o); err != nil {
			return s.failed(sess, err.Error())
		}
	case ActionUndo:
		report, _ = s.commands.Undo(sess)
	case ActionClear:
		report = s.commands.Clear(sess)
	case ActionAnalyze:
		if err := s.allow(sess.Strategy().Name()); err != nil {
			return s.failed(sess, err.Error())
		}
		report = s.commands.Analyze(ctx, sess)
	case ActionStrategy:
		strategy, err := analyze.NewStrategy(frame.Strategy)
		if err != nil {
			return s.failed(sess, err.Error())
		}
		if err := s.allow(strategy.Name()); err != nil {
			return s.failed(sess, err.Error())
		}
		sess.SetStrategy(strategy)
		report = sess.Overview()
	default:
		return s.failed(sess, "unknown action "+frame.Action)
	}

	return render.NewSnapshot(report, sess.Results())
}

// allow checks a strategy for the anonymous web user
func (s *Server) allow(strategy string) error {
	if s.access == nil {
		return nil
	}
	return s.access.Allow(0, strategy)
}

func (s *Server) failed(sess *session.Session, msg string) render.Snapshot {
	snap := render.NewSnapshot(sess.Overview(), sess.Results())
	snap.Error = msg
	return snap
}

func (s *Server) write(conn *websocket.Conn, snap render.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode snapshot")
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// handleAnalyze analyzes a posted scorecard without keeping any state
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, render.Snapshot{Error: "error reading request body"})
		return
	}

	var req AnalyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, render.Snapshot{Error: "malformed request"})
		return
	}

	results, err := models.ParseOutcomes(req.Results)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, render.Snapshot{Error: err.Error()})
		return
	}

	name := req.Strategy
	if name == "" {
		name = s.defaultStrategy
	}
	strategy, err := analyze.NewStrategy(name)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, render.Snapshot{Error: err.Error()})
		return
	}
	if err := s.allow(name); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, payment.ErrPremiumRequired) {
			status = http.StatusPaymentRequired
		}
		writeJSON(w, status, render.Snapshot{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, render.NewSnapshot(analyze.Analyze(results, strategy), results))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}
