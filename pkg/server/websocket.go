package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/binderlink/binderlink/internal/errors"
	"github.com/binderlink/binderlink/pkg/launch"
)

// Message types a form client sends.
const (
	MsgProvider = "provider"
	MsgRepo     = "repo"
	MsgRef      = "ref"
	MsgPath     = "path"
	MsgKind     = "kind"
	MsgBadge    = "badge"
)

// clientMessage is one form edit.
type clientMessage struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Snapshot is the full derived state sent after every client message.
type Snapshot struct {
	SessionID string `json:"sessionId"`
	launch.Link
	Accepted bool            `json:"accepted"`
	Error    *errors.Payload `json:"error,omitempty"`
}

// session is one live form connection.
type session struct {
	id       string
	conn     *websocket.Conn
	sel      *launch.Selection
	badge    launch.BadgeKind
	accepted bool
	server   *Server
	logger   *slog.Logger

	closeOnce sync.Once
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sel, err := launch.NewSelection(s.config.Store.Registry())
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		s.metrics.RecordWebSocketError("upgrade")
		return
	}

	sess := &session{
		id:       uuid.NewString(),
		conn:     conn,
		sel:      sel,
		badge:    launch.BadgeMarkdown,
		accepted: true,
		server:   s,
	}
	sess.logger = s.logger.With("session_id", sess.id)

	s.addSession(sess)
	defer s.removeSession(sess)

	sess.logger.Debug("form session opened", "remote", r.RemoteAddr)
	sess.run()
	sess.logger.Debug("form session closed")
}

// run sends the initial snapshot and serves client messages until the
// connection closes.
func (sess *session) run() {
	cfg := sess.server.config
	pongWait := 2 * cfg.PingInterval

	defer sess.conn.Close()

	sess.conn.SetReadLimit(cfg.ReadLimit)
	sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go sess.pingLoop(done)

	if err := sess.send(nil); err != nil {
		return
	}

	for {
		_, msg, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				sess.logger.Warn("read error", "error", err)
				sess.server.metrics.RecordWebSocketError("read")
			}
			return
		}
		sess.conn.SetReadDeadline(time.Now().Add(pongWait))

		var m clientMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			sess.server.metrics.RecordWebSocketError("decode")
			if sess.send(errors.New("E124").WithDetail(err.Error())) != nil {
				return
			}
			continue
		}

		if err := sess.send(sess.apply(m)); err != nil {
			return
		}
	}
}

// apply updates the selection for one message. Invalid messages leave the
// state unchanged.
func (sess *session) apply(m clientMessage) *errors.Error {
	switch m.Type {
	case MsgProvider:
		if err := sess.sel.SelectProvider(m.Value); err != nil {
			return errors.FromError(err, "E120")
		}
		sess.accepted = true
	case MsgRepo:
		sess.accepted = sess.sel.InputRepo(m.Value)
		if !sess.accepted {
			sess.server.metrics.RecordDetectionReject(sess.sel.Provider().ID)
		}
	case MsgRef:
		sess.sel.SetRef(m.Value)
	case MsgPath:
		sess.sel.SetPath(m.Value)
	case MsgKind:
		kind, err := launch.ParsePathKind(m.Value)
		if err != nil {
			return errors.FromError(err, "E122")
		}
		sess.sel.SetPathKind(kind)
	case MsgBadge:
		kind, err := launch.ParseBadgeKind(m.Value)
		if err != nil {
			return errors.FromError(err, "E121")
		}
		sess.badge = kind
	default:
		return errors.New("E124").WithDetailf("unknown message type %q", m.Type)
	}
	return nil
}

func (sess *session) snapshot(e *errors.Error) Snapshot {
	snap := Snapshot{
		SessionID: sess.id,
		Link:      sess.sel.Link(sess.badge, sess.server.config.PublicBase),
		Accepted:  sess.accepted,
	}
	if e != nil {
		p := e.Payload()
		snap.Error = &p
	}
	return snap
}

func (sess *session) send(e *errors.Error) error {
	sess.conn.SetWriteDeadline(time.Now().Add(sess.server.config.WriteTimeout))
	if err := sess.conn.WriteJSON(sess.snapshot(e)); err != nil {
		sess.logger.Debug("write failed", "error", err)
		sess.server.metrics.RecordWebSocketError("write")
		return err
	}
	return nil
}

// pingLoop keeps the connection alive until done is closed.
func (sess *session) pingLoop(done <-chan struct{}) {
	cfg := sess.server.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(cfg.WriteTimeout)
			if err := sess.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// closeGoingAway tells the client the server is going away and closes the
// connection, which ends the read loop.
func (sess *session) closeGoingAway() {
	sess.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = sess.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
		_ = sess.conn.Close()
	})
}
