package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/text/language"

	"github.com/fortuna/matchboard/internal/logger"
	"github.com/fortuna/matchboard/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	closeReasonShutdown = "server shutting down"
)

// Message types
const (
	TypeSelect = "select"
	TypeReset  = "reset"
	TypeView   = "view"
	TypeError  = "error"
)

// ClientMessage is a selection change sent by the browser
type ClientMessage struct {
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

// ServerMessage is a view update or a protocol error
type ServerMessage struct {
	Type      string             `json:"type"`
	Selection *service.Selection `json:"selection,omitempty"`
	View      *service.View      `json:"view,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// session holds one connection's selection. Messages are handled one at a
// time by the read loop, so the selection needs no locking.
type session struct {
	conn      *websocket.Conn
	dashboard *service.DashboardService
	lang      language.Tag
	log       *logger.Logger
	selection service.Selection
	send      chan ServerMessage
}

func newSession(conn *websocket.Conn, dashboard *service.DashboardService, lang language.Tag, log *logger.Logger) *session {
	return &session{
		conn:      conn,
		dashboard: dashboard,
		lang:      lang,
		log:       log.With(logger.M{"remote": conn.RemoteAddr().String()}),
		send:      make(chan ServerMessage, 16),
	}
}

// run sends the initial view and serves messages until the client goes away.
func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writePump(ctx)
	}()

	s.log.Info("session opened", nil)
	s.send <- s.viewMessage(ctx)
	s.readPump(ctx)
	s.log.Info("session closed", nil)

	close(s.send)
	<-done
}

func (s *session) readPump(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("read failed", logger.M{"err": err})
			}
			return
		}

		select {
		case s.send <- s.handle(ctx, raw):
		case <-ctx.Done():
			return
		}
	}
}

func (s *session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer s.conn.Close()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				s.log.Warn("write failed", logger.M{"err": err})
				s.drain()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.drain()
				return
			}
		case <-ctx.Done():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, closeReasonShutdown))
			s.drain()
			return
		}
	}
}

// drain discards queued messages so the read loop never blocks on a dead writer.
func (s *session) drain() {
	_ = s.conn.Close()
	for range s.send {
	}
}

// handle applies one client message and returns the reply. Protocol errors
// produce an error reply and leave the selection unchanged.
func (s *session) handle(ctx context.Context, raw []byte) ServerMessage {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return errorMessage(errors.New("invalid message: expected JSON object"))
	}

	switch msg.Type {
	case TypeReset:
		s.selection = service.Selection{}
	case TypeSelect:
		next, err := s.selection.Apply(msg.Field, msg.Value)
		if err != nil {
			return errorMessage(err)
		}
		s.selection = next
	default:
		return errorMessage(fmt.Errorf("unknown message type %q", msg.Type))
	}

	return s.viewMessage(ctx)
}

func (s *session) viewMessage(ctx context.Context) ServerMessage {
	sel := s.selection
	view := s.dashboard.View(ctx, sel, s.lang)
	return ServerMessage{Type: TypeView, Selection: &sel, View: &view}
}

func errorMessage(err error) ServerMessage {
	return ServerMessage{Type: TypeError, Error: err.Error()}
}
