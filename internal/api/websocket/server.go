package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/text/language"

	"github.com/fortuna/matchboard/internal/logger"
	"github.com/fortuna/matchboard/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server serves dashboard sessions over websocket
type Server struct {
	port      string
	server    *http.Server
	dashboard *service.DashboardService
	lang      language.Tag
	log       *logger.Logger

	mu       sync.Mutex
	sessions map[*session]context.CancelFunc
	running  sync.WaitGroup
	closed   bool
}

// NewServer creates a new WebSocket server
func NewServer(port string, dashboard *service.DashboardService, defaultLang language.Tag, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	if defaultLang == language.Und {
		defaultLang = language.English
	}

	s := &Server{
		port:      port,
		dashboard: dashboard,
		lang:      defaultLang,
		log:       log.With(logger.M{"component": "websocket"}),
		sessions:  make(map[*session]context.CancelFunc),
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/dashboard", s.handleDashboard)
	mux.HandleFunc("/ws/health", s.handleHealth)
	return mux
}

// Start starts the WebSocket server
func (s *Server) Start() error {
	s.log.Info("listening", logger.M{"port": s.port})
	return s.server.ListenAndServe()
}

// SessionCount returns the number of open dashboard sessions
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// track registers a session so Shutdown can end it. It reports false once the
// server is shutting down.
func (s *Server) track(sess *session, cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions[sess] = cancel
	s.running.Add(1)
	return true
}

func (s *Server) untrack(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
	s.running.Done()
}

// handleDashboard upgrades the connection and runs one session until it closes
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("upgrade failed", logger.M{"err": err})
		return
	}

	lang := service.MatchLanguage(r.URL.Query().Get("lang"), s.lang)
	if r.URL.Query().Get("lang") == "" {
		lang = service.MatchLanguage(r.Header.Get("Accept-Language"), s.lang)
	}

	session := newSession(conn, s.dashboard, lang, s.log)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	if !s.track(session, cancel) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, closeReasonShutdown), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	defer s.untrack(session)

	session.run(ctx)
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "sessions": %d}`, s.SessionCount())
}

// Shutdown stops accepting connections, then sends every open session a
// going-away close and waits for the sessions to end or ctx to expire.
// Upgraded connections are hijacked, so http.Server.Shutdown alone never
// closes them.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)

	s.mu.Lock()
	s.closed = true
	open := len(s.sessions)
	for _, cancel := range s.sessions {
		cancel()
	}
	s.mu.Unlock()

	if open > 0 {
		s.log.Info("closing sessions", logger.M{"sessions": open})
	}

	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		return errors.Join(err, fmt.Errorf("close sessions: %w", ctx.Err()))
	}
}
