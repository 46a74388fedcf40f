// internal/api/api.go
// HTTP surface: the websocket endpoint players connect to and a health check.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/rs/cors"

	"github.com/erilali/tictactoe/internal/config"
	"github.com/erilali/tictactoe/internal/lobby"
	"github.com/erilali/tictactoe/internal/logger"
	"github.com/erilali/tictactoe/internal/transport"
)

const (
	healthTimeout     = 2 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type Server struct {
	cfg       config.ServerConfig
	lobby     *lobby.Lobby
	nc        *nats.Conn
	log       *logger.Logger
	upgrader  websocket.Upgrader
	startTime time.Time
}

// NewServer builds the HTTP server. nc may be nil when running without NATS.
func NewServer(cfg config.ServerConfig, l *lobby.Lobby, nc *nats.Conn, log *logger.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		lobby:     l,
		nc:        nc,
		log:       log,
		startTime: time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+s.cfg.Path, s.serveWs)
	mux.HandleFunc("GET /health", s.health)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	})
	return c.Handler(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Listening on %s (websocket at %s)", s.cfg.Addr, s.cfg.Path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.ShutdownTimeout))
		defer cancel()
		s.log.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(s.cfg.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, origin)
}

// serveWs upgrades the connection and hands it to the lobby.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade error: %v", err)
		return
	}
	conn := transport.NewConn(ws, s.lobby.Do, logger.NewLogger("transport"))
	s.lobby.Do(func() {
		p := s.lobby.Enter(conn)
		conn.Start()
		s.log.Debugf("Player %s connected from %s", p.ID(), r.RemoteAddr)
	})
}

type healthResponse struct {
	Status  string `json:"status"`
	NATS    string `json:"nats"`
	Worlds  int    `json:"worlds"`
	Players int    `json:"players"`
	Uptime  string `json:"uptime"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{
		Status: "ok",
		NATS:   "disabled",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	}
	if s.nc != nil {
		resp.NATS = s.nc.Status().String()
	}

	code := http.StatusOK
	stats, err := s.lobby.Stats(ctx)
	if err != nil {
		s.log.Warnf("Health check could not reach the lobby: %v", err)
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	resp.Worlds, resp.Players = stats.Worlds, stats.Players

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Errorf("Error encoding health response: %v", err)
	}
}
