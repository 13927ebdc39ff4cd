// Package statusd serves the localhost status and control API. Local
// pages and scripts use it to watch the session and drive turns without
// going through the tray.
package statusd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vaani-app/vaani/internal/audio"
	"github.com/vaani-app/vaani/internal/backend"
	"github.com/vaani-app/vaani/internal/config"
	"github.com/vaani-app/vaani/internal/logger"
	"github.com/vaani-app/vaani/internal/session"
)

// Controller is the slice of the session controller the API drives.
type Controller interface {
	Snapshot() session.Session
	Start() error
	Stop() error
	Subscribe(session.Listener)
}

// DeviceLister enumerates capture devices for GET /api/devices.
type DeviceLister interface {
	ListDevices() ([]audio.Device, error)
}

// HealthProber checks backend liveness for GET /api/health.
type HealthProber interface {
	Health(ctx context.Context) (*backend.HealthStatus, error)
}

// Deps are the collaborators the server exposes over HTTP.
type Deps struct {
	Controller Controller
	Settings   *config.Config
	Devices    DeviceLister
	Health     HealthProber
	Log        *logger.Logger
}

// Config holds server configuration
type Config struct {
	Addr            string
	ConfigPath      string
	LevelInterval   time.Duration
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:18765",
		ConfigPath:      config.GetConfigPath(),
		LevelInterval:   33 * time.Millisecond,
		ReadTimeout:     10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// event is one outbound frame on an event stream.
type event struct {
	name string
	data []byte
}

// Server is the localhost HTTP status server.
type Server struct {
	cfg  Config
	deps Deps

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	done       chan struct{}
	running    bool

	clientMu sync.Mutex
	clients  map[chan event]struct{}
}

// New creates a server and subscribes it to controller transitions.
// Call Start to begin serving.
func New(deps Deps, cfg Config) *Server {
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		clients: make(map[chan event]struct{}),
	}

	if deps.Controller != nil {
		deps.Controller.Subscribe(func(tr session.Transition) {
			s.broadcast("transition", transitionPayload{
				From:    stateLabel(tr.From),
				To:      stateLabel(tr.To),
				Session: statusOf(tr.Session),
			})
		})
	}

	return s
}

// Start begins serving on the configured address. The listener is bound
// before Start returns, so Addr reports the real port even when the
// configured one is 0.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener
	s.done = make(chan struct{})

	s.httpServer = &http.Server{
		Handler:     corsMiddleware(s.routes()),
		ReadTimeout: s.cfg.ReadTimeout,
		// WriteTimeout stays zero so /api/events streams are never cut off.
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logWarn("status server stopped: %v", err)
		}
	}()

	s.running = true
	s.logInfo("status server listening on %s", listener.Addr())
	return nil
}

// Stop ends open event streams and shuts the server down gracefully.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}

	// Streams must end before Shutdown, otherwise it waits out the
	// whole timeout on connections that never go idle.
	close(s.done)

	httpServer := s.httpServer
	s.running = false
	s.httpServer = nil
	s.listener = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// URL returns the base URL of the server.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// IsRunning returns whether the server is accepting requests.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/session/start", s.handleSessionStart)
	mux.HandleFunc("/api/session/stop", s.handleSessionStop)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/devices", s.handleDevices)
	mux.HandleFunc("/api/health", s.handleHealth)
	return mux
}

// corsMiddleware allows browser requests from localhost origins only.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "http://127.0.0.1") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) addClient() chan event {
	ch := make(chan event, 16)
	s.clientMu.Lock()
	s.clients[ch] = struct{}{}
	s.clientMu.Unlock()
	return ch
}

func (s *Server) removeClient(ch chan event) {
	s.clientMu.Lock()
	delete(s.clients, ch)
	s.clientMu.Unlock()
}

func (s *Server) clientCount() int {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	return len(s.clients)
}

// broadcast queues an event for every connected stream. A slow client
// loses events rather than stalling the controller's listener goroutine.
func (s *Server) broadcast(name string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}

	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- event{name: name, data: data}:
		default:
		}
	}
}

func (s *Server) logInfo(format string, v ...interface{}) {
	if s.deps.Log != nil {
		s.deps.Log.Info(format, v...)
	}
}

func (s *Server) logWarn(format string, v ...interface{}) {
	if s.deps.Log != nil {
		s.deps.Log.Warn(format, v...)
	}
}
