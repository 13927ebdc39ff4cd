package statusd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vaani-app/vaani/internal/audio"
	"github.com/vaani-app/vaani/internal/backend"
	"github.com/vaani-app/vaani/internal/config"
	"github.com/vaani-app/vaani/internal/fault"
	"github.com/vaani-app/vaani/internal/session"
)

type fakeController struct {
	mu        sync.Mutex
	snapshot  session.Session
	startErr  error
	stopErr   error
	starts    int
	stops     int
	listeners []session.Listener
}

func (f *fakeController) Snapshot() session.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func (f *fakeController) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.snapshot.State = session.Recording
	return nil
}

func (f *fakeController) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	if f.stopErr != nil {
		return f.stopErr
	}
	f.snapshot.State = session.Processing
	return nil
}

func (f *fakeController) Subscribe(fn session.Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

func (f *fakeController) setSnapshot(sess session.Session) {
	f.mu.Lock()
	f.snapshot = sess
	f.mu.Unlock()
}

func (f *fakeController) fire(tr session.Transition) {
	f.mu.Lock()
	listeners := append([]session.Listener(nil), f.listeners...)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(tr)
	}
}

type fakeDevices struct {
	devices []audio.Device
	err     error
}

func (f *fakeDevices) ListDevices() ([]audio.Device, error) {
	return f.devices, f.err
}

type fakeHealth struct {
	status *backend.HealthStatus
	err    error
}

func (f *fakeHealth) Health(ctx context.Context) (*backend.HealthStatus, error) {
	return f.status, f.err
}

func newTestServer(ctrl *fakeController) *Server {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.LevelInterval = 5 * time.Millisecond
	return New(Deps{
		Controller: ctrl,
		Settings:   config.DefaultConfig(),
		Devices:    &fakeDevices{devices: []audio.Device{{ID: 0, Name: "Built-in Microphone", IsDefault: true}}},
		Health:     &fakeHealth{status: &backend.HealthStatus{Status: "healthy"}},
	}, cfg)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// streamRecorder is a concurrency-safe ResponseWriter for streaming
// handlers. httptest.ResponseRecorder cannot be read while the handler
// is still writing.
type streamRecorder struct {
	mu      sync.Mutex
	headers http.Header
	status  int
	body    bytes.Buffer
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{headers: make(http.Header)}
}

func (w *streamRecorder) Header() http.Header {
	return w.headers
}

func (w *streamRecorder) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.body.Write(b)
}

func (w *streamRecorder) WriteHeader(statusCode int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = statusCode
}

func (w *streamRecorder) Flush() {}

func (w *streamRecorder) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.body.String()
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Addr != "127.0.0.1:18765" {
		t.Errorf("Expected addr 127.0.0.1:18765, got %s", cfg.Addr)
	}

	if cfg.LevelInterval != 33*time.Millisecond {
		t.Errorf("Expected LevelInterval 33ms, got %v", cfg.LevelInterval)
	}

	if cfg.ReadTimeout != 10*time.Second {
		t.Errorf("Expected ReadTimeout 10s, got %v", cfg.ReadTimeout)
	}

	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected ShutdownTimeout 5s, got %v", cfg.ShutdownTimeout)
	}
}

func TestStartStop(t *testing.T) {
	ctrl := &fakeController{}
	server := newTestServer(ctrl)

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	if !server.IsRunning() {
		t.Error("Expected server to be running")
	}

	// Port 0 in the config means the listener picked a real one
	if server.Addr() == "127.0.0.1:0" {
		t.Error("Expected a bound port, got the unresolved address")
	}

	// Try to start again (should fail)
	if err := server.Start(); err == nil {
		t.Error("Expected error when starting already running server")
	}

	resp, err := http.Get(server.URL() + "/api/status")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status["state"] != "idle" {
		t.Errorf("Expected state idle, got %v", status["state"])
	}

	if err := server.Stop(); err != nil {
		t.Errorf("Failed to stop server: %v", err)
	}

	if server.IsRunning() {
		t.Error("Expected server to be stopped")
	}

	// Stop again (should succeed, no-op)
	if err := server.Stop(); err != nil {
		t.Errorf("Expected no error when stopping already stopped server: %v", err)
	}
}

func TestURL(t *testing.T) {
	ctrl := &fakeController{}
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:12345"
	server := New(Deps{Controller: ctrl}, cfg)

	expectedURL := "http://127.0.0.1:12345"
	if server.URL() != expectedURL {
		t.Errorf("Expected URL %s, got %s", expectedURL, server.URL())
	}
}

func TestHandleStatus(t *testing.T) {
	ctrl := &fakeController{}
	ctrl.setSnapshot(session.Session{
		State:        session.Playing,
		SessionID:    "sess-3",
		Transcript:   "kya haal hai",
		ResponseText: "sab theek",
		AudioLevel:   0.25,
		TurnID:       "turn-9",
	})
	server := newTestServer(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()

	server.handleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var status statusPayload
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status.State != "playing" {
		t.Errorf("Expected state playing, got %q", status.State)
	}

	if status.Transcript != "kya haal hai" {
		t.Errorf("Expected transcript 'kya haal hai', got %q", status.Transcript)
	}

	if status.TurnID != "turn-9" {
		t.Errorf("Expected turn ID turn-9, got %q", status.TurnID)
	}
}

func TestHandleStatusFault(t *testing.T) {
	ctrl := &fakeController{}
	ctrl.setSnapshot(session.Session{
		State: session.Error,
		Fault: fault.New(fault.NetworkError, "backend unreachable"),
	})
	server := newTestServer(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()

	server.handleStatus(w, req)

	var status map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	fe, ok := status["fault"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected fault object, got %v", status["fault"])
	}

	if fe["kind"] != "network_error" {
		t.Errorf("Expected kind network_error, got %v", fe["kind"])
	}

	if fe["retryable"] != true {
		t.Errorf("Expected retryable true, got %v", fe["retryable"])
	}
}

func TestSessionStartAndStop(t *testing.T) {
	ctrl := &fakeController{}
	server := newTestServer(ctrl)

	req := httptest.NewRequest(http.MethodPost, "/api/session/start", nil)
	w := httptest.NewRecorder()

	server.handleSessionStart(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var status statusPayload
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status.State != "recording" {
		t.Errorf("Expected state recording, got %q", status.State)
	}

	if ctrl.starts != 1 {
		t.Errorf("Expected 1 start call, got %d", ctrl.starts)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/session/stop", nil)
	w = httptest.NewRecorder()

	server.handleSessionStop(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status.State != "processing" {
		t.Errorf("Expected state processing, got %q", status.State)
	}

	if ctrl.stops != 1 {
		t.Errorf("Expected 1 stop call, got %d", ctrl.stops)
	}
}

func TestSessionStartConflict(t *testing.T) {
	ctrl := &fakeController{
		startErr: fault.New(fault.InvalidState, "start is only valid from Idle or Error"),
	}
	server := newTestServer(ctrl)

	req := httptest.NewRequest(http.MethodPost, "/api/session/start", nil)
	w := httptest.NewRecorder()

	server.handleSessionStart(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if body["kind"] != "invalid_state" {
		t.Errorf("Expected kind invalid_state, got %v", body["kind"])
	}

	if body["retryable"] != false {
		t.Errorf("Expected retryable false, got %v", body["retryable"])
	}
}

func TestSessionStopFailure(t *testing.T) {
	ctrl := &fakeController{stopErr: errors.New("capture wedged")}
	server := newTestServer(ctrl)

	req := httptest.NewRequest(http.MethodPost, "/api/session/stop", nil)
	w := httptest.NewRecorder()

	server.handleSessionStop(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if body["error"] != "capture wedged" {
		t.Errorf("Expected error 'capture wedged', got %q", body["error"])
	}
}

func TestGetSettings(t *testing.T) {
	ctrl := &fakeController{}
	server := newTestServer(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	w := httptest.NewRecorder()

	server.handleSettings(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response config.Config
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.BackendURL != "http://127.0.0.1:8000" {
		t.Errorf("Expected default backend URL, got %q", response.BackendURL)
	}

	if response.LanguageCode != "en-IN" {
		t.Errorf("Expected language code en-IN, got %q", response.LanguageCode)
	}
}

func TestPutSettings(t *testing.T) {
	ctrl := &fakeController{}
	settings := config.DefaultConfig()
	cfg := DefaultConfig()
	cfg.ConfigPath = filepath.Join(t.TempDir(), "config.json")
	server := New(Deps{Controller: ctrl, Settings: settings}, cfg)

	updates := map[string]interface{}{
		"language_code": "hi-IN",
		"mode":          "dictation",
	}

	body, _ := json.Marshal(updates)
	req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader(body))
	w := httptest.NewRecorder()

	server.handleSettings(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if settings.LanguageCode != "hi-IN" {
		t.Errorf("Expected LanguageCode 'hi-IN', got %q", settings.LanguageCode)
	}

	if settings.Mode != "dictation" {
		t.Errorf("Expected Mode 'dictation', got %q", settings.Mode)
	}

	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		t.Errorf("Expected config file to be written: %v", err)
	}
}

func TestPutSettingsInvalid(t *testing.T) {
	ctrl := &fakeController{}
	server := newTestServer(ctrl)

	req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader([]byte("invalid")))
	w := httptest.NewRecorder()

	server.handleSettings(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestPutSettingsRejected(t *testing.T) {
	ctrl := &fakeController{}
	server := newTestServer(ctrl)

	body, _ := json.Marshal(map[string]interface{}{"mode": "karaoke"})
	req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader(body))
	w := httptest.NewRecorder()

	server.handleSettings(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestHandleDevices(t *testing.T) {
	ctrl := &fakeController{}
	server := newTestServer(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	w := httptest.NewRecorder()

	server.handleDevices(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Devices []devicePayload `json:"devices"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(response.Devices) != 1 {
		t.Fatalf("Expected 1 device, got %d", len(response.Devices))
	}

	if response.Devices[0].Name != "Built-in Microphone" {
		t.Errorf("Expected device name 'Built-in Microphone', got %q", response.Devices[0].Name)
	}

	if !response.Devices[0].IsDefault {
		t.Error("Expected device to be the default")
	}
}

func TestHandleDevicesFallback(t *testing.T) {
	ctrl := &fakeController{}
	cfg := DefaultConfig()
	server := New(Deps{
		Controller: ctrl,
		Settings:   config.DefaultConfig(),
		Devices:    &fakeDevices{err: errors.New("no sound server")},
	}, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	w := httptest.NewRecorder()

	server.handleDevices(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Devices []devicePayload `json:"devices"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(response.Devices) != 1 {
		t.Fatalf("Expected fallback device, got %d devices", len(response.Devices))
	}

	if response.Devices[0].ID != -1 {
		t.Errorf("Expected fallback device ID -1, got %d", response.Devices[0].ID)
	}
}

func TestHandleHealth(t *testing.T) {
	ctrl := &fakeController{}
	server := newTestServer(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	server.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var status backend.HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status.Status != "healthy" {
		t.Errorf("Expected status healthy, got %q", status.Status)
	}
}

func TestHandleHealthUnreachable(t *testing.T) {
	ctrl := &fakeController{}
	cfg := DefaultConfig()
	server := New(Deps{
		Controller: ctrl,
		Settings:   config.DefaultConfig(),
		Health:     &fakeHealth{err: errors.New("connection refused")},
	}, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	server.handleHealth(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if body["status"] != "unreachable" {
		t.Errorf("Expected status unreachable, got %q", body["status"])
	}
}

func TestHandleHealthNoProber(t *testing.T) {
	ctrl := &fakeController{}
	server := New(Deps{Controller: ctrl, Settings: config.DefaultConfig()}, DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	server.handleHealth(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestEventsStreamTransitions(t *testing.T) {
	ctrl := &fakeController{}
	server := newTestServer(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := newStreamRecorder()

	finished := make(chan struct{})
	go func() {
		server.handleEvents(rec, req)
		close(finished)
	}()

	waitFor(t, "stream client to register", func() bool { return server.clientCount() == 1 })
	waitFor(t, "opening status event", func() bool {
		return strings.Contains(rec.String(), "event: status")
	})

	ctrl.fire(session.Transition{
		From:    session.Idle,
		To:      session.Recording,
		Session: session.Session{State: session.Recording, TurnID: "turn-1"},
	})

	waitFor(t, "transition event", func() bool {
		body := rec.String()
		return strings.Contains(body, "event: transition") && strings.Contains(body, `"to":"recording"`)
	})

	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after context cancel")
	}

	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("Expected Content-Type text/event-stream, got %q", rec.Header().Get("Content-Type"))
	}

	waitFor(t, "client to unregister", func() bool { return server.clientCount() == 0 })
}

func TestEventsStreamLevels(t *testing.T) {
	ctrl := &fakeController{}
	ctrl.setSnapshot(session.Session{
		State:      session.Recording,
		AudioLevel: 0.6,
		TurnID:     "turn-2",
	})
	server := newTestServer(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := newStreamRecorder()

	finished := make(chan struct{})
	go func() {
		server.handleEvents(rec, req)
		close(finished)
	}()

	waitFor(t, "level event", func() bool {
		body := rec.String()
		return strings.Contains(body, "event: level") && strings.Contains(body, `"level":0.6`)
	})

	// Levels stop once the session leaves Recording. The settle sleep
	// absorbs any tick that was already in flight.
	ctrl.setSnapshot(session.Session{State: session.Processing})
	time.Sleep(30 * time.Millisecond)
	before := len(rec.String())
	time.Sleep(50 * time.Millisecond)
	if after := len(rec.String()); after != before {
		t.Errorf("Expected no level events outside Recording, wrote %d more bytes", after-before)
	}

	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after context cancel")
	}
}

func TestStopEndsEventStreams(t *testing.T) {
	ctrl := &fakeController{}
	server := newTestServer(ctrl)

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	resp, err := http.Get(server.URL() + "/api/events")
	if err != nil {
		t.Fatalf("Failed to connect to event stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected Content-Type text/event-stream, got %q", ct)
	}

	waitFor(t, "stream client to register", func() bool { return server.clientCount() == 1 })

	streamDone := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.Discard, resp.Body)
		streamDone <- err
	}()

	if err := server.Stop(); err != nil {
		t.Errorf("Failed to stop server: %v", err)
	}

	select {
	case <-streamDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not end the event stream")
	}
}

func TestBroadcastDoesNotBlockOnSlowClients(t *testing.T) {
	ctrl := &fakeController{}
	server := newTestServer(ctrl)

	// Register a client nobody reads from and overflow its buffer.
	ch := server.addClient()
	defer server.removeClient(ch)

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			server.broadcast("transition", transitionPayload{From: "idle", To: "recording"})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"Localhost", "http://localhost:5500", true},
		{"Loopback", "http://127.0.0.1:18765", true},
		{"Remote", "http://example.com", false},
		{"HTTPSLocalhost", "https://localhost:5500", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200 for preflight, got %d", w.Code)
			}

			got := w.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Errorf("Expected origin %q to be allowed, got %q", tt.origin, got)
			}
			if !tt.allowed && got != "" {
				t.Errorf("Expected origin %q to be rejected, got %q", tt.origin, got)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ctrl := &fakeController{}
	server := newTestServer(ctrl)

	tests := []struct {
		path   string
		method string
	}{
		{"/api/status", http.MethodPost},
		{"/api/events", http.MethodPost},
		{"/api/session/start", http.MethodGet},
		{"/api/session/stop", http.MethodGet},
		{"/api/settings", http.MethodDelete},
		{"/api/devices", http.MethodPost},
		{"/api/health", http.MethodPost},
	}

	for _, test := range tests {
		req := httptest.NewRequest(test.method, test.path, nil)
		w := httptest.NewRecorder()

		server.routes().ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: Expected status 405, got %d", test.method, test.path, w.Code)
		}
	}
}

func TestStateLabel(t *testing.T) {
	tests := []struct {
		state    session.State
		expected string
	}{
		{session.Idle, "idle"},
		{session.Recording, "recording"},
		{session.Processing, "processing"},
		{session.Playing, "playing"},
		{session.Error, "error"},
		{session.State(99), "unknown"},
	}

	for _, test := range tests {
		if got := stateLabel(test.state); got != test.expected {
			t.Errorf("stateLabel(%v) = %q, expected %q", test.state, got, test.expected)
		}
	}
}

func TestErrorStatus(t *testing.T) {
	if got := errorStatus(fault.New(fault.InvalidState, "busy")); got != http.StatusConflict {
		t.Errorf("Expected 409 for invalid state, got %d", got)
	}

	if got := errorStatus(fault.New(fault.DeviceUnavailable, "no mic")); got != http.StatusInternalServerError {
		t.Errorf("Expected 500 for device fault, got %d", got)
	}

	if got := errorStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("Expected 500 for plain error, got %d", got)
	}
}
