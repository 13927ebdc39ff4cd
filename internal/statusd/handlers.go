package statusd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vaani-app/vaani/internal/fault"
	"github.com/vaani-app/vaani/internal/session"
)

// statusPayload is the wire form of a session snapshot.
type statusPayload struct {
	State        string       `json:"state"`
	SessionID    string       `json:"session_id,omitempty"`
	Transcript   string       `json:"transcript,omitempty"`
	ResponseText string       `json:"response_text,omitempty"`
	AudioLevel   float64      `json:"audio_level"`
	Fault        *fault.Error `json:"fault,omitempty"`
	TurnID       string       `json:"turn_id,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// transitionPayload is the wire form of a state change.
type transitionPayload struct {
	From    string        `json:"from"`
	To      string        `json:"to"`
	Session statusPayload `json:"session"`
}

// levelPayload carries one microphone level reading.
type levelPayload struct {
	Level  float64 `json:"level"`
	TurnID string  `json:"turn_id,omitempty"`
}

// devicePayload is the wire form of a capture device.
type devicePayload struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

func stateLabel(st session.State) string {
	return strings.ToLower(st.String())
}

func statusOf(sess session.Session) statusPayload {
	return statusPayload{
		State:        stateLabel(sess.State),
		SessionID:    sess.SessionID,
		Transcript:   sess.Transcript,
		ResponseText: sess.ResponseText,
		AudioLevel:   sess.AudioLevel,
		Fault:        sess.Fault,
		TurnID:       sess.TurnID,
		UpdatedAt:    sess.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorStatus maps controller errors onto HTTP codes. Starting or
// stopping in the wrong state is a conflict, not a server failure.
func errorStatus(err error) int {
	if fault.IsKind(err, fault.InvalidState) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func errorBody(err error) interface{} {
	var fe *fault.Error
	if errors.As(err, &fe) {
		return fe
	}
	return map[string]string{"error": err.Error()}
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, statusOf(s.deps.Controller.Snapshot()))
}

// handleSessionStart handles POST /api/session/start
func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.deps.Controller.Start(); err != nil {
		writeJSON(w, errorStatus(err), errorBody(err))
		return
	}
	writeJSON(w, http.StatusOK, statusOf(s.deps.Controller.Snapshot()))
}

// handleSessionStop handles POST /api/session/stop
func (s *Server) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.deps.Controller.Stop(); err != nil {
		writeJSON(w, errorStatus(err), errorBody(err))
		return
	}
	writeJSON(w, http.StatusOK, statusOf(s.deps.Controller.Snapshot()))
}

// handleSettings handles GET and PUT /api/settings
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getSettings(w, r)
	case http.MethodPut:
		s.putSettings(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// getSettings returns the current configuration
func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Settings.Clone())
}

// putSettings patches the configuration and persists it
func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.deps.Settings.Update(updates); err != nil {
		http.Error(w, fmt.Sprintf("Failed to update config: %v", err), http.StatusBadRequest)
		return
	}

	if err := s.deps.Settings.Save(s.cfg.ConfigPath); err != nil {
		http.Error(w, fmt.Sprintf("Failed to save config: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
	})
}

// handleDevices handles GET /api/devices
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Fall back to the system default entry when the driver cannot
	// enumerate, so a settings page always has something to select.
	devices := []devicePayload{{ID: -1, Name: "System default", IsDefault: true}}
	if s.deps.Devices != nil {
		if listed, err := s.deps.Devices.ListDevices(); err == nil {
			devices = devices[:0]
			for _, dev := range listed {
				devices = append(devices, devicePayload{
					ID:        dev.ID,
					Name:      dev.Name,
					IsDefault: dev.IsDefault,
				})
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"devices": devices,
	})
}

// handleHealth handles GET /api/health by probing the voice backend.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.deps.Health == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	hs, err := s.deps.Health.Health(ctx)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"status": "unreachable",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, hs)
}

// handleEvents handles GET /api/events as a Server-Sent Events stream.
// Every state change arrives as a transition event; while recording,
// level events follow the meter cadence.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch := s.addClient()
	defer s.removeClient(ch)

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	// Opening snapshot so the client does not have to wait for the
	// next turn to learn the current state.
	snap, _ := json.Marshal(statusOf(s.deps.Controller.Snapshot()))
	if err := writeEvent(w, "status", snap); err != nil {
		return
	}
	flusher.Flush()

	interval := s.cfg.LevelInterval
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case ev := <-ch:
			if err := writeEvent(w, ev.name, ev.data); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			cur := s.deps.Controller.Snapshot()
			if cur.State != session.Recording {
				continue
			}
			data, _ := json.Marshal(levelPayload{Level: cur.AudioLevel, TurnID: cur.TurnID})
			if err := writeEvent(w, "level", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, name string, data []byte) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
