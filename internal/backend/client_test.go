package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vaani-app/vaani/internal/audio"
	"github.com/vaani-app/vaani/internal/fault"
	"github.com/vaani-app/vaani/internal/wav"
)

func testClip() audio.Clip {
	return audio.Clip{
		PCM:    wav.Bytes([]int16{0, 1000, -1000, 500}),
		Format: wav.Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16},
	}
}

func TestProcessVoice(t *testing.T) {
	var gotFilename, gotSession string
	var gotBytes []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/voice/process" {
			t.Errorf("Expected /voice/process, got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("Failed to parse multipart form: %v", err)
		}
		file, header, err := r.FormFile("audio_file")
		if err != nil {
			t.Fatalf("Missing audio_file field: %v", err)
		}
		defer file.Close()
		gotFilename = header.Filename
		gotBytes, _ = io.ReadAll(file)
		gotSession = r.FormValue("session_id")

		json.NewEncoder(w).Encode(ProcessResult{
			Transcript:       "open calculator",
			DetectedLanguage: "en-IN",
			ResponseText:     "Opening the calculator for you.",
			AudioBase64:      "UklGRjIAAABXQVZFZm10IBAAAAABAAEAQB8AAEAfAAABAAgAZGF0YQ4AAAA=",
			Agent: AgentResult{
				Status:    "success",
				Message:   "Calculator opened",
				SessionID: "sess-42",
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	result, err := c.ProcessVoice(context.Background(), testClip(), ProcessOptions{
		SessionID: "sess-42",
		TurnID:    "turn-7",
	})
	if err != nil {
		t.Fatalf("ProcessVoice failed: %v", err)
	}

	if gotFilename != "clip-turn-7.wav" {
		t.Errorf("Expected filename %q, got %q", "clip-turn-7.wav", gotFilename)
	}
	if gotSession != "sess-42" {
		t.Errorf("Expected session_id %q, got %q", "sess-42", gotSession)
	}
	if !bytes.HasPrefix(gotBytes, []byte("RIFF")) {
		t.Error("Expected uploaded clip to be a WAV container")
	}
	if result.Transcript != "open calculator" {
		t.Errorf("Expected transcript %q, got %q", "open calculator", result.Transcript)
	}
	if result.DetectedLanguage != "en-IN" {
		t.Errorf("Expected language %q, got %q", "en-IN", result.DetectedLanguage)
	}
	if result.Agent.Status != "success" {
		t.Errorf("Expected agent status %q, got %q", "success", result.Agent.Status)
	}
	if result.Agent.SessionID != "sess-42" {
		t.Errorf("Expected agent session %q, got %q", "sess-42", result.Agent.SessionID)
	}
}

func TestProcessVoiceDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("Failed to parse multipart form: %v", err)
		}
		_, header, err := r.FormFile("audio_file")
		if err != nil {
			t.Fatalf("Missing audio_file field: %v", err)
		}
		if header.Filename != "clip.wav" {
			t.Errorf("Expected filename %q, got %q", "clip.wav", header.Filename)
		}
		if _, ok := r.MultipartForm.Value["session_id"]; ok {
			t.Error("Expected no session_id field for a fresh conversation")
		}
		json.NewEncoder(w).Encode(ProcessResult{})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if _, err := c.ProcessVoice(context.Background(), testClip(), ProcessOptions{}); err != nil {
		t.Fatalf("ProcessVoice failed: %v", err)
	}
}

func TestProcessVoiceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"ASR timeout"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.ProcessVoice(context.Background(), testClip(), ProcessOptions{})
	if err == nil {
		t.Fatal("Expected error for HTTP 500")
	}
	if !fault.IsKind(err, fault.BackendFailed) {
		t.Errorf("Expected BackendFailed, got %v", fault.KindOf(err))
	}

	var fe *fault.Error
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *fault.Error, got %T", err)
	}
	if fe.Message != "ASR timeout" {
		t.Errorf("Expected message %q, got %q", "ASR timeout", fe.Message)
	}
	if fe.Retryable() {
		t.Error("Expected BackendFailed to not be retryable")
	}
}

func TestProcessVoiceNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.ProcessVoice(context.Background(), testClip(), ProcessOptions{})
	if err == nil {
		t.Fatal("Expected error for unreachable backend")
	}
	if !fault.IsKind(err, fault.NetworkError) {
		t.Errorf("Expected NetworkError, got %v", fault.KindOf(err))
	}

	var fe *fault.Error
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *fault.Error, got %T", err)
	}
	if !fe.Retryable() {
		t.Error("Expected NetworkError to be retryable")
	}
}

func TestProcessVoiceMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.ProcessVoice(context.Background(), testClip(), ProcessOptions{})
	if err == nil {
		t.Fatal("Expected error for malformed 200 body")
	}
	if !fault.IsKind(err, fault.BackendFailed) {
		t.Errorf("Expected BackendFailed, got %v", fault.KindOf(err))
	}
}

func TestTextToSpeech(t *testing.T) {
	var gotBody struct {
		Text         string `json:"text"`
		LanguageCode string `json:"language_code"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voice/text-to-speech" {
			t.Errorf("Expected /voice/text-to-speech, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(Speech{
			AudioBase64:  "UklGRjIAAABXQVZFZm10IBAAAAABAAEAQB8AAEAfAAABAAgAZGF0YQ4AAAA=",
			Text:         gotBody.Text,
			LanguageCode: gotBody.LanguageCode,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	speech, err := c.TextToSpeech(context.Background(), "Namaste", "hi-IN")
	if err != nil {
		t.Fatalf("TextToSpeech failed: %v", err)
	}

	if gotBody.Text != "Namaste" {
		t.Errorf("Expected text %q, got %q", "Namaste", gotBody.Text)
	}
	if gotBody.LanguageCode != "hi-IN" {
		t.Errorf("Expected language %q, got %q", "hi-IN", gotBody.LanguageCode)
	}
	if speech.AudioBase64 == "" {
		t.Error("Expected non-empty audio payload")
	}
}

func TestTextToSpeechDefaultLanguage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			LanguageCode string `json:"language_code"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.LanguageCode != DefaultLanguageCode {
			t.Errorf("Expected default language %q, got %q", DefaultLanguageCode, body.LanguageCode)
		}
		json.NewEncoder(w).Encode(Speech{})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if _, err := c.TextToSpeech(context.Background(), "hello", ""); err != nil {
		t.Fatalf("TextToSpeech failed: %v", err)
	}
}

func TestSpeechToText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voice/speech-to-text" {
			t.Errorf("Expected /voice/speech-to-text, got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("Failed to parse multipart form: %v", err)
		}
		if _, _, err := r.FormFile("audio_file"); err != nil {
			t.Fatalf("Missing audio_file field: %v", err)
		}
		json.NewEncoder(w).Encode(Transcription{
			Transcript:   "kal ka mausam kaisa hai",
			LanguageCode: "hi-IN",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	tr, err := c.SpeechToText(context.Background(), testClip())
	if err != nil {
		t.Fatalf("SpeechToText failed: %v", err)
	}
	if tr.Transcript != "kal ka mausam kaisa hai" {
		t.Errorf("Expected transcript %q, got %q", "kal ka mausam kaisa hai", tr.Transcript)
	}
	if tr.LanguageCode != "hi-IN" {
		t.Errorf("Expected language %q, got %q", "hi-IN", tr.LanguageCode)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("Expected /health, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(HealthStatus{Status: "healthy", Message: "voice backend is running"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	hs, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if hs.Status != "healthy" {
		t.Errorf("Expected status %q, got %q", "healthy", hs.Status)
	}
}

func TestSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/sessions/sess-9":
			w.Write([]byte(`{"session_id":"sess-9","turns":3}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/sessions/sess-9":
			w.Write([]byte(`{"message":"Session deleted successfully"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Session not found"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)

	doc, err := c.Session(context.Background(), "sess-9")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	var parsed struct {
		SessionID string `json:"session_id"`
		Turns     int    `json:"turns"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		t.Fatalf("Failed to parse session document: %v", err)
	}
	if parsed.Turns != 3 {
		t.Errorf("Expected 3 turns, got %d", parsed.Turns)
	}

	if err := c.DeleteSession(context.Background(), "sess-9"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	err = c.DeleteSession(context.Background(), "missing")
	if err == nil {
		t.Fatal("Expected error for unknown session")
	}
	var fe *fault.Error
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *fault.Error, got %T", err)
	}
	if fe.Message != "Session not found" {
		t.Errorf("Expected message %q, got %q", "Session not found", fe.Message)
	}
}

func TestErrorDetailFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"DetailField", http.StatusBadRequest, `{"detail":"Invalid audio format"}`, "Invalid audio format"},
		{"PlainBody", http.StatusBadGateway, "upstream exploded", "upstream exploded"},
		{"EmptyBody", http.StatusServiceUnavailable, "", "503 Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			}))
			defer srv.Close()

			c := New(srv.URL, time.Second)
			_, err := c.Health(context.Background())
			if err == nil {
				t.Fatal("Expected error")
			}
			var fe *fault.Error
			if !errors.As(err, &fe) {
				t.Fatalf("Expected *fault.Error, got %T", err)
			}
			if fe.Message != tt.expected {
				t.Errorf("Expected message %q, got %q", tt.expected, fe.Message)
			}
		})
	}
}

func TestBaseURLTrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:8000/", time.Second)
	if c.BaseURL() != "http://localhost:8000" {
		t.Errorf("Expected trimmed base URL, got %q", c.BaseURL())
	}
}
