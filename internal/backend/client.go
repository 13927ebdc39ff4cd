// Package backend talks to the remote voice service over HTTP.
//
// The service does the heavy lifting of a turn: speech recognition,
// command execution through the agent, and speech synthesis. This client
// only moves bytes; it never retries on its own. Transport failures come
// back as NetworkError faults, server-side failures as BackendFailed
// carrying the service's detail message.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/vaani-app/vaani/internal/audio"
	"github.com/vaani-app/vaani/internal/fault"
)

const (
	// DefaultTimeout bounds a single round trip. Speech pipelines are
	// slow: recognition plus agent execution plus synthesis can take
	// tens of seconds on a cold backend.
	DefaultTimeout = 60 * time.Second

	// DefaultLanguageCode is used when the caller does not name one.
	DefaultLanguageCode = "en-IN"

	maxErrorBody = 64 << 10
)

// Client is a thin HTTP client for the voice backend. Safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the backend at baseURL. A zero timeout
// falls back to DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewWithHTTPClient creates a client using a caller-supplied http.Client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the backend base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AgentResult is the backend agent's status payload, passed through
// unchanged.
type AgentResult struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

// ProcessResult is the full outcome of one voice turn.
type ProcessResult struct {
	Transcript       string      `json:"transcript"`
	DetectedLanguage string      `json:"detected_language"`
	ResponseText     string      `json:"response_text"`
	AudioBase64      string      `json:"audio_base64"`
	Agent            AgentResult `json:"agent_result"`
}

// Speech is a synthesized utterance.
type Speech struct {
	AudioBase64  string `json:"audio_base64"`
	Text         string `json:"text"`
	LanguageCode string `json:"language_code"`
}

// Transcription is recognized text plus the language the recognizer
// settled on.
type Transcription struct {
	Transcript   string `json:"transcript"`
	LanguageCode string `json:"language_code"`
}

// HealthStatus reports backend liveness.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ProcessOptions carries the optional parts of a ProcessVoice upload.
type ProcessOptions struct {
	// SessionID keys conversation continuity on the backend. Empty
	// starts a fresh conversation.
	SessionID string
	// TurnID names the uploaded file, which makes one turn traceable
	// through backend logs. Empty is fine.
	TurnID string
}

// ProcessVoice uploads a finished clip for the full
// recognize-act-speak round trip.
func (c *Client) ProcessVoice(ctx context.Context, clip audio.Clip, opts ProcessOptions) (*ProcessResult, error) {
	filename := "clip.wav"
	if opts.TurnID != "" {
		filename = fmt.Sprintf("clip-%s.wav", opts.TurnID)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio_file", filename)
	if err != nil {
		return nil, fault.Wrap(fault.BackendFailed, "build upload form", err)
	}
	if _, err := fw.Write(clip.WAV()); err != nil {
		return nil, fault.Wrap(fault.BackendFailed, "write clip to form", err)
	}
	if opts.SessionID != "" {
		if err := mw.WriteField("session_id", opts.SessionID); err != nil {
			return nil, fault.Wrap(fault.BackendFailed, "write session field", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fault.Wrap(fault.BackendFailed, "close upload form", err)
	}

	var result ProcessResult
	if err := c.post(ctx, "/voice/process", mw.FormDataContentType(), &buf, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TextToSpeech asks the backend to synthesize text. An empty
// languageCode falls back to DefaultLanguageCode.
func (c *Client) TextToSpeech(ctx context.Context, text, languageCode string) (*Speech, error) {
	if languageCode == "" {
		languageCode = DefaultLanguageCode
	}

	payload, err := json.Marshal(struct {
		Text         string `json:"text"`
		LanguageCode string `json:"language_code"`
	}{Text: text, LanguageCode: languageCode})
	if err != nil {
		return nil, fault.Wrap(fault.BackendFailed, "encode synthesis request", err)
	}

	var speech Speech
	if err := c.post(ctx, "/voice/text-to-speech", "application/json", bytes.NewReader(payload), &speech); err != nil {
		return nil, err
	}
	return &speech, nil
}

// SpeechToText uploads a clip for recognition only. Used by dictation,
// where the agent round trip is unwanted.
func (c *Client) SpeechToText(ctx context.Context, clip audio.Clip) (*Transcription, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio_file", "clip.wav")
	if err != nil {
		return nil, fault.Wrap(fault.BackendFailed, "build upload form", err)
	}
	if _, err := fw.Write(clip.WAV()); err != nil {
		return nil, fault.Wrap(fault.BackendFailed, "write clip to form", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fault.Wrap(fault.BackendFailed, "close upload form", err)
	}

	var tr Transcription
	if err := c.post(ctx, "/voice/speech-to-text", mw.FormDataContentType(), &buf, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Health probes backend liveness.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fault.Wrap(fault.BackendFailed, "build health request", err)
	}

	var hs HealthStatus
	if err := c.doJSON(req, &hs); err != nil {
		return nil, err
	}
	return &hs, nil
}

// Session fetches the backend's record of a conversation. The document
// shape is owned by the backend, so it comes back raw.
func (c *Client) Session(ctx context.Context, id string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sessions/"+id, nil)
	if err != nil {
		return nil, fault.Wrap(fault.BackendFailed, "build session request", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.NetworkError, "read session response", err)
	}
	return json.RawMessage(body), nil
}

// DeleteSession discards a conversation on the backend.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/sessions/"+id, nil)
	if err != nil {
		return fault.Wrap(fault.BackendFailed, "build delete request", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fault.Wrap(fault.BackendFailed, "build request", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fault.Wrap(fault.BackendFailed, "malformed backend response", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.NetworkError, "backend unreachable", err)
	}
	return resp, nil
}

// decodeError turns a non-2xx response into a BackendFailed fault. The
// backend reports failures as {"detail": "..."}; when that shape is
// missing the raw body, then the HTTP status, stand in.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return fault.New(fault.BackendFailed, detail.Detail)
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fault.New(fault.BackendFailed, msg)
	}
	return fault.New(fault.BackendFailed, resp.Status)
}
