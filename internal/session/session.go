// Package session sequences voice turns: capture, level analysis,
// backend round trip, and reply playback. The Controller owns the one
// Session record and guarantees at most one turn is ever in flight.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vaani-app/vaani/internal/audio"
	"github.com/vaani-app/vaani/internal/backend"
	"github.com/vaani-app/vaani/internal/fault"
	"github.com/vaani-app/vaani/internal/level"
	"github.com/vaani-app/vaani/internal/logger"
)

// State represents where the controller is in a turn
type State int

const (
	// Idle means no turn is in flight
	Idle State = iota
	// Recording means the microphone is live
	Recording
	// Processing means the clip is at the backend
	Processing
	// Playing means the reply is being played
	Playing
	// Error means the last turn failed; Session.Fault says why
	Error
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Recording:
		return "Recording"
	case Processing:
		return "Processing"
	case Playing:
		return "Playing"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Mode selects what happens to a finished clip.
type Mode int

const (
	// ModeAssistant sends the clip through the full
	// recognize-act-speak round trip.
	ModeAssistant Mode = iota
	// ModeDictation only transcribes and pastes the text into the
	// focused application.
	ModeDictation
)

// ParseMode maps a config string to a Mode. Anything unrecognized is
// the assistant mode.
func ParseMode(s string) Mode {
	if s == "dictation" {
		return ModeDictation
	}
	return ModeAssistant
}

// String returns the string representation of the mode
func (m Mode) String() string {
	if m == ModeDictation {
		return "dictation"
	}
	return "assistant"
}

// Session is the controller's state record. It is copied out on every
// read, so holders never observe later mutations.
type Session struct {
	State        State
	SessionID    string
	Transcript   string
	ResponseText string
	AudioLevel   float64
	Fault        *fault.Error
	TurnID       string
	UpdatedAt    time.Time
}

// Transition is delivered to listeners on every state change.
type Transition struct {
	From    State
	To      State
	Session Session
}

// Listener observes transitions. Listeners run on controller
// goroutines and should hand work off quickly.
type Listener func(Transition)

// Backend is the slice of the voice service the controller needs.
type Backend interface {
	ProcessVoice(ctx context.Context, clip audio.Clip, opts backend.ProcessOptions) (*backend.ProcessResult, error)
	SpeechToText(ctx context.Context, clip audio.Clip) (*backend.Transcription, error)
}

// Player plays a base64 reply to completion.
type Player interface {
	Play(ctx context.Context, audioBase64 string) error
}

// Analyzer produces loudness samples over a live stream.
type Analyzer interface {
	Start(src level.SampleSource) (<-chan level.Sample, error)
	Stop()
}

// Paster puts dictated text into the focused application.
type Paster interface {
	Paste(text string) error
}

// PermissionProber answers whether capture is known to be impossible.
type PermissionProber interface {
	MicrophoneBlocked() bool
}

// Deps are the collaborators a Controller drives.
type Deps struct {
	Driver   audio.Driver
	Perms    PermissionProber
	Backend  Backend
	Player   Player
	Analyzer Analyzer
	Paster   Paster // only used in dictation mode
	Log      *logger.Logger
}

// Config holds configuration for the controller
type Config struct {
	Capture       audio.Config
	MaxRecordTime time.Duration
	Mode          Mode
}

// DefaultMaxRecordTime caps a single recording.
const DefaultMaxRecordTime = 10 * time.Second

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Capture:       audio.DefaultConfig(),
		MaxRecordTime: DefaultMaxRecordTime,
		Mode:          ModeAssistant,
	}
}

// Controller runs the turn state machine. All exported methods are safe
// for concurrent use.
type Controller struct {
	driver   audio.Driver
	perms    PermissionProber
	backend  Backend
	player   Player
	analyzer Analyzer
	paster   Paster
	log      *logger.Logger

	capture   audio.Config
	maxRecord time.Duration
	mode      Mode

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	session   Session
	turnGen   uint64
	acquiring bool
	stopping  bool
	stopTimer *time.Timer
	listeners []Listener
	pending   []Transition
	closed    bool

	// eventMu serializes listener delivery so transitions arrive in
	// order even when two goroutines finish mutations back to back
	eventMu sync.Mutex
}

// New creates a controller. It does not touch the microphone until
// Start is called.
func New(deps Deps, cfg Config) *Controller {
	if cfg.MaxRecordTime <= 0 {
		cfg.MaxRecordTime = DefaultMaxRecordTime
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		driver:    deps.Driver,
		perms:     deps.Perms,
		backend:   deps.Backend,
		player:    deps.Player,
		analyzer:  deps.Analyzer,
		paster:    deps.Paster,
		log:       deps.Log,
		capture:   cfg.Capture,
		maxRecord: cfg.MaxRecordTime,
		mode:      cfg.Mode,
		ctx:       ctx,
		cancel:    cancel,
		session:   Session{State: Idle},
	}
}

// Subscribe registers a listener for every later transition.
func (c *Controller) Subscribe(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Snapshot returns a copy of the current Session.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.State
}

// Mode returns the mode the controller was built with.
func (c *Controller) Mode() Mode {
	return c.mode
}

// SetCaptureDevice selects the input device for later turns. A turn
// already in flight keeps the device it opened with.
func (c *Controller) SetCaptureDevice(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capture.DeviceID = id
}

// Start begins a new turn. Valid from Idle and Error only; from any
// other state it returns an InvalidState fault and changes nothing.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fault.New(fault.InvalidState, "controller is closed")
	}
	if c.acquiring {
		c.mu.Unlock()
		return fault.New(fault.InvalidState, "a start is already in progress")
	}
	if st := c.session.State; st != Idle && st != Error {
		c.mu.Unlock()
		return fault.Newf(fault.InvalidState, "cannot start a turn while %s", st)
	}
	c.acquiring = true
	capture := c.capture
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.acquiring = false
		c.mu.Unlock()
	}()

	if c.perms.MicrophoneBlocked() {
		ferr := fault.New(fault.PermissionDenied, "microphone access is blocked")
		c.fail(ferr)
		return ferr
	}

	if err := c.driver.Open(capture); err != nil {
		c.fail(err)
		return err
	}

	samples, err := c.analyzer.Start(c.driver)
	if err != nil {
		c.driver.Release()
		ferr := fault.Wrap(fault.DeviceUnavailable, "start level analyzer", err)
		c.fail(ferr)
		return ferr
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.analyzer.Stop()
		c.driver.Release()
		return fault.New(fault.InvalidState, "controller is closed")
	}
	c.turnGen++
	gen := c.turnGen
	c.session.TurnID = uuid.NewString()
	// Transcript and ResponseText survive into the new turn so the
	// last successful exchange stays visible until it is overwritten
	c.session.Fault = nil
	c.setStateLocked(Recording)
	c.stopTimer = time.AfterFunc(c.maxRecord, func() { c.autoStop(gen) })
	turnID := c.session.TurnID
	c.mu.Unlock()

	c.wg.Add(1)
	go c.consumeLevels(gen, samples)

	c.flush()
	c.logInfo("turn %s recording", turnID)
	return nil
}

// Stop ends the recording phase of the current turn. Valid from
// Recording only; from any other state it returns an InvalidState
// fault and changes nothing. The recording timeout shares this path.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.session.State != Recording {
		st := c.session.State
		c.mu.Unlock()
		return fault.Newf(fault.InvalidState, "cannot stop a turn while %s", st)
	}
	if c.stopping {
		c.mu.Unlock()
		return fault.New(fault.InvalidState, "a stop is already in progress")
	}
	return c.finishLocked()
}

// autoStop is the MaxRecordTime timer callback. The generation check
// keeps a timer armed for an earlier turn from ever stopping a later
// one.
func (c *Controller) autoStop(gen uint64) {
	c.mu.Lock()
	if c.session.State != Recording || c.stopping || c.turnGen != gen {
		c.mu.Unlock()
		return
	}
	c.logInfo("recording timeout reached, stopping")
	if err := c.finishLocked(); err != nil {
		c.logError("auto-stop failed: %v", err)
	}
}

// finishLocked commits the end of the recording phase, finalizes the
// take, and hands it to the turn goroutine. The caller must hold mu;
// it is released on every path.
func (c *Controller) finishLocked() error {
	// the generation bump invalidates the auto-stop timer and any
	// level sample still in flight
	c.stopping = true
	c.turnGen++
	if c.stopTimer != nil {
		c.stopTimer.Stop()
		c.stopTimer = nil
	}
	turnID := c.session.TurnID
	sessionID := c.session.SessionID
	c.mu.Unlock()

	// joining the analyzer while holding mu would deadlock against the
	// sample consumer
	c.analyzer.Stop()

	clip, err := c.driver.Finalize()
	c.driver.Release()

	c.mu.Lock()
	c.stopping = false
	c.session.AudioLevel = 0
	if err != nil {
		var fe *fault.Error
		if !errors.As(err, &fe) {
			fe = fault.Wrap(fault.DeviceUnavailable, "finalize capture", err)
		}
		c.session.Fault = fe
		c.setStateLocked(Error)
		c.mu.Unlock()
		c.flush()
		c.logError("turn %s failed to finalize: %v", turnID, fe)
		return fe
	}
	c.setStateLocked(Processing)
	c.mu.Unlock()
	c.flush()

	c.logInfo("turn %s captured %v of audio", turnID, clip.Duration())

	c.wg.Add(1)
	go c.runTurn(clip, turnID, sessionID)
	return nil
}

// runTurn carries a finished clip through the backend and the reply
// through playback. Runs on its own goroutine; the single-flight
// invariant holds because Start rejects Processing and Playing.
func (c *Controller) runTurn(clip audio.Clip, turnID, sessionID string) {
	defer c.wg.Done()

	if c.mode == ModeDictation {
		c.runDictation(clip, turnID)
		return
	}

	res, err := c.backend.ProcessVoice(c.ctx, clip, backend.ProcessOptions{
		SessionID: sessionID,
		TurnID:    turnID,
	})
	if err != nil {
		c.fail(err)
		return
	}

	c.mu.Lock()
	c.session.Transcript = res.Transcript
	c.session.ResponseText = res.ResponseText
	if res.Agent.SessionID != "" {
		c.session.SessionID = res.Agent.SessionID
	}
	c.setStateLocked(Playing)
	c.mu.Unlock()
	c.flush()

	if err := c.player.Play(c.ctx, res.AudioBase64); err != nil {
		c.fail(err)
		return
	}

	c.mu.Lock()
	c.setStateLocked(Idle)
	c.mu.Unlock()
	c.flush()
	c.logInfo("turn %s done", turnID)
}

func (c *Controller) runDictation(clip audio.Clip, turnID string) {
	tr, err := c.backend.SpeechToText(c.ctx, clip)
	if err != nil {
		c.fail(err)
		return
	}

	if c.paster != nil && tr.Transcript != "" {
		if err := c.paster.Paste(tr.Transcript); err != nil {
			c.fail(fault.Wrap(fault.Unknown, "paste transcript", err))
			return
		}
	}

	c.mu.Lock()
	c.session.Transcript = tr.Transcript
	c.setStateLocked(Idle)
	c.mu.Unlock()
	c.flush()
	c.logInfo("turn %s dictated %d characters", turnID, len(tr.Transcript))
}

// consumeLevels applies analyzer samples to the Session while the turn
// that owns them is still recording. Stale samples are discarded.
func (c *Controller) consumeLevels(gen uint64, samples <-chan level.Sample) {
	defer c.wg.Done()
	for s := range samples {
		c.mu.Lock()
		if c.turnGen == gen && c.session.State == Recording {
			c.session.AudioLevel = s.Level
			c.session.UpdatedAt = s.Time
		}
		c.mu.Unlock()
	}
}

// fail records a fault and enters Error. Transcript and ResponseText
// are left as they are so the last good turn stays visible next to the
// error.
func (c *Controller) fail(err error) {
	if c.ctx.Err() != nil {
		// shutting down; the session record no longer matters
		return
	}
	var fe *fault.Error
	if !errors.As(err, &fe) {
		fe = fault.Wrap(fault.Unknown, "turn failed", err)
	}
	c.mu.Lock()
	c.session.Fault = fe
	c.setStateLocked(Error)
	c.mu.Unlock()
	c.flush()
	c.logError("turn failed: %v", fe)
}

// setStateLocked records a transition. The caller must hold mu.
func (c *Controller) setStateLocked(to State) {
	from := c.session.State
	c.session.State = to
	c.session.UpdatedAt = time.Now()
	c.pending = append(c.pending, Transition{From: from, To: to, Session: c.session})
}

// flush delivers pending transitions in order. If another goroutine is
// already delivering, it will pick ours up; that keeps delivery ordered
// and lets listeners call back into the controller without deadlock.
func (c *Controller) flush() {
	if !c.eventMu.TryLock() {
		return
	}
	defer c.eventMu.Unlock()
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.mu.Unlock()
			return
		}
		events := c.pending
		c.pending = nil
		listeners := append([]Listener(nil), c.listeners...)
		c.mu.Unlock()

		for _, e := range events {
			for _, fn := range listeners {
				fn(e)
			}
		}
	}
}

// Close stops any active recording, waits for the in-flight turn to
// settle, and releases the capture device.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	recording := c.session.State == Recording && !c.stopping
	c.mu.Unlock()

	if recording {
		if err := c.Stop(); err != nil {
			c.logError("stop during close: %v", err)
		}
	}

	c.cancel()
	c.wg.Wait()
	c.flush()
	return c.driver.Close()
}

func (c *Controller) logInfo(format string, v ...interface{}) {
	if c.log != nil {
		c.log.Info(format, v...)
	}
}

func (c *Controller) logError(format string, v ...interface{}) {
	if c.log != nil {
		c.log.Error(format, v...)
	}
}
