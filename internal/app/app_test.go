package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vaani-app/vaani/internal/audio"
	"github.com/vaani-app/vaani/internal/fault"
	"github.com/vaani-app/vaani/internal/i18n"
	"github.com/vaani-app/vaani/internal/notify"
	"github.com/vaani-app/vaani/internal/session"
	"github.com/vaani-app/vaani/internal/tray"
)

// newTestApp builds an App through New with everything confined to a
// temp directory, including the log files.
func newTestApp(t *testing.T, opts Options) *App {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if opts.ConfigPath == "" {
		opts.ConfigPath = filepath.Join(t.TempDir(), "vaani", "config.json")
	}
	a, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewWritesDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "vaani", "config.json")
	a := newTestApp(t, Options{ConfigPath: configPath, Version: "1.0.0"})

	if a.cfg.LanguageCode != "en-IN" {
		t.Errorf("Expected default language en-IN, got %s", a.cfg.LanguageCode)
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("Expected config file to be written: %v", err)
	}
	if a.backendURL != a.cfg.BackendURL {
		t.Errorf("Expected backend %s, got %s", a.cfg.BackendURL, a.backendURL)
	}
	if a.mode != session.ModeAssistant {
		t.Errorf("Expected assistant mode, got %s", a.mode)
	}
	if a.recordLimit != 10*time.Second {
		t.Errorf("Expected 10s record limit, got %s", a.recordLimit)
	}
}

func TestNewBackendOverride(t *testing.T) {
	a := newTestApp(t, Options{BackendURL: "http://10.0.0.5:9000"})

	if a.backendURL != "http://10.0.0.5:9000" {
		t.Errorf("Expected override to win, got %s", a.backendURL)
	}
	if a.cfg.BackendURL != "http://127.0.0.1:8000" {
		t.Errorf("Expected configured URL untouched, got %s", a.cfg.BackendURL)
	}
}

func TestNewInstallsTranslator(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "vaani", "config.json")
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(configPath, []byte(`{"ui_language": "hi"}`), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	newTestApp(t, Options{ConfigPath: configPath})

	if i18n.GlobalTranslator == nil {
		t.Fatal("Expected a global translator")
	}
	if got := i18n.GlobalTranslator.GetLanguage(); got != i18n.LanguageHindi {
		t.Errorf("Expected Hindi, got %s", got)
	}
}

func TestRecordingRanFull(t *testing.T) {
	a := &App{recordLimit: 100 * time.Millisecond}

	if a.recordingRanFull() {
		t.Error("Expected false before any recording")
	}

	a.recordStart = time.Now().Add(-200 * time.Millisecond)
	if !a.recordingRanFull() {
		t.Error("Expected true after the limit elapsed")
	}

	a.recordStart = time.Now()
	if a.recordingRanFull() {
		t.Error("Expected false right after start")
	}
}

func TestNoDriver(t *testing.T) {
	d := &noDriver{reason: os.ErrNotExist}

	err := d.Open(audio.DefaultConfig())
	if !fault.IsKind(err, fault.DeviceUnavailable) {
		t.Errorf("Expected DeviceUnavailable from Open, got %v", err)
	}
	if _, err := d.Finalize(); !fault.IsKind(err, fault.DeviceUnavailable) {
		t.Errorf("Expected DeviceUnavailable from Finalize, got %v", err)
	}
	if _, err := d.ListDevices(); err == nil {
		t.Error("Expected ListDevices to report the original failure")
	}
	if err := d.Close(); err != nil {
		t.Errorf("Expected nil from Close, got %v", err)
	}
}

func TestOnTransitionMirrorsTray(t *testing.T) {
	a := &App{
		trayMgr:     tray.NewManager(tray.Config{}),
		notifier:    notify.New("test", false),
		mode:        session.ModeAssistant,
		recordLimit: 10 * time.Second,
	}

	a.onTransition(session.Transition{From: session.Idle, To: session.Recording})
	if got := a.trayMgr.State(); got != session.Recording {
		t.Errorf("Expected tray Recording, got %s", got)
	}
	if a.recordStart.IsZero() {
		t.Error("Expected the recording start time to be noted")
	}

	a.onTransition(session.Transition{From: session.Recording, To: session.Processing})
	if got := a.trayMgr.State(); got != session.Processing {
		t.Errorf("Expected tray Processing, got %s", got)
	}

	// A non-retryable fault must not spawn the retry dialog
	fe := fault.New(fault.BackendFailed, "agent exploded")
	a.onTransition(session.Transition{
		From:    session.Processing,
		To:      session.Error,
		Session: session.Session{State: session.Error, Fault: fe},
	})
	if got := a.trayMgr.State(); got != session.Error {
		t.Errorf("Expected tray Error, got %s", got)
	}
}
