// Package app assembles the tray process: session controller, tray
// icon, global hotkey, notifications, dialogs, and the local status
// server.
package app

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ncruces/zenity"

	"github.com/vaani-app/vaani/internal/audio"
	"github.com/vaani-app/vaani/internal/backend"
	"github.com/vaani-app/vaani/internal/config"
	"github.com/vaani-app/vaani/internal/dictation"
	"github.com/vaani-app/vaani/internal/fault"
	"github.com/vaani-app/vaani/internal/hotkey"
	"github.com/vaani-app/vaani/internal/i18n"
	"github.com/vaani-app/vaani/internal/level"
	"github.com/vaani-app/vaani/internal/logger"
	"github.com/vaani-app/vaani/internal/notify"
	"github.com/vaani-app/vaani/internal/permissions"
	"github.com/vaani-app/vaani/internal/playback"
	"github.com/vaani-app/vaani/internal/session"
	"github.com/vaani-app/vaani/internal/setup"
	"github.com/vaani-app/vaani/internal/statusd"
	"github.com/vaani-app/vaani/internal/tray"
)

const appName = "Vaani"

// timeoutSlack separates a manual stop just under the limit from an
// automatic one. Transitions carry no stop reason, so elapsed
// recording time is the only signal.
const timeoutSlack = 250 * time.Millisecond

// Options are the command-line selections that shape a run
type Options struct {
	ConfigPath string // empty means the per-user config location
	BackendURL string // overrides the configured URL for this run only
	Verbose    bool   // debug level plus stderr echo
	Version    string
}

// App owns every long-lived component of the tray process
type App struct {
	version  string
	log      *logger.Logger
	cfg      *config.Config
	setupMgr *setup.Manager
	notifier *notify.Manager
	perms    *permissions.Checker

	backendURL  string
	mode        session.Mode
	recordLimit time.Duration

	trayMgr    *tray.Manager
	hotkeyMgr  *hotkey.Manager
	driver     audio.Driver
	client     *backend.Client
	controller *session.Controller
	statusSrv  *statusd.Server

	micOK bool
	accOK bool

	recordMu    sync.Mutex
	recordStart time.Time

	retryMu  sync.Mutex
	retrying bool

	quitOnce sync.Once
}

// New loads configuration, brings up logging and translations, and
// prepares the application. Nothing touches the OS until Run.
func New(opts Options) (*App, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.GetConfigPath()
	}

	setupMgr, err := setup.New(path)
	if err != nil {
		return nil, err
	}
	cfg, err := setupMgr.EnsureDefaults()
	if err != nil {
		return nil, err
	}

	// The flag overrides which backend this process talks to without
	// rewriting the config file
	backendURL := cfg.BackendURL
	if opts.BackendURL != "" {
		backendURL = opts.BackendURL
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.LogLevel)
	if opts.Verbose {
		logCfg.Level = logger.DEBUG
		logCfg.Console = true
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	lang := i18n.Language(cfg.UILanguage)
	if !i18n.ValidateLanguage(cfg.UILanguage) {
		lang = i18n.DetectSystemLanguage()
	}
	i18n.GlobalTranslator = i18n.NewTranslator(lang)

	return &App{
		version:     opts.Version,
		log:         log,
		cfg:         cfg,
		setupMgr:    setupMgr,
		notifier:    notify.New(appName, cfg.Notifications),
		perms:       permissions.NewChecker(),
		backendURL:  backendURL,
		mode:        session.ParseMode(cfg.Mode),
		recordLimit: time.Duration(cfg.MaxRecordSeconds) * time.Second,
	}, nil
}

// Run starts the tray and blocks until the application quits.
func (a *App) Run() {
	a.log.Info("%s v%s starting", appName, a.version)

	a.trayMgr = tray.NewManager(tray.Config{
		OnReady:               a.onReady,
		OnTalk:                a.toggleTurn,
		OnStatusPage:          a.handleStatusPage,
		OnNotificationsToggle: a.handleNotificationsToggle,
		OnDeviceChange:        a.handleDeviceChange,
		OnAbout:               a.handleAbout,
		OnQuit:                a.handleQuit,
		NotificationsOn:       a.cfg.Notifications,
		Log:                   a.log,
	})

	a.trayMgr.Run()
}

// Close flushes and closes the log file. Call after Run returns.
func (a *App) Close() error {
	if a.log != nil {
		return a.log.Close()
	}
	return nil
}

// onReady finishes initialization once the tray exists, so failures
// can surface as notifications instead of a dead process.
func (a *App) onReady() {
	a.log.Info("tray ready, wiring components")

	granted := a.perms.CheckAll()
	a.micOK = granted["microphone"]
	a.accOK = granted["accessibility"]

	if a.micOK {
		a.log.Info("microphone permission ok")
	} else {
		a.log.Warn("microphone access is blocked, voice turns will fail until granted")
		a.notifier.SendWarning("", i18n.T("error.permission_denied"))
	}
	if !a.accOK && a.mode == session.ModeDictation {
		a.log.Warn("accessibility permission missing, dictation paste may fail")
	}

	driver, err := audio.NewPortAudioDriver()
	if err != nil {
		// The app stays up without capture: settings and the status
		// page keep working, and every start reports the device fault.
		a.log.Error("audio driver unavailable: %v", err)
		a.notifier.SendError("", i18n.T("error.device_unavailable"))
		a.driver = &noDriver{reason: err}
	} else {
		a.driver = driver
		a.log.Info("audio driver ready")
	}

	a.client = backend.New(a.backendURL, time.Duration(a.cfg.RequestTimeoutSeconds)*time.Second)
	a.log.Info("voice backend: %s", a.client.BaseURL())

	capture := audio.DefaultConfig()
	capture.DeviceID = a.cfg.AudioDeviceID

	a.controller = session.New(session.Deps{
		Driver:   a.driver,
		Perms:    a.perms,
		Backend:  a.client,
		Player:   playback.New(a.cfg.PlaybackSampleRate, playback.DefaultChannels),
		Analyzer: level.NewAnalyzer(time.Duration(a.cfg.LevelRefreshMs) * time.Millisecond),
		Paster:   dictation.New(dictation.Config{SplitSize: a.cfg.PasteSplitSize}),
		Log:      a.log,
	}, session.Config{
		Capture:       capture,
		MaxRecordTime: a.recordLimit,
		Mode:          a.mode,
	})
	a.controller.Subscribe(a.onTransition)
	a.log.Info("session controller ready in %s mode", a.mode)

	a.hotkeyMgr = hotkey.New()
	if err := a.hotkeyMgr.Register(a.cfg.Hotkey); err != nil {
		a.log.Error("failed to register hotkey: %v", err)
		a.notifier.SendWarning("", fmt.Sprintf("Hotkey unavailable: %v", err))
	} else {
		combo := hotkey.Format(a.cfg.Hotkey)
		a.log.Info("hotkey registered: %s", combo)
		for _, c := range hotkey.CheckConflicts(a.cfg.Hotkey) {
			a.log.Warn("hotkey %s shadows %s (%s)", combo, c.Name, c.Description)
		}
		go a.hotkeyLoop()
	}

	a.refreshDeviceMenu()

	statusCfg := statusd.DefaultConfig()
	if a.cfg.StatusAddr != "" {
		statusCfg.Addr = a.cfg.StatusAddr
	}
	statusCfg.ConfigPath = a.setupMgr.ConfigPath()
	statusCfg.LevelInterval = time.Duration(a.cfg.LevelRefreshMs) * time.Millisecond
	a.statusSrv = statusd.New(statusd.Deps{
		Controller: a.controller,
		Settings:   a.cfg,
		Devices:    a.driver,
		Health:     a.client,
		Log:        a.log,
	}, statusCfg)
	if err := a.statusSrv.Start(); err != nil {
		a.log.Error("failed to start status server: %v", err)
		a.notifier.SendError("", i18n.T("error.status_page"))
	}

	if a.setupMgr.NeedsWelcome() {
		go a.showWelcome()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		a.log.Info("shutdown signal received")
		a.handleQuit()
		a.trayMgr.Quit()
	}()

	a.log.Info("application ready")
	a.printBanner()
}

func (a *App) printBanner() {
	fmt.Println()
	fmt.Println("==========================================================")
	fmt.Printf("  %s v%s is running\n", appName, a.version)
	fmt.Println("==========================================================")
	fmt.Printf("  Status page:  %s\n", a.statusSrv.URL())
	fmt.Printf("  Hotkey:       %s\n", hotkey.Format(a.cfg.Hotkey))
	fmt.Printf("  Mode:         %s\n", a.mode)
	fmt.Println("  Quit:         Ctrl+C or the tray menu")
	fmt.Println("==========================================================")
	fmt.Println()
}

// onTransition mirrors controller state onto the tray and turns the
// interesting transitions into notifications. Runs on the controller's
// listener goroutine, so everything slow goes through goroutines.
func (a *App) onTransition(tr session.Transition) {
	a.trayMgr.SetState(tr.To)

	switch {
	case tr.To == session.Recording:
		a.recordMu.Lock()
		a.recordStart = time.Now()
		a.recordMu.Unlock()
		a.notifier.Listening()

	case tr.From == session.Recording && tr.To == session.Processing:
		if a.recordingRanFull() {
			a.log.Info("recording stopped at the %s limit", a.recordLimit)
			a.notifier.TimedOut()
		}

	case tr.From == session.Playing && tr.To == session.Idle:
		a.notifier.TurnDone(tr.Session.ResponseText)

	case tr.From == session.Processing && tr.To == session.Idle:
		if a.mode == session.ModeDictation && tr.Session.Transcript != "" {
			a.notifier.Pasted()
		}

	case tr.To == session.Error:
		fe := tr.Session.Fault
		a.notifier.Fault(fe)
		if fe != nil && fe.Retryable() {
			go a.offerRetry(fe)
		}
	}
}

// recordingRanFull reports whether the recording that just ended ran
// into the time limit rather than a manual stop.
func (a *App) recordingRanFull() bool {
	a.recordMu.Lock()
	started := a.recordStart
	a.recordMu.Unlock()
	if started.IsZero() || a.recordLimit <= 0 {
		return false
	}
	return time.Since(started) >= a.recordLimit-timeoutSlack
}

// toggleTurn is shared by the hotkey and the tray talk item: one press
// starts from Idle or Error, stops from Recording, and is ignored
// while a turn is being processed or played.
func (a *App) toggleTurn() {
	switch a.controller.State() {
	case session.Recording:
		if err := a.controller.Stop(); err != nil {
			a.log.Error("stop failed: %v", err)
		}
	case session.Idle, session.Error:
		if err := a.controller.Start(); err != nil {
			a.log.Error("start failed: %v", err)
		}
	default:
		a.log.Debug("talk ignored while %s", a.controller.State())
	}
}

func (a *App) hotkeyLoop() {
	a.log.Info("hotkey loop started")
	for range a.hotkeyMgr.Events() {
		a.log.Debug("hotkey pressed")
		a.toggleTurn()
	}
	a.log.Info("hotkey loop ended")
}

// offerRetry asks the user whether to start another turn after a
// retryable fault. One dialog at a time; faults arriving while it is
// up are dropped.
func (a *App) offerRetry(fe *fault.Error) {
	a.retryMu.Lock()
	if a.retrying {
		a.retryMu.Unlock()
		return
	}
	a.retrying = true
	a.retryMu.Unlock()
	defer func() {
		a.retryMu.Lock()
		a.retrying = false
		a.retryMu.Unlock()
	}()

	message := i18n.TF("dialog.retry_message", map[string]string{
		"message": notify.FaultMessage(fe),
	})
	if err := zenity.Question(message, zenity.Title(i18n.T("dialog.retry_title"))); err != nil {
		// Declined, or no dialog backend on this machine
		return
	}
	if err := a.controller.Start(); err != nil {
		a.log.Error("retry failed to start a turn: %v", err)
	}
}

func (a *App) handleStatusPage() {
	if a.statusSrv == nil || !a.statusSrv.IsRunning() {
		a.log.Error("status server is not running")
		a.notifier.SendError("", i18n.T("error.status_page"))
		return
	}

	url := a.statusSrv.URL()
	a.log.Info("opening status page: %s", url)

	go func() {
		if err := openBrowser(url); err != nil {
			a.log.Error("failed to open browser: %v", err)
			fmt.Printf("\nStatus page: %s\n\n", url)
		}
	}()
}

func (a *App) handleNotificationsToggle(enabled bool) {
	a.log.Info("notifications %v", enabled)
	a.notifier.SetEnabled(enabled)

	if err := a.cfg.Update(map[string]interface{}{"notifications": enabled}); err != nil {
		a.log.Error("failed to update config: %v", err)
		return
	}
	if err := a.cfg.Save(a.setupMgr.ConfigPath()); err != nil {
		a.log.Error("failed to save config: %v", err)
	}
}

func (a *App) handleDeviceChange(deviceID int) {
	a.log.Info("input device changed to %d", deviceID)
	a.controller.SetCaptureDevice(deviceID)

	if err := a.cfg.Update(map[string]interface{}{"audio_device_id": deviceID}); err != nil {
		a.log.Error("failed to update config: %v", err)
		return
	}
	if err := a.cfg.Save(a.setupMgr.ConfigPath()); err != nil {
		a.log.Error("failed to save config: %v", err)
	}

	a.refreshDeviceMenu()
}

// refreshDeviceMenu rebuilds the tray device submenu. The system
// default row is always there so the user can drop a stale selection.
func (a *App) refreshDeviceMenu() {
	current := a.cfg.Clone().AudioDeviceID

	rows := []tray.Device{{
		ID:        -1,
		Name:      i18n.T("menu.device_default"),
		IsDefault: true,
		IsCurrent: current == -1,
	}}

	devices, err := a.driver.ListDevices()
	if err != nil {
		a.log.Warn("device listing failed: %v", err)
	}
	for _, d := range devices {
		rows = append(rows, tray.Device{
			ID:        d.ID,
			Name:      d.Name,
			IsDefault: d.IsDefault,
			IsCurrent: d.ID == current,
		})
	}

	a.trayMgr.UpdateDeviceMenu(rows)
}

func (a *App) handleAbout() {
	go func() {
		message := i18n.TF("dialog.about_message", map[string]string{"version": a.version})
		if err := zenity.Info(message, zenity.Title(i18n.T("menu.about"))); err != nil && !errors.Is(err, zenity.ErrCanceled) {
			a.log.Warn("about dialog: %v", err)
		}
	}()
}

// showWelcome runs the first-launch dialog. Completion is recorded
// only when the dialog was actually shown, so a headless run tries
// again next time.
func (a *App) showWelcome() {
	message := i18n.TF("dialog.welcome_message", map[string]string{
		"hotkey": hotkey.Format(a.cfg.Hotkey),
		"config": a.setupMgr.ConfigPath(),
	})
	err := zenity.Info(message, zenity.Title(i18n.T("dialog.welcome_title")))
	if err != nil && !errors.Is(err, zenity.ErrCanceled) {
		a.log.Warn("welcome dialog unavailable: %v", err)
		return
	}
	if err := a.setupMgr.MarkCompleted(); err != nil {
		a.log.Warn("failed to record setup completion: %v", err)
	}
}

// handleQuit tears components down in dependency order. Safe to call
// more than once; the tray quit item and SIGINT both land here.
func (a *App) handleQuit() {
	a.quitOnce.Do(a.shutdown)
}

func (a *App) shutdown() {
	a.log.Info("shutting down")

	if a.hotkeyMgr != nil {
		if err := a.hotkeyMgr.Close(); err != nil {
			a.log.Warn("hotkey close: %v", err)
		}
	}
	if a.statusSrv != nil && a.statusSrv.IsRunning() {
		if err := a.statusSrv.Stop(); err != nil {
			a.log.Error("failed to stop status server: %v", err)
		}
	}
	if a.controller != nil {
		if err := a.controller.Close(); err != nil {
			a.log.Warn("controller close: %v", err)
		}
	}
	if a.driver != nil {
		if err := a.driver.Close(); err != nil {
			a.log.Warn("audio driver close: %v", err)
		}
	}

	a.log.Info("shutdown complete")
}

// openBrowser opens url with the platform launcher
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Run()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Run()
	default:
		return exec.Command("xdg-open", url).Run()
	}
}
