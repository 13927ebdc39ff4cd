package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/vaani-app/vaani/internal/app"
	"github.com/vaani-app/vaani/internal/backend"
	"github.com/vaani-app/vaani/internal/config"
)

const version = "1.0.0"

var (
	// Global flags
	cfgPath    string
	backendURL string
	verbose    bool
)

// rootCmd runs the tray application when no subcommand is given
var rootCmd = &cobra.Command{
	Use:   "vaani",
	Short: "Voice assistant for your desktop",
	Long: `Vaani is a desktop voice-assistant client.

Run without arguments to start the tray application: a menu-bar icon,
a global hotkey that starts and stops voice turns, desktop
notifications, and a localhost status API for tooling.

Subcommands reach the voice backend and the capture hardware directly,
without the tray:

Examples:
  # Synthesize a reply and play it
  vaani say "namaste, kya haal hai"

  # Transcribe an existing recording
  vaani transcribe clip.wav

  # Check the microphone and watch the input level
  vaani meter --seconds 10

  # Probe the voice backend
  vaani health
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTray()
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default is the per-user location)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "voice backend URL for this run")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging echoed to stderr")

	rootCmd.AddCommand(sayCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(meterCmd)
	rootCmd.AddCommand(versionCmd)
}

func runTray() error {
	a, err := app.New(app.Options{
		ConfigPath: cfgPath,
		BackendURL: backendURL,
		Verbose:    verbose,
		Version:    version,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	a.Run()
	return nil
}

// loadConfig reads the config file for subcommands that need settings
// without the whole tray app. A missing file yields the defaults.
func loadConfig() (*config.Config, error) {
	path := cfgPath
	if path == "" {
		path = config.GetConfigPath()
	}
	return config.Load(path)
}

// newClient builds a backend client from the flags and the config file
func newClient() (*backend.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	url := cfg.BackendURL
	if backendURL != "" {
		url = backendURL
	}
	return backend.New(url, requestTimeout(cfg)), cfg, nil
}

func requestTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
}
