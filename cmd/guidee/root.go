package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ppanchal/guidee/internal/config"
	"github.com/ppanchal/guidee/internal/logger"
)

var (
	flagServerURL   string
	flagCSRFToken   string
	flagLogLevel    string
	flagTimeout     time.Duration
	flagNoAltScreen bool
)

var rootCmd = &cobra.Command{
	Use:           "guidee",
	Short:         "A terminal client for Guidee tutoring lessons",
	Long:          "Guidee talks to a tutoring server: follow a lesson turn by turn with the learn command, or compose a chapter with inline media using author.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server", "", "tutor server base URL (default from GUIDEE_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&flagCSRFToken, "csrf-token", "", "session CSRF token (default from GUIDEE_CSRF_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "per-request timeout, 0 means none")
	rootCmd.PersistentFlags().BoolVar(&flagNoAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
}

// loadConfig merges environment configuration with flag overrides.
func loadConfig() *config.Config {
	cfg := config.Load()
	if flagServerURL != "" {
		cfg.ServerURL = flagServerURL
	}
	if flagCSRFToken != "" {
		cfg.CSRFToken = flagCSRFToken
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagTimeout > 0 {
		cfg.RequestTimeout = flagTimeout
	}
	return cfg
}

// openLogger routes logs to the configured file; the TUI owns the
// terminal. The returned closer flushes the file on exit.
func openLogger(cfg *config.Config) (zerolog.Logger, io.Closer, error) {
	file, err := logger.OpenFile(cfg.LogFile)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return logger.Setup(cfg.LogLevel, cfg.LogFormat, file), file, nil
}
