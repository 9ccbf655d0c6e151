package app

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"grocery_sheets/internal/config"
	"grocery_sheets/internal/products"
	"grocery_sheets/internal/retry"
	"grocery_sheets/internal/session"
	"grocery_sheets/internal/sheets"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config is everything the application reads from the environment.
type Config struct {
	SpreadsheetID string
	Layout        sheets.Layout
	IDScheme      string
	SessionFile   string
	ListenAddr    string
	Resilience    config.ResilienceConfig

	NtfyEnabled  bool
	NtfyURL      string
	NtfyTopic    string
	NtfyPriority string
}

// SetupEnvironment loads the .env file and points zerolog at out. LOGLEVEL
// overrides fallback; production defaults to warn and JSON output.
func SetupEnvironment(out io.Writer, fallback zerolog.Level) {
	// Load .env file if it exists
	err := godotenv.Load()

	production := os.Getenv("ENV") == "production"
	if production {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(out)
		fallback = zerolog.WarnLevel
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(strings.TrimSpace(os.Getenv("LOGLEVEL")))
	switch level, parseErr := zerolog.ParseLevel(levelStr); {
	case levelStr == "":
		zerolog.SetGlobalLevel(fallback)
	case levelStr == "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case parseErr != nil:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	default:
		zerolog.SetGlobalLevel(level)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// LogLevelSet reports whether the operator chose a log level explicitly.
func LogLevelSet() bool {
	return strings.TrimSpace(os.Getenv("LOGLEVEL")) != "" || os.Getenv("ENV") == "production"
}

// LoadConfig reads and validates the configuration from the environment.
func LoadConfig() (*Config, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID environment variable is required")
	}

	layout := sheets.DefaultLayout(GetEnvWithDefault("SHEET_NAME", "Groceries"))
	var err error
	if layout.HeaderRows, err = getIntEnv("SHEET_HEADER_ROWS", layout.HeaderRows); err != nil {
		return nil, err
	}
	if layout.MaxRows, err = getIntEnv("SHEET_MAX_ROWS", layout.MaxRows); err != nil {
		return nil, err
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	idScheme := strings.ToLower(GetEnvWithDefault("ID_SCHEME", "uuid"))
	if _, ok := products.GeneratorFor(idScheme); !ok {
		return nil, fmt.Errorf("unknown ID_SCHEME %q (want uuid or timestamp)", idScheme)
	}

	sessionFile := os.Getenv("SESSION_FILE")
	if sessionFile == "" {
		if sessionFile, err = session.DefaultPath(); err != nil {
			return nil, err
		}
	}

	timeout, err := time.ParseDuration(GetEnvWithDefault("SHEETS_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHEETS_TIMEOUT: %w", err)
	}
	readRetries, err := getIntEnv("SHEETS_READ_RETRIES", 0)
	if err != nil {
		return nil, err
	}

	return &Config{
		SpreadsheetID: spreadsheetID,
		Layout:        layout,
		IDScheme:      idScheme,
		SessionFile:   sessionFile,
		ListenAddr:    GetEnvWithDefault("LISTEN_ADDR", ":8080"),
		Resilience: config.DefaultResilienceConfig.
			WithSheetTimeout(timeout).
			WithReadRetries(readRetries),
		NtfyEnabled:  GetEnvWithDefault("NTFY_ENABLED", "false") == "true",
		NtfyURL:      GetEnvWithDefault("NTFY_URL", "https://ntfy.sh"),
		NtfyTopic:    GetEnvWithDefault("NTFY_TOPIC", "grocery-list"),
		NtfyPriority: os.Getenv("NTFY_PRIORITY"),
	}, nil
}

// NotifyRetry is the delivery policy for ntfy notices.
func (c *Config) NotifyRetry() retry.Config {
	return c.Resilience.Notify
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, nil
}
