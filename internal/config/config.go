package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/feeledger/internal/common"
	"github.com/Veraticus/feeledger/internal/ledger"
	"github.com/Veraticus/feeledger/internal/sheets"
)

// EnvPrefix prefixes every environment variable read through Viper.
const EnvPrefix = "FEELEDGER"

// Store drivers.
const (
	DriverSheets = "sheets"
	DriverSQLite = "sqlite"
)

// Server holds the HTTP listener settings.
type Server struct {
	Address         string
	AllowedOrigin   string
	ShutdownTimeout time.Duration
}

// Store selects the value store backend.
type Store struct {
	Driver     string
	SQLitePath string
}

// Logging holds the slog settings.
type Logging struct {
	Level  string
	Format string
}

// Config is the complete application configuration.
type Config struct {
	Server  Server
	Store   Store
	Logging Logging
	Ledger  ledger.Config
	Sheets  sheets.Config
}

// legacyEnv lists variables from earlier deployments, checked after the
// FEELEDGER_ name of the same key.
var legacyEnv = map[string][]string{
	"sheets.credentials_json": {"G_API_CRED"},
	"sheets.spreadsheet_id":   {"G_SHEET_ID"},
	"server.allowed_origin":   {"F_HOST"},
}

// SetDefaults registers default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.allowed_origin", "")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("store.driver", DriverSheets)
	v.SetDefault("store.sqlite_path", "~/.local/share/feeledger/ledger.db")

	v.SetDefault("sheets.value_input_option", "USER_ENTERED")
	v.SetDefault("sheets.retry_attempts", 3)
	v.SetDefault("sheets.retry_delay", time.Second)
	v.SetDefault("sheets.requests_per_minute", 60)

	v.SetDefault("ledger.timezone", ledger.DefaultTimezone)
	v.SetDefault("ledger.academic_year", ledger.DefaultAcademicYear)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// BindEnv maps keys to FEELEDGER_ variables ("sheets.spreadsheet_id" reads
// FEELEDGER_SHEETS_SPREADSHEET_ID) and to their legacy names.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range legacyEnv {
		primary := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		args := append([]string{key, primary}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// LoadDotEnv loads variables from a .env file. A missing file is not an
// error; variables already in the environment win.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: Server{
			Address:         v.GetString("server.address"),
			AllowedOrigin:   strings.TrimSpace(v.GetString("server.allowed_origin")),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Store: Store{
			Driver:     strings.ToLower(strings.TrimSpace(v.GetString("store.driver"))),
			SQLitePath: ExpandPath(v.GetString("store.sqlite_path")),
		},
		Logging: Logging{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Ledger: ledger.Config{
			Timezone:     v.GetString("ledger.timezone"),
			AcademicYear: v.GetString("ledger.academic_year"),
		},
	}

	if cfg.Server.Address == "" {
		return nil, fmt.Errorf("%w: server.address", common.ErrMissingConfig)
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("%w: server.shutdown_timeout must be positive", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	switch cfg.Logging.Format {
	case "console", "json":
	default:
		return nil, fmt.Errorf("%w: invalid log format: %s", common.ErrInvalidConfig, cfg.Logging.Format)
	}
	if _, err := ledger.LoadLocation(cfg.Ledger.Timezone); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	switch cfg.Store.Driver {
	case DriverSheets:
		sc, err := LoadSheetsConfig(v)
		if err != nil {
			return nil, fmt.Errorf("%w: sheets: %w", common.ErrInvalidConfig, err)
		}
		cfg.Sheets = sc
	case DriverSQLite:
		if cfg.Store.SQLitePath == "" {
			return nil, fmt.Errorf("%w: store.sqlite_path", common.ErrMissingConfig)
		}
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", common.ErrInvalidConfig, cfg.Store.Driver)
	}

	return cfg, nil
}
