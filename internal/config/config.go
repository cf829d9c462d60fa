// Package config loads and persists charterdesk settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all charterdesk configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Business   BusinessConfig   `toml:"business"`
	Backend    BackendConfig    `toml:"backend"`
	Payment    PaymentConfig    `toml:"payment"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Automation AutomationConfig `toml:"automation"`
	Dashboards DashboardsConfig `toml:"dashboards"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
	Fleet      FleetConfig      `toml:"fleet"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultDays int    `toml:"default_days"`
	Currency    string `toml:"currency"`
}

// BusinessConfig identifies the charter company in outgoing messages.
type BusinessConfig struct {
	Name    string `toml:"name"`
	Email   string `toml:"email,omitempty"`
	Phone   string `toml:"phone,omitempty"`
	SignOff string `toml:"sign_off,omitempty"`
	Marina  string `toml:"marina,omitempty"`
}

// BackendConfig points at the relational backend and its hosted auth API.
type BackendConfig struct {
	Driver  string `toml:"driver"`
	DSN     string `toml:"dsn,omitempty"`
	URL     string `toml:"url,omitempty"`
	AnonKey string `toml:"anon_key,omitempty"`
}

// PaymentConfig holds checkout provider settings. The secret itself lives
// in the backend's app_settings table under SecretSetting.
type PaymentConfig struct {
	ProviderURL   string `toml:"provider_url"`
	SecretSetting string `toml:"secret_setting"`
	SuccessURL    string `toml:"success_url,omitempty"`
	CancelURL     string `toml:"cancel_url,omitempty"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Addr            string `toml:"addr"`
	PollIntervalSec int    `toml:"poll_interval_sec"`
	EventsBuffer    int    `toml:"events_buffer"`
}

// NotifyConfig holds the ops chat channel.
type NotifyConfig struct {
	TelegramToken  string `toml:"telegram_token,omitempty"`
	TelegramChatID int64  `toml:"telegram_chat_id,omitempty"`
}

// AutomationConfig toggles workflows and their lead times in days.
type AutomationConfig struct {
	Enabled             bool `toml:"enabled"`
	DepositReminderDays int  `toml:"deposit_reminder_days"`
	BalanceDueDays      int  `toml:"balance_due_days"`
	BriefingDays        int  `toml:"briefing_days"`
	ReviewDelayDays     int  `toml:"review_delay_days"`
}

// DashboardsConfig locates saved dashboard view definitions.
type DashboardsConfig struct {
	Dir string `toml:"dir,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard refresh settings.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// FleetConfig holds per-boat day rates and season multipliers.
type FleetConfig struct {
	Boats   map[string]BoatRate `toml:"boats,omitempty"`
	Seasons map[string]float64  `toml:"seasons,omitempty"`
}

// BoatRate is a boat's base day rate and capacity.
type BoatRate struct {
	DayRate  float64 `toml:"day_rate"`
	Capacity int     `toml:"capacity,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultDays: 90,
			Currency:    "EUR",
		},
		Business: BusinessConfig{
			Name:    "Charter Desk",
			SignOff: "The charter team",
		},
		Backend: BackendConfig{
			Driver: "sqlite",
		},
		Payment: PaymentConfig{
			ProviderURL:   "https://api.stripe.com",
			SecretSetting: "payment_secret_key",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8787",
			PollIntervalSec: 60,
			EventsBuffer:    200,
		},
		Automation: AutomationConfig{
			Enabled:             true,
			DepositReminderDays: 3,
			BalanceDueDays:      30,
			BriefingDays:        7,
			ReviewDelayDays:     2,
		},
		Appearance: AppearanceConfig{
			Theme: "harbor",
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: 30,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "charterdesk")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "charterdesk")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory for the embedded database.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "charterdesk")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "charterdesk")
}

// DashboardsDir returns the directory holding saved dashboard views.
func DashboardsDir(cfg Config) string {
	if cfg.Dashboards.Dir != "" {
		return cfg.Dashboards.Dir
	}
	return filepath.Join(ConfigDir(), "dashboards")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads a config file at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // caller-controlled config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path with owner-only permissions.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // caller-controlled config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// GetDSN returns the database DSN from env var or config, falling back to
// the embedded SQLite file under DataDir.
func GetDSN(cfg Config) string {
	if dsn := os.Getenv("CHARTERDESK_DSN"); dsn != "" {
		return dsn
	}
	if cfg.Backend.DSN != "" {
		return cfg.Backend.DSN
	}
	if cfg.Backend.Driver == "postgres" {
		return ""
	}
	return filepath.Join(DataDir(), "charterdesk.db")
}

// GetBackendKey returns the backend anon key from env var or config, in that order.
func GetBackendKey(cfg Config) string {
	if key := os.Getenv("CHARTERDESK_BACKEND_KEY"); key != "" {
		return key
	}
	return cfg.Backend.AnonKey
}

// GetTelegramToken returns the ops bot token from env var or config, in that order.
func GetTelegramToken(cfg Config) string {
	if tok := os.Getenv("CHARTERDESK_TELEGRAM_TOKEN"); tok != "" {
		return tok
	}
	return cfg.Notify.TelegramToken
}

// GetPaymentSecretFallback returns the payment secret from the environment.
// The checkout handler only uses it when the backend settings row is absent.
func GetPaymentSecretFallback() string {
	return os.Getenv("CHARTERDESK_PAYMENT_SECRET")
}
