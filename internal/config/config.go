package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Reports  ReportsConfig  `yaml:"reports"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// AllowedOrigins limits CORS; empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// EnableDevToken exposes POST /dev/token.
	EnableDevToken bool `yaml:"enable_dev_token"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	Issuer      string `yaml:"issuer"`
	ExpiryHours int    `yaml:"expiry_hours"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// ReportsConfig controls report generation, archiving and rendering.
type ReportsConfig struct {
	Dir               string   `yaml:"dir"`
	Timezone          string   `yaml:"timezone"`
	LiveSummaryDays   int      `yaml:"live_summary_days"`
	FontCandidates    []string `yaml:"font_candidates"`
	EnableSpreadsheet bool     `yaml:"enable_spreadsheet"`
	EnableDocument    bool     `yaml:"enable_document"`

	// Heuristic economics multipliers. Not derived from cost data.
	PreventedLossPerDiagnosis float64 `yaml:"prevented_loss_per_diagnosis"`
	SavedHoursPerTask         float64 `yaml:"saved_hours_per_task"`
}

// Location resolves the configured report timezone.
func (r *ReportsConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			EnableDevToken: true,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "plant",
			Password: "plant_dev_password",
			DBName:   "plant_health",
			SSLMode:  "disable",
			MaxConns: 20,
		},
		JWT: JWTConfig{
			Secret:      "dev-secret-change-in-production",
			Issuer:      "agrosense",
			ExpiryHours: 24,
		},
		Log: LogConfig{Level: "info"},
		Reports: ReportsConfig{
			Dir:             "./generated_reports",
			Timezone:        "Asia/Yekaterinburg",
			LiveSummaryDays: 30,
			FontCandidates: []string{
				"./fonts/DejaVuSans.ttf",
				"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
				"/usr/share/fonts/dejavu/DejaVuSans.ttf",
				"/usr/share/fonts/TTF/DejaVuSans.ttf",
				"/Library/Fonts/Arial Unicode.ttf",
				"C:\\Windows\\Fonts\\arial.ttf",
			},
			EnableSpreadsheet:         true,
			EnableDocument:            true,
			PreventedLossPerDiagnosis: 1.5,
			SavedHoursPerTask:         0.5,
		},
	}
}

// Load reads configuration from an optional YAML file (CONFIG_FILE) and then
// environment variables, which take precedence.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.AllowedOrigins = getListEnv("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.EnableDevToken = getBoolEnv("ENABLE_DEV_TOKEN", cfg.Server.EnableDevToken)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxConns = getIntEnv("DB_MAX_CONNS", cfg.Database.MaxConns)

	cfg.JWT.Secret = getEnv("JWT_SECRET", cfg.JWT.Secret)
	cfg.JWT.Issuer = getEnv("JWT_ISSUER", cfg.JWT.Issuer)
	cfg.JWT.ExpiryHours = getIntEnv("JWT_EXPIRY_HOURS", cfg.JWT.ExpiryHours)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	cfg.Reports.Dir = getEnv("REPORTS_DIR", cfg.Reports.Dir)
	cfg.Reports.Timezone = getEnv("REPORTS_TIMEZONE", cfg.Reports.Timezone)
	cfg.Reports.LiveSummaryDays = getIntEnv("REPORTS_LIVE_SUMMARY_DAYS", cfg.Reports.LiveSummaryDays)
	cfg.Reports.FontCandidates = getListEnv("REPORTS_FONT_CANDIDATES", cfg.Reports.FontCandidates)
	cfg.Reports.EnableSpreadsheet = getBoolEnv("REPORTS_ENABLE_SPREADSHEET", cfg.Reports.EnableSpreadsheet)
	cfg.Reports.EnableDocument = getBoolEnv("REPORTS_ENABLE_DOCUMENT", cfg.Reports.EnableDocument)
	cfg.Reports.PreventedLossPerDiagnosis = getFloatEnv("REPORTS_PREVENTED_LOSS_PER_DIAGNOSIS", cfg.Reports.PreventedLossPerDiagnosis)
	cfg.Reports.SavedHoursPerTask = getFloatEnv("REPORTS_SAVED_HOURS_PER_TASK", cfg.Reports.SavedHoursPerTask)

	if cfg.Reports.LiveSummaryDays <= 0 {
		return nil, fmt.Errorf("reports.live_summary_days must be positive, got %d", cfg.Reports.LiveSummaryDays)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// DSN returns the Postgres connection string.
func (d *DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password +
		"@" + d.Host + ":" + d.Port +
		"/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getListEnv splits a comma separated value, dropping empty entries.
func getListEnv(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
