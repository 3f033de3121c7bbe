package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App        AppSettings
	HTTP       HTTPSettings
	Auth       AuthSettings
	Log        LogSettings
	Database   DatabaseSettings
	IConstruye IConstruyeSettings
	Kame       KameSettings
	Tables     TableSettings
	Payments   PaymentSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// IConstruyeSettings configures the invoice/credit-note source API.
type IConstruyeSettings struct {
	BaseURL             string
	SubscriptionKey     string
	APITimeout          time.Duration
	OrgID               int
	DetailMaxConcurrent int // Maximum concurrent detail lookups (one remote call per invoice)
	MonthsBack          int // How many calendar months back the pipeline fetches
}

// KameSettings configures the downstream general-ledger API.
type KameSettings struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Audience     string
	Usuario      string // Accounting user recorded on every submitted voucher
	TokenTTL     time.Duration
	APITimeout   time.Duration
}

// TableSettings points at the workbook files that hold the lookup tables
// maintained outside this service.
type TableSettings struct {
	CuentasPath   string // account-mapping workbook (Concepto -> Cuenta)
	UnidadesPath  string // cost-center directory workbook
	SantanderPath string // bank-beneficiary workbook
}

// PaymentSettings carries the business constants of the scheduling rules.
// The transfer cap and the cession threshold come from the finance team;
// their exact regulatory origin should be confirmed before changing them.
type PaymentSettings struct {
	TransferCap      int64 // Maximum amount per bank-transfer line
	CessionThreshold int64 // Amount at which a ceded invoice moves to the long due term
	DueDays          int   // Default payment term from emission
	CessionDueDays   int   // Extended term for large ceded invoices
}

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env file values.
func Load() (AppConfig, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	// This allows the application to work both with .env files (local dev)
	// and environment variables (Docker, production)
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "gopagos"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 5*time.Minute),
			RequestTimeout:  getEnvAsDuration("HTTP_REQUEST_TIMEOUT", 4*time.Minute),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", false),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health"}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "gopagos"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		IConstruye: IConstruyeSettings{
			BaseURL:             getEnv("ICONSTRUYE_BASE_URL", "https://api.iconstruye.com/cvbf"),
			SubscriptionKey:     strings.TrimSpace(os.Getenv("ICONSTRUYE_API_KEY")),
			APITimeout:          getEnvAsDuration("ICONSTRUYE_API_TIMEOUT", 30*time.Second),
			OrgID:               getEnvAsInt("ICONSTRUYE_ORG_ID", -1),
			DetailMaxConcurrent: getEnvAsInt("ICONSTRUYE_DETAIL_MAX_CONCURRENT", 10),
			MonthsBack:          getEnvAsInt("PAGOS_MESES_ATRAS", 3),
		},
		Kame: KameSettings{
			BaseURL:      getEnv("KAME_BASE_URL", "https://api.kameone.cl"),
			ClientID:     strings.TrimSpace(os.Getenv("KAME_CLIENT_ID")),
			ClientSecret: strings.TrimSpace(os.Getenv("KAME_CLIENT_SECRET")),
			Audience:     getEnv("KAME_AUDIENCE", "https://api.kameone.cl/api"),
			Usuario:      strings.TrimSpace(os.Getenv("KAME_USUARIO")),
			TokenTTL:     getEnvAsDuration("KAME_TOKEN_TTL", 1*time.Hour),
			APITimeout:   getEnvAsDuration("KAME_API_TIMEOUT", 30*time.Second),
		},
		Tables: TableSettings{
			CuentasPath:   getEnv("TABLA_CUENTAS_PATH", "Cuentas.xlsx"),
			UnidadesPath:  getEnv("TABLA_UN_PATH", "UN.xlsx"),
			SantanderPath: getEnv("TABLA_SANTANDER_PATH", "Santander.xlsx"),
		},
		Payments: PaymentSettings{
			TransferCap:      getEnvAsInt64("PAGOS_TOPE_TRANSFERENCIA", 7_000_000),
			CessionThreshold: getEnvAsInt64("PAGOS_UMBRAL_CESION", 10_000_000),
			DueDays:          getEnvAsInt("PAGOS_DIAS_VENCIMIENTO", 30),
			CessionDueDays:   getEnvAsInt("PAGOS_DIAS_VENCIMIENTO_CESION", 60),
		},
	}

	if cfg.IConstruye.DetailMaxConcurrent <= 0 {
		return cfg, errors.New("invalid config: ICONSTRUYE_DETAIL_MAX_CONCURRENT must be greater than 0")
	}
	if cfg.IConstruye.MonthsBack < 0 {
		return cfg, errors.New("invalid config: PAGOS_MESES_ATRAS cannot be negative")
	}
	if cfg.Payments.TransferCap <= 0 {
		return cfg, errors.New("invalid config: PAGOS_TOPE_TRANSFERENCIA must be greater than 0")
	}
	if cfg.Payments.CessionThreshold <= 0 {
		return cfg, errors.New("invalid config: PAGOS_UMBRAL_CESION must be greater than 0")
	}
	if cfg.Payments.DueDays <= 0 || cfg.Payments.CessionDueDays <= 0 {
		return cfg, errors.New("invalid config: payment terms must be greater than 0 days")
	}
	if cfg.Payments.CessionDueDays < cfg.Payments.DueDays {
		return cfg, errors.New("invalid config: PAGOS_DIAS_VENCIMIENTO_CESION must not be shorter than the default term")
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.IssuerURI == "" {
			return cfg, errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI == "" {
			return cfg, errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	return cfg, nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
