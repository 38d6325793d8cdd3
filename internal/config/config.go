// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"brokerdash/internal/broker"
)

// Token modes select where a brokerage's access token comes from.
const (
	TokenModeSecret = "secret" // read from the secret store
	TokenModeOAuth  = "oauth"  // request from the brokerage token endpoint
)

// Secret backends.
const (
	SecretBackendAWS    = "aws"
	SecretBackendSQLite = "sqlite"
	SecretBackendEnv    = "env"
)

// Config holds the application configuration.
type Config struct {
	// Server settings
	Port        string
	Host        string
	LogLevel    string
	CORSOrigins []string

	// Outbound settings
	HTTPTimeout     time.Duration
	MaxPages        int
	PrewarmSchedule string

	Secrets SecretsConfig
	KIS     KISConfig
	Kiwoom  KiwoomConfig
	LS      LSConfig
}

// SecretsConfig selects and configures the secret store.
type SecretsConfig struct {
	Backend          string
	AWSRegion        string
	DBPath           string
	EncryptionSecret string // used for encrypting secrets in the sqlite store
}

// KISConfig configures the KIS adapter.
type KISConfig struct {
	Domain             string
	AppKey             string
	AppSecret          string
	TokenMode          string
	SecretID           string
	Account            string `yaml:"account"`
	ProductCode        string `yaml:"product_code"`
	FuturesProductCode string `yaml:"futures_product_code"`
}

// StockAccount is the domestic stock account.
func (k KISConfig) StockAccount() broker.Account {
	return broker.Account{Number: k.Account, ProductCode: k.ProductCode}
}

// FuturesAccount is the futures/options account, which shares the account
// number.
func (k KISConfig) FuturesAccount() broker.Account {
	return broker.Account{Number: k.Account, ProductCode: k.FuturesProductCode}
}

// Enabled reports whether enough is configured to talk to KIS.
func (k KISConfig) Enabled() bool {
	return k.AppKey != "" && k.Account != ""
}

// KiwoomConfig configures the Kiwoom adapter.
type KiwoomConfig struct {
	Domain      string
	AppKey      string
	SecretKey   string
	TokenMode   string
	SecretID    string
	Account     string `yaml:"account"`
	ProductCode string `yaml:"product_code"`
}

// BrokerAccount is the Kiwoom account sent with balance requests.
func (k KiwoomConfig) BrokerAccount() broker.Account {
	return broker.Account{Number: k.Account, ProductCode: k.ProductCode}
}

// Enabled reports whether enough is configured to talk to Kiwoom.
func (k KiwoomConfig) Enabled() bool {
	return k.AppKey != "" || k.SecretID != ""
}

// LSConfig configures the LS adapter. LS tokens always come from the secret
// store.
type LSConfig struct {
	Domain   string
	SecretID string
}

// Enabled reports whether enough is configured to talk to LS.
func (l LSConfig) Enabled() bool {
	return l.SecretID != ""
}

// accountsFile is the optional YAML file holding account numbers.
type accountsFile struct {
	KIS    KISConfig    `yaml:"kis"`
	Kiwoom KiwoomConfig `yaml:"kiwoom"`
}

// Load reads configuration from a .env file if present, an optional YAML
// accounts file (ACCOUNTS_FILE) and environment variables. Environment
// variables take precedence over the accounts file.
func Load() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	var accounts accountsFile
	if path := os.Getenv("ACCOUNTS_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading accounts file: %w", err)
		}
		if err := yaml.Unmarshal(data, &accounts); err != nil {
			return nil, fmt.Errorf("parsing accounts file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Host:            getEnv("HOST", "localhost"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		PrewarmSchedule: getEnv("PREWARM_SCHEDULE", "50 8 * * 1-5"),
		Secrets: SecretsConfig{
			Backend:          getEnv("SECRET_BACKEND", SecretBackendAWS),
			AWSRegion:        getEnv("AWS_REGION", "ap-northeast-2"),
			DBPath:           getEnv("SECRET_DB_PATH", filepath.Join("data", "secrets.db")),
			EncryptionSecret: getEnv("ENCRYPTION_SECRET", "change-me-in-production-32chars!"),
		},
		KIS: KISConfig{
			Domain:             getEnv("KIS_DOMAIN", "https://openapi.koreainvestment.com:9443"),
			AppKey:             os.Getenv("KIS_APP_KEY"),
			AppSecret:          os.Getenv("KIS_APP_SECRET"),
			TokenMode:          getEnv("KIS_TOKEN_MODE", TokenModeSecret),
			SecretID:           os.Getenv("AWS_SECRET_ID"),
			Account:            getEnv("KIS_CANO", accounts.KIS.Account),
			ProductCode:        getEnv("KIS_ACNT_PRDT_CD", orDefault(accounts.KIS.ProductCode, "01")),
			FuturesProductCode: getEnv("KIS_FUTURE_ACNT_PRDT_CD", orDefault(accounts.KIS.FuturesProductCode, "03")),
		},
		Kiwoom: KiwoomConfig{
			Domain:      getEnv("KIWOOM_DOMAIN", "https://api.kiwoom.com"),
			AppKey:      os.Getenv("KIWOOM_APP_KEY"),
			SecretKey:   os.Getenv("KIWOOM_SECRET_KEY"),
			TokenMode:   getEnv("KIWOOM_TOKEN_MODE", TokenModeSecret),
			SecretID:    os.Getenv("AWS_SECRET_ID_KIWOOM"),
			Account:     getEnv("KIWOOM_CANO", accounts.Kiwoom.Account),
			ProductCode: getEnv("KIWOOM_ACNT_PRDT_CD", accounts.Kiwoom.ProductCode),
		},
		LS: LSConfig{
			Domain:   getEnv("LS_DOMAIN", "https://openapi.ls-sec.co.kr:8080"),
			SecretID: os.Getenv("LS_AWS_SECRET_ID"),
		},
	}

	var err error
	if cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", broker.DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = getInt("MAX_PAGES", 50); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings and ranges.
func (c *Config) Validate() error {
	var errs []error
	for name, mode := range map[string]string{"KIS_TOKEN_MODE": c.KIS.TokenMode, "KIWOOM_TOKEN_MODE": c.Kiwoom.TokenMode} {
		if mode != TokenModeSecret && mode != TokenModeOAuth {
			errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q", name, TokenModeSecret, TokenModeOAuth, mode))
		}
	}
	switch c.Secrets.Backend {
	case SecretBackendAWS, SecretBackendSQLite, SecretBackendEnv:
	default:
		errs = append(errs, fmt.Errorf("SECRET_BACKEND must be aws, sqlite or env, got %q", c.Secrets.Backend))
	}
	if c.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("MAX_PAGES must be at least 1, got %d", c.MaxPages))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout))
	}
	return errors.Join(errs...)
}

// Address returns the full address to bind the server to.
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// getDuration accepts Go durations ("45s") or a bare number of seconds.
func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
