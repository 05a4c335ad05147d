package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config es la configuración raíz del servicio.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Log           LogConfig           `yaml:"log"`
	Settings      SettingsConfig      `yaml:"settings"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Twilio        TwilioConfig        `yaml:"twilio"`
	Ledger        LedgerConfig        `yaml:"ledger"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig: DSN vacío => adapters in-memory (modo dev).
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DB_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DB_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DB_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DB_MAX_CONN_LIFETIME"  env-default:"30m"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" env-default:"5m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DB_AUTO_MIGRATE"       env-default:"false"`
}

func (d DatabaseConfig) InMemory() bool { return strings.TrimSpace(d.DSN) == "" }

// AuthConfig: sin JWTSecret el servicio corre en modo dev (headers X-Debug-*).
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"petshop-manager"`
}

func (a AuthConfig) DevMode() bool { return a.JWTSecret == "" }

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
	App    string `yaml:"app"    env:"APP_NAME"   env-default:"petshop-manager"`
}

// SettingsConfig define dónde se persisten los ajustes locales y sus defaults.
type SettingsConfig struct {
	Path              string `yaml:"path"                env:"SETTINGS_PATH"`
	BusinessName      string `yaml:"business_name"       env:"SETTINGS_BUSINESS_NAME"       env-default:"PetShop Manager"`
	DefaultWebhookURL string `yaml:"default_webhook_url" env:"SETTINGS_DEFAULT_WEBHOOK_URL"`
	// Timezone define qué es "hoy" para la agenda y el mes del dashboard.
	Timezone string `yaml:"timezone" env:"SETTINGS_TIMEZONE" env-default:"America/Sao_Paulo"`
}

func (s SettingsConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

type NotificationsConfig struct {
	Channel     string        `yaml:"channel"      env:"NOTIFY_CHANNEL"      env-default:"webhook"`
	Schedule    string        `yaml:"schedule"     env:"NOTIFY_SCHEDULE"     env-default:"@every 30s"`
	Timeout     time.Duration `yaml:"timeout"      env:"NOTIFY_TIMEOUT"      env-default:"5s"`
	MaxAttempts int           `yaml:"max_attempts" env:"NOTIFY_MAX_ATTEMPTS" env-default:"8"`
	BackoffBase time.Duration `yaml:"backoff_base" env:"NOTIFY_BACKOFF_BASE" env-default:"30s"`
	BackoffMax  time.Duration `yaml:"backoff_max"  env:"NOTIFY_BACKOFF_MAX"  env-default:"1h"`
	BatchSize   int           `yaml:"batch_size"   env:"NOTIFY_BATCH_SIZE"   env-default:"20"`
	Lease       time.Duration `yaml:"lease"        env:"NOTIFY_LEASE"        env-default:"2m"`
}

const (
	ChannelWebhook = "webhook"
	ChannelTwilio  = "twilio"
)

type TwilioConfig struct {
	AccountSID     string `yaml:"account_sid"     env:"TWILIO_ACCOUNT_SID"`
	AuthToken      string `yaml:"auth_token"      env:"TWILIO_AUTH_TOKEN"`
	WhatsAppNumber string `yaml:"whatsapp_number" env:"TWILIO_WHATSAPP_NUMBER"`
}

// LedgerConfig controla los asientos automáticos (venta de pacote, checkout).
type LedgerConfig struct {
	AutoRecord bool `yaml:"auto_record" env:"LEDGER_AUTO_RECORD" env-default:"true"`
}

// Load lee YAML (CONFIG_PATH, fallback ./config.yaml) + env + defaults.
// Prioridad: ENV > YAML > env-default.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate aplica reglas que los tags no pueden expresar.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range (got %d)", c.Server.Port)
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	switch c.Notifications.Channel {
	case ChannelWebhook:
	case ChannelTwilio:
		if c.Twilio.AccountSID == "" || c.Twilio.AuthToken == "" || c.Twilio.WhatsAppNumber == "" {
			return fmt.Errorf("twilio channel requires account_sid, auth_token and whatsapp_number")
		}
	default:
		return fmt.Errorf("notifications.channel must be webhook or twilio (got %q)", c.Notifications.Channel)
	}
	if c.Notifications.MaxAttempts <= 0 {
		return fmt.Errorf("notifications.max_attempts must be > 0 (got %d)", c.Notifications.MaxAttempts)
	}
	if c.Notifications.BackoffBase <= 0 || c.Notifications.BackoffMax < c.Notifications.BackoffBase {
		return fmt.Errorf("notifications.backoff_base must be > 0 and <= backoff_max")
	}
	if c.Notifications.BatchSize <= 0 {
		return fmt.Errorf("notifications.batch_size must be > 0 (got %d)", c.Notifications.BatchSize)
	}

	if _, err := c.Settings.Location(); err != nil {
		return fmt.Errorf("settings.timezone: %w", err)
	}
	if u := strings.TrimSpace(c.Settings.DefaultWebhookURL); u != "" {
		if _, err := url.ParseRequestURI(u); err != nil {
			return fmt.Errorf("settings.default_webhook_url: %w", err)
		}
	}
	return nil
}
