package config

import (
	"errors"
	"fmt"
	"os"

	"resbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig         `yaml:"app"`
	Server     ServerConfig      `yaml:"server"`
	Database   DatabaseConfig    `yaml:"database"`
	Redis      RedisConfig       `yaml:"redis"`
	Auth       AuthConfig        `yaml:"auth"`
	Booking    BookingConfig     `yaml:"booking"`
	SMTP       SMTPConfig        `yaml:"smtp"`
	Push       PushConfig        `yaml:"push"`
	Telegram   TelegramConfig    `yaml:"telegram"`
	Exports    ExportConfig      `yaml:"exports"`
	Google     GoogleConfig      `yaml:"google"`
	Monitoring MonitoringConfig  `yaml:"monitoring"`
	Logging    LoggingConfig     `yaml:"logging"`
	Resources  []models.Resource `yaml:"resources"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port              int             `yaml:"port"`
	ReadHeaderTimeout int             `yaml:"read_header_timeout"` // seconds
	WriteTimeout      int             `yaml:"write_timeout"`       // seconds
	RateLimit         ServerRateLimit `yaml:"rate_limit"`
}

type ServerRateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type AuthConfig struct {
	JWTSecret     string   `yaml:"jwt_secret"`
	TokenTTLHours int      `yaml:"token_ttl_hours"`
	AdminEmails   []string `yaml:"admin_emails"`
}

type BookingConfig struct {
	MaxBookingDays int `yaml:"max_booking_days"`
	// MinAdvanceMinutes запрещает заявки "впритык" к началу
	MinAdvanceMinutes int `yaml:"min_advance_minutes"`
}

type SMTPConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	Password string `yaml:"password"`
}

type PushConfig struct {
	Enabled    bool   `yaml:"enabled"`
	GatewayURL string `yaml:"gateway_url"`
	Timeout    int    `yaml:"timeout"` // seconds
}

type TelegramConfig struct {
	Enabled       bool    `yaml:"enabled"`
	BotToken      string  `yaml:"bot_token"`
	ApproverChats []int64 `yaml:"approver_chats"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type GoogleConfig struct {
	CredentialsFile       string `yaml:"credentials_file"`
	BookingsSpreadSheetID string `yaml:"bookings_spreadsheet_id"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env не обязателен: в проде все приходит из окружения
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "CHANGE_ME" {
		return errors.New("auth jwt secret is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.SMTP.Enabled && c.SMTP.Host == "" {
		return errors.New("smtp enabled but host not set")
	}

	if c.Push.Enabled && c.Push.GatewayURL == "" {
		return errors.New("push enabled but gateway_url not set")
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram enabled but bot_token not set")
	}

	return ValidateResources(c.Resources)
}

// ValidateResources rejects seed resources with missing or duplicate IDs
// and unknown types.
func ValidateResources(resources []models.Resource) error {
	ids := make(map[int64]bool)
	for _, r := range resources {
		if r.ID == 0 {
			return fmt.Errorf("resource '%s' has invalid ID 0", r.Name)
		}
		if ids[r.ID] {
			return fmt.Errorf("duplicate resource ID found: %d", r.ID)
		}
		if !models.ValidResourceType(r.Type) {
			return fmt.Errorf("resource '%s' has unknown type '%s'", r.Name, r.Type)
		}
		ids[r.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = 5
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15
	}
	if c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = 5
	}
	if c.Auth.TokenTTLHours == 0 {
		c.Auth.TokenTTLHours = models.DefaultTokenTTLHours
	}
	if c.Booking.MaxBookingDays == 0 {
		c.Booking.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Push.Timeout == 0 {
		c.Push.Timeout = models.DefaultDispatchTimeoutSeconds
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
