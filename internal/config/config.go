package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string           `mapstructure:"database_url"`
	ServerPort  string           `mapstructure:"server_port"`
	JWTSecret   string           `mapstructure:"jwt_secret"`
	SessionTTL  time.Duration    `mapstructure:"session_ttl"`
	CORS        CORSConfig       `mapstructure:"cors"`
	Email       EmailConfig      `mapstructure:"email"`
	Invitation  InvitationConfig `mapstructure:"invitation"`
	Revalidate  RevalidateConfig `mapstructure:"revalidate"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Temporal    TemporalConfig   `mapstructure:"temporal"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type EmailConfig struct {
	From              string   `mapstructure:"from"`
	SMTPHost          string   `mapstructure:"smtp_host"`
	SMTPPort          int      `mapstructure:"smtp_port"`
	Username          string   `mapstructure:"username"`
	Password          string   `mapstructure:"password"`
	AcceptURLTemplate string   `mapstructure:"accept_url_template"`
	AlertRecipients   []string `mapstructure:"alert_recipients"`
}

type InvitationConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RevalidateConfig points at the frontend endpoint that drops cached pages.
// An empty URL disables the hook.
type RevalidateConfig struct {
	URL     string        `mapstructure:"url"`
	Secret  string        `mapstructure:"secret"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type TemporalConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	HostPort      string `mapstructure:"host_port"`
	Namespace     string `mapstructure:"namespace"`
	PurgeSchedule string `mapstructure:"purge_schedule"`

	// PurgeInterval drives the in-process purge when Temporal is disabled.
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
// Every key can be overridden from the environment, e.g. ORGS_EMAIL_SMTP_HOST.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("orgs")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	config.applyDefaults()

	if config.JWTSecret == "" {
		log.Fatal("JWT secret must be set in the config file")
	}

	return &config
}

func (c *Config) applyDefaults() {
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.AcceptURLTemplate == "" {
		c.Email.AcceptURLTemplate = "http://localhost:3000/invitations/%s"
	}
	if c.Invitation.TTL <= 0 {
		c.Invitation.TTL = 7 * 24 * time.Hour
	}
	if c.Revalidate.Timeout <= 0 {
		c.Revalidate.Timeout = 5 * time.Second
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = 20
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = c.RateLimit.RequestsPerMinute
	}
	if c.Temporal.Namespace == "" {
		c.Temporal.Namespace = "default"
	}
	if c.Temporal.PurgeInterval <= 0 {
		c.Temporal.PurgeInterval = time.Hour
	}
	if c.Temporal.PurgeSchedule == "" {
		c.Temporal.PurgeSchedule = "0 3 * * *"
	}
}
