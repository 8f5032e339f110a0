package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN         string
	ServerPort    string
	SessionSecret string
	LogLevel      string
	SeedDemo      bool

	// nil trusts no proxy: the client IP is the peer address
	TrustedProxies []string

	StorageDir  string
	MaxUploadMB int64

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	DPOEmail     string

	ReminderInterval time.Duration
	ReminderWindow   time.Duration
}

// Load reads .env and the environment and exits on invalid configuration.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		ServerPort:    getenv("SERVER_PORT", "8080"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		StorageDir:    getenv("STORAGE_DIR", "./data/documents"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getenv("SMTP_PORT", "587"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		MailFrom:      os.Getenv("MAIL_FROM"),
		DPOEmail:      os.Getenv("DPO_EMAIL"),
	}

	var err error
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is not set")
	}
	if len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}
	if cfg.TrustedProxies, err = parseProxies("TRUSTED_PROXIES"); err != nil {
		return nil, err
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = cfg.SMTPUser
	}

	if cfg.SeedDemo, err = parseBool("SEED_DEMO", false); err != nil {
		return nil, err
	}
	if cfg.MaxUploadMB, err = parseInt("MAX_UPLOAD_MB", 20); err != nil {
		return nil, err
	}
	if cfg.ReminderInterval, err = parseDuration("REMINDER_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.ReminderWindow, err = parseDuration("REMINDER_WINDOW", 24*time.Hour); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func parseInt(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func parseProxies(key string) ([]string, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil, nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return nil, fmt.Errorf("%s: %q is not an IP or CIDR", key, p)
			}
		}
		out = append(out, p)
	}
	return out, nil
}
