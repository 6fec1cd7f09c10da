package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration, loaded from the environment.
type Config struct {
	Port int    `env:"PORT" envDefault:"8080"`
	Env  string `env:"ENV" envDefault:"dev"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	DatabaseFile string `env:"ADMIN_DATABASE_FILE" envDefault:"admin.db"`

	// SessionSecret signs session tokens. At least 32 bytes.
	SessionSecret string        `env:"ADMIN_SESSION_SECRET,required"`
	TokenIssuer   string        `env:"ADMIN_TOKEN_ISSUER" envDefault:"metamasonz-admin"`
	SessionTTL    time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"24h"`

	InviteTTL     time.Duration `env:"ADMIN_INVITE_TTL" envDefault:"24h"`
	SweepInterval time.Duration `env:"ADMIN_SWEEP_INTERVAL" envDefault:"24h"`

	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	// SMTP delivery. Leaving the host empty switches to log-only dispatch.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"admin@metamasonz.com"`

	// Bootstrap superAdmin, created only when the database is empty.
	SeedName     string `env:"ADMIN_SEED_NAME" envDefault:"Admin"`
	SeedEmail    string `env:"ADMIN_SEED_EMAIL"`
	SeedPassword string `env:"ADMIN_SEED_PASSWORD"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
