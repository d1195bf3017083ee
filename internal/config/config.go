package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds runtime configuration for the admin proxy.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quiz-admin"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Upstream Upstream
	Redis    Redis
	Postgres Postgres
	Audit    Audit
	Security Security
	CORS     CORS
}

// Upstream points at the REST service every proxy route forwards to.
type Upstream struct {
	BaseURL string        `env:"UPSTREAM_BASE_URL,notEmpty"`
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
}

// Redis backs the subtopic cache. Leave REDIS_ADDR empty to disable caching.
type Redis struct {
	Addr        string        `env:"REDIS_ADDR"`
	DB          int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize    int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	SubtopicTTL time.Duration `env:"SUBTOPIC_CACHE_TTL" envDefault:"5m"`
}

// Postgres backs the audit journal. Leave PG_HOST empty to disable auditing.
type Postgres struct {
	Host     string `env:"PG_HOST"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER"`
	Password string `env:"PG_PASSWORD"`
	Database string `env:"PG_DATABASE"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"5"`
}

// Enabled reports whether a Postgres connection is configured.
func (p Postgres) Enabled() bool { return p.Host != "" }

// ConnString renders the keyword/value connection string understood by pgx.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// DSN is ConnString plus the pgxpool sizing parameters.
func (p Postgres) DSN() string {
	return fmt.Sprintf("%s pool_max_conns=%d", p.ConnString(), p.MaxConns)
}

// Audit tunes the audit journal writer and its retention worker.
type Audit struct {
	QueueSize     int           `env:"AUDIT_QUEUE_SIZE" envDefault:"256"`
	WriteTimeout  time.Duration `env:"AUDIT_WRITE_TIMEOUT" envDefault:"2s"`
	Retention     time.Duration `env:"AUDIT_RETENTION" envDefault:"720h"`
	PruneInterval time.Duration `env:"AUDIT_PRUNE_INTERVAL" envDefault:"1h"`
}

// Security configures bearer verification. Without JWT_SECRET tokens are only
// checked for presence and forwarded as is.
type Security struct {
	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER"`
}

// CORS holds Cross-Origin Resource Sharing configuration for the dashboard.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadPostgres parses only the Postgres section, for tools that need nothing else.
func LoadPostgres() (Postgres, error) {
	var pg Postgres
	if err := env.Parse(&pg); err != nil {
		return Postgres{}, fmt.Errorf("parse postgres config: %w", err)
	}
	return pg, nil
}
