package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Reservations ReservationsConfig
	Marketplace  MarketplaceConfig
	RateLimit    RateLimitConfig
	Mailer       MailerConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"EVENTYARD_APP_ENV" required:"true"`
	Port         string `envconfig:"EVENTYARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EVENTYARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EVENTYARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"EVENTYARD_DB_DSN"`
	Driver string `envconfig:"EVENTYARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EVENTYARD_DB_HOST"`
	LegacyPort     int    `envconfig:"EVENTYARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EVENTYARD_DB_USER"`
	LegacyPassword string `envconfig:"EVENTYARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"EVENTYARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"EVENTYARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EVENTYARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EVENTYARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EVENTYARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EVENTYARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EVENTYARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EVENTYARD_REDIS_ADDR"`
	Password     string        `envconfig:"EVENTYARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"EVENTYARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EVENTYARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EVENTYARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EVENTYARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EVENTYARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EVENTYARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"EVENTYARD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"EVENTYARD_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"EVENTYARD_JWT_EXPIRATION_MINUTES" default:"60"`
}

// ReservationsConfig makes the hold window and sweep cadence explicit settings
// instead of relying on an implicit scheduler cadence.
type ReservationsConfig struct {
	HoldTTL          time.Duration `envconfig:"EVENTYARD_RESERVATION_HOLD_TTL" default:"15m"`
	SweepInterval    time.Duration `envconfig:"EVENTYARD_RESERVATION_SWEEP_INTERVAL" default:"5m"`
	ServiceFeePct    int           `envconfig:"EVENTYARD_RESERVATION_SERVICE_FEE_PCT" default:"5"`
	ReminderLeadTime time.Duration `envconfig:"EVENTYARD_RESERVATION_REMINDER_LEAD" default:"24h"`
}

type MarketplaceConfig struct {
	ServiceFeePct int `envconfig:"EVENTYARD_MARKETPLACE_SERVICE_FEE_PCT" default:"5"`
}

type RateLimitConfig struct {
	Requests int64         `envconfig:"EVENTYARD_RATE_LIMIT_REQUESTS" default:"120"`
	Window   time.Duration `envconfig:"EVENTYARD_RATE_LIMIT_WINDOW" default:"1m"`
}

type MailerConfig struct {
	RelayURL       string        `envconfig:"EVENTYARD_MAIL_RELAY_URL"`
	APIKey         string        `envconfig:"EVENTYARD_MAIL_RELAY_API_KEY"`
	FromAddress    string        `envconfig:"EVENTYARD_MAIL_FROM" default:"no-reply@eventyard.io"`
	StaffAddress   string        `envconfig:"EVENTYARD_MAIL_STAFF_ADDRESS"`
	NotifyStaff    bool          `envconfig:"EVENTYARD_MAIL_NOTIFY_STAFF" default:"false"`
	RetryAttempts  int           `envconfig:"EVENTYARD_MAIL_RETRY_ATTEMPTS" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"EVENTYARD_MAIL_RETRY_BASE_DELAY" default:"2s"`
	RequestTimeout time.Duration `envconfig:"EVENTYARD_MAIL_REQUEST_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"EVENTYARD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"EVENTYARD_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"EVENTYARD_DB_HOST": db.LegacyHost,
		"EVENTYARD_DB_USER": db.LegacyUser,
		"EVENTYARD_DB_NAME": db.LegacyName,
	}
	for _, env := range []string{"EVENTYARD_DB_HOST", "EVENTYARD_DB_USER", "EVENTYARD_DB_NAME"} {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either EVENTYARD_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
