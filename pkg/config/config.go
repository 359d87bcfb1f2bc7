package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Circulation  CirculationConfig
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
	Env          string `envconfig:"LIBRARIA_APP_ENV" required:"true"`
	Port         string `envconfig:"LIBRARIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LIBRARIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LIBRARIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LIBRARIA_DB_DSN"`
	Driver string `envconfig:"LIBRARIA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LIBRARIA_DB_HOST"`
	LegacyPort     int    `envconfig:"LIBRARIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LIBRARIA_DB_USER"`
	LegacyPassword string `envconfig:"LIBRARIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"LIBRARIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"LIBRARIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LIBRARIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LIBRARIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LIBRARIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LIBRARIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LIBRARIA_REDIS_URL"`
	Address      string        `envconfig:"LIBRARIA_REDIS_ADDR"`
	Password     string        `envconfig:"LIBRARIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"LIBRARIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LIBRARIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LIBRARIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LIBRARIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LIBRARIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LIBRARIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis connection is configured at all. The
// idempotency cache is skipped when it is not.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// CirculationConfig holds the lending policy. Defaults match the
// library rules: two concurrent loans, seven-day loan period, and a
// three-day penalty for late returns.
type CirculationConfig struct {
	MaxActiveLoans int `envconfig:"LIBRARIA_CIRCULATION_MAX_ACTIVE_LOANS" default:"2"`
	LoanPeriodDays int `envconfig:"LIBRARIA_CIRCULATION_LOAN_PERIOD_DAYS" default:"7"`
	PenaltyDays    int `envconfig:"LIBRARIA_CIRCULATION_PENALTY_DAYS" default:"3"`
}

// LoanPeriod returns the loan period as a duration.
func (c CirculationConfig) LoanPeriod() time.Duration {
	return time.Duration(c.LoanPeriodDays) * 24 * time.Hour
}

// PenaltyDuration returns the penalty window as a duration.
func (c CirculationConfig) PenaltyDuration() time.Duration {
	return time.Duration(c.PenaltyDays) * 24 * time.Hour
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LIBRARIA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
