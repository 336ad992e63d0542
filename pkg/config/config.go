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
	JWT          JWTConfig
	Password     PasswordConfig
	Mpesa        MpesaConfig
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
	Env          string `envconfig:"DUKAYETU_APP_ENV" required:"true"`
	Port         string `envconfig:"DUKAYETU_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DUKAYETU_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DUKAYETU_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DUKAYETU_DB_DSN"`
	Driver string `envconfig:"DUKAYETU_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DUKAYETU_DB_HOST"`
	Port     int    `envconfig:"DUKAYETU_DB_PORT" default:"5432"`
	User     string `envconfig:"DUKAYETU_DB_USER"`
	Password string `envconfig:"DUKAYETU_DB_PASSWORD"`
	Name     string `envconfig:"DUKAYETU_DB_NAME"`
	SSLMode  string `envconfig:"DUKAYETU_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DUKAYETU_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DUKAYETU_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DUKAYETU_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DUKAYETU_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DUKAYETU_REDIS_URL"`
	Address      string        `envconfig:"DUKAYETU_REDIS_ADDR"`
	Password     string        `envconfig:"DUKAYETU_REDIS_PASSWORD"`
	DB           int           `envconfig:"DUKAYETU_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DUKAYETU_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DUKAYETU_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DUKAYETU_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DUKAYETU_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DUKAYETU_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DUKAYETU_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DUKAYETU_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DUKAYETU_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DUKAYETU_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DUKAYETU_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DUKAYETU_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DUKAYETU_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DUKAYETU_ARGON_KEY_LEN" default:"32"`
}

// MpesaConfig carries the Daraja credentials for STK push.
type MpesaConfig struct {
	ConsumerKey    string        `envconfig:"DUKAYETU_MPESA_CONSUMER_KEY"`
	ConsumerSecret string        `envconfig:"DUKAYETU_MPESA_CONSUMER_SECRET"`
	Shortcode      string        `envconfig:"DUKAYETU_MPESA_SHORTCODE"`
	Passkey        string        `envconfig:"DUKAYETU_MPESA_PASSKEY"`
	BaseURL        string        `envconfig:"DUKAYETU_MPESA_BASE_URL" default:"https://sandbox.safaricom.co.ke"`
	CallbackURL    string        `envconfig:"DUKAYETU_MPESA_CALLBACK_URL"`
	CallbackToken  string        `envconfig:"DUKAYETU_MPESA_CALLBACK_TOKEN"`
	Timeout        time.Duration `envconfig:"DUKAYETU_MPESA_TIMEOUT" default:"30s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DUKAYETU_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
