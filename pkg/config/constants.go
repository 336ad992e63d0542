package config

// EnvPrefix is passed to envconfig; individual fields carry full names.
const EnvPrefix = "DUKAYETU"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv     = "DUKAYETU_APP_ENV"
	EnvPort       = "DUKAYETU_APP_PORT"
	EnvDBDSN      = "DUKAYETU_DB_DSN"
	EnvDBHost     = "DUKAYETU_DB_HOST"
	EnvDBUser     = "DUKAYETU_DB_USER"
	EnvDBName     = "DUKAYETU_DB_NAME"
	EnvRedisURL   = "DUKAYETU_REDIS_URL"
	EnvJWTSecret  = "DUKAYETU_JWT_SECRET"
	EnvJWTIssuer  = "DUKAYETU_JWT_ISSUER"
	EnvJWTExpMins = "DUKAYETU_JWT_EXPIRATION_MINUTES"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
