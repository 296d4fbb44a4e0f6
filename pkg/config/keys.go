package config

const (
	EnvPrefix = "BRANDPULSE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "BRANDPULSE_DB_DSN"
	EnvDBHost = "BRANDPULSE_DB_HOST"
	EnvDBUser = "BRANDPULSE_DB_USER"
	EnvDBName = "BRANDPULSE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
