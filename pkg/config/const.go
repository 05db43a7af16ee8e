package config

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "USHOES"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "USHOES_APP_ENV"
	EnvRedisURL = "USHOES_REDIS_URL"
)
