package config

const EnvPrefix = "VENDORHUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverGCS = "gcs"
	StorageDriverS3  = "s3"
)

const (
	EnvAppEnv        = "VENDORHUB_APP_ENV"
	EnvPort          = "VENDORHUB_APP_PORT"
	EnvDBDSN         = "VENDORHUB_DB_DSN"
	EnvDBHost        = "VENDORHUB_DB_HOST"
	EnvDBUser        = "VENDORHUB_DB_USER"
	EnvDBName        = "VENDORHUB_DB_NAME"
	EnvDBPassword    = "VENDORHUB_DB_PASSWORD"
	EnvRedisURL      = "VENDORHUB_REDIS_URL"
	EnvJWTSecret     = "VENDORHUB_JWT_SECRET"
	EnvJWTIssuer     = "VENDORHUB_JWT_ISSUER"
	EnvStorageDriver = "VENDORHUB_STORAGE_DRIVER"
	EnvStorageBucket = "VENDORHUB_STORAGE_BUCKET"
	EnvGotenbergURL  = "VENDORHUB_GOTENBERG_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
