package config

// EnvPrefix is passed to envconfig; every field tag already carries the full
// variable name, which envconfig resolves through its alternate-key lookup.
const EnvPrefix = "LEKHAPADI"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	ConversionEngineGotenberg = "gotenberg"
	ConversionEngineSoffice   = "soffice"
)

const (
	EnvAppEnv   = "LEKHAPADI_APP_ENV"
	EnvPort     = "LEKHAPADI_APP_PORT"
	EnvLogLevel = "LEKHAPADI_LOG_LEVEL"

	EnvDBDSN  = "LEKHAPADI_DB_DSN"
	EnvDBHost = "LEKHAPADI_DB_HOST"
	EnvDBUser = "LEKHAPADI_DB_USER"
	EnvDBName = "LEKHAPADI_DB_NAME"

	EnvRedisURL = "LEKHAPADI_REDIS_URL"

	EnvJWTSecret  = "LEKHAPADI_JWT_SECRET"
	EnvJWTIssuer  = "LEKHAPADI_JWT_ISSUER"
	EnvJWTExpMins = "LEKHAPADI_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "LEKHAPADI_GCP_PROJECT_ID"
	EnvGCSBucket    = "LEKHAPADI_GCS_BUCKET_NAME"

	EnvPubSubDocumentsTopic = "LEKHAPADI_PUBSUB_DOCUMENTS_TOPIC"

	EnvMaxUploadBytes    = "LEKHAPADI_DOCUMENTS_MAX_UPLOAD_BYTES"
	EnvConversionEngine  = "LEKHAPADI_CONVERSION_ENGINE"
	EnvConversionTimeout = "LEKHAPADI_CONVERSION_TIMEOUT"
	EnvSendgridAPIKey    = "LEKHAPADI_SENDGRID_API_KEY"
	EnvEnhancerEnabled   = "LEKHAPADI_ENHANCER_ENABLED"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
