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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Documents    DocumentsConfig
	Conversion   ConversionConfig
	Signature    SignatureConfig
	Sendgrid     SendgridConfig
	Enhancer     EnhancerConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Conversion.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LEKHAPADI_APP_ENV" required:"true"`
	Port         string `envconfig:"LEKHAPADI_APP_PORT" required:"true"`
	PublicURL    string `envconfig:"LEKHAPADI_APP_PUBLIC_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"LEKHAPADI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEKHAPADI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LEKHAPADI_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LEKHAPADI_DB_DSN"`
	Driver string `envconfig:"LEKHAPADI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LEKHAPADI_DB_HOST"`
	LegacyPort     int    `envconfig:"LEKHAPADI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LEKHAPADI_DB_USER"`
	LegacyPassword string `envconfig:"LEKHAPADI_DB_PASSWORD"`
	LegacyName     string `envconfig:"LEKHAPADI_DB_NAME"`
	LegacySSLMode  string `envconfig:"LEKHAPADI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEKHAPADI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEKHAPADI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEKHAPADI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEKHAPADI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LEKHAPADI_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LEKHAPADI_REDIS_ADDR"`
	Password     string        `envconfig:"LEKHAPADI_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEKHAPADI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEKHAPADI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEKHAPADI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEKHAPADI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEKHAPADI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEKHAPADI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LEKHAPADI_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LEKHAPADI_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LEKHAPADI_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LEKHAPADI_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"LEKHAPADI_EVENTING_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LEKHAPADI_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"LEKHAPADI_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LEKHAPADI_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName     string        `envconfig:"LEKHAPADI_GCS_BUCKET_NAME" required:"true"`
	PublicBaseURL  string        `envconfig:"LEKHAPADI_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	APIBaseURL     string        `envconfig:"LEKHAPADI_GCS_API_BASE_URL" default:"https://storage.googleapis.com"`
	RequestTimeout time.Duration `envconfig:"LEKHAPADI_GCS_REQUEST_TIMEOUT" default:"30s"`
}

type PubSubConfig struct {
	DocumentsTopic string `envconfig:"LEKHAPADI_PUBSUB_DOCUMENTS_TOPIC" default:"lekhapadi-document-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LEKHAPADI_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LEKHAPADI_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LEKHAPADI_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type DocumentsConfig struct {
	MaxUploadBytes   int64 `envconfig:"LEKHAPADI_DOCUMENTS_MAX_UPLOAD_BYTES" default:"10485760"`
	DefaultListLimit int   `envconfig:"LEKHAPADI_DOCUMENTS_DEFAULT_LIST_LIMIT" default:"50"`
	MaxListLimit     int   `envconfig:"LEKHAPADI_DOCUMENTS_MAX_LIST_LIMIT" default:"200"`
}

type ConversionConfig struct {
	Engine       string        `envconfig:"LEKHAPADI_CONVERSION_ENGINE" default:"gotenberg"`
	GotenbergURL string        `envconfig:"LEKHAPADI_GOTENBERG_URL" default:"http://localhost:3100"`
	SofficePath  string        `envconfig:"LEKHAPADI_SOFFICE_PATH" default:"soffice"`
	Timeout      time.Duration `envconfig:"LEKHAPADI_CONVERSION_TIMEOUT" default:"45s"`
}

func (c ConversionConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Engine)) {
	case ConversionEngineGotenberg, ConversionEngineSoffice:
		return nil
	default:
		return fmt.Errorf("%s must be one of %q or %q", EnvConversionEngine, ConversionEngineGotenberg, ConversionEngineSoffice)
	}
}

type SignatureConfig struct {
	DefaultWidth  float64 `envconfig:"LEKHAPADI_SIGNATURE_DEFAULT_WIDTH" default:"200"`
	DefaultHeight float64 `envconfig:"LEKHAPADI_SIGNATURE_DEFAULT_HEIGHT" default:"100"`
	RightMargin   float64 `envconfig:"LEKHAPADI_SIGNATURE_RIGHT_MARGIN" default:"20"`
	BottomOffset  float64 `envconfig:"LEKHAPADI_SIGNATURE_BOTTOM_OFFSET" default:"250"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"LEKHAPADI_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"LEKHAPADI_SENDGRID_FROM_EMAIL" default:"noreply@lekhapadi.app"`
	BaseURL     string `envconfig:"LEKHAPADI_SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
}

// Enabled reports whether outbound email should go through SendGrid.
func (s SendgridConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

type EnhancerConfig struct {
	Enabled bool          `envconfig:"LEKHAPADI_ENHANCER_ENABLED" default:"false"`
	APIKey  string        `envconfig:"LEKHAPADI_GEMINI_API_KEY"`
	Model   string        `envconfig:"LEKHAPADI_GEMINI_MODEL" default:"gemini-1.5-flash"`
	BaseURL string        `envconfig:"LEKHAPADI_GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	Timeout time.Duration `envconfig:"LEKHAPADI_ENHANCER_TIMEOUT" default:"15s"`
}

// RateLimitConfig throttles signature-request emails per caller and per IP.
type RateLimitConfig struct {
	Window        time.Duration `envconfig:"LEKHAPADI_RATE_LIMIT_WINDOW" default:"1h"`
	IPLimit       int           `envconfig:"LEKHAPADI_RATE_LIMIT_IP" default:"60"`
	IdentityLimit int           `envconfig:"LEKHAPADI_RATE_LIMIT_IDENTITY" default:"30"`
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
