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
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Attribution  AttributionConfig
	Eventing     EventingConfig
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
	Env          string `envconfig:"BRANDPULSE_APP_ENV" required:"true"`
	Port         string `envconfig:"BRANDPULSE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BRANDPULSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BRANDPULSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BRANDPULSE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BRANDPULSE_DB_DSN"`
	Driver string `envconfig:"BRANDPULSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BRANDPULSE_DB_HOST"`
	LegacyPort     int    `envconfig:"BRANDPULSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BRANDPULSE_DB_USER"`
	LegacyPassword string `envconfig:"BRANDPULSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BRANDPULSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BRANDPULSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BRANDPULSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BRANDPULSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BRANDPULSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BRANDPULSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BRANDPULSE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BRANDPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"BRANDPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BRANDPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BRANDPULSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BRANDPULSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BRANDPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BRANDPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BRANDPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BRANDPULSE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BRANDPULSE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BRANDPULSE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BRANDPULSE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BRANDPULSE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"BRANDPULSE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BRANDPULSE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	RunEventsTopic         string `envconfig:"BRANDPULSE_PUBSUB_RUN_EVENTS_TOPIC" default:"bp-attribution-run-events"`
	RunRequestTopic        string `envconfig:"BRANDPULSE_PUBSUB_RUN_REQUEST_TOPIC" default:"bp-attribution-run-requests"`
	RunRequestSubscription string `envconfig:"BRANDPULSE_PUBSUB_RUN_REQUEST_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset     string `envconfig:"BRANDPULSE_BIGQUERY_DATASET" default:"brandpulse"`
	RunLogTable string `envconfig:"BRANDPULSE_BIGQUERY_RUN_LOG_TABLE" default:"attribution_runs"`
}

// AttributionConfig names the tunable business thresholds of the engine.
// Defaults mirror the values the marketing team signed off on; they are
// not hardcoded business law.
type AttributionConfig struct {
	// Segmentation thresholds (cents).
	HighValueTotalCents int64 `envconfig:"BRANDPULSE_ATTR_HIGH_VALUE_TOTAL_CENTS" default:"20000"`
	PremiumAvgCents     int64 `envconfig:"BRANDPULSE_ATTR_PREMIUM_AVG_CENTS" default:"5000"`
	RegularOrderCount   int   `envconfig:"BRANDPULSE_ATTR_REGULAR_ORDER_COUNT" default:"3"`

	// Touchpoint lookup bounds.
	InteractionLimit int `envconfig:"BRANDPULSE_ATTR_INTERACTION_LIMIT" default:"10"`
	EngagementLimit  int `envconfig:"BRANDPULSE_ATTR_ENGAGEMENT_LIMIT" default:"10"`

	// Insight rule thresholds.
	CampaignShareFloorPct    float64 `envconfig:"BRANDPULSE_ATTR_CAMPAIGN_SHARE_FLOOR_PCT" default:"30"`
	ContentShareFloorPct     float64 `envconfig:"BRANDPULSE_ATTR_CONTENT_SHARE_FLOOR_PCT" default:"20"`
	DirectShareCeilingPct    float64 `envconfig:"BRANDPULSE_ATTR_DIRECT_SHARE_CEILING_PCT" default:"60"`
	HighRevenueCampaignCents int64   `envconfig:"BRANDPULSE_ATTR_HIGH_REVENUE_CAMPAIGN_CENTS" default:"100000"`
	ContentImpactFloorPct    float64 `envconfig:"BRANDPULSE_ATTR_CONTENT_IMPACT_FLOOR_PCT" default:"15"`

	// Batch processing.
	Workers        int           `envconfig:"BRANDPULSE_ATTR_WORKERS" default:"8"`
	ResultCacheTTL time.Duration `envconfig:"BRANDPULSE_ATTR_RESULT_CACHE_TTL" default:"5m"`
}

type EventingConfig struct {
	RunIdempotencyTTL time.Duration `envconfig:"BRANDPULSE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
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
