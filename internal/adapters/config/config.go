package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"prophet/pkg/errors"
)

type Config struct {
	App           AppConfig
	Server        ServerConfig
	Models        ModelsConfig
	Cache         CacheConfig
	RateLimit     RateLimitConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"prophet"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type ServerConfig struct {
	Port            int           `envconfig:"PORT" default:"7000"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
}

// ModelsConfig points the registry at the serialized model artifacts.
// Each clustering/regression model ships as an ONNX file; the scaler
// sidecars carry the feature order and standardization parameters.
type ModelsConfig struct {
	Dir                  string `envconfig:"MODELS_DIR" default:"models"`
	KMeansFile           string `envconfig:"MODEL_KMEANS_FILE" default:"kmeans_model.onnx"`
	DBSCANFile           string `envconfig:"MODEL_DBSCAN_FILE" default:"dbscan_model.onnx"`
	RandomForestFile     string `envconfig:"MODEL_RANDOM_FOREST_FILE" default:"random_forest_regressor.onnx"`
	XGBoostFile          string `envconfig:"MODEL_XGBOOST_FILE" default:"xgboost_regressor.onnx"`
	ClusterScalerFile    string `envconfig:"CLUSTER_SCALER_FILE" default:"cluster_scaler.json"`
	RegressionScalerFile string `envconfig:"REGRESSION_SCALER_FILE" default:"regression_scaler.json"`
}

// Path resolves a model artifact filename against the models directory
func (c ModelsConfig) Path(file string) string {
	return filepath.Join(c.Dir, file)
}

type CacheConfig struct {
	Enabled  bool          `envconfig:"CACHE_ENABLED" default:"false"`
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RateLimitConfig struct {
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `envconfig:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"600"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
