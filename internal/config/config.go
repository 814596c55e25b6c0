package config

import (
	"fmt"
	"time"
)

// Default service configuration values.
const (
	defaultServiceName    = "content-mirror"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 8095
	defaultReadTimeout    = 30 * time.Second
	defaultWriteTimeout   = 60 * time.Second
	defaultIdleTimeout    = 120 * time.Second
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
)

// Default database configuration values.
const (
	defaultDBHost          = "localhost"
	defaultDBPort          = 5432
	defaultDBUser          = "postgres"
	defaultDBName          = "content_mirror"
	defaultDBSSLMode       = "disable"
	defaultDBMaxConns      = 25
	defaultDBMaxIdleConns  = 5
	defaultDBConnLifetimeH = 1
)

// Default redis configuration values.
const (
	defaultRedisAddress   = "localhost:6379"
	defaultModelCacheKey  = "content-mirror:models"
	defaultWebhookStream  = "content-mirror:webhooks"
	defaultWebhookGroup   = "webhook-workers"
	defaultEventStream    = "content-mirror:events"
	defaultEventStreamLen = 10000
)

// Default remote source configuration values.
const (
	defaultCDNURL         = "https://cdn.builder.io"
	defaultAdminURL       = "https://builder.io"
	defaultRequestTimeout = 30 * time.Second
	defaultFetchPageSize  = 100
	defaultLocale         = "en"
	defaultStorageDriver  = StorageDriverFilesystem
	defaultStorageRoot    = "./storage"
	defaultStorageFolder  = "builder"
	defaultPublicURL      = "http://localhost:8095/storage"
)

// Storage drivers.
const (
	StorageDriverFilesystem = "filesystem"
	StorageDriverMinIO      = "minio"
)

// Config holds the application configuration.
type Config struct {
	Service    ServiceConfig       `yaml:"service"`
	Database   DatabaseConfig      `yaml:"database"`
	Redis      RedisConfig         `yaml:"redis"`
	Builder    BuilderConfig       `yaml:"builder"`
	Locale     LocaleConfig        `yaml:"locale"`
	Storage    StorageConfig       `yaml:"storage"`
	Assets     AssetsConfig        `yaml:"assets"`
	Components map[string][]string `yaml:"components"`
	Sync       SyncConfig          `yaml:"sync"`
	Auth       AuthConfig          `yaml:"auth"`
	Logging    LoggingConfig       `yaml:"logging"`
}

// ServiceConfig holds service identity and runtime settings.
type ServiceConfig struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version"`
	Port         int           `env:"CONTENT_MIRROR_PORT" yaml:"port"`
	Debug        bool          `env:"APP_DEBUG"           yaml:"debug"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	// CORSOrigins are the browser origins allowed to call the API; empty disables CORS.
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" yaml:"cors_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host                  string        `env:"POSTGRES_CONTENT_MIRROR_HOST"     yaml:"host"`
	Port                  int           `env:"POSTGRES_CONTENT_MIRROR_PORT"     yaml:"port"`
	User                  string        `env:"POSTGRES_CONTENT_MIRROR_USER"     yaml:"user"`
	Password              string        `env:"POSTGRES_CONTENT_MIRROR_PASSWORD" yaml:"password"`
	Database              string        `env:"POSTGRES_CONTENT_MIRROR_DB"       yaml:"database"`
	SSLMode               string        `yaml:"sslmode"`
	MaxConnections        int           `yaml:"max_connections"`
	MaxIdleConns          int           `yaml:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// URL returns the postgres:// form used by migrations.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings plus the keys this service owns.
type RedisConfig struct {
	Address        string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password       string `env:"REDIS_PASSWORD" yaml:"password"`
	DB             int    `env:"REDIS_DB"       yaml:"db"`
	ModelCacheKey  string `yaml:"model_cache_key"`
	WebhookStream  string `yaml:"webhook_stream"`
	WebhookGroup   string `yaml:"webhook_group"`
	EventStream    string `yaml:"event_stream"`
	EventStreamLen int64  `yaml:"event_stream_max_len"`
}

// BuilderConfig holds the remote content source settings.
type BuilderConfig struct {
	APIKey       string `env:"BUILDER_API_KEY"       yaml:"api_key"`
	PrivateKey   string `env:"BUILDER_PRIVATE_KEY"   yaml:"private_key"`
	WebhookToken string `env:"BUILDER_WEBHOOK_TOKEN" yaml:"webhook_token"`
	CDNURL       string `yaml:"cdn_url"`
	AdminURL     string `yaml:"admin_url"`
	// PageModel restricts page lookups to one model. Empty resolves pages of every model.
	PageModel      string        `env:"BUILDER_PAGE_MODEL"    yaml:"page_model"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	FetchPageSize  int           `yaml:"fetch_page_size"`
}

// LocaleConfig holds the default locale policy for read requests.
type LocaleConfig struct {
	Default         string `env:"APP_LOCALE"          yaml:"default"`
	Fallback        string `env:"APP_FALLBACK_LOCALE" yaml:"fallback"`
	FallbackEnabled bool   `yaml:"fallback_enabled"`
}

// StorageConfig selects and configures the blob store for localized assets.
type StorageConfig struct {
	Driver    string      `env:"STORAGE_DRIVER"     yaml:"driver"`
	Folder    string      `yaml:"folder"`
	Root      string      `yaml:"root"`
	PublicURL string      `env:"STORAGE_PUBLIC_URL" yaml:"public_url"`
	MinIO     MinIOConfig `yaml:"minio"`
}

// MinIOConfig holds S3-compatible object storage settings.
type MinIOConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"   yaml:"endpoint"`
	AccessKey string `env:"MINIO_ACCESS_KEY" yaml:"access_key"`
	SecretKey string `env:"MINIO_SECRET_KEY" yaml:"secret_key"`
	Bucket    string `env:"MINIO_BUCKET"     yaml:"bucket"`
	UseSSL    bool   `env:"MINIO_USE_SSL"    yaml:"use_ssl"`
}

// AssetsConfig toggles optional asset localization behaviour.
type AssetsConfig struct {
	LocalizeTextImages bool `yaml:"localize_text_images"`
}

// SyncConfig schedules a periodic full mirror. An empty schedule disables it.
type SyncConfig struct {
	Schedule string `env:"SYNC_SCHEDULE" yaml:"schedule"`
	// Timeout bounds one scheduled run. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig holds authentication settings for admin routes.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from a YAML file, applies env overrides and defaults, then validates.
func Load(path string) (*Config, error) {
	cfg, loadErr := LoadFile(path, setDefaults)
	if loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validatePort("service.port", c.Service.Port); err != nil {
		return err
	}

	if c.Database.Host == "" {
		return &ValidationError{Field: "database.host", Message: "is required"}
	}

	if c.Builder.APIKey == "" {
		return &ValidationError{Field: "builder.api_key", Message: "is required"}
	}

	if err := validateOneOf("storage.driver", c.Storage.Driver, StorageDriverFilesystem, StorageDriverMinIO); err != nil {
		return err
	}

	if c.Storage.Driver == StorageDriverMinIO && c.Storage.MinIO.Bucket == "" {
		return &ValidationError{Field: "storage.minio.bucket", Message: "is required for the minio driver"}
	}

	if err := validateOneOf("logging.level", c.Logging.Level, "debug", "info", "warn", "error", "fatal"); err != nil {
		return err
	}

	return validateOneOf("logging.format", c.Logging.Format, "json", "console")
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setRedisDefaults(&cfg.Redis)
	setBuilderDefaults(&cfg.Builder)
	setLocaleDefaults(&cfg.Locale)
	setStorageDefaults(&cfg.Storage)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = defaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = defaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = defaultIdleTimeout
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnectionMaxLifetime == 0 {
		d.ConnectionMaxLifetime = defaultDBConnLifetimeH * time.Hour
	}
}

func setRedisDefaults(r *RedisConfig) {
	if r.Address == "" {
		r.Address = defaultRedisAddress
	}
	if r.ModelCacheKey == "" {
		r.ModelCacheKey = defaultModelCacheKey
	}
	if r.WebhookStream == "" {
		r.WebhookStream = defaultWebhookStream
	}
	if r.WebhookGroup == "" {
		r.WebhookGroup = defaultWebhookGroup
	}
	if r.EventStream == "" {
		r.EventStream = defaultEventStream
	}
	if r.EventStreamLen == 0 {
		r.EventStreamLen = defaultEventStreamLen
	}
}

func setBuilderDefaults(b *BuilderConfig) {
	if b.CDNURL == "" {
		b.CDNURL = defaultCDNURL
	}
	if b.AdminURL == "" {
		b.AdminURL = defaultAdminURL
	}
	if b.RequestTimeout == 0 {
		b.RequestTimeout = defaultRequestTimeout
	}
	if b.FetchPageSize == 0 {
		b.FetchPageSize = defaultFetchPageSize
	}
}

func setLocaleDefaults(l *LocaleConfig) {
	if l.Default == "" {
		l.Default = defaultLocale
	}
	if l.Fallback == "" {
		l.Fallback = l.Default
	}
}

func setStorageDefaults(s *StorageConfig) {
	if s.Driver == "" {
		s.Driver = defaultStorageDriver
	}
	if s.Root == "" {
		s.Root = defaultStorageRoot
	}
	if s.Folder == "" {
		s.Folder = defaultStorageFolder
	}
	if s.PublicURL == "" {
		s.PublicURL = defaultPublicURL
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}
