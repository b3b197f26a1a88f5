package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers supported for durable session persistence.
const (
	StorageBolt   = "bolt"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config holds runtime configuration values for the client and the collaborator stub.
type Config struct {
	AppName       string
	AppEnv        string
	LogLevel      string
	APIBaseURL    string
	UploadBaseURL string
	HTTPTimeout   time.Duration
	DiscardStale  bool
	Storage       StorageConfig
	Collaborator  CollaboratorConfig
}

// StorageConfig selects where the session token and user are persisted.
type StorageConfig struct {
	Driver    string
	Path      string
	RedisURL  string
	Namespace string
}

// CollaboratorConfig configures the development stub of the REST backend.
type CollaboratorConfig struct {
	Port                   string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	NATSSubject            string
	JWTSecret              string
	TokenTTL               time.Duration
	UploadDir              string
	MaxUploadMB            int
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	DashboardCacheTTL      time.Duration
	SeedDemoData           bool
	AllowOrigins           []string
}

// HTTPAddress returns the address the collaborator stub should listen on.
func (c CollaboratorConfig) HTTPAddress() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}

	return fmt.Sprintf(":%s", c.Port)
}

// Validate checks the settings the collaborator stub cannot run without.
func (c CollaboratorConfig) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret must be provided")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database url must be provided")
	}
	return nil
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Projects")
	v.SetDefault("app.env", "development")
	v.SetDefault("log.level", "warn")
	v.SetDefault("api.base_url", "http://localhost:5000/api")
	v.SetDefault("upload.base_url", "http://localhost:5000")
	v.SetDefault("http.timeout", "0s")
	v.SetDefault("fetch.discard_stale", true)
	v.SetDefault("storage.driver", StorageBolt)
	v.SetDefault("storage.path", defaultStoragePath())
	v.SetDefault("storage.namespace", "gema:session")
	v.SetDefault("collaborator.port", "5000")
	v.SetDefault("collaborator.database_url", "file:gema-collaborator.db?cache=shared")
	v.SetDefault("collaborator.nats_subject", "gema.projects.evaluated")
	v.SetDefault("collaborator.token_ttl", "24h")
	v.SetDefault("collaborator.upload_dir", "uploads")
	v.SetDefault("collaborator.max_upload_mb", 20)
	v.SetDefault("collaborator.seed", true)
	v.SetDefault("cloudinary.folder", "gema/projects")
	v.SetDefault("dashboard.cache_ttl", "1m")

	timeout, err := parseDuration(v.GetString("http.timeout"), 0)
	if err != nil {
		return Config{}, fmt.Errorf("invalid http timeout: %w", err)
	}

	tokenTTL, err := parseDuration(v.GetString("collaborator.token_ttl"), 24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}

	cacheTTL, err := parseDuration(v.GetString("dashboard.cache_ttl"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	cfg := Config{
		AppName:       v.GetString("app.name"),
		AppEnv:        v.GetString("app.env"),
		LogLevel:      strings.ToLower(v.GetString("log.level")),
		APIBaseURL:    strings.TrimRight(v.GetString("api.base_url"), "/"),
		UploadBaseURL: strings.TrimRight(v.GetString("upload.base_url"), "/"),
		HTTPTimeout:   timeout,
		DiscardStale:  v.GetBool("fetch.discard_stale"),
		Storage: StorageConfig{
			Driver:    strings.ToLower(v.GetString("storage.driver")),
			Path:      v.GetString("storage.path"),
			RedisURL:  v.GetString("storage.redis_url"),
			Namespace: v.GetString("storage.namespace"),
		},
		Collaborator: CollaboratorConfig{
			Port:                   v.GetString("collaborator.port"),
			DatabaseURL:            v.GetString("collaborator.database_url"),
			RedisURL:               v.GetString("collaborator.redis_url"),
			NATSURL:                v.GetString("collaborator.nats_url"),
			NATSSubject:            v.GetString("collaborator.nats_subject"),
			JWTSecret:              v.GetString("collaborator.jwt_secret"),
			TokenTTL:               tokenTTL,
			UploadDir:              v.GetString("collaborator.upload_dir"),
			MaxUploadMB:            v.GetInt("collaborator.max_upload_mb"),
			CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
			CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
			CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
			CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
			DashboardCacheTTL:      cacheTTL,
			SeedDemoData:           v.GetBool("collaborator.seed"),
			AllowOrigins:           splitList(v.GetString("collaborator.allow_origins")),
		},
	}

	switch cfg.Storage.Driver {
	case StorageBolt, StorageRedis, StorageMemory:
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Storage.Driver == StorageRedis && cfg.Storage.RedisURL == "" {
		return Config{}, fmt.Errorf("redis storage requires GEMA_STORAGE_REDIS_URL")
	}

	if cfg.Collaborator.MaxUploadMB <= 0 {
		cfg.Collaborator.MaxUploadMB = 20
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".", ".gema-projects", "session.db")
	}
	return filepath.Join(dir, "gema-projects", "session.db")
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
