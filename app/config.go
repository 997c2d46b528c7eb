package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"listing-studio/service"
)

const (
	TemplateStoreRemote   = "remote"
	TemplateStoreDatabase = "database"

	defaultSessionTTL = 2 * time.Hour
)

// Config holds the settings read from the environment
type Config struct {
	Port            string
	BackendURL      string
	BackendAPIKey   string
	CallTimeout     time.Duration
	CatalogPageSize int
	PublicBaseURL   string
	TemplateStore   string
	SessionTTL      time.Duration

	GoogleCredentials    string
	PreviewDriveFolderID string
	PreviewS3            service.S3Config

	ChromePath    string
	ImageCacheDir string
}

// LoadConfig reads the configuration from environment variables (after .env has been loaded)
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                 strings.TrimPrefix(envOr("PORT", "8080"), ":"),
		BackendURL:           strings.TrimSpace(os.Getenv("BACKEND_URL")),
		BackendAPIKey:        os.Getenv("BACKEND_API_KEY"),
		TemplateStore:        strings.ToLower(envOr("TEMPLATE_STORE", TemplateStoreRemote)),
		GoogleCredentials:    os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		PreviewDriveFolderID: os.Getenv("PREVIEW_DRIVE_FOLDER_ID"),
		PreviewS3: service.S3Config{
			Bucket:          os.Getenv("PREVIEW_S3_BUCKET"),
			Region:          os.Getenv("PREVIEW_S3_REGION"),
			Prefix:          os.Getenv("PREVIEW_S3_PREFIX"),
			Endpoint:        os.Getenv("PREVIEW_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("PREVIEW_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("PREVIEW_S3_SECRET_ACCESS_KEY"),
		},
		ChromePath:    os.Getenv("CHROME_PATH"),
		ImageCacheDir: envOr("IMAGE_CACHE_DIR", service.DefaultImageCacheDir),
	}

	if cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("BACKEND_URL environment variable is not set")
	}
	if cfg.TemplateStore != TemplateStoreRemote && cfg.TemplateStore != TemplateStoreDatabase {
		return Config{}, fmt.Errorf("TEMPLATE_STORE must be %q or %q, got %q", TemplateStoreRemote, TemplateStoreDatabase, cfg.TemplateStore)
	}

	var err error
	if cfg.CallTimeout, err = durationEnv("CALL_TIMEOUT", service.DefaultCallTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", defaultSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.CatalogPageSize, err = intEnv("CATALOG_PAGE_SIZE", service.DefaultPageSize); err != nil {
		return Config{}, err
	}

	cfg.PublicBaseURL = strings.TrimRight(envOr("PUBLIC_BASE_URL", "http://localhost:"+cfg.Port), "/")
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// durationEnv accepts Go durations ("45s") and plain seconds ("45")
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("%s must be positive, got %q", key, raw)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}
