// Package config loads runtime settings from the environment (and an
// optional .env file) into a typed Config.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL        string
	Port               string
	LogLevel           string
	CORSAllowedOrigins []string
	Media              MediaConfig
	EventStatusWorker  EventStatusWorkerConfig
	APIURL             string
}

type MediaConfig struct {
	CloudName        string
	APIKey           string
	APISecret        string
	Folder           string
	BaseURL          string
	UploadsPerSecond float64
}

// Configured reports whether all three media host credentials are present.
func (m MediaConfig) Configured() bool {
	return m.CloudName != "" && m.APIKey != "" && m.APISecret != ""
}

type EventStatusWorkerConfig struct {
	Enabled    bool
	Interval   time.Duration
	GraceHours int
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "18911")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("CLOUDINARY_FOLDER", "depenados/media")
	v.SetDefault("CLOUDINARY_BASE_URL", "https://api.cloudinary.com/v1_1")
	v.SetDefault("MEDIA_UPLOADS_PER_SECOND", 5)
	v.SetDefault("EVENT_STATUS_WORKER_ENABLED", false)
	v.SetDefault("EVENT_STATUS_WORKER_INTERVAL_SECONDS", 3600)
	v.SetDefault("EVENT_STATUS_GRACE_HOURS", 24)
	v.SetDefault("DEPENADOS_API_URL", "http://localhost:18911")
}

var knownKeys = []string{
	"DATABASE_URL",
	"PORT",
	"LOG_LEVEL",
	"CORS_ALLOWED_ORIGINS",
	"CLOUDINARY_CLOUD_NAME",
	"CLOUDINARY_API_KEY",
	"CLOUDINARY_API_SECRET",
	"CLOUDINARY_FOLDER",
	"CLOUDINARY_BASE_URL",
	"MEDIA_UPLOADS_PER_SECOND",
	"EVENT_STATUS_WORKER_ENABLED",
	"EVENT_STATUS_WORKER_INTERVAL_SECONDS",
	"EVENT_STATUS_GRACE_HOURS",
	"DEPENADOS_API_URL",
}

// FromEnv builds a Config from an injected getenv, falling back to defaults
// for unset keys. Binaries pass os.Getenv; tests pass a stub.
func FromEnv(getenv func(string) string) Config {
	v := viper.New()
	setDefaults(v)
	if getenv != nil {
		for _, k := range knownKeys {
			if val := getenv(k); val != "" {
				v.Set(k, val)
			}
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	interval := v.GetInt("EVENT_STATUS_WORKER_INTERVAL_SECONDS")
	if interval <= 0 {
		interval = 3600
	}
	rate := v.GetFloat64("MEDIA_UPLOADS_PER_SECOND")
	if rate <= 0 {
		rate = 5
	}
	return Config{
		DatabaseURL:        strings.TrimSpace(v.GetString("DATABASE_URL")),
		Port:               strings.TrimSpace(v.GetString("PORT")),
		LogLevel:           v.GetString("LOG_LEVEL"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		Media: MediaConfig{
			CloudName:        strings.TrimSpace(v.GetString("CLOUDINARY_CLOUD_NAME")),
			APIKey:           strings.TrimSpace(v.GetString("CLOUDINARY_API_KEY")),
			APISecret:        strings.TrimSpace(v.GetString("CLOUDINARY_API_SECRET")),
			Folder:           v.GetString("CLOUDINARY_FOLDER"),
			BaseURL:          strings.TrimRight(v.GetString("CLOUDINARY_BASE_URL"), "/"),
			UploadsPerSecond: rate,
		},
		EventStatusWorker: EventStatusWorkerConfig{
			Enabled:    v.GetBool("EVENT_STATUS_WORKER_ENABLED"),
			Interval:   time.Duration(interval) * time.Second,
			GraceHours: v.GetInt("EVENT_STATUS_GRACE_HOURS"),
		},
		APIURL: strings.TrimRight(v.GetString("DEPENADOS_API_URL"), "/"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
