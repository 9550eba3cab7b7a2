package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv   string `yaml:"app_env"`
	HTTPAddr string `yaml:"http_addr"`

	Mongo Mongo `yaml:"mongo"`
	JWT   JWT   `yaml:"jwt"`

	UploadDir   string   `yaml:"upload_dir"`
	MaxUploadMB int      `yaml:"max_upload_mb"`
	WebDir      string   `yaml:"web_dir"`
	CORSOrigins []string `yaml:"cors_origins"`

	// AdminEmail, when set, is promoted to admin at startup.
	AdminEmail string `yaml:"admin_email"`
}

type Mongo struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

type JWT struct {
	Secret   string `yaml:"secret"`
	TTLHours int    `yaml:"ttl_hours"`
}

func Default() Config {
	return Config{
		AppEnv:   "dev",
		HTTPAddr: ":8080",
		Mongo: Mongo{
			URL:      "mongodb://localhost:27017",
			Database: "storefront",
		},
		JWT: JWT{
			Secret:   "dev-secret",
			TTLHours: 24,
		},
		UploadDir:   "uploads",
		MaxUploadMB: 5,
		WebDir:      "web",
		CORSOrigins: []string{"http://localhost:8080"},
	}
}

// Load applies defaults, then the YAML file at path (if it exists), then
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(file, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, err
		}
	}

	cfg.AppEnv = get("APP_ENV", cfg.AppEnv)
	cfg.HTTPAddr = get("HTTP_ADDR", cfg.HTTPAddr)
	cfg.Mongo.URL = get("MONGO_URL", cfg.Mongo.URL)
	cfg.Mongo.Database = get("MONGO_DB", cfg.Mongo.Database)
	cfg.JWT.Secret = get("JWT_SECRET", cfg.JWT.Secret)
	cfg.JWT.TTLHours = getInt("JWT_TTL_HOURS", cfg.JWT.TTLHours)
	cfg.UploadDir = get("UPLOAD_DIR", cfg.UploadDir)
	cfg.MaxUploadMB = getInt("MAX_UPLOAD_MB", cfg.MaxUploadMB)
	cfg.WebDir = get("WEB_DIR", cfg.WebDir)
	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(get("ADMIN_EMAIL", cfg.AdminEmail)))
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Mongo.URL == "" {
		return errors.New("mongo url is required")
	}
	if c.Mongo.Database == "" {
		return errors.New("mongo database is required")
	}
	if c.JWT.TTLHours <= 0 {
		return errors.New("jwt ttl must be positive")
	}
	if c.IsRelease() && (c.JWT.Secret == "" || c.JWT.Secret == Default().JWT.Secret) {
		return errors.New("JWT_SECRET must be set in release mode")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("max upload size must be positive")
	}
	return nil
}

func (c Config) IsRelease() bool {
	return c.AppEnv == "release" || c.AppEnv == "prod" || c.AppEnv == "production"
}

func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
