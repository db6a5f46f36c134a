package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults for the image hosting paths. Overridable via config.yaml or
// environment.
const (
	DefaultRemoteHost     = "hetzner-chch"
	DefaultRemoteImageDir = "/var/www/propertypartner/listings"
	DefaultImageHostURL   = "https://propertypartner.co.nz/listings"
)

// Config holds everything the pipeline needs at process start. Core
// components take it (or values from it) through their constructors and
// never read the environment themselves.
type Config struct {
	AnthropicAPIKey string `yaml:"-"`
	FBPageID        string `yaml:"-"`
	IGUserID        string `yaml:"-"`
	MetaPageToken   string `yaml:"-"`

	ImageLocalDir  string `yaml:"image_local_dir"`
	ImageHostURL   string `yaml:"image_host_url"`
	RemoteHost     string `yaml:"remote_host"`
	RemoteImageDir string `yaml:"remote_image_dir"`
	RenderCacheDir string `yaml:"render_cache_dir"`
}

// LoadConfig builds a Config from an optional YAML file plus the
// environment. A .env file is loaded first if present; explicit env
// vars win over the YAML file, which wins over defaults.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load() // absent .env is fine, system env still applies

	cfg := &Config{
		ImageLocalDir:  filepath.Join("output", "images"),
		ImageHostURL:   DefaultImageHostURL,
		RemoteHost:     DefaultRemoteHost,
		RemoteImageDir: DefaultRemoteImageDir,
		RenderCacheDir: filepath.Join("output", "cache"),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.FBPageID = os.Getenv("FB_PAGE_ID")
	cfg.IGUserID = os.Getenv("IG_USER_ID")
	cfg.MetaPageToken = os.Getenv("META_PAGE_TOKEN")

	if v := os.Getenv("IMAGE_LOCAL_DIR"); v != "" {
		cfg.ImageLocalDir = v
	}
	if v := os.Getenv("IMAGE_HOST_URL"); v != "" {
		cfg.ImageHostURL = v
	}
	if v := os.Getenv("REMOTE_HOST"); v != "" {
		cfg.RemoteHost = v
	}
	if v := os.Getenv("REMOTE_IMAGE_DIR"); v != "" {
		cfg.RemoteImageDir = v
	}
	if v := os.Getenv("RENDER_CACHE_DIR"); v != "" {
		cfg.RenderCacheDir = v
	}

	return cfg, nil
}

// RequireCredentials fails fast when any credential needed for copy
// generation or publishing is missing.
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.AnthropicAPIKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if c.FBPageID == "" {
		missing = append(missing, "FB_PAGE_ID")
	}
	if c.IGUserID == "" {
		missing = append(missing, "IG_USER_ID")
	}
	if c.MetaPageToken == "" {
		missing = append(missing, "META_PAGE_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
