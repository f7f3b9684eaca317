package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads the YAML config file and applies WOPI_*-prefixed
// environment overrides for values that are commonly supplied as secrets.
func LoadConfig(path string) (*AppConfig, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("WOPI_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("WOPI_TOKEN_SECRET"); v != "" {
		cfg.Token.SecretKey = v
	}
	if v := os.Getenv("WOPI_ADMIN_TOKEN"); v != "" {
		cfg.Admin.Token = v
	}
	if v := os.Getenv("WOPI_CLIENT_URL"); v != "" {
		cfg.Pool.BaseURL = v
	}
	if v := os.Getenv("WOPI_PROXY_BASE_URL"); v != "" {
		cfg.Proxy.BaseURL = v
	}
	if v := os.Getenv("WOPI_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
}
