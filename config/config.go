package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const EnvPrefix = "HYDROGEN"

// envBindings maps config keys to the variable names the installer writes.
var envBindings = map[string]string{
	"shopify.api_key":      "SHOPIFY_API_KEY",
	"shopify.access_token": "SHOPIFY_ACCESS_TOKEN",
	"shopify.scopes":       "SHOPIFY_APP_SCOPES",
	"shopify.domain":       "SHOPIFY_DOMAIN",
	"server.public_url":    "PUBLIC_URL",
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterValidation("identifier", ValidateIdentifier)
	validate.RegisterValidation("shopdomain", ValidateShopDomain)
	validate.RegisterValidation("cronspec", ValidateCronSpec)

	if err := validate.Struct(c); err != nil {
		return err
	}

	return nil
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("shopify.scopes", []string{"write_files", "read_files"})
	v.SetDefault("shopify.api_version", "2025-01")
	v.SetDefault("shopify.timeout", 30*time.Second)
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.limits.max_file_size", 20<<20)
	v.SetDefault("server.limits.max_multipart_mem", 32<<20)
	v.SetDefault("store.strategy", "memory")
	v.SetDefault("sync.schedule", "* * * * *")
	v.SetDefault("sync.overlap", "skip")
	v.SetDefault("sync.timeout", 5*time.Minute)
	v.SetDefault("notify.websocket", false)
	v.SetDefault("notify.queue_size", 16)
}

func LoadConfig(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Shopify.Scopes = splitScopes(cfg.Shopify.Scopes)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// splitScopes flattens comma separated entries, which is how scopes arrive from the env file.
func splitScopes(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
