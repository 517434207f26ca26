package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MINICHAT_BACKEND
const EnvPrefix = "MINICHAT"

// credentialEnv maps credential keys to the variables provider SDKs already use
var credentialEnv = map[string]string{
	"openai_api_key":    "OPENAI_API_KEY",
	"anthropic_api_key": "ANTHROPIC_API_KEY",
	"grok_api_key":      "GROK_API_KEY",
}

// Load resolves configuration from v. Flags bound on v win over the
// environment, which wins over Default.
func Load(v *viper.Viper) (Config, error) {
	d := Default()
	v.SetDefault("backend", d.Backend)
	v.SetDefault("model", d.Model)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("max_tokens", d.MaxTokens)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("telemetry", d.Telemetry)
	v.SetDefault("cache", d.Cache)
	v.SetDefault("no_color", d.NoColor)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	for key, env := range credentialEnv {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg.Normalize(), nil
}
