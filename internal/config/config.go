// Package config loads orphanage-bot settings from an optional YAML file and the environment
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// EnvPrefix is stripped from environment variables before they are mapped onto keys.
// ORPHANAGE_API_BASEURL overrides api.baseURL.
const EnvPrefix = "ORPHANAGE_"

const (
	PolicyOptimistic = "optimistic"
	PolicyStrict     = "strict"
)

type Config struct {
	Telegram struct {
		Token string `koanf:"token"`
	} `koanf:"telegram"`

	API struct {
		BaseURL string `koanf:"baseURL" validate:"required,url"`
		// Zero means no client-side deadline
		Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
	} `koanf:"api"`

	Submit struct {
		Policy string `koanf:"policy" validate:"oneof=optimistic strict"`
	} `koanf:"submit"`

	DB struct {
		Path string `koanf:"path"`
	} `koanf:"db"`

	Log Log `koanf:"log"`

	OpenAI struct {
		APIKey string `koanf:"apiKey"`
	} `koanf:"openai"`

	RateLimit struct {
		RPS   float64 `koanf:"rps" validate:"gte=0"`
		Burst int     `koanf:"burst" validate:"gte=0"`
	} `koanf:"rateLimit"`

	Status struct {
		Addr string `koanf:"addr"`
	} `koanf:"status"`

	Journal struct {
		Retention     time.Duration `koanf:"retention" validate:"gte=0"`
		PruneSchedule string        `koanf:"pruneSchedule"`
	} `koanf:"journal"`
}

type Log struct {
	Pretty bool   `koanf:"pretty"`
	Level  string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Defaults returns the configuration used when neither file nor environment set a key
func Defaults() *Config {
	cfg := &Config{}
	cfg.API.BaseURL = "http://localhost:3333"
	cfg.Submit.Policy = PolicyOptimistic
	cfg.Log.Level = "info"
	cfg.RateLimit.RPS = 1
	cfg.RateLimit.Burst = 5
	cfg.Journal.Retention = 30 * 24 * time.Hour
	cfg.Journal.PruneSchedule = "0 3 * * *"
	return cfg
}

// Load reads config.yaml from the first search path that has one, then applies
// environment overrides. A missing file is not an error.
func Load(searchPaths ...string) (*Config, error) {
	cfg := Defaults()
	k := koanf.New(".")

	if len(searchPaths) == 0 {
		searchPaths = []string{".", "config"}
	}
	for _, dir := range searchPaths {
		candidate := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := k.Load(file.Provider(candidate), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", candidate)
		}
		break
	}

	fromFile := k.Raw()
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return canonicalKey(strings.TrimPrefix(key, EnvPrefix), fromFile), value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment variables")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}

	// Variable names the first bot release used
	if cfg.Telegram.Token == "" {
		cfg.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// canonicalKey turns API_BASEURL into api.baseURL when the file already spells the key
// that way, so the override replaces the file value instead of sitting next to it.
func canonicalKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	out := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}
		matched := segment
		var next map[string]any
		for key, value := range current {
			if strings.EqualFold(key, segment) {
				matched = key
				next, _ = value.(map[string]any)
				break
			}
		}
		out = append(out, matched)
		current = next
	}

	return strings.Join(out, ".")
}
