package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/mkdrx/rest-api-deploy/internal/jsonlog"
	"github.com/mkdrx/rest-api-deploy/internal/validator"
)

// configPathEnvVar names an optional YAML file layered between the defaults and the
// environment.
const configPathEnvVar = "CONFIG_PATH"

// Define a config struct to hold all the configuration settings for our application.
type config struct {
	Port    int           `koanf:"port"`
	Env     string        `koanf:"env"`
	Limiter limiterConfig `koanf:"limiter"`
	CORS    corsConfig    `koanf:"cors"`
	Log     logConfig     `koanf:"log"`
}

// The limiter settings hold the requests-per-second and burst values for each client,
// and a switch to disable rate limiting altogether. TrustProxy keys clients on the
// X-Forwarded-For and X-Real-Ip headers instead of the connection address, and is only
// safe behind a proxy that sets them.
type limiterConfig struct {
	RPS        float64 `koanf:"rps"`
	Burst      int     `koanf:"burst"`
	Enabled    bool    `koanf:"enabled"`
	TrustProxy bool    `koanf:"trust_proxy"`
}

// An empty TrustedOrigins list lets requests from any origin through.
type corsConfig struct {
	TrustedOrigins []string `koanf:"trusted_origins"`
}

type logConfig struct {
	Level string `koanf:"level"`
}

func defaultConfig() config {
	return config{
		Port: 1234,
		Env:  "development",
		Limiter: limiterConfig{
			RPS:     10,
			Burst:   20,
			Enabled: true,
		},
		CORS: corsConfig{TrustedOrigins: []string{}},
		Log:  logConfig{Level: "info"},
	}
}

// envKeys maps the environment variables we read onto koanf paths. Anything else in the
// environment is ignored.
var envKeys = map[string]string{
	"PORT":                 "port",
	"ENV":                  "env",
	"LIMITER_RPS":          "limiter.rps",
	"LIMITER_BURST":        "limiter.burst",
	"LIMITER_ENABLED":      "limiter.enabled",
	"LIMITER_TRUST_PROXY":  "limiter.trust_proxy",
	"CORS_TRUSTED_ORIGINS": "cors.trusted_origins",
	"LOG_LEVEL":            "log.level",
}

// loadConfig layers defaults, an optional YAML file, environment variables and finally
// command-line flags, then validates the result.
func loadConfig(args []string) (config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(configPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(key string) string {
		return envKeys[key]
	}), nil); err != nil {
		return config{}, fmt.Errorf("load environment: %w", err)
	}

	// Environment values arrive as plain strings, so split the origin list by hand.
	if s, ok := k.Get("cors.trusted_origins").(string); ok {
		if err := k.Set("cors.trusted_origins", splitList(s)); err != nil {
			return config{}, err
		}
	}

	var cfg config
	if err := k.Unmarshal("", &cfg); err != nil {
		return config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Flags take precedence over every other source. Each flag defaults to the value
	// resolved so far.
	fs := flag.NewFlagSet("api", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "port", cfg.Port, "API server port")
	fs.StringVar(&cfg.Env, "env", cfg.Env, "Environment (development|staging|production)")

	fs.Float64Var(&cfg.Limiter.RPS, "limiter-rps", cfg.Limiter.RPS, "Rate limiter maximum requests per second")
	fs.IntVar(&cfg.Limiter.Burst, "limiter-burst", cfg.Limiter.Burst, "Rate limiter maximum burst")
	fs.BoolVar(&cfg.Limiter.Enabled, "limiter-enabled", cfg.Limiter.Enabled, "Enable rate limiter")
	fs.BoolVar(&cfg.Limiter.TrustProxy, "limiter-trust-proxy", cfg.Limiter.TrustProxy, "Key the rate limiter on proxy headers")

	fs.Func("cors-trusted-origins", "Trusted CORS origins (comma or space separated)", func(val string) error {
		cfg.CORS.TrustedOrigins = splitList(val)
		return nil
	})

	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Minimum log level (info|error|fatal|off)")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if err := cfg.validate(); err != nil {
		return config{}, err
	}

	return cfg, nil
}

func (cfg config) validate() error {
	v := validator.New()

	v.Check(cfg.Port >= 1 && cfg.Port <= 65535, "port", "must be between 1 and 65535")
	v.Check(validator.PermittedValue(cfg.Env, "development", "staging", "production"), "env", "must be development, staging or production")
	v.Check(cfg.Limiter.RPS > 0, "limiter.rps", "must be greater than zero")
	v.Check(cfg.Limiter.Burst > 0, "limiter.burst", "must be greater than zero")

	_, err := jsonlog.ParseLevel(cfg.Log.Level)
	v.Check(err == nil, "log.level", "must be info, error, fatal or off")

	if !v.Valid() {
		return fmt.Errorf("invalid configuration: %v", v.Errors)
	}
	return nil
}

// splitList splits on commas and whitespace, dropping empty entries.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
