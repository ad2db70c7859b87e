package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

// Config holds all application configuration. It is built once at startup
// and passed by pointer; nothing mutates it afterwards.
type Config struct {
	AppName         string
	AppPort         string
	AppUrl          string
	DBUrl           string
	RedisUrl        string
	JWTSecret       []byte
	TokenExpiry     time.Duration
	RegistryTimeout time.Duration
	BcryptCost      int

	SeedAdmin     bool
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	// Static flags fetched once from LaunchDarkly
	LDFlag_ShortTokenTTL    bool
	LDFlag_CORSHighSecurity bool
}

// EnvConfig mirrors the process environment.
type EnvConfig struct {
	AppPort           string `env:"APP_PORT" env-required:"true"`
	AppUrl            string `env:"APP_URL" env-required:"true"`
	DBUrl             string `env:"DB_URL" env-required:"true"`
	RedisUrl          string `env:"REDIS_URL" env-required:"true"`
	JWTSecretBase64   string `env:"JWT_SECRET_BASE64" env-required:"true"`
	JWTExpirationMs   int64  `env:"JWT_EXPIRATION_MS" env-default:"3600000"`
	RegistryTimeoutMs int64  `env:"REGISTRY_TIMEOUT_MS" env-default:"2000"`
	BcryptCost        int    `env:"BCRYPT_COST" env-default:"12"`
	SeedAdmin         bool   `env:"SEED_ADMIN" env-default:"false"`
	AdminUsername     string `env:"ADMIN_USERNAME" env-default:"admin"`
	AdminEmail        string `env:"ADMIN_EMAIL" env-default:"admin@email.com"`
	AdminPassword     string `env:"ADMIN_PASSWORD"`
	LDSDKKey          string `env:"LD_SDK_KEY"`
}

const (
	// HS256 keys shorter than the hash output are rejected.
	MinJWTSecretBytes    = 32
	TestShortTokenExpiry = 10 * time.Second
	LDConnectionTimeout  = 5 * time.Second
)

// Build-time overrides (-ldflags "-X ...").
var (
	AppName             = "expense-tracker"
	LDServerContextKey  string
	LDServerContextKind = "service"
)

// FlagSource is the subset of the LaunchDarkly client used for static flags.
type FlagSource interface {
	BoolVariation(key string, context ldcontext.Context, defaultVal bool) (bool, error)
}

// LoadConfig reads the environment and LaunchDarkly flags, exiting the
// process on any error.
func LoadConfig() *Config {
	utils.Logger.Info("Loading config for app: ", AppName)

	cfg, err := Load()
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to load configuration")
	}
	utils.Logger.Debugf("App can be accessed at: %s", cfg.AppUrl)
	return cfg
}

func Load() (*Config, error) {
	var env EnvConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg, err := FromEnv(env)
	if err != nil {
		return nil, err
	}

	if env.LDSDKKey == "" {
		utils.Logger.Info("LD_SDK_KEY not set; feature flags use their defaults")
		return cfg, nil
	}
	if err := fetchFeatureFlags(cfg, env.LDSDKKey); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv validates raw environment values and converts them into a Config.
func FromEnv(env EnvConfig) (*Config, error) {
	required := []struct{ name, val string }{
		{"APP_PORT", env.AppPort},
		{"APP_URL", env.AppUrl},
		{"DB_URL", env.DBUrl},
		{"REDIS_URL", env.RedisUrl},
		{"JWT_SECRET_BASE64", env.JWTSecretBase64},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return nil, fmt.Errorf("%s env var is missing", r.name)
		}
	}

	secret, err := base64.StdEncoding.DecodeString(strings.TrimSpace(env.JWTSecretBase64))
	if err != nil {
		return nil, fmt.Errorf("JWT_SECRET_BASE64 is not valid base64: %w", err)
	}
	if len(secret) < MinJWTSecretBytes {
		return nil, fmt.Errorf("JWT_SECRET_BASE64 decodes to %d bytes, need at least %d", len(secret), MinJWTSecretBytes)
	}

	if env.JWTExpirationMs <= 0 {
		return nil, errors.New("JWT_EXPIRATION_MS must be positive")
	}
	if env.RegistryTimeoutMs <= 0 {
		return nil, errors.New("REGISTRY_TIMEOUT_MS must be positive")
	}
	if env.SeedAdmin && env.AdminPassword == "" {
		return nil, errors.New("SEED_ADMIN is set but ADMIN_PASSWORD is empty")
	}

	return &Config{
		AppName:         AppName,
		AppPort:         env.AppPort,
		AppUrl:          env.AppUrl,
		DBUrl:           env.DBUrl,
		RedisUrl:        env.RedisUrl,
		JWTSecret:       secret,
		TokenExpiry:     time.Duration(env.JWTExpirationMs) * time.Millisecond,
		RegistryTimeout: time.Duration(env.RegistryTimeoutMs) * time.Millisecond,
		BcryptCost:      env.BcryptCost,
		SeedAdmin:       env.SeedAdmin,
		AdminUsername:   env.AdminUsername,
		AdminEmail:      env.AdminEmail,
		AdminPassword:   env.AdminPassword,
	}, nil
}

// ApplyFeatureFlags evaluates the static flags for this service and folds
// them into cfg.
func ApplyFeatureFlags(cfg *Config, flags FlagSource, ldCtx ldcontext.Context) error {
	shortTokenTTL, err := flags.BoolVariation("short_token_ttl", ldCtx, false)
	if err != nil {
		return fmt.Errorf("retrieve short_token_ttl flag: %w", err)
	}
	utils.Logger.Debugf("short_token_ttl flag: %t", shortTokenTTL)

	corsHighSecurity, err := flags.BoolVariation("cors_high_security", ldCtx, false)
	if err != nil {
		return fmt.Errorf("retrieve cors_high_security flag: %w", err)
	}
	utils.Logger.Debugf("cors_high_security flag: %t", corsHighSecurity)

	cfg.LDFlag_ShortTokenTTL = shortTokenTTL
	cfg.LDFlag_CORSHighSecurity = corsHighSecurity
	if shortTokenTTL {
		cfg.TokenExpiry = TestShortTokenExpiry
	}
	return nil
}

func fetchFeatureFlags(cfg *Config, sdkKey string) error {
	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		return fmt.Errorf("create LaunchDarkly client: %w", err)
	}
	defer ldClient.Close()

	if !ldClient.Initialized() {
		return errors.New("LaunchDarkly client failed to initialize")
	}
	return ApplyFeatureFlags(cfg, ldClient, serverContext())
}

func serverContext() ldcontext.Context {
	key := LDServerContextKey
	if key == "" {
		key = AppName
	}
	return ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), key)
}
