package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Env             string `mapstructure:"ENV"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	Family          string `mapstructure:"FAMILY"`
	KeyElementRule  string `mapstructure:"KEY_ELEMENT_RULE"`
	ExtensionPolicy string `mapstructure:"EXTENSION_POLICY"`
	SourceDir       string `mapstructure:"SOURCE_DIR"`
	TargetDir       string `mapstructure:"TARGET_DIR"`
	IndexFile       string `mapstructure:"INDEX_FILE"`
	ProfilesDir     string `mapstructure:"PROFILES_DIR"`
	CreateMissing   string `mapstructure:"CREATE_MISSING"`
	DryRun          bool   `mapstructure:"DRY_RUN"`
}

// Load reads configuration from configFile (".env" when empty) and the
// environment. A missing file is not an error.
func Load(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = ".env"
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults. Empty rule, policy and paths fall back to the family's own.
	v.SetDefault("ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("FAMILY", "qicore")
	v.SetDefault("SOURCE_DIR", "output")
	v.SetDefault("PROFILES_DIR", "input/profiles")
	v.SetDefault("CREATE_MISSING", "prompt")
	v.SetDefault("DRY_RUN", false)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("FAMILY")
	v.BindEnv("KEY_ELEMENT_RULE")
	v.BindEnv("EXTENSION_POLICY")
	v.BindEnv("SOURCE_DIR")
	v.BindEnv("TARGET_DIR")
	v.BindEnv("INDEX_FILE")
	v.BindEnv("PROFILES_DIR")
	v.BindEnv("CREATE_MISSING")
	v.BindEnv("DRY_RUN")

	// Try reading the file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Family = strings.ToLower(strings.TrimSpace(cfg.Family))
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Level returns the zerolog level named by LOG_LEVEL.
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// Validate checks the enumerated settings. Family specific values are
// resolved later, so only their spelling is checked here.
func (c *Config) Validate() error {
	switch c.Family {
	case "qicore", "qi-core", "deqm":
	default:
		return fmt.Errorf("FAMILY must be \"qicore\" or \"deqm\", got %q", c.Family)
	}
	switch strings.ToLower(c.KeyElementRule) {
	case "", "none", "extension", "cardinality", "ms":
	default:
		return fmt.Errorf("KEY_ELEMENT_RULE must be \"none\", \"extension\" or \"cardinality\", got %q", c.KeyElementRule)
	}
	switch strings.ToLower(c.ExtensionPolicy) {
	case "", "drop", "retain":
	default:
		return fmt.Errorf("EXTENSION_POLICY must be \"drop\" or \"retain\", got %q", c.ExtensionPolicy)
	}
	switch strings.ToLower(c.CreateMissing) {
	case "prompt", "always", "never":
	default:
		return fmt.Errorf("CREATE_MISSING must be \"prompt\", \"always\" or \"never\", got %q", c.CreateMissing)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.SourceDir == "" {
		return fmt.Errorf("SOURCE_DIR is required")
	}
	return nil
}
