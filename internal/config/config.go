// Package config loads and validates gleaner's configuration from an
// optional YAML file and GLEANER_ environment variables. CLI flags are
// layered on top by the command package.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	Language     string        `mapstructure:"language"`
	Country      string        `mapstructure:"country"`
	Site         string        `mapstructure:"site"` // web or youtube
	MaxDepth     int           `mapstructure:"max_depth"`
	MinRelevance int           `mapstructure:"min_relevance"`
	MaxPerSeed   int           `mapstructure:"max_per_seed"`
	Delay        time.Duration `mapstructure:"delay"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Alphabet     bool          `mapstructure:"alphabet"`
	Numbers      bool          `mapstructure:"numbers"`
	Questions    bool          `mapstructure:"questions"`
	Prepositions bool          `mapstructure:"prepositions"`
	Recursive    bool          `mapstructure:"recursive"`
	OutputDir    string        `mapstructure:"output_dir"`
	Format       string        `mapstructure:"format"` // json, csv, txt
	Store        string        `mapstructure:"store"`  // sqlite: or postgres: DSN
	MetricsPort  int           `mapstructure:"metrics_port"`
	LogLevel     string        `mapstructure:"log_level"`

	Serp SerpConfig `mapstructure:"serp"`
}

// SerpConfig configures the SERP scraper command.
type SerpConfig struct {
	Domain         string `mapstructure:"domain"`
	ResultsPerPage int    `mapstructure:"results_per_page"`
	Pages          int    `mapstructure:"pages"`
	Fingerprint    string `mapstructure:"fingerprint"`
}

// Load reads configuration with defaults < file < environment
// precedence. configPath may be empty, in which case only defaults and
// environment apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GLEANER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("language", "en")
	v.SetDefault("country", "us")
	v.SetDefault("site", "web")
	v.SetDefault("max_depth", 2)
	v.SetDefault("min_relevance", 0)
	v.SetDefault("max_per_seed", 100)
	v.SetDefault("delay", "500ms")
	v.SetDefault("timeout", "10s")
	v.SetDefault("alphabet", true)
	v.SetDefault("numbers", false)
	v.SetDefault("questions", true)
	v.SetDefault("prepositions", true)
	v.SetDefault("recursive", true)
	v.SetDefault("output_dir", "data/results")
	v.SetDefault("format", "json")
	v.SetDefault("log_level", "info")
	v.SetDefault("serp.domain", "google.com")
	v.SetDefault("serp.results_per_page", 10)
	v.SetDefault("serp.pages", 1)
	v.SetDefault("serp.fingerprint", "chrome")
}

// Validate checks value ranges before anything touches the network.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "csv", "txt":
	default:
		return fmt.Errorf("format must be one of json, csv, txt; got %q", c.Format)
	}
	switch c.Site {
	case "web", "youtube":
	default:
		return fmt.Errorf("site must be web or youtube; got %q", c.Site)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0; got %d", c.MaxDepth)
	}
	if c.MaxPerSeed < 1 {
		return fmt.Errorf("max_per_seed must be >= 1; got %d", c.MaxPerSeed)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must be >= 0; got %s", c.Delay)
	}
	if c.Store != "" && !strings.HasPrefix(c.Store, "sqlite:") && !strings.HasPrefix(c.Store, "postgres:") && !strings.HasPrefix(c.Store, "postgresql:") {
		return fmt.Errorf("store must be a sqlite: or postgres: DSN; got %q", c.Store)
	}
	if c.Serp.Pages < 1 {
		return fmt.Errorf("serp.pages must be >= 1; got %d", c.Serp.Pages)
	}
	return nil
}

// DomainScope maps the site setting to the autocomplete ds parameter.
func (c *Config) DomainScope() string {
	if c.Site == "youtube" {
		return "yt"
	}
	return ""
}
