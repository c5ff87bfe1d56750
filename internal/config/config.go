// Package config loads the site configuration from YAML with environment
// variable expansion and .env support.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Output  OutputConfig  `yaml:"output"`
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
	Events  EventsConfig  `yaml:"events"`
}

// SiteConfig describes the rendered site.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

// ContentConfig locates the markdown sources. When GitURL is set the content
// directory is cloned (or pulled) from that repository before scanning.
type ContentConfig struct {
	Directory string `yaml:"directory"`
	GitURL    string `yaml:"git_url,omitempty"`
	GitBranch string `yaml:"git_branch,omitempty"`

	// RescanInterval is a time.ParseDuration string ("10m"). Empty disables
	// scheduled rescans.
	RescanInterval string `yaml:"rescan_interval,omitempty"`
}

// RescanEvery returns the parsed rescan interval, zero when disabled.
func (c *ContentConfig) RescanEvery() time.Duration {
	if c.RescanInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(c.RescanInterval)
	if err != nil {
		return 0
	}
	return d
}

// OutputConfig controls the static build.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
}

// ServerConfig controls the preview server.
type ServerConfig struct {
	Port int `yaml:"port"`

	// MetricsPort serves /metrics on its own listener when it differs from
	// Port. Defaults to Port, which keeps metrics on the main listener.
	MetricsPort int  `yaml:"metrics_port,omitempty"`
	Metrics     bool `yaml:"metrics"`
}

// CacheConfig controls the render cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// EventsConfig controls NATS event publishing. Disabled when URL is empty.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load reads the config file, expanding ${VAR} references from the process
// environment after .env/.env.local have been applied.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFiles applies .env then .env.local. Existing process environment
// variables are never overwritten.
func loadEnvFiles() {
	for _, p := range []string{".env", ".env.local"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			fmt.Fprintf(os.Stderr, "Note: %s could not be loaded: %v\n", p, err)
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "Documentation Site"
	}
	if c.Content.Directory == "" {
		c.Content.Directory = "./content"
	}
	if c.Content.GitURL != "" && c.Content.GitBranch == "" {
		c.Content.GitBranch = "main"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./site"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MetricsPort == 0 {
		c.Server.MetricsPort = c.Server.Port
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		c.Cache.Path = ".mdsite-cache.db"
	}
	if c.Events.NATSURL != "" && c.Events.Subject == "" {
		c.Events.Subject = "mdsite.events"
	}
}

// Validate rejects configurations that cannot work. Misconfiguration is a
// wiring error and fails loudly at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("config: invalid metrics port %d", c.Server.MetricsPort)
	}
	if c.Content.RescanInterval != "" {
		d, err := time.ParseDuration(c.Content.RescanInterval)
		if err != nil {
			return fmt.Errorf("config: invalid rescan_interval: %w", err)
		}
		if d < time.Second {
			return fmt.Errorf("config: rescan_interval below 1s would busy-loop")
		}
	}
	return nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := `site:
  title: "My Documentation"
  description: "Project documentation"

content:
  directory: ./content
  # git_url: https://git.example.com/org/docs.git
  # git_branch: main
  # rescan_interval: 10m

output:
  directory: ./site
  clean: true

server:
  port: 8080
  metrics: true

cache:
  enabled: true
  path: .mdsite-cache.db

# events:
#   nats_url: nats://localhost:4222
#   subject: mdsite.events
`
	if err := os.WriteFile(configPath, []byte(example), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
