package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration, resolved from the
// environment. Site scraping specifics stay out of here; only the knobs
// the crawler core and its serving layer need are exposed.
type Config struct {
	ServerAddress string `env:"CRAWLER_SERVER_ADDRESS" envDefault:":8080"`
	// DatabaseURL selects the Postgres catalog; empty runs in-memory.
	DatabaseURL string `env:"CRAWLER_DATABASE_URL"`

	OutputRoot       string `env:"CRAWLER_OUTPUT_ROOT" envDefault:"mcp_servers"`
	SourceRootMarker string `env:"CRAWLER_SOURCE_ROOT_MARKER" envDefault:"src"`

	// GithubToken authorizes contents-API requests. Absence degrades
	// gracefully: listings go out unauthenticated and file downloads are
	// skipped with a log line.
	GithubToken string `env:"GITHUB_TOKEN"`

	RegistryBaseURL string `env:"CRAWLER_REGISTRY_URL" envDefault:"https://registry.modelcontextprotocol.io"`

	MaxRetries int           `env:"CRAWLER_MAX_RETRIES" envDefault:"3"`
	RetryDelay time.Duration `env:"CRAWLER_RETRY_DELAY" envDefault:"5s"`

	MirrorConcurrency     int      `env:"CRAWLER_MIRROR_CONCURRENCY" envDefault:"4"`
	MirrorContinueOnError bool     `env:"CRAWLER_MIRROR_CONTINUE_ON_ERROR" envDefault:"true"`
	MirrorIgnorePatterns  []string `env:"CRAWLER_MIRROR_IGNORE" envSeparator:"," envDefault:".git/"`

	EnableEntryValidation bool `env:"CRAWLER_ENABLE_ENTRY_VALIDATION" envDefault:"true"`

	LogLevel string `env:"CRAWLER_LOG_LEVEL" envDefault:"info"`
}

// NewConfig creates a new configuration with values from the environment
func NewConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
