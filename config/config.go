package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DEFAULT_ARCHIVE_PATH      = "assistantwire.db"
	DEFAULT_ARCHIVE_RETENTION = 7 * 24 * time.Hour
	DEFAULT_PRUNE_INTERVAL    = time.Hour
)

type Config struct {
	LogLevel string
	// sqlite dsn of the event archive
	ArchivePath string
	// archived events older than this are pruned
	ArchiveRetention time.Duration
	PruneInterval    time.Duration
	// both must be set for the discord relay to run
	DiscordToken     string
	DiscordChannelID string
}

func (c *Config) RelayEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}

// Load reads envFile into the environment, when it exists, and builds the
// config from the environment. An empty envFile means ".env".
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to load %s: %w", envFile, err)
	}

	retention, err := getDuration("ARCHIVE_RETENTION", DEFAULT_ARCHIVE_RETENTION)
	if err != nil {
		return nil, err
	}
	interval, err := getDuration("PRUNE_INTERVAL", DEFAULT_PRUNE_INTERVAL)
	if err != nil {
		return nil, err
	}

	return &Config{
		LogLevel:         getenv("LOG_LEVEL", "info"),
		ArchivePath:      getenv("ARCHIVE_PATH", DEFAULT_ARCHIVE_PATH),
		ArchiveRetention: retention,
		PruneInterval:    interval,
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
	}, nil
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", k, v)
	}
	return d, nil
}
