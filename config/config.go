package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	APIKey          string
	IndexID         string
	ProviderBaseURL string

	DBPath     string
	ListenAddr string

	SnippetDir string
	WorkDir    string
	GuideDir   string

	DiscordEndpoint  string
	DiscordChannelID string
	DiscordBotToken  string

	BatchWorkers     int
	MaxVideoDuration time.Duration
}

// Load reads configuration from the environment, pulling in a .env file if
// one exists. Only the provider credentials are mandatory; everything else
// has a sensible default.
func Load() (*Config, error) {
	// Missing .env is fine, real environments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:          firstEnv("API_KEY", "TWELVE_LABS_API_KEY"),
		IndexID:         firstEnv("INDEX_ID", "TWELVE_LABS_INDEX_ID"),
		ProviderBaseURL: os.Getenv("PROVIDER_BASE_URL"),

		DBPath:     envOr("DB_PATH", "video_analysis.db"),
		ListenAddr: envOr("LISTEN_ADDR", ":8080"),

		SnippetDir: envOr("SNIPPET_DIR", "snippets"),
		WorkDir:    envOr("WORK_DIR", os.TempDir()),
		GuideDir:   envOr("GUIDE_DIR", "guides"),

		DiscordEndpoint:  envOr("DISCORD_BOT_ENDPOINT", "http://localhost:9000"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		DiscordBotToken:  os.Getenv("DISCORD_BOT_TOKEN"),

		BatchWorkers:     envInt("BATCH_WORKERS", 3),
		MaxVideoDuration: time.Hour,
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no provider API key configured: set API_KEY or TWELVE_LABS_API_KEY in the environment or .env")
	}
	if cfg.IndexID == "" {
		return nil, fmt.Errorf("no provider index configured: set INDEX_ID or TWELVE_LABS_INDEX_ID in the environment or .env")
	}

	return cfg, nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
