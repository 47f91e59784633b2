package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Collections names the document collections the platform reads and writes.
// They are configuration, not constants: historical deployments used per-source
// article collections before the unified news collection.
type Collections struct {
	News      string
	Summaries string
	Tips      string
	// Per-source article collections from before the merge; the migrator
	// folds them into News.
	LegacySources []string
}

type Config struct {
	MongoURI string
	DBName   string

	Collections Collections

	GeminiAPIKey string
	GeminiTier   string

	Port        string
	GinMode     string
	CORSOrigins []string

	// Redis Configuration (asynq broker + worker health checks)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Scraping
	HackerNewsURL  string
	CyberNewsURL   string
	ScrapeMaxPages int
	ScrapeTimeout  int // seconds
	ScrapeRenderJS bool
	ScrapeCron     string

	// Generation
	GenerationTimeout int // seconds, per article

	// Store retry policy for transient connection failures
	StoreRetryAttempts int
	StoreRetryDelayMS  int

	ExportDir string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/cyber_news"),
		DBName:   getEnv("DB_NAME", "cyber_news"),

		Collections: Collections{
			News:          getEnv("COLLECTION_NEWS", "news"),
			Summaries:     getEnv("COLLECTION_SUMMARIES", "summaries"),
			Tips:          getEnv("COLLECTION_TIPS", "tips"),
			LegacySources: splitNonEmpty(getEnv("COLLECTIONS_LEGACY_SOURCES", "hackernews,cybernews")),
		},

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiTier:   getEnv("GEMINI_TIER", "free"),

		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		HackerNewsURL:  getEnv("HACKERNEWS_URL", "https://thehackernews.com/"),
		CyberNewsURL:   getEnv("CYBERNEWS_URL", "https://cybernews.com/security/"),
		ScrapeMaxPages: getEnvInt("SCRAPE_MAX_PAGES", 10),
		ScrapeTimeout:  getEnvInt("SCRAPE_TIMEOUT", 60),
		ScrapeRenderJS: getEnvBool("SCRAPE_RENDER_JS", false),
		ScrapeCron:     getEnv("SCRAPE_CRON", "0 6 * * *"),

		GenerationTimeout: getEnvInt("GENERATION_TIMEOUT", 120),

		StoreRetryAttempts: getEnvInt("STORE_RETRY_ATTEMPTS", 3),
		StoreRetryDelayMS:  getEnvInt("STORE_RETRY_DELAY_MS", 200),

		ExportDir: getEnv("EXPORT_DIR", "./exports"),
	}

	if cfg.Collections.News == "" || cfg.Collections.Summaries == "" || cfg.Collections.Tips == "" {
		return nil, fmt.Errorf("collection names must not be empty - check COLLECTION_* env vars")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func splitNonEmpty(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
