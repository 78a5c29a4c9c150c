package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	LogLevel string
	Debug    bool

	TurnTime         time.Duration
	SurrenderMinTurn int
	SettleTimeout    time.Duration

	// Empty DatabaseURL means static decks and no match history.
	DatabaseURL string
	// Empty RedisURL keeps the live listing in memory.
	RedisURL string
	// Empty RewardURL logs reward reports instead of sending them.
	RewardURL string

	AllowedOrigins      []string
	LiveRefreshInterval time.Duration
	LiveStaleAfter      time.Duration
}

// Load reads the environment, after merging the first .env file found in
// envPaths. Variables already set in the environment win over .env.
func Load(envPaths ...string) Config {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}
	return Config{
		Addr:                envOrDefault("ADDR", ":8080"),
		LogLevel:            envOrDefault("LOG_LEVEL", "info"),
		Debug:               envOrDefaultBool("DEBUG", false),
		TurnTime:            envOrDefaultDuration("TURN_TIME", 60*time.Second),
		SurrenderMinTurn:    envOrDefaultInt("SURRENDER_MIN_TURN", 15),
		SettleTimeout:       envOrDefaultDuration("SETTLE_TIMEOUT", 30*time.Second),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		RewardURL:           os.Getenv("REWARD_URL"),
		AllowedOrigins:      parseOrigins(os.Getenv("ALLOWED_ORIGINS")),
		LiveRefreshInterval: envOrDefaultDuration("LIVE_REFRESH_INTERVAL", 10*time.Second),
		LiveStaleAfter:      envOrDefaultDuration("LIVE_STALE_AFTER", 5*time.Minute),
	}
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultBool(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultInt(key string, fallback int) int {
	parsed, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return parsed
}

// envOrDefaultDuration accepts Go durations ("45s") or bare seconds ("45").
func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func parseOrigins(allowedOrigins string) []string {
	if allowedOrigins == "" {
		return []string{"http://localhost:3000"}
	}
	origins := strings.Split(allowedOrigins, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return origins
}
