package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultPort              = "3001"
	DefaultTransactionWindow = 200
	DefaultEventsChannel     = "pos:events"
)

// Settings is the resolved runtime configuration of the sync server.
type Settings struct {
	Port              string
	DataDir           string
	AssetsDir         string
	PublicBaseURL     string
	TransactionWindow int
	PrintCommand      string

	RedisAddress  string
	RedisLocks    bool
	EventsChannel string

	CorsAllowedOrigins []string
	Production         bool
}

func init() {
	// Load env from .env
	godotenv.Load()
}

// LoadSettings reads the environment.
//
// Env overrides (optional):
// - POS_SYNC_PORT / PORT (default 3001)
// - POS_DATA_DIR (default ./data)
// - POS_ASSETS_DIR (default <data>/assets)
// - PUBLIC_BASE_URL
// - SYNC_TRANSACTION_WINDOW (default 200)
// - PRINT_COMMAND
// - REDIS_ADDRESS, REDIS_LOCKS, REDIS_EVENTS_CHANNEL
// - CORS_ALLOWED_ORIGINS, GO_ENV
func LoadSettings() Settings {
	port := strings.TrimSpace(os.Getenv("POS_SYNC_PORT"))
	if port == "" {
		port = strings.TrimSpace(os.Getenv("PORT"))
	}
	if port == "" {
		port = DefaultPort
	}

	dataDir := strings.TrimSpace(os.Getenv("POS_DATA_DIR"))
	if dataDir == "" {
		dataDir = "data"
	}
	assetsDir := strings.TrimSpace(os.Getenv("POS_ASSETS_DIR"))
	if assetsDir == "" {
		assetsDir = filepath.Join(dataDir, "assets")
	}

	window := intFromEnv("SYNC_TRANSACTION_WINDOW", DefaultTransactionWindow)
	if window <= 0 {
		window = DefaultTransactionWindow
	}

	channel := strings.TrimSpace(os.Getenv("REDIS_EVENTS_CHANNEL"))
	if channel == "" {
		channel = DefaultEventsChannel
	}

	return Settings{
		Port:               port,
		DataDir:            dataDir,
		AssetsDir:          assetsDir,
		PublicBaseURL:      strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/"),
		TransactionWindow:  window,
		PrintCommand:       strings.TrimSpace(os.Getenv("PRINT_COMMAND")),
		RedisAddress:       strings.TrimSpace(os.Getenv("REDIS_ADDRESS")),
		RedisLocks:         boolFromEnv("REDIS_LOCKS", false),
		EventsChannel:      channel,
		CorsAllowedOrigins: splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS")),
		Production:         strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production"),
	}
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolFromEnv(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
