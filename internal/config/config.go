package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	AppName    = "Starlog"
	AppVersion = "1.0.0"
)

// UserAgent identifies Starlog to the APOD API.
var UserAgent = AppName + "/" + AppVersion

type Config struct {
	Addr      string
	DBPath    string
	DataDir   string
	StaticDir string
	LogLevel  string

	// NASA APOD lookup
	NASAAPIKey  string
	APODBaseURL string
	APODTimeout time.Duration
	ProxyURL    string

	// Snowflake node ID (0-1023), unique per instance
	NodeID int64
}

func Load() Config {
	addr := os.Getenv("STARLOG_ADDR")
	if addr == "" {
		addr = ":7003"
	}
	dataDir := os.Getenv("STARLOG_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	path := os.Getenv("STARLOG_DB_PATH")
	if path == "" {
		path = filepath.Join(dataDir, "starlog.db")
	}
	staticDir := os.Getenv("STARLOG_STATIC_DIR")
	if staticDir == "" {
		staticDir = detectStaticDir()
	}

	apiKey := os.Getenv("STARLOG_NASA_API_KEY")
	if apiKey == "" {
		// DEMO_KEY works but is heavily rate limited
		apiKey = "DEMO_KEY"
	}
	apodBaseURL := os.Getenv("STARLOG_APOD_BASE_URL")
	if apodBaseURL == "" {
		apodBaseURL = "https://api.nasa.gov/planetary/apod"
	}
	apodTimeout := 10 * time.Second
	if raw := os.Getenv("STARLOG_APOD_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			apodTimeout = time.Duration(secs) * time.Second
		}
	}

	var nodeID int64
	if raw := os.Getenv("STARLOG_NODE_ID"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed >= 0 && parsed <= 1023 {
			nodeID = parsed
		}
	}

	return Config{
		Addr:        addr,
		DBPath:      filepath.Clean(path),
		DataDir:     filepath.Clean(dataDir),
		StaticDir:   filepath.Clean(staticDir),
		LogLevel:    os.Getenv("STARLOG_LOG_LEVEL"),
		NASAAPIKey:  apiKey,
		APODBaseURL: apodBaseURL,
		APODTimeout: apodTimeout,
		ProxyURL:    os.Getenv("STARLOG_PROXY_URL"),
		NodeID:      nodeID,
	}
}

func detectStaticDir() string {
	candidates := []string{
		"./frontend/dist",
		"../frontend/dist",
	}
	for _, candidate := range candidates {
		indexPath := filepath.Join(candidate, "index.html")
		if info, err := os.Stat(indexPath); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return "./frontend/dist"
}
