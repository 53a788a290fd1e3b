package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// API
	APIBaseURL  string
	HTTPTimeout time.Duration
	BackendType string

	// State
	StateDir string

	// Mock server
	MockServerPort   string
	MockBackendShape string
	MockRateLimit    int
}

// Load は環境変数からConfigを読み込む。
// requireAPIがtrueでNOTES_API_URLが未設定の場合はエラーを返す。
// モックサーバーのみを起動するコマンドはAPIのURLを必要としない。
func Load(requireAPI bool) (*Config, error) {
	cfg := &Config{}

	cfg.APIBaseURL = os.Getenv("NOTES_API_URL")
	if requireAPI && cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("required environment variables are not set: [NOTES_API_URL]")
	}

	cfg.HTTPTimeout = getEnvDuration("NOTES_HTTP_TIMEOUT", 10*time.Second)
	cfg.BackendType = getEnvString("NOTES_BACKEND_TYPE", "local")

	stateDir := os.Getenv("NOTES_STATE_DIR")
	if stateDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve state directory: %w", err)
		}
		stateDir = filepath.Join(base, "noteman")
	}
	cfg.StateDir = stateDir

	cfg.MockServerPort = getEnvString("MOCK_SERVER_PORT", "3000")
	cfg.MockBackendShape = getEnvString("MOCK_BACKEND_SHAPE", "postgres")
	if cfg.MockBackendShape != "postgres" && cfg.MockBackendShape != "mongo" {
		return nil, fmt.Errorf("MOCK_BACKEND_SHAPE must be postgres or mongo: %q", cfg.MockBackendShape)
	}
	cfg.MockRateLimit = getEnvInt("MOCK_RATE_LIMIT", 120)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
