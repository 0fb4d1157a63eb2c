package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the service reads.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Storage StorageConfig
	Session SessionConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Storage: storage, Session: session}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// apiKeyPlaceholder is the scaffold value shipped in .env.example; it
// is treated the same as a missing credential.
const apiKeyPlaceholder = "your-api-key-here"

// AIConfig describes the completion endpoint settings.
type AIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Temperature float32
	MaxTokens   int
}

// Enabled reports whether a usable credential is present. A placeholder
// key routes all sends to the local "not configured" notice instead.
func (c AIConfig) Enabled() bool {
	return c.APIKey != "" && c.APIKey != apiKeyPlaceholder
}

func loadAIConfig() (AIConfig, error) {
	temperature := float32(0.7)
	if override, err := parseOptionalFloat32Env("OPENAI_TEMPERATURE"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	maxTokens := 1000
	if override, err := parseOptionalIntEnv("OPENAI_MAX_TOKENS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		maxTokens = *override
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:     strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Model:       getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		VisionModel: getEnvOrDefault("OPENAI_VISION_MODEL", "gpt-4o-mini"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// StorageConfig describes the durable medium backing conversations.
type StorageConfig struct {
	Backend          string
	Path             string
	QuotaBytes       int64
	MaxConversations int
}

func loadStorageConfig() (StorageConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", "file"))
	switch backend {
	case "file", "sqlite", "memory":
	default:
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_BACKEND value: %q", backend)
	}

	quota := int64(5 << 20)
	if override, err := parseOptionalIntEnv("STORAGE_QUOTA_BYTES"); err != nil {
		return StorageConfig{}, err
	} else if override != nil {
		quota = int64(*override)
	}

	maxConversations := 50
	if override, err := parseOptionalIntEnv("MAX_CONVERSATIONS"); err != nil {
		return StorageConfig{}, err
	} else if override != nil && *override > 0 {
		maxConversations = *override
	}

	return StorageConfig{
		Backend:          backend,
		Path:             getEnvOrDefault("STORAGE_PATH", "data"),
		QuotaBytes:       quota,
		MaxConversations: maxConversations,
	}, nil
}

// SessionConfig describes session controller tuning.
type SessionConfig struct {
	SaveDebounce time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	debounce := 500 * time.Millisecond
	if override, err := parseOptionalIntEnv("SAVE_DEBOUNCE_MS"); err != nil {
		return SessionConfig{}, err
	} else if override != nil && *override > 0 {
		debounce = time.Duration(*override) * time.Millisecond
	}
	return SessionConfig{SaveDebounce: debounce}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}
