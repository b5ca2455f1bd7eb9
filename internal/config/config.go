package config

import (
	"os"
	"strconv"
)

// GeminiModels defines which Gemini models to use for different tasks
type GeminiModels struct {
	// Light is for tier-3 basic contradiction and AI-content passes
	// (needs to be fast and cheap)
	Light string `json:"light"`

	// Deep is for tier-5 full contradiction analysis (quality over speed)
	Deep string `json:"deep"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	APIKey  string       `json:"-"` // Never serialize
	BaseURL string       `json:"baseUrl"`
	Models  GeminiModels `json:"models"`

	// LightTimeoutMS bounds a tier-3 call; DeepTimeoutMS bounds tier 5.
	LightTimeoutMS int `json:"lightTimeoutMs"`
	DeepTimeoutMS  int `json:"deepTimeoutMs"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		Models: GeminiModels{
			Light: getEnvOrDefault("GEMINI_MODEL_LIGHT", "gemini-2.5-flash-preview-05-20"),
			Deep:  getEnvOrDefault("GEMINI_MODEL_DEEP", "gemini-2.0-flash"),
		},
		LightTimeoutMS: getEnvIntOrDefault("AI_LIGHT_TIMEOUT_MS", 10000),
		DeepTimeoutMS:  getEnvIntOrDefault("AI_DEEP_TIMEOUT_MS", 25000),
	}
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the full endpoint for a given model
func (c *AIConfig) ModelEndpoint(model string) string {
	return c.BaseURL + "/" + model + ":generateContent"
}

// NetworkConfig selects how source IPs are resolved to intelligence.
// Mode "http" queries the ip-api service; mode "mmdb" reads a local
// MaxMind database and never leaves the host.
type NetworkConfig struct {
	Mode      string `json:"mode"`
	BaseURL   string `json:"baseUrl"`
	MMDBPath  string `json:"mmdbPath"`
	TimeoutMS int    `json:"timeoutMs"`
}

// DefaultNetworkConfig returns the network resolver configuration.
func DefaultNetworkConfig() *NetworkConfig {
	return &NetworkConfig{
		Mode:      getEnvOrDefault("IP_RESOLVER_MODE", "http"),
		BaseURL:   getEnvOrDefault("IP_API_BASE_URL", "http://ip-api.com/json"),
		MMDBPath:  getEnvOrDefault("GEOIP_MMDB_PATH", ""),
		TimeoutMS: getEnvIntOrDefault("IP_RESOLVER_TIMEOUT_MS", 5000),
	}
}

// FusionConfig holds the Bayesian fusion parameters.
type FusionConfig struct {
	// Prior is the base fraud rate assumed before any evidence.
	Prior float64 `json:"prior"`
}

// DefaultFusionConfig returns the fusion configuration.
func DefaultFusionConfig() *FusionConfig {
	return &FusionConfig{
		Prior: getEnvFloatOrDefault("FRAUD_PRIOR", 0.15),
	}
}

// ServerConfig holds process-level settings.
type ServerConfig struct {
	Port     string `json:"port"`
	MongoURI string `json:"-"`
	RedisURI string `json:"-"`
}

// DefaultServerConfig returns the server configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:     getEnvOrDefault("PORT", "8080"),
		MongoURI: getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		RedisURI: getEnvOrDefault("REDIS_URI", "redis://localhost:6379"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
