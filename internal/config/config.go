// Package config provides environment configuration for the lead engine.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Redis settings
	RedisURL string

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret string

	// LLM settings
	AnthropicAPIKey string
	OpenAIAPIKey    string
	DefaultLLM      string
	LLMModel        string

	// Messaging channel
	ChannelBaseURL string
	ChannelToken   string

	// Followup timing
	FollowupCheckInterval time.Duration
	FirstFollowupAfter    time.Duration
	SecondFollowupAfter   time.Duration
	MaxFollowups          int

	// Voice followup tiers
	VoicePollInterval time.Duration
	VoiceDelayWarm    time.Duration
	VoiceDelayCold    time.Duration
	SMSBaseURL        string
	SMSAccountSID     string
	SMSAuthToken      string
	SMSFromNumber     string
	CallTriggerURL    string
	BookingLink       string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// LLM
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		DefaultLLM:      getEnv("DEFAULT_LLM", "openai"),
		LLMModel:        getEnv("LLM_MODEL", ""),

		// Messaging channel
		ChannelBaseURL: getEnv("CHANNEL_BASE_URL", "https://graph.instagram.com/v21.0"),
		ChannelToken:   getEnv("CHANNEL_ACCESS_TOKEN", ""),

		// Followup timing
		FollowupCheckInterval: getDurationEnv("FOLLOWUP_CHECK_INTERVAL", 15*time.Minute),
		FirstFollowupAfter:    getDurationEnv("FIRST_FOLLOWUP_AFTER", 2*time.Hour),
		SecondFollowupAfter:   getDurationEnv("SECOND_FOLLOWUP_AFTER", 24*time.Hour),
		MaxFollowups:          getIntEnv("MAX_FOLLOWUPS", 2),

		// Voice followups
		VoicePollInterval: getDurationEnv("VOICE_POLL_INTERVAL", 30*time.Second),
		VoiceDelayWarm:    getDurationEnv("FOLLOWUP_DELAY_WARM", 60*time.Minute),
		VoiceDelayCold:    getDurationEnv("FOLLOWUP_DELAY_COLD", 24*time.Hour),
		SMSBaseURL:        getEnv("SMS_BASE_URL", "https://api.twilio.com/2010-04-01"),
		SMSAccountSID:     getEnv("SMS_ACCOUNT_SID", ""),
		SMSAuthToken:      getEnv("SMS_AUTH_TOKEN", ""),
		SMSFromNumber:     getEnv("SMS_FROM_NUMBER", ""),
		CallTriggerURL:    getEnv("CALL_TRIGGER_URL", "http://localhost:8000/api/call"),
		BookingLink:       getEnv("BOOKING_LINK", "https://calendly.com/lumoscale"),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
