package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string

	DatabaseURL string

	// DirectoryDatabaseURL points at the external user directory used for
	// role lookups. Optional: without it no role-based auto-approval
	// happens and moderation falls back to the sysadmin flag.
	DirectoryDatabaseURL string

	RedisURL string

	JWTSecret string

	CORSOrigins string

	ResendAPIKey string
	FromEmail    string
	SiteURL      string
	SiteTitle    string

	RequireApproval       bool
	DraftEdits            bool
	DraftEditsByAuthor    bool
	ApprovedEdits         bool
	ApprovedEditsByAuthor bool

	MobileDepthThreshold         int
	EnableDefaultDatasetComments bool

	RoleAdministrator string
	RoleContributor   string
	RolePublisher     string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DirectoryDatabaseURL: getEnv("DIRECTORY_DATABASE_URL", ""),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@example.com"),
		SiteURL:      getEnv("SITE_URL", "http://localhost:5000"),
		SiteTitle:    getEnv("SITE_TITLE", "Open Data Portal"),

		RequireApproval:       getBoolEnv("COMMENTS_REQUIRE_APPROVAL", true),
		DraftEdits:            getBoolEnv("COMMENTS_DRAFT_EDITS", true),
		DraftEditsByAuthor:    getBoolEnv("COMMENTS_DRAFT_EDITS_BY_AUTHOR", true),
		ApprovedEdits:         getBoolEnv("COMMENTS_APPROVED_EDITS", false),
		ApprovedEditsByAuthor: getBoolEnv("COMMENTS_APPROVED_EDITS_BY_AUTHOR", false),

		MobileDepthThreshold:         getIntEnv("COMMENTS_MOBILE_DEPTH_THRESHOLD", 3),
		EnableDefaultDatasetComments: getBoolEnv("COMMENTS_ENABLE_DEFAULT_DATASET", false),

		RoleAdministrator: getEnv("ROLE_ADMINISTRATOR", "administrator"),
		RoleContributor:   getEnv("ROLE_CONTRIBUTOR", "contributor"),
		RolePublisher:     getEnv("ROLE_PUBLISHER", "publisher"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
