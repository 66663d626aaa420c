// Package config resolves all runtime configuration from the environment so
// main stays lean. A .env file is loaded when present; real environment
// variables win over it.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures the full service configuration. Every field maps to one
// MIE_-prefixed environment variable.
type Config struct {
	Addr        string
	Environment string

	RequireAPIKey bool
	APIKey        string

	ModelRegistryDir  string
	ModelVersion      string
	ApprovalThreshold float64

	// DatabaseURL selects the primary audit store. Empty means the in-memory
	// store, which is fine for dev and useless for compliance.
	DatabaseURL string

	AuditJSONLPath        string
	AuditKafkaBrokers     []string
	AuditKafkaTopic       string
	AuditLogRequestBodies bool

	AuditHashSalt          string
	AuditAllowPayloadKeys  []string
	AuditHashPayloadKeys   []string
	AuditDropUnknownKeys   bool
	AuditHashApplicantID   bool
	AuditRemoveApplicantID bool
	AuditMaxStringLen      int
	AuditMaxListItems      int
}

// Load reads .env if present and builds the Config.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:        envString("MIE_ADDR", ":8000"),
		Environment: envString("MIE_ENVIRONMENT", "dev"),

		RequireAPIKey: envBool("MIE_REQUIRE_API_KEY", false),
		APIKey:        envString("MIE_API_KEY", ""),

		ModelRegistryDir:  envString("MIE_MODEL_REGISTRY_DIR", "models"),
		ModelVersion:      envString("MIE_MODEL_VERSION", "v0.1.0"),
		ApprovalThreshold: envFloat("MIE_APPROVAL_THRESHOLD", 0.6),

		DatabaseURL: envString("MIE_DATABASE_URL", ""),

		AuditJSONLPath:        envString("MIE_AUDIT_JSONL_PATH", ""),
		AuditKafkaBrokers:     envList("MIE_AUDIT_KAFKA_BROKERS", nil),
		AuditKafkaTopic:       envString("MIE_AUDIT_KAFKA_TOPIC", "audit-events"),
		AuditLogRequestBodies: envBool("MIE_AUDIT_LOG_REQUEST_BODIES", false),

		AuditHashSalt:          envString("MIE_AUDIT_HASH_SALT", "mie-default-salt"),
		AuditAllowPayloadKeys:  envList("MIE_AUDIT_ALLOW_PAYLOAD_KEYS", nil),
		AuditHashPayloadKeys:   envList("MIE_AUDIT_HASH_PAYLOAD_KEYS", nil),
		AuditDropUnknownKeys:   envBool("MIE_AUDIT_DROP_UNKNOWN_KEYS", true),
		AuditHashApplicantID:   envBool("MIE_AUDIT_HASH_APPLICANT_ID", true),
		AuditRemoveApplicantID: envBool("MIE_AUDIT_REMOVE_APPLICANT_ID", false),
		AuditMaxStringLen:      envInt("MIE_AUDIT_MAX_STRING_LEN", 256),
		AuditMaxListItems:      envInt("MIE_AUDIT_MAX_LIST_ITEMS", 50),
	}
}

// RequireApproval reports whether the governance gate is enforced. Only the
// dev environment may serve unapproved models.
func (c Config) RequireApproval() bool {
	return strings.ToLower(c.Environment) != "dev"
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
