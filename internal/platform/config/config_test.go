package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, "dev", cfg.Environment)
	assert.False(t, cfg.RequireApproval())
	assert.Equal(t, 0.6, cfg.ApprovalThreshold)
	assert.True(t, cfg.AuditHashApplicantID)
	assert.True(t, cfg.AuditDropUnknownKeys)
	assert.Equal(t, 256, cfg.AuditMaxStringLen)
	assert.Equal(t, 50, cfg.AuditMaxListItems)
	assert.Nil(t, cfg.AuditAllowPayloadKeys)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MIE_ENVIRONMENT", "Prod")
	t.Setenv("MIE_APPROVAL_THRESHOLD", "0.75")
	t.Setenv("MIE_AUDIT_KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")
	t.Setenv("MIE_AUDIT_ALLOW_PAYLOAD_KEYS", "score,decision")
	t.Setenv("MIE_AUDIT_HASH_APPLICANT_ID", "false")

	cfg := Load()

	assert.True(t, cfg.RequireApproval())
	assert.Equal(t, 0.75, cfg.ApprovalThreshold)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.AuditKafkaBrokers)
	assert.Equal(t, []string{"score", "decision"}, cfg.AuditAllowPayloadKeys)
	assert.False(t, cfg.AuditHashApplicantID)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MIE_APPROVAL_THRESHOLD", "not-a-number")
	t.Setenv("MIE_AUDIT_MAX_STRING_LEN", "abc")

	cfg := Load()
	assert.Equal(t, 0.6, cfg.ApprovalThreshold)
	assert.Equal(t, 256, cfg.AuditMaxStringLen)
}
