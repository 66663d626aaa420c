package audit

import "miecredit/internal/platform/config"

// NewRedactorFromConfig mirrors runtime configuration into a redaction
// policy. An unset allowlist falls back to the conservative default; an
// explicitly empty one drops every payload key.
func NewRedactorFromConfig(cfg config.Config) *Redactor {
	allow := KeySet(cfg.AuditAllowPayloadKeys)
	if allow == nil {
		allow = DefaultAllowedPayloadKeys()
	}

	return NewRedactor(Policy{
		AllowPayloadKeys:       allow,
		HashPayloadKeys:        KeySet(cfg.AuditHashPayloadKeys),
		DropUnknownPayloadKeys: cfg.AuditDropUnknownKeys,
		RemoveSubjectID:        cfg.AuditRemoveApplicantID,
		HashSubjectID:          cfg.AuditHashApplicantID,
		HashSalt:               cfg.AuditHashSalt,
		MaxStringLen:           cfg.AuditMaxStringLen,
		MaxListItems:           cfg.AuditMaxListItems,
	})
}
