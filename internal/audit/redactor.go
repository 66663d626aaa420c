package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Policy controls how records are sanitized before persistence. Immutable
// after construction; build one from configuration at startup and share it.
type Policy struct {
	// AllowPayloadKeys restricts top-level payload keys. When nil, all keys
	// pass. The filter applies only at the top level, never inside nested
	// mappings.
	AllowPayloadKeys map[string]struct{}
	// HashPayloadKeys lists top-level keys whose value is replaced by a
	// one-way digest of its string form.
	HashPayloadKeys map[string]struct{}
	// DropUnknownPayloadKeys removes keys outside the allowlist entirely.
	// The key disappears from the output rather than being blanked.
	DropUnknownPayloadKeys bool
	// RemoveSubjectID clears the subject identifier. Takes precedence over
	// HashSubjectID.
	RemoveSubjectID bool
	// HashSubjectID replaces the subject identifier with its digest.
	HashSubjectID bool
	// HashSalt is prefixed into every digest input. Absent salt is treated
	// as empty; equal salt+value always yields the same digest so callers
	// can correlate records without recovering the original value.
	HashSalt string
	// MaxStringLen truncates strings to at most this many bytes. Zero or
	// negative disables truncation.
	MaxStringLen int
	// MaxListItems keeps only the first N elements of sequences. Zero or
	// negative disables truncation.
	MaxListItems int
}

// DefaultAllowedPayloadKeys is the conservative allowlist for payload keys
// expected to be non-sensitive. It keeps structured values related to model
// outcomes and fairness reports while filtering out request bodies or
// applicant metadata that could contain personal information.
func DefaultAllowedPayloadKeys() map[string]struct{} {
	return KeySet([]string{
		"score",
		"decision",
		"reason_codes",
		"base_value",
		"score_from_explanation",
		"positive_label",
		"demographic_parity_difference",
		"equal_opportunity_difference",
		"selection_rate_by_group",
		"tpr_by_group",
		"n_rows",
		"audit_context",
	})
}

// KeySet converts a flat configuration list into a policy key set. A nil
// slice stays nil so "unset" remains distinguishable from "empty".
func KeySet(keys []string) map[string]struct{} {
	if keys == nil {
		return nil
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Redactor removes or hashes personal data before audit events are
// persisted. Redact is pure: no I/O, deterministic for equal inputs, and it
// never fails — malformed values degrade to truncated string form rather
// than failing the caller's write path.
type Redactor struct {
	policy Policy
}

// NewRedactor builds a Redactor over an immutable policy.
func NewRedactor(policy Policy) *Redactor {
	return &Redactor{policy: policy}
}

// Policy returns the redaction policy in force.
func (r *Redactor) Policy() Policy { return r.policy }

// Redact returns a sanitized copy of the event. Timestamp, request id, and
// event type pass through untouched.
func (r *Redactor) Redact(event Event) Event {
	event.Payload = r.redactPayload(event.Payload)

	if r.policy.RemoveSubjectID {
		event.SubjectID = nil
	} else if event.SubjectID != nil && r.policy.HashSubjectID {
		hashed := r.Digest(*event.SubjectID)
		event.SubjectID = &hashed
	}

	return event
}

func (r *Redactor) redactPayload(payload map[string]any) map[string]any {
	cleaned := make(map[string]any, len(payload))
	for key, value := range payload {
		if r.policy.AllowPayloadKeys != nil {
			if _, ok := r.policy.AllowPayloadKeys[key]; !ok && r.policy.DropUnknownPayloadKeys {
				continue
			}
		}
		if _, hash := r.policy.HashPayloadKeys[key]; hash {
			cleaned[key] = r.Digest(value)
			continue
		}
		cleaned[key] = r.sanitizeValue(value)
	}
	return cleaned
}

// sanitizeValue dispatches over the JSON-like value shapes: scalars pass,
// strings truncate, mappings and sequences recurse, anything else degrades
// to truncated string form.
func (r *Redactor) sanitizeValue(value any) any {
	switch v := value.(type) {
	case nil, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	case string:
		return r.truncate(v)
	case map[string]any:
		cleaned := make(map[string]any, len(v))
		for k, inner := range v {
			cleaned[k] = r.sanitizeValue(inner)
		}
		return cleaned
	case []any:
		limited := v
		if r.policy.MaxListItems > 0 && len(limited) > r.policy.MaxListItems {
			limited = limited[:r.policy.MaxListItems]
		}
		cleaned := make([]any, len(limited))
		for i, inner := range limited {
			cleaned[i] = r.sanitizeValue(inner)
		}
		return cleaned
	default:
		return r.truncate(fmt.Sprint(v))
	}
}

func (r *Redactor) truncate(s string) string {
	if r.policy.MaxStringLen > 0 && len(s) > r.policy.MaxStringLen {
		return s[:r.policy.MaxStringLen]
	}
	return s
}

// Digest returns the hex SHA-256 of salt || stringified(value). Equal
// inputs always produce the same digest.
func (r *Redactor) Digest(value any) string {
	h := sha256.New()
	if r.policy.HashSalt != "" {
		h.Write([]byte(r.policy.HashSalt))
	}
	h.Write([]byte(fmt.Sprint(value)))
	return hex.EncodeToString(h.Sum(nil))
}
