package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Storage key layout for activation records and audit logs
const (
	ActivationKeyPrefix = "wimp_activate_codes/"
	ActivationKeySuffix = ".token"
	AuditLogKeyPrefix   = "logs/"

	// AliGenieMarker separates the activation code from the skill suffix in k.
	AliGenieMarker = "/aligenie"
)

// ActivationRecord is the persisted pairing of an activation code and a device push token
type ActivationRecord struct {
	Code       string `json:"code" validate:"required"`
	PushToken  string `json:"push_token" validate:"required"`
	VerifyCode string `json:"verify_code,omitempty"`

	// Fields is the whole JSON object, including fields this system does not interpret.
	Fields map[string]interface{} `json:"-"`
}

// NewActivationRecord creates a record from a decoded JSON object
func NewActivationRecord(fields map[string]interface{}) *ActivationRecord {
	return &ActivationRecord{
		Code:       fieldString(fields["code"]),
		PushToken:  fieldString(fields["push_token"]),
		VerifyCode: fieldString(fields["verify_code"]),
		Fields:     fields,
	}
}

// ParseActivationRecord decodes a JSON object into an activation record.
// Numbers keep their literal form so the object can be written back unchanged.
func ParseActivationRecord(data []byte) (*ActivationRecord, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var fields map[string]interface{}
	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("invalid activation record: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("invalid activation record: not a JSON object")
	}

	return NewActivationRecord(fields), nil
}

// Key returns the storage key of the record
func (r *ActivationRecord) Key() string {
	return ActivationKey(r.Code)
}

// Marshal encodes the full record, unknown fields included
func (r *ActivationRecord) Marshal() ([]byte, error) {
	if r.Fields != nil {
		return json.Marshal(r.Fields)
	}
	return json.Marshal(r)
}

// ActivationKey derives the storage key for a code. The code is used verbatim.
func ActivationKey(code string) string {
	return ActivationKeyPrefix + code + ActivationKeySuffix
}

// AuditLogKey derives the storage key of a raw event log
func AuditLogKey(requestID string) string {
	return AuditLogKeyPrefix + requestID
}

// CodeFromK returns the part of k before the first AliGenie marker
func CodeFromK(k string) string {
	code, _, _ := strings.Cut(k, AliGenieMarker)
	return code
}

// IsAliGenieK reports whether k addresses the AliGenie verification flow
func IsAliGenieK(k string) bool {
	return strings.Contains(k, AliGenieMarker)
}

// fieldString converts a JSON value to the string used in keys and payloads.
// Null, false, zero and non-scalar values count as missing.
func fieldString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil && f == 0 {
			return ""
		}
		return val.String()
	case float64:
		if val == 0 {
			return ""
		}
		return fmt.Sprint(val)
	case bool:
		if val {
			return "True"
		}
	}
	return ""
}
