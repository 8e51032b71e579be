package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"time"
)

type signaturePayload struct {
	AuditID    string   `json:"auditId"`
	EntityType string   `json:"entityType"`
	EntityID   string   `json:"entityId"`
	Action     string   `json:"action"`
	Actor      string   `json:"actor"`
	ActorRoles []string `json:"actorRoles,omitempty"`
	Message    string   `json:"message,omitempty"`
	Resolved   bool     `json:"resolved"`
	CreatedAt  string   `json:"createdAt"`
}

func buildSignaturePayload(log *Log) signaturePayload {
	return signaturePayload{
		AuditID:    log.AuditID.String(),
		EntityType: string(log.EntityType),
		EntityID:   log.EntityID,
		Action:     string(log.Action),
		Actor:      log.Actor,
		ActorRoles: log.ActorRoles,
		Message:    log.Message,
		Resolved:   log.Resolved,
		CreatedAt:  log.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Sign generates an HMAC signature for the audit log.
func Sign(log *Log, key []byte) ([]byte, error) {
	data, err := json.Marshal(buildSignaturePayload(log))
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(data)
	return mac.Sum(nil), nil
}

// VerifySignature verifies the HMAC signature for the audit log.
func VerifySignature(log *Log, key []byte) (bool, error) {
	if len(log.Signature) == 0 {
		return false, nil
	}
	expected, err := Sign(log, key)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, log.Signature), nil
}
