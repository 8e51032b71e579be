package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	key := []byte("test-signing-key")
	log := NewLog(&Entry{
		EntityType: EntityTypeApplication,
		EntityID:   "LN-1001",
		Action:     ActionTransition,
		Actor:      "client:a@b.in",
		ActorRoles: []string{"client"},
		Message:    "draft -> under_kam_review",
	})

	sig, err := Sign(log, key)
	require.NoError(t, err)
	log.Signature = sig

	ok, err := VerifySignature(log, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyDetectsTampering(t *testing.T) {
	key := []byte("test-signing-key")
	log := NewLog(&Entry{
		EntityType: EntityTypeLedgerEntry,
		EntityID:   "abc",
		Action:     ActionDisputeFlag,
		Actor:      "client:a@b.in",
	})
	sig, err := Sign(log, key)
	require.NoError(t, err)
	log.Signature = sig

	log.Message = "tampered"
	ok, err := VerifySignature(log, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyWithoutSignature(t *testing.T) {
	log := NewLog(&Entry{EntityType: EntityTypeApplication, EntityID: "x", Action: ActionTransition, Actor: "system"})
	ok, err := VerifySignature(log, []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}
