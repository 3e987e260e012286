package signature_test

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/debitflow/sdd-reconciler/internal/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signWith(uniqueID, secret string) string {
	sum := sha1.Sum([]byte(uniqueID + secret))
	return hex.EncodeToString(sum[:])
}

func TestVerifier_Verify_ValidSignature(t *testing.T) {
	v := signature.NewVerifier("test-secret")

	sig := signWith("txn-abc-123", "test-secret")

	assert.True(t, v.Verify("txn-abc-123", sig))
}

func TestVerifier_Verify_UppercaseHexAccepted(t *testing.T) {
	v := signature.NewVerifier("test-secret")

	sig := strings.ToUpper(signWith("txn-abc-123", "test-secret"))

	assert.True(t, v.Verify("txn-abc-123", sig))
}

func TestVerifier_Verify_WrongSecret(t *testing.T) {
	v := signature.NewVerifier("test-secret")

	sig := signWith("txn-abc-123", "other-secret")

	assert.False(t, v.Verify("txn-abc-123", sig))
}

func TestVerifier_Verify_WrongUniqueID(t *testing.T) {
	v := signature.NewVerifier("test-secret")

	sig := signWith("txn-abc-123", "test-secret")

	assert.False(t, v.Verify("txn-abc-124", sig))
}

func TestVerifier_Verify_SingleCharacterMutation(t *testing.T) {
	v := signature.NewVerifier("test-secret")

	sig := signWith("txn-abc-123", "test-secret")
	require.Len(t, sig, 40)

	// Flip one hex digit at a time; every mutation must be rejected
	for i := 0; i < len(sig); i++ {
		mutated := []byte(sig)
		if mutated[i] == '0' {
			mutated[i] = '1'
		} else {
			mutated[i] = '0'
		}
		assert.False(t, v.Verify("txn-abc-123", string(mutated)),
			"mutation at position %d should be rejected", i)
	}
}

func TestVerifier_Verify_EmptyInputs(t *testing.T) {
	v := signature.NewVerifier("test-secret")
	sig := signWith("txn-abc-123", "test-secret")

	assert.False(t, v.Verify("", sig))
	assert.False(t, v.Verify("txn-abc-123", ""))
	assert.False(t, v.Verify("", ""))
}

func TestVerifier_Verify_EmptySecretRejectsEverything(t *testing.T) {
	v := signature.NewVerifier("")

	// Even a signature computed with the empty secret must not pass
	sig := signWith("txn-abc-123", "")

	assert.False(t, v.Verify("txn-abc-123", sig))
}

func TestVerifier_Sign_RoundTrip(t *testing.T) {
	v := signature.NewVerifier("test-secret")

	sig := v.Sign("txn-abc-123")

	assert.Equal(t, signWith("txn-abc-123", "test-secret"), sig)
	assert.True(t, v.Verify("txn-abc-123", sig))
}
