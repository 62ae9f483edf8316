package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSignatureService_SignAndVerify(t *testing.T) {
	svc := NewHMACSignatureService()
	secret := "whsec_test"
	body := `{"amountSats":21,"event":"payment.created","paymentId":"p1","timestamp":"2026-03-01T12:00:00Z"}`

	signature := svc.Sign(secret, body)

	assert.Regexp(t, `^[0-9a-f]{64}$`, signature, "signature should be 64-char lowercase hex (SHA-256)")
	assert.True(t, svc.Verify(secret, body, signature))
}

func TestHMACSignatureService_KnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	svc := NewHMACSignatureService()
	assert.Equal(t,
		"5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843",
		svc.Sign("Jefe", "what do ya want for nothing?"))
}

func TestHMACSignatureService_VerifyFails(t *testing.T) {
	svc := NewHMACSignatureService()
	signature := svc.Sign("correct-key", "original payload")

	assert.False(t, svc.Verify("wrong-key", "original payload", signature))
	assert.False(t, svc.Verify("correct-key", "tampered payload", signature))
	assert.False(t, svc.Verify("correct-key", "original payload", "invalidsignature"))
}

func TestHMACSignatureService_Digest(t *testing.T) {
	svc := NewHMACSignatureService()
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		svc.Digest("abc"))
}
