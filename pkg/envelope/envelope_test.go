package envelope_test

import (
	"bytes"
	"errors"
	"testing"

	kemerrors "github.com/kembridge/kembridge-core/internal/errors"
	"github.com/kembridge/kembridge-core/pkg/envelope"
	"github.com/kembridge/kembridge-core/pkg/qcrypto"
)

func mustKeyPair(t *testing.T) *qcrypto.MLKEMKeyPair {
	t.Helper()
	kp, err := qcrypto.GenerateMLKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateMLKEMKeyPair failed: %v", err)
	}
	return kp
}

func TestSealOpenRoundTrip(t *testing.T) {
	kp := mustKeyPair(t)
	plaintext := []byte("hello")

	env, err := envelope.Seal(kp.EncapsulationKey, "key-1", "swap:abc", plaintext)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	recovered, err := envelope.Open(kp.DecapsulationKey, "swap:abc", env)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Errorf("recovered = %q, want %q", recovered, plaintext)
	}
}

func TestOpenRejectsContextLabelMismatch(t *testing.T) {
	kp := mustKeyPair(t)

	env, err := envelope.Seal(kp.EncapsulationKey, "key-1", "swap:abc", []byte("payload"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	_, err = envelope.Open(kp.DecapsulationKey, "swap:xyz", env)
	if err == nil {
		t.Fatal("expected ContextMismatch error")
	}
	if !errors.Is(err, kemerrors.ErrContextMismatch) {
		t.Errorf("got %v, want ErrContextMismatch", err)
	}
}

func TestOpenDetectsTamperOnEveryField(t *testing.T) {
	kp := mustKeyPair(t)

	fresh := func() *envelope.HybridEnvelope {
		env, err := envelope.Seal(kp.EncapsulationKey, "key-1", "swap:abc", []byte("hello"))
		if err != nil {
			t.Fatalf("Seal failed: %v", err)
		}
		return env
	}

	tests := []struct {
		name  string
		flip  func(env *envelope.HybridEnvelope)
	}{
		{"kem ciphertext", func(e *envelope.HybridEnvelope) { e.EncapsulatedCiphertext[0] ^= 0xFF }},
		{"aead nonce", func(e *envelope.HybridEnvelope) { e.AEADNonce[0] ^= 0xFF }},
		{"aead ciphertext", func(e *envelope.HybridEnvelope) { e.AEADCiphertext[0] ^= 0xFF }},
		{"aead tag", func(e *envelope.HybridEnvelope) { e.AEADTag[0] ^= 0xFF }},
		{"hmac", func(e *envelope.HybridEnvelope) { e.IntegrityMAC[0] ^= 0xFF }},
		{"context label", func(e *envelope.HybridEnvelope) { e.ContextLabel = e.ContextLabel + "x" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := fresh()
			tt.flip(env)

			_, err := envelope.Open(kp.DecapsulationKey, "swap:abc", env)
			if err == nil {
				t.Fatal("expected an error after tampering")
			}
			kind := kemerrors.KindOf(err)
			if kind != kemerrors.IntegrityFailed && kind != kemerrors.InvalidInput {
				t.Errorf("kind = %q, want IntegrityFailed or InvalidInput (malformed length)", kind)
			}
		})
	}
}

func TestSealRejectsOversizedContextLabel(t *testing.T) {
	kp := mustKeyPair(t)
	label := bytes.Repeat([]byte("a"), 65)

	_, err := envelope.Seal(kp.EncapsulationKey, "key-1", string(label), []byte("payload"))
	if err == nil {
		t.Fatal("expected error for oversized context label")
	}
}

func TestWireRoundTrip(t *testing.T) {
	kp := mustKeyPair(t)
	env, err := envelope.Seal(kp.EncapsulationKey, "key-1", "swap:abc", []byte("round trip me"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	wire, err := envelope.Encode(env)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := envelope.Decode(wire)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !bytes.Equal(decoded.EncapsulatedCiphertext, env.EncapsulatedCiphertext) ||
		!bytes.Equal(decoded.AEADNonce, env.AEADNonce) ||
		!bytes.Equal(decoded.AEADTag, env.AEADTag) ||
		!bytes.Equal(decoded.IntegrityMAC, env.IntegrityMAC) ||
		!bytes.Equal(decoded.AEADCiphertext, env.AEADCiphertext) ||
		decoded.ContextLabel != env.ContextLabel {
		t.Error("decoded envelope does not match the original")
	}

	decoded.KeyID = env.KeyID
	plaintext, err := envelope.Open(kp.DecapsulationKey, "swap:abc", decoded)
	if err != nil {
		t.Fatalf("Open on decoded envelope failed: %v", err)
	}
	if string(plaintext) != "round trip me" {
		t.Errorf("plaintext = %q", plaintext)
	}
}

func TestWireFieldOrderIsLengthPrefixedLittleEndian(t *testing.T) {
	kp := mustKeyPair(t)
	env, err := envelope.Seal(kp.EncapsulationKey, "key-1", "l", []byte("x"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	wire, err := envelope.Encode(env)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// First field is the 32-byte HMAC tag; its length prefix must read 32
	// little-endian regardless of byte values in the tag itself.
	firstLen := uint32(wire[0]) | uint32(wire[1])<<8 | uint32(wire[2])<<16 | uint32(wire[3])<<24
	if firstLen != 32 {
		t.Errorf("first length prefix = %d, want 32 (hmac)", firstLen)
	}
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	_, err := envelope.Decode([]byte{1, 2, 3})
	if err == nil {
		t.Error("expected error decoding truncated input")
	}
}

func TestDecodeRejectsOversizedLengthPrefix(t *testing.T) {
	// A length prefix claiming more bytes than are actually present.
	data := make([]byte, 8)
	data[0] = 0xFF
	data[1] = 0xFF
	data[2] = 0xFF
	data[3] = 0x7F
	_, err := envelope.Decode(data)
	if err == nil {
		t.Error("expected error decoding oversized length prefix")
	}
}
