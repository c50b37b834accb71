package constants

import "testing"

// TestCipherSuiteString tests String method for CipherSuite.
func TestCipherSuiteString(t *testing.T) {
	tests := []struct {
		suite CipherSuite
		want  string
	}{
		{CipherSuiteAES256GCM, "AES-256-GCM"},
		{CipherSuiteChaCha20Poly1305, "ChaCha20-Poly1305"},
		{CipherSuite(0x9999), "Unknown"},
	}

	for _, tt := range tests {
		got := tt.suite.String()
		if got != tt.want {
			t.Errorf("CipherSuite(%d).String() = %q, want %q", tt.suite, got, tt.want)
		}
	}
}

// TestCipherSuiteIsSupported tests IsSupported method for CipherSuite.
func TestCipherSuiteIsSupported(t *testing.T) {
	tests := []struct {
		suite CipherSuite
		want  bool
	}{
		{CipherSuiteAES256GCM, true},
		{CipherSuiteChaCha20Poly1305, true},
		{CipherSuite(0x0000), false},
		{CipherSuite(0xFFFF), false},
		{CipherSuite(0x0003), false},
	}

	for _, tt := range tests {
		got := tt.suite.IsSupported()
		if got != tt.want {
			t.Errorf("CipherSuite(%d).IsSupported() = %v, want %v", tt.suite, got, tt.want)
		}
	}
}

// TestConstants verifies constant values using table-driven tests.
func TestConstants(t *testing.T) {
	t.Run("MLKEMSizes", testMLKEMSizes)
	t.Run("AEADParameters", testAEADParameters)
	t.Run("HMACParameters", testHMACParameters)
	t.Run("KDFParameters", testKDFParameters)
	t.Run("EnvelopeParameters", testEnvelopeParameters)
	t.Run("AuthParameters", testAuthParameters)
	t.Run("SwapParameters", testSwapParameters)
}

func testMLKEMSizes(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"MLKEMPublicKeySize", MLKEMPublicKeySize, 1568},
		{"MLKEMPrivateKeySize", MLKEMPrivateKeySize, 3168},
		{"MLKEMCiphertextSize", MLKEMCiphertextSize, 1568},
		{"MLKEMSharedSecretSize", MLKEMSharedSecretSize, 32},
		{"MLKEMPolynomialDegree", MLKEMPolynomialDegree, 256},
		{"MLKEMModuleRank", MLKEMModuleRank, 4},
		{"MLKEMModulus", MLKEMModulus, 3329},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func testAEADParameters(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"AESKeySize", AESKeySize, 32},
		{"AESNonceSize", AESNonceSize, 12},
		{"AESTagSize", AESTagSize, 16},
		{"ChaCha20KeySize", ChaCha20KeySize, 32},
		{"ChaCha20NonceSize", ChaCha20NonceSize, 12},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func testHMACParameters(t *testing.T) {
	if HMACKeySize != 32 {
		t.Errorf("HMACKeySize = %d, want 32", HMACKeySize)
	}
	if HMACTagSize != 32 {
		t.Errorf("HMACTagSize = %d, want 32", HMACTagSize)
	}
}

func testKDFParameters(t *testing.T) {
	if HKDFOutputSize != AESKeySize+HMACKeySize {
		t.Errorf("HKDFOutputSize = %d, want %d", HKDFOutputSize, AESKeySize+HMACKeySize)
	}
	if EnvelopeKDFInfoPrefix == "" {
		t.Error("EnvelopeKDFInfoPrefix must not be empty")
	}
}

func testEnvelopeParameters(t *testing.T) {
	if MaxContextLabelSize <= 0 {
		t.Error("MaxContextLabelSize must be positive")
	}
	if EnvelopeLengthPrefixSize != 4 {
		t.Errorf("EnvelopeLengthPrefixSize = %d, want 4", EnvelopeLengthPrefixSize)
	}
}

func testAuthParameters(t *testing.T) {
	if AuthNonceSize != 32 {
		t.Errorf("AuthNonceSize = %d, want 32", AuthNonceSize)
	}
	if AuthNonceTTLSeconds <= 0 {
		t.Error("AuthNonceTTLSeconds must be positive")
	}
	if SessionTTLSeconds <= AuthNonceTTLSeconds {
		t.Error("SessionTTLSeconds should exceed AuthNonceTTLSeconds")
	}
	if EthereumSignatureSize != 65 {
		t.Errorf("EthereumSignatureSize = %d, want 65", EthereumSignatureSize)
	}
}

func testSwapParameters(t *testing.T) {
	tests := []struct {
		name  string
		value int
	}{
		{"DefaultSwapTimeoutMinutes", DefaultSwapTimeoutMinutes},
		{"DefaultEstimatedTimeMinutes", DefaultEstimatedTimeMinutes},
		{"AdapterCallTimeoutSeconds", AdapterCallTimeoutSeconds},
		{"RecoveryGraceWindowSeconds", RecoveryGraceWindowSeconds},
		{"KeyRotationDefaultThresholdDays", KeyRotationDefaultThresholdDays},
	}
	for _, tt := range tests {
		if tt.value <= 0 {
			t.Errorf("%s should be positive", tt.name)
		}
	}
}

// TestCipherSuiteUniqueness ensures cipher suite IDs are unique.
func TestCipherSuiteUniqueness(t *testing.T) {
	if CipherSuiteAES256GCM == CipherSuiteChaCha20Poly1305 {
		t.Error("Cipher suite IDs must be unique")
	}
}

// TestCipherSuiteIsFIPSApproved tests IsFIPSApproved method for CipherSuite.
func TestCipherSuiteIsFIPSApproved(t *testing.T) {
	tests := []struct {
		suite CipherSuite
		want  bool
	}{
		{CipherSuiteAES256GCM, true},
		{CipherSuiteChaCha20Poly1305, false},
		{CipherSuite(0x0000), false},
		{CipherSuite(0xFFFF), false},
		{CipherSuite(0x0003), false},
	}

	for _, tt := range tests {
		got := tt.suite.IsFIPSApproved()
		if got != tt.want {
			t.Errorf("CipherSuite(%d).IsFIPSApproved() = %v, want %v", tt.suite, got, tt.want)
		}
	}
}

// TestFIPSApprovedImpliesSupported verifies that all FIPS approved suites are also supported.
func TestFIPSApprovedImpliesSupported(t *testing.T) {
	suites := []CipherSuite{CipherSuiteAES256GCM, CipherSuiteChaCha20Poly1305}
	for _, s := range suites {
		if s.IsFIPSApproved() && !s.IsSupported() {
			t.Errorf("CipherSuite %v is FIPS approved but not supported", s)
		}
	}
}

func TestUsageCategoryValues(t *testing.T) {
	tests := []UsageCategory{UsageCategoryBridge, UsageCategorySession, UsageCategorySystem}
	seen := map[UsageCategory]bool{}
	for _, c := range tests {
		if c == "" {
			t.Error("usage category must not be empty")
		}
		if seen[c] {
			t.Errorf("duplicate usage category %q", c)
		}
		seen[c] = true
	}
}

func TestChainTypeValues(t *testing.T) {
	if ChainEthereum == ChainNear {
		t.Error("chain types must be distinct")
	}
}

func TestUserTierValues(t *testing.T) {
	tiers := []UserTier{UserTierFree, UserTierPremium, UserTierAdmin}
	seen := map[UserTier]bool{}
	for _, tier := range tiers {
		if seen[tier] {
			t.Errorf("duplicate user tier %q", tier)
		}
		seen[tier] = true
	}
}
