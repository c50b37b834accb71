// Package kembridgecore provides the core cryptography, key management,
// swap coordination, and authentication building blocks for KEMBridge, a
// post-quantum cross-chain value-transfer bridge between Ethereum and NEAR.
//
// # Quick Start
//
// Sealing a swap's routing envelope under a quantum-resistant key:
//
//	import "github.com/kembridge/kembridge-core/pkg/envelope"
//
//	env, _ := envelope.Seal(pub, keyID, "swap-routing", plaintext)
//	recovered, _ := envelope.Open(priv, "swap-routing", env)
//
// For the full swap lifecycle, see pkg/swap.Coordinator, which drives
// init_swap/execute_swap/get_swap over a chain-adapter interface and a
// key manager.
//
// # Package Structure
//
//   - pkg/qcrypto: ML-KEM-1024 primitives, AEAD, KDF, MAC, constant-time helpers
//   - pkg/envelope: hybrid KEM+AEAD sealed-envelope codec (C2)
//   - pkg/keymanager: per-owner ML-KEM-1024 key lifecycle and rotation (C3)
//   - pkg/swap: cross-chain swap coordinator and FSM (C4)
//   - pkg/auth: wallet-signature nonce challenge/response authentication (C5)
//   - pkg/chainadapter: reference Ethereum/NEAR chain adapters
//   - pkg/ratelimit: per-key token bucket rate limiting
//   - pkg/metrics: metrics, tracing, structured logging, and health checks
//   - internal/config: typed process configuration
//   - internal/constants: security parameters and protocol constants
//   - internal/errors: shared error kinds and sentinels
//
// # Security Properties
//
//   - Post-quantum confidentiality: ML-KEM-1024 (NIST Category 5, ~256-bit security)
//   - Authenticated encryption: AES-256-GCM over the KEM-derived key
//   - Per-key rotation with bounded exposure windows
//   - Constant-time comparison for all integrity checks
//
// # Testing
//
//	go test ./...                      # All tests
//	go test ./pkg/qcrypto              # Cryptographic primitives
//
// # References
//
//   - NIST FIPS 203: Module-Lattice-Based Key-Encapsulation Mechanism Standard
//   - RFC 5869: HMAC-based Extract-and-Expand Key Derivation Function (HKDF)
package kembridgecore
