//go:build !fips
// +build !fips

// Package qcrypto implements post-quantum and symmetric cryptographic
// primitives for KEMBridge.
//
// This file is compiled when the "fips" build tag is NOT specified. In
// standard mode, all supported algorithms are available.
package qcrypto

// FIPSMode reports whether the binary was built in FIPS mode. When false,
// both supported AEAD suites (AES-256-GCM and ChaCha20-Poly1305) are
// available.
func FIPSMode() bool { return false }
