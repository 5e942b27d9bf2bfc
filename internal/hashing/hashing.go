// Package hashing holds the digest functions shared by the XRPL and
// recoverable-ECDSA verification paths.
package hashing

import (
	"crypto/sha256"
	"crypto/sha512"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // RIPEMD-160 is fixed by the XRPL address format
)

// HashSize is the size of a SHA-512-half digest.
const HashSize = 32

// AccountIDSize is the size of an XRPL account identifier.
const AccountIDSize = 20

// Sha512Half returns the first 32 bytes of SHA-512(data).
func Sha512Half(data []byte) [HashSize]byte {
	full := sha512.Sum512(data)
	var out [HashSize]byte
	copy(out[:], full[:HashSize])
	return out
}

// Sha256d returns SHA-256(SHA-256(data)).
func Sha256d(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// AccountID returns RIPEMD160(SHA256(pubkey)).
func AccountID(pubkey []byte) [AccountIDSize]byte {
	sha := sha256.Sum256(pubkey)
	h := ripemd160.New()
	h.Write(sha[:])
	var out [AccountIDSize]byte
	copy(out[:], h.Sum(nil))
	return out
}
