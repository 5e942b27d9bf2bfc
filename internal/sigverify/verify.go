// Package sigverify verifies XRPL-style signatures over a 32-byte digest and
// recovers candidate secp256k1 keys from recoverable signatures.
package sigverify

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ed25519Prefix marks an XRPL Ed25519 public key.
const ed25519Prefix = 0xED

// Algorithm is the signature scheme selected from the public key.
type Algorithm string

const (
	AlgorithmNone      Algorithm = "none"
	AlgorithmEd25519   Algorithm = "ed25519"
	AlgorithmSecp256k1 Algorithm = "secp256k1"
)

var (
	ErrEmptyPublicKey   = errors.New("empty public key")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrSizeMismatch     = errors.New("unexpected key or signature size")
	ErrMismatch         = errors.New("signature does not match")
)

// Outcome describes a verification attempt. Reason is nil only when Valid is
// true.
type Outcome struct {
	Algorithm Algorithm
	Valid     bool
	Reason    error
}

// Verify reports whether signature is valid for digest under pubkey.
//
// A public key starting with 0xED selects Ed25519: the key must be 33 bytes
// and the signature 64 bytes. Any other key is a secp256k1 key with a DER
// signature. Malformed input is reported as false, never as an error.
func Verify(pubkey, signature []byte, digest [32]byte) bool {
	return Check(pubkey, signature, digest).Valid
}

// Check is Verify with the selected algorithm and the reason for a failure.
func Check(pubkey, signature []byte, digest [32]byte) Outcome {
	if len(pubkey) == 0 {
		return Outcome{Algorithm: AlgorithmNone, Reason: ErrEmptyPublicKey}
	}
	if pubkey[0] == ed25519Prefix {
		return checkEd25519(pubkey, signature, digest)
	}
	return checkSecp256k1(pubkey, signature, digest)
}

func checkEd25519(pubkey, signature []byte, digest [32]byte) Outcome {
	out := Outcome{Algorithm: AlgorithmEd25519}
	if len(pubkey) != 1+ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		out.Reason = fmt.Errorf("%w: pubkey=%d sig=%d (expected 33 and 64)", ErrSizeMismatch, len(pubkey), len(signature))
		return out
	}
	if !ed25519.Verify(ed25519.PublicKey(pubkey[1:]), digest[:], signature) {
		out.Reason = ErrMismatch
		return out
	}
	out.Valid = true
	return out
}

func checkSecp256k1(pubkey, signature []byte, digest [32]byte) Outcome {
	out := Outcome{Algorithm: AlgorithmSecp256k1}

	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		out.Reason = fmt.Errorf("%w: %v", ErrInvalidDER, err)
		return out
	}
	if !isLowS(signature) {
		out.Reason = ErrHighS
		return out
	}
	pub, err := secp256k1.ParsePubKey(pubkey)
	if err != nil {
		out.Reason = fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		return out
	}
	if !sig.Verify(digest[:], pub) {
		out.Reason = ErrMismatch
		return out
	}
	out.Valid = true
	return out
}
