// Package evm verifies Ethereum personal_sign (EIP-191) signatures by
// recovering the signer address.
package evm

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureSize is the size of an r||s||v signature.
const SignatureSize = crypto.SignatureLength

var (
	ErrSignatureHex    = errors.New("signature is not valid hex")
	ErrSignatureLength = errors.New("signature must be 65 bytes")
	ErrRecoveryID      = errors.New("unsupported recovery id")
	ErrRecovery        = errors.New("failed to recover signer")
)

// Recovered is the outcome of a personal_sign verification.
type Recovered struct {
	// Address is the recovered signer, lowercase 0x-prefixed hex.
	Address string
	// Matches reports whether Address equals the expected address,
	// ignoring case.
	Matches bool
}

// DecodeSignature strips an optional 0x prefix and decodes a 65-byte
// signature.
func DecodeSignature(signatureHex string) ([]byte, error) {
	raw, err := hex.DecodeString(strip0x(signatureHex))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureHex, err)
	}
	if len(raw) != SignatureSize {
		return nil, fmt.Errorf("%w, got %d", ErrSignatureLength, len(raw))
	}
	return raw, nil
}

// RecoverAddress recovers the address that personal_signed message.
// v may be 0/1, 27/28 or an EIP-155 value.
func RecoverAddress(signature []byte, message string) (common.Address, error) {
	if len(signature) != SignatureSize {
		return common.Address{}, fmt.Errorf("%w, got %d", ErrSignatureLength, len(signature))
	}

	sig := make([]byte, SignatureSize)
	copy(sig, signature)
	v, err := normalizeV(sig[crypto.RecoveryIDOffset])
	if err != nil {
		return common.Address{}, err
	}
	sig[crypto.RecoveryIDOffset] = v

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrRecovery, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify recovers the signer of message and compares it with
// expectedAddress. A signer mismatch is reported in the result. Malformed
// signatures and failed recovery are errors.
func Verify(signatureHex, message, expectedAddress string) (*Recovered, error) {
	sig, err := DecodeSignature(signatureHex)
	if err != nil {
		return nil, err
	}
	addr, err := RecoverAddress(sig, message)
	if err != nil {
		return nil, err
	}

	recovered := strings.ToLower(addr.Hex())
	expected := "0x" + strings.ToLower(strip0x(expectedAddress))
	return &Recovered{Address: recovered, Matches: recovered == expected}, nil
}

// IsAddress reports whether s is 40 hex characters with an optional 0x prefix.
func IsAddress(s string) bool {
	return common.IsHexAddress(s)
}

// IsSignatureHex reports whether s is 130 hex characters with an optional 0x
// prefix.
func IsSignatureHex(s string) bool {
	body := strip0x(s)
	return len(body) == 2*SignatureSize && isHex(body)
}

func normalizeV(v byte) (byte, error) {
	switch {
	case v <= 1:
		return v, nil
	case v == 27 || v == 28:
		return v - 27, nil
	case v >= 35:
		return (v - 35) % 2, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrRecoveryID, v)
}

func strip0x(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}
