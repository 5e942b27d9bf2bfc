package xrpl

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/mahdiidarabi/wallet-signature-verify/internal/hashing"
)

const (
	accountIDVersion = 0x00
	checksumSize     = 4
)

var (
	// ErrInvalidAddress is returned for strings that are not classic XRPL addresses.
	ErrInvalidAddress = errors.New("invalid XRPL address")
	// ErrChecksum is returned when an address decodes but its checksum does not match.
	ErrChecksum = errors.New("XRPL address checksum mismatch")
)

// Alphabet is the XRPL base58 dictionary.
var Alphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

// EncodeAccountID renders a 20-byte account ID as a classic "r..." address.
func EncodeAccountID(id [hashing.AccountIDSize]byte) string {
	payload := make([]byte, 0, 1+len(id)+checksumSize)
	payload = append(payload, accountIDVersion)
	payload = append(payload, id[:]...)
	sum := hashing.Sha256d(payload)
	payload = append(payload, sum[:checksumSize]...)
	return base58.EncodeAlphabet(payload, Alphabet)
}

// DecodeAccountID parses a classic address back into its account ID.
func DecodeAccountID(address string) ([hashing.AccountIDSize]byte, error) {
	var id [hashing.AccountIDSize]byte

	raw, err := base58.DecodeAlphabet(address, Alphabet)
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != 1+hashing.AccountIDSize+checksumSize {
		return id, fmt.Errorf("%w: decoded length %d", ErrInvalidAddress, len(raw))
	}
	if raw[0] != accountIDVersion {
		return id, fmt.Errorf("%w: version byte 0x%02x", ErrInvalidAddress, raw[0])
	}

	body, check := raw[:len(raw)-checksumSize], raw[len(raw)-checksumSize:]
	sum := hashing.Sha256d(body)
	if !bytes.Equal(sum[:checksumSize], check) {
		return id, ErrChecksum
	}

	copy(id[:], body[1:])
	return id, nil
}

// AddressFromPublicKey derives the classic address of a 33-byte secp256k1 or
// 0xED-prefixed Ed25519 public key.
func AddressFromPublicKey(pubkey []byte) string {
	return EncodeAccountID(hashing.AccountID(pubkey))
}

// IsValidAddress reports whether address is a well-formed classic address.
func IsValidAddress(address string) bool {
	_, err := DecodeAccountID(address)
	return err == nil
}
