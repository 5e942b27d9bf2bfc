package sigverify

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// CompactSize is the size of an r||s signature.
const CompactSize = 64

var (
	// ErrInvalidDER is returned for signatures that are not strict DER.
	ErrInvalidDER = errors.New("invalid DER signature")
	// ErrHighS is returned for signatures whose S is above half the curve order.
	ErrHighS = errors.New("signature S is not canonical")
)

// secp256k1HalfOrder is N/2.
var secp256k1HalfOrder, _ = new(big.Int).SetString("7FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF5D576E7357A4501DDFE92F46681B20A0", 16)

// DERToCompact converts a strict DER ECDSA signature into 32-byte big-endian
// r followed by 32-byte big-endian s.
func DERToCompact(der []byte) ([CompactSize]byte, error) {
	var out [CompactSize]byte

	if _, err := ecdsa.ParseDERSignature(der); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidDER, err)
	}

	r, s, err := derIntegers(der)
	if err != nil {
		return out, err
	}
	r.FillBytes(out[:32])
	s.FillBytes(out[32:])
	return out, nil
}

// derIntegers reads the r and s integers of a DER SEQUENCE.
func derIntegers(der []byte) (*big.Int, *big.Int, error) {
	r, s := new(big.Int), new(big.Int)

	input := cryptobyte.String(der)
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, asn1.SEQUENCE) || !input.Empty() ||
		!inner.ReadASN1Integer(r) || !inner.ReadASN1Integer(s) || !inner.Empty() {
		return nil, nil, fmt.Errorf("%w: malformed sequence", ErrInvalidDER)
	}
	if r.Sign() <= 0 || s.Sign() <= 0 || r.BitLen() > 256 || s.BitLen() > 256 {
		return nil, nil, fmt.Errorf("%w: integer out of range", ErrInvalidDER)
	}
	return r, s, nil
}

// isLowS reports whether the S value of a DER signature is at most N/2.
func isLowS(der []byte) bool {
	_, s, err := derIntegers(der)
	return err == nil && s.Cmp(secp256k1HalfOrder) <= 0
}
