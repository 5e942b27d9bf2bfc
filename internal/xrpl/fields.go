package xrpl

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidHex is returned when a blob is not a valid hex string.
var ErrInvalidHex = errors.New("invalid hex blob")

// TransactionFields holds the fields verification reads out of a signed blob.
// A field that was not present, or whose declared length ran past the end of
// the blob, is empty.
type TransactionFields struct {
	SigningPubKey  []byte
	TxnSignature   []byte
	ChallengeField []byte
}

// HasSigningMaterial reports whether both the key and the signature were found.
func (f *TransactionFields) HasSigningMaterial() bool {
	return len(f.SigningPubKey) > 0 && len(f.TxnSignature) > 0
}

// Challenge returns the challenge field as text. Invalid UTF-8 sequences are
// replaced with U+FFFD.
func (f *TransactionFields) Challenge() string {
	return strings.ToValidUTF8(string(f.ChallengeField), "\uFFFD")
}

// DecodeBlob decodes an upper- or lowercase hex blob.
func DecodeBlob(hexBlob string) ([]byte, error) {
	raw, err := hex.DecodeString(hexBlob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return raw, nil
}

// ExtractFields decodes hexBlob and extracts SigningPubKey, TxnSignature and
// the challenge memo. Only the first occurrence of each field is kept. A
// field whose declared length runs past the end of the blob is left empty and
// scanning resumes after its length byte.
//
// Within the Memos array the challenge is the MemoData payload (0x7D) when it
// is longer than the MemoType payload (0x7C), otherwise the MemoType payload.
func ExtractFields(hexBlob string) (*TransactionFields, error) {
	raw, err := DecodeBlob(hexBlob)
	if err != nil {
		return nil, err
	}
	return ExtractFieldsBytes(raw), nil
}

// ExtractFieldsBytes is ExtractFields over an already decoded blob.
func ExtractFieldsBytes(raw []byte) *TransactionFields {
	fields := &TransactionFields{}
	var memoType, memoData []byte
	var seenPubKey, seenSig, seenMemoType, seenMemoData bool

	sc := newScanner(raw)
	for {
		tok, ok := sc.next()
		if !ok {
			break
		}
		switch tok.kind {
		case tokenSigningPubKey:
			if !seenPubKey {
				fields.SigningPubKey = clone(tok.payload)
				seenPubKey = true
			}
		case tokenTxnSignature:
			if !seenSig {
				fields.TxnSignature = clone(tok.payload)
				seenSig = true
			}
		case tokenMemoType:
			if !seenMemoType {
				memoType = clone(tok.payload)
				seenMemoType = true
			}
		case tokenMemoData:
			if !seenMemoData {
				memoData = clone(tok.payload)
				seenMemoData = true
			}
		}
	}

	if len(memoData) > len(memoType) {
		fields.ChallengeField = memoData
	} else {
		fields.ChallengeField = memoType
	}
	return fields
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
