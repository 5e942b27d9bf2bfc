package xrpl

// Unsigned is the signing payload recovered from a signed blob.
type Unsigned struct {
	// Blob is SigningPrefix followed by the blob without its TxnSignature.
	Blob []byte
	// SignatureRemoved is false when no TxnSignature directly followed the
	// SigningPubKey. The blob is still usable but will not match a signature.
	SignatureRemoved bool
}

// ReconstructUnsigned decodes hexBlob and rebuilds the payload the wallet
// signed. A TxnSignature field that directly follows a SigningPubKey field is
// dropped (tag, length and payload). Every other byte is copied unchanged.
func ReconstructUnsigned(hexBlob string) (*Unsigned, error) {
	raw, err := DecodeBlob(hexBlob)
	if err != nil {
		return nil, err
	}
	return ReconstructUnsignedBytes(raw), nil
}

// ReconstructUnsignedBytes is ReconstructUnsigned over an already decoded blob.
func ReconstructUnsignedBytes(raw []byte) *Unsigned {
	out := make([]byte, 0, len(SigningPrefix)+len(raw))
	out = append(out, SigningPrefix...)

	removed := false
	afterPubKey := false

	sc := newScanner(raw)
	for {
		tok, ok := sc.next()
		if !ok {
			break
		}
		if tok.kind == tokenTxnSignature && afterPubKey {
			removed = true
			afterPubKey = false
			continue
		}
		afterPubKey = tok.kind == tokenSigningPubKey
		out = append(out, raw[tok.start:tok.end]...)
	}

	return &Unsigned{Blob: out, SignatureRemoved: removed}
}
