package sigverify

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// compactHeaderBase is the first byte of a compact signature for a compressed
// key with recovery id 0.
const compactHeaderBase = 27 + 4

// RecoveryIDs is the number of recovery ids tried per signature.
const RecoveryIDs = 4

// Candidate is a public key recovered with a given recovery id.
type Candidate struct {
	RecoveryID byte
	PublicKey  []byte // 33-byte compressed
}

// RecoverCandidates returns every compressed public key that recovers from
// the r||s signature over digest, in ascending recovery id order. Recovery
// ids that yield no key are skipped.
func RecoverCandidates(digest [32]byte, compact [CompactSize]byte) []Candidate {
	var candidates []Candidate
	for id := byte(0); id < RecoveryIDs; id++ {
		pub, ok := recoverWithID(digest, compact, id)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{RecoveryID: id, PublicKey: pub})
	}
	return candidates
}

// RecoverPublicKeys is RecoverCandidates without the recovery ids.
func RecoverPublicKeys(digest [32]byte, compact [CompactSize]byte) [][]byte {
	candidates := RecoverCandidates(digest, compact)
	keys := make([][]byte, 0, len(candidates))
	for _, c := range candidates {
		keys = append(keys, c.PublicKey)
	}
	return keys
}

func recoverWithID(digest [32]byte, compact [CompactSize]byte, id byte) ([]byte, bool) {
	var sig [1 + CompactSize]byte
	sig[0] = compactHeaderBase + id
	copy(sig[1:], compact[:])

	pub, _, err := ecdsa.RecoverCompact(sig[:], digest[:])
	if err != nil {
		return nil, false
	}
	return pub.SerializeCompressed(), true
}
