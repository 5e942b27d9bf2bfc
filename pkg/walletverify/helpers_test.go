package walletverify

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/mahdiidarabi/wallet-signature-verify/internal/hashing"
	"github.com/mahdiidarabi/wallet-signature-verify/internal/xrpl"
)

// Signed Xaman SignIn blobs from the same account.
const (
	xamanBlob1 = "732102DB48115142459C05AA0D26F3752ADC9C5AF8348ADCF22A8CA73D5DF1839A190574473045022100F9F3274CD7036053082EBDECEA98FCEF3125D1FCE881C903ED68D108760588FE022068F54A1AB529869E48B1A242903A23AC117A699AF65179BD545E532119E27AA781143680F8503E56B53239FE0F5EB782285B3FE4DDE8F9EA7C04417574687D626E7566662E746563683A313736303032313430343A64343462373337322D383530332D346233392D393338622D3866633063353464343262363A6C6F67696E3A726E79427A4D48626D4A4D7A7A686B344E6F797975714B7A73616866484669415261E1F1"
	xamanChallenge1 = "nuff.tech:1760021404:d44b7372-8503-4b39-938b-8fc0c54d42b6:login:rnyBzMHbmJMzzhk4NoyyuqKzsahfHFiARa"

	xamanBlob2 = "732102DB48115142459C05AA0D26F3752ADC9C5AF8348ADCF22A8CA73D5DF1839A190574463044022001BFEFF7D1E37477962750D892E42BD971D3282A88BF863E40E29359715C641C022012778D96CBD8CB33C9CD3AC872B1A53509C8608443953837FF6B284807CD39BA81143680F8503E56B53239FE0F5EB782285B3FE4DDE8F9EA7C04417574687D626E7566662E746563683A313736303031373736363A64326437356537372D366232312D343339362D616233382D6162666262656135313234303A6C6F67696E3A726E79427A4D48626D4A4D7A7A686B344E6F797975714B7A73616866484669415261E1F1"
	xamanChallenge2 = "nuff.tech:1760017766:d2d75e77-6b21-4396-ab38-abfbbea51240:login:rnyBzMHbmJMzzhk4NoyyuqKzsahfHFiARa"

	// xamanBlob1 with the last signature byte changed.
	xamanTampered = "732102DB48115142459C05AA0D26F3752ADC9C5AF8348ADCF22A8CA73D5DF1839A190574473045022100F9F3274CD7036053082EBDECEA98FCEF3125D1FCE881C903ED68D108760588FE022068F54A1AB529869E48B1A242903A23AC117A699AF65179BD545E532119E27AFF81143680F8503E56B53239FE0F5EB782285B3FE4DDE8F9EA7C04417574687D626E7566662E746563683A313736303032313430343A64343462373337322D383530332D346233392D393338622D3866633063353464343262363A6C6F67696E3A726E79427A4D48626D4A4D7A7A686B344E6F797975714B7A73616866484669415261E1F1"

	xamanAddress = "rnyBzMHbmJMzzhk4NoyyuqKzsahfHFiARa"
)

// Personal-sign signature produced by a WalletConnect wallet.
const (
	evmSignature = "0xe5092134a1e3a91dafe7095916466a00d93fa01c540914fc3a010c05220281eb1f8fbcb34ce784875cd4a01cabef782c3c0f7e33d508410e957fb01c1c5b10071b"
	evmAddress   = "0x33f9D9f0348c1a4Bace2ad839903bBD47F430651"
	evmChallenge = "nuff.tech:1760706960:afba42ef-fbb7-4504-8915-583046d6eb26:login:0x33f9D9f0348c1a4Bace2ad839903bBD47F430651"
)

// web3authSigner signs challenges the way Web3Auth does: DER secp256k1 over
// SHA-512-half of the challenge.
type web3authSigner struct {
	priv    *secp256k1.PrivateKey
	address string
}

func newWeb3AuthSigner(t *testing.T, seed byte) *web3authSigner {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = seed
	}
	priv := secp256k1.PrivKeyFromBytes(key)
	require.NotNil(t, priv)
	return &web3authSigner{
		priv:    priv,
		address: xrpl.AddressFromPublicKey(priv.PubKey().SerializeCompressed()),
	}
}

func (s *web3authSigner) sign(challenge string) string {
	digest := hashing.Sha512Half([]byte(challenge))
	return hex.EncodeToString(ecdsa.Sign(s.priv, digest[:]).Serialize())
}

// solanaSigner signs challenges with a deterministic Ed25519 key.
type solanaSigner struct {
	priv    ed25519.PrivateKey
	address string
}

func newSolanaSigner(seed byte) *solanaSigner {
	raw := make([]byte, ed25519.SeedSize)
	for i := range raw {
		raw[i] = seed
	}
	priv := ed25519.NewKeyFromSeed(raw)
	return &solanaSigner{
		priv:    priv,
		address: base58.Encode(priv.Public().(ed25519.PublicKey)),
	}
}

func (s *solanaSigner) sign(challenge string) string {
	return base58.Encode(ed25519.Sign(s.priv, []byte(challenge)))
}

// xamanSigner builds and signs full SignIn blobs the way Xaman does: the
// SHA-512-half of "STX\0" plus the blob without its TxnSignature.
type xamanSigner struct {
	pubKey  []byte
	address string
	sign    func(digest [32]byte) []byte
}

func newXamanSecp256k1Signer(seed byte) *xamanSigner {
	key := make([]byte, 32)
	for i := range key {
		key[i] = seed
	}
	priv := secp256k1.PrivKeyFromBytes(key)
	pub := priv.PubKey().SerializeCompressed()
	return &xamanSigner{
		pubKey:  pub,
		address: xrpl.AddressFromPublicKey(pub),
		sign: func(digest [32]byte) []byte {
			return ecdsa.Sign(priv, digest[:]).Serialize()
		},
	}
}

func newXamanEd25519Signer(seed byte) *xamanSigner {
	raw := make([]byte, ed25519.SeedSize)
	for i := range raw {
		raw[i] = seed
	}
	priv := ed25519.NewKeyFromSeed(raw)
	pub := append([]byte{0xED}, priv.Public().(ed25519.PublicKey)...)
	return &xamanSigner{
		pubKey:  pub,
		address: xrpl.AddressFromPublicKey(pub),
		sign: func(digest [32]byte) []byte {
			return ed25519.Sign(priv, digest[:])
		},
	}
}

// signIn returns a signed SignIn blob carrying challenge in its memo. The
// blob has the common transaction fields, including a LastLedgerSequence
// with a two byte field header.
func (s *xamanSigner) signIn(challenge, fee string, lastLedger uint32) string {
	accountID := hashing.AccountID(s.pubKey)

	head := "120000" + // TransactionType
		"2280000000" + // Flags
		"2400000001" + // Sequence
		fmt.Sprintf("201B%08X", lastLedger) + // LastLedgerSequence
		"68" + fee + // Fee
		vlField("73", s.pubKey)
	tail := vlField("81", accountID[:]) +
		"F9EA" + vlField("7C", []byte("Auth")) + vlField("7D", []byte(challenge)) + "E1F1"

	unsigned, err := hex.DecodeString(head + tail)
	if err != nil {
		panic(err)
	}
	digest := hashing.Sha512Half(append(append([]byte{}, xrpl.SigningPrefix...), unsigned...))
	return strings.ToUpper(head + vlField("74", s.sign(digest)) + tail)
}

func vlField(tag string, payload []byte) string {
	return fmt.Sprintf("%s%02X%X", tag, len(payload), payload)
}

type verification struct {
	wallet  string
	outcome string
}

// fakeRecorder collects telemetry.
type fakeRecorder struct {
	mu            sync.Mutex
	verifications []verification
	failures      map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{failures: make(map[string]int)}
}

func (r *fakeRecorder) RecordVerification(wallet, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verifications = append(r.verifications, verification{wallet: wallet, outcome: outcome})
}

func (r *fakeRecorder) RecordCheckFailure(wallet, check string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[wallet+"/"+check]++
}

func (r *fakeRecorder) outcomes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.verifications))
	for _, v := range r.verifications {
		out = append(out, v.outcome)
	}
	return out
}

// fakeGuard is an in-memory ReplayGuard that ignores expiry.
type fakeGuard struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{seen: make(map[string]bool)}
}

func (g *fakeGuard) Consume(_ context.Context, key string, _ time.Duration) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}
