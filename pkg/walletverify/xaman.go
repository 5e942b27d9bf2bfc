package walletverify

import (
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/mahdiidarabi/wallet-signature-verify/internal/hashing"
	"github.com/mahdiidarabi/wallet-signature-verify/internal/sigverify"
	"github.com/mahdiidarabi/wallet-signature-verify/internal/xrpl"
)

// minXamanBlobLength is the shortest hex blob accepted as a signed SignIn.
const minXamanBlobLength = 100

// XamanProvider verifies XRPL SignIn transactions signed by Xaman (formerly
// Xumm). The signed blob carries the public key, the signature and the
// challenge as a memo.
type XamanProvider struct {
	logger *zap.Logger
}

// NewXamanProvider creates a Xaman provider.
func NewXamanProvider(logger *zap.Logger) *XamanProvider {
	return &XamanProvider{logger: orNop(logger)}
}

func (p *XamanProvider) Name() string { return "Xaman" }

func (p *XamanProvider) Description() string {
	return "Xaman Wallet (formerly Xumm) - XRPL SignIn transactions"
}

// ValidateInput requires a hex blob of at least 100 characters.
func (p *XamanProvider) ValidateInput(input VerificationInput) error {
	if len(input.SignatureData) < minXamanBlobLength {
		return fmt.Errorf("%w: xaman: signature_data too short (expected a complete XRPL hex blob)", ErrInvalidInput)
	}
	if !isHexString(input.SignatureData) {
		return fmt.Errorf("%w: xaman: signature_data must be hexadecimal", ErrInvalidInput)
	}
	return nil
}

// Verify checks that the blob's public key derives to the expected address,
// that its memo carries the expected challenge (when one is given), and that
// the signature covers the unsigned blob.
func (p *XamanProvider) Verify(input VerificationInput) (*VerificationResult, error) {
	if err := p.ValidateInput(input); err != nil {
		return nil, err
	}

	raw, err := xrpl.DecodeBlob(input.SignatureData)
	if err != nil {
		return nil, fmt.Errorf("xaman: %w", err)
	}

	fields := xrpl.ExtractFieldsBytes(raw)
	p.logger.Debug("extracted blob fields",
		zap.Int("pubkey_bytes", len(fields.SigningPubKey)),
		zap.Int("signature_bytes", len(fields.TxnSignature)),
		zap.Int("challenge_bytes", len(fields.ChallengeField)),
	)
	if !fields.HasSigningMaterial() {
		return nil, fmt.Errorf("xaman: %w", ErrMissingSigningMaterial)
	}

	derived := xrpl.AddressFromPublicKey(fields.SigningPubKey)
	addressValid := derived == input.ExpectedAddress
	p.logger.Info("address check",
		zap.Bool("valid", addressValid),
		zap.String("derived", derived),
	)

	challengeValid, found := memoChallenge(fields, input)
	if _, ok := input.ChallengeText(); ok {
		p.logger.Info("challenge check", zap.Bool("valid", challengeValid))
	}

	signatureValid := p.verifySignature(raw, fields)

	return newResult(addressValid, challengeValid, signatureValid, derived, found), nil
}

// memoChallenge compares the memo with the expected challenge. Without an
// expected challenge the check passes and nothing is reported as found.
func memoChallenge(fields *TransactionFields, input VerificationInput) (bool, *string) {
	expected, ok := input.ChallengeText()
	if !ok {
		return true, nil
	}
	if len(fields.ChallengeField) == 0 {
		return false, nil
	}
	memo := fields.Challenge()
	return memo == expected, &memo
}

func (p *XamanProvider) verifySignature(raw []byte, fields *TransactionFields) bool {
	unsigned := xrpl.ReconstructUnsignedBytes(raw)
	if !unsigned.SignatureRemoved {
		p.logger.Warn("TxnSignature field not found next to SigningPubKey")
	}
	p.logger.Debug("unsigned blob reconstructed",
		zap.Int("bytes", len(unsigned.Blob)),
		zap.String("hex", hex.EncodeToString(unsigned.Blob)),
	)

	digest := hashing.Sha512Half(unsigned.Blob)
	outcome := sigverify.Check(fields.SigningPubKey, fields.TxnSignature, digest)
	p.logger.Info("signature check",
		zap.Bool("valid", outcome.Valid),
		zap.String("algorithm", string(outcome.Algorithm)),
		zap.NamedError("reason", outcome.Reason),
	)
	return outcome.Valid
}
