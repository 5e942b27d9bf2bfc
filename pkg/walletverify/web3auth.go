package walletverify

import (
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/mahdiidarabi/wallet-signature-verify/internal/hashing"
	"github.com/mahdiidarabi/wallet-signature-verify/internal/sigverify"
	"github.com/mahdiidarabi/wallet-signature-verify/internal/xrpl"
)

const minWeb3AuthSignatureLength = 64

// Web3AuthProvider verifies raw secp256k1 signatures over SHA-512-half of the
// challenge. The signature carries no public key, so candidates are recovered
// and matched against the expected XRPL address.
type Web3AuthProvider struct {
	logger *zap.Logger
}

// NewWeb3AuthProvider creates a Web3Auth provider.
func NewWeb3AuthProvider(logger *zap.Logger) *Web3AuthProvider {
	return &Web3AuthProvider{logger: orNop(logger)}
}

func (p *Web3AuthProvider) Name() string { return "Web3Auth" }

func (p *Web3AuthProvider) Description() string {
	return "Web3Auth - secp256k1 raw signature verification with public key recovery"
}

// ValidateInput requires a challenge and a hex DER signature.
func (p *Web3AuthProvider) ValidateInput(input VerificationInput) error {
	if input.Challenge == nil {
		return fmt.Errorf("web3auth: %w", ErrMissingChallenge)
	}
	if len(input.SignatureData) < minWeb3AuthSignatureLength {
		return fmt.Errorf("%w: web3auth: signature_data too short (expected a DER hex signature)", ErrInvalidInput)
	}
	if !isHexString(input.SignatureData) {
		return fmt.Errorf("%w: web3auth: signature_data must be hexadecimal", ErrInvalidInput)
	}
	return nil
}

// Verify recovers candidate keys for recovery ids 0..3 and verifies with the
// first one whose address matches. When none matches, every check except the
// challenge fails and no address is derived.
func (p *Web3AuthProvider) Verify(input VerificationInput) (*VerificationResult, error) {
	if err := p.ValidateInput(input); err != nil {
		return nil, err
	}
	challenge, _ := input.ChallengeText()

	der, err := hex.DecodeString(input.SignatureData)
	if err != nil {
		return nil, fmt.Errorf("%w: web3auth: %v", ErrInvalidInput, err)
	}
	compact, err := sigverify.DERToCompact(der)
	if err != nil {
		return nil, fmt.Errorf("web3auth: %w", err)
	}

	digest := hashing.Sha512Half([]byte(challenge))
	candidates := sigverify.RecoverCandidates(digest, compact)
	p.logger.Debug("recovered public key candidates", zap.Int("count", len(candidates)))

	for _, c := range candidates {
		derived := xrpl.AddressFromPublicKey(c.PublicKey)
		p.logger.Debug("candidate",
			zap.Uint8("recovery_id", c.RecoveryID),
			zap.String("address", derived),
		)
		if derived != input.ExpectedAddress {
			continue
		}

		outcome := sigverify.Check(c.PublicKey, der, digest)
		p.logger.Info("address match found",
			zap.Uint8("recovery_id", c.RecoveryID),
			zap.Bool("signature_valid", outcome.Valid),
			zap.NamedError("reason", outcome.Reason),
		)
		return newResult(true, true, outcome.Valid, derived, stringPtr(challenge)), nil
	}

	p.logger.Warn("no recovered key matches the expected address",
		zap.String("expected", input.ExpectedAddress),
		zap.Int("candidates", len(candidates)),
	)
	return newResult(false, true, false, "", stringPtr(challenge)), nil
}
