package walletverify

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// SolanaProvider verifies Ed25519 message signatures where the address is
// the base58 public key itself.
type SolanaProvider struct {
	logger *zap.Logger
}

// NewSolanaProvider creates a Solana provider.
func NewSolanaProvider(logger *zap.Logger) *SolanaProvider {
	return &SolanaProvider{logger: orNop(logger)}
}

func (p *SolanaProvider) Name() string { return "Solana" }

func (p *SolanaProvider) Description() string {
	return "Solana wallets (Ed25519 signatures)"
}

// ValidateInput requires a challenge, a base58 address of 32 bytes and a
// base58 signature of 64 bytes.
func (p *SolanaProvider) ValidateInput(input VerificationInput) error {
	if input.Challenge == nil {
		return fmt.Errorf("solana: %w", ErrMissingChallenge)
	}
	_, _, err := parseSolanaInput(input)
	return err
}

// Verify checks the signature over the raw challenge bytes. The address is
// valid exactly when the signature is.
func (p *SolanaProvider) Verify(input VerificationInput) (*VerificationResult, error) {
	if err := p.ValidateInput(input); err != nil {
		return nil, err
	}
	challenge, _ := input.ChallengeText()

	pub, sig, err := parseSolanaInput(input)
	if err != nil {
		return nil, err
	}

	valid := sig.Verify(pub, []byte(challenge))
	p.logger.Info("signature check",
		zap.Bool("valid", valid),
		zap.Stringer("pubkey", pub),
	)

	return newResult(valid, true, valid, pub.String(), stringPtr(challenge)), nil
}

func parseSolanaInput(input VerificationInput) (solana.PublicKey, solana.Signature, error) {
	pub, err := solana.PublicKeyFromBase58(input.ExpectedAddress)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("%w: solana: invalid address: %v", ErrInvalidInput, err)
	}
	sig, err := solana.SignatureFromBase58(input.SignatureData)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("%w: solana: invalid signature: %v", ErrInvalidInput, err)
	}
	return pub, sig, nil
}
