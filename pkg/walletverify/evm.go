package walletverify

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mahdiidarabi/wallet-signature-verify/internal/evm"
)

// EVMProvider verifies Ethereum personal_sign signatures. WalletConnect and
// Bifrost share this implementation under different names.
type EVMProvider struct {
	name        string
	selector    string
	description string
	logger      *zap.Logger
}

// NewWalletConnectProvider creates the provider for WalletConnect and other
// EVM wallets such as MetaMask.
func NewWalletConnectProvider(logger *zap.Logger) *EVMProvider {
	return &EVMProvider{
		name:        "WalletConnect",
		selector:    "wallet_connect",
		description: "WalletConnect - EVM-compatible wallet signature verification (Ethereum-style signatures)",
		logger:      orNop(logger),
	}
}

// NewBifrostProvider creates the provider for Bifrost Wallet.
func NewBifrostProvider(logger *zap.Logger) *EVMProvider {
	return &EVMProvider{
		name:        "Bifrost Wallet",
		selector:    "bifrost",
		description: "Bifrost - EVM-compatible wallet signature verification (Ethereum-style signatures)",
		logger:      orNop(logger),
	}
}

func (p *EVMProvider) Name() string { return p.name }

func (p *EVMProvider) Description() string { return p.description }

// ValidateInput requires a challenge, a 65-byte hex signature and a 20-byte
// hex address. Both may carry a 0x prefix.
func (p *EVMProvider) ValidateInput(input VerificationInput) error {
	if input.Challenge == nil {
		return fmt.Errorf("%s: %w", p.selector, ErrMissingChallenge)
	}
	if !evm.IsSignatureHex(input.SignatureData) {
		return fmt.Errorf("%w: %s: signature_data must be 65 bytes (130 hex chars)", ErrInvalidInput, p.selector)
	}
	if !evm.IsAddress(input.ExpectedAddress) {
		return fmt.Errorf("%w: %s: expected_address must be an Ethereum address (0x + 40 hex chars)", ErrInvalidInput, p.selector)
	}
	return nil
}

// Verify recovers the signer and compares it with the expected address. The
// signature is valid exactly when the recovered address matches.
func (p *EVMProvider) Verify(input VerificationInput) (*VerificationResult, error) {
	if err := p.ValidateInput(input); err != nil {
		return nil, err
	}
	challenge, _ := input.ChallengeText()

	recovered, err := evm.Verify(input.SignatureData, challenge, input.ExpectedAddress)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.selector, err)
	}

	if recovered.Matches {
		p.logger.Info("signer matches expected address", zap.String("address", recovered.Address))
	} else {
		p.logger.Warn("signer does not match expected address",
			zap.String("recovered", recovered.Address),
			zap.String("expected", input.ExpectedAddress),
		)
	}

	return newResult(recovered.Matches, true, recovered.Matches, recovered.Address, stringPtr(challenge)), nil
}
