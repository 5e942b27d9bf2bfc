package walletverify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Verification outcomes reported to a Recorder.
const (
	OutcomeValid    = "valid"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
	OutcomeReplayed = "replayed"
)

// Recorder receives verification telemetry.
type Recorder interface {
	RecordVerification(wallet, outcome string, duration time.Duration)
	RecordCheckFailure(wallet, check string)
}

// ReplayGuard remembers consumed challenges. Consume returns true the first
// time a key is seen within ttl.
type ReplayGuard interface {
	Consume(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// DefaultReplayTTL is how long a consumed challenge is remembered.
const DefaultReplayTTL = 10 * time.Minute

// Client provides a high-level API over the wallet providers.
type Client struct {
	registry  *Registry
	logger    *zap.Logger
	recorder  Recorder
	guard     ReplayGuard
	replayTTL time.Duration
	parser    InputParser
	batch     BatchConfig
}

// NewClient creates a client with every wallet enabled and no logging,
// metrics or replay protection.
func NewClient() *Client {
	return &Client{
		registry:  NewRegistry(nil),
		logger:    zap.NewNop(),
		replayTTL: DefaultReplayTTL,
		parser:    &JSONParser{},
		batch:     DefaultBatchConfig(),
	}
}

// WithLogger sets the logger used by the client and its providers.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	c.logger = orNop(logger)
	c.registry = NewRegistry(c.logger, c.registry.Enabled()...)
	return c
}

// WithRegistry replaces the provider registry.
func (c *Client) WithRegistry(registry *Registry) *Client {
	c.registry = registry
	return c
}

// WithEnabledWallets restricts the client to the given wallet types.
func (c *Client) WithEnabledWallets(types ...WalletType) *Client {
	c.registry = NewRegistry(c.logger, types...)
	return c
}

// WithRecorder sets the telemetry recorder.
func (c *Client) WithRecorder(recorder Recorder) *Client {
	c.recorder = recorder
	return c
}

// WithReplayGuard rejects valid results whose challenge was already used
// within ttl. A zero ttl keeps DefaultReplayTTL.
func (c *Client) WithReplayGuard(guard ReplayGuard, ttl time.Duration) *Client {
	c.guard = guard
	if ttl > 0 {
		c.replayTTL = ttl
	}
	return c
}

// WithParser sets the parser used by VerifySource.
func (c *Client) WithParser(parser InputParser) *Client {
	c.parser = parser
	return c
}

// WithBatchConfig sets the batch worker configuration.
func (c *Client) WithBatchConfig(config BatchConfig) *Client {
	c.batch = config
	return c
}

// Registry returns the client's provider registry.
func (c *Client) Registry() *Registry {
	return c.registry
}

// VerifyByName verifies input with the wallet named by a selector string
// such as "xaman" or "wallet_connect".
func (c *Client) VerifyByName(ctx context.Context, wallet string, input VerificationInput) (*VerificationResult, error) {
	t, _, err := c.registry.Lookup(wallet)
	if err != nil {
		c.record("unknown", OutcomeError, 0)
		return nil, err
	}
	return c.Verify(ctx, t, input)
}

// Verify verifies input with the provider for walletType.
//
// Args:
//   - ctx: Context for the replay guard. Verification itself does not block.
//   - walletType: Wallet family that produced the signature.
//   - input: Signature, expected address and optional challenge.
//
// Returns:
//   - The verification result, or an error for unsupported wallets, malformed
//     input and replayed challenges.
func (c *Client) Verify(ctx context.Context, walletType WalletType, input VerificationInput) (*VerificationResult, error) {
	start := time.Now()
	wallet := walletType.String()

	provider, err := c.registry.Provider(walletType)
	if err != nil {
		c.record(wallet, OutcomeError, time.Since(start))
		return nil, err
	}

	logger := c.logger.With(zap.String("wallet", wallet), zap.String("address", input.ExpectedAddress))
	logger.Debug("verifying signature", zap.String("provider", provider.Name()))

	result, err := provider.Verify(input)
	if err != nil {
		logger.Warn("verification rejected", zap.Error(err))
		c.record(wallet, OutcomeError, time.Since(start))
		return nil, err
	}
	c.recordChecks(wallet, result)

	if result.IsValid() && c.guard != nil {
		if err := c.consume(ctx, walletType, input, result); err != nil {
			outcome := OutcomeError
			if errors.Is(err, ErrChallengeReplayed) {
				outcome = OutcomeReplayed
			}
			logger.Warn("challenge rejected", zap.Error(err))
			c.record(wallet, outcome, time.Since(start))
			return nil, err
		}
	}

	outcome := OutcomeInvalid
	if result.IsValid() {
		outcome = OutcomeValid
	}
	logger.Info("verification complete",
		zap.String("outcome", outcome),
		zap.Bool("address_valid", result.AddressValid),
		zap.Bool("challenge_valid", result.ChallengeValid),
		zap.Bool("signature_valid", result.SignatureValid),
	)
	c.record(wallet, outcome, time.Since(start))
	return result, nil
}

// consume marks the challenge of a valid result as used. Results without a
// challenge are not tracked.
func (c *Client) consume(ctx context.Context, walletType WalletType, input VerificationInput, result *VerificationResult) error {
	challenge, ok := input.ChallengeText()
	if !ok && result.FoundChallenge != nil {
		challenge, ok = *result.FoundChallenge, true
	}
	if !ok || challenge == "" {
		return nil
	}

	key := ReplayKey(walletType, result.DerivedAddress, challenge)
	fresh, err := c.guard.Consume(ctx, key, c.replayTTL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReplayUnavailable, err)
	}
	if !fresh {
		return ErrChallengeReplayed
	}
	return nil
}

// ReplayKey identifies one use of a challenge by one signer.
func ReplayKey(walletType WalletType, address, challenge string) string {
	return walletType.String() + ":" + address + ":" + challenge
}

func (c *Client) record(wallet, outcome string, d time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordVerification(wallet, outcome, d)
	}
}

func (c *Client) recordChecks(wallet string, result *VerificationResult) {
	if c.recorder == nil {
		return
	}
	if !result.AddressValid {
		c.recorder.RecordCheckFailure(wallet, "address")
	}
	if !result.ChallengeValid {
		c.recorder.RecordCheckFailure(wallet, "challenge")
	}
	if !result.SignatureValid {
		c.recorder.RecordCheckFailure(wallet, "signature")
	}
}
