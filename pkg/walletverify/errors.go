package walletverify

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input fails a provider's shape checks.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingChallenge is returned by providers that require a challenge.
	ErrMissingChallenge = fmt.Errorf("%w: challenge is required for verification", ErrInvalidInput)

	// ErrMissingSigningMaterial is returned when a signed blob lacks a
	// SigningPubKey or TxnSignature.
	ErrMissingSigningMaterial = errors.New("missing SigningPubKey or TxnSignature")

	// ErrUnsupportedWallet is returned for unknown or disabled wallet types.
	ErrUnsupportedWallet = errors.New("wallet is not supported or not enabled")

	// ErrChallengeReplayed is returned when a valid challenge was already used.
	ErrChallengeReplayed = errors.New("challenge has already been used")

	// ErrReplayUnavailable is returned when the replay guard cannot be reached.
	ErrReplayUnavailable = errors.New("replay guard unavailable")
)
