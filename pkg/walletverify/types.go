package walletverify

import "github.com/mahdiidarabi/wallet-signature-verify/internal/xrpl"

// VerificationInput is what a caller submits for verification.
type VerificationInput struct {
	SignatureData   string  `json:"signature"` // Wallet-specific signature encoding
	ExpectedAddress string  `json:"address"`   // Address the caller claims to control
	Challenge       *string `json:"challenge,omitempty"`
}

// NewInput builds an input with a challenge.
func NewInput(signature, address, challenge string) VerificationInput {
	return VerificationInput{
		SignatureData:   signature,
		ExpectedAddress: address,
		Challenge:       &challenge,
	}
}

// ChallengeText returns the challenge and whether one was supplied.
func (in VerificationInput) ChallengeText() (string, bool) {
	if in.Challenge == nil {
		return "", false
	}
	return *in.Challenge, true
}

// VerificationResult is the outcome of a verification. Cryptographic
// failures are reported here as false checks, never as errors.
type VerificationResult struct {
	AddressValid   bool    `json:"address_valid"`
	ChallengeValid bool    `json:"challenge_valid"`
	SignatureValid bool    `json:"signature_valid"`
	DerivedAddress string  `json:"derived_address"`
	FoundChallenge *string `json:"found_challenge"`
}

// IsValid reports whether all three checks passed.
func (r *VerificationResult) IsValid() bool {
	return r.AddressValid && r.ChallengeValid && r.SignatureValid
}

// newResult builds a result with all checks set together.
func newResult(addressValid, challengeValid, signatureValid bool, derived string, found *string) *VerificationResult {
	return &VerificationResult{
		AddressValid:   addressValid,
		ChallengeValid: challengeValid,
		SignatureValid: signatureValid,
		DerivedAddress: derived,
		FoundChallenge: found,
	}
}

// TransactionFields are the fields read out of a signed XRPL blob.
type TransactionFields = xrpl.TransactionFields

func stringPtr(s string) *string {
	return &s
}
