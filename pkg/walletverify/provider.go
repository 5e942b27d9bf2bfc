package walletverify

import (
	"fmt"
	"strings"
)

// WalletProvider verifies signatures produced by one wallet family.
type WalletProvider interface {
	// Name returns a human-readable wallet name.
	Name() string

	// Description returns a one-line description of the signing convention.
	Description() string

	// ValidateInput checks the shape of input before any cryptography runs.
	ValidateInput(input VerificationInput) error

	// Verify validates input and runs the address, challenge and signature
	// checks. Structural problems are returned as errors.
	Verify(input VerificationInput) (*VerificationResult, error)
}

// WalletType identifies a wallet family.
type WalletType int

const (
	Xaman WalletType = iota
	Web3Auth
	WalletConnect
	Bifrost
	Solana
)

var walletTypeNames = map[WalletType]string{
	Xaman:         "xaman",
	Web3Auth:      "web3auth",
	WalletConnect: "wallet_connect",
	Bifrost:       "bifrost",
	Solana:        "solana",
}

var walletTypeAliases = map[string]WalletType{
	"xaman":          Xaman,
	"xumm":           Xaman,
	"web3auth":       Web3Auth,
	"wallet_connect": WalletConnect,
	"walletconnect":  WalletConnect,
	"metamask":       WalletConnect,
	"bifrost":        Bifrost,
	"solana":         Solana,
	"phantom":        Solana,
}

// AllWalletTypes returns every wallet type in declaration order.
func AllWalletTypes() []WalletType {
	return []WalletType{Xaman, Web3Auth, WalletConnect, Bifrost, Solana}
}

// String returns the canonical selector for t.
func (t WalletType) String() string {
	if name, ok := walletTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("WalletType(%d)", int(t))
}

// ParseWalletType resolves a selector string, ignoring case and surrounding
// whitespace.
func ParseWalletType(s string) (WalletType, error) {
	t, ok := walletTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedWallet, s)
	}
	return t, nil
}

// ParseWalletTypes resolves a list of selectors, dropping duplicates.
func ParseWalletTypes(names []string) ([]WalletType, error) {
	seen := make(map[WalletType]bool, len(names))
	types := make([]WalletType, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		t, err := ParseWalletType(name)
		if err != nil {
			return nil, err
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	return types, nil
}
