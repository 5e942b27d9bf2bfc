package walletverify

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Registry resolves wallet types to providers. The enabled set is fixed at
// construction and the registry is safe for concurrent use.
type Registry struct {
	providers map[WalletType]WalletProvider
	enabled   []WalletType
}

// NewRegistry creates a registry with the given wallet types enabled. With
// no types, every wallet type is enabled.
func NewRegistry(logger *zap.Logger, enabled ...WalletType) *Registry {
	logger = orNop(logger)
	if len(enabled) == 0 {
		enabled = AllWalletTypes()
	}

	r := &Registry{providers: make(map[WalletType]WalletProvider, len(enabled))}
	for _, t := range enabled {
		if _, dup := r.providers[t]; dup {
			continue
		}
		provider := newProvider(t, logger.Named(t.String()))
		if provider == nil {
			continue
		}
		r.providers[t] = provider
		r.enabled = append(r.enabled, t)
	}
	return r
}

func newProvider(t WalletType, logger *zap.Logger) WalletProvider {
	switch t {
	case Xaman:
		return NewXamanProvider(logger)
	case Web3Auth:
		return NewWeb3AuthProvider(logger)
	case WalletConnect:
		return NewWalletConnectProvider(logger)
	case Bifrost:
		return NewBifrostProvider(logger)
	case Solana:
		return NewSolanaProvider(logger)
	}
	return nil
}

// Provider returns the provider for t, or ErrUnsupportedWallet when t is not
// enabled.
func (r *Registry) Provider(t WalletType) (WalletProvider, error) {
	p, ok := r.providers[t]
	if !ok {
		return nil, r.unsupported(t.String())
	}
	return p, nil
}

// Lookup parses a selector string and returns its type and provider.
func (r *Registry) Lookup(name string) (WalletType, WalletProvider, error) {
	t, err := ParseWalletType(name)
	if err != nil {
		return 0, nil, r.unsupported(name)
	}
	p, err := r.Provider(t)
	if err != nil {
		return 0, nil, err
	}
	return t, p, nil
}

// Enabled returns the enabled wallet types in registration order.
func (r *Registry) Enabled() []WalletType {
	out := make([]WalletType, len(r.enabled))
	copy(out, r.enabled)
	return out
}

// SupportedWallets returns the selectors of the enabled wallet types.
func (r *Registry) SupportedWallets() []string {
	names := make([]string, 0, len(r.enabled))
	for _, t := range r.enabled {
		names = append(names, t.String())
	}
	return names
}

func (r *Registry) unsupported(name string) error {
	return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedWallet, name, strings.Join(r.SupportedWallets(), ", "))
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func isHexString(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		default:
			return false
		}
	}
	return true
}
