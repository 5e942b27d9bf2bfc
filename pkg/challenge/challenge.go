// Package challenge builds and parses anti-replay login challenges of the
// form domain:timestamp:uuid:action:address.
package challenge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMalformed is returned for strings that are not a challenge.
var ErrMalformed = errors.New("malformed challenge")

const fieldCount = 5

// Challenge is a one-time message a wallet is asked to sign.
type Challenge struct {
	Domain   string
	IssuedAt time.Time
	Nonce    uuid.UUID
	Action   string
	Address  string
}

// Option customizes a new challenge.
type Option func(*Challenge)

// WithClock sets the issue time.
func WithClock(now func() time.Time) Option {
	return func(c *Challenge) { c.IssuedAt = now() }
}

// WithNonce sets the nonce instead of a random one.
func WithNonce(id uuid.UUID) Option {
	return func(c *Challenge) { c.Nonce = id }
}

// New creates a challenge for address with a random nonce, issued now.
func New(domain, action, address string, opts ...Option) (*Challenge, error) {
	for name, v := range map[string]string{"domain": domain, "action": action, "address": address} {
		if v == "" {
			return nil, fmt.Errorf("%w: empty %s", ErrMalformed, name)
		}
		if strings.Contains(v, ":") {
			return nil, fmt.Errorf("%w: %s must not contain ':'", ErrMalformed, name)
		}
	}

	c := &Challenge{
		Domain:   domain,
		IssuedAt: time.Now(),
		Nonce:    uuid.New(),
		Action:   action,
		Address:  address,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.IssuedAt = c.IssuedAt.Truncate(time.Second)
	return c, nil
}

// String renders the challenge as signed by the wallet.
func (c *Challenge) String() string {
	return strings.Join([]string{
		c.Domain,
		strconv.FormatInt(c.IssuedAt.Unix(), 10),
		c.Nonce.String(),
		c.Action,
		c.Address,
	}, ":")
}

// Parse reads a challenge string.
func Parse(s string) (*Challenge, error) {
	parts := strings.Split(s, ":")
	if len(parts) != fieldCount {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformed, fieldCount, len(parts))
	}
	for i, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: field %d is empty", ErrMalformed, i+1)
		}
	}

	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || ts < 0 {
		return nil, fmt.Errorf("%w: invalid timestamp %q", ErrMalformed, parts[1])
	}
	nonce, err := uuid.Parse(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid nonce: %v", ErrMalformed, err)
	}

	return &Challenge{
		Domain:   parts[0],
		IssuedAt: time.Unix(ts, 0),
		Nonce:    nonce,
		Action:   parts[3],
		Address:  parts[4],
	}, nil
}

// Expired reports whether the challenge is older than ttl at now. Challenges
// issued more than a minute in the future are treated as expired.
func (c *Challenge) Expired(now time.Time, ttl time.Duration) bool {
	age := now.Sub(c.IssuedAt)
	return age < -time.Minute || age > ttl
}
