// Package path parses BIP-44 style derivation paths into the binary form the Waves
// Ledger application expects.
package path

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github/chapool/waves-ledger/internal/ledger"
)

const (
	// HardenedOffset is OR-ed into a component to request hardened derivation.
	HardenedOffset uint32 = 0x80000000

	// MaxIndex is the largest raw component before hardening.
	MaxIndex = 0x7FFFFFFF

	// CoinType is the SLIP-0044 coin type registered for Waves. Changing it changes
	// every derived address.
	CoinType = 5741564

	rootMarker     = "m"
	hardenedMarker = "'"
	separator      = "/"
)

// AccountPrefix is prepended to the account index by ForAccount.
var AccountPrefix = fmt.Sprintf("44'/%d'/0'/0'/", CoinType)

// Component is a single derivation step.
type Component struct {
	Index    uint32
	Hardened bool
}

// Value returns the component as sent on the wire.
func (c Component) Value() uint32 {
	if c.Hardened {
		return c.Index | HardenedOffset
	}
	return c.Index
}

// DerivationPath is a parsed, non-empty sequence of components.
type DerivationPath []Component

// Parse parses a path such as "m/44'/5741564'/0'/0'/1'". The leading "m" is optional.
func Parse(s string) (DerivationPath, error) {
	tokens := strings.Split(s, separator)
	if len(tokens) > 0 && tokens[0] == rootMarker {
		tokens = tokens[1:]
	}

	if len(tokens) == 0 {
		return nil, errors.Wrap(ledger.ErrDecoding, "path must contain at least one component")
	}

	p := make(DerivationPath, 0, len(tokens))
	for _, token := range tokens {
		c, err := parseComponent(token)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid path %q", s)
		}
		p = append(p, c)
	}

	return p, nil
}

func parseComponent(token string) (Component, error) {
	digits, hardened := strings.CutSuffix(token, hardenedMarker)

	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return Component{}, errors.Wrapf(ledger.ErrRange, "component %q exceeds %d", digits, MaxIndex)
		}
		return Component{}, errors.Wrapf(ledger.ErrDecoding, "component %q is not a non-negative integer", token)
	}

	// rejects leading zeros that ParseUint silently accepts
	if strconv.FormatUint(v, 10) != digits {
		return Component{}, errors.Wrapf(ledger.ErrDecoding, "component %q is not in canonical form", token)
	}

	if v > MaxIndex {
		return Component{}, errors.Wrapf(ledger.ErrRange, "component %d exceeds %d", v, MaxIndex)
	}

	return Component{Index: uint32(v), Hardened: hardened}, nil
}

// Bytes encodes every component as 4 big-endian bytes, in order.
func (p DerivationPath) Bytes() []byte {
	buf := make([]byte, 4*len(p))
	for i, c := range p {
		binary.BigEndian.PutUint32(buf[4*i:], c.Value())
	}
	return buf
}

// String renders the path without the root marker.
func (p DerivationPath) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = strconv.FormatUint(uint64(c.Index), 10)
		if c.Hardened {
			parts[i] += hardenedMarker
		}
	}
	return strings.Join(parts, separator)
}

// Encode parses s and returns its wire encoding.
func Encode(s string) ([]byte, error) {
	p, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

// ForAccount returns the derivation path of a Waves account.
// Format: 44'/5741564'/0'/0'/{index}'
func ForAccount(index int64) (string, error) {
	if err := ValidateIndex(index); err != nil {
		return "", err
	}
	return AccountPrefix + strconv.FormatInt(index, 10) + hardenedMarker, nil
}

// ValidateIndex checks that index is a valid 0-based account index.
func ValidateIndex(index int64) error {
	if index < 0 || index > MaxIndex {
		return errors.Wrapf(ledger.ErrRange, "account index %d out of range [0, %d]", index, MaxIndex)
	}
	return nil
}
