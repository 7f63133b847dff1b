/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package derivation implements hierarchical deterministic key derivation (BIP32 for secp256k1,
// SLIP-10 for ed25519) and the derivation path notation.
package derivation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HardenedOffset is added to an index to mark a hardened child.
const HardenedOffset uint32 = 1 << 31

// ErrInvalidPath is returned for malformed derivation paths.
var ErrInvalidPath = errors.New("invalid derivation path")

// Axis is one path segment.
type Axis struct {
	Index    uint32
	Hardened bool
}

// Hardened returns a hardened axis.
func Hardened(i uint32) Axis {
	return Axis{Index: i, Hardened: true}
}

// Normal returns a non hardened axis.
func Normal(i uint32) Axis {
	return Axis{Index: i}
}

// Value is the child number used in derivation.
func (a Axis) Value() uint32 {
	if a.Hardened {
		return a.Index | HardenedOffset
	}

	return a.Index
}

func (a Axis) String() string {
	if a.Hardened {
		return strconv.FormatUint(uint64(a.Index), 10) + "'"
	}

	return strconv.FormatUint(uint64(a.Index), 10)
}

// Path is an ordered list of axes from the master node.
type Path struct {
	Axes []Axis
	// hardenedRoot keeps the "m'" spelling so String round-trips.
	hardenedRoot bool
}

// New builds a path from axes.
func New(axes ...Axis) Path {
	return Path{Axes: axes}
}

// DefaultPath is m/0'/0'/0'.
func DefaultPath() Path {
	return New(Hardened(0), Hardened(0), Hardened(0))
}

// ForIndex returns m/0'/0'/index', whose KeyIndex is index.
func ForIndex(index uint32) Path {
	return New(Hardened(0), Hardened(0), Hardened(index))
}

// Parse reads the m/i'/j/... notation. "m'" is accepted as the root marker.
func Parse(s string) (Path, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) == 0 || (parts[0] != "m" && parts[0] != "m'") {
		return Path{}, fmt.Errorf("%w: %q must start with m", ErrInvalidPath, s)
	}

	p := Path{hardenedRoot: parts[0] == "m'"}

	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		digits := strings.TrimRight(part, "'h")

		if digits == "" {
			return Path{}, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, s)
		}

		v, err := strconv.ParseUint(digits, 10, 32)
		if err != nil {
			return Path{}, fmt.Errorf("%w: segment %q: %v", ErrInvalidPath, part, err)
		}

		if uint32(v) >= HardenedOffset {
			return Path{}, fmt.Errorf("%w: segment %q exceeds 31 bits", ErrInvalidPath, part)
		}

		p.Axes = append(p.Axes, Axis{Index: uint32(v), Hardened: hardened})
	}

	return p, nil
}

// MustParse is Parse for constants.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return p
}

func (p Path) String() string {
	root := "m"
	if p.hardenedRoot {
		root = "m'"
	}

	b := strings.Builder{}
	b.WriteString(root)

	for _, a := range p.Axes {
		b.WriteByte('/')
		b.WriteString(a.String())
	}

	return b.String()
}

// KeyIndex is the value of the last hardened axis, or 0 when none is hardened.
func (p Path) KeyIndex() uint32 {
	for i := len(p.Axes) - 1; i >= 0; i-- {
		if p.Axes[i].Hardened {
			return p.Axes[i].Index
		}
	}

	return 0
}

// AllHardened reports whether every axis is hardened.
func (p Path) AllHardened() bool {
	for _, a := range p.Axes {
		if !a.Hardened {
			return false
		}
	}

	return true
}
