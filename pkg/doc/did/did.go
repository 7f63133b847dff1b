/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/errcode"
)

// Schema is the only DID scheme.
const Schema = "did"

// Error codes of the DID domain.
const (
	InvalidDIDString = errcode.Code(iota + errcode.DID)
	NoResolversAvailableForDIDMethod
	InitialStateOfDIDChanged
	InvalidDIDDocument
	InvalidPeerDID
	InvalidPrismDID
	UnresolvableDID
	InvalidPublicKeyEncoding
)

var (
	// ErrInvalidDIDString is returned when a DID or DID URL does not match the generic grammar.
	ErrInvalidDIDString = errcode.New(InvalidDIDString, errcode.ValidationError, "invalid DID string")
	// ErrNoResolversAvailableForDIDMethod is returned by the registry when no VDR accepts the method.
	ErrNoResolversAvailableForDIDMethod = errcode.New(NoResolversAvailableForDIDMethod, errcode.ExecuteError,
		"no resolvers available for DID method")
	// ErrInitialStateOfDIDChanged is returned when a long form DID does not match its short form.
	ErrInitialStateOfDIDChanged = errcode.New(InitialStateOfDIDChanged, errcode.ValidationError,
		"initial state of DID changed")
	// ErrInvalidDIDDocument is returned for malformed DID documents.
	ErrInvalidDIDDocument = errcode.New(InvalidDIDDocument, errcode.ValidationError, "invalid DID document")
	// ErrInvalidPeerDID is returned for malformed did:peer values.
	ErrInvalidPeerDID = errcode.New(InvalidPeerDID, errcode.ValidationError, "invalid peer DID")
	// ErrInvalidPrismDID is returned for malformed did:prism values.
	ErrInvalidPrismDID = errcode.New(InvalidPrismDID, errcode.ValidationError, "invalid prism DID")
	// ErrUnresolvable is returned when a DID cannot be resolved with the available data.
	ErrUnresolvable = errcode.New(UnresolvableDID, errcode.ExecuteError, "DID cannot be resolved")
	// ErrInvalidPublicKeyEncoding is returned when a verification method key cannot be decoded.
	ErrInvalidPublicKeyEncoding = errcode.New(InvalidPublicKeyEncoding, errcode.ValidationError,
		"invalid public key encoding")
)

// urlGrammar splits a DID URL into method, method specific id plus path, query and fragment.
var urlGrammar = regexp.MustCompile(`^did:([^:/?#]+):([^?#]*)(?:\?([^#]*))?(?:#(.*))?$`) //nolint:gochecknoglobals

const minDIDSegments = 3

// DID is parsed according to the generic syntax: https://w3c.github.io/did-core/#generic-did-syntax
type DID struct {
	Schema   string // Schema is always "did"
	Method   string // Method is the specific DID methods
	MethodID string // MethodID is the unique ID computed or assigned by the DID method
}

// New builds a DID from method and method specific id.
func New(method, methodID string) DID {
	return DID{Schema: Schema, Method: method, MethodID: methodID}
}

// String returns a string representation of this DID.
func (d DID) String() string {
	return fmt.Sprintf("%s:%s:%s", d.Schema, d.Method, d.MethodID)
}

// IsZero reports whether d is the zero DID.
func (d DID) IsZero() bool {
	return d == DID{}
}

// MarshalText writes the DID string. The zero DID is written as "".
func (d DID) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}

	return []byte(d.String()), nil
}

// UnmarshalText parses a DID string. "" yields the zero DID.
func (d *DID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = DID{}

		return nil
	}

	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// Parse parses a DID string. It needs at least three colon separated segments.
func Parse(s string) (DID, error) {
	parts := strings.SplitN(s, ":", minDIDSegments)
	if len(parts) < minDIDSegments {
		return DID{}, fmt.Errorf("%w: %q has fewer than %d segments", ErrInvalidDIDString, s, minDIDSegments)
	}

	if parts[0] != Schema || parts[1] == "" || parts[2] == "" {
		return DID{}, fmt.Errorf("%w: %q", ErrInvalidDIDString, s)
	}

	return DID{Schema: parts[0], Method: parts[1], MethodID: parts[2]}, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) DID {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return d
}

// URL is a DID URL: a DID with optional path, query and fragment.
type URL struct {
	DID      DID
	Path     []string
	Query    map[string]string
	Fragment string
}

// ParseURL parses the DID URL grammar. Duplicate query keys overwrite.
// A bare fragment ("#key-1") is not a DID URL; use RelativeTo to expand it.
func ParseURL(s string) (*URL, error) {
	m := urlGrammar.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: %q is not a DID URL", ErrInvalidDIDString, s)
	}

	methodID := m[2]
	u := &URL{Fragment: m[4]}

	if i := strings.Index(methodID, "/"); i >= 0 {
		for _, seg := range strings.Split(methodID[i+1:], "/") {
			if seg != "" {
				u.Path = append(u.Path, seg)
			}
		}

		methodID = methodID[:i]
	}

	if methodID == "" {
		return nil, fmt.Errorf("%w: %q has an empty method specific id", ErrInvalidDIDString, s)
	}

	u.DID = DID{Schema: Schema, Method: m[1], MethodID: methodID}

	if m[3] != "" {
		u.Query = map[string]string{}

		for _, pair := range strings.Split(m[3], "&") {
			if pair == "" {
				continue
			}

			k, v, _ := strings.Cut(pair, "=")

			key, err := url.QueryUnescape(k)
			if err != nil {
				return nil, fmt.Errorf("%w: query %q: %v", ErrInvalidDIDString, pair, err)
			}

			val, err := url.QueryUnescape(v)
			if err != nil {
				return nil, fmt.Errorf("%w: query %q: %v", ErrInvalidDIDString, pair, err)
			}

			u.Query[key] = val
		}
	}

	return u, nil
}

// RelativeTo expands a reference that may be a bare fragment against base.
func RelativeTo(base DID, ref string) (*URL, error) {
	if strings.HasPrefix(ref, "#") {
		return &URL{DID: base, Fragment: ref[1:]}, nil
	}

	return ParseURL(ref)
}

// String rebuilds the URL. Query keys are written sorted so that the form is stable.
func (u *URL) String() string {
	b := strings.Builder{}
	b.WriteString(u.DID.String())

	for _, seg := range u.Path {
		b.WriteByte('/')
		b.WriteString(seg)
	}

	if len(u.Query) > 0 {
		keys := make([]string, 0, len(u.Query))
		for k := range u.Query {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		b.WriteByte('?')

		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}

			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(u.Query[k]))
		}
	}

	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}

	return b.String()
}

// Equal compares DID, path, query and fragment.
func (u *URL) Equal(o *URL) bool {
	if u == nil || o == nil {
		return u == o
	}

	if u.DID != o.DID || u.Fragment != o.Fragment || len(u.Path) != len(o.Path) || len(u.Query) != len(o.Query) {
		return false
	}

	for i := range u.Path {
		if u.Path[i] != o.Path[i] {
			return false
		}
	}

	for k, v := range u.Query {
		if ov, ok := o.Query[k]; !ok || ov != v {
			return false
		}
	}

	return true
}
