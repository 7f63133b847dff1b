/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package issuer creates SD-JWTs for tests. The agent only holds and verifies SD-JWTs; they are
// issued by the Cloud Agent.
package issuer

import (
	"crypto"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt/common"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

const (
	defaultHash     = crypto.SHA256
	defaultSaltSize = 128 / 8

	decoyMinElements = 1
	decoyMaxElements = 4
)

// newOpts holds options for creating new SD-JWT.
type newOpts struct {
	Subject string
	JTI     string
	KeyID   string

	Expiry    *jwt.NumericDate
	NotBefore *jwt.NumericDate
	IssuedAt  *jwt.NumericDate

	HashAlg crypto.Hash

	getSalt func() (string, error)

	addDecoyDigests  bool
	structuredClaims bool
	alwaysVisible    map[string]bool
}

// NewOpt is the SD-JWT New option.
type NewOpt func(opts *newOpts)

// WithSaltFnc is an option for generating salt. Mostly used for testing.
func WithSaltFnc(fnc func() (string, error)) NewOpt {
	return func(opts *newOpts) {
		opts.getSalt = fnc
	}
}

// WithIssuedAt is an option for SD-JWT payload.
func WithIssuedAt(issuedAt *jwt.NumericDate) NewOpt {
	return func(opts *newOpts) {
		opts.IssuedAt = issuedAt
	}
}

// WithExpiry is an option for SD-JWT payload.
func WithExpiry(expiry *jwt.NumericDate) NewOpt {
	return func(opts *newOpts) {
		opts.Expiry = expiry
	}
}

// WithNotBefore is an option for SD-JWT payload.
func WithNotBefore(notBefore *jwt.NumericDate) NewOpt {
	return func(opts *newOpts) {
		opts.NotBefore = notBefore
	}
}

// WithSubject is an option for SD-JWT payload.
func WithSubject(subject string) NewOpt {
	return func(opts *newOpts) {
		opts.Subject = subject
	}
}

// WithJTI is an option for SD-JWT payload.
func WithJTI(jti string) NewOpt {
	return func(opts *newOpts) {
		opts.JTI = jti
	}
}

// WithKeyID sets the kid header of the signed token.
func WithKeyID(kid string) NewOpt {
	return func(opts *newOpts) {
		opts.KeyID = kid
	}
}

// WithHashAlgorithm is an option for hashing disclosures.
func WithHashAlgorithm(alg crypto.Hash) NewOpt {
	return func(opts *newOpts) {
		opts.HashAlg = alg
	}
}

// WithDecoyDigests is an option to add decoy digests (default is false).
func WithDecoyDigests(flag bool) NewOpt {
	return func(opts *newOpts) {
		opts.addDecoyDigests = flag
	}
}

// WithStructuredClaims makes nested objects disclosable member by member instead of as a whole.
func WithStructuredClaims(flag bool) NewOpt {
	return func(opts *newOpts) {
		opts.structuredClaims = flag
	}
}

// WithAlwaysVisible keeps the named top level claims in clear text.
func WithAlwaysVisible(names ...string) NewOpt {
	return func(opts *newOpts) {
		for _, n := range names {
			opts.alwaysVisible[n] = true
		}
	}
}

// SelectiveDisclosureJWT defines Selective Disclosure JSON Web Token (https://tools.ietf.org/html/rfc7519)
type SelectiveDisclosureJWT struct {
	SignedJWT   *jwt.JSONWebToken
	Disclosures []string
}

// New creates new signed Selective Disclosure JWT based on input claims.
func New(issuer string, claims map[string]interface{}, signer keys.Signer,
	opts ...NewOpt) (*SelectiveDisclosureJWT, error) {
	nOpts := &newOpts{
		getSalt:       generateSalt,
		HashAlg:       defaultHash,
		alwaysVisible: map[string]bool{},
	}

	for _, opt := range opts {
		opt(nOpts)
	}

	visible := map[string]interface{}{}
	hidden := map[string]interface{}{}

	for k, v := range claims {
		if nOpts.alwaysVisible[k] {
			visible[k] = v
		} else {
			hidden[k] = v
		}
	}

	disclosures, digests, err := createDisclosuresAndDigests(hidden, nOpts)
	if err != nil {
		return nil, err
	}

	payload, err := createPayload(issuer, nOpts)
	if err != nil {
		return nil, err
	}

	for k, v := range visible {
		payload[k] = v
	}

	for k, v := range digests {
		payload[k] = v
	}

	signedJWT, err := jwt.NewSigned(payload, nOpts.KeyID, signer)
	if err != nil {
		return nil, fmt.Errorf("failed to create SD-JWT: %w", err)
	}

	return &SelectiveDisclosureJWT{Disclosures: disclosures, SignedJWT: signedJWT}, nil
}

// DecodeClaims fills input c with claims of a token.
func (j *SelectiveDisclosureJWT) DecodeClaims(c interface{}) error {
	return j.SignedJWT.DecodeClaims(c)
}

// Serialize makes the combined format for issuance.
func (j *SelectiveDisclosureJWT) Serialize() string {
	cf := common.CombinedFormatForIssuance{
		SDJWT:       j.SignedJWT.Serialize(),
		Disclosures: j.Disclosures,
	}

	return cf.Serialize()
}

func createPayload(issuer string, nOpts *newOpts) (map[string]interface{}, error) {
	p := &payload{
		Issuer:    issuer,
		JTI:       nOpts.JTI,
		Subject:   nOpts.Subject,
		IssuedAt:  nOpts.IssuedAt,
		Expiry:    nOpts.Expiry,
		NotBefore: nOpts.NotBefore,
		SDAlg:     strings.ToLower(nOpts.HashAlg.String()),
	}

	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	out := map[string]interface{}{}
	if err = json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	return out, nil
}

func createDigests(disclosures []string, nOpts *newOpts) ([]string, error) {
	digests := make([]string, 0, len(disclosures))

	for _, disclosure := range disclosures {
		digest, inErr := common.GetHash(nOpts.HashAlg, disclosure)
		if inErr != nil {
			return nil, fmt.Errorf("hash disclosure: %w", inErr)
		}

		digests = append(digests, digest)
	}

	if err := shuffle(digests); err != nil {
		return nil, err
	}

	return digests, nil
}

// shuffle hides the claim order from the verifier.
func shuffle(s []string) error {
	for i := len(s) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}

		s[i], s[j.Int64()] = s[j.Int64()], s[i]
	}

	return nil
}

// decoys returns random salts posing as disclosures. Only their digests are published.
func decoys(opts *newOpts) ([]string, error) {
	if !opts.addDecoyDigests {
		return nil, nil
	}

	extra, err := rand.Int(rand.Reader, big.NewInt(decoyMaxElements-decoyMinElements+1))
	if err != nil {
		return nil, err
	}

	out := make([]string, int(extra.Int64())+decoyMinElements)

	for i := range out {
		if out[i], err = opts.getSalt(); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// createDisclosuresAndDigests turns every claim of one object level into a disclosure and
// returns the level with the claims replaced by their _sd digests. With structured claims
// nested objects keep their shape and are processed level by level.
func createDisclosuresAndDigests(claims map[string]interface{}, opts *newOpts) ([]string, map[string]interface{}, error) { // nolint:lll
	level := map[string]interface{}{}

	var nested, flat []string

	for name, value := range claims {
		if obj, isObj := value.(map[string]interface{}); isObj && opts.structuredClaims {
			inner, innerLevel, err := createDisclosuresAndDigests(obj, opts)
			if err != nil {
				return nil, nil, err
			}

			level[name] = innerLevel
			nested = append(nested, inner...)

			continue
		}

		d, err := createDisclosure(name, value, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("create disclosure: %w", err)
		}

		flat = append(flat, d)
	}

	fake, err := decoys(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create decoy disclosures: %w", err)
	}

	if level[common.SDKey], err = createDigests(append(append([]string{}, flat...), fake...), opts); err != nil {
		return nil, nil, err
	}

	return append(nested, flat...), level, nil
}

// createDisclosure encodes the [salt, name, value] triple.
func createDisclosure(name string, value interface{}, opts *newOpts) (string, error) {
	salt, err := opts.getSalt()
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	raw, err := json.Marshal([]interface{}{salt, name, value})
	if err != nil {
		return "", fmt.Errorf("marshal disclosure: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func generateSalt() (string, error) {
	salt := make([]byte, defaultSaltSize)

	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(salt), nil
}

// payload represents SD-JWT payload.
type payload struct {
	Issuer  string `json:"iss,omitempty"`
	Subject string `json:"sub,omitempty"`
	JTI     string `json:"jti,omitempty"`

	Expiry    *jwt.NumericDate `json:"exp,omitempty"`
	NotBefore *jwt.NumericDate `json:"nbf,omitempty"`
	IssuedAt  *jwt.NumericDate `json:"iat,omitempty"`

	SDAlg string `json:"_sd_alg,omitempty"`
}
