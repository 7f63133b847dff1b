/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package common holds the SD-JWT encoding shared by issuer, holder and verifier.
package common

import (
	"crypto"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jwt"
)

// CombinedFormatSeparator is disclosure separator.
const (
	CombinedFormatSeparator = "~"

	SDAlgorithmKey = "_sd_alg"
	SDKey          = "_sd"

	disclosureParts = 3
	saltIndex       = 0
	nameIndex       = 1
	valueIndex      = 2
)

// ErrDisclosureNotFound is returned when a disclosure digest is not referenced by the SD-JWT.
var ErrDisclosureNotFound = errors.New("disclosure digest not found in SD-JWT")

// CombinedFormatForIssuance holds SD-JWT and disclosures.
type CombinedFormatForIssuance struct {
	SDJWT       string
	Disclosures []string
}

// Serialize joins the SD-JWT and its disclosures, ending with a separator.
func (cf *CombinedFormatForIssuance) Serialize() string {
	return join(cf.SDJWT, cf.Disclosures, "")
}

// CombinedFormatForPresentation holds SD-JWT, disclosures and optional holder binding info.
type CombinedFormatForPresentation struct {
	SDJWT         string
	Disclosures   []string
	HolderBinding string
}

// Serialize joins the SD-JWT, the disclosures and the holder binding JWT, which may be empty.
func (cf *CombinedFormatForPresentation) Serialize() string {
	return join(cf.SDJWT, cf.Disclosures, cf.HolderBinding)
}

func join(sdJWT string, disclosures []string, last string) string {
	parts := append(append([]string{sdJWT}, disclosures...), last)

	return strings.Join(parts, CombinedFormatSeparator)
}

// DisclosureClaim defines claim.
type DisclosureClaim struct {
	Disclosure string
	Salt       string
	Name       string
	Value      interface{}
}

// GetDisclosureClaims decodes disclosures, keeping their order.
func GetDisclosureClaims(disclosures []string) ([]*DisclosureClaim, error) {
	claims := make([]*DisclosureClaim, len(disclosures))

	for i, d := range disclosures {
		c, err := decodeDisclosure(d)
		if err != nil {
			return nil, err
		}

		claims[i] = c
	}

	return claims, nil
}

func decodeDisclosure(disclosure string) (*DisclosureClaim, error) {
	raw, err := base64.RawURLEncoding.DecodeString(disclosure)
	if err != nil {
		return nil, fmt.Errorf("failed to decode disclosure: %w", err)
	}

	var triple []interface{}

	if err = json.Unmarshal(raw, &triple); err != nil {
		return nil, fmt.Errorf("failed to unmarshal disclosure array: %w", err)
	}

	if len(triple) != disclosureParts {
		return nil, fmt.Errorf("disclosure array size[%d] must be %d", len(triple), disclosureParts)
	}

	c := &DisclosureClaim{Disclosure: disclosure, Value: triple[valueIndex]}

	var ok bool

	if c.Salt, ok = triple[saltIndex].(string); !ok {
		return nil, fmt.Errorf("disclosure salt is a %T, not a string", triple[saltIndex])
	}

	if c.Name, ok = triple[nameIndex].(string); !ok {
		return nil, fmt.Errorf("disclosure name is a %T, not a string", triple[nameIndex])
	}

	return c, nil
}

// ParseCombinedFormatForIssuance parses combined format for issuance into CombinedFormatForIssuance parts.
// A trailing separator is accepted.
func ParseCombinedFormatForIssuance(combinedFormatForIssuance string) *CombinedFormatForIssuance {
	parts := strings.Split(combinedFormatForIssuance, CombinedFormatSeparator)

	var disclosures []string

	for _, p := range parts[1:] {
		if p != "" {
			disclosures = append(disclosures, p)
		}
	}

	return &CombinedFormatForIssuance{SDJWT: parts[0], Disclosures: disclosures}
}

// ParseCombinedFormatForPresentation parses combined format for presentation into CombinedFormatForPresentation parts.
// The last segment is the holder binding JWT and is empty when there is none.
func ParseCombinedFormatForPresentation(combinedFormatForPresentation string) *CombinedFormatForPresentation {
	parts := strings.Split(combinedFormatForPresentation, CombinedFormatSeparator)

	var disclosures []string
	if len(parts) > 2 {
		disclosures = parts[1 : len(parts)-1]
	}

	var holderBinding string
	if len(parts) > 1 {
		holderBinding = parts[len(parts)-1]
	}

	return &CombinedFormatForPresentation{SDJWT: parts[0], Disclosures: disclosures, HolderBinding: holderBinding}
}

// GetHash returns the base64url digest of value.
func GetHash(hash crypto.Hash, value string) (string, error) {
	if !hash.Available() {
		return "", fmt.Errorf("hash function not available for: %d", hash)
	}

	h := hash.New()
	h.Write([]byte(value)) //nolint:errcheck

	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

// VerifyDisclosuresInSDJWT checks that every disclosure digest is referenced from an _sd array
// somewhere in the SD-JWT payload, descending into nested objects and disclosed values.
func VerifyDisclosuresInSDJWT(disclosures []string, signedJWT *jwt.JSONWebToken) error {
	claims := signedJWT.Payload

	sdAlg, err := getSDAlg(claims)
	if err != nil {
		return err
	}

	cryptoHash, err := GetCryptoHash(sdAlg)
	if err != nil {
		return err
	}

	digests, err := disclosureDigestsDeep(claims, disclosures, cryptoHash)
	if err != nil {
		return err
	}

	for _, disclosure := range disclosures {
		digest, err := GetHash(cryptoHash, disclosure)
		if err != nil {
			return err
		}

		if !digests[digest] {
			return fmt.Errorf("%w: '%s'", ErrDisclosureNotFound, digest)
		}
	}

	return nil
}

// DisclosedClaims rebuilds the payload with every disclosed claim put back in place of its digest.
// Undisclosed digests, _sd and _sd_alg are removed.
func DisclosedClaims(claims map[string]interface{}, disclosures []string) (map[string]interface{}, error) {
	alg, err := getSDAlg(claims)
	if err != nil {
		return nil, err
	}

	cryptoHash, err := GetCryptoHash(alg)
	if err != nil {
		return nil, err
	}

	byDigest, err := claimsByDigest(disclosures, cryptoHash)
	if err != nil {
		return nil, err
	}

	out, ok := expand(claims, byDigest).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected SD-JWT payload")
	}

	delete(out, SDAlgorithmKey)

	return out, nil
}

func claimsByDigest(disclosures []string, hash crypto.Hash) (map[string]*DisclosureClaim, error) {
	claims, err := GetDisclosureClaims(disclosures)
	if err != nil {
		return nil, err
	}

	byDigest := make(map[string]*DisclosureClaim, len(claims))

	for _, c := range claims {
		digest, err := GetHash(hash, c.Disclosure)
		if err != nil {
			return nil, err
		}

		byDigest[digest] = c
	}

	return byDigest, nil
}

func expand(v interface{}, byDigest map[string]*DisclosureClaim) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))

		for k, val := range t {
			if k == SDKey {
				continue
			}

			out[k] = expand(val, byDigest)
		}

		digests, _ := stringArray(t[SDKey]) //nolint:errcheck

		for _, d := range digests {
			if c, ok := byDigest[d]; ok {
				out[c.Name] = expand(c.Value, byDigest)
			}
		}

		return out
	case []interface{}:
		out := make([]interface{}, 0, len(t))
		for _, e := range t {
			out = append(out, expand(e, byDigest))
		}

		return out
	default:
		return v
	}
}

// disclosureDigestsDeep collects _sd digests from the payload and from the values of the disclosures
// themselves, which is where digests of nested selectively disclosable claims live.
func disclosureDigestsDeep(claims map[string]interface{}, disclosures []string,
	hash crypto.Hash) (map[string]bool, error) {
	digests := map[string]bool{}

	if err := collectDigests(claims, digests); err != nil {
		return nil, err
	}

	decoded, err := GetDisclosureClaims(disclosures)
	if err != nil {
		return nil, err
	}

	for _, c := range decoded {
		if err := collectDigests(c.Value, digests); err != nil {
			return nil, err
		}
	}

	return digests, nil
}

func collectDigests(v interface{}, into map[string]bool) error {
	switch t := v.(type) {
	case map[string]interface{}:
		found, err := GetDisclosureDigests(t)
		if err != nil {
			return err
		}

		for d := range found {
			into[d] = true
		}

		for k, val := range t {
			if k == SDKey {
				continue
			}

			if err := collectDigests(val, into); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, e := range t {
			if err := collectDigests(e, into); err != nil {
				return err
			}
		}
	}

	return nil
}

// GetCryptoHash maps the _sd_alg value to a hash function. Only sha-256 is supported.
func GetCryptoHash(sdAlg string) (crypto.Hash, error) {
	if strings.EqualFold(sdAlg, crypto.SHA256.String()) {
		return crypto.SHA256, nil
	}

	return 0, fmt.Errorf("%s %q not supported", SDAlgorithmKey, sdAlg)
}

func getSDAlg(claims map[string]interface{}) (string, error) {
	switch alg := claims[SDAlgorithmKey].(type) {
	case string:
		return alg, nil
	case nil:
		return "", fmt.Errorf("%s must be present in SD-JWT", SDAlgorithmKey)
	default:
		return "", fmt.Errorf("%s must be a string", SDAlgorithmKey)
	}
}

// GetDisclosureDigests returns the _sd digests of one object level, nil when there are none.
func GetDisclosureDigests(claims map[string]interface{}) (map[string]bool, error) {
	list, err := stringArray(claims[SDKey])
	if err != nil {
		return nil, fmt.Errorf("get disclosure digests: %w", err)
	}

	if list == nil {
		return nil, nil
	}

	set := make(map[string]bool, len(list))
	for _, d := range list {
		set[d] = true
	}

	return set, nil
}

// CheckForDuplicates fails when a disclosure is repeated.
func CheckForDuplicates(values []string) error {
	seen := make(map[string]int, len(values))

	var dup []string

	for _, v := range values {
		if seen[v]++; seen[v] == 2 { //nolint:gomnd
			dup = append(dup, v)
		}
	}

	if len(dup) != 0 {
		return fmt.Errorf("duplicate values found %v", dup)
	}

	return nil
}

func stringArray(entry interface{}) ([]string, error) {
	if entry == nil {
		return nil, nil
	}

	items, ok := entry.([]interface{})
	if !ok {
		return nil, fmt.Errorf("entry type[%T] is not an array", entry)
	}

	out := make([]string, len(items))

	for i, item := range items {
		if out[i], ok = item.(string); !ok {
			return nil, fmt.Errorf("entry item type[%T] is not a string", item)
		}
	}

	return out, nil
}
