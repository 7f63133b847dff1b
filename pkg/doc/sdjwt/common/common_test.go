/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"crypto"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

const disclosure = "WyI2cU1RdlJMNWhhaiIsICJmYW1pbHlfbmFtZSIsICJNw7ZiaXVzIl0"

func digestOf(s string) string {
	sum := sha256.Sum256([]byte(s))

	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func TestCombinedFormat(t *testing.T) {
	r := require.New(t)

	cfi := ParseCombinedFormatForIssuance("jwt~d1~d2~")
	r.Equal("jwt", cfi.SDJWT)
	r.Equal([]string{"d1", "d2"}, cfi.Disclosures)
	r.Equal("jwt~d1~d2~", cfi.Serialize())

	cfi = ParseCombinedFormatForIssuance("jwt")
	r.Empty(cfi.Disclosures)

	cfp := ParseCombinedFormatForPresentation("jwt~d1~hb")
	r.Equal([]string{"d1"}, cfp.Disclosures)
	r.Equal("hb", cfp.HolderBinding)

	cfp = ParseCombinedFormatForPresentation("jwt~")
	r.Empty(cfp.Disclosures)
	r.Empty(cfp.HolderBinding)
	r.Equal("jwt~", cfp.Serialize())
}

func TestGetDisclosureClaims(t *testing.T) {
	r := require.New(t)

	claims, err := GetDisclosureClaims([]string{disclosure})
	r.NoError(err)
	r.Len(claims, 1)
	r.Equal("6qMQvRL5haj", claims[0].Salt)
	r.Equal("family_name", claims[0].Name)
	r.Equal("Möbius", claims[0].Value)

	_, err = GetDisclosureClaims([]string{"!!"})
	r.Error(err)

	_, err = GetDisclosureClaims([]string{base64.RawURLEncoding.EncodeToString([]byte(`["a","b"]`))})
	r.ErrorContains(err, "disclosure array size")
}

func TestGetHash(t *testing.T) {
	got, err := GetHash(crypto.SHA256, disclosure)
	require.NoError(t, err)
	require.Equal(t, digestOf(disclosure), got)
}

func TestDisclosedClaims(t *testing.T) {
	r := require.New(t)

	nested := base64.RawURLEncoding.EncodeToString([]byte(`["s2","street","Main St"]`))

	payload := map[string]interface{}{
		"iss":          "did:prism:issuer",
		SDAlgorithmKey: "sha-256",
		SDKey:          []interface{}{digestOf(disclosure), "decoy"},
		"address": map[string]interface{}{
			SDKey: []interface{}{digestOf(nested)},
		},
	}

	out, err := DisclosedClaims(payload, []string{disclosure, nested})
	r.NoError(err)
	r.Equal("Möbius", out["family_name"])
	r.Equal(map[string]interface{}{"street": "Main St"}, out["address"])
	r.NotContains(out, SDKey)
	r.NotContains(out, SDAlgorithmKey)

	out, err = DisclosedClaims(payload, nil)
	r.NoError(err)
	r.NotContains(out, "family_name")
	r.Equal(map[string]interface{}{}, out["address"])

	_, err = DisclosedClaims(map[string]interface{}{}, nil)
	r.ErrorContains(err, SDAlgorithmKey)
}

func TestCheckForDuplicates(t *testing.T) {
	require.NoError(t, CheckForDuplicates([]string{"a", "b"}))
	require.ErrorContains(t, CheckForDuplicates([]string{"a", "b", "a"}), "duplicate")
}
