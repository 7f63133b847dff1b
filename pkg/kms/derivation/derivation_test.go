/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package derivation

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathParse(t *testing.T) {
	for _, s := range []string{"m/0'/0'/0'", "m'/0'/0'/0'", "m/44'/60'/0'/0/5", "m"} {
		t.Run(s, func(t *testing.T) {
			p, err := Parse(s)
			require.NoError(t, err)
			require.Equal(t, s, p.String())
		})
	}

	p, err := Parse("m/1'/2/7'/3")
	require.NoError(t, err)
	require.Equal(t, uint32(7), p.KeyIndex())
	require.False(t, p.AllHardened())
	require.Equal(t, uint32(7)|HardenedOffset, p.Axes[2].Value())

	require.Equal(t, uint32(9), ForIndex(9).KeyIndex())
	require.Equal(t, "m/0'/0'/0'", DefaultPath().String())

	for _, bad := range []string{"", "0'/1", "m/x", "m//1", "m/2147483648"} {
		_, err = Parse(bad)
		require.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

func TestSecp256k1Vectors(t *testing.T) {
	seed := mustHex(t, "000102030405060708090a0b0c0d0e0f")

	tests := []struct {
		path      string
		key       string
		chainCode string
	}{
		{
			"m",
			"e8f32e723decf4051aefac8e2c93c9c5b214313817cdb01a1494b917c8436b35",
			"873dff81c02f525623fd1fe5167eac3a55a049de3d314bb42ee227ffed37d508",
		},
		{
			"m/0'",
			"edb2e14f9ee77d26dd93b4ecede8d16ed408ce149b6cd80b0715a2d911a0afea",
			"47fdacbd0f1097043b78c63c20c34ef4ed9a111d980047ad16282c7ae6236141",
		},
		{
			"m/0'/1",
			"3c6cb8d0f6a264c91ea8b5030fadaa8e538b020f0a387421a12de9319dc93368",
			"2a7857631386ba23dacac34180dd1983734e444fdbf774041578e9b6adb37c19",
		},
		{
			"m/0'/1/2'",
			"cbce0d719ecf7431d88e6a89fa1483e02e35092af60c042b1df2ff59fa424dca",
			"04466b9cc8e161e966409ca52986c584f07e9dc81f735db683c3ff6ec7b1503f",
		},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			node, err := Secp256k1(seed, MustParse(tc.path))
			require.NoError(t, err)
			require.Equal(t, tc.key, hex.EncodeToString(node.Key))
			require.Equal(t, tc.chainCode, hex.EncodeToString(node.ChainCode))
		})
	}
}

func TestEd25519Vectors(t *testing.T) {
	seed := mustHex(t, "000102030405060708090a0b0c0d0e0f")

	node, err := Ed25519(seed, MustParse("m"))
	require.NoError(t, err)
	require.Equal(t, "2b4be7f19ee27bbf30c667b642d5f4aa69fd169872f8fc3059c08ebae2eb19e7", hex.EncodeToString(node.Key))
	require.Equal(t, "90046a93de5380a72b5e45010748567d5ea02bbf6522f979e05c0d8d8ca9fffb", hex.EncodeToString(node.ChainCode))

	node, err = Ed25519(seed, MustParse("m/0'"))
	require.NoError(t, err)
	require.Equal(t, "68e0fe46dfb67e368c75379acec591dad19df3cde26e63b93a8e704f1dade7a3", hex.EncodeToString(node.Key))

	_, err = Ed25519(seed, MustParse("m/0"))
	require.ErrorIs(t, err, ErrNonHardenedEd25519)
}

func TestDeterminism(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}

	first, err := Secp256k1(seed, DefaultPath())
	require.NoError(t, err)

	second, err := Secp256k1(append([]byte(nil), seed...), MustParse("m/0'/0'/0'"))
	require.NoError(t, err)
	require.Equal(t, first.Key, second.Key)
	require.Len(t, first.Key, 32)

	_, err = Secp256k1(seed[:8], DefaultPath())
	require.ErrorIs(t, err, ErrInvalidSeed)
}
