/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-varint"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

// Multicodec public key codes (https://github.com/multiformats/multicodec/blob/master/table.csv).
const (
	Secp256k1PubCodec uint64 = 0xe7
	X25519PubCodec    uint64 = 0xec
	Ed25519PubCodec   uint64 = 0xed
)

// CodecOf returns the multicodec code of a public key curve.
func CodecOf(curve keys.Curve) (uint64, error) {
	switch curve {
	case keys.Secp256k1:
		return Secp256k1PubCodec, nil
	case keys.X25519:
		return X25519PubCodec, nil
	case keys.Ed25519:
		return Ed25519PubCodec, nil
	default:
		return 0, fmt.Errorf("%w: no multicodec for curve %q", ErrInvalidPublicKeyEncoding, curve)
	}
}

func curveOfCodec(code uint64) (keys.Curve, bool) {
	switch code {
	case Secp256k1PubCodec:
		return keys.Secp256k1, true
	case X25519PubCodec:
		return keys.X25519, true
	case Ed25519PubCodec:
		return keys.Ed25519, true
	default:
		return "", false
	}
}

// EncodeMultibaseKey returns z-base58btc(multicodec || raw) for pub.
func EncodeMultibaseKey(pub keys.PublicKey) (string, error) {
	code, err := CodecOf(pub.Curve())
	if err != nil {
		return "", err
	}

	data := append(varint.ToUvarint(code), pub.Raw()...)

	encoded, err := multibase.Encode(multibase.Base58BTC, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPublicKeyEncoding, err)
	}

	return encoded, nil
}

// DecodeMultibaseKey reverses EncodeMultibaseKey.
func DecodeMultibaseKey(s string) (keys.PublicKey, error) {
	_, data, err := multibase.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: multibase: %v", ErrInvalidPublicKeyEncoding, err)
	}

	code, n, err := varint.FromUvarint(data)
	if err != nil {
		return nil, fmt.Errorf("%w: multicodec: %v", ErrInvalidPublicKeyEncoding, err)
	}

	curve, ok := curveOfCodec(code)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported multicodec 0x%x", ErrInvalidPublicKeyEncoding, code)
	}

	return parseRaw(curve, data[n:])
}

func decodeBase58Key(curve keys.Curve, s string) (keys.PublicKey, error) {
	raw := base58.Decode(s)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty base58 key", ErrInvalidPublicKeyEncoding)
	}

	return parseRaw(curve, raw)
}

func parseRaw(curve keys.Curve, raw []byte) (keys.PublicKey, error) {
	pub, err := kms.ParsePublicKey(curve, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKeyEncoding, err)
	}

	return pub, nil
}
