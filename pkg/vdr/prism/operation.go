/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prism

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

// KeyUsage of a PRISM public key.
type KeyUsage int32

// Key usages as numbered by the PRISM node protocol.
const (
	UnknownKey KeyUsage = iota
	MasterKey
	IssuingKey
	KeyAgreementKey
	AuthenticationKey
	RevocationKey
	CapabilityInvocationKey
	CapabilityDelegationKey
)

// Field numbers of the node protocol messages used for a create DID operation.
const (
	fieldAtalaCreateDID      protowire.Number = 1
	fieldCreateDIDData       protowire.Number = 1
	fieldCreationPublicKeys  protowire.Number = 2
	fieldCreationServices    protowire.Number = 3
	fieldPublicKeyID         protowire.Number = 1
	fieldPublicKeyUsage      protowire.Number = 2
	fieldPublicKeyCompressed protowire.Number = 9
	fieldCompressedCurve     protowire.Number = 1
	fieldCompressedData      protowire.Number = 2
	fieldServiceID           protowire.Number = 1
	fieldServiceType         protowire.Number = 2
	fieldServiceEndpoint     protowire.Number = 3
)

const secp256k1CurveName = "secp256k1"

// PublicKey entry of a create DID operation.
type PublicKey struct {
	ID    string
	Usage KeyUsage
	Curve string
	Data  []byte // compressed EC point
}

// Service entry of a create DID operation.
type Service struct {
	ID       string
	Type     string
	Endpoint string
}

// CreateOperation is the DID creation data of an AtalaOperation.
type CreateOperation struct {
	PublicKeys []PublicKey
	Services   []Service
}

// Marshal encodes the operation as AtalaOperation{create_did{did_data{...}}}.
func (op *CreateOperation) Marshal() []byte {
	var data []byte

	for i := range op.PublicKeys {
		data = appendMessage(data, fieldCreationPublicKeys, op.PublicKeys[i].marshal())
	}

	for i := range op.Services {
		data = appendMessage(data, fieldCreationServices, op.Services[i].marshal())
	}

	create := appendMessage(nil, fieldCreateDIDData, data)

	return appendMessage(nil, fieldAtalaCreateDID, create)
}

func (k *PublicKey) marshal() []byte {
	var b []byte

	b = appendString(b, fieldPublicKeyID, k.ID)
	b = protowire.AppendTag(b, fieldPublicKeyUsage, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(k.Usage))

	var ec []byte
	ec = appendString(ec, fieldCompressedCurve, k.Curve)
	ec = appendMessage(ec, fieldCompressedData, k.Data)

	return appendMessage(b, fieldPublicKeyCompressed, ec)
}

func (s *Service) marshal() []byte {
	var b []byte

	b = appendString(b, fieldServiceID, s.ID)
	b = appendString(b, fieldServiceType, s.Type)

	return appendString(b, fieldServiceEndpoint, s.Endpoint)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}

	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, m []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendBytes(b, m)
}

// UnmarshalCreateOperation decodes an AtalaOperation holding a create DID operation.
func UnmarshalCreateOperation(b []byte) (*CreateOperation, error) {
	create, err := singleField(b, fieldAtalaCreateDID)
	if err != nil {
		return nil, err
	}

	data, err := singleField(create, fieldCreateDIDData)
	if err != nil {
		return nil, err
	}

	op := &CreateOperation{}

	err = walk(data, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		switch {
		case num == fieldCreationPublicKeys && typ == protowire.BytesType:
			k, kerr := unmarshalPublicKey(v)
			if kerr != nil {
				return kerr
			}

			op.PublicKeys = append(op.PublicKeys, *k)
		case num == fieldCreationServices && typ == protowire.BytesType:
			s, serr := unmarshalService(v)
			if serr != nil {
				return serr
			}

			op.Services = append(op.Services, *s)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return op, nil
}

func unmarshalPublicKey(b []byte) (*PublicKey, error) {
	k := &PublicKey{}

	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch {
		case num == fieldPublicKeyID && typ == protowire.BytesType:
			k.ID = string(v)
		case num == fieldPublicKeyUsage && typ == protowire.VarintType:
			k.Usage = KeyUsage(n)
		case num == fieldPublicKeyCompressed && typ == protowire.BytesType:
			return walk(v, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
				switch {
				case num == fieldCompressedCurve && typ == protowire.BytesType:
					k.Curve = string(v)
				case num == fieldCompressedData && typ == protowire.BytesType:
					k.Data = append([]byte(nil), v...)
				}

				return nil
			})
		}

		return nil
	})

	return k, err
}

func unmarshalService(b []byte) (*Service, error) {
	s := &Service{}

	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return nil
		}

		switch num {
		case fieldServiceID:
			s.ID = string(v)
		case fieldServiceType:
			s.Type = string(v)
		case fieldServiceEndpoint:
			s.Endpoint = string(v)
		}

		return nil
	})

	return s, err
}

func singleField(b []byte, want protowire.Number) ([]byte, error) {
	var found []byte

	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if num == want && typ == protowire.BytesType {
			found = v
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if found == nil {
		return nil, fmt.Errorf("%w: field %d missing", did.ErrInvalidPrismDID, want)
	}

	return found, nil
}

// walk visits every field of a message. Unknown wire types are skipped.
func walk(b []byte, visit func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", did.ErrInvalidPrismDID, protowire.ParseError(n))
		}

		b = b[n:]

		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return fmt.Errorf("%w: %v", did.ErrInvalidPrismDID, protowire.ParseError(m))
			}

			if err := visit(num, typ, v, 0); err != nil {
				return err
			}

			b = b[m:]
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fmt.Errorf("%w: %v", did.ErrInvalidPrismDID, protowire.ParseError(m))
			}

			if err := visit(num, typ, nil, v); err != nil {
				return err
			}

			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return fmt.Errorf("%w: %v", did.ErrInvalidPrismDID, protowire.ParseError(m))
			}

			b = b[m:]
		}
	}

	return nil
}
