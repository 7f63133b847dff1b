/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package prism creates and resolves long form did:prism DIDs.
package prism

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/secp256k1"
)

// DIDMethod is the method name of PRISM DIDs.
const DIDMethod = "prism"

// MasterKeyID is the id of the master key inside the create operation.
const MasterKeyID = "master0"

// Create builds the long form did:prism:<sha256 hex>:<base64url operation> for a
// secp256k1 master key.
func Create(master keys.PublicKey, services []did.Service) (did.DID, error) {
	pub, ok := master.(*secp256k1.PublicKey)
	if !ok {
		return did.DID{}, fmt.Errorf("%w: master key must be secp256k1, got %s", did.ErrInvalidPrismDID, master.Curve())
	}

	op := &CreateOperation{
		PublicKeys: []PublicKey{{ID: MasterKeyID, Usage: MasterKey, Curve: secp256k1CurveName, Data: pub.Raw()}},
	}

	for i := range services {
		op.Services = append(op.Services, Service{
			ID:       strings.TrimPrefix(services[i].ID, "#"),
			Type:     firstType(&services[i]),
			Endpoint: services[i].Endpoint.URI,
		})
	}

	encoded := op.Marshal()
	sum := sha256.Sum256(encoded)

	return did.New(DIDMethod, hex.EncodeToString(sum[:])+":"+base64.RawURLEncoding.EncodeToString(encoded)), nil
}

// ShortForm drops the encoded state of a long form DID.
func ShortForm(id did.DID) did.DID {
	short, _, _ := strings.Cut(id.MethodID, ":")

	return did.New(DIDMethod, short)
}

func firstType(s *did.Service) string {
	if len(s.Type) == 0 {
		return did.DIDCommMessagingServiceType
	}

	return s.Type[0]
}

// VDR resolves long form PRISM DIDs without a node.
type VDR struct{}

// New returns new instance of VDR that works with did:prism method.
func New() *VDR {
	return &VDR{}
}

// Accept accepts did:prism method.
func (v *VDR) Accept(method string) bool {
	return method == DIDMethod
}

// Close frees resources being maintained by VDR.
func (v *VDR) Close() error {
	return nil
}

// Read decodes the initial state embedded in a long form DID.
func (v *VDR) Read(_ context.Context, id did.DID) (*did.Doc, error) {
	hash, state, ok := strings.Cut(id.MethodID, ":")
	if !ok || state == "" {
		return nil, fmt.Errorf("%w: short form %s needs a node", did.ErrUnresolvable, id)
	}

	encoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(state, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: encoded state: %v", did.ErrInvalidPrismDID, err)
	}

	sum := sha256.Sum256(encoded)
	if hex.EncodeToString(sum[:]) != strings.ToLower(hash) {
		return nil, fmt.Errorf("%w: %s", did.ErrInitialStateOfDIDChanged, id)
	}

	op, err := UnmarshalCreateOperation(encoded)
	if err != nil {
		return nil, err
	}

	return document(id, op)
}

func document(id did.DID, op *CreateOperation) (*did.Doc, error) {
	var (
		vms       []did.VerificationMethod
		auth      []string
		assertion []string
		agreement []string
	)

	for i := range op.PublicKeys {
		k := &op.PublicKeys[i]

		if k.Curve != secp256k1CurveName {
			return nil, fmt.Errorf("%w: unsupported curve %q", did.ErrInvalidPrismDID, k.Curve)
		}

		pub, err := kms.ParsePublicKey(keys.Secp256k1, k.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: key %s: %v", did.ErrInvalidPrismDID, k.ID, err)
		}

		j, err := pub.(keys.Exportable).JWK()
		if err != nil {
			return nil, err
		}

		vms = append(vms, did.VerificationMethod{
			ID:           did.URL{DID: id, Fragment: k.ID},
			Controller:   id,
			Type:         did.EcdsaSecp256k1VerificationKey19,
			PublicKeyJwk: j,
		})

		ref := "#" + k.ID

		switch k.Usage {
		case MasterKey, AuthenticationKey:
			auth = append(auth, ref)
		case IssuingKey:
			assertion = append(assertion, ref)
		case KeyAgreementKey:
			agreement = append(agreement, ref)
		}
	}

	if len(vms) == 0 {
		return nil, fmt.Errorf("%w: no public keys", did.ErrInvalidPrismDID)
	}

	opts := []did.DocOption{did.WithVerificationMethod(vms...), did.WithAuthentication(auth...)}

	if len(assertion) > 0 {
		opts = append(opts, did.WithAssertionMethod(assertion...))
	}

	if len(agreement) > 0 {
		opts = append(opts, did.WithKeyAgreement(agreement...))
	}

	if len(op.Services) > 0 {
		svcs := make([]did.Service, 0, len(op.Services))
		for _, s := range op.Services {
			svcs = append(svcs, did.Service{
				ID:       "#" + s.ID,
				Type:     []string{s.Type},
				Endpoint: did.ServiceEndpoint{URI: s.Endpoint},
			})
		}

		opts = append(opts, did.WithService(svcs...))
	}

	return did.BuildDoc(id, opts...), nil
}
