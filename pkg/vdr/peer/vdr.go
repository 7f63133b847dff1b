/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package peer

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

// VDR implements did:peer numalgo 2 resolution. The document is computed from the DID itself.
type VDR struct{}

// New returns new instance of VDR that works with did:peer method.
func New() *VDR {
	return &VDR{}
}

// Accept accepts did:peer method.
func (v *VDR) Accept(method string) bool {
	return method == DIDMethod
}

// Close frees resources being maintained by VDR.
func (v *VDR) Close() error {
	return nil
}

// Read expands the DID into its document. Keys are numbered #key-1, #key-2… in order.
func (v *VDR) Read(_ context.Context, id did.DID) (*did.Doc, error) {
	if id.Method != DIDMethod {
		return nil, fmt.Errorf("%w: not a peer DID: %s", did.ErrInvalidPeerDID, id)
	}

	segments := strings.Split(id.MethodID, ".")
	if segments[0] != numalgo2 || len(segments) < 2 {
		return nil, fmt.Errorf("%w: unsupported numalgo in %s", did.ErrInvalidPeerDID, id)
	}

	var (
		vms          []did.VerificationMethod
		agreement    []string
		authenticate []string
		services     []did.Service
	)

	for _, seg := range segments[1:] {
		if len(seg) < 2 {
			return nil, fmt.Errorf("%w: empty segment in %s", did.ErrInvalidPeerDID, id)
		}

		switch seg[0] {
		case purposeKeyAgreement, purposeAuthentication:
			vm, err := verificationMethod(id, len(vms)+1, seg[1:])
			if err != nil {
				return nil, err
			}

			vms = append(vms, vm)

			if seg[0] == purposeKeyAgreement {
				agreement = append(agreement, "#"+vm.ID.Fragment)
			} else {
				authenticate = append(authenticate, "#"+vm.ID.Fragment)
			}
		case purposeService:
			svc, err := decodeService(seg[1:], len(services)+1)
			if err != nil {
				return nil, err
			}

			services = append(services, svc)
		default:
			return nil, fmt.Errorf("%w: unknown purpose %q", did.ErrInvalidPeerDID, seg[0])
		}
	}

	opts := []did.DocOption{did.WithVerificationMethod(vms...)}

	if len(authenticate) > 0 {
		opts = append(opts, did.WithAuthentication(authenticate...))
	}

	if len(agreement) > 0 {
		opts = append(opts, did.WithKeyAgreement(agreement...))
	}

	if len(services) > 0 {
		opts = append(opts, did.WithService(services...))
	}

	return did.BuildDoc(id, opts...), nil
}

func verificationMethod(id did.DID, n int, multibaseKey string) (did.VerificationMethod, error) {
	pub, err := did.DecodeMultibaseKey(multibaseKey)
	if err != nil {
		return did.VerificationMethod{}, fmt.Errorf("%w: %v", did.ErrInvalidPeerDID, err)
	}

	var methodType string

	switch pub.Curve() {
	case keys.X25519:
		methodType = did.X25519KeyAgreementKey2020
	case keys.Ed25519:
		methodType = did.Ed25519VerificationKey2020
	default:
		methodType = did.EcdsaSecp256k1VerificationKey19
	}

	return did.VerificationMethod{
		ID:                 did.URL{DID: id, Fragment: fmt.Sprintf("key-%d", n)},
		Controller:         id,
		Type:               methodType,
		PublicKeyMultibase: multibaseKey,
	}, nil
}
