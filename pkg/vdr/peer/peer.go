/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package peer creates and resolves did:peer numalgo 2 DIDs.
package peer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

// DIDMethod is the method name of peer DIDs.
const DIDMethod = "peer"

const (
	numalgo2 = "2"

	purposeKeyAgreement   = 'E'
	purposeAuthentication = 'V'
	purposeService        = 'S'

	abbreviatedDIDCommMessaging = "dm"
)

type abbreviatedEndpoint struct {
	URI         string   `json:"uri"`
	Accept      []string `json:"a,omitempty"`
	RoutingKeys []string `json:"r,omitempty"`
}

type abbreviatedService struct {
	Type     string              `json:"t"`
	Endpoint abbreviatedEndpoint `json:"s"`
}

// Create builds did:peer:2.Ez…Vz…S… from key agreement keys (X25519), authentication
// keys (Ed25519) and services. The same inputs always give the same DID.
func Create(keyAgreement, authentication []keys.PublicKey, services []did.Service) (did.DID, error) {
	if len(keyAgreement)+len(authentication) == 0 {
		return did.DID{}, fmt.Errorf("%w: at least one key is required", did.ErrInvalidPeerDID)
	}

	b := strings.Builder{}
	b.WriteString(numalgo2)

	for _, k := range keyAgreement {
		if k.Curve() != keys.X25519 {
			return did.DID{}, fmt.Errorf("%w: key agreement key must be X25519, got %s", did.ErrInvalidPeerDID, k.Curve())
		}

		if err := writeKey(&b, purposeKeyAgreement, k); err != nil {
			return did.DID{}, err
		}
	}

	for _, k := range authentication {
		if k.Curve() != keys.Ed25519 {
			return did.DID{}, fmt.Errorf("%w: authentication key must be Ed25519, got %s", did.ErrInvalidPeerDID, k.Curve())
		}

		if err := writeKey(&b, purposeAuthentication, k); err != nil {
			return did.DID{}, err
		}
	}

	for i := range services {
		encoded, err := encodeService(&services[i])
		if err != nil {
			return did.DID{}, err
		}

		b.WriteByte('.')
		b.WriteByte(purposeService)
		b.WriteString(encoded)
	}

	return did.New(DIDMethod, b.String()), nil
}

func writeKey(b *strings.Builder, purpose byte, k keys.PublicKey) error {
	mb, err := did.EncodeMultibaseKey(k)
	if err != nil {
		return err
	}

	b.WriteByte('.')
	b.WriteByte(purpose)
	b.WriteString(mb)

	return nil
}

func encodeService(svc *did.Service) (string, error) {
	t := did.DIDCommMessagingServiceType
	if len(svc.Type) > 0 {
		t = svc.Type[0]
	}

	if t == did.DIDCommMessagingServiceType {
		t = abbreviatedDIDCommMessaging
	}

	data, err := json.Marshal(abbreviatedService{
		Type: t,
		Endpoint: abbreviatedEndpoint{
			URI:         svc.Endpoint.URI,
			Accept:      svc.Endpoint.Accept,
			RoutingKeys: svc.Endpoint.RoutingKeys,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode service: %v", did.ErrInvalidPeerDID, err)
	}

	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeService(segment string, index int) (did.Service, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(segment, "="))
	if err != nil {
		return did.Service{}, fmt.Errorf("%w: service segment: %v", did.ErrInvalidPeerDID, err)
	}

	var abbr abbreviatedService
	if err = json.Unmarshal(data, &abbr); err != nil {
		return did.Service{}, fmt.Errorf("%w: service segment: %v", did.ErrInvalidPeerDID, err)
	}

	t := abbr.Type
	if t == abbreviatedDIDCommMessaging {
		t = did.DIDCommMessagingServiceType
	}

	return did.Service{
		ID:   fmt.Sprintf("#didcomm-%d", index),
		Type: []string{t},
		Endpoint: did.ServiceEndpoint{
			URI:         abbr.Endpoint.URI,
			Accept:      abbr.Endpoint.Accept,
			RoutingKeys: abbr.Endpoint.RoutingKeys,
		},
	}, nil
}
