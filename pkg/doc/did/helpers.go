/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

// DIDCommMessagingServiceType is the DIDComm v2 service type.
const DIDCommMessagingServiceType = "DIDCommMessaging"

// LookupService returns the first service from the given DIDDoc matching the given service type.
func LookupService(didDoc *Doc, serviceType string) (*Service, bool) {
	svcs := didDoc.Services()

	for i := range svcs {
		if svcs[i].HasType(serviceType) {
			return &svcs[i], true
		}
	}

	return nil, false
}

// LookupDIDCommEndpoint returns the DIDComm messaging endpoint of the document.
func LookupDIDCommEndpoint(didDoc *Doc) (ServiceEndpoint, bool) {
	svc, ok := LookupService(didDoc, DIDCommMessagingServiceType)
	if !ok {
		return ServiceEndpoint{}, false
	}

	return svc.Endpoint, true
}

// PublicKeys decodes the keys of vms. The first undecodable key fails the call.
func PublicKeys(vms []VerificationMethod) ([]keys.PublicKey, error) {
	out := make([]keys.PublicKey, 0, len(vms))

	for i := range vms {
		pub, err := vms[i].PublicKey()
		if err != nil {
			return nil, fmt.Errorf("verification method %s: %w", vms[i].ID.String(), err)
		}

		out = append(out, pub)
	}

	return out, nil
}

// AuthenticationKeys returns the decoded authentication keys, falling back to all
// verification methods when the document has no authentication property.
func AuthenticationKeys(didDoc *Doc) ([]keys.PublicKey, error) {
	vms := didDoc.Authentication()
	if len(vms) == 0 {
		vms = didDoc.VerificationMethods()
	}

	return PublicKeys(vms)
}

// KeyAgreementKeys returns the decoded key agreement keys.
func KeyAgreementKeys(didDoc *Doc) ([]keys.PublicKey, error) {
	return PublicKeys(didDoc.KeyAgreement())
}
