/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
)

const credDefID = "Th7MpTaRZVRYnPiabds81Y:3:CL:1:tag"

func testStack() *CredentialStack {
	return &CredentialStack{
		Credential: &Credential{
			SchemaID:  "Th7MpTaRZVRYnPiabds81Y:2:passport:1.0",
			CredDefID: credDefID,
			Values: map[string]AttributeValue{
				"name": {Raw: "Alice", Encoded: "1139481716457488690172217916278103335"},
				"age":  {Raw: "30", Encoded: "30"},
			},
			Signature: json.RawMessage(`{"p_credential":{}}`),
		},
		Schema: &Schema{Name: "passport", Version: "1.0", AttrNames: []string{"name", "age"}},
	}
}

func TestCredentialStack(t *testing.T) {
	r := require.New(t)

	stack := testStack()

	var _ verifiable.StorableCredential = stack

	r.Equal("Th7MpTaRZVRYnPiabds81Y", stack.Issuer())
	r.Equal(map[string]interface{}{"name": "Alice", "age": "30"}, stack.Claims())
	r.Equal([]string{"passport"}, stack.Type())
	r.Equal(verifiable.FormatAnonCreds, stack.Format())
	r.Equal(verifiable.AnonCredsRestorationID, stack.RestorationID())
	r.Nil(stack.ExpirationDate())
	r.Len(stack.ID(), 64)

	restored, err := ParseCredentialStack(stack.StorableData())
	r.NoError(err)
	r.Equal(stack.ID(), restored.ID())
	r.Equal(stack.Claims(), restored.Claims())

	stack.Definition = &CredentialDefinition{IssuerID: "did:prism:issuer"}
	r.Equal("did:prism:issuer", stack.Issuer())

	_, err = ParseCredentialStack([]byte(`{"credential":{}}`))
	r.ErrorIs(err, verifiable.ErrInvalidCredential)
}

func TestSelect(t *testing.T) {
	r := require.New(t)

	request := &PresentationRequest{
		Nonce: "1234",
		RequestedAttributes: map[string]RequestedAttribute{
			"name_ref": {Name: "name", Restrictions: []Restriction{{CredDefID: credDefID}}},
		},
		RequestedPredicates: map[string]RequestedPredicate{
			"age_ref": {Name: "age", PType: GreaterOrEqual, PValue: 18},
		},
	}

	selected, err := Select(request, testStack())
	r.NoError(err)
	r.Equal(map[string]bool{"name_ref": true}, selected.Attributes)
	r.Equal([]string{"age_ref"}, selected.Predicates)

	request.RequestedPredicates["age_ref"] = RequestedPredicate{Name: "age", PType: GreaterOrEqual, PValue: 65}
	request.RequestedAttributes["email_ref"] = RequestedAttribute{Name: "email"}

	_, err = Select(request, testStack())
	r.ErrorIs(err, verifiable.ErrMissingClaim)
	r.ErrorContains(err, "age, email")

	request = &PresentationRequest{RequestedAttributes: map[string]RequestedAttribute{
		"name_ref": {Name: "name", Restrictions: []Restriction{{CredDefID: "other"}}},
	}}

	_, err = Select(request, testStack())
	r.ErrorIs(err, verifiable.ErrMissingClaim)
}
