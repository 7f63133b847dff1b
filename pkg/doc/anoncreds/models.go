/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import "encoding/json"

// DefaultLinkSecretID names the single link secret of a wallet.
const DefaultLinkSecretID = "default"

// Schema lists the attribute names a credential definition signs.
type Schema struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	AttrNames []string `json:"attrNames"`
	IssuerID  string   `json:"issuerId"`
}

// CredentialDefinition is the public key material of an issuer for one schema.
type CredentialDefinition struct {
	IssuerID string          `json:"issuerId"`
	SchemaID string          `json:"schemaId"`
	Type     string          `json:"type"`
	Tag      string          `json:"tag"`
	Value    json.RawMessage `json:"value"`
}

// CredentialOffer is the attachment of an offer-credential message.
type CredentialOffer struct {
	SchemaID            string          `json:"schema_id"`
	CredDefID           string          `json:"cred_def_id"`
	KeyCorrectnessProof json.RawMessage `json:"key_correctness_proof"`
	Nonce               string          `json:"nonce"`
	MethodName          string          `json:"method_name,omitempty"`
}

// CredentialRequest is the attachment of a request-credential message.
type CredentialRequest struct {
	Entropy                   string          `json:"entropy,omitempty"`
	ProverDID                 string          `json:"prover_did,omitempty"`
	CredDefID                 string          `json:"cred_def_id"`
	BlindedMS                 json.RawMessage `json:"blinded_ms"`
	BlindedMSCorrectnessProof json.RawMessage `json:"blinded_ms_correctness_proof"`
	Nonce                     string          `json:"nonce"`
}

// CredentialRequestMetadata is the prover secret kept between request and issuance.
type CredentialRequestMetadata struct {
	LinkSecretBlindingData json.RawMessage `json:"link_secret_blinding_data"`
	Nonce                  string          `json:"nonce"`
	LinkSecretName         string          `json:"link_secret_name"`
}

// AttributeValue is a signed credential attribute.
type AttributeValue struct {
	Raw     string `json:"raw"`
	Encoded string `json:"encoded"`
}

// Credential is an issued AnonCreds credential.
type Credential struct {
	SchemaID                  string                    `json:"schema_id"`
	CredDefID                 string                    `json:"cred_def_id"`
	RevRegID                  string                    `json:"rev_reg_id,omitempty"`
	Values                    map[string]AttributeValue `json:"values"`
	Signature                 json.RawMessage           `json:"signature"`
	SignatureCorrectnessProof json.RawMessage           `json:"signature_correctness_proof"`
}

// LinkSecret binds the credentials of one holder.
type LinkSecret struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

// Restriction limits which credentials can satisfy a referent.
type Restriction struct {
	SchemaID  string `json:"schema_id,omitempty"`
	CredDefID string `json:"cred_def_id,omitempty"`
	IssuerDID string `json:"issuer_did,omitempty"`
}

// RequestedAttribute asks for an attribute value to be revealed.
type RequestedAttribute struct {
	Name         string        `json:"name"`
	Restrictions []Restriction `json:"restrictions,omitempty"`
}

// PredicateType is the comparison of a predicate.
type PredicateType string

// Predicate comparisons.
const (
	GreaterOrEqual PredicateType = ">="
	GreaterThan    PredicateType = ">"
	LessOrEqual    PredicateType = "<="
	LessThan       PredicateType = "<"
)

// RequestedPredicate asks for a proof over an attribute without revealing it.
type RequestedPredicate struct {
	Name         string        `json:"name"`
	PType        PredicateType `json:"p_type"`
	PValue       int           `json:"p_value"`
	Restrictions []Restriction `json:"restrictions,omitempty"`
}

// PresentationRequest is the attachment of a request-presentation message.
type PresentationRequest struct {
	Nonce               string                        `json:"nonce"`
	Name                string                        `json:"name"`
	Version             string                        `json:"version"`
	RequestedAttributes map[string]RequestedAttribute `json:"requested_attributes"`
	RequestedPredicates map[string]RequestedPredicate `json:"requested_predicates"`
}

// RequestedCredentials selects, per referent of a request, whether an attribute is revealed and
// which predicates are proven.
type RequestedCredentials struct {
	Attributes map[string]bool `json:"requested_attributes"`
	Predicates []string        `json:"requested_predicates"`
}

// Identifier names the schema and definition behind one proof.
type Identifier struct {
	SchemaID  string `json:"schema_id"`
	CredDefID string `json:"cred_def_id"`
}

// Presentation is the attachment of a presentation message.
type Presentation struct {
	Proof          json.RawMessage `json:"proof"`
	RequestedProof json.RawMessage `json:"requested_proof"`
	Identifiers    []Identifier    `json:"identifiers"`
}
