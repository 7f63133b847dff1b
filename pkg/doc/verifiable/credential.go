/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/utils"
	jsonutil "github.com/hyperledger/edge-agent-sdk-go/pkg/doc/util/json"
)

// Base context and types of Verifiable Credentials and Presentations.
const (
	ContextURI = "https://www.w3.org/2018/credentials/v1"
	VCType     = "VerifiableCredential"
	VPType     = "VerifiablePresentation"

	subjectIDKey         = "id"
	issuanceDateKey      = "issuanceDate"
	expirationDateKey    = "expirationDate"
	credentialSubjectKey = "credentialSubject"
	credentialStatusKey  = "credentialStatus"
)

// Issuer of the Verifiable Credential. It is written as a string when it has no other fields.
type Issuer struct {
	ID string `json:"id,omitempty" mapstructure:"id"`

	CustomFields map[string]interface{} `json:"-" mapstructure:",remain"`
}

// MarshalJSON marshals Issuer to JSON.
func (i Issuer) MarshalJSON() ([]byte, error) {
	if len(i.CustomFields) == 0 {
		return json.Marshal(i.ID)
	}

	type alias Issuer

	return jsonutil.MarshalWithExtra(alias(i), i.CustomFields)
}

// W3CCredential is a Verifiable Credential in its JSON data model form.
type W3CCredential struct {
	Context           []string
	CredID            string
	Types             []string
	CredentialSubject map[string]interface{}
	CredIssuer        Issuer
	Issued            *time.Time
	Expired           *time.Time
	Schemas           []TypedID
	CredStatus        *Status
	Proof             interface{}

	CustomFields map[string]interface{}
}

// rawCredential is the decoded shape of a credential document.
type rawCredential struct {
	Context interface{}            `mapstructure:"@context"`
	ID      string                 `mapstructure:"id"`
	Type    []string               `mapstructure:"type"`
	Subject interface{}            `mapstructure:"credentialSubject"`
	Issued  *time.Time             `mapstructure:"issuanceDate"`
	Expired *time.Time             `mapstructure:"expirationDate"`
	Status  *Status                `mapstructure:"credentialStatus"`
	Issuer  interface{}            `mapstructure:"issuer"`
	Schema  []TypedID              `mapstructure:"credentialSchema"`
	Proof   interface{}            `mapstructure:"proof"`
	Extra   map[string]interface{} `mapstructure:",remain"`
}

// ParseW3CCredential decodes a JSON credential document.
func ParseW3CCredential(data []byte) (*W3CCredential, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	return NewW3CCredential(m)
}

// NewW3CCredential decodes a credential document already in map form.
func NewW3CCredential(doc map[string]interface{}) (*W3CCredential, error) {
	raw := &rawCredential{}
	if err := utils.DecodeMap(doc, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	vc := &W3CCredential{
		CredID:       raw.ID,
		Types:        raw.Type,
		Issued:       raw.Issued,
		Expired:      raw.Expired,
		Schemas:      raw.Schema,
		CredStatus:   raw.Status,
		Proof:        raw.Proof,
		CustomFields: raw.Extra,
	}

	vc.Context = stringsOf(raw.Context)

	switch s := raw.Subject.(type) {
	case map[string]interface{}:
		vc.CredentialSubject = s
	case []interface{}:
		// only the first subject is modelled
		if len(s) > 0 {
			vc.CredentialSubject, _ = s[0].(map[string]interface{}) //nolint:errcheck
		}
	case string:
		vc.CredentialSubject = map[string]interface{}{subjectIDKey: s}
	}

	switch iss := raw.Issuer.(type) {
	case string:
		vc.CredIssuer = Issuer{ID: iss}
	case map[string]interface{}:
		if err := utils.DecodeMap(iss, &vc.CredIssuer); err != nil {
			return nil, fmt.Errorf("%w: issuer: %v", ErrInvalidCredential, err)
		}
	}

	return vc, nil
}

func stringsOf(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))

		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}

		return out
	case []string:
		return t
	default:
		return nil
	}
}

// ID returns the credential id.
func (vc *W3CCredential) ID() string { return vc.CredID }

// Issuer returns the issuer id.
func (vc *W3CCredential) Issuer() string { return vc.CredIssuer.ID }

// Subject returns the credential subject id.
func (vc *W3CCredential) Subject() string {
	id, _ := vc.CredentialSubject[subjectIDKey].(string) //nolint:errcheck

	return id
}

// Claims returns the credential subject members other than id.
func (vc *W3CCredential) Claims() map[string]interface{} {
	out := make(map[string]interface{}, len(vc.CredentialSubject))

	for k, v := range vc.CredentialSubject {
		if k != subjectIDKey {
			out[k] = v
		}
	}

	return out
}

// IssuanceDate returns issuanceDate.
func (vc *W3CCredential) IssuanceDate() *time.Time { return vc.Issued }

// ExpirationDate returns expirationDate.
func (vc *W3CCredential) ExpirationDate() *time.Time { return vc.Expired }

// Type returns the credential types.
func (vc *W3CCredential) Type() []string { return vc.Types }

// Format returns FormatW3C.
func (vc *W3CCredential) Format() Format { return FormatW3C }

// Status returns the credentialStatus entry or nil.
func (vc *W3CCredential) Status() *Status { return vc.CredStatus }

// StorableData returns the JSON document.
func (vc *W3CCredential) StorableData() []byte {
	b, _ := vc.MarshalJSON() //nolint:errcheck

	return b
}

// RestorationID returns W3CRestorationID.
func (vc *W3CCredential) RestorationID() string { return W3CRestorationID }

// ToMap returns the credential document.
func (vc *W3CCredential) ToMap() (map[string]interface{}, error) {
	b, err := vc.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return jsonutil.ToMap(b)
}

// MarshalJSON writes the JSON data model form.
func (vc *W3CCredential) MarshalJSON() ([]byte, error) {
	doc := map[string]interface{}{}

	if len(vc.Context) > 0 {
		doc["@context"] = vc.Context
	}

	if vc.CredID != "" {
		doc["id"] = vc.CredID
	}

	if len(vc.Types) > 0 {
		doc["type"] = vc.Types
	}

	if vc.CredentialSubject != nil {
		doc[credentialSubjectKey] = vc.CredentialSubject
	}

	if vc.CredIssuer.ID != "" {
		doc["issuer"] = vc.CredIssuer
	}

	if vc.Issued != nil {
		doc[issuanceDateKey] = vc.Issued.UTC().Format(time.RFC3339)
	}

	if vc.Expired != nil {
		doc[expirationDateKey] = vc.Expired.UTC().Format(time.RFC3339)
	}

	if vc.CredStatus != nil {
		doc[credentialStatusKey] = vc.CredStatus
	}

	if len(vc.Schemas) > 0 {
		doc["credentialSchema"] = vc.Schemas
	}

	if vc.Proof != nil {
		doc["proof"] = vc.Proof
	}

	return jsonutil.MarshalWithExtra(doc, vc.CustomFields)
}
