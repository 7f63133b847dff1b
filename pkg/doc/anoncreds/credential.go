/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
)

const legacyCredDefMarker = ":3:CL:"

// CredentialStack is an AnonCreds credential together with the schema and definition it was issued under.
type CredentialStack struct {
	Credential *Credential           `json:"credential"`
	Schema     *Schema               `json:"schema,omitempty"`
	Definition *CredentialDefinition `json:"definition,omitempty"`
}

// ParseCredentialStack decodes a stack produced by StorableData.
func ParseCredentialStack(data []byte) (*CredentialStack, error) {
	stack := &CredentialStack{}

	if err := json.Unmarshal(data, stack); err != nil {
		return nil, fmt.Errorf("%w: %v", verifiable.ErrInvalidCredential, err)
	}

	if stack.Credential == nil || stack.Credential.CredDefID == "" {
		return nil, fmt.Errorf("%w: anoncreds credential without cred_def_id", verifiable.ErrInvalidCredential)
	}

	return stack, nil
}

// ID is the digest of the credential signature; AnonCreds credentials carry no identifier.
func (c *CredentialStack) ID() string {
	sum := sha256.Sum256(append([]byte(c.Credential.CredDefID), c.Credential.Signature...))

	return hex.EncodeToString(sum[:])
}

// Issuer returns the definition issuer, falling back to the prefix of a legacy definition id.
func (c *CredentialStack) Issuer() string {
	if c.Definition != nil && c.Definition.IssuerID != "" {
		return c.Definition.IssuerID
	}

	if i := strings.Index(c.Credential.CredDefID, legacyCredDefMarker); i > 0 {
		return c.Credential.CredDefID[:i]
	}

	return ""
}

// Subject is always empty: the holder is bound through the link secret.
func (c *CredentialStack) Subject() string { return "" }

// Claims returns the raw attribute values.
func (c *CredentialStack) Claims() map[string]interface{} {
	claims := make(map[string]interface{}, len(c.Credential.Values))

	for name, v := range c.Credential.Values {
		claims[name] = v.Raw
	}

	return claims
}

// IssuanceDate is unknown for AnonCreds credentials.
func (c *CredentialStack) IssuanceDate() *time.Time { return nil }

// ExpirationDate is unknown for AnonCreds credentials.
func (c *CredentialStack) ExpirationDate() *time.Time { return nil }

// Type returns the schema name when known.
func (c *CredentialStack) Type() []string {
	if c.Schema == nil {
		return []string{"AnonCredsCredential"}
	}

	return []string{c.Schema.Name}
}

// Format is FormatAnonCreds.
func (c *CredentialStack) Format() verifiable.Format { return verifiable.FormatAnonCreds }

// StorableData returns the JSON form of the stack.
func (c *CredentialStack) StorableData() []byte {
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}

	return data
}

// RestorationID is AnonCredsRestorationID.
func (c *CredentialStack) RestorationID() string { return verifiable.AnonCredsRestorationID }
