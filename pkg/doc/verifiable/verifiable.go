/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package verifiable models the credentials an agent holds: JWT credentials, plain W3C
// credentials and, through the sdjwt and anoncreds packages, the other supported formats.
package verifiable

import (
	"time"
)

// Format tags the proof system of a credential.
type Format int

// Credential formats.
const (
	FormatUnknown Format = iota
	FormatJWT
	FormatSDJWT
	FormatAnonCreds
	FormatW3C
)

func (f Format) String() string {
	switch f {
	case FormatJWT:
		return "jwt"
	case FormatSDJWT:
		return "vc+sd-jwt"
	case FormatAnonCreds:
		return "anoncreds"
	case FormatW3C:
		return "w3c"
	default:
		return "unknown"
	}
}

// Restoration identifiers of stored credentials.
const (
	JWTRestorationID       = "jwt+credential"
	SDJWTRestorationID     = "sd-jwt+credential"
	AnonCredsRestorationID = "anon+credential"
	W3CRestorationID       = "w3c+credential"
)

// Credential is the surface shared by every credential variant.
type Credential interface {
	ID() string
	Issuer() string
	Subject() string
	Claims() map[string]interface{}
	IssuanceDate() *time.Time
	ExpirationDate() *time.Time
	Type() []string
	Format() Format
}

// StorableCredential can be persisted and restored with the matching restoration id.
type StorableCredential interface {
	Credential
	StorableData() []byte
	RestorationID() string
}

// RevocableCredential exposes the status list entry of a credential.
type RevocableCredential interface {
	Credential
	Status() *Status
}

// TypedID defines a flexible structure with id and type fields and other custom fields.
type TypedID struct {
	ID   string `json:"id,omitempty" mapstructure:"id"`
	Type string `json:"type,omitempty" mapstructure:"type"`
}

// Status is a StatusList2021Entry.
type Status struct {
	ID                   string `json:"id,omitempty" mapstructure:"id"`
	Type                 string `json:"type,omitempty" mapstructure:"type"`
	StatusPurpose        string `json:"statusPurpose,omitempty" mapstructure:"statusPurpose"`
	StatusListIndex      string `json:"statusListIndex,omitempty" mapstructure:"statusListIndex"`
	StatusListCredential string `json:"statusListCredential,omitempty" mapstructure:"statusListCredential"`
}

// IsExpired reports whether c has an expiration date before now.
func IsExpired(c Credential, now time.Time) bool {
	exp := c.ExpirationDate()

	return exp != nil && exp.Before(now)
}
