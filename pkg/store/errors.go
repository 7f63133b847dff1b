/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package store

import "github.com/hyperledger/edge-agent-sdk-go/pkg/common/errcode"

// Error codes of Pluto.
const (
	DuplicateID = errcode.Code(iota + errcode.Store)
	MissingRequiredFields
	NotFound
	SealFailed
)

var (
	// ErrDuplicateID is returned when a record with the same identifier is already stored.
	ErrDuplicateID = errcode.New(DuplicateID, errcode.ValidationError, "duplicate id")
	// ErrMissingRequiredFields is returned for records lacking a mandatory member.
	ErrMissingRequiredFields = errcode.New(MissingRequiredFields, errcode.ValidationError, "missing required fields")
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errcode.New(NotFound, errcode.ExecuteError, "not found")
	// ErrSealFailed is returned when key material cannot be sealed or opened with the secret lock.
	ErrSealFailed = errcode.New(SealFailed, errcode.ExecuteError, "seal failed")
)
