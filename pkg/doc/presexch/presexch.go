/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package presexch implements Presentation Exchange: https://identity.foundation/presentation-exchange.
package presexch

import "github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"

// Claim format designations used in descriptor maps.
const (
	FormatJWT   = "jwt"
	FormatJWTVC = "jwt_vc"
	FormatJWTVP = "jwt_vp"
	FormatSDJWT = "vc+sd-jwt"
)

var logger = log.New("edge-agent/presexch")
