/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package transport

import "strings"

const (
	// MediaTypePlaintext is the media type of DIDComm v2 plaintext messages.
	MediaTypePlaintext = "application/didcomm-plain+json"
	// MediaTypeSigned is the media type of DIDComm v2 signed messages.
	MediaTypeSigned = "application/didcomm-signed+json"
	// MediaTypeEncrypted is the media type for DIDComm V2 encrypted envelopes.
	MediaTypeEncrypted = "application/didcomm-encrypted+json"
)

// IsPlaintext reports whether contentType names a plaintext DIDComm v2 payload. Parameters
// after ";" are ignored.
func IsPlaintext(contentType string) bool {
	mt := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]) //nolint:gomnd

	return strings.EqualFold(mt, MediaTypePlaintext) || strings.EqualFold(mt, "application/json")
}
