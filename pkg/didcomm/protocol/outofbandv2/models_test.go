/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package outofbandv2

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

func TestInvitationURLRoundTrip(t *testing.T) {
	inv := &Invitation{
		ID:   "inv-1",
		From: did.MustParse("did:peer:2.inviter"),
		Body: InvitationBody{GoalCode: "connect", Goal: "Start relationship", Accept: []string{"didcomm/v2"}},
	}

	u, err := inv.URL("https://my.domain.com/path")
	require.NoError(t, err)
	require.Contains(t, u, "https://my.domain.com/path?_oob=")

	got, err := ParseInvitationURL(u)
	require.NoError(t, err)
	require.Equal(t, inv.ID, got.ID)
	require.Equal(t, inv.From, got.From)
	require.Equal(t, inv.Body, got.Body)
}

func TestParseInvitationURLPadded(t *testing.T) {
	raw := `{"id":"i","type":"` + InvitationMsgType + `","from":"did:peer:2.inviter","body":{"goal_code":"connect"}}`
	u := "https://x.example.com?_oob=" + base64.URLEncoding.EncodeToString([]byte(raw))

	got, err := ParseInvitationURL(u)
	require.NoError(t, err)
	require.Equal(t, "connect", got.Body.GoalCode)
}

func TestParseInvitationURLInvalid(t *testing.T) {
	for name, u := range map[string]string{
		"no parameter": "https://x.example.com?foo=bar",
		"not base64":   "https://x.example.com?_oob=%%%",
		"not json":     "https://x.example.com?_oob=" + base64.RawURLEncoding.EncodeToString([]byte("nope")),
		"wrong type": "https://x.example.com?_oob=" + base64.RawURLEncoding.EncodeToString(
			[]byte(`{"id":"i","type":"https://didcomm.org/x/2.0/y","from":"did:peer:2.a"}`)),
		"no from": "https://x.example.com?_oob=" + base64.RawURLEncoding.EncodeToString(
			[]byte(`{"id":"i","type":"`+InvitationMsgType+`"}`)),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseInvitationURL(u)
			require.ErrorIs(t, err, protocol.ErrInvalidInvitation)
		})
	}
}
