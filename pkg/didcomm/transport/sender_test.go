/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package transport

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/routing"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr"
)

type docResolver map[string]*did.Doc

func (r docResolver) Resolve(_ context.Context, id string) (*did.Doc, error) {
	doc, ok := r[id]
	if !ok {
		return nil, did.ErrUnresolvable
	}

	return doc, nil
}

var _ vdr.Resolver = docResolver{}

type recordingOutbound struct {
	url   string
	data  []byte
	reply []byte
}

func (o *recordingOutbound) Send(_ context.Context, data []byte, url string) ([]byte, error) {
	o.url, o.data = url, data

	return o.reply, nil
}

func (o *recordingOutbound) Accept(url string) bool { return len(url) > 4 && url[:4] == "http" }

func docWithEndpoint(id did.DID, uri string) *did.Doc {
	return did.BuildDoc(id, did.WithService(did.Service{
		ID:       "#didcomm-1",
		Type:     []string{did.DIDCommMessagingServiceType},
		Endpoint: did.ServiceEndpoint{URI: uri},
	}))
}

func TestSender(t *testing.T) {
	alice := did.MustParse("did:peer:2.alice")
	bob := did.MustParse("did:peer:2.bob")
	mediator := did.MustParse("did:peer:2.mediator")
	nobody := did.MustParse("did:peer:2.nobody")

	resolver := docResolver{
		bob.String():      docWithEndpoint(bob, mediator.String()),
		mediator.String(): docWithEndpoint(mediator, "https://mediator.example.com"),
		alice.String():    docWithEndpoint(alice, "https://alice.example.com"),
		nobody.String():   did.BuildDoc(nobody),
	}

	t.Run("direct with reply", func(t *testing.T) {
		out := &recordingOutbound{reply: []byte(`{"id":"r","type":"t/2.0/ack"}`)}
		s := NewSender(resolver, out)

		reply, err := s.SendMessage(context.Background(), message.New("t/2.0/x",
			message.WithFrom(bob), message.WithTo(alice)))
		require.NoError(t, err)
		require.Equal(t, "https://alice.example.com", out.url)
		require.Equal(t, "r", reply.ID)
		require.Equal(t, message.Received, reply.Direction)
	})

	t.Run("mediated recipient gets a forward", func(t *testing.T) {
		out := &recordingOutbound{}
		s := NewSender(resolver, out)

		msg := message.New("t/2.0/x", message.WithFrom(alice), message.WithTo(bob))
		reply, err := s.SendMessage(context.Background(), msg)
		require.NoError(t, err)
		require.Nil(t, reply)
		require.Equal(t, "https://mediator.example.com", out.url)

		sent := &message.Message{}
		require.NoError(t, json.Unmarshal(out.data, sent))
		require.Equal(t, routing.ForwardMsgType, sent.PIURI)

		inner, err := routing.Unwrap(sent)
		require.NoError(t, err)
		require.Equal(t, msg.ID, inner.ID)
	})

	t.Run("errors", func(t *testing.T) {
		s := NewSender(resolver, &recordingOutbound{})

		_, err := s.SendMessage(context.Background(), message.New("t/2.0/x", message.WithTo(nobody)))
		require.ErrorIs(t, err, ErrNoServiceEndpoint)

		_, err = s.SendMessage(context.Background(), message.New("t/2.0/x",
			message.WithTo(did.MustParse("did:peer:2.unknown"))))
		require.ErrorIs(t, err, did.ErrUnresolvable)

		_, err = NewSender(resolver).SendMessage(context.Background(), message.New("t/2.0/x", message.WithTo(alice)))
		require.ErrorIs(t, err, ErrNoOutboundTransport)

		_, err = s.SendMessage(context.Background(), message.New("t/2.0/x"))
		require.ErrorIs(t, err, message.ErrNoRecipientDIDSet)
	})
}
