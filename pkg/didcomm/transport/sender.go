/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/routing"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr"
)

var logger = log.New("edge-agent/transport")

var (
	// ErrNoServiceEndpoint is returned when the recipient DID has no DIDComm service.
	ErrNoServiceEndpoint = errors.New("recipient has no DIDComm service endpoint")
	// ErrNoOutboundTransport is returned when no transport accepts the endpoint scheme.
	ErrNoOutboundTransport = errors.New("no outbound transport for endpoint")
)

// Sender resolves the recipient's DIDComm service and posts the message there. A service
// whose uri is itself a DID is a mediator: the message is wrapped in a forward to it.
type Sender struct {
	resolver   vdr.Resolver
	transports []OutboundTransport
}

// NewSender returns a Sender trying transports in order.
func NewSender(resolver vdr.Resolver, transports ...OutboundTransport) *Sender {
	return &Sender{resolver: resolver, transports: transports}
}

// SendMessage implements MessageSender.
func (s *Sender) SendMessage(ctx context.Context, msg *message.Message) (*message.Message, error) {
	to, err := msg.RequireTo()
	if err != nil {
		return nil, err
	}

	endpoint, err := s.endpointOf(ctx, to)
	if err != nil {
		return nil, err
	}

	out := msg

	if strings.HasPrefix(endpoint.URI, did.Schema+":") {
		out, endpoint, err = s.forward(ctx, msg, endpoint.URI)
		if err != nil {
			return nil, err
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(err, "marshal message")
	}

	ot, err := s.transportFor(endpoint.URI)
	if err != nil {
		return nil, err
	}

	logger.Debugf("sending %s (%s) to %s", msg.ID, msg.PIURI, endpoint.URI)

	resp, err := ot.Send(ctx, data, endpoint.URI)
	if err != nil {
		return nil, errors.Wrapf(err, "send %s", msg.ID)
	}

	return ParseReply(resp)
}

// ParseReply decodes a synchronous reply. An empty reply yields nil.
func ParseReply(resp []byte) (*message.Message, error) {
	if len(bytes.TrimSpace(resp)) == 0 {
		return nil, nil //nolint:nilnil
	}

	reply := &message.Message{}
	if err := json.Unmarshal(resp, reply); err != nil {
		return nil, errors.Wrap(err, "decode reply")
	}

	reply.Direction = message.Received

	return reply, nil
}

func (s *Sender) forward(ctx context.Context, msg *message.Message,
	mediator string) (*message.Message, did.ServiceEndpoint, error) {
	routingDID, err := did.Parse(mediator)
	if err != nil {
		return nil, did.ServiceEndpoint{}, err
	}

	fwd, err := routing.NewForward(msg, routingDID)
	if err != nil {
		return nil, did.ServiceEndpoint{}, err
	}

	out, err := fwd.Message()
	if err != nil {
		return nil, did.ServiceEndpoint{}, err
	}

	endpoint, err := s.endpointOf(ctx, routingDID)
	if err != nil {
		return nil, did.ServiceEndpoint{}, err
	}

	return out, endpoint, nil
}

func (s *Sender) endpointOf(ctx context.Context, id did.DID) (did.ServiceEndpoint, error) {
	doc, err := s.resolver.Resolve(ctx, id.String())
	if err != nil {
		return did.ServiceEndpoint{}, errors.Wrapf(err, "resolve %s", id)
	}

	endpoint, ok := did.LookupDIDCommEndpoint(doc)
	if !ok || endpoint.URI == "" {
		return did.ServiceEndpoint{}, errors.WithMessage(ErrNoServiceEndpoint, id.String())
	}

	return endpoint, nil
}

func (s *Sender) transportFor(url string) (OutboundTransport, error) {
	for _, t := range s.transports {
		if t.Accept(url) {
			return t, nil
		}
	}

	return nil, errors.WithMessage(ErrNoOutboundTransport, url)
}
