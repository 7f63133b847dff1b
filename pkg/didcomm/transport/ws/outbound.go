/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ws

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"nhooyr.io/websocket"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
)

var logger = log.New("edge-agent/ws")

const (
	webSocketScheme = "ws"
	replyTimeout    = 5 * time.Second
)

// OutboundClient websocket outbound.
type OutboundClient struct {
	replyTimeout time.Duration
}

// Opt configures the OutboundClient.
type Opt func(c *OutboundClient)

// WithReplyTimeout sets how long Send waits for a reply on the socket.
func WithReplyTimeout(d time.Duration) Opt {
	return func(c *OutboundClient) {
		c.replyTimeout = d
	}
}

// NewOutbound creates a client for Outbound WS transport.
func NewOutbound(opts ...Opt) *OutboundClient {
	c := &OutboundClient{replyTimeout: replyTimeout}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Send writes data as one text frame and returns the first text frame answered. No answer within the
// reply timeout is an empty reply.
func (cs *OutboundClient) Send(ctx context.Context, data []byte, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("url is mandatory")
	}

	client, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "websocket client")
	}

	defer func() {
		err = client.Close(websocket.StatusNormalClosure, "closing the connection")
		if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
			logger.Debugf("failed to close connection: %v", err)
		}
	}()

	if err = client.Write(ctx, websocket.MessageText, data); err != nil {
		return nil, errors.Wrap(err, "websocket write message")
	}

	readCtx, cancel := context.WithTimeout(ctx, cs.replyTimeout)
	defer cancel()

	messageType, message, err := client.Read(readCtx)
	if err != nil {
		if errors.Is(readCtx.Err(), context.DeadlineExceeded) || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
			return nil, nil
		}

		return nil, errors.Wrap(err, "websocket read message")
	}

	if messageType != websocket.MessageText {
		return nil, errors.New("message type is not text message")
	}

	return message, nil
}

// Accept checks for the url scheme.
func (cs *OutboundClient) Accept(url string) bool {
	return strings.HasPrefix(url, webSocketScheme+"://") || strings.HasPrefix(url, webSocketScheme+"s://")
}
