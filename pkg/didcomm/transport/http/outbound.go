/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/transport"
)

var logger = log.New("edge-agent/http")

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
)

// ErrNonSuccessStatus is returned for replies other than 200 and 202.
var ErrNonSuccessStatus = errors.New("received non success POST HTTP status")

// outboundCommHTTPOpts holds options for the HTTP transport implementation of CommTransport
// it has an http.Client instance.
type outboundCommHTTPOpts struct {
	client  *http.Client
	retries uint64
}

// OutboundHTTPOpt is an outbound HTTP transport option.
type OutboundHTTPOpt func(opts *outboundCommHTTPOpts)

// WithOutboundHTTPClient option is for creating an Outbound HTTP transport using an http.Client instance.
func WithOutboundHTTPClient(client *http.Client) OutboundHTTPOpt {
	return func(opts *outboundCommHTTPOpts) {
		opts.client = client
	}
}

// WithOutboundTimeout option is for creating an Outbound HTTP transport using a client timeout value.
func WithOutboundTimeout(timeout time.Duration) OutboundHTTPOpt {
	return func(opts *outboundCommHTTPOpts) {
		opts.client.Timeout = timeout
	}
}

// WithOutboundTLSConfig option is for creating an Outbound HTTP transport using a tls.Config instance.
func WithOutboundTLSConfig(tlsConfig *tls.Config) OutboundHTTPOpt {
	return func(opts *outboundCommHTTPOpts) {
		opts.client = &http.Client{
			Timeout: opts.client.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: tlsConfig,
			},
		}
	}
}

// WithRetries sets how many times a failed connection is retried. Non success statuses are not retried.
func WithRetries(n uint64) OutboundHTTPOpt {
	return func(opts *outboundCommHTTPOpts) {
		opts.retries = n
	}
}

// OutboundHTTPClient represents the Outbound HTTP transport instance.
type OutboundHTTPClient struct {
	client  *http.Client
	retries uint64
}

// NewOutbound creates a new instance of Outbound HTTP transport to Post requests to other Agents.
func NewOutbound(opts ...OutboundHTTPOpt) *OutboundHTTPClient {
	clOpts := &outboundCommHTTPOpts{
		client:  &http.Client{Timeout: defaultTimeout},
		retries: maxRetries,
	}

	for _, opt := range opts {
		opt(clOpts)
	}

	return &OutboundHTTPClient{client: clOpts.client, retries: clOpts.retries}
}

// Send posts the plaintext message to url and returns the reply body.
func (cs *OutboundHTTPClient) Send(ctx context.Context, data []byte, url string) ([]byte, error) {
	var respData []byte

	err := backoff.Retry(func() error {
		var e error

		respData, e = cs.post(ctx, data, url)

		return e
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cs.retries), ctx))
	if err != nil {
		return nil, err
	}

	return respData, nil
}

func (cs *OutboundHTTPClient) post(ctx context.Context, data []byte, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, backoff.Permanent(errors.Wrap(err, "new request"))
	}

	req.Header.Set("Content-Type", transport.MediaTypePlaintext)

	resp, err := cs.client.Do(req)
	if err != nil {
		logger.Errorf("HTTP Transport - Error posting did envelope to agent at [%s]: %v", url, err)

		return nil, errors.Wrapf(err, "post to %s", url)
	}

	defer func() {
		if e := resp.Body.Close(); e != nil {
			logger.Errorf("HTTP Transport - Error closing response body: %v", e)
		}
	}()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(errors.WithMessagef(ErrNonSuccessStatus, "agent at [%s]: status : %v",
			url, resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	return body, nil
}

// Accept http and https urls.
func (cs *OutboundHTTPClient) Accept(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
