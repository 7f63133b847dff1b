/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

// Package httpbinding resolves DIDs through a remote DID resolver (universal resolver HTTP binding).
package httpbinding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

const (
	didLDJson      = "application/did+ld+json"
	defaultTimeout = 10 * time.Second
)

var logger = log.New("edge-agent/vdr/httpbinding") //nolint:gochecknoglobals

// Accept reports whether the remote resolver handles a method.
type Accept func(method string) bool

// VDR via HTTP(s) endpoint.
type VDR struct {
	endpointURL      string
	client           *http.Client
	accept           Accept
	resolveAuthToken string
}

// Option configures the http binding vdr.
type Option func(opts *VDR)

// New creates new DID Resolver.
func New(endpointURL string, opts ...Option) (*VDR, error) {
	v := &VDR{
		client: &http.Client{Timeout: defaultTimeout},
		accept: func(string) bool { return true },
	}

	for _, opt := range opts {
		opt(v)
	}

	if _, err := url.ParseRequestURI(endpointURL); err != nil {
		return nil, fmt.Errorf("base URL invalid: %w", err)
	}

	v.endpointURL = endpointURL

	return v, nil
}

// Accept method of the remote resolver.
func (v *VDR) Accept(method string) bool {
	return v.accept(method)
}

// Close frees resources being maintained by VDR.
func (v *VDR) Close() error {
	v.client.CloseIdleConnections()

	return nil
}

// Read fetches <endpoint>/<did>. Both a bare document and a resolution result are accepted.
func (v *VDR) Read(ctx context.Context, id did.DID) (*did.Doc, error) {
	target, err := url.ParseRequestURI(v.endpointURL)
	if err != nil {
		return nil, fmt.Errorf("invalid resolver url: %w", err)
	}

	target.Path = path.Join(target.Path, id.String())

	raw, err := v.get(ctx, target.String())
	if err != nil {
		return nil, err
	}

	var result struct {
		DIDDocument json.RawMessage `json:"didDocument"`
	}

	if json.Unmarshal(raw, &result) == nil && len(bytes.TrimSpace(result.DIDDocument)) > 0 {
		raw = result.DIDDocument
	}

	return did.ParseDocument(raw)
}

// get returns the body of a 200 response. A 404 or an empty body means the DID is unknown.
func (v *VDR) get(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build resolve request: %w", err)
	}

	req.Header.Set("Accept", didLDJson)

	if v.resolveAuthToken != "" {
		req.Header.Set("Authorization", v.resolveAuthToken)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", uri, err)
	}

	defer func() {
		if e := resp.Body.Close(); e != nil {
			logger.Warnf("close resolver response: %v", e)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read resolver response: %w", err)
	}

	if resp.StatusCode == http.StatusOK && len(body) != 0 {
		return body, nil
	}

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s not found", did.ErrUnresolvable, uri)
	}

	return nil, fmt.Errorf("resolver answered %d (%s): %s", resp.StatusCode, resp.Header.Get("Content-type"), body)
}

// WithTimeout option is for definition of HTTP(s) timeout value of DID Resolver.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *VDR) {
		opts.client.Timeout = timeout
	}
}

// WithHTTPClient option is for custom http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(opts *VDR) {
		opts.client = httpClient
	}
}

// WithAccept option is for accept did method.
func WithAccept(accept Accept) Option {
	return func(opts *VDR) {
		opts.accept = accept
	}
}

// WithResolveAuthToken add auth token for resolve.
func WithResolveAuthToken(authToken string) Option {
	return func(opts *VDR) {
		opts.resolveAuthToken = "Bearer " + authToken
	}
}
