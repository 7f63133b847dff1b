/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package downloader fetches the documents credentials reference: status lists, AnonCreds schemas
// and credential definitions. http(s), data: and did: URLs are supported.
package downloader

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr"
)

var logger = log.New("edge-agent/downloader")

const (
	defaultTimeout   = 30 * time.Second
	defaultRetries   = 3
	defaultCacheSize = 50
	defaultCacheTTL  = 10 * time.Minute

	resourceServiceParam = "resourceService"
	resourcePathParam    = "resourcePath"
)

var (
	// ErrUnsupportedURL is returned for schemes the downloader cannot fetch.
	ErrUnsupportedURL = errors.New("unsupported download URL")
	// ErrDownloadFailed is returned when the remote answers with a non success status.
	ErrDownloadFailed = errors.New("download failed")
)

// Downloader is the consumer facing contract.
type Downloader interface {
	Download(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTP downloads with retries and keeps recent documents in an LRU cache.
type HTTP struct {
	client   *http.Client
	resolver vdr.Resolver
	retries  uint64
	cache    gcache.Cache
}

// Opt configures HTTP.
type Opt func(h *HTTP)

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) Opt {
	return func(h *HTTP) {
		h.client = client
	}
}

// WithResolver enables did: URLs. The DID must expose the service named by the resourceService query
// parameter; resourcePath is appended to its endpoint.
func WithResolver(resolver vdr.Resolver) Opt {
	return func(h *HTTP) {
		h.resolver = resolver
	}
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n uint64) Opt {
	return func(h *HTTP) {
		h.retries = n
	}
}

// WithCache sets the number of documents cached and how long they stay. A zero size disables caching.
func WithCache(size int, ttl time.Duration) Opt {
	return func(h *HTTP) {
		if size <= 0 {
			h.cache = nil

			return
		}

		h.cache = gcache.New(size).LRU().Expiration(ttl).Build()
	}
}

// New returns a downloader.
func New(opts ...Opt) *HTTP {
	h := &HTTP{
		client:  &http.Client{Timeout: defaultTimeout},
		retries: defaultRetries,
		cache:   gcache.New(defaultCacheSize).LRU().Expiration(defaultCacheTTL).Build(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Download returns the document at rawURL.
func (h *HTTP) Download(ctx context.Context, rawURL string) ([]byte, error) {
	if h.cache != nil {
		if cached, err := h.cache.Get(rawURL); err == nil {
			return cached.([]byte), nil //nolint:forcetypeassert
		}
	}

	data, err := h.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(rawURL, data); err != nil {
			logger.Warnf("cache %s: %v", rawURL, err)
		}
	}

	return data, nil
}

func (h *HTTP) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	switch {
	case strings.HasPrefix(rawURL, "data:"):
		return decodeDataURL(rawURL)
	case strings.HasPrefix(rawURL, "did:"):
		endpoint, err := h.resolveEndpoint(ctx, rawURL)
		if err != nil {
			return nil, err
		}

		return h.get(ctx, endpoint)
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		return h.get(ctx, rawURL)
	default:
		return nil, errors.WithMessagef(ErrUnsupportedURL, "%q", rawURL)
	}
}

func (h *HTTP) get(ctx context.Context, target string) ([]byte, error) {
	var body []byte

	err := backoff.Retry(func() error {
		var e error

		body, e = h.getOnce(ctx, target)

		return e
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), h.retries), ctx))
	if err != nil {
		return nil, err
	}

	return body, nil
}

func (h *HTTP) getOnce(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, backoff.Permanent(errors.Wrap(err, "new request"))
	}

	resp, err := h.client.Do(req)
	if err != nil {
		logger.Debugf("get %s: %v", target, err)

		return nil, errors.Wrapf(err, "get %s", target)
	}

	defer func() {
		if e := resp.Body.Close(); e != nil {
			logger.Errorf("close response body of %s: %v", target, e)
		}
	}()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, errors.WithMessagef(ErrDownloadFailed, "%s: status %s", target, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(errors.WithMessagef(ErrDownloadFailed, "%s: status %s", target, resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	return body, nil
}

func (h *HTTP) resolveEndpoint(ctx context.Context, rawURL string) (string, error) {
	if h.resolver == nil {
		return "", errors.WithMessagef(ErrUnsupportedURL, "no DID resolver for %q", rawURL)
	}

	u, err := did.ParseURL(rawURL)
	if err != nil {
		return "", err
	}

	serviceName := u.Query[resourceServiceParam]
	if serviceName == "" {
		return "", errors.WithMessagef(ErrUnsupportedURL, "%q has no %s parameter", rawURL, resourceServiceParam)
	}

	doc, err := h.resolver.Resolve(ctx, u.DID.String())
	if err != nil {
		return "", err
	}

	for _, svc := range doc.Services() {
		if svc.ID != serviceName && !strings.HasSuffix(svc.ID, "#"+serviceName) {
			continue
		}

		endpoint := strings.TrimSuffix(svc.Endpoint.URI, "/")

		if path := strings.TrimPrefix(u.Query[resourcePathParam], "/"); path != "" {
			endpoint += "/" + path
		}

		return endpoint, nil
	}

	return "", errors.WithMessagef(ErrUnsupportedURL, "%s has no service %s", u.DID.String(), serviceName)
}

// decodeDataURL handles data:[<mediatype>][;base64],<data>.
func decodeDataURL(rawURL string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(rawURL, "data:"), ",")
	if !ok {
		return nil, errors.WithMessage(ErrUnsupportedURL, "malformed data URL")
	}

	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, errors.Wrap(err, "decode data URL")
		}

		return data, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, errors.Wrap(err, "decode data URL")
	}

	return []byte(data), nil
}
