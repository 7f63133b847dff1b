/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package agent is the edge agent: it owns the wallet of one holder and runs the DIDComm flows
// of the holder and verifier roles over a mediator.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/backup"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/downloader"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/credential"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/mediator"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/transport"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/anoncreds"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/secretlock"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/store"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr"
)

// MinFetchInterval is the shortest pause between two message pickups.
const MinFetchInterval = 5 * time.Second

// Config is what an agent needs to know about its holder.
type Config struct {
	// MediatorDID is the mediator to establish mediation with on Start. Zero means no mediation.
	MediatorDID did.DID
	// FetchInterval is the pause between message pickups. Shorter values are raised to MinFetchInterval.
	FetchInterval time.Duration
	// Seed derives every key of the wallet.
	Seed kms.Seed
	// StoragePath is the LevelDB path prefix of the wallet. Empty keeps the wallet in memory.
	StoragePath string
}

// fetchInterval returns the configured interval clamped to MinFetchInterval.
func fetchInterval(d time.Duration) time.Duration {
	if d < MinFetchInterval {
		return MinFetchInterval
	}

	return d
}

// Agent provides the operations of an edge agent.
type Agent struct {
	cfg    Config
	logger *log.Log

	storeProvider storage.Provider
	secretLock    secretlock.Service
	km            kms.KeyManager
	vdrs          []vdr.VDR
	registry      *vdr.Registry
	pluto         *store.Pluto
	httpClient    *http.Client
	outbound      []transport.OutboundTransport
	sender        transport.MessageSender
	mediator      *mediator.Client
	fetcher       transport.Fetcher
	downloader    downloader.Downloader
	prover        anoncreds.Prover
	verifier      anoncreds.Verifier
	engine        *credential.Engine
	backup        *backup.Service
	handlers      []transport.InboundMessageHandler
	now           func() time.Time

	startMu sync.Mutex
	started bool

	// keyMu serializes HD index allocation.
	keyMu sync.Mutex
	// secretMu serializes link secret creation.
	secretMu sync.Mutex

	fetchMu  sync.Mutex
	fetching bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// Option configures the agent.
type Option func(opts *Agent) error

// New wires an agent for cfg. Collaborators not given as options get their defaults: LevelDB (or
// memory) storage, the peer and prism VDRs, HTTP and websocket outbound transports.
func New(cfg Config, opts ...Option) (*Agent, error) {
	if len(cfg.Seed) == 0 {
		return nil, fmt.Errorf("%w: seed is required", ErrInvalidConfiguration)
	}

	a := &Agent{cfg: cfg, logger: log.New("edge-agent/agent"), now: time.Now}
	a.cfg.FetchInterval = fetchInterval(cfg.FetchInterval)

	for _, option := range opts {
		if err := option(a); err != nil {
			return nil, fmt.Errorf("option passed to New: %w", err)
		}
	}

	if err := defAgentOpts(a); err != nil {
		closeErr := a.Close()

		return nil, fmt.Errorf("default option initialization failed: %w (close: %v)", err, closeErr)
	}

	return a, nil
}

// WithLogger replaces the agent logger.
func WithLogger(l *log.Log) Option {
	return func(opts *Agent) error {
		opts.logger = l
		return nil
	}
}

// WithStoreProvider option is for setting the storage provider of the wallet, replacing StoragePath.
func WithStoreProvider(prov storage.Provider) Option {
	return func(opts *Agent) error {
		opts.storeProvider = prov
		return nil
	}
}

// WithSecretLock sets the lock sealing private keys and the link secret at rest.
func WithSecretLock(s secretlock.Service) Option {
	return func(opts *Agent) error {
		opts.secretLock = s
		return nil
	}
}

// WithKMS replaces the key manager.
func WithKMS(km kms.KeyManager) Option {
	return func(opts *Agent) error {
		opts.km = km
		return nil
	}
}

// WithVDR adds a DID method resolver next to peer and prism.
func WithVDR(v vdr.VDR) Option {
	return func(opts *Agent) error {
		opts.vdrs = append(opts.vdrs, v)
		return nil
	}
}

// WithHTTPClient sets the client of the HTTP outbound transport and the downloader.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *Agent) error {
		opts.httpClient = client
		return nil
	}
}

// WithOutboundTransports replaces the default HTTP and websocket transports.
func WithOutboundTransports(outbound ...transport.OutboundTransport) Option {
	return func(opts *Agent) error {
		opts.outbound = append(opts.outbound, outbound...)
		return nil
	}
}

// WithMessageSender replaces the transport sender entirely.
func WithMessageSender(sender transport.MessageSender) Option {
	return func(opts *Agent) error {
		opts.sender = sender
		return nil
	}
}

// WithFetcher replaces the mediator pickup as the source of the fetch loop.
func WithFetcher(f transport.Fetcher) Option {
	return func(opts *Agent) error {
		opts.fetcher = f
		return nil
	}
}

// WithDownloader sets the downloader of status lists, schemas and credential definitions.
func WithDownloader(d downloader.Downloader) Option {
	return func(opts *Agent) error {
		opts.downloader = d
		return nil
	}
}

// WithAnonCreds enables AnonCreds credentials and proofs.
func WithAnonCreds(prover anoncreds.Prover, verifier anoncreds.Verifier) Option {
	return func(opts *Agent) error {
		opts.prover = prover
		opts.verifier = verifier

		return nil
	}
}

// WithMessageHandler registers a handler called for every received message once it is stored.
func WithMessageHandler(h transport.InboundMessageHandler) Option {
	return func(opts *Agent) error {
		opts.handlers = append(opts.handlers, h)
		return nil
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(opts *Agent) error {
		opts.now = now
		return nil
	}
}

// Store returns the wallet store.
func (a *Agent) Store() *store.Pluto {
	return a.pluto
}

// Mediation returns the established mediation.
func (a *Agent) Mediation() (*mediator.Config, bool) {
	return a.mediator.Config()
}

// Close stops fetching and releases the storage and resolvers.
func (a *Agent) Close() error {
	a.Stop()

	var errs []error

	if a.pluto != nil {
		if err := a.pluto.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close wallet: %w", err))
		}
	}

	if a.storeProvider != nil {
		if err := a.storeProvider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store provider: %w", err))
		}
	}

	if a.registry != nil {
		if err := a.registry.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close vdr: %w", err))
		}
	}

	return errors.Join(errs...)
}
