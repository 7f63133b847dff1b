/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"fmt"
	"net/http"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/backup"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/downloader"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/credential"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/mediator"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/transport"
	didcommhttp "github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/transport/http"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/transport/ws"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage/leveldb"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage/mem"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/store"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr/peer"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr/prism"
)

// defAgentOpts fills in the collaborators no option provided. Order matters: the wallet and the
// registry come first, the sender needs the registry, the mediator needs the sender and the wallet.
func defAgentOpts(a *Agent) error {
	if a.km == nil {
		a.km = kms.New()
	}

	if a.storeProvider == nil {
		a.storeProvider = storeProvider(a.cfg.StoragePath)
	}

	plutoOpts := []store.Opt{store.WithClock(a.now)}
	if a.secretLock != nil {
		plutoOpts = append(plutoOpts, store.WithSecretLock(a.secretLock))
	}

	pluto, err := store.New(a.storeProvider, plutoOpts...)
	if err != nil {
		return fmt.Errorf("open wallet: %w", err)
	}

	a.pluto = pluto

	vdrOpts := []vdr.Option{vdr.WithVDR(peer.New()), vdr.WithVDR(prism.New())}
	for _, v := range a.vdrs {
		vdrOpts = append(vdrOpts, vdr.WithVDR(v))
	}

	a.registry = vdr.New(vdrOpts...)

	if a.httpClient == nil {
		a.httpClient = &http.Client{}
	}

	if a.sender == nil {
		if len(a.outbound) == 0 {
			a.outbound = []transport.OutboundTransport{
				didcommhttp.NewOutbound(didcommhttp.WithOutboundHTTPClient(a.httpClient)),
				ws.NewOutbound(),
			}
		}

		a.sender = transport.NewSender(a.registry, a.outbound...)
	}

	a.mediator = mediator.New(a.sender, a.pluto, mediator.WithLogger(a.logger.WithField("component", "mediator")))

	if a.fetcher == nil {
		a.fetcher = a.mediator
	}

	if a.downloader == nil {
		a.downloader = downloader.New(downloader.WithHTTPClient(a.httpClient), downloader.WithResolver(a.registry))
	}

	engineOpts := []credential.Opt{
		credential.WithResolver(a.registry),
		credential.WithDownloader(a.downloader),
		credential.WithClock(a.now),
	}

	if a.prover != nil || a.verifier != nil {
		engineOpts = append(engineOpts, credential.WithAnonCreds(a.prover, a.verifier, a.pluto))
	}

	a.engine = credential.New(engineOpts...)

	a.backup = backup.New(a.km, a.cfg.Seed, a.pluto, backup.WithImporter(
		func(data []byte, restorationID string) (verifiable.Credential, error) {
			return a.engine.ImportCredential(data, restorationID, credential.Options{})
		}))

	return nil
}

func storeProvider(path string) storage.Provider {
	if path == "" {
		return mem.NewProvider()
	}

	return leveldb.NewProvider(path)
}
