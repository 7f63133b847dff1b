/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/agent"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/config/lookup"
	didcommhttp "github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/transport/http"
)

const (
	inboundHostFlagName      = "inbound-host"
	inboundHostFlagShorthand = "i"
	inboundHostEnvKey        = "EDGE_AGENT_INBOUND_HOST"
	inboundHostFlagUsage     = "Host Name:Port of the DIDComm HTTP endpoint receiving messages directly (optional)." +
		" Alternatively, this can be set with the following environment variable: " + inboundHostEnvKey

	inboundPathFlagName  = "inbound-path"
	inboundPathEnvKey    = "EDGE_AGENT_INBOUND_PATH"
	inboundPathFlagUsage = "Route of the DIDComm HTTP endpoint. Default: /didcomm." +
		" Alternatively, this can be set with the following environment variable: " + inboundPathEnvKey

	fetchIntervalFlagName  = "fetch-interval"
	fetchIntervalEnvKey    = "EDGE_AGENT_FETCH_INTERVAL"
	fetchIntervalFlagUsage = "Pause between two pickups of the messages held by the mediator, at least 5s." +
		" Alternatively, this can be set with the following environment variable: " + fetchIntervalEnvKey

	defaultInboundPath = "/didcomm"
)

var logger = log.New("edge-agent/startcmd")

type server interface {
	ListenAndServe(host string, handler http.Handler) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, handler http.Handler) error {
	return http.ListenAndServe(host, handler) //nolint:gosec
}

type startParameters struct {
	wallet        *walletParameters
	inboundHost   string
	inboundPath   string
	fetchInterval time.Duration
	server        server
}

// Cmd returns the Cobra start command.
func Cmd(server server) *cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start an edge agent",
		Long: "Start an edge agent: establish mediation, pick up the messages held by the mediator and" +
			" optionally receive messages over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			parameters, err := getStartParameters(cmd, server)
			if err != nil {
				return err
			}

			return startAgent(cmd.Context(), parameters)
		},
	}

	createWalletFlags(startCmd)
	startCmd.Flags().StringP(inboundHostFlagName, inboundHostFlagShorthand, "", inboundHostFlagUsage)
	startCmd.Flags().StringP(inboundPathFlagName, "", "", inboundPathFlagUsage)
	startCmd.Flags().StringP(fetchIntervalFlagName, "", "", fetchIntervalFlagUsage)

	return startCmd
}

func getStartParameters(cmd *cobra.Command, server server) (*startParameters, error) {
	cfg, err := settings(cmd)
	if err != nil {
		return nil, err
	}

	wallet, err := getWalletParameters(cmd, cfg)
	if err != nil {
		return nil, err
	}

	inboundHost, err := getUserSetVar(cmd, cfg, inboundHostFlagName, inboundHostEnvKey, true)
	if err != nil {
		return nil, err
	}

	inboundPath, err := getUserSetVar(cmd, cfg, inboundPathFlagName, inboundPathEnvKey, true)
	if err != nil {
		return nil, err
	}

	if inboundPath == "" {
		inboundPath = defaultInboundPath
	}

	interval, err := getFetchInterval(cmd, cfg)
	if err != nil {
		return nil, err
	}

	return &startParameters{
		wallet:        wallet,
		inboundHost:   inboundHost,
		inboundPath:   inboundPath,
		fetchInterval: interval,
		server:        server,
	}, nil
}

func getFetchInterval(cmd *cobra.Command, cfg *lookup.ConfigLookup) (time.Duration, error) {
	if !cmd.Flags().Changed(fetchIntervalFlagName) {
		return cfg.GetDuration(fetchIntervalFlagName), nil
	}

	value, err := cmd.Flags().GetString(fetchIntervalFlagName)
	if err != nil {
		return 0, fmt.Errorf(fetchIntervalFlagName+" flag not found: %s", err)
	}

	interval, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid fetch interval: %w", err)
	}

	return interval, nil
}

// startAgent runs the agent until ctx is done or, with an inbound host, the HTTP server stops.
func startAgent(ctx context.Context, parameters *startParameters) error {
	a, err := parameters.wallet.openAgent()
	if err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warnf("close agent: %v", closeErr)
		}
	}()

	if err = a.Start(ctx); err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}

	if _, mediated := a.Mediation(); mediated {
		if err = a.StartFetchingMessages(ctx, parameters.fetchInterval); err != nil {
			return err
		}
	}

	if parameters.inboundHost == "" {
		logger.Infof("edge agent started, wallet %s", parameters.wallet.dbPath)

		<-ctx.Done()

		return nil
	}

	handler, err := didcommhttp.NewInboundHandler(parameters.inboundPath, a.HandleReceivedMessage)
	if err != nil {
		return err
	}

	logger.Infof("edge agent listening on %s%s", parameters.inboundHost, parameters.inboundPath)

	if err = parameters.server.ListenAndServe(parameters.inboundHost, handler); err != nil {
		return fmt.Errorf("inbound server on %s exited: %w", parameters.inboundHost, err)
	}

	return nil
}

// openWallet opens the wallet named by the flags of a command other than start.
func openWallet(cmd *cobra.Command) (*agent.Agent, error) {
	cfg, err := settings(cmd)
	if err != nil {
		return nil, err
	}

	wallet, err := getWalletParameters(cmd, cfg)
	if err != nil {
		return nil, err
	}

	return wallet.openAgent()
}
