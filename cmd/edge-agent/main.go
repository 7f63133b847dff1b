/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package edge-agent runs an edge agent wallet from the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hyperledger/edge-agent-sdk-go/cmd/edge-agent/startcmd"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
)

func main() {
	rootCmd := &cobra.Command{
		Use: "edge-agent",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	logger := log.New("edge-agent")

	rootCmd.AddCommand(startcmd.Cmd(&startcmd.HTTPServer{}), startcmd.SeedCmd(), startcmd.BackupCmd(),
		startcmd.RecoverCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		logger.Fatalf("Failed to run edge-agent: %s", err)
	}
}
