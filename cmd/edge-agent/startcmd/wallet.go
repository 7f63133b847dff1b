/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
)

// SeedCmd returns the command printing a new random mnemonic.
func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create a mnemonic",
		Long:  "Print 24 new BIP39 words. Keep them: every key of a wallet derives from them",
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := kms.New().CreateRandomMnemonics()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(words, " "))

			return err
		},
	}
}

// BackupCmd returns the command writing the wallet backup to standard output.
func BackupCmd() *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up a wallet",
		Long:  "Write the encrypted backup of the wallet, a compact JWE, to standard output",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openWallet(cmd)
			if err != nil {
				return err
			}

			defer func() {
				if closeErr := a.Close(); closeErr != nil {
					logger.Warnf("close agent: %v", closeErr)
				}
			}()

			jwe, err := a.BackupWallet(cmd.Context())
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), jwe)

			return err
		},
	}

	createWalletFlags(backupCmd)

	return backupCmd
}

// RecoverCmd returns the command restoring a wallet from a backup read on standard input.
func RecoverCmd() *cobra.Command {
	recoverCmd := &cobra.Command{
		Use:   "recover",
		Short: "Recover a wallet",
		Long:  "Restore the wallet from the backup read on standard input, using the mnemonic it was made with",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}

			jwe := strings.TrimSpace(string(data))
			if jwe == "" {
				return errors.New("no backup on standard input")
			}

			a, err := openWallet(cmd)
			if err != nil {
				return err
			}

			defer func() {
				if closeErr := a.Close(); closeErr != nil {
					logger.Warnf("close agent: %v", closeErr)
				}
			}()

			if err = a.RecoverWallet(cmd.Context(), jwe); err != nil {
				return fmt.Errorf("recovery failed: %w", err)
			}

			logger.Infof("wallet %s recovered", cmd.Flag(dbPathFlagName).Value)

			return nil
		},
	}

	createWalletFlags(recoverCmd)

	return recoverCmd
}
