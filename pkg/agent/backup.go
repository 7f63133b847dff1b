/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package agent

import "context"

// BackupWallet exports the wallet as a compact JWE only the seed of the agent opens.
func (a *Agent) BackupWallet(ctx context.Context) (string, error) {
	return a.backup.Backup(ctx)
}

// RecoverWallet imports a backup of BackupWallet into the wallet. Records already present are kept.
func (a *Agent) RecoverWallet(ctx context.Context, jwe string) error {
	if err := a.backup.Recover(ctx, jwe); err != nil {
		return err
	}

	if a.cfg.MediatorDID.IsZero() {
		return nil
	}

	_, _, err := a.mediator.Bootstrap(ctx, a.cfg.MediatorDID)

	return err
}
