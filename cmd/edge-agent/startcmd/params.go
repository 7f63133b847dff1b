/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/agent"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/config"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/config/lookup"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/secretlock"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/secretlock/hkdf"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/secretlock/noop"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/secretlock/pbkdf2"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr/httpbinding"
)

const (
	configFileFlagName  = "config-file"
	configFileEnvKey    = "EDGE_AGENT_CONFIG_FILE"
	configFileFlagUsage = "YAML or JSON file holding any of the settings below, keyed by flag name (optional)." +
		" Alternatively, this can be set with the following environment variable: " + configFileEnvKey

	dbPathFlagName      = "db-path"
	dbPathFlagShorthand = "d"
	dbPathEnvKey        = "EDGE_AGENT_DB_PATH"
	dbPathFlagUsage     = "Path prefix of the LevelDB wallet." +
		" Alternatively, this can be set with the following environment variable: " + dbPathEnvKey

	mnemonicFlagName      = "mnemonic"
	mnemonicFlagShorthand = "m"
	mnemonicEnvKey        = "EDGE_AGENT_MNEMONIC"
	mnemonicFlagUsage     = "Space separated BIP39 words the wallet keys derive from." +
		" Alternatively, this can be set with the following environment variable: " + mnemonicEnvKey

	passphraseFlagName  = "passphrase"
	passphraseEnvKey    = "EDGE_AGENT_PASSPHRASE" //nolint:gosec
	passphraseFlagUsage = "BIP39 passphrase of the mnemonic (optional)." +
		" Alternatively, this can be set with the following environment variable: " + passphraseEnvKey

	secretLockFlagName  = "secret-lock"
	secretLockEnvKey    = "EDGE_AGENT_SECRET_LOCK"
	secretLockFlagUsage = "How stored keys are sealed: seed (default, keyed by the wallet seed)," +
		" password (keyed by the lock password) or none." +
		" Alternatively, this can be set with the following environment variable: " + secretLockEnvKey

	lockPasswordFlagName  = "lock-password"
	lockPasswordEnvKey    = "EDGE_AGENT_LOCK_PASSWORD" //nolint:gosec
	lockPasswordFlagUsage = "Password of the password secret lock." +
		" Alternatively, this can be set with the following environment variable: " + lockPasswordEnvKey

	mediatorDIDFlagName  = "mediator-did"
	mediatorDIDEnvKey    = "EDGE_AGENT_MEDIATOR_DID"
	mediatorDIDFlagUsage = "DID of the mediator to route messages through (optional)." +
		" Alternatively, this can be set with the following environment variable: " + mediatorDIDEnvKey

	resolverURLFlagName  = "resolver-url"
	resolverURLEnvKey    = "EDGE_AGENT_RESOLVER_URL"
	resolverURLFlagUsage = "Universal resolver endpoint used for DID methods other than peer and prism (optional)." +
		" Alternatively, this can be set with the following environment variable: " + resolverURLEnvKey

	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "EDGE_AGENT_LOG_LEVEL"
	logLevelFlagUsage = "Log level. Possible values [DEBUG] [INFO] [WARNING] [ERROR] [PANIC] [FATAL]." +
		" Default: INFO. Alternatively, this can be set with the following environment variable: " + logLevelEnvKey

	logFormatFlagName  = "log-format"
	logFormatEnvKey    = "EDGE_AGENT_LOG_FORMAT"
	logFormatFlagUsage = "Log format, text or json. Default: text." +
		" Alternatively, this can be set with the following environment variable: " + logFormatEnvKey
)

const (
	secretLockSeed     = "seed"
	secretLockPassword = "password"
	secretLockNone     = "none"
)

var lockSalt = []byte("edge-agent wallet lock") //nolint:gochecknoglobals

// walletParameters are the settings every command opening the wallet needs.
type walletParameters struct {
	dbPath       string
	seed         kms.Seed
	secretLock   string
	lockPassword string
	mediatorDID  did.DID
	resolverURL  string
	logConfig    log.Config
}

func createWalletFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(configFileFlagName, "", "", configFileFlagUsage)
	cmd.Flags().StringP(dbPathFlagName, dbPathFlagShorthand, "", dbPathFlagUsage)
	cmd.Flags().StringP(mnemonicFlagName, mnemonicFlagShorthand, "", mnemonicFlagUsage)
	cmd.Flags().StringP(passphraseFlagName, "", "", passphraseFlagUsage)
	cmd.Flags().StringP(secretLockFlagName, "", "", secretLockFlagUsage)
	cmd.Flags().StringP(lockPasswordFlagName, "", "", lockPasswordFlagUsage)
	cmd.Flags().StringP(mediatorDIDFlagName, "", "", mediatorDIDFlagUsage)
	cmd.Flags().StringP(resolverURLFlagName, "", "", resolverURLFlagUsage)
	cmd.Flags().StringP(logLevelFlagName, "", "", logLevelFlagUsage)
	cmd.Flags().StringP(logFormatFlagName, "", "", logFormatFlagUsage)
}

// settings returns the config backend of cmd: the config file when one is named, the prefixed
// environment otherwise. Environment variables override the file.
func settings(cmd *cobra.Command) (*lookup.ConfigLookup, error) {
	name, err := cmd.Flags().GetString(configFileFlagName)
	if err != nil {
		return nil, fmt.Errorf(configFileFlagName+" flag not found: %s", err)
	}

	if !cmd.Flags().Changed(configFileFlagName) {
		name = os.Getenv(configFileEnvKey)
	}

	if name == "" {
		return lookup.New(config.FromEnv()), nil
	}

	backend, err := config.FromFile(name)
	if err != nil {
		return nil, err
	}

	return lookup.New(backend), nil
}

// getUserSetVar returns the flag value when set on the command line, the value of the config
// file or environment otherwise.
func getUserSetVar(cmd *cobra.Command, cfg *lookup.ConfigLookup, flagName, envKey string,
	isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value := cfg.GetString(flagName)

	if isOptional || value != "" {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable or config file) have been set.")
}

func getWalletParameters(cmd *cobra.Command, cfg *lookup.ConfigLookup) (*walletParameters, error) {
	dbPath, err := getUserSetVar(cmd, cfg, dbPathFlagName, dbPathEnvKey, false)
	if err != nil {
		return nil, err
	}

	mnemonic, err := getUserSetVar(cmd, cfg, mnemonicFlagName, mnemonicEnvKey, false)
	if err != nil {
		return nil, err
	}

	passphrase, err := getUserSetVar(cmd, cfg, passphraseFlagName, passphraseEnvKey, true)
	if err != nil {
		return nil, err
	}

	seed, err := kms.New().CreateSeed(strings.Fields(mnemonic), passphrase)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}

	lock, err := getUserSetVar(cmd, cfg, secretLockFlagName, secretLockEnvKey, true)
	if err != nil {
		return nil, err
	}

	if lock == "" {
		lock = secretLockSeed
	}

	var password string

	if lock == secretLockPassword {
		if password, err = getUserSetVar(cmd, cfg, lockPasswordFlagName, lockPasswordEnvKey, false); err != nil {
			return nil, err
		}
	}

	mediator, err := getUserSetVar(cmd, cfg, mediatorDIDFlagName, mediatorDIDEnvKey, true)
	if err != nil {
		return nil, err
	}

	var mediatorDID did.DID

	if mediator != "" {
		if mediatorDID, err = did.Parse(mediator); err != nil {
			return nil, fmt.Errorf("invalid mediator DID: %w", err)
		}
	}

	resolverURL, err := getUserSetVar(cmd, cfg, resolverURLFlagName, resolverURLEnvKey, true)
	if err != nil {
		return nil, err
	}

	logConfig, err := getLogConfig(cmd, cfg)
	if err != nil {
		return nil, err
	}

	return &walletParameters{
		dbPath:       dbPath,
		seed:         seed,
		secretLock:   lock,
		lockPassword: password,
		mediatorDID:  mediatorDID,
		resolverURL:  resolverURL,
		logConfig:    logConfig,
	}, nil
}

func getLogConfig(cmd *cobra.Command, cfg *lookup.ConfigLookup) (log.Config, error) {
	c := log.Config{Level: log.INFO, Format: log.TextFormat, Output: cmd.ErrOrStderr()}

	level, err := getUserSetVar(cmd, cfg, logLevelFlagName, logLevelEnvKey, true)
	if err != nil {
		return c, err
	}

	if level != "" {
		if c.Level, err = log.ParseLevel(level); err != nil {
			return c, err
		}
	}

	format, err := getUserSetVar(cmd, cfg, logFormatFlagName, logFormatEnvKey, true)
	if err != nil {
		return c, err
	}

	switch log.Format(format) {
	case "", log.TextFormat:
	case log.JSONFormat:
		c.Format = log.JSONFormat
	default:
		return c, fmt.Errorf("unknown log format %q", format)
	}

	return c, nil
}

func (p *walletParameters) lock() (secretlock.Service, error) {
	switch p.secretLock {
	case secretLockSeed:
		return hkdf.NewMasterLock(p.seed, sha256.New, lockSalt)
	case secretLockPassword:
		return pbkdf2.NewMasterLock(p.lockPassword, sha256.New, 0, lockSalt)
	case secretLockNone:
		return &noop.NoLock{}, nil
	default:
		return nil, fmt.Errorf("unknown secret lock %q", p.secretLock)
	}
}

// openAgent builds the agent of the wallet at p.dbPath.
func (p *walletParameters) openAgent(opts ...agent.Option) (*agent.Agent, error) {
	lock, err := p.lock()
	if err != nil {
		return nil, err
	}

	options := []agent.Option{
		agent.WithSecretLock(lock),
		agent.WithLogger(log.NewFactory(p.logConfig).New("edge-agent/agent")),
	}

	if p.resolverURL != "" {
		resolver, err := httpbinding.New(p.resolverURL, httpbinding.WithAccept(func(method string) bool {
			return method != "peer" && method != "prism"
		}))
		if err != nil {
			return nil, fmt.Errorf("invalid resolver url: %w", err)
		}

		options = append(options, agent.WithVDR(resolver))
	}

	return agent.New(agent.Config{
		MediatorDID:   p.mediatorDID,
		FetchInterval: agent.MinFetchInterval,
		Seed:          p.seed,
		StoragePath:   p.dbPath,
	}, append(options, opts...)...)
}
