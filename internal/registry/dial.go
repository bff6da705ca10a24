package registry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DialOptions controls how Dial reaches the RPC endpoint at startup.
type DialOptions struct {
	// Timeout bounds each connection attempt.
	Timeout time.Duration
	// MaxRetries is the number of attempts after the first one.
	MaxRetries uint64
	Logger     *zap.Logger
}

// Dial connects to rpcURL and binds the registry at contract. The endpoint is probed
// with eth_chainId, retrying with exponential backoff, so a misconfigured RPC fails at
// startup rather than on the first request. Only this startup probe is retried.
func Dial(ctx context.Context, rpcURL string, contract common.Address, opts DialOptions) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	var (
		eth     *ethclient.Client
		chainID string
	)
	connect := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()

		client, err := ethclient.DialContext(attemptCtx, rpcURL)
		if err != nil {
			// Malformed URLs and unsupported schemes will not fix themselves.
			return backoff.Permanent(err)
		}

		id, err := client.ChainID(attemptCtx)
		if err != nil {
			client.Close()
			return err
		}

		eth, chainID = client, id.String()
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), opts.MaxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		logger.Warn("rpc endpoint not reachable, retrying",
			zap.String("rpc", rpcURL),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}
	if err := backoff.RetryNotify(connect, policy, notify); err != nil {
		return nil, errors.Wrapf(err, "connect to rpc %s", rpcURL)
	}

	code, err := eth.CodeAt(ctx, contract, nil)
	switch {
	case err != nil:
		logger.Warn("could not check registry code", zap.String("contract", contract.Hex()), zap.Error(err))
	case len(code) == 0:
		logger.Warn("no contract code at registry address; nonce lookups will fail",
			zap.String("contract", contract.Hex()),
			zap.String("chain_id", chainID))
	}

	client, err := NewClient(contract, eth, logger)
	if err != nil {
		eth.Close()
		return nil, err
	}
	client.closer = eth.Close

	logger.Info("connected to registry",
		zap.String("rpc", rpcURL),
		zap.String("chain_id", chainID),
		zap.String("contract", contract.Hex()))
	return client, nil
}
