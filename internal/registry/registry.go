// Package registry reads per-account nonces from the UniqueIdentity registry contract.
package registry

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lenda-labs/uid-signer/internal/tracing"
)

// NoncesABI is the slice of the registry ABI this service calls.
const NoncesABI = `[{
	"inputs": [{"internalType": "address", "name": "account", "type": "address"}],
	"name": "nonces",
	"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
	"stateMutability": "view",
	"type": "function"
}]`

const noncesMethod = "nonces"

// Client calls nonces(address) on a deployed registry. Every call goes to the chain;
// nothing is cached, so a stale nonce can only come from the node itself.
type Client struct {
	address  common.Address
	contract *bind.BoundContract
	logger   *zap.Logger

	closer func()
}

// NewClient binds the registry at address through caller.
func NewClient(address common.Address, caller bind.ContractCaller, logger *zap.Logger) (*Client, error) {
	if caller == nil {
		return nil, errors.New("contract caller cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	parsed, err := abi.JSON(strings.NewReader(NoncesABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse registry abi")
	}

	return &Client{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, caller, nil, nil),
		logger:   logger,
	}, nil
}

// Address returns the registry contract address.
func (c *Client) Address() common.Address {
	return c.address
}

// Nonce returns the registry's current nonce for account. Errors from the RPC layer are
// wrapped and returned as-is; retrying is left to the caller.
func (c *Client) Nonce(ctx context.Context, account common.Address) (*big.Int, error) {
	trace.SpanFromContext(ctx).SetAttributes(tracing.AttrContract.String(c.address.Hex()))

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, noncesMethod, account)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s(%s) on %s", noncesMethod, account.Hex(), c.address.Hex())
	}

	if len(out) != 1 {
		return nil, errors.Errorf("%s returned %d values, expected 1", noncesMethod, len(out))
	}
	nonce, ok := out[0].(*big.Int)
	if !ok || nonce == nil {
		return nil, errors.Errorf("%s returned %T, expected uint256", noncesMethod, out[0])
	}

	c.logger.Debug("fetched nonce",
		zap.String("account", account.Hex()),
		zap.Stringer("nonce", nonce))
	return nonce, nil
}

// Close releases the underlying RPC connection when the client owns one.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}
