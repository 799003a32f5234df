// Package chain deploys contracts to EVM networks through go-ethereum.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/AndyHydro/plasma-contracts/internal/artifacts"
	"github.com/AndyHydro/plasma-contracts/internal/config"
	"github.com/AndyHydro/plasma-contracts/internal/deploy"
	"github.com/AndyHydro/plasma-contracts/internal/signer"
)

// DefaultGasLimit is used when gas estimation fails and the profile sets no
// limit. It matches the block gas limit of a default development chain.
const DefaultGasLimit uint64 = 6_721_975

// Sentinel errors
var (
	ErrNetworkMismatch = errors.New("chain: net_version does not match network_id")
	ErrReverted        = errors.New("chain: contract creation reverted")
)

// Client is the part of an Ethereum RPC client a deployment needs.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	NetworkID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// DialFunc connects to an RPC endpoint. The returned func releases the
// connection.
type DialFunc func(ctx context.Context, endpoint string) (Client, func(), error)

// SignerFunc builds the deployer account for a profile once the chain ID is
// known.
type SignerFunc func(creds config.Credentials, chainID *big.Int) (signer.TransactionSigner, error)

// ArtifactSource resolves contract names to compiled artifacts.
type ArtifactSource interface {
	Lookup(name string) (*artifacts.Artifact, error)
}

// Option configures a Transport.
type Option func(*Transport)

// WithDialFunc replaces the ethclient dialer.
func WithDialFunc(fn DialFunc) Option {
	return func(t *Transport) { t.dial = fn }
}

// WithSignerFunc replaces the credential based signer.
func WithSignerFunc(fn SignerFunc) Option {
	return func(t *Transport) { t.newSigner = fn }
}

// WithLogger sets the transport logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Transport opens deployment sessions against JSON-RPC endpoints.
type Transport struct {
	artifacts ArtifactSource
	dial      DialFunc
	newSigner SignerFunc
	logger    *slog.Logger
}

// NewTransport creates a transport deploying artifacts from source.
func NewTransport(source ArtifactSource, opts ...Option) *Transport {
	t := &Transport{
		artifacts: source,
		dial:      dialEthclient,
		newSigner: credentialSigner,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func dialEthclient(ctx context.Context, endpoint string) (Client, func(), error) {
	c, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

func credentialSigner(creds config.Credentials, chainID *big.Int) (signer.TransactionSigner, error) {
	return signer.FromCredentials(creds, chainID)
}

// Dial connects to the profile's endpoint, checks net_version against
// network_id and prepares the deployer account.
func (t *Transport) Dial(ctx context.Context, network config.NetworkProfile) (deploy.Session, error) {
	client, closeFn, err := t.dial(ctx, network.Endpoint())
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	s, err := t.open(ctx, client, network)
	if err != nil {
		closeFn()
		return nil, err
	}
	s.close = closeFn
	return s, nil
}

func (t *Transport) open(ctx context.Context, client Client, network config.NetworkProfile) (*Session, error) {
	if !network.AcceptsAnyNetwork() {
		expected, err := network.ExpectedNetworkID()
		if err != nil {
			return nil, err
		}
		networkID, err := client.NetworkID(ctx)
		if err != nil {
			return nil, fmt.Errorf("get network id: %w", err)
		}
		if !networkID.IsUint64() || networkID.Uint64() != expected {
			return nil, fmt.Errorf("%w: expected %d, got %s", ErrNetworkMismatch, expected, networkID)
		}
	}

	// EIP-155 signing uses the chain ID, which may differ from net_version.
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}

	txSigner, err := t.newSigner(network.Credentials, chainID)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}

	logger := t.logger.With(
		slog.String("network", network.Name),
		slog.String("deployer", txSigner.Address().Hex()),
	)

	balance, err := client.BalanceAt(ctx, txSigner.Address(), nil)
	switch {
	case err != nil:
		logger.Warn("failed to check deployer balance", slog.String("error", err.Error()))
	case balance.Sign() == 0:
		logger.Warn("deployer has no balance, deployments will likely fail")
	}

	logger.Info("connected to network", slog.Uint64("chain_id", chainID.Uint64()))

	s := &Session{
		client:    client,
		signer:    txSigner,
		artifacts: t.artifacts,
		logger:    logger,
		chainID:   chainID,
	}
	if network.GasPrice > 0 {
		s.gasPrice = new(big.Int).SetUint64(network.GasPrice)
	}
	s.gasLimit = network.GasLimit
	return s, nil
}
