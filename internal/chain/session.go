package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/AndyHydro/plasma-contracts/internal/deploy"
	"github.com/AndyHydro/plasma-contracts/internal/signer"
)

// Session deploys contracts from one account on one connected network.
type Session struct {
	client    Client
	close     func()
	signer    signer.TransactionSigner
	artifacts ArtifactSource
	logger    *slog.Logger
	chainID   *big.Int

	// gasPrice and gasLimit are fixed by the profile when non-zero.
	gasPrice *big.Int
	gasLimit uint64
}

// Deployer returns the account contracts are created from.
func (s *Session) Deployer() common.Address {
	return s.signer.Address()
}

// ChainID returns the connected chain's ID.
func (s *Session) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// Close releases the RPC connection.
func (s *Session) Close() {
	if s.close != nil {
		s.close()
	}
}

// Deploy creates req.Contract with req.Args and waits for it to be mined.
func (s *Session) Deploy(ctx context.Context, req deploy.Request) (*deploy.Deployment, error) {
	data, err := s.creationData(req)
	if err != nil {
		return nil, err
	}

	from := s.signer.Address()
	nonce, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}

	gasPrice := s.gasPrice
	if gasPrice == nil {
		gasPrice, err = s.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("get gas price: %w", err)
		}
	}

	gasLimit := s.gasLimit
	if gasLimit == 0 {
		gasLimit = s.estimateGas(ctx, from, gasPrice, data)
	}

	tx := types.NewContractCreation(nonce, big.NewInt(0), gasLimit, gasPrice, data)

	signedTx, err := s.signer.SignTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	s.logger.Debug("sending contract creation",
		slog.String("contract", req.Contract),
		slog.Uint64("nonce", nonce),
		slog.Uint64("gas_limit", gasLimit),
		slog.String("gas_price", gasPrice.String()),
		slog.String("tx_hash", signedTx.Hash().Hex()),
	)

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, s.client, signedTx)
	if err != nil {
		return nil, fmt.Errorf("wait for receipt of %s: %w", signedTx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s", ErrReverted, signedTx.Hash().Hex())
	}

	dep := &deploy.Deployment{
		Address:  receipt.ContractAddress.Hex(),
		TxHash:   signedTx.Hash().Hex(),
		GasUsed:  receipt.GasUsed,
		GasPrice: gasPrice,
	}
	if receipt.BlockNumber != nil {
		dep.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.EffectiveGasPrice != nil && receipt.EffectiveGasPrice.Sign() > 0 {
		dep.GasPrice = receipt.EffectiveGasPrice
	}
	return dep, nil
}

// creationData is the artifact bytecode followed by the ABI-encoded
// constructor arguments.
func (s *Session) creationData(req deploy.Request) ([]byte, error) {
	artifact, err := s.artifacts.Lookup(req.Contract)
	if err != nil {
		return nil, err
	}

	code, err := artifact.BytecodeBytes()
	if err != nil {
		return nil, err
	}

	parsed, err := artifact.ParsedABI()
	if err != nil {
		return nil, err
	}
	packed, err := packConstructor(parsed, req.Args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Contract, err)
	}

	data := make([]byte, 0, len(code)+len(packed))
	data = append(data, code...)
	return append(data, packed...), nil
}

func (s *Session) estimateGas(ctx context.Context, from common.Address, gasPrice *big.Int, data []byte) uint64 {
	gas, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From:     from,
		GasPrice: gasPrice,
		Value:    big.NewInt(0),
		Data:     data,
	})
	if err != nil {
		s.logger.Warn("gas estimation failed, using default",
			slog.Uint64("gas_limit", DefaultGasLimit),
			slog.String("error", err.Error()),
		)
		return DefaultGasLimit
	}
	// 20% headroom over the estimate
	return gas * 120 / 100
}

var _ deploy.Session = (*Session)(nil)
var _ deploy.Dialer = (*Transport)(nil)
