package chain

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/eth/ethconfig"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndyHydro/plasma-contracts/internal/artifacts"
	"github.com/AndyHydro/plasma-contracts/internal/config"
	"github.com/AndyHydro/plasma-contracts/internal/deploy"
)

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// newTestBackend starts a simulated chain that mines a block every 50ms,
// funding the test key.
func newTestBackend(t *testing.T, opts ...func(*node.Config, *ethconfig.Config)) *simulated.Backend {
	t.Helper()

	key, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	backend := simulated.NewBackend(types.GenesisAlloc{
		addr: {Balance: new(big.Int).Mul(big.NewInt(100), big.NewInt(params.Ether))},
	}, opts...)

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				backend.Commit()
			}
		}
	}()

	t.Cleanup(func() {
		close(done)
		wg.Wait()
		_ = backend.Close()
	})
	return backend
}

func testStore() *artifacts.Store {
	s := artifacts.NewStore()
	s.Add(&artifacts.Artifact{
		ContractName: deploy.RootChain,
		ABI:          []byte(`[]`),
		Bytecode:     artifacts.NewBytecode("0x00"),
	})
	s.Add(&artifacts.Artifact{
		ContractName: deploy.SampleNFTs,
		ABI:          []byte(`[{"type":"constructor","inputs":[{"name":"root","type":"address"}]}]`),
		Bytecode:     artifacts.NewBytecode("0x00"),
	})
	s.Add(&artifacts.Artifact{
		ContractName: "Reverter",
		ABI:          []byte(`[]`),
		// PUSH1 0 PUSH1 0 REVERT
		Bytecode: artifacts.NewBytecode("0x60006000fd"),
	})
	return s
}

func simulatedProfile() config.NetworkProfile {
	return config.NetworkProfile{
		Name:        "simulated",
		URL:         "http://simulated.invalid",
		NetworkID:   "1337",
		Credentials: config.Credentials{PrivateKey: testKey},
	}
}

func newSimTransport(backend *simulated.Backend, closed *bool) *Transport {
	return NewTransport(testStore(),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		WithDialFunc(func(context.Context, string) (Client, func(), error) {
			// the simulated client wraps ethclient, which also reads net_version
			return backend.Client().(Client), func() {
				if closed != nil {
					*closed = true
				}
			}, nil
		}),
	)
}

func TestTransport_DeploysPlan(t *testing.T) {
	backend := newTestBackend(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	o := deploy.NewOrchestrator(newSimTransport(backend, nil),
		deploy.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	record, err := o.Run(ctx, deploy.DefaultPlan(), simulatedProfile())
	require.NoError(t, err)
	require.Equal(t, 2, record.Len())

	root, _ := record.Entry(deploy.RootChain)
	nfts, _ := record.Entry(deploy.SampleNFTs)
	assert.True(t, common.IsHexAddress(root.Address))
	assert.NotEqual(t, root.Address, nfts.Address)
	assert.NotZero(t, root.GasUsed)
	assert.NotZero(t, nfts.BlockNumber)
	assert.NotNil(t, nfts.GasPrice)

	tx, _, err := backend.Client().TransactionByHash(ctx, common.HexToHash(nfts.TxHash))
	require.NoError(t, err)
	data := tx.Data()
	require.Len(t, data, 1+32)
	assert.Equal(t, common.LeftPadBytes(common.HexToAddress(root.Address).Bytes(), 32), data[1:])
}

func TestTransport_NetworkMismatch(t *testing.T) {
	backend := newTestBackend(t)

	closed := false
	transport := newSimTransport(backend, &closed)

	profile := simulatedProfile()
	profile.NetworkID = "15"
	_, err := transport.Dial(context.Background(), profile)
	assert.ErrorIs(t, err, ErrNetworkMismatch)
	assert.True(t, closed)

	profile.NetworkID = config.AnyNetwork
	session, err := transport.Dial(context.Background(), profile)
	require.NoError(t, err)
	defer session.Close()
	assert.Equal(t, int64(1337), session.(*Session).ChainID().Int64())
}

func TestTransport_MatchesNetVersionNotChainID(t *testing.T) {
	// dev nodes commonly report a net_version other than their chain ID
	backend := newTestBackend(t, func(_ *node.Config, eth *ethconfig.Config) {
		eth.NetworkId = 15
	})

	profile := simulatedProfile()
	profile.NetworkID = "15"
	session, err := newSimTransport(backend, nil).Dial(context.Background(), profile)
	require.NoError(t, err)
	defer session.Close()
	assert.Equal(t, int64(1337), session.(*Session).ChainID().Int64())

	profile.NetworkID = "1337"
	_, err = newSimTransport(backend, nil).Dial(context.Background(), profile)
	assert.ErrorIs(t, err, ErrNetworkMismatch)
}

func TestTransport_MissingCredentials(t *testing.T) {
	backend := newTestBackend(t)

	profile := simulatedProfile()
	profile.Credentials = config.Credentials{}
	_, err := newSimTransport(backend, nil).Dial(context.Background(), profile)
	assert.ErrorContains(t, err, "create signer")
}

func TestTransport_DialError(t *testing.T) {
	transport := NewTransport(testStore(), WithDialFunc(func(context.Context, string) (Client, func(), error) {
		return nil, nil, errors.New("connection refused")
	}))
	_, err := transport.Dial(context.Background(), simulatedProfile())
	assert.ErrorContains(t, err, "dial rpc: connection refused")
}

func TestSession_Errors(t *testing.T) {
	backend := newTestBackend(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := newSimTransport(backend, nil).Dial(ctx, simulatedProfile())
	require.NoError(t, err)
	defer session.Close()

	_, err = session.Deploy(ctx, deploy.Request{Step: "X", Contract: "Unknown"})
	assert.ErrorIs(t, err, artifacts.ErrArtifactNotFound)

	_, err = session.Deploy(ctx, deploy.Request{Step: "S", Contract: deploy.SampleNFTs, Args: []any{"not-an-address"}})
	assert.ErrorContains(t, err, "argument root (address)")

	_, err = session.Deploy(ctx, deploy.Request{Step: "R", Contract: "Reverter"})
	assert.ErrorIs(t, err, ErrReverted)
}

func TestSession_FixedGas(t *testing.T) {
	backend := newTestBackend(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	profile := simulatedProfile()
	profile.GasLimit = 200_000
	profile.GasPrice = 5_000_000_000

	session, err := newSimTransport(backend, nil).Dial(ctx, profile)
	require.NoError(t, err)
	defer session.Close()

	dep, err := session.Deploy(ctx, deploy.Request{Step: deploy.RootChain, Contract: deploy.RootChain})
	require.NoError(t, err)

	tx, _, err := backend.Client().TransactionByHash(ctx, common.HexToHash(dep.TxHash))
	require.NoError(t, err)
	assert.Equal(t, uint64(200_000), tx.Gas())
	assert.Equal(t, big.NewInt(5_000_000_000), tx.GasPrice())
}
