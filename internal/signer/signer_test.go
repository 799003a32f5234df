package signer

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndyHydro/plasma-contracts/internal/config"
)

const (
	testMnemonic = "test test test test test test test test test test test junk"
	testKey      = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress  = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestNewLocalSigner(t *testing.T) {
	s, err := NewLocalSigner(testKey, big.NewInt(1337))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), s.Address())
	assert.Equal(t, int64(1337), s.ChainID().Int64())

	prefixed, err := NewLocalSigner("0x"+testKey, big.NewInt(1337))
	require.NoError(t, err)
	assert.Equal(t, s.Address(), prefixed.Address())

	_, err = NewLocalSigner("not-hex", big.NewInt(1))
	assert.ErrorContains(t, err, "parse private key")

	_, err = NewLocalSigner(testKey, nil)
	assert.Error(t, err)
}

func TestLocalSigner_SignTransaction(t *testing.T) {
	chainID := big.NewInt(1337)
	s, err := NewLocalSigner(testKey, chainID)
	require.NoError(t, err)

	tx := types.NewContractCreation(0, big.NewInt(0), 100000, big.NewInt(1), []byte{0x00})
	signed, err := s.SignTransaction(context.Background(), tx)
	require.NoError(t, err)

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), sender)
	assert.Zero(t, chainID.Cmp(signed.ChainId()))
}

func TestFromMnemonic(t *testing.T) {
	s, err := FromMnemonic(testMnemonic, "", big.NewInt(1337))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), s.Address())

	explicit, err := FromMnemonic("  "+testMnemonic+"\n", config.DefaultHDPath, big.NewInt(1337))
	require.NoError(t, err)
	assert.Equal(t, s.Address(), explicit.Address())

	second, err := FromMnemonic(testMnemonic, "m/44'/60'/0'/0/1", big.NewInt(1337))
	require.NoError(t, err)
	assert.NotEqual(t, s.Address(), second.Address())
}

func TestFromMnemonic_Errors(t *testing.T) {
	_, err := FromMnemonic("not a real mnemonic", "", big.NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidMnemonic)

	_, err = FromMnemonic(testMnemonic, "x/bad/path", big.NewInt(1))
	assert.ErrorContains(t, err, "parse hd path")
}

func TestFromCredentials(t *testing.T) {
	chainID := big.NewInt(1337)

	s, err := FromCredentials(config.Credentials{PrivateKey: testKey, From: testAddress}, chainID)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), s.Address())

	t.Setenv("TEST_DEPLOY_MNEMONIC", testMnemonic)
	s, err = FromCredentials(config.Credentials{MnemonicEnv: "TEST_DEPLOY_MNEMONIC"}, chainID)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), s.Address())

	_, err = FromCredentials(config.Credentials{}, chainID)
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = FromCredentials(config.Credentials{
		PrivateKey: testKey,
		From:       "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	}, chainID)
	assert.ErrorIs(t, err, ErrAddressMismatch)
}
