package signer

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/cosmos/go-bip39"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/AndyHydro/plasma-contracts/internal/config"
)

// FromMnemonic derives the key at path from a BIP-39 mnemonic. An empty path
// means config.DefaultHDPath.
func FromMnemonic(mnemonic, path string, chainID *big.Int) (*LocalSigner, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}

	if path == "" {
		path = config.DefaultHDPath
	}
	derivation, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("parse hd path %q: %w", path, err)
	}

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}
	for _, n := range derivation {
		key, err = key.Derive(n)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", path, err)
		}
	}

	ecKey, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extract private key: %w", err)
	}
	privateKey, err := crypto.ToECDSA(ecKey.Serialize())
	if err != nil {
		return nil, fmt.Errorf("convert private key: %w", err)
	}
	return newLocalSigner(privateKey, chainID)
}
