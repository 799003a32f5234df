package signer

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/AndyHydro/plasma-contracts/internal/config"
)

// FromCredentials builds a signer from profile credentials. A private key
// wins over a mnemonic. When a from address is configured the derived
// account must match it.
func FromCredentials(creds config.Credentials, chainID *big.Int) (*LocalSigner, error) {
	var (
		s   *LocalSigner
		err error
	)
	switch {
	case creds.ResolvedPrivateKey() != "":
		s, err = NewLocalSigner(creds.ResolvedPrivateKey(), chainID)
	case creds.ResolvedMnemonic() != "":
		s, err = FromMnemonic(creds.ResolvedMnemonic(), creds.ResolvedHDPath(), chainID)
	default:
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, err
	}

	if from := creds.ResolvedFrom(); from != "" && !strings.EqualFold(from, s.Address().Hex()) {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrAddressMismatch, from, s.Address().Hex())
	}
	return s, nil
}
