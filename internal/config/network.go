package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// AnyNetwork accepts whatever chain the endpoint reports.
const AnyNetwork = "*"

// DefaultHDPath is the derivation path used when a mnemonic is configured
// without an explicit path (first account of the standard Ethereum wallet).
const DefaultHDPath = "m/44'/60'/0'/0/0"

// NetworkProfile is a named endpoint/credential/gas bundle selected at
// invocation time. It is read-only input to a migration run.
type NetworkProfile struct {
	Name      string `mapstructure:"-"`
	URL       string `mapstructure:"url" validate:"required_without=Host,omitempty,url"`
	Host      string `mapstructure:"host" validate:"required_without=URL,omitempty,hostname|ip"`
	Port      int    `mapstructure:"port" validate:"required_with=Host,omitempty,min=1,max=65535"`
	NetworkID string `mapstructure:"network_id" validate:"required"`

	// GasPrice is in wei. Zero asks the node for a suggestion.
	GasPrice uint64 `mapstructure:"gas_price"`
	// GasLimit of zero estimates per deployment.
	GasLimit uint64 `mapstructure:"gas_limit"`

	Credentials Credentials `mapstructure:"credentials"`
}

// Credentials holds the signing material for a profile. Either a private key
// or a mnemonic may be supplied, inline or through an environment variable.
type Credentials struct {
	PrivateKey    string `mapstructure:"private_key" json:"private_key,omitempty"`
	PrivateKeyEnv string `mapstructure:"private_key_env" json:"private_key_env,omitempty"`
	Mnemonic      string `mapstructure:"mnemonic" json:"mnemonic,omitempty"`
	MnemonicEnv   string `mapstructure:"mnemonic_env" json:"mnemonic_env,omitempty"`
	HDPath        string `mapstructure:"hd_path" json:"hd_path,omitempty"`
	From          string `mapstructure:"from" json:"from,omitempty" validate:"omitempty,eth_addr"`
	FromEnv       string `mapstructure:"from_env" json:"from_env,omitempty"`
}

// Endpoint returns the RPC URL for the profile. An explicit url wins over
// host/port, and ${VAR} references are expanded from the environment.
func (p NetworkProfile) Endpoint() string {
	if p.URL != "" {
		return os.ExpandEnv(p.URL)
	}
	return "http://" + net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// AcceptsAnyNetwork reports whether the profile skips network ID verification.
func (p NetworkProfile) AcceptsAnyNetwork() bool {
	id := strings.TrimSpace(p.NetworkID)
	return id == "" || id == AnyNetwork
}

// ExpectedNetworkID parses the profile's network_id, which is matched
// against the node's net_version.
func (p NetworkProfile) ExpectedNetworkID() (uint64, error) {
	if p.AcceptsAnyNetwork() {
		return 0, nil
	}
	id, err := strconv.ParseUint(strings.TrimSpace(p.NetworkID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid network_id %q for network %s: %w", p.NetworkID, p.Name, err)
	}
	return id, nil
}

// ResolvedPrivateKey returns the hex private key, reading the configured
// environment variable when no inline key is set.
func (c Credentials) ResolvedPrivateKey() string {
	if c.PrivateKey != "" {
		return strings.TrimPrefix(strings.TrimSpace(c.PrivateKey), "0x")
	}
	if c.PrivateKeyEnv != "" {
		return strings.TrimPrefix(strings.TrimSpace(os.Getenv(c.PrivateKeyEnv)), "0x")
	}
	return ""
}

// ResolvedMnemonic returns the mnemonic phrase, inline or from the environment.
func (c Credentials) ResolvedMnemonic() string {
	if c.Mnemonic != "" {
		return strings.TrimSpace(c.Mnemonic)
	}
	if c.MnemonicEnv != "" {
		return strings.TrimSpace(os.Getenv(c.MnemonicEnv))
	}
	return ""
}

// ResolvedHDPath returns the derivation path, defaulting to DefaultHDPath.
func (c Credentials) ResolvedHDPath() string {
	if c.HDPath != "" {
		return c.HDPath
	}
	return DefaultHDPath
}

// ResolvedFrom returns the expected deployer address, lowercased, or "" when
// no address is pinned.
func (c Credentials) ResolvedFrom() string {
	from := c.From
	if from == "" && c.FromEnv != "" {
		from = os.Getenv(c.FromEnv)
	}
	return strings.ToLower(strings.TrimSpace(from))
}

// Kind describes which credential source is configured.
func (c Credentials) Kind() string {
	switch {
	case c.ResolvedPrivateKey() != "":
		return "private_key"
	case c.ResolvedMnemonic() != "":
		return "mnemonic"
	default:
		return "none"
	}
}

// Masked returns a copy safe for display.
func (c Credentials) Masked() Credentials {
	out := c
	if out.PrivateKey != "" {
		out.PrivateKey = mask(out.PrivateKey)
	}
	if out.Mnemonic != "" {
		out.Mnemonic = "****"
	}
	return out
}

func mask(s string) string {
	if len(s) <= 12 {
		return "****"
	}
	return s[:6] + "..." + s[len(s)-4:]
}
