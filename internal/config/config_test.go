package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"coverage", "development", "rinkeby"}, cfg.NetworkNames())

	dev, err := cfg.Profile("development")
	require.NoError(t, err)
	assert.Equal(t, "development", dev.Name)
	assert.Equal(t, "http://localhost:8545", dev.Endpoint())
	assert.Equal(t, "15", dev.NetworkID)
	assert.Zero(t, dev.GasPrice)

	cov, err := cfg.Profile("coverage")
	require.NoError(t, err)
	assert.True(t, cov.AcceptsAnyNetwork())
	assert.Equal(t, uint64(0xfffffffffff), cov.GasLimit)
	assert.Equal(t, uint64(1), cov.GasPrice)

	rinkeby, err := cfg.Profile("rinkeby")
	require.NoError(t, err)
	assert.Equal(t, uint64(7_500_000), rinkeby.GasLimit)
	assert.Equal(t, uint64(5_000_000_000), rinkeby.GasPrice)
	assert.Equal(t, "RINKEBY_MNEMONIC", rinkeby.Credentials.MnemonicEnv)

	assert.Equal(t, "build/contracts", cfg.Artifacts.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Report.Enabled)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	path := writeFile(t, dir, "custom.yaml", `
networks:
  anvil:
    url: http://127.0.0.1:8546
    network_id: "31337"
    gas_price: 2000000000
    credentials:
      private_key_env: ANVIL_KEY
log:
  level: debug
  format: json
`)

	cfg, err := Load(Options{File: path})
	require.NoError(t, err)

	anvil, err := cfg.Profile("anvil")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8546", anvil.Endpoint())
	assert.Equal(t, uint64(2_000_000_000), anvil.GasPrice)

	id, err := anvil.ExpectedNetworkID()
	require.NoError(t, err)
	assert.Equal(t, uint64(31337), id)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	// defaults survive alongside file entries
	_, err = cfg.Profile("development")
	assert.NoError(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	writeFile(t, dir, ".env", "INFURA_API_KEY=abc123\nPLASMA_LOG_LEVEL=warn\n")
	t.Cleanup(func() {
		os.Unsetenv("INFURA_API_KEY")
		os.Unsetenv("PLASMA_LOG_LEVEL")
	})

	cfg, err := Load(Options{})
	require.NoError(t, err)

	rinkeby, err := cfg.Profile("rinkeby")
	require.NoError(t, err)
	assert.Equal(t, "https://rinkeby.infura.io/v3/abc123", rinkeby.Endpoint())
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_InvalidProfile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	path := writeFile(t, dir, "bad.yaml", `
networks:
  broken:
    port: 8545
`)

	_, err := Load(Options{File: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestConfig_ProfileUnknown(t *testing.T) {
	cfg := &Config{Networks: map[string]NetworkProfile{"development": {}}}

	_, err := cfg.Profile("mainnet")
	require.ErrorIs(t, err, ErrUnknownNetwork)
	assert.Contains(t, err.Error(), "development")
}

func TestCredentials_Resolve(t *testing.T) {
	t.Setenv("TEST_DEPLOY_KEY", "0xabcdef")
	t.Setenv("TEST_DEPLOY_FROM", "0xF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266")

	c := Credentials{PrivateKeyEnv: "TEST_DEPLOY_KEY", FromEnv: "TEST_DEPLOY_FROM"}
	assert.Equal(t, "abcdef", c.ResolvedPrivateKey())
	assert.Equal(t, "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", c.ResolvedFrom())
	assert.Equal(t, "private_key", c.Kind())
	assert.Equal(t, DefaultHDPath, c.ResolvedHDPath())

	inline := Credentials{PrivateKey: "0x1111", PrivateKeyEnv: "TEST_DEPLOY_KEY"}
	assert.Equal(t, "1111", inline.ResolvedPrivateKey())

	assert.Equal(t, "none", Credentials{}.Kind())
	assert.Equal(t, "mnemonic", Credentials{Mnemonic: "test junk"}.Kind())
}

func TestCredentials_Masked(t *testing.T) {
	c := Credentials{
		PrivateKey: "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
		Mnemonic:   "test test test test test test test test test test test junk",
	}
	m := c.Masked()
	assert.Equal(t, "ac0974...ff80", m.PrivateKey)
	assert.Equal(t, "****", m.Mnemonic)
	assert.NotEqual(t, c.PrivateKey, m.PrivateKey)
}

func TestNetworkProfile_ExpectedNetworkID(t *testing.T) {
	tests := []struct {
		name      string
		networkID string
		want      uint64
		any       bool
		wantErr   bool
	}{
		{name: "numeric", networkID: "4", want: 4},
		{name: "wildcard", networkID: "*", any: true},
		{name: "empty", networkID: "", any: true},
		{name: "garbage", networkID: "rinkeby", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NetworkProfile{Name: "test", NetworkID: tt.networkID}
			assert.Equal(t, tt.any, p.AcceptsAnyNetwork())
			got, err := p.ExpectedNetworkID()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
