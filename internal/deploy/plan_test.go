package deploy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPlan(t *testing.T) {
	plan := DefaultPlan()
	require.Len(t, plan, 2)
	assert.Equal(t, RootChain, plan[0].Name)
	assert.Empty(t, plan[0].Args)
	assert.Equal(t, SampleNFTs, plan[1].Name)
	assert.Equal(t, []string{RootChain}, plan[1].Refs())
}

func TestParsePlan(t *testing.T) {
	data := []byte(`
steps:
  - name: RootChain
  - name: Token
    contract: SampleNFTs
    args:
      - ref: RootChain
      - "label"
      - 1000000000000000000000
      - true
      - value: 7
`)
	steps, err := ParsePlan(data)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.Equal(t, "RootChain", steps[0].ContractName())
	assert.Equal(t, "SampleNFTs", steps[1].Contract)

	args := steps[1].Args
	require.Len(t, args, 5)
	assert.Equal(t, "RootChain", args[0].RefName())
	assert.Equal(t, "label", args[1].Literal())
	assert.Equal(t, "1000000000000000000000", args[2].Literal())
	assert.Equal(t, true, args[3].Literal())
	assert.Equal(t, 7, args[4].Literal())

	require.NoError(t, Validate(steps))
}

func TestParsePlan_Errors(t *testing.T) {
	_, err := ParsePlan([]byte("steps:\n  - name: A\n    args:\n      - {}\n"))
	assert.ErrorContains(t, err, "needs a ref or value key")

	_, err = ParsePlan([]byte("steps: [\n"))
	assert.ErrorContains(t, err, "parse plan")

	steps, err := ParsePlan([]byte("steps: []\n"))
	require.NoError(t, err)
	assert.ErrorIs(t, Validate(steps), ErrEmptyPlan)
}

func TestLoadPlan(t *testing.T) {
	steps, err := LoadPlan("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPlan(), steps)

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - name: RootChain\n"), 0o600))

	steps, err = LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, []Step{{Name: "RootChain", Contract: "RootChain"}}, steps)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read plan")
}
