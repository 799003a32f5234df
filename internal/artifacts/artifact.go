// Package artifacts loads compiled contract artifacts (ABI plus creation
// bytecode) produced by Truffle, Hardhat or Foundry.
package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Sentinel errors
var (
	ErrArtifactNotFound = errors.New("artifacts: not found")
	ErrEmptyBytecode    = errors.New("artifacts: empty bytecode")
	ErrUnlinkedBytecode = errors.New("artifacts: bytecode has unlinked library references")
	ErrChecksumMismatch = errors.New("artifacts: checksum mismatch")
)

// Artifact is a compiled contract.
type Artifact struct {
	ContractName     string          `json:"contractName,omitempty"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         Bytecode        `json:"bytecode"`
	DeployedBytecode Bytecode        `json:"deployedBytecode,omitempty"`
}

// Bytecode accepts both a plain hex string (Truffle, Hardhat) and an object
// with an "object" field (Foundry).
type Bytecode struct {
	hex string
}

// NewBytecode wraps a hex string.
func NewBytecode(hex string) Bytecode {
	return Bytecode{hex: hex}
}

// UnmarshalJSON handles both string and object bytecode formats.
func (b *Bytecode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.hex = s
		return nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		b.hex = obj.Object
		return nil
	}

	return fmt.Errorf("bytecode must be a string or object with 'object' field")
}

// MarshalJSON marshals the bytecode as a string.
func (b Bytecode) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.hex)
}

// String returns the bytecode hex string.
func (b Bytecode) String() string {
	return b.hex
}

// Empty reports whether there is no code, as for interfaces and abstract
// contracts.
func (b Bytecode) Empty() bool {
	h := strings.TrimPrefix(strings.TrimSpace(b.hex), "0x")
	return h == ""
}

// Parse decodes an artifact file. name is used when the file carries no
// contractName (Foundry output).
func Parse(data []byte, name string) (*Artifact, error) {
	var a Artifact
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&a); err != nil {
		return nil, err
	}
	if a.ContractName == "" {
		a.ContractName = name
	}
	return &a, nil
}

// HasABI reports whether the file carried an ABI at all.
func (a *Artifact) HasABI() bool {
	trimmed := bytes.TrimSpace(a.ABI)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// ParsedABI parses the contract ABI.
func (a *Artifact) ParsedABI() (abi.ABI, error) {
	if !a.HasABI() {
		return abi.ABI{}, nil
	}
	parsed, err := abi.JSON(bytes.NewReader(a.ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse %s abi: %w", a.ContractName, err)
	}
	return parsed, nil
}

// BytecodeBytes decodes the creation bytecode. Empty code and code that
// still contains __Library__ placeholders are rejected.
func (a *Artifact) BytecodeBytes() ([]byte, error) {
	if a.Bytecode.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBytecode, a.ContractName)
	}
	h := strings.TrimSpace(a.Bytecode.hex)
	if strings.Contains(h, "__") {
		return nil, fmt.Errorf("%w: %s", ErrUnlinkedBytecode, a.ContractName)
	}
	if !strings.HasPrefix(h, "0x") {
		h = "0x" + h
	}
	code, err := hexutil.Decode(h)
	if err != nil {
		return nil, fmt.Errorf("decode %s bytecode: %w", a.ContractName, err)
	}
	return code, nil
}
