package deploy

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Canonical step names.
const (
	RootChain  = "RootChain"
	SampleNFTs = "SampleNFTs"
)

// DefaultPlan returns the canonical migration: the plasma root chain, then
// the sample NFT contract wired to it.
func DefaultPlan() []Step {
	return []Step{
		NewStep(RootChain),
		NewStep(SampleNFTs, Ref(RootChain)),
	}
}

// planFile is the YAML layout of a migration plan.
type planFile struct {
	Steps []planStep `yaml:"steps"`
}

type planStep struct {
	Name     string    `yaml:"name"`
	Contract string    `yaml:"contract"`
	Args     []planArg `yaml:"args"`
}

// planArg is a scalar literal or a {ref: <step>} mapping.
type planArg struct {
	arg Arg
}

// UnmarshalYAML decodes either form of argument.
func (a *planArg) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var m struct {
			Ref   string `yaml:"ref"`
			Value any    `yaml:"value"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		if m.Ref != "" {
			a.arg = Ref(m.Ref)
			return nil
		}
		if m.Value != nil {
			a.arg = Value(m.Value)
			return nil
		}
		return fmt.Errorf("line %d: argument mapping needs a ref or value key", node.Line)
	}

	var v any
	if node.Kind == yaml.ScalarNode && (node.Tag == "!!int" || node.Tag == "!!float") && integerLiteral.MatchString(node.Value) {
		// keep integers as written; uint256 values overflow int64 and float64
		v = node.Value
	} else if err := node.Decode(&v); err != nil {
		return err
	}
	a.arg = Value(v)
	return nil
}

var integerLiteral = regexp.MustCompile(`^[-+]?(0x[0-9a-fA-F_]+|[0-9_]+)$`)

// ParsePlan decodes a YAML migration plan.
func ParsePlan(data []byte) ([]Step, error) {
	var pf planFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}

	steps := make([]Step, 0, len(pf.Steps))
	for _, ps := range pf.Steps {
		s := Step{Name: ps.Name, Contract: ps.Contract}
		if s.Contract == "" {
			s.Contract = s.Name
		}
		for _, pa := range ps.Args {
			s.Args = append(s.Args, pa.arg)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// LoadPlan reads a plan file, or returns DefaultPlan when path is empty.
func LoadPlan(path string) ([]Step, error) {
	if path == "" {
		return DefaultPlan(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}
	return ParsePlan(data)
}
