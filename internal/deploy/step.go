// Package deploy runs an ordered migration plan against a network, feeding
// the addresses of earlier deployments into the constructor arguments of
// later ones.
package deploy

import "fmt"

// Arg is a single constructor argument: either a literal value or a reference
// to the address recorded for an earlier step.
type Arg struct {
	ref   string
	value any
}

// Ref returns an argument that resolves to the address recorded for step.
func Ref(step string) Arg {
	return Arg{ref: step}
}

// Value returns a literal argument.
func Value(v any) Arg {
	return Arg{value: v}
}

// IsRef reports whether the argument references another step.
func (a Arg) IsRef() bool {
	return a.ref != ""
}

// RefName returns the referenced step name, or "" for a literal.
func (a Arg) RefName() string {
	return a.ref
}

// Literal returns the literal value, or nil for a reference.
func (a Arg) Literal() any {
	return a.value
}

// String renders the argument for plan listings.
func (a Arg) String() string {
	if a.IsRef() {
		return "ref(" + a.ref + ")"
	}
	return fmt.Sprintf("%v", a.value)
}

// Step identifies a contract to instantiate, its ordered constructor
// arguments and the name its address is recorded under.
type Step struct {
	Name     string
	Contract string
	Args     []Arg
}

// NewStep builds a step whose contract template has the same name as the step.
func NewStep(name string, args ...Arg) Step {
	return Step{Name: name, Contract: name, Args: args}
}

// ContractName returns the artifact to instantiate, defaulting to Name.
func (s Step) ContractName() string {
	if s.Contract != "" {
		return s.Contract
	}
	return s.Name
}

// Refs returns the step names this step depends on, in argument order.
func (s Step) Refs() []string {
	var refs []string
	for _, a := range s.Args {
		if a.IsRef() {
			refs = append(refs, a.ref)
		}
	}
	return refs
}

// Request is a step with its arguments resolved, as handed to the network.
type Request struct {
	Step     string
	Contract string
	Args     []any
}

// Validate checks a plan without touching the network. Steps must be named,
// unique, and may only reference steps that come before them.
func Validate(steps []Step) error {
	if len(steps) == 0 {
		return newConfigError(-1, "", ErrEmptyPlan, "")
	}

	seen := make(map[string]int, len(steps))
	for i, s := range steps {
		if s.Name == "" {
			return newConfigError(i, s.Name, ErrUnnamedStep, "")
		}
		if prev, ok := seen[s.Name]; ok {
			return newConfigError(i, s.Name, ErrDuplicateStep, fmt.Sprintf("already defined at step %d", prev))
		}
		for _, ref := range s.Refs() {
			if ref == s.Name {
				return newConfigError(i, s.Name, ErrInvalidReference, "step references itself")
			}
			if _, ok := seen[ref]; !ok {
				return newConfigError(i, s.Name, ErrInvalidReference, fmt.Sprintf("%q is not an earlier step", ref))
			}
		}
		seen[s.Name] = i
	}
	return nil
}

// resolve substitutes recorded addresses for references.
func resolve(s Step, record *Record) ([]any, error) {
	args := make([]any, len(s.Args))
	for i, a := range s.Args {
		if !a.IsRef() {
			args[i] = a.value
			continue
		}
		addr, ok := record.Address(a.ref)
		if !ok {
			return nil, fmt.Errorf("%w: %q has no recorded address", ErrInvalidReference, a.ref)
		}
		args[i] = addr
	}
	return args, nil
}
