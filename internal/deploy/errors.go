package deploy

import (
	"errors"
	"fmt"
)

// Sentinel errors - Configuration
var (
	ErrConfiguration    = errors.New("deploy: invalid plan")
	ErrEmptyPlan        = errors.New("deploy: plan has no steps")
	ErrUnnamedStep      = errors.New("deploy: step has no name")
	ErrDuplicateStep    = errors.New("deploy: duplicate step name")
	ErrInvalidReference = errors.New("deploy: invalid address reference")
)

// Sentinel errors - Execution
var (
	ErrDeploymentFailed = errors.New("deploy: deployment failed")
	ErrEmptyAddress     = errors.New("deploy: network returned no contract address")
)

// ConfigurationError is returned before any network interaction when a plan
// is empty or malformed.
type ConfigurationError struct {
	// Step is the offending step name, empty for plan-level problems.
	Step string
	// Index is the offending step position, -1 for plan-level problems.
	Index int
	// Err is one of the configuration sentinels.
	Err error
	// Detail adds context such as the unresolvable reference.
	Detail string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := e.Err.Error()
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s (step %d %q)", msg, e.Index, e.Step)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the underlying sentinel.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is makes every ConfigurationError match ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func newConfigError(index int, step string, err error, detail string) *ConfigurationError {
	return &ConfigurationError{Step: step, Index: index, Err: err, Detail: detail}
}

// DeploymentFailure is returned when a step's network submission fails or is
// rejected. Steps after Index were never attempted.
type DeploymentFailure struct {
	Step  string
	Index int
	Err   error
}

// Error implements the error interface.
func (e *DeploymentFailure) Error() string {
	return fmt.Sprintf("deploy %s (step %d): %v", e.Step, e.Index, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DeploymentFailure) Unwrap() error {
	return e.Err
}

// Is makes every DeploymentFailure match ErrDeploymentFailed.
func (e *DeploymentFailure) Is(target error) bool {
	return target == ErrDeploymentFailed
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// FailedStep returns the step name carried by a DeploymentFailure in err's chain.
func FailedStep(err error) (string, bool) {
	var failure *DeploymentFailure
	if errors.As(err, &failure) {
		return failure.Step, true
	}
	return "", false
}
