// Package errors provides sentinel errors and custom error types for stageport.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrNoStage indicates that a portal or container was used outside of a stage
	ErrNoStage = errors.New("no stage in context")

	// ErrDuplicateContainer indicates that two live managers registered under one container id
	ErrDuplicateContainer = errors.New("duplicate container registration")

	// ErrUnknownStrategy indicates an unrecognized commit strategy name
	ErrUnknownStrategy = errors.New("unknown commit strategy")

	// ErrInvalidScript indicates that a scene script could not be parsed or executed
	ErrInvalidScript = errors.New("invalid scene script")

	// ErrExpectationFailed indicates that a scene script expectation did not hold
	ErrExpectationFailed = errors.New("expectation failed")
)

// ConfigurationError is returned when a component is used without the
// coordination context it requires.
type ConfigurationError struct {
	Component string
	Wrapper   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s must be used inside a stage: wrap the context with %s before declaring it", e.Component, e.Wrapper)
}

// Is returns true if the target error is ErrNoStage
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrNoStage
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(component, wrapper string) *ConfigurationError {
	return &ConfigurationError{Component: component, Wrapper: wrapper}
}

// DuplicateContainerError describes a second registration under a live container id
type DuplicateContainerError struct {
	ID        string
	AuditName string
}

func (e *DuplicateContainerError) Error() string {
	if e.AuditName != "" {
		return fmt.Sprintf("%s %q is already registered as a portal container; the last registration wins", e.AuditName, e.ID)
	}
	return fmt.Sprintf("container %q is already registered; the last registration wins", e.ID)
}

// Is returns true if the target error is ErrDuplicateContainer
func (e *DuplicateContainerError) Is(target error) bool {
	return target == ErrDuplicateContainer
}

// NewDuplicateContainerError creates a new DuplicateContainerError
func NewDuplicateContainerError(id, auditName string) *DuplicateContainerError {
	return &DuplicateContainerError{ID: id, AuditName: auditName}
}

// ScriptError represents a problem with a scene script
type ScriptError struct {
	Path string
	Step int // 1-based; 0 when the error is not tied to a step
	Msg  string
	Err  error
}

func (e *ScriptError) Error() string {
	var b strings.Builder
	b.WriteString("scene script")
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	if e.Step > 0 {
		fmt.Fprintf(&b, " step %d", e.Step)
	}
	b.WriteString(": " + e.Msg)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Is returns true if the target error is ErrInvalidScript
func (e *ScriptError) Is(target error) bool {
	return target == ErrInvalidScript
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// NewScriptError creates a new ScriptError
func NewScriptError(path string, step int, msg string, err error) *ScriptError {
	return &ScriptError{Path: path, Step: step, Msg: msg, Err: err}
}

// ExpectationError reports a container whose draw order differs from the expected one
type ExpectationError struct {
	Step      int
	Container string
	Want      []string
	Got       []string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("step %d: container %q order is [%s], want [%s]",
		e.Step, e.Container, strings.Join(e.Got, ", "), strings.Join(e.Want, ", "))
}

// Is returns true if the target error is ErrExpectationFailed
func (e *ExpectationError) Is(target error) bool {
	return target == ErrExpectationFailed
}
