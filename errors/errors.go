// Package errors provides the error model shared by the gateway: a domain
// error taxonomy carried on the bus, error classes that drive HTTP mapping,
// and helper functions for consistent wrapping across components.
package errors

import (
	"errors"
	"fmt"
)

// Class tags an error with how the gateway should treat it. The HTTP mapper
// operates on this data rather than on concrete library error types.
type Class int

const (
	// ClassClient marks errors caused by the inbound request (bad JSON,
	// wrong field types). These never reach the bus.
	ClassClient Class = iota
	// ClassTransport marks failures to reach or hear back from a responder.
	ClassTransport
	// ClassDomain marks structured errors returned by a downstream service.
	ClassDomain
	// ClassInternal marks contract violations and gateway bugs.
	ClassInternal
)

// String returns the string representation of Class.
func (c Class) String() string {
	switch c {
	case ClassClient:
		return "client"
	case ClassTransport:
		return "transport"
	case ClassDomain:
		return "domain"
	case ClassInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Standard error variables for common gateway conditions.
var (
	ErrNotConnected   = errors.New("not connected to bus")
	ErrNoResponders   = errors.New("no responders available")
	ErrReplyTimeout   = errors.New("timed out waiting for reply")
	ErrDecodeFailed   = errors.New("request decode failed")
	ErrEncodeFailed   = errors.New("reply decode failed")
	ErrRouteNotFound  = errors.New("route not found")
	ErrStreamsBusy    = errors.New("streaming concurrency limit reached")
	ErrSlowConsumer   = errors.New("consumer too slow, stream terminated")
	ErrStreamClosed   = errors.New("stream closed before first chunk")
	ErrAlreadyStarted = errors.New("component already started")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMissingConfig  = errors.New("missing required configuration")
)

// ClassifiedError wraps an error with its class and originating component.
type ClassifiedError struct {
	Class     Class
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// newClassified creates a classified error. Internal helper, use the Wrap*
// functions instead.
func newClassified(class Class, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapClient wraps an error as a client error with context.
func WrapClient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(ClassClient, wrapped, component, method, wrapped.Error())
}

// WrapTransport wraps an error as a transport error with context.
func WrapTransport(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(ClassTransport, wrapped, component, method, wrapped.Error())
}

// WrapInternal wraps an error as an internal error with context.
func WrapInternal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(ClassInternal, wrapped, component, method, wrapped.Error())
}

// IsClient checks if an error is caused by the inbound request.
func IsClient(err error) bool {
	return classOf(err) == ClassClient
}

// IsTransport checks if an error is a transport failure.
func IsTransport(err error) bool {
	return classOf(err) == ClassTransport
}

// IsInternal checks if an error indicates a gateway or contract bug.
func IsInternal(err error) bool {
	return classOf(err) == ClassInternal
}

func classOf(err error) Class {
	if err == nil {
		return Class(-1)
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	var de *DomainError
	if errors.As(err, &de) {
		return ClassDomain
	}
	return Class(-1)
}

// Classify returns the class for an error. Unclassified errors default to
// internal so unexpected failures surface as 500s, never as client faults.
func Classify(err error) Class {
	if c := classOf(err); c >= ClassClient {
		return c
	}
	return ClassInternal
}
