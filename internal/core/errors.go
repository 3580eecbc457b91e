// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Launcher errors
	ErrDirResolution      = &Error{Code: "DIR_RESOLUTION", Message: "cannot resolve launcher directory"}
	ErrInterpreterMissing = &Error{Code: "INTERPRETER_MISSING", Message: "interpreter not found on PATH"}
	ErrSpawnFailed        = &Error{Code: "SPAWN_FAILED", Message: "child process could not be started"}

	// Trader errors
	ErrTraderDisconnected = &Error{Code: "TRADER_DISCONNECTED", Message: "trader not connected"}
	ErrOrderFailed        = &Error{Code: "ORDER_FAILED", Message: "order failed"}
	ErrNoMarketPrice      = &Error{Code: "NO_MARKET_PRICE", Message: "no market price available"}
	ErrNoBuyingPower      = &Error{Code: "NO_BUYING_POWER", Message: "no buying power available"}

	// Risk errors
	ErrRiskRejected   = &Error{Code: "RISK_REJECTED", Message: "order rejected by risk controls"}
	ErrCircuitBreaker = &Error{Code: "CIRCUIT_BREAKER", Message: "circuit breaker active, trading halted"}

	// Advisor errors
	ErrAdvisorFailed  = &Error{Code: "ADVISOR_FAILED", Message: "advisor request failed"}
	ErrNoDecisions    = &Error{Code: "NO_DECISIONS", Message: "advisor returned no decisions"}
	ErrDecisionsParse = &Error{Code: "DECISIONS_PARSE", Message: "advisor response could not be parsed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Audit errors
	ErrAuditFailed = &Error{Code: "AUDIT_FAILED", Message: "audit record could not be persisted"}
)
