package gateway

import "fmt"

// ValidationError reports that a query text failed the read-only check.
// The external client is never contacted for such a query.
type ValidationError struct {
	Query string
}

func (e *ValidationError) Error() string {
	return "only SELECT and WITH queries are allowed"
}

// ClientInitError reports that the warehouse client could not be
// constructed, typically because credentials are missing or malformed.
type ClientInitError struct {
	Err error
}

func (e *ClientInitError) Error() string {
	return fmt.Sprintf("failed to initialize warehouse client: %v", e.Err)
}

func (e *ClientInitError) Unwrap() error { return e.Err }

// ExecutionError reports a remote execution failure of any kind: syntax,
// permission, timeout or network.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
