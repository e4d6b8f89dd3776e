package updater

import (
	"errors"
	"fmt"

	"github.com/blackswanwtf/blackswan-oracle/pkg/oracle"
)

var (
	// ErrCycleInProgress is returned by RunCycle when another cycle is
	// running.
	ErrCycleInProgress = errors.New("update cycle is already in progress")
	// ErrNotRunning is returned by RunCycle after shutdown.
	ErrNotRunning = errors.New("service is stopped")
)

// FetchError is a failure to get scores from the analytics API.
type FetchError struct {
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return "fetch failed: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// PublishError is a failure to store an analysis document.
type PublishError struct {
	Type string
	Err  error
}

// Error implements the error interface.
func (e *PublishError) Error() string {
	return fmt.Sprintf("%s publishing failed: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *PublishError) Unwrap() error {
	return e.Err
}

// errorKind returns metric label for the cycle error.
func errorKind(err error) string {
	var (
		fe *FetchError
		pe *PublishError
		te *oracle.TransactionError
	)
	switch {
	case errors.As(err, &fe):
		return "fetch"
	case errors.As(err, &pe):
		return "publish"
	case errors.As(err, &te):
		return "transaction"
	default:
		return "other"
	}
}
