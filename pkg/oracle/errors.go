package oracle

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/neorpc"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Reason describes why a transaction has failed.
type Reason string

// Transaction failure reasons.
const (
	ReasonInsufficientFunds Reason = "insufficient funds"
	ReasonNonceConflict     Reason = "nonce conflict"
	ReasonRejected          Reason = "rejected"
	ReasonReverted          Reason = "reverted"
	ReasonGasLimit          Reason = "gas limit exceeded"
	ReasonNotConfirmed      Reason = "not confirmed"
	ReasonSubmission        Reason = "submission failed"
)

var (
	// ErrRejected is returned when test invocation of the update faults,
	// the contract refuses unauthorized writes and writes while paused.
	ErrRejected = errors.New("contract rejected the update")
	// ErrGasLimit is returned when the update needs more GAS than allowed.
	ErrGasLimit = errors.New("system fee exceeds the limit")
	// ErrReverted is returned for transactions that FAULTed on chain.
	ErrReverted = errors.New("transaction reverted")
)

// TransactionError is a failure to get the update accepted by the chain.
type TransactionError struct {
	Reason Reason
	// TxHash is set if the transaction was sent.
	TxHash util.Uint256
	Err    error
}

// Error implements the error interface.
func (e *TransactionError) Error() string {
	if e.TxHash.Equals(util.Uint256{}) {
		return fmt.Sprintf("transaction %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("transaction %s %s: %v", e.TxHash.StringLE(), e.Reason, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransactionError) Unwrap() error {
	return e.Err
}

// ConnectivityError is returned when the client can't be initialized. It's
// fatal for the service.
type ConnectivityError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("can't %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// sendError converts transaction creation or sending error into
// TransactionError.
func sendError(h util.Uint256, err error) *TransactionError {
	var reason Reason
	switch {
	case errors.Is(err, ErrGasLimit):
		reason = ReasonGasLimit
	case errors.Is(err, ErrRejected):
		reason = ReasonRejected
	case errors.Is(err, neorpc.ErrInsufficientFunds), errors.Is(err, neorpc.ErrInsufficientNetworkFee):
		reason = ReasonInsufficientFunds
	case errors.Is(err, neorpc.ErrAlreadyExists), errors.Is(err, neorpc.ErrAlreadyInPool):
		reason = ReasonNonceConflict
	default:
		reason = ReasonSubmission
	}
	return &TransactionError{Reason: reason, TxHash: h, Err: err}
}
