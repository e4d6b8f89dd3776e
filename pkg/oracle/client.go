/*
Package oracle sends score updates to the oracle contract and waits for them
to be accepted.

Several calls given to Client.Submit are packed into a single script, so they
either all take effect or none does.
*/
package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"go.uber.org/zap"

	"github.com/blackswanwtf/blackswan-oracle/pkg/rpcclient/scoreoracle"
)

// DefaultConfirmTimeout is used when Config.ConfirmTimeout is not set.
const DefaultConfirmTimeout = 2 * time.Minute

type (
	// Actor is the part of actor.Actor used by the Client.
	Actor interface {
		SendTunedCall(contract util.Uint160, method string, attrs []transaction.Attribute, txHook actor.TransactionCheckerModifier, params ...any) (util.Uint256, uint32, error)
		SendTunedRun(script []byte, attrs []transaction.Attribute, txHook actor.TransactionCheckerModifier) (util.Uint256, uint32, error)
		WaitAny(ctx context.Context, vub uint32, hashes ...util.Uint256) (*state.AppExecResult, error)
		GetBlockCount() (uint32, error)
		Sender() util.Uint160
	}

	// HeightGetter returns the block a transaction was included in.
	HeightGetter interface {
		GetTransactionHeight(util.Uint256) (uint32, error)
	}

	// Config contains Client parameters. Fees are in GAS fractions
	// (10^-8).
	Config struct {
		Log      *zap.Logger
		Contract util.Uint160
		// ConfirmTimeout limits waiting for transaction acceptance.
		ConfirmTimeout time.Duration
		// MaxSystemFee is the limit for a single transaction system fee,
		// zero means no limit.
		MaxSystemFee             int64
		ExtraSystemFee           int64
		ExtraNetworkFee          int64
		ValidUntilBlockIncrement uint32
	}

	// Client submits oracle contract updates on behalf of a single account.
	Client struct {
		cfg     Config
		log     *zap.Logger
		act     Actor
		reader  *scoreoracle.ContractReader
		heights HeightGetter
		closer  func()
	}

	// Result describes an accepted transaction.
	Result struct {
		TxHash      util.Uint256
		BlockNumber uint32
		GasUsed     int64
		Success     bool
	}
)

// New creates a Client using the given actor. If act can make test
// invocations (like actor.Actor does) Reader and Authorized are available.
func New(cfg Config, act Actor) *Client {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = DefaultConfirmTimeout
	}
	c := &Client{
		cfg: cfg,
		log: cfg.Log,
		act: act,
	}
	if inv, ok := act.(scoreoracle.Invoker); ok {
		c.reader = scoreoracle.NewReader(inv, cfg.Contract)
	}
	if hg, ok := act.(HeightGetter); ok {
		c.heights = hg
	}
	return c
}

// Sender returns the account sending updates.
func (c *Client) Sender() util.Uint160 {
	return c.act.Sender()
}

// Contract returns the oracle contract hash.
func (c *Client) Contract() util.Uint160 {
	return c.cfg.Contract
}

// Reader returns contract reader, it's nil if the actor can't invoke.
func (c *Client) Reader() *scoreoracle.ContractReader {
	return c.reader
}

// Authorized checks whether the sender is allowed to write to the contract.
func (c *Client) Authorized() (bool, error) {
	if c.reader == nil {
		return false, errors.New("invocations are not supported")
	}
	sender := c.act.Sender()
	owner, err := c.reader.Owner()
	if err != nil {
		return false, fmt.Errorf("can't get owner: %w", err)
	}
	if owner.Equals(sender) {
		return true, nil
	}
	dev, err := c.reader.IsDevWallet(sender)
	if err != nil {
		return false, fmt.Errorf("can't check dev wallet: %w", err)
	}
	return dev, nil
}

// Close releases the node connection if the client owns it.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// Submit sends calls in a single transaction and waits for it to be
// accepted. Any failure is returned as *TransactionError, the result is
// returned for reverted transactions as well.
func (c *Client) Submit(ctx context.Context, calls ...Call) (*Result, error) {
	if len(calls) == 0 {
		return nil, errors.New("no calls to submit")
	}
	var (
		h   util.Uint256
		vub uint32
		err error
	)
	if len(calls) == 1 {
		h, vub, err = c.act.SendTunedCall(c.cfg.Contract, calls[0].Method, nil, c.txHook, calls[0].Params...)
	} else {
		var script []byte
		script, err = c.script(calls)
		if err != nil {
			return nil, &TransactionError{Reason: ReasonSubmission, Err: err}
		}
		h, vub, err = c.act.SendTunedRun(script, nil, c.txHook)
	}
	if err != nil {
		return nil, sendError(h, err)
	}
	c.log.Info("transaction sent",
		zap.Stringer("hash", h),
		zap.Uint32("vub", vub),
		zap.Strings("methods", methods(calls)))

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ConfirmTimeout)
	defer cancel()
	aer, err := c.act.WaitAny(waitCtx, vub, h)
	if err != nil {
		return nil, &TransactionError{Reason: ReasonNotConfirmed, TxHash: h, Err: err}
	}

	res := &Result{
		TxHash:  h,
		GasUsed: aer.GasConsumed,
		Success: aer.VMState == vmstate.Halt,
	}
	if c.heights != nil {
		height, err := c.heights.GetTransactionHeight(h)
		if err != nil {
			c.log.Warn("can't get transaction height", zap.Stringer("hash", h), zap.Error(err))
		} else {
			res.BlockNumber = height
		}
	}
	if !res.Success {
		return res, &TransactionError{
			Reason: ReasonReverted,
			TxHash: h,
			Err:    fmt.Errorf("%w: %s", ErrReverted, aer.FaultException),
		}
	}
	c.log.Info("transaction accepted",
		zap.Stringer("hash", h),
		zap.Uint32("block", res.BlockNumber),
		zap.Stringer("gas", fixedn.Fixed8(res.GasUsed)))
	return res, nil
}

func (c *Client) script(calls []Call) ([]byte, error) {
	b := smartcontract.NewBuilder()
	for _, call := range calls {
		b.InvokeMethod(c.cfg.Contract, call.Method, call.Params...)
	}
	return b.Script()
}

// txHook checks test invocation result and applies configured fee settings.
func (c *Client) txHook(r *result.Invoke, t *transaction.Transaction) error {
	if r.State != vmstate.Halt.String() {
		return fmt.Errorf("%w: %s", ErrRejected, r.FaultException)
	}
	if c.cfg.MaxSystemFee > 0 && r.GasConsumed > c.cfg.MaxSystemFee {
		return fmt.Errorf("%w: %s GAS needed, %s allowed", ErrGasLimit,
			fixedn.Fixed8(r.GasConsumed), fixedn.Fixed8(c.cfg.MaxSystemFee))
	}
	t.SystemFee += c.cfg.ExtraSystemFee
	t.NetworkFee += c.cfg.ExtraNetworkFee
	if c.cfg.ValidUntilBlockIncrement > 0 {
		count, err := c.act.GetBlockCount()
		if err != nil {
			return fmt.Errorf("can't get block count: %w", err)
		}
		t.ValidUntilBlock = count + c.cfg.ValidUntilBlockIncrement
	}
	return nil
}

func methods(calls []Call) []string {
	res := make([]string, len(calls))
	for i := range calls {
		res[i] = calls[i].Method
	}
	return res
}
