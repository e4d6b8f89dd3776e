package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	testContract = util.Uint160{1, 2, 3}
	testSender   = util.Uint160{4, 5, 6}
)

// testAct emulates actor behaviour: test invocation result is passed to
// the hook along with a prepared transaction.
type testAct struct {
	invoke  *result.Invoke
	sendErr error
	waitErr error
	aer     *state.AppExecResult
	txh     util.Uint256
	vub     uint32
	count   uint32
	tx      *transaction.Transaction
	height  uint32

	method string
	params []any
	script []byte

	callRes *result.Invoke
	calls   []string
}

func (a *testAct) send(txHook actor.TransactionCheckerModifier) (util.Uint256, uint32, error) {
	a.tx = &transaction.Transaction{SystemFee: a.invoke.GasConsumed, NetworkFee: 100, ValidUntilBlock: 5000}
	if err := txHook(a.invoke, a.tx); err != nil {
		return util.Uint256{}, 0, err
	}
	return a.txh, a.vub, a.sendErr
}

func (a *testAct) SendTunedCall(contract util.Uint160, method string, attrs []transaction.Attribute, txHook actor.TransactionCheckerModifier, params ...any) (util.Uint256, uint32, error) {
	a.method, a.params = method, params
	return a.send(txHook)
}

func (a *testAct) SendTunedRun(script []byte, attrs []transaction.Attribute, txHook actor.TransactionCheckerModifier) (util.Uint256, uint32, error) {
	a.script = script
	return a.send(txHook)
}

func (a *testAct) WaitAny(ctx context.Context, vub uint32, hashes ...util.Uint256) (*state.AppExecResult, error) {
	if a.waitErr != nil {
		return nil, a.waitErr
	}
	return a.aer, nil
}

func (a *testAct) GetBlockCount() (uint32, error) { return a.count, nil }
func (a *testAct) Sender() util.Uint160           { return testSender }

func (a *testAct) GetTransactionHeight(util.Uint256) (uint32, error) {
	return a.height, nil
}

func (a *testAct) Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error) {
	a.calls = append(a.calls, operation)
	if operation == "owner" {
		return &result.Invoke{State: "HALT", Stack: []stackitem.Item{stackitem.Make(util.Uint160{9}.BytesBE())}}, nil
	}
	return a.callRes, nil
}

func newTestAct() *testAct {
	return &testAct{
		invoke: &result.Invoke{State: vmstate.Halt.String(), GasConsumed: 1000},
		txh:    util.Uint256{7, 7, 7},
		vub:    100,
		height: 42,
		aer: &state.AppExecResult{
			Container: util.Uint256{7, 7, 7},
			Execution: state.Execution{VMState: vmstate.Halt, GasConsumed: 1000},
		},
	}
}

func newTestClient(t *testing.T, act *testAct, mod func(*Config)) *Client {
	cfg := Config{
		Log:            zaptest.NewLogger(t),
		Contract:       testContract,
		ConfirmTimeout: time.Second,
	}
	if mod != nil {
		mod(&cfg)
	}
	return New(cfg, act)
}

func TestSubmitSingle(t *testing.T) {
	act := newTestAct()
	c := newTestClient(t, act, nil)

	res, err := c.Submit(context.Background(), UpdateBlackSwanScore(40))
	require.NoError(t, err)
	require.Equal(t, &Result{TxHash: act.txh, BlockNumber: 42, GasUsed: 1000, Success: true}, res)
	require.Equal(t, MethodUpdateBlackSwanScore, act.method)
	require.Equal(t, []any{int64(40)}, act.params)
	require.Nil(t, act.script)
}

func TestSubmitBatch(t *testing.T) {
	act := newTestAct()
	c := newTestClient(t, act, nil)

	calls := []Call{
		UpdateBlackSwanScore(40),
		UpdateBlackSwanAnalysis("neofs:a/b"),
		UpdateMarketPeakAnalysis("neofs:a/c"),
	}
	_, err := c.Submit(context.Background(), calls...)
	require.NoError(t, err)
	require.Empty(t, act.method)

	b := smartcontract.NewBuilder()
	for _, call := range calls {
		b.InvokeMethod(testContract, call.Method, call.Params...)
	}
	expected, err := b.Script()
	require.NoError(t, err)
	require.Equal(t, expected, act.script)
}

func TestSubmitNoCalls(t *testing.T) {
	c := newTestClient(t, newTestAct(), nil)
	_, err := c.Submit(context.Background())
	require.Error(t, err)
}

func TestSubmitFees(t *testing.T) {
	act := newTestAct()
	act.count = 1000
	c := newTestClient(t, act, func(cfg *Config) {
		cfg.MaxSystemFee = 2000
		cfg.ExtraSystemFee = 10
		cfg.ExtraNetworkFee = 20
		cfg.ValidUntilBlockIncrement = 50
	})

	_, err := c.Submit(context.Background(), UpdateBothScores(1, 2))
	require.NoError(t, err)
	require.Equal(t, int64(1010), act.tx.SystemFee)
	require.Equal(t, int64(120), act.tx.NetworkFee)
	require.Equal(t, uint32(1050), act.tx.ValidUntilBlock)

	t.Run("defaults", func(t *testing.T) {
		act := newTestAct()
		c := newTestClient(t, act, nil)
		_, err := c.Submit(context.Background(), UpdateBothScores(1, 2))
		require.NoError(t, err)
		require.Equal(t, int64(1000), act.tx.SystemFee)
		require.Equal(t, int64(100), act.tx.NetworkFee)
		require.Equal(t, uint32(5000), act.tx.ValidUntilBlock)
	})
}

func requireReason(t *testing.T, err error, reason Reason) *TransactionError {
	var txErr *TransactionError
	require.True(t, errors.As(err, &txErr), "unexpected error: %v", err)
	require.Equal(t, reason, txErr.Reason)
	return txErr
}

func TestSubmitErrors(t *testing.T) {
	t.Run("gas limit", func(t *testing.T) {
		act := newTestAct()
		c := newTestClient(t, act, func(cfg *Config) { cfg.MaxSystemFee = 999 })
		_, err := c.Submit(context.Background(), UpdateBlackSwanScore(1))
		requireReason(t, err, ReasonGasLimit)
		require.ErrorIs(t, err, ErrGasLimit)
	})
	t.Run("rejected", func(t *testing.T) {
		act := newTestAct()
		act.invoke = &result.Invoke{State: vmstate.Fault.String(), FaultException: "at instruction 42 (THROW): unhandled exception: \"contract is paused\""}
		c := newTestClient(t, act, nil)
		_, err := c.Submit(context.Background(), UpdateBlackSwanScore(1))
		requireReason(t, err, ReasonRejected)
		require.Contains(t, err.Error(), "contract is paused")
	})
	for name, tc := range map[string]struct {
		err    error
		reason Reason
	}{
		"insufficient funds":       {neorpc.ErrInsufficientFunds, ReasonInsufficientFunds},
		"insufficient network fee": {neorpc.ErrInsufficientNetworkFee, ReasonInsufficientFunds},
		"already exists":           {neorpc.ErrAlreadyExists, ReasonNonceConflict},
		"already in pool":          {neorpc.ErrAlreadyInPool, ReasonNonceConflict},
		"other":                    {errors.New("connection reset"), ReasonSubmission},
	} {
		t.Run(name, func(t *testing.T) {
			act := newTestAct()
			act.sendErr = tc.err
			c := newTestClient(t, act, nil)
			_, err := c.Submit(context.Background(), UpdateBlackSwanScore(1))
			requireReason(t, err, tc.reason)
			require.ErrorIs(t, err, tc.err)
		})
	}
	t.Run("not accepted", func(t *testing.T) {
		act := newTestAct()
		act.waitErr = waiter.ErrTxNotAccepted
		c := newTestClient(t, act, nil)
		_, err := c.Submit(context.Background(), UpdateBlackSwanScore(1))
		txErr := requireReason(t, err, ReasonNotConfirmed)
		require.Equal(t, act.txh, txErr.TxHash)
		require.Contains(t, err.Error(), act.txh.StringLE())
	})
	t.Run("reverted", func(t *testing.T) {
		act := newTestAct()
		act.aer.VMState = vmstate.Fault
		act.aer.FaultException = "not authorized"
		c := newTestClient(t, act, nil)
		res, err := c.Submit(context.Background(), UpdateBlackSwanScore(1))
		requireReason(t, err, ReasonReverted)
		require.ErrorIs(t, err, ErrReverted)
		require.NotNil(t, res)
		require.False(t, res.Success)
		require.Equal(t, uint32(42), res.BlockNumber)
	})
}

func TestAuthorized(t *testing.T) {
	act := newTestAct()
	c := newTestClient(t, act, nil)
	require.Equal(t, testSender, c.Sender())
	require.Equal(t, testContract, c.Contract())
	require.NotNil(t, c.Reader())

	act.callRes = &result.Invoke{State: "HALT", Stack: []stackitem.Item{stackitem.Make(true)}}
	ok, err := c.Authorized()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"owner", "isDevWallet"}, act.calls)

	act.callRes = &result.Invoke{State: "HALT", Stack: []stackitem.Item{stackitem.Make(false)}}
	ok, err = c.Authorized()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCalls(t *testing.T) {
	require.Equal(t, Call{Method: "updateMarketPeakScore", Params: []any{int64(5)}}, UpdateMarketPeakScore(5))
	require.Equal(t, Call{Method: "updateBothScores", Params: []any{int64(1), int64(2)}}, UpdateBothScores(1, 2))
	require.Equal(t, Call{Method: "updateScoresAndAnalysis", Params: []any{int64(1), int64(2), "a", "b"}},
		UpdateScoresAndAnalysis(1, 2, "a", "b"))
}
