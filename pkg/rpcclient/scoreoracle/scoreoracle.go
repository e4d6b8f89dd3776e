/*
Package scoreoracle provides RPC wrappers for the BlackSwan score oracle
contract.

ContractReader covers safe methods available to anyone, Contract adds owner
operations managing dev wallets, pause flag and ownership. Score updates are
sent by the oracle service itself, see the oracle package.
*/
package scoreoracle

import (
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Contract provides full oracle contract interface, both safe and
// state-changing methods.
type Contract struct {
	ContractReader

	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract
// hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the
// given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// Hash returns the contract hash.
func (c *ContractReader) Hash() util.Uint160 {
	return c.hash
}

// BlackSwanScore invokes `getBlackSwanScore` method of contract.
func (c *ContractReader) BlackSwanScore() (int64, error) {
	return unwrap.Int64(c.invoker.Call(c.hash, "getBlackSwanScore"))
}

// MarketPeakScore invokes `getMarketPeakScore` method of contract.
func (c *ContractReader) MarketPeakScore() (int64, error) {
	return unwrap.Int64(c.invoker.Call(c.hash, "getMarketPeakScore"))
}

// BlackSwanAnalysis invokes `getBlackSwanAnalysis` method of contract.
func (c *ContractReader) BlackSwanAnalysis() (string, error) {
	return unwrap.UTF8String(c.invoker.Call(c.hash, "getBlackSwanAnalysis"))
}

// MarketPeakAnalysis invokes `getMarketPeakAnalysis` method of contract.
func (c *ContractReader) MarketPeakAnalysis() (string, error) {
	return unwrap.UTF8String(c.invoker.Call(c.hash, "getMarketPeakAnalysis"))
}

// LastUpdate invokes `getLastUpdate` method of contract, the result is
// a timestamp in milliseconds.
func (c *ContractReader) LastUpdate() (int64, error) {
	return unwrap.Int64(c.invoker.Call(c.hash, "getLastUpdate"))
}

// Owner invokes `owner` method of contract.
func (c *ContractReader) Owner() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "owner"))
}

// IsPaused invokes `isPaused` method of contract.
func (c *ContractReader) IsPaused() (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "isPaused"))
}

// IsDevWallet invokes `isDevWallet` method of contract.
func (c *ContractReader) IsDevWallet(wallet util.Uint160) (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "isDevWallet", wallet))
}

// DevWallets invokes `getDevWallets` method of contract. The order of
// wallets changes when some of them are removed.
func (c *ContractReader) DevWallets() ([]util.Uint160, error) {
	return unwrap.ArrayOfUint160(c.invoker.Call(c.hash, "getDevWallets"))
}

// AddDevWallet creates a transaction invoking `addDevWallet` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) AddDevWallet(wallet util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "addDevWallet", wallet)
}

// AddDevWalletTransaction creates a transaction invoking `addDevWallet` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) AddDevWalletTransaction(wallet util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "addDevWallet", wallet)
}

// AddDevWalletUnsigned creates a transaction invoking `addDevWallet` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
func (c *Contract) AddDevWalletUnsigned(wallet util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "addDevWallet", nil, wallet)
}

// RemoveDevWallet creates a transaction invoking `removeDevWallet` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) RemoveDevWallet(wallet util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "removeDevWallet", wallet)
}

// RemoveDevWalletTransaction creates a transaction invoking `removeDevWallet` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) RemoveDevWalletTransaction(wallet util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "removeDevWallet", wallet)
}

// RemoveDevWalletUnsigned creates a transaction invoking `removeDevWallet` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
func (c *Contract) RemoveDevWalletUnsigned(wallet util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "removeDevWallet", nil, wallet)
}

// SetPaused creates a transaction invoking `setPaused` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) SetPaused(paused bool) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "setPaused", paused)
}

// SetPausedTransaction creates a transaction invoking `setPaused` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) SetPausedTransaction(paused bool) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "setPaused", paused)
}

// SetPausedUnsigned creates a transaction invoking `setPaused` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
func (c *Contract) SetPausedUnsigned(paused bool) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "setPaused", nil, paused)
}

// TransferOwnership creates a transaction invoking `transferOwnership` method
// of the contract. Both the current and the new owner must sign it, so it
// can only be sent directly by an actor having both signers.
func (c *Contract) TransferOwnership(newOwner util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "transferOwnership", newOwner)
}

// TransferOwnershipUnsigned creates a transaction invoking `transferOwnership`
// method of the contract. This transaction is not signed, it's simply returned
// to the caller to be signed by both owners.
func (c *Contract) TransferOwnershipUnsigned(newOwner util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "transferOwnership", nil, newOwner)
}
