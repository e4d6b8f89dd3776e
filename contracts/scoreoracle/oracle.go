/*
Package scoreoracle contains the BlackSwan score oracle contract.

The contract keeps the latest BlackSwan and MarketPeak scores together with
references to the published analysis documents. Writes are accepted from the
owner and from dev wallets registered by the owner, reads are open. The owner
can pause all writes.

Dev wallets are stored as a membership map plus an enumerable list. Removal
moves the last list element into the freed slot, so the order returned by
getDevWallets is not stable across removals.
*/
package scoreoracle

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// Storage keys and prefixes.
const (
	ownerKey              = "o"
	pausedKey             = "p"
	blackSwanScoreKey     = "bs"
	marketPeakScoreKey    = "mp"
	blackSwanAnalysisKey  = "ba"
	marketPeakAnalysisKey = "ma"
	lastUpdateKey         = "lu"
	devCountKey           = "dc"

	// devMemberPrefix + wallet -> list index.
	devMemberPrefix = 'm'
	// devListPrefix + index -> wallet.
	devListPrefix = "l"
)

func _deploy(data any, isUpdate bool) {
	if isUpdate {
		return
	}
	var owner interop.Hash160
	if data != nil {
		owner = data.(interop.Hash160)
	} else {
		owner = runtime.GetScriptContainer().Sender
	}
	if len(owner) != interop.Hash160Len {
		panic("invalid owner")
	}
	storage.Put(storage.GetContext(), ownerKey, owner)
}

// Owner returns the contract owner.
func Owner() interop.Hash160 {
	return storage.Get(storage.GetReadOnlyContext(), ownerKey).(interop.Hash160)
}

// IsPaused reports whether writes are disabled.
func IsPaused() bool {
	v := storage.Get(storage.GetReadOnlyContext(), pausedKey)
	return v != nil
}

// GetBlackSwanScore returns the latest BlackSwan score.
func GetBlackSwanScore() int {
	return getInt(storage.GetReadOnlyContext(), blackSwanScoreKey)
}

// GetMarketPeakScore returns the latest MarketPeak score.
func GetMarketPeakScore() int {
	return getInt(storage.GetReadOnlyContext(), marketPeakScoreKey)
}

// GetBlackSwanAnalysis returns the reference of the latest BlackSwan analysis.
func GetBlackSwanAnalysis() string {
	return getString(storage.GetReadOnlyContext(), blackSwanAnalysisKey)
}

// GetMarketPeakAnalysis returns the reference of the latest MarketPeak analysis.
func GetMarketPeakAnalysis() string {
	return getString(storage.GetReadOnlyContext(), marketPeakAnalysisKey)
}

// GetLastUpdate returns the time (in milliseconds) of the latest write.
func GetLastUpdate() int {
	return getInt(storage.GetReadOnlyContext(), lastUpdateKey)
}

// UpdateBlackSwanScore sets the BlackSwan score.
func UpdateBlackSwanScore(score int) {
	ctx, caller := checkWriter()
	setScore(ctx, blackSwanScoreKey, "BlackSwanScoreUpdated", score, caller)
	touch(ctx)
}

// UpdateMarketPeakScore sets the MarketPeak score.
func UpdateMarketPeakScore(score int) {
	ctx, caller := checkWriter()
	setScore(ctx, marketPeakScoreKey, "MarketPeakScoreUpdated", score, caller)
	touch(ctx)
}

// UpdateBothScores sets both scores.
func UpdateBothScores(blackSwan, marketPeak int) {
	ctx, caller := checkWriter()
	setScore(ctx, blackSwanScoreKey, "BlackSwanScoreUpdated", blackSwan, caller)
	setScore(ctx, marketPeakScoreKey, "MarketPeakScoreUpdated", marketPeak, caller)
	touch(ctx)
}

// UpdateBlackSwanAnalysis sets the BlackSwan analysis reference.
func UpdateBlackSwanAnalysis(ref string) {
	ctx, caller := checkWriter()
	setRef(ctx, blackSwanAnalysisKey, "BlackSwanAnalysisUpdated", ref, caller)
	touch(ctx)
}

// UpdateMarketPeakAnalysis sets the MarketPeak analysis reference.
func UpdateMarketPeakAnalysis(ref string) {
	ctx, caller := checkWriter()
	setRef(ctx, marketPeakAnalysisKey, "MarketPeakAnalysisUpdated", ref, caller)
	touch(ctx)
}

// UpdateScoresAndAnalysis sets both scores and both analysis references.
func UpdateScoresAndAnalysis(blackSwan, marketPeak int, blackSwanRef, marketPeakRef string) {
	ctx, caller := checkWriter()
	setScore(ctx, blackSwanScoreKey, "BlackSwanScoreUpdated", blackSwan, caller)
	setScore(ctx, marketPeakScoreKey, "MarketPeakScoreUpdated", marketPeak, caller)
	setRef(ctx, blackSwanAnalysisKey, "BlackSwanAnalysisUpdated", blackSwanRef, caller)
	setRef(ctx, marketPeakAnalysisKey, "MarketPeakAnalysisUpdated", marketPeakRef, caller)
	touch(ctx)
}

// IsDevWallet reports whether the account can write scores.
func IsDevWallet(wallet interop.Hash160) bool {
	return storage.Get(storage.GetReadOnlyContext(), devMemberKey(wallet)) != nil
}

// GetDevWallets returns all dev wallets.
func GetDevWallets() []interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	n := getInt(ctx, devCountKey)
	res := make([]interop.Hash160, n)
	for i := 0; i < n; i++ {
		res[i] = storage.Get(ctx, devListKey(i)).(interop.Hash160)
	}
	return res
}

// AddDevWallet allows the account to write scores.
func AddDevWallet(wallet interop.Hash160) {
	ctx, caller := checkOwner()
	if len(wallet) != interop.Hash160Len {
		panic("invalid wallet")
	}
	if storage.Get(ctx, devMemberKey(wallet)) != nil {
		panic("already a dev wallet")
	}
	n := getInt(ctx, devCountKey)
	storage.Put(ctx, devListKey(n), wallet)
	storage.Put(ctx, devMemberKey(wallet), n)
	storage.Put(ctx, devCountKey, n+1)
	runtime.Notify("DevWalletAdded", wallet, caller)
}

// RemoveDevWallet revokes write access from the account.
func RemoveDevWallet(wallet interop.Hash160) {
	ctx, caller := checkOwner()
	v := storage.Get(ctx, devMemberKey(wallet))
	if v == nil {
		panic("not a dev wallet")
	}
	idx := v.(int)
	last := getInt(ctx, devCountKey) - 1
	if idx != last {
		moved := storage.Get(ctx, devListKey(last)).(interop.Hash160)
		storage.Put(ctx, devListKey(idx), moved)
		storage.Put(ctx, devMemberKey(moved), idx)
	}
	storage.Delete(ctx, devListKey(last))
	storage.Delete(ctx, devMemberKey(wallet))
	storage.Put(ctx, devCountKey, last)
	runtime.Notify("DevWalletRemoved", wallet, caller)
}

// SetPaused enables or disables writes.
func SetPaused(paused bool) {
	ctx, caller := checkOwner()
	if paused {
		storage.Put(ctx, pausedKey, true)
	} else {
		storage.Delete(ctx, pausedKey)
	}
	runtime.Notify("PauseChanged", paused, caller)
}

// TransferOwnership sets the new owner, it must witness the transaction too.
func TransferOwnership(newOwner interop.Hash160) {
	ctx, caller := checkOwner()
	if len(newOwner) != interop.Hash160Len {
		panic("invalid owner")
	}
	if !runtime.CheckWitness(newOwner) {
		panic("new owner must sign the transaction")
	}
	storage.Put(ctx, ownerKey, newOwner)
	runtime.Notify("OwnershipTransferred", caller, newOwner)
}

// Update updates the contract, only the owner can do it.
func Update(nef []byte, manifest string, data any) {
	checkOwner()
	management.UpdateWithData(nef, []byte(manifest), data)
}

// checkWriter panics unless the transaction sender is the owner or a dev
// wallet and writes are enabled.
func checkWriter() (storage.Context, interop.Hash160) {
	ctx := storage.GetContext()
	if storage.Get(ctx, pausedKey) != nil {
		panic("contract is paused")
	}
	sender := runtime.GetScriptContainer().Sender
	if !runtime.CheckWitness(sender) {
		panic("not authorized")
	}
	owner := storage.Get(ctx, ownerKey).(interop.Hash160)
	if !sender.Equals(owner) && storage.Get(ctx, devMemberKey(sender)) == nil {
		panic("not authorized")
	}
	return ctx, sender
}

func checkOwner() (storage.Context, interop.Hash160) {
	ctx := storage.GetContext()
	owner := storage.Get(ctx, ownerKey).(interop.Hash160)
	if !runtime.CheckWitness(owner) {
		panic("not the owner")
	}
	return ctx, owner
}

func setScore(ctx storage.Context, key string, event string, score int, caller interop.Hash160) {
	if score < 0 {
		panic("score must be non-negative")
	}
	storage.Put(ctx, key, score)
	runtime.Notify(event, score, caller)
}

func setRef(ctx storage.Context, key string, event string, ref string, caller interop.Hash160) {
	if len(ref) == 0 {
		panic("empty analysis reference")
	}
	storage.Put(ctx, key, ref)
	runtime.Notify(event, ref, caller)
}

func touch(ctx storage.Context) {
	storage.Put(ctx, lastUpdateKey, runtime.GetTime())
}

func getInt(ctx storage.Context, key string) int {
	v := storage.Get(ctx, key)
	if v == nil {
		return 0
	}
	return v.(int)
}

func getString(ctx storage.Context, key string) string {
	v := storage.Get(ctx, key)
	if v == nil {
		return ""
	}
	return v.(string)
}

func devMemberKey(wallet interop.Hash160) []byte {
	return append([]byte{devMemberPrefix}, wallet...)
}

func devListKey(i int) string {
	return devListPrefix + std.Itoa10(i)
}
