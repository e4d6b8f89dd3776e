package updater

import (
	"github.com/blackswanwtf/blackswan-oracle/pkg/oracle"
	"github.com/blackswanwtf/blackswan-oracle/pkg/scores"
)

// Mode is an update mode selected from the set of changed scores.
type Mode byte

// Update modes.
const (
	ModeCombined Mode = iota
	ModeBlackSwanOnly
	ModeMarketPeakOnly
)

// String implements the fmt.Stringer interface.
func (m Mode) String() string {
	switch m {
	case ModeCombined:
		return "combined"
	case ModeBlackSwanOnly:
		return "blackswan"
	case ModeMarketPeakOnly:
		return "marketpeak"
	default:
		return "unknown"
	}
}

// MarshalText implements the encoding.TextMarshaler interface.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// selectMode compares fetched scores with the cache. Uninitialized cache
// always gives combined update. The second value is false if nothing has
// changed.
func selectMode(cache Cache, snap scores.Snapshot) (Mode, bool) {
	if !cache.Initialized {
		return ModeCombined, true
	}
	bs := snap.BlackSwan != cache.BlackSwan
	mp := snap.MarketPeak != cache.MarketPeak
	switch {
	case bs && mp:
		return ModeCombined, true
	case bs:
		return ModeBlackSwanOnly, true
	case mp:
		return ModeMarketPeakOnly, true
	default:
		return 0, false
	}
}

// refs are analysis references published in the current cycle.
type refs struct {
	BlackSwan  string
	MarketPeak string
}

// plan returns contract calls for the mode. With published references
// both of them are written along with the changed scores.
func plan(mode Mode, snap scores.Snapshot, r *refs) []oracle.Call {
	if r == nil {
		switch mode {
		case ModeBlackSwanOnly:
			return []oracle.Call{oracle.UpdateBlackSwanScore(snap.BlackSwan)}
		case ModeMarketPeakOnly:
			return []oracle.Call{oracle.UpdateMarketPeakScore(snap.MarketPeak)}
		default:
			return []oracle.Call{oracle.UpdateBothScores(snap.BlackSwan, snap.MarketPeak)}
		}
	}
	switch mode {
	case ModeBlackSwanOnly:
		return []oracle.Call{
			oracle.UpdateBlackSwanScore(snap.BlackSwan),
			oracle.UpdateBlackSwanAnalysis(r.BlackSwan),
			oracle.UpdateMarketPeakAnalysis(r.MarketPeak),
		}
	case ModeMarketPeakOnly:
		return []oracle.Call{
			oracle.UpdateMarketPeakScore(snap.MarketPeak),
			oracle.UpdateBlackSwanAnalysis(r.BlackSwan),
			oracle.UpdateMarketPeakAnalysis(r.MarketPeak),
		}
	default:
		return []oracle.Call{oracle.UpdateScoresAndAnalysis(snap.BlackSwan, snap.MarketPeak, r.BlackSwan, r.MarketPeak)}
	}
}

// apply returns the cache after a confirmed update in the given mode.
func apply(cache Cache, mode Mode, snap scores.Snapshot, r *refs) Cache {
	switch mode {
	case ModeBlackSwanOnly:
		cache.BlackSwan = snap.BlackSwan
	case ModeMarketPeakOnly:
		cache.MarketPeak = snap.MarketPeak
	default:
		cache.BlackSwan = snap.BlackSwan
		cache.MarketPeak = snap.MarketPeak
	}
	if r != nil {
		cache.BlackSwanRef = r.BlackSwan
		cache.MarketPeakRef = r.MarketPeak
	}
	cache.Initialized = true
	return cache
}
