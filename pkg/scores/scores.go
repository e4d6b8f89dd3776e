/*
Package scores fetches BlackSwan and MarketPeak scores from the analytics API.

Every response is checked against a JSON schema before use, scores are
truncated to integers and a circuit breaker stops hammering an upstream that
keeps failing.
*/
package scores

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

// Snapshot is a pair of scores fetched in one cycle.
type Snapshot struct {
	BlackSwan  int64 `json:"blackSwan"`
	MarketPeak int64 `json:"marketPeak"`
}

// Analysis is a single analysis object returned by the upstream API. Score
// is already validated and truncated, Fields holds everything else the API
// reported (confidence, reasoning, indicators and so on).
type Analysis struct {
	Score  int64
	Fields map[string]any
}

// Analyses is a pair of analyses fetched in one cycle.
type Analyses struct {
	BlackSwan  Analysis
	MarketPeak Analysis
}

// Snapshot returns the scores of the analyses.
func (a Analyses) Snapshot() Snapshot {
	return Snapshot{
		BlackSwan:  a.BlackSwan.Score,
		MarketPeak: a.MarketPeak.Score,
	}
}

// ErrInvalidScore is returned for score values that can't be represented as
// non-negative int64.
var ErrInvalidScore = errors.New("invalid score")

// toScore converts a schema-validated JSON number to an integer score
// truncating the fractional part toward zero.
func toScore(v any) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: %v is not a number", ErrInvalidScore, v)
	}
	f, ok := new(big.Float).SetString(n.String())
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidScore, n)
	}
	i, _ := f.Int(nil)
	if i.Sign() < 0 || !i.IsInt64() {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidScore, n)
	}
	return i.Int64(), nil
}
