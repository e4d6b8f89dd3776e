package oracle

// Oracle contract write methods.
const (
	MethodUpdateBlackSwanScore     = "updateBlackSwanScore"
	MethodUpdateMarketPeakScore    = "updateMarketPeakScore"
	MethodUpdateBothScores         = "updateBothScores"
	MethodUpdateBlackSwanAnalysis  = "updateBlackSwanAnalysis"
	MethodUpdateMarketPeakAnalysis = "updateMarketPeakAnalysis"
	MethodUpdateScoresAndAnalysis  = "updateScoresAndAnalysis"
)

// Call is a single invocation of the oracle contract.
type Call struct {
	Method string
	Params []any
}

// UpdateBlackSwanScore returns a call setting the BlackSwan score.
func UpdateBlackSwanScore(score int64) Call {
	return Call{Method: MethodUpdateBlackSwanScore, Params: []any{score}}
}

// UpdateMarketPeakScore returns a call setting the MarketPeak score.
func UpdateMarketPeakScore(score int64) Call {
	return Call{Method: MethodUpdateMarketPeakScore, Params: []any{score}}
}

// UpdateBothScores returns a call setting both scores.
func UpdateBothScores(blackSwan, marketPeak int64) Call {
	return Call{Method: MethodUpdateBothScores, Params: []any{blackSwan, marketPeak}}
}

// UpdateBlackSwanAnalysis returns a call setting the BlackSwan analysis
// reference.
func UpdateBlackSwanAnalysis(ref string) Call {
	return Call{Method: MethodUpdateBlackSwanAnalysis, Params: []any{ref}}
}

// UpdateMarketPeakAnalysis returns a call setting the MarketPeak analysis
// reference.
func UpdateMarketPeakAnalysis(ref string) Call {
	return Call{Method: MethodUpdateMarketPeakAnalysis, Params: []any{ref}}
}

// UpdateScoresAndAnalysis returns a call setting both scores and both
// analysis references.
func UpdateScoresAndAnalysis(blackSwan, marketPeak int64, blackSwanRef, marketPeakRef string) Call {
	return Call{
		Method: MethodUpdateScoresAndAnalysis,
		Params: []any{blackSwan, marketPeak, blackSwanRef, marketPeakRef},
	}
}
