package advisor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lyradb/lyradb/index"
)

func TestSelectivityEqualityDecreasesWithCardinality(t *testing.T) {
	a := New()
	require.Equal(t, 0.01, a.Selectivity("c", OpEq, 100))
	require.InDelta(t, 1.0/100000, a.Selectivity("c", OpEq, 100000), 1e-12)
}

func TestSelectivityNeqIsComplementOfEq(t *testing.T) {
	a := New()
	require.InDelta(t, 0.99, a.Selectivity("c", OpNeq, 100), 1e-9)
}

func TestSelectivityRangeDefaultsWithoutObservation(t *testing.T) {
	a := New()
	require.Equal(t, 0.25, a.Selectivity("c", OpLt, 1000))
}

func TestObserveEWMARefinesRangeSelectivity(t *testing.T) {
	a := New()
	a.Observe("c", OpLt, 0.1)
	first := a.Selectivity("c", OpLt, 1000)
	require.InDelta(t, 0.1, first, 1e-9)

	a.Observe("c", OpLt, 0.5)
	second := a.Selectivity("c", OpLt, 1000)
	require.Greater(t, second, first)
	require.Less(t, second, 0.5)
}

func TestRecommendPicksIndexForHighCardinalityEquality(t *testing.T) {
	a := New()
	ix := &index.Info{Name: "ix_c", Columns: []string{"c"}, Kind: index.KindHash}

	pred := Predicate{Column: "c", Op: OpEq, Cardinality: 100000}
	est := a.Recommend(pred, 100000, []*index.Info{ix})

	require.Equal(t, StrategyIndexPoint, est.Strategy)
	require.Equal(t, []string{"ix_c"}, est.IndexesUsed)
	require.Greater(t, est.EstimatedSpeedup, 1.0)
}

func TestRecommendFallsBackToFullScanForLowSelectivityNeq(t *testing.T) {
	a := New()
	ix := &index.Info{Name: "ix_c", Columns: []string{"c"}, Kind: index.KindBTree}

	// a `!=` predicate's selectivity (1 - 1/cardinality) on a high-cardinality
	// column is near 1, well past the 0.5 guard, so it must fall back to a
	// full scan instead of the index.
	pred := Predicate{Column: "c", Op: OpNeq, Cardinality: 100000}
	est := a.Recommend(pred, 100000, []*index.Info{ix})

	require.Equal(t, StrategyFullScan, est.Strategy)
	require.Empty(t, est.IndexesUsed)
}

func TestRecommendRangePredicateOnlyUsesBTree(t *testing.T) {
	a := New()
	hashIx := &index.Info{Name: "ix_hash", Columns: []string{"c"}, Kind: index.KindHash}

	pred := Predicate{Column: "c", Op: OpLt, Cardinality: 100000}
	est := a.Recommend(pred, 100000, []*index.Info{hashIx})

	require.Equal(t, StrategyFullScan, est.Strategy, "a hash index cannot accelerate a range predicate")
}

func TestRecommendNoCandidatesIsFullScan(t *testing.T) {
	a := New()
	pred := Predicate{Column: "c", Op: OpEq, Cardinality: 100000}
	est := a.Recommend(pred, 100000, nil)

	require.Equal(t, StrategyFullScan, est.Strategy)
}

func TestRecommendCompositeMultipliesSelectivities(t *testing.T) {
	a := New()
	ix := &index.Info{Name: "ix_comp", Columns: []string{"a", "b"}, Kind: index.KindCompositeHash}

	preds := []Predicate{
		{Column: "a", Op: OpEq, Cardinality: 100},
		{Column: "b", Op: OpEq, Cardinality: 100},
	}
	est := a.RecommendComposite(preds, 100000, ix)

	require.Equal(t, StrategyComposite, est.Strategy)
	require.Equal(t, []string{"ix_comp"}, est.IndexesUsed)
}

func TestRecommendIntersectionAddsOverheadPerExtraPredicate(t *testing.T) {
	a := New()
	preds := []Predicate{
		{Column: "a", Op: OpEq, Cardinality: 100000},
		{Column: "b", Op: OpEq, Cardinality: 100000},
	}
	est := a.RecommendIntersection(preds, 1000000, []string{"ix_a", "ix_b"})

	require.Equal(t, StrategyIntersection, est.Strategy)
	require.Equal(t, []string{"ix_a", "ix_b"}, est.IndexesUsed)
}

func TestRecommendIntersectionEmptyPredicatesIsFullScan(t *testing.T) {
	a := New()
	est := a.RecommendIntersection(nil, 1000, nil)
	require.Equal(t, StrategyFullScan, est.Strategy)
}

func TestConfidenceClampedToUnitRange(t *testing.T) {
	require.Equal(t, 0.0, confidence(0, 10))
	require.Equal(t, 1.0, confidence(100, -10))
	require.InDelta(t, 0.5, confidence(100, 50), 1e-9)
}

func TestSpeedupFallsBackToScanCostWhenBestIsZero(t *testing.T) {
	require.Equal(t, 100.0, speedup(100, 0))
}
