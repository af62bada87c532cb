// Package advisor implements the cost-based index advisor described in
// §4.8: given a predicate, table size, and the indexes available on the
// predicate's column(s), it ranks full scan against every applicable
// index-driven strategy and recommends the cheapest, learning per-
// (column, operator) selectivity across calls via an EWMA.
package advisor

import (
	"math"
	"sync"

	"github.com/lyradb/lyradb/index"
)

// Strategy names one of the cost models §4.8 defines.
type Strategy uint8

const (
	StrategyFullScan Strategy = iota
	StrategyIndexPoint
	StrategyBTreeRange
	StrategyComposite
	StrategyIntersection
)

func (s Strategy) String() string {
	switch s {
	case StrategyFullScan:
		return "full_scan"
	case StrategyIndexPoint:
		return "index_point"
	case StrategyBTreeRange:
		return "btree_range"
	case StrategyComposite:
		return "composite_index"
	case StrategyIntersection:
		return "index_intersection"
	default:
		return "unknown"
	}
}

// Operator names a comparison operator considered by the selectivity model.
type Operator uint8

const (
	OpEq Operator = iota
	OpNeq
	OpLt
	OpGt
	OpLte
	OpGte
)

// Predicate describes one column-comparison leaf the advisor is asked to
// plan a strategy for.
type Predicate struct {
	Column      string
	Op          Operator
	Cardinality uint64 // distinct-value estimate for Column
}

// CostEstimate is one candidate strategy's projected cost (§4.8).
type CostEstimate struct {
	Strategy          Strategy
	EstimatedCost      float64
	EstimatedRows      uint64
	EstimatedSpeedup   float64
	IndexesUsed        []string
	Confidence         float64
}

// minSelectivityGuard is the threshold past which a B-tree point/range
// lookup degrades to a full scan instead (§4.8: "If sel > 0.5, fall back
// to full scan").
const minSelectivityGuard = 0.5

const (
	btreeBaseCost          = 150.0
	btreeLogFactor         = 2.0
	compositeLogFactor     = 2.5
	intersectionOverhead   = 200.0
	ewmaAlpha              = 0.3
)

// selKey identifies one learned selectivity observation.
type selKey struct {
	column string
	op     Operator
}

// Advisor models the cost of full scan vs. index-driven strategies and
// learns observed selectivity per (column, operator) across calls (§4.8).
type Advisor struct {
	mu    sync.Mutex
	learn map[selKey]float64
}

// New returns an Advisor with no prior learned selectivities.
func New() *Advisor {
	return &Advisor{learn: make(map[selKey]float64)}
}

// Observe folds an actually-measured selectivity into the EWMA for
// (column, op), used to refine future estimates (§4.8).
func (a *Advisor) Observe(column string, op Operator, observed float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := selKey{column, op}
	if prev, ok := a.learn[key]; ok {
		a.learn[key] = ewmaAlpha*observed + (1-ewmaAlpha)*prev
	} else {
		a.learn[key] = observed
	}
}

// Selectivity estimates the fraction of rows matching (column op value)
// given cardinality (§4.8's "Selectivity estimation"). Range operators are
// refined by any learned EWMA for this (column, op); = and != are
// estimated from cardinality alone.
func (a *Advisor) Selectivity(column string, op Operator, cardinality uint64) float64 {
	a.mu.Lock()
	learned, ok := a.learn[selKey{column, op}]
	a.mu.Unlock()

	switch op {
	case OpEq:
		if cardinality == 0 {
			return 1
		}

		return 1 / float64(cardinality)
	case OpNeq:
		if cardinality == 0 {
			return 1
		}

		return 1 - 1/float64(cardinality)
	case OpLt, OpGt, OpLte, OpGte:
		if ok {
			return learned
		}

		return 0.25
	default:
		return 1
	}
}

func log2Ceil(n uint64) float64 {
	if n <= 1 {
		return 0
	}

	return math.Ceil(math.Log2(float64(n)))
}

// fullScanCost is §4.8's "Cost = 2 x table_size".
func fullScanCost(tableSize uint64) float64 { return 2 * float64(tableSize) }

// btreeCost is §4.8's "150 + 2*ceil(log2(table_size)) + k" where
// k = ceil(sel * table_size), with logFactor substituted for composite
// indexes (2.5 instead of 2).
func btreeCost(tableSize uint64, sel, logFactor float64) (cost float64, rows uint64) {
	k := math.Ceil(sel * float64(tableSize))
	cost = btreeBaseCost + logFactor*log2Ceil(tableSize) + k

	return cost, uint64(k)
}

// Recommend evaluates every strategy applicable to pred against tableSize
// and the indexes available on pred.Column, picking the minimum-cost
// strategy and reporting confidence = (full_scan_cost - best_cost) /
// full_scan_cost, clamped to [0,1] (§4.8). Equality predicates may be
// satisfied by any single-column index kind (B-tree, hash, or bitmap);
// range predicates only by a B-tree, since hash and bitmap have no
// ordered traversal. §4.8 models one point-lookup cost shape regardless
// of the underlying structure (the log-traversal term is the same order
// for a balanced tree and an open-addressed table's probe sequence), so
// every eligible index kind is costed identically and ranked by
// estimated cost like any other candidate.
func (a *Advisor) Recommend(pred Predicate, tableSize uint64, available []*index.Info) CostEstimate {
	scan := CostEstimate{Strategy: StrategyFullScan, EstimatedCost: fullScanCost(tableSize), EstimatedRows: tableSize}

	best := scan
	sel := a.Selectivity(pred.Column, pred.Op, pred.Cardinality)

	isRange := pred.Op == OpLt || pred.Op == OpGt || pred.Op == OpLte || pred.Op == OpGte

	for _, ix := range available {
		if len(ix.Columns) == 0 || ix.Columns[0] != pred.Column {
			continue
		}
		if isRange && ix.Kind != index.KindBTree {
			continue // only a B-tree supports an ordered range scan
		}
		if !isRange && ix.Kind != index.KindBTree && ix.Kind != index.KindHash && ix.Kind != index.KindBitmap {
			continue
		}

		if sel > minSelectivityGuard {
			continue // selectivity guard: fall back to full scan (§4.8, §8 scenario 5)
		}

		cost, rows := btreeCost(tableSize, sel, btreeLogFactor)
		strat := StrategyIndexPoint
		if isRange {
			strat = StrategyBTreeRange
		}

		cand := CostEstimate{Strategy: strat, EstimatedCost: cost, EstimatedRows: rows, IndexesUsed: []string{ix.Name}}
		if cand.EstimatedCost < best.EstimatedCost {
			best = cand
		}
	}

	best.EstimatedSpeedup = speedup(scan.EstimatedCost, best.EstimatedCost)
	best.Confidence = confidence(scan.EstimatedCost, best.EstimatedCost)

	return best
}

// RecommendComposite evaluates the composite-index cost model: selectivity
// is the product of per-predicate selectivities, using the wider 2.5 log
// factor (§4.8's "Composite index").
func (a *Advisor) RecommendComposite(preds []Predicate, tableSize uint64, ix *index.Info) CostEstimate {
	scan := CostEstimate{Strategy: StrategyFullScan, EstimatedCost: fullScanCost(tableSize), EstimatedRows: tableSize}

	sel := 1.0
	for _, p := range preds {
		sel *= a.Selectivity(p.Column, p.Op, p.Cardinality)
	}

	cost, rows := btreeCost(tableSize, sel, compositeLogFactor)
	cand := CostEstimate{Strategy: StrategyComposite, EstimatedCost: cost, EstimatedRows: rows}
	if ix != nil {
		cand.IndexesUsed = []string{ix.Name}
	}

	if cand.EstimatedCost >= scan.EstimatedCost {
		cand = scan
	}

	cand.EstimatedSpeedup = speedup(scan.EstimatedCost, cand.EstimatedCost)
	cand.Confidence = confidence(scan.EstimatedCost, cand.EstimatedCost)

	return cand
}

// RecommendIntersection evaluates AND-of-N-predicates index intersection:
// per-predicate B-tree cost, plus 200*(N-1) intersection overhead, plus
// the cumulative sum of intermediate set sizes across N-1 mergings
// (§4.8's "Index intersection").
func (a *Advisor) RecommendIntersection(preds []Predicate, tableSize uint64, indexesUsed []string) CostEstimate {
	scan := CostEstimate{Strategy: StrategyFullScan, EstimatedCost: fullScanCost(tableSize), EstimatedRows: tableSize}

	if len(preds) == 0 {
		return scan
	}

	total := 0.0
	rowSizes := make([]uint64, len(preds))
	for i, p := range preds {
		sel := a.Selectivity(p.Column, p.Op, p.Cardinality)
		cost, rows := btreeCost(tableSize, sel, btreeLogFactor)
		total += cost
		rowSizes[i] = rows
	}

	merge := 0.0
	running := rowSizes[0]
	for i := 1; i < len(rowSizes); i++ {
		merge += float64(running) + float64(rowSizes[i])
		if rowSizes[i] < running {
			running = rowSizes[i]
		}
	}

	cost := total + intersectionOverhead*float64(len(preds)-1) + merge

	cand := CostEstimate{Strategy: StrategyIntersection, EstimatedCost: cost, EstimatedRows: running, IndexesUsed: indexesUsed}
	if cand.EstimatedCost >= scan.EstimatedCost {
		cand = scan
	}

	cand.EstimatedSpeedup = speedup(scan.EstimatedCost, cand.EstimatedCost)
	cand.Confidence = confidence(scan.EstimatedCost, cand.EstimatedCost)

	return cand
}

func speedup(scanCost, bestCost float64) float64 {
	if bestCost <= 0 {
		return scanCost
	}

	return scanCost / bestCost
}

func confidence(scanCost, bestCost float64) float64 {
	if scanCost <= 0 {
		return 0
	}

	c := (scanCost - bestCost) / scanCost
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
