package bubble

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/efebarandurmaz/bubbler/internal/graph"
)

// Confusion counts classifier decisions against a ground truth.
// A node is erroneous when its true multiplicity is zero.
type Confusion struct {
	TP int `json:"tp"` // erroneous node removed
	TN int `json:"tn"` // true node kept
	FP int `json:"fp"` // true node removed
	FN int `json:"fn"` // erroneous node kept
}

// Sensitivity returns TP/(TP+FN), or 0 when nothing erroneous was scored.
func (c Confusion) Sensitivity() float64 {
	if c.TP+c.FN == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

// Specificity returns TN/(TN+FP), or 0 when nothing true was scored.
func (c Confusion) Specificity() float64 {
	if c.TN+c.FP == 0 {
		return 0
	}
	return float64(c.TN) / float64(c.TN+c.FP)
}

// Total returns the number of scored decisions.
func (c Confusion) Total() int {
	return c.TP + c.TN + c.FP + c.FN
}

// Add returns the element-wise sum of c and o.
func (c Confusion) Add(o Confusion) Confusion {
	return Confusion{TP: c.TP + o.TP, TN: c.TN + o.TN, FP: c.FP + o.FP, FN: c.FN + o.FN}
}

// Sub returns the element-wise difference c - o.
func (c Confusion) Sub(o Confusion) Confusion {
	return Confusion{TP: c.TP - o.TP, TN: c.TN - o.TN, FP: c.FP - o.FP, FN: c.FN - o.FN}
}

// Evaluator scores classifier decisions. Score is called once per side
// considered, with removed reporting whether the classifier chose to
// delete it.
type Evaluator interface {
	Score(id graph.NodeID, removed bool)
	Confusion() Confusion
}

type nopEvaluator struct{}

func (nopEvaluator) Score(graph.NodeID, bool) {}
func (nopEvaluator) Confusion() Confusion     { return Confusion{} }

// NopEvaluator returns an evaluator that records nothing.
func NopEvaluator() Evaluator { return nopEvaluator{} }

// TruthEvaluator scores decisions against known node multiplicities,
// keyed by slot so both strands share one entry. Slots absent from the
// table count as erroneous.
type TruthEvaluator struct {
	multiplicity map[int]int
	counts       Confusion
}

// NewTruthEvaluator returns an evaluator over the given slot multiplicities.
func NewTruthEvaluator(multiplicity map[int]int) *TruthEvaluator {
	return &TruthEvaluator{multiplicity: multiplicity}
}

// LoadTruth reads a JSON object mapping slot numbers to true multiplicity,
// e.g. {"1": 1, "2": 0}.
func LoadTruth(r io.Reader) (*TruthEvaluator, error) {
	var raw map[string]int
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode truth table: %w", err)
	}
	mult := make(map[int]int, len(raw))
	for k, v := range raw {
		slot, err := strconv.Atoi(k)
		if err != nil || slot <= 0 {
			return nil, fmt.Errorf("truth table: invalid slot %q", k)
		}
		mult[slot] = v
	}
	return NewTruthEvaluator(mult), nil
}

// Score implements Evaluator.
func (e *TruthEvaluator) Score(id graph.NodeID, removed bool) {
	genuine := e.multiplicity[id.Slot()] > 0
	switch {
	case removed && genuine:
		e.counts.FP++
	case removed:
		e.counts.TP++
	case genuine:
		e.counts.TN++
	default:
		e.counts.FN++
	}
}

// Confusion implements Evaluator.
func (e *TruthEvaluator) Confusion() Confusion {
	return e.counts
}
