// Package search provides score fusion, semantic reranking, and snippet
// extraction for the hybrid locator.
package search

import (
	"fmt"
	"math"
	"sort"
)

// DefaultRRFConstant is the standard RRF smoothing parameter.
// k=60 is empirically validated across domains; treated as a tunable,
// not re-derived.
const DefaultRRFConstant = 60

// minPercentileCandidates is the candidate count under which percentile
// normalization falls back to true min/max.
const minPercentileCandidates = 20

// Method selects a score-fusion policy.
type Method string

const (
	// MethodRRF combines ranks via reciprocal rank fusion. Its combined
	// values are rank-comparative only and are not surfaced as scores.
	MethodRRF Method = "rrf"
	// MethodPercentile blends percentile-normalized score distributions
	// weighted by the lexical bias. Its values are surfaced as scores.
	MethodPercentile Method = "percentile"
)

// ParseMethod validates a fusion method string.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodRRF, MethodPercentile:
		return Method(s), nil
	}
	return "", fmt.Errorf("invalid fusion method %q (want rrf or percentile)", s)
}

// Fuser combines aligned lexical and semantic score slices into one
// combined slice, index-aligned with its inputs.
type Fuser struct {
	K int // RRF smoothing constant
}

// NewFuser creates a fuser with the given RRF constant (<=0 uses the default).
func NewFuser(k int) *Fuser {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	return &Fuser{K: k}
}

// Fuse combines the two distributions under the chosen method.
// lex and sem must be the same length and aligned by candidate.
func (f *Fuser) Fuse(method Method, lex, sem []float64, bias float64) []float64 {
	if method == MethodRRF {
		return f.RRF(lex, sem)
	}
	return PercentileBlend(lex, sem, bias)
}

// RRF computes reciprocal-rank-fusion values: each candidate is ranked
// (1 = best) independently under both distributions and combined as
// 1/(k+lexRank) + 1/(k+semRank). Only ranks matter, so the result is
// invariant to positive affine rescaling of either input.
func (f *Fuser) RRF(lex, sem []float64) []float64 {
	lexRank := ranks(lex)
	semRank := ranks(sem)
	out := make([]float64, len(lex))
	for i := range out {
		out[i] = 1/float64(f.K+lexRank[i]) + 1/float64(f.K+semRank[i])
	}
	return out
}

// ranks assigns 1-indexed ranks by descending score, ties broken by
// candidate index for determinism.
func ranks(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	r := make([]int, len(scores))
	for pos, idx := range order {
		r[idx] = pos + 1
	}
	return r
}

// PercentileBlend normalizes both distributions independently and blends
// them as (1-bias)*semantic + bias*lexical. The result is reported as a
// calibrated relevance score.
func PercentileBlend(lex, sem []float64, bias float64) []float64 {
	lexNorm := normalizePercentile(lex)
	semNorm := normalizePercentile(sem)
	out := make([]float64, len(lex))
	for i := range out {
		out[i] = (1-bias)*semNorm[i] + bias*lexNorm[i]
	}
	return out
}

// normalizePercentile rescales scores to [0,1] using the 5th/95th
// percentile as a robust min/max. Small candidate sets fall back to the
// true min/max; a distribution with no spread normalizes to all zeros.
func normalizePercentile(scores []float64) []float64 {
	n := len(scores)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	var lo, hi float64
	if n < minPercentileCandidates {
		lo, hi = math.Inf(1), math.Inf(-1)
		for _, s := range scores {
			lo = math.Min(lo, s)
			hi = math.Max(hi, s)
		}
	} else {
		sorted := append([]float64(nil), scores...)
		sort.Float64s(sorted)
		lo = sorted[int(math.Round(0.05*float64(n-1)))]
		hi = sorted[int(math.Round(0.95*float64(n-1)))]
	}

	if hi <= lo {
		return out
	}
	for i, s := range scores {
		v := (s - lo) / (hi - lo)
		out[i] = math.Min(1, math.Max(0, v))
	}
	return out
}
