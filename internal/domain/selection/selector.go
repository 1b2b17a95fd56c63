// Package selection ranks policy-adjusted segments and picks a
// non-overlapping subset.
package selection

import (
	"sort"
	"strings"

	"github.com/clipmoment/clipmoment/internal/types"
)

// rankRule maps category wording to a priority class. Rules are checked
// in order; the first match wins. Lower rank is better.
type rankRule struct {
	rank     int
	keywords []string
}

// rankRules mirrors the category taxonomy the analysis prompt asks for.
// Informative and emotional moments outrank the rest; an empty or
// unrecognized category lands on unrankedPriority.
var rankRules = []rankRule{
	{0, []string{"information", "insight", "valuable"}},
	{1, []string{"emotion", "impact"}},
	{2, []string{"funny", "humor", "amusing"}},
	{3, []string{"surpris", "unexpected"}},
	{4, []string{"politic"}},
}

const unrankedPriority = 5

// Rank classifies a category string into its priority class.
func Rank(category string) int {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return unrankedPriority
	}
	for _, r := range rankRules {
		for _, kw := range r.keywords {
			if strings.Contains(c, kw) {
				return r.rank
			}
		}
	}
	return unrankedPriority
}

// Select assigns ranks, orders candidates by (rank, start, source order)
// and greedily accepts segments that do not overlap an already accepted
// one. Priority dominates start time: a high-priority late segment can
// displace lower-priority earlier ones. The result is re-sorted into
// ascending start order for presentation.
//
// An empty result is a valid outcome, not an error.
func Select(candidates []types.SelectedSegment) []types.SelectedSegment {
	if len(candidates) == 0 {
		return nil
	}

	ranked := make([]types.SelectedSegment, len(candidates))
	copy(ranked, candidates)
	for i := range ranked {
		ranked[i].Rank = Rank(ranked[i].Category)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if a.AdjustedStart != b.AdjustedStart {
			return a.AdjustedStart < b.AdjustedStart
		}
		return a.SourceOrder < b.SourceOrder
	})

	// Greedy interval scheduling in priority order: a segment is accepted
	// only when it starts at or after the end of the last accepted one.
	// Not optimal for total timeline coverage; optimal for honoring
	// priority first, which is the intended policy.
	var accepted []types.SelectedSegment
	lastAcceptedEnd := 0
	for _, s := range ranked {
		if s.AdjustedStart.Seconds() < lastAcceptedEnd {
			continue
		}
		accepted = append(accepted, s)
		lastAcceptedEnd = s.AdjustedEnd.Seconds()
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].AdjustedStart < accepted[j].AdjustedStart
	})
	return accepted
}
