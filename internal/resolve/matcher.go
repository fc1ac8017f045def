package resolve

import (
	"sort"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/model"
)

// Join policies for rows with no cross-source match.
const (
	JoinKeep = "keep" // keep unmatched rows with the other side null-filled
	JoinDrop = "drop" // drop unmatched rows
)

// Matched-by markers on unified rows.
const (
	MatchedExact = "exact"
	MatchedFuzzy = "fuzzy"
)

// Policy configures match and join behavior.
type Policy struct {
	// FuzzyThreshold enables a token-overlap fallback pass when > 0.
	// The primary pass is always exact normalized-name equality.
	FuzzyThreshold float32

	// JoinPolicy is JoinKeep or JoinDrop; empty defaults to JoinKeep.
	JoinPolicy string
}

func (p Policy) keepUnmatched() bool {
	return p.JoinPolicy == "" || p.JoinPolicy == JoinKeep
}

// Result carries the merged table plus row-level flags.
type Result struct {
	Records []model.UnifiedRecord
	Issues  []model.RowIssue

	ExactMatches int
	FuzzyMatches int
	Unmatched    int
	Dropped      int
}

// Merge resolves entities across the two source tables and harmonizes them
// into the unified schema. For every supply-chain/financial pair sharing a
// normalized name, exactly one merged row is produced. Rows with missing or
// duplicate names are flagged and skipped, never fatal.
func Merge(supply []model.SupplyChainRecord, financial []model.FinancialRecord, policy Policy) *Result {
	res := &Result{}

	// Index the financial side by normalized name. First occurrence wins;
	// duplicates are flagged.
	finByName := make(map[string]int, len(financial))
	finConsumed := make([]bool, len(financial))
	for i, rec := range financial {
		norm := NormalizeName(rec.Corporation)
		if norm == "" {
			res.Issues = append(res.Issues, model.RowIssue{
				Source: "source2", Row: i, Field: "corporation", Reason: "missing name",
			})
			finConsumed[i] = true
			continue
		}
		if _, dup := finByName[norm]; dup {
			res.Issues = append(res.Issues, model.RowIssue{
				Source: "source2", Row: i, Field: "corporation", Reason: "duplicate normalized name",
			})
			finConsumed[i] = true
			continue
		}
		finByName[norm] = i
	}

	// Pass 1: exact normalized equality.
	type pending struct {
		row  int
		norm string
	}
	var unmatchedSupply []pending
	seenSupply := make(map[string]bool, len(supply))
	for i, rec := range supply {
		norm := NormalizeName(rec.CompanyName)
		if norm == "" {
			res.Issues = append(res.Issues, model.RowIssue{
				Source: "source1", Row: i, Field: "company_name", Reason: "missing name",
			})
			continue
		}
		if seenSupply[norm] {
			res.Issues = append(res.Issues, model.RowIssue{
				Source: "source1", Row: i, Field: "company_name", Reason: "duplicate normalized name",
			})
			continue
		}
		seenSupply[norm] = true

		if j, ok := finByName[norm]; ok && !finConsumed[j] {
			finConsumed[j] = true
			res.Records = append(res.Records, mergeRecords(&supply[i], &financial[j], MatchedExact, 1.0))
			res.ExactMatches++
			continue
		}
		unmatchedSupply = append(unmatchedSupply, pending{row: i, norm: norm})
	}

	// Pass 2: optional fuzzy fallback over the leftovers.
	if policy.FuzzyThreshold > 0 {
		remaining := unmatchedSupply[:0]
		for _, p := range unmatchedSupply {
			bestIdx := -1
			var bestScore float32
			for norm, j := range finByName {
				if finConsumed[j] {
					continue
				}
				score := tokenOverlapScore(p.norm, norm)
				if score < policy.FuzzyThreshold {
					continue
				}
				// Tie-break on row order so results are deterministic.
				if score > bestScore || (score == bestScore && (bestIdx < 0 || j < bestIdx)) {
					bestScore = score
					bestIdx = j
				}
			}
			if bestIdx >= 0 {
				finConsumed[bestIdx] = true
				res.Records = append(res.Records, mergeRecords(&supply[p.row], &financial[bestIdx], MatchedFuzzy, bestScore))
				res.FuzzyMatches++
				continue
			}
			remaining = append(remaining, p)
		}
		unmatchedSupply = remaining
	}

	// Unmatched leftovers follow the join policy.
	for _, p := range unmatchedSupply {
		if policy.keepUnmatched() {
			res.Records = append(res.Records, mergeRecords(&supply[p.row], nil, "", 0))
			res.Unmatched++
			continue
		}
		res.Dropped++
		res.Issues = append(res.Issues, model.RowIssue{
			Source: "source1", Row: p.row, Reason: "no cross-source match, dropped by join policy",
		})
	}
	var leftoverFin []int
	for _, j := range finByName {
		if !finConsumed[j] {
			leftoverFin = append(leftoverFin, j)
		}
	}
	sort.Ints(leftoverFin)
	for _, j := range leftoverFin {
		if policy.keepUnmatched() {
			res.Records = append(res.Records, mergeRecords(nil, &financial[j], "", 0))
			res.Unmatched++
			continue
		}
		res.Dropped++
		res.Issues = append(res.Issues, model.RowIssue{
			Source: "source2", Row: j, Reason: "no cross-source match, dropped by join policy",
		})
	}

	return res
}

// mergeRecords unions both sides into the unified schema. The supply-chain
// name wins as canonical when both sides are present.
func mergeRecords(sc *model.SupplyChainRecord, fin *model.FinancialRecord, matchedBy string, score float32) model.UnifiedRecord {
	out := model.UnifiedRecord{
		MatchedBy:  matchedBy,
		MatchScore: score,
	}
	if sc != nil {
		out.HasSupplyChain = true
		out.CanonicalName = sc.CompanyName
		out.Address = sc.Address
		out.ActivityLocations = sc.ActivityLocations
		out.TopSuppliers = sc.TopSuppliers
	}
	if fin != nil {
		out.HasFinancial = true
		if out.CanonicalName == "" {
			out.CanonicalName = fin.Corporation
		}
		out.MainCustomers = fin.MainCustomers
		out.Revenue = fin.Revenue
		out.Profit = fin.Profit
		if fin.Revenue != 0 {
			out.ProfitMargin = fin.Profit / fin.Revenue
		}
	}
	return out
}
