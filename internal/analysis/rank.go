package analysis

import (
	"sort"

	"microgrid-sizer/internal/sizing"
)

type RankedDesign struct {
	Rank int `json:"rank"`
	*sizing.Evaluation
}

// RankDesigns sorts evaluations ascending by penalised cost. Ties keep
// input order.
func RankDesigns(evals []*sizing.Evaluation) []RankedDesign {
	out := make([]RankedDesign, 0, len(evals))
	for _, ev := range evals {
		if ev == nil {
			continue
		}
		out = append(out, RankedDesign{Evaluation: ev})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Penalized < out[j].Penalized
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
