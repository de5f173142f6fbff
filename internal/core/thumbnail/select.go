package thumbnail

import "sort"

// selectBest returns the highest-confidence candidate, or nil on an empty
// list. The sort is stable so ties go to the candidate encountered first.
func selectBest(cands []Candidate) *Candidate {
	if len(cands) == 0 {
		return nil
	}
	sorted := make([]Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	best := sorted[0]
	return &best
}
