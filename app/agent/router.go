package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"lexconnect/store"
	"lexconnect/types"
)

// specializations maps case issue types to lawyer specialization keywords.
var specializations = map[string][]string{
	"property": {"property", "real estate", "land", "encroachment"},
	"family":   {"family", "divorce", "matrimonial", "custody"},
	"contract": {"contract", "construction", "commercial", "breach"},
}

// ScoredLawyer is a lawyer with a match score for one case.
type ScoredLawyer struct {
	Lawyer types.LawyerProfile `json:"lawyer"`
	Score  int                 `json:"score"`
}

// RouterAgent matches lawyers to cases by keyword overlap between the
// case's issue type and the lawyer's specialization.
type RouterAgent struct {
	store store.DBStorer
}

func NewRouterAgent(s store.DBStorer) *RouterAgent {
	return &RouterAgent{store: s}
}

// ScoreLawyer computes keyword overlap weight plus experience and rating.
func ScoreLawyer(issueType string, lawyer types.LawyerProfile) int {
	keywords := specializations[issueType]
	spec := strings.ToLower(lawyer.Specialization)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(spec, kw) {
			matches++
		}
	}
	if matches == 0 {
		return 0
	}
	return matches*20 + lawyer.ExperienceYears*2 + lawyer.Rating
}

// TopLawyers ranks available lawyers for an issue type, best first.
// Lawyers with no keyword overlap are left out entirely.
func (a *RouterAgent) TopLawyers(ctx context.Context, issueType string, limit int) ([]ScoredLawyer, error) {
	lawyers, err := a.store.ListAvailableLawyers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lawyers: %w", err)
	}

	var scored []ScoredLawyer
	for _, l := range lawyers {
		if score := ScoreLawyer(issueType, l); score > 0 {
			scored = append(scored, ScoredLawyer{Lawyer: l, Score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// CreateRecommendations persists recommendation rows for the matched
// lawyers and returns their ids.
func (a *RouterAgent) CreateRecommendations(ctx context.Context, caseID int64, lawyers []ScoredLawyer) ([]int64, error) {
	ids := make([]int64, 0, len(lawyers))
	for _, sl := range lawyers {
		rec := &types.Recommendation{
			CaseID:   caseID,
			LawyerID: sl.Lawyer.ID,
			Score:    sl.Score,
			Status:   types.RecSuggested,
		}
		if err := a.store.SaveRecommendation(ctx, rec); err != nil {
			return nil, fmt.Errorf("save recommendation: %w", err)
		}
		ids = append(ids, rec.ID)
	}
	return ids, nil
}
