package agent

import (
	"context"

	"lexconnect/store"
	"lexconnect/types"
)

// LawyerAgent drives the lawyer side of the matching workflow.
type LawyerAgent struct {
	store store.DBStorer
}

func NewLawyerAgent(s store.DBStorer) *LawyerAgent {
	return &LawyerAgent{store: s}
}

// PendingRequests lists client-accepted recommendations waiting on the lawyer.
func (a *LawyerAgent) PendingRequests(ctx context.Context, lawyerID int64) ([]types.Recommendation, error) {
	return a.store.ListRecommendationsByLawyer(ctx, lawyerID, types.RecClientAccepted)
}

// AcceptCase marks the recommendation lawyer-accepted and opens an active case.
func (a *LawyerAgent) AcceptCase(ctx context.Context, recID int64) (*types.ActiveCase, error) {
	rec, err := a.store.GetRecommendationByID(ctx, recID)
	if err != nil {
		return nil, err
	}
	if err := a.store.SetRecommendationStatus(ctx, recID, types.RecLawyerAccepted); err != nil {
		return nil, err
	}

	active := &types.ActiveCase{
		CaseID:   rec.CaseID,
		LawyerID: rec.LawyerID,
	}
	if err := a.store.SaveActiveCase(ctx, active); err != nil {
		return nil, err
	}
	return active, nil
}

// DeclineCase marks the recommendation declined.
func (a *LawyerAgent) DeclineCase(ctx context.Context, recID int64) error {
	return a.store.SetRecommendationStatus(ctx, recID, types.RecDeclined)
}

// ActiveCases lists the lawyer's active engagements.
func (a *LawyerAgent) ActiveCases(ctx context.Context, lawyerID int64) ([]types.ActiveCase, error) {
	return a.store.ListActiveCasesByLawyer(ctx, lawyerID)
}
