// Package agent holds the lightweight case-intake and lawyer-routing logic.
package agent

import (
	"context"
	"fmt"
	"strings"

	"lexconnect/store"
	"lexconnect/types"
)

// issueKeywords maps issue types to the tokens that indicate them.
// Checked in order; first matching type wins.
var issueKeywords = []struct {
	issueType string
	keywords  []string
}{
	{"contract", []string{"contract", "agreement", "breach", "payment", "advance", "construction", "tender"}},
	{"property", []string{"land", "plot", "property", "encroachment", "boundary", "possession", "injunction"}},
	{"tenancy", []string{"tenant", "rent", "eviction", "lease"}},
	{"consumer", []string{"defective", "refund", "consumer", "service deficiency"}},
	{"tort", []string{"negligence", "accident", "damages", "defamation"}},
	{"family", []string{"divorce", "maintenance", "custody", "domestic violence"}},
}

const defaultIssueType = "general_civil"

// IntakeAgent turns a free-text problem description into a stored case and
// builds the per-request chat context for it. Stateless: every chat request
// names its case explicitly, so nothing leaks between concurrent callers.
type IntakeAgent struct {
	store store.DBStorer
}

func NewIntakeAgent(s store.DBStorer) *IntakeAgent {
	return &IntakeAgent{store: s}
}

// DetectIssueType classifies a description into a coarse issue type.
func DetectIssueType(text string) string {
	t := strings.ToLower(text)
	for _, group := range issueKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(t, kw) {
				return group.issueType
			}
		}
	}
	return defaultIssueType
}

// IntakeCase classifies and persists a new case.
func (a *IntakeAgent) IntakeCase(ctx context.Context, clientID int64, text string) (*types.Case, error) {
	c := &types.Case{
		ClientID:    clientID,
		IssueType:   DetectIssueType(text),
		Description: strings.TrimSpace(text),
		Status:      types.CaseOpen,
	}
	if err := a.store.SaveCase(ctx, c); err != nil {
		return nil, fmt.Errorf("save case: %w", err)
	}
	return c, nil
}

// CaseContext loads a case and renders the fixed context block passed to
// the RAG pipeline, so the chatbot can answer case-related questions
// without the user restating everything.
func (a *IntakeAgent) CaseContext(ctx context.Context, caseID int64) (string, error) {
	c, err := a.store.GetCaseByID(ctx, caseID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CLIENT FACTS – DO NOT ALTER.\nIssue Type: %s\nDescription: %s\n", c.IssueType, c.Description), nil
}
