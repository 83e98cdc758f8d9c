package agent

import (
	"context"
	"strings"
	"testing"

	"lexconnect/store"
	"lexconnect/types"
)

// memStore is an in-memory DBStorer for agent tests.
type memStore struct {
	cases       map[int64]*types.Case
	lawyers     []types.LawyerProfile
	recs        map[int64]*types.Recommendation
	activeCases []types.ActiveCase
	nextID      int64
}

func newMemStore() *memStore {
	return &memStore{
		cases: make(map[int64]*types.Case),
		recs:  make(map[int64]*types.Recommendation),
	}
}

func (m *memStore) SaveCase(_ context.Context, c *types.Case) error {
	m.nextID++
	c.ID = m.nextID
	m.cases[c.ID] = c
	return nil
}

func (m *memStore) GetCaseByID(_ context.Context, id int64) (*types.Case, error) {
	c, ok := m.cases[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListCasesByClient(_ context.Context, clientID int64) ([]types.Case, error) {
	var out []types.Case
	for _, c := range m.cases {
		if c.ClientID == clientID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) ListAvailableLawyers(_ context.Context) ([]types.LawyerProfile, error) {
	var out []types.LawyerProfile
	for _, l := range m.lawyers {
		if l.IsAvailable {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) SaveRecommendation(_ context.Context, rec *types.Recommendation) error {
	m.nextID++
	rec.ID = m.nextID
	m.recs[rec.ID] = rec
	return nil
}

func (m *memStore) GetRecommendationByID(_ context.Context, id int64) (*types.Recommendation, error) {
	rec, ok := m.recs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func (m *memStore) ListRecommendationsByCase(_ context.Context, caseID int64) ([]types.Recommendation, error) {
	var out []types.Recommendation
	for _, r := range m.recs {
		if r.CaseID == caseID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) ListRecommendationsByLawyer(_ context.Context, lawyerID int64, status types.RecStatus) ([]types.Recommendation, error) {
	var out []types.Recommendation
	for _, r := range m.recs {
		if r.LawyerID == lawyerID && r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) SetRecommendationStatus(_ context.Context, id int64, status types.RecStatus) error {
	rec, ok := m.recs[id]
	if !ok {
		return store.ErrNotFound
	}
	rec.Status = status
	return nil
}

func (m *memStore) GetLawyerByID(_ context.Context, id int64) (*types.LawyerProfile, error) {
	for _, l := range m.lawyers {
		if l.ID == id {
			out := l
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) SaveActiveCase(_ context.Context, ac *types.ActiveCase) error {
	m.nextID++
	ac.ID = m.nextID
	m.activeCases = append(m.activeCases, *ac)
	return nil
}

func (m *memStore) ListActiveCasesByLawyer(_ context.Context, lawyerID int64) ([]types.ActiveCase, error) {
	var out []types.ActiveCase
	for _, ac := range m.activeCases {
		if ac.LawyerID == lawyerID {
			out = append(out, ac)
		}
	}
	return out, nil
}

func TestDetectIssueType(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"the builder breached our construction agreement", "contract"},
		{"neighbour has encroached on my plot boundary", "property"},
		{"tenant facing eviction over unpaid rent", "tenancy"},
		// "landlord" contains "land", so the property group wins first.
		{"landlord refuses to return the deposit", "property"},
		{"the shop will not refund a defective mixer", "consumer"},
		{"injured in an accident caused by negligence", "tort"},
		{"seeking custody of my children after divorce", "family"},
		{"I have a general legal question", "general_civil"},
	}
	for _, tc := range cases {
		if got := DetectIssueType(tc.text); got != tc.want {
			t.Errorf("DetectIssueType(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

// Detection order is fixed: a description matching several groups gets the
// earliest one.
func TestDetectIssueTypeOrder(t *testing.T) {
	text := "breach of the lease agreement over the property"
	if got := DetectIssueType(text); got != "contract" {
		t.Errorf("got %q, want contract to win over property and tenancy", got)
	}
}

func TestIntakeCasePersistsClassifiedCase(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	a := NewIntakeAgent(st)

	c, err := a.IntakeCase(ctx, 42, "  tenant seeking return of the rent deposit  ")
	if err != nil {
		t.Fatal(err)
	}
	if c.ID == 0 {
		t.Error("case id not assigned")
	}
	if c.IssueType != "tenancy" {
		t.Errorf("issue type = %q", c.IssueType)
	}
	if c.Status != types.CaseOpen {
		t.Errorf("status = %q", c.Status)
	}
	if c.Description != "tenant seeking return of the rent deposit" {
		t.Errorf("description not trimmed: %q", c.Description)
	}
}

func TestCaseContextRendersStoredFacts(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	a := NewIntakeAgent(st)

	c, err := a.IntakeCase(ctx, 1, "tenant served with an eviction notice")
	if err != nil {
		t.Fatal(err)
	}

	got, err := a.CaseContext(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "CLIENT FACTS") {
		t.Errorf("context = %q", got)
	}
	if !strings.Contains(got, "Issue Type: tenancy") || !strings.Contains(got, "tenant served with an eviction notice") {
		t.Errorf("context missing facts: %q", got)
	}

	if _, err := a.CaseContext(ctx, 9999); err != store.ErrNotFound {
		t.Errorf("missing case: got %v, want ErrNotFound", err)
	}
}

func TestScoreLawyer(t *testing.T) {
	lawyer := types.LawyerProfile{Specialization: "Property and Real Estate", ExperienceYears: 10, Rating: 4}

	// Two keyword matches: property, real estate.
	if got := ScoreLawyer("property", lawyer); got != 2*20+10*2+4 {
		t.Errorf("score = %d, want %d", got, 64)
	}
	// No overlap scores zero regardless of experience.
	if got := ScoreLawyer("family", lawyer); got != 0 {
		t.Errorf("score without overlap = %d, want 0", got)
	}
	// Unknown issue types have no keywords.
	if got := ScoreLawyer("general_civil", lawyer); got != 0 {
		t.Errorf("score for unmapped issue type = %d, want 0", got)
	}
}

func TestTopLawyersRanksAndLimits(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	st.lawyers = []types.LawyerProfile{
		{ID: 1, Name: "A", Specialization: "Criminal Defence", IsAvailable: true},
		{ID: 2, Name: "B", Specialization: "Property Law", ExperienceYears: 5, Rating: 3, IsAvailable: true},
		{ID: 3, Name: "C", Specialization: "Property and Real Estate", ExperienceYears: 12, Rating: 5, IsAvailable: true},
		{ID: 4, Name: "D", Specialization: "Property Law", ExperienceYears: 20, Rating: 5, IsAvailable: false},
	}

	a := NewRouterAgent(st)
	got, err := a.TopLawyers(ctx, "property", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 lawyers, got %d", len(got))
	}
	if got[0].Lawyer.ID != 3 {
		t.Errorf("best match = %d, want 3", got[0].Lawyer.ID)
	}
	if got[1].Lawyer.ID != 2 {
		t.Errorf("second match = %d, want 2", got[1].Lawyer.ID)
	}
	for _, sl := range got {
		if sl.Lawyer.ID == 1 {
			t.Error("lawyer with no overlap must be excluded")
		}
		if sl.Lawyer.ID == 4 {
			t.Error("unavailable lawyer must be excluded")
		}
	}
}

func TestRecommendationLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	st.lawyers = []types.LawyerProfile{
		{ID: 7, Name: "B", Specialization: "Contract and Commercial", ExperienceYears: 8, Rating: 4, IsAvailable: true},
	}

	intake := NewIntakeAgent(st)
	router := NewRouterAgent(st)
	lawyer := NewLawyerAgent(st)

	c, err := intake.IntakeCase(ctx, 1, "builder breached the construction agreement")
	if err != nil {
		t.Fatal(err)
	}

	matched, err := router.TopLawyers(ctx, c.IssueType, 5)
	if err != nil {
		t.Fatal(err)
	}
	ids, err := router.CreateRecommendations(ctx, c.ID, matched)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(ids))
	}

	rec, err := st.GetRecommendationByID(ctx, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != types.RecSuggested {
		t.Errorf("fresh recommendation status = %q", rec.Status)
	}

	// Client accepts, then the request shows up on the lawyer's side.
	if err := st.SetRecommendationStatus(ctx, ids[0], types.RecClientAccepted); err != nil {
		t.Fatal(err)
	}
	pending, err := lawyer.PendingRequests(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(pending))
	}

	active, err := lawyer.AcceptCase(ctx, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if active.CaseID != c.ID || active.LawyerID != 7 {
		t.Errorf("active case = %+v", active)
	}
	rec, _ = st.GetRecommendationByID(ctx, ids[0])
	if rec.Status != types.RecLawyerAccepted {
		t.Errorf("status after accept = %q", rec.Status)
	}

	engaged, err := lawyer.ActiveCases(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(engaged) != 1 {
		t.Errorf("expected 1 active case, got %d", len(engaged))
	}
}

func TestDeclineCase(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	rec := &types.Recommendation{CaseID: 1, LawyerID: 2, Status: types.RecClientAccepted}
	if err := st.SaveRecommendation(ctx, rec); err != nil {
		t.Fatal(err)
	}

	a := NewLawyerAgent(st)
	if err := a.DeclineCase(ctx, rec.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := st.GetRecommendationByID(ctx, rec.ID)
	if got.Status != types.RecDeclined {
		t.Errorf("status = %q, want declined", got.Status)
	}
	if len(st.activeCases) != 0 {
		t.Error("decline must not open an active case")
	}
}
