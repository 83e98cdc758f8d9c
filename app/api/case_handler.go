package api

import (
	"lexconnect/app/agent"
	"lexconnect/store"
	"lexconnect/types"

	"github.com/gofiber/fiber/v2"
)

const recommendationLimit = 5

type CaseHandler struct {
	store  store.DBStorer
	intake *agent.IntakeAgent
	router *agent.RouterAgent
}

func NewCaseHandler(s store.DBStorer, intake *agent.IntakeAgent, router *agent.RouterAgent) *CaseHandler {
	return &CaseHandler{
		store:  s,
		intake: intake,
		router: router,
	}
}

func (h *CaseHandler) HandleCaseIntake(c *fiber.Ctx) error {
	var params types.CaseIntakeParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return types.NewValidationError(errors)
	}

	saved, err := h.intake.IntakeCase(c.Context(), params.ClientID, params.CaseText)
	if err != nil {
		return err
	}

	return c.JSON(types.CaseIntakeResponse{
		Status:         "case_saved",
		CaseID:         saved.ID,
		IssueType:      saved.IssueType,
		RawDescription: saved.Description,
	})
}

func (h *CaseHandler) HandleListCases(c *fiber.Ctx) error {
	clientID := c.QueryInt("client_id")
	if clientID <= 0 {
		return ErrInvalidID()
	}

	cases, err := h.store.ListCasesByClient(c.Context(), int64(clientID))
	if err != nil {
		return err
	}

	out := make([]fiber.Map, len(cases))
	for i, cs := range cases {
		out[i] = fiber.Map{
			"id":          cs.ID,
			"issue_type":  cs.IssueType,
			"description": cs.Description,
		}
	}
	return c.JSON(out)
}

// HandleCreateRecommendations matches lawyers for the case and stores the
// recommendation rows.
func (h *CaseHandler) HandleCreateRecommendations(c *fiber.Ctx) error {
	caseID, err := c.ParamsInt("id")
	if err != nil || caseID <= 0 {
		return ErrInvalidID()
	}

	cs, err := h.store.GetCaseByID(c.Context(), int64(caseID))
	if err != nil {
		return err
	}

	lawyers, err := h.router.TopLawyers(c.Context(), cs.IssueType, recommendationLimit)
	if err != nil {
		return err
	}

	recIDs, err := h.router.CreateRecommendations(c.Context(), cs.ID, lawyers)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"case_id":         cs.ID,
		"issue_type":      cs.IssueType,
		"recommendations": lawyers,
		"rec_ids":         recIDs,
	})
}

func (h *CaseHandler) HandleListRecommendations(c *fiber.Ctx) error {
	caseID, err := c.ParamsInt("id")
	if err != nil || caseID <= 0 {
		return ErrInvalidID()
	}

	recs, err := h.store.ListRecommendationsByCase(c.Context(), int64(caseID))
	if err != nil {
		return err
	}

	out := make([]fiber.Map, 0, len(recs))
	for _, rec := range recs {
		lawyer, err := h.store.GetLawyerByID(c.Context(), rec.LawyerID)
		if err != nil {
			return err
		}
		out = append(out, fiber.Map{
			"rec_id":           rec.ID,
			"lawyer_id":        rec.LawyerID,
			"name":             lawyer.Name,
			"specialization":   lawyer.Specialization,
			"city":             lawyer.City,
			"experience_years": lawyer.ExperienceYears,
			"rating":           lawyer.Rating,
			"score":            rec.Score,
			"status":           rec.Status,
		})
	}
	return c.JSON(out)
}

func (h *CaseHandler) HandleClientAccept(c *fiber.Ctx) error {
	recID, err := c.ParamsInt("id")
	if err != nil || recID <= 0 {
		return ErrInvalidID()
	}
	if err := h.store.SetRecommendationStatus(c.Context(), int64(recID), types.RecClientAccepted); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "client_accepted", "rec_id": recID})
}
