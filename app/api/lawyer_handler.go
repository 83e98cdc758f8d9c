package api

import (
	"lexconnect/app/agent"
	"lexconnect/store"

	"github.com/gofiber/fiber/v2"
)

type LawyerHandler struct {
	store  store.DBStorer
	lawyer *agent.LawyerAgent
}

func NewLawyerHandler(s store.DBStorer, lawyer *agent.LawyerAgent) *LawyerHandler {
	return &LawyerHandler{
		store:  s,
		lawyer: lawyer,
	}
}

func (h *LawyerHandler) HandleLawyerAccept(c *fiber.Ctx) error {
	recID, err := c.ParamsInt("id")
	if err != nil || recID <= 0 {
		return ErrInvalidID()
	}

	active, err := h.lawyer.AcceptCase(c.Context(), int64(recID))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "case_activated", "active_case_id": active.ID})
}

func (h *LawyerHandler) HandleDecline(c *fiber.Ctx) error {
	recID, err := c.ParamsInt("id")
	if err != nil || recID <= 0 {
		return ErrInvalidID()
	}

	if err := h.lawyer.DeclineCase(c.Context(), int64(recID)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "declined"})
}

func (h *LawyerHandler) HandleRequests(c *fiber.Ctx) error {
	lawyerID := c.QueryInt("lawyer_id")
	if lawyerID <= 0 {
		return ErrInvalidID()
	}

	recs, err := h.lawyer.PendingRequests(c.Context(), int64(lawyerID))
	if err != nil {
		return err
	}

	out := make([]fiber.Map, 0, len(recs))
	for _, rec := range recs {
		cs, err := h.store.GetCaseByID(c.Context(), rec.CaseID)
		if err != nil {
			return err
		}
		out = append(out, fiber.Map{
			"rec_id":      rec.ID,
			"case_id":     rec.CaseID,
			"issue_type":  cs.IssueType,
			"description": cs.Description,
		})
	}
	return c.JSON(out)
}

func (h *LawyerHandler) HandleActiveCases(c *fiber.Ctx) error {
	lawyerID := c.QueryInt("lawyer_id")
	if lawyerID <= 0 {
		return ErrInvalidID()
	}

	active, err := h.lawyer.ActiveCases(c.Context(), int64(lawyerID))
	if err != nil {
		return err
	}

	out := make([]fiber.Map, 0, len(active))
	for _, ac := range active {
		cs, err := h.store.GetCaseByID(c.Context(), ac.CaseID)
		if err != nil {
			return err
		}
		out = append(out, fiber.Map{
			"active_id":   ac.ID,
			"case_id":     ac.CaseID,
			"issue_type":  cs.IssueType,
			"description": cs.Description,
		})
	}
	return c.JSON(out)
}
