package api

import (
	"context"
	"time"

	"lexconnect/app/agent"
	"lexconnect/rag"
	"lexconnect/types"

	"github.com/gofiber/fiber/v2"
)

const adviceNote = "Information only. Always verify with qualified lawyer."

// Answerer is the RAG orchestrator surface the chat handler needs.
type Answerer interface {
	Answer(ctx context.Context, question, caseContext string) (*rag.Result, error)
}

type ChatHandler struct {
	rag    Answerer
	intake *agent.IntakeAgent
}

func NewChatHandler(r Answerer, intake *agent.IntakeAgent) *ChatHandler {
	return &ChatHandler{
		rag:    r,
		intake: intake,
	}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var params types.ChatParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return types.NewValidationError(errors)
	}

	var caseContext string
	if params.CaseID != 0 {
		ctx, err := h.intake.CaseContext(c.Context(), params.CaseID)
		if err != nil {
			return err
		}
		caseContext = ctx
	}

	result, err := h.rag.Answer(c.Context(), params.Message, caseContext)
	if err != nil {
		return err
	}

	sources := make([]types.Source, len(result.Sources))
	for i, rec := range result.Sources {
		sources[i] = types.Source{
			ChunkID: rec.ChunkID,
			File:    rec.File,
			Page:    rec.Page,
			Title:   rec.Title,
		}
	}

	resp := &types.ChatResponse{
		Answer:          result.Answer,
		UsedCaseContext: caseContext != "",
		RetrievedCount:  result.RetrievedCount,
		Sources:         sources,
		Note:            adviceNote,
		Timestamp:       time.Now(),
	}
	return c.JSON(resp)
}
