package types

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

// ChatParams is the body of POST /api/v1/chat. CaseID opts a request into
// case-aware answering; the handler loads the case and builds the context
// block per request, so nothing is shared between callers.
type ChatParams struct {
	Message string `json:"message" validate:"required"`
	CaseID  int64  `json:"case_id,omitempty"`
}

// CaseIntakeParams is the body of POST /api/v1/caseintake.
type CaseIntakeParams struct {
	CaseText string `json:"case_text" validate:"required"`
	ClientID int64  `json:"client_id,omitempty"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *ChatParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *CaseIntakeParams) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(s any) map[string]string {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: http.StatusUnprocessableEntity,
		Errors: errors,
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

// ChatResponse is returned by POST /api/v1/chat.
type ChatResponse struct {
	Answer         string    `json:"answer"`
	UsedCaseContext bool     `json:"used_case_context"`
	RetrievedCount int       `json:"retrieved_count"`
	Sources        []Source  `json:"sources"`
	Note           string    `json:"note"`
	Timestamp      time.Time `json:"timestamp"`
}

type Source struct {
	ChunkID string `json:"chunk_id"`
	File    string `json:"file"`
	Page    int    `json:"page"`
	Title   string `json:"title,omitempty"`
}

// CaseIntakeResponse is returned by POST /api/v1/caseintake.
type CaseIntakeResponse struct {
	Status         string `json:"status"`
	CaseID         int64  `json:"case_id"`
	IssueType      string `json:"issue_type"`
	RawDescription string `json:"raw_description"`
}
