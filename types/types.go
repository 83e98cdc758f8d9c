package types

import (
	"errors"
	"fmt"
	"time"
)

// ChunkRecord is the canonical record written to both chunk logs.
// The full-text log carries Text; the metadata-only log leaves it empty.
// Record i of the metadata log corresponds to row i of the vector index.
type ChunkRecord struct {
	ChunkID string `json:"chunk_id"`
	File    string `json:"file"`
	Page    int    `json:"page"`
	Title   string `json:"title,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Page is one page of source text produced by the corpus loader.
type Page struct {
	File   string
	Number int
	Text   string
}

type CaseStatus string

const (
	CaseOpen    CaseStatus = "open"
	CaseMatched CaseStatus = "matched"
	CaseClosed  CaseStatus = "closed"
)

type Case struct {
	ID          int64
	ClientID    int64
	IssueType   string
	Description string
	Status      CaseStatus
	CreatedAt   time.Time
}

type RecStatus string

const (
	RecSuggested      RecStatus = "suggested"
	RecClientAccepted RecStatus = "client_accepted"
	RecLawyerAccepted RecStatus = "lawyer_accepted"
	RecDeclined       RecStatus = "declined"
)

type LawyerProfile struct {
	ID              int64
	Name            string
	Specialization  string
	City            string
	ExperienceYears int
	Rating          int
	IsAvailable     bool
}

type Recommendation struct {
	ID        int64
	CaseID    int64
	LawyerID  int64
	Score     int
	Status    RecStatus
	CreatedAt time.Time
}

type ActiveCase struct {
	ID        int64
	CaseID    int64
	LawyerID  int64
	Status    string
	CreatedAt time.Time
}

// ErrConfig marks invalid configuration (bad chunk geometry,
// embedding dimension mismatch). Checked with errors.Is.
var ErrConfig = errors.New("configuration error")

func ConfigErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfig}, args...)...)
}

// Config holds loader settings, read from the environment in cmd/main.go.
type Config struct {
	SourceDir  string
	ArchiveDir string
	BadDir     string

	IndexPath    string
	ChunksPath   string // full-text log
	MetaPath     string // metadata-only log
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int

	CropTop    float64
	CropBottom float64
}

// Validate rejects chunk geometry that would stall the chunker.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return ConfigErrorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return ConfigErrorf("chunk overlap %d must be in [0, %d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.BatchSize <= 0 {
		return ConfigErrorf("batch size must be positive, got %d", c.BatchSize)
	}
	return nil
}

// LLMConfig holds the generation model settings.
type LLMConfig struct {
	URL          string
	Model        string
	MaxNewTokens int
	Temperature  float64
	Timeout      time.Duration
}
