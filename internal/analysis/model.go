package analysis

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"scan-analyzer/internal/profile"
	"scan-analyzer/internal/segment"
	"scan-analyzer/internal/urgency"
)

// The two user-visible failure classes. Everything the collaborator can do
// wrong collapses into ErrAnalysisUnavailable; everything document
// serialization can do wrong collapses into ErrReportFailed. They are kept
// distinct so the caller can tell "could not analyze" from "could not
// generate document".
var (
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
	ErrReportFailed        = errors.New("report generation failed")
)

// Submission is one user request: the raw form field bag, the declared
// artifact category, the analysis mode and the optional uploaded image.
type Submission struct {
	Fields         map[string][]string
	Category       string
	Mode           string
	Image          []byte
	ImageMIME      string
	CompactProfile bool
}

// Result is the outcome of one complete pipeline run. The document is the
// serialized PDF; nothing is retained after the Result is handed back.
type Result struct {
	ID           uuid.UUID
	Profile      profile.PatientProfile
	Report       segment.Report
	Urgency      urgency.Level
	MatchedTerms []string
	Document     []byte
	Filename     string
	CreatedAt    time.Time
}

// Record is the analysis-history row persisted per submission. It carries
// metadata only: uploads and generated documents are never stored.
type Record struct {
	ID               uuid.UUID `json:"id"`
	Category         string    `json:"category"`
	Mode             string    `json:"mode"`
	Urgency          string    `json:"urgency"`
	SchemaRecognized bool      `json:"schema_recognized"`
	MissingSections  int       `json:"missing_sections"`
	Filename         string    `json:"filename"`
	CreatedAt        time.Time `json:"created_at"`
}
