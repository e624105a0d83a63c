package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scan-analyzer/internal/profile"
	"scan-analyzer/internal/prompt"
	"scan-analyzer/internal/report"
	"scan-analyzer/internal/schema"
	"scan-analyzer/internal/segment"
	"scan-analyzer/internal/urgency"
)

// AgentClient is the external generative model collaborator. Defined here,
// where it is consumed, to stay decoupled from the concrete client.
type AgentClient interface {
	Analyze(ctx context.Context, prompt string) (string, error)
	AnalyzeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// Assembler renders the final document.
type Assembler interface {
	Build(in report.Input) ([]byte, error)
}

// Repository persists analysis-history records. May be nil when the service
// runs without a database.
type Repository interface {
	Save(ctx context.Context, rec Record) error
	List(ctx context.Context, limit int) ([]Record, error)
}

type Service interface {
	Analyze(ctx context.Context, sub Submission) (*Result, error)
	History(ctx context.Context, limit int) ([]Record, error)
}

type service struct {
	agent     AgentClient
	assembler Assembler
	repo      Repository
	logger    *zap.Logger
}

func NewService(agent AgentClient, assembler Assembler, repo Repository, logger *zap.Logger) Service {
	return &service{agent: agent, assembler: assembler, repo: repo, logger: logger}
}

// Analyze runs the full pipeline for one submission: normalize the profile,
// compose the prompt, call the model, segment the response, classify
// urgency and assemble the document. Stages run strictly in sequence; the
// model call is the sole blocking external operation.
func (s *service) Analyze(ctx context.Context, sub Submission) (*Result, error) {
	category := strings.TrimSpace(sub.Category)
	if category == "" {
		category = "Medical Scan"
	}

	p := profile.Normalize(sub.Fields)
	sch := schema.ByMode(sub.Mode)
	instruction := prompt.Compose(p, category, sch)

	var raw string
	var err error
	if len(sub.Image) > 0 {
		raw, err = s.agent.AnalyzeImage(ctx, instruction, sub.Image, sub.ImageMIME)
	} else {
		raw, err = s.agent.Analyze(ctx, instruction)
	}
	if err != nil {
		s.logger.Error("model call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAnalysisUnavailable, err)
	}

	rep := segment.Segment(raw, sch)
	if !rep.SchemaRecognized {
		s.logger.Warn("schema not recognized, using raw-text fallback",
			zap.String("mode", sch.Mode),
			zap.Int("response_chars", len(raw)),
		)
	}

	cls := urgency.Classify(rep)

	now := time.Now()
	res := &Result{
		ID:           uuid.New(),
		Profile:      p,
		Report:       rep,
		Urgency:      cls.Level,
		MatchedTerms: cls.Matched,
		Filename:     report.Filename(category, now),
		CreatedAt:    now,
	}

	doc, err := s.assembler.Build(report.Input{
		Profile:     p,
		Report:      rep,
		Urgency:     cls.Level,
		Image:       sub.Image,
		Category:    category,
		Compact:     sub.CompactProfile,
		GeneratedAt: now,
	})
	if err != nil {
		s.logger.Error("document assembly failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrReportFailed, err)
	}
	res.Document = doc

	s.record(ctx, res, category, sch.Mode)

	s.logger.Info("analysis complete",
		zap.String("analysis_id", res.ID.String()),
		zap.String("urgency", cls.Level.String()),
		zap.Bool("schema_recognized", rep.SchemaRecognized),
		zap.Int("missing_sections", rep.Missing),
	)
	return res, nil
}

// record writes the history row. Failures here are logged and swallowed:
// persistence is auxiliary and must never fail a completed analysis.
func (s *service) record(ctx context.Context, res *Result, category, mode string) {
	if s.repo == nil {
		return
	}
	rec := Record{
		ID:               res.ID,
		Category:         category,
		Mode:             mode,
		Urgency:          res.Urgency.String(),
		SchemaRecognized: res.Report.SchemaRecognized,
		MissingSections:  res.Report.Missing,
		Filename:         res.Filename,
		CreatedAt:        res.CreatedAt,
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		s.logger.Warn("failed to record analysis", zap.Error(err))
	}
}

func (s *service) History(ctx context.Context, limit int) ([]Record, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("history is not available without a database")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}
