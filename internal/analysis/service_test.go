package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scan-analyzer/internal/profile"
	"scan-analyzer/internal/report"
	"scan-analyzer/internal/segment"
	"scan-analyzer/internal/urgency"
)

type fakeAgent struct {
	response   string
	err        error
	gotPrompt  string
	gotImage   []byte
	imageCalls int
	textCalls  int
}

func (f *fakeAgent) Analyze(ctx context.Context, prompt string) (string, error) {
	f.textCalls++
	f.gotPrompt = prompt
	return f.response, f.err
}

func (f *fakeAgent) AnalyzeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	f.imageCalls++
	f.gotPrompt = prompt
	f.gotImage = image
	return f.response, f.err
}

type stubAssembler struct {
	err error
	got report.Input
}

func (s *stubAssembler) Build(in report.Input) ([]byte, error) {
	s.got = in
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-stub"), nil
}

type memoryRepo struct {
	saved  []Record
	failed error
}

func (m *memoryRepo) Save(ctx context.Context, rec Record) error {
	if m.failed != nil {
		return m.failed
	}
	m.saved = append(m.saved, rec)
	return nil
}

func (m *memoryRepo) List(ctx context.Context, limit int) ([]Record, error) {
	return m.saved, nil
}

func newTestService(agent *fakeAgent, asm *stubAssembler, repo Repository) Service {
	return NewService(agent, asm, repo, zap.NewNop())
}

// Scenario A: schema-compliant response with an emergency finding.
func TestAnalyzeEmergencyScenario(t *testing.T) {
	ag := &fakeAgent{response: "[Scan Type & Purpose]\nChest X-ray.\n" +
		"[Abnormalities Identified]\nPneumothorax.\n" +
		"[Emergency Status]\nEMERGENCY - immediate attention required.\n" +
		"[Precautions & Recommendations]\nGo to the ER.\n"}
	asm := &stubAssembler{}
	svc := newTestService(ag, asm, nil)

	res, err := svc.Analyze(context.Background(), Submission{
		Fields: map[string][]string{
			"age":      {"45"},
			"gender":   {"Male"},
			"symptoms": {"chest pain"},
		},
		Category:  "Chest X-ray",
		Mode:      "quick",
		Image:     []byte{0x89, 0x50},
		ImageMIME: "image/png",
	})

	require.NoError(t, err)
	assert.Equal(t, urgency.Emergency, res.Urgency)
	assert.True(t, res.Report.SchemaRecognized)
	assert.NotEmpty(t, res.Document)
	assert.Contains(t, res.MatchedTerms, "emergency")

	// The image goes to the model and to the assembler.
	assert.Equal(t, 1, ag.imageCalls)
	assert.Equal(t, 0, ag.textCalls)
	assert.Equal(t, []byte{0x89, 0x50}, ag.gotImage)
	assert.Equal(t, urgency.Emergency, asm.got.Urgency)
	assert.Equal(t, []byte{0x89, 0x50}, asm.got.Image)

	// The prompt carries the normalized profile.
	assert.Contains(t, ag.gotPrompt, "Age: 45")
	assert.Contains(t, ag.gotPrompt, "chest pain")
}

// Scenario B: plain prose with no recognizable markers at all.
func TestAnalyzeRawFallbackScenario(t *testing.T) {
	ag := &fakeAgent{response: "There is a moderate narrowing visible in the uploaded scan without further detail."}
	asm := &stubAssembler{}
	svc := newTestService(ag, asm, nil)

	res, err := svc.Analyze(context.Background(), Submission{
		Fields: map[string][]string{"age": {"60"}},
		Mode:   "quick",
		Image:  []byte{1},
	})

	require.NoError(t, err)
	assert.False(t, res.Report.SchemaRecognized)
	assert.Equal(t, ag.response, res.Report.Sections[segment.FallbackSection])
	assert.Equal(t, urgency.Moderate, res.Urgency)
}

// Scenario C: no optional fields, no image.
func TestAnalyzeWithoutImage(t *testing.T) {
	ag := &fakeAgent{response: "[Scan Type & Purpose]\nBlood panel review.\n" +
		"[Abnormalities Identified]\nNo abnormalities detected, values are normal.\n" +
		"[Emergency Status]\nNo significant findings.\n" +
		"[Precautions & Recommendations]\nNo significant findings.\n"}
	asm := &stubAssembler{}
	svc := newTestService(ag, asm, nil)

	res, err := svc.Analyze(context.Background(), Submission{
		Fields: map[string][]string{},
		Mode:   "quick",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, ag.textCalls)
	assert.Equal(t, 0, ag.imageCalls)
	assert.Nil(t, asm.got.Image)
	assert.Equal(t, urgency.Normal, res.Urgency)

	// Every profile field reached the prompt as a sentinel, not a gap.
	assert.Contains(t, ag.gotPrompt, profile.NoneReported)
	assert.Contains(t, ag.gotPrompt, profile.NotSpecified)
}

func TestAnalyzeMapsAgentFailure(t *testing.T) {
	ag := &fakeAgent{err: errors.New("boom")}
	svc := newTestService(ag, &stubAssembler{}, nil)

	_, err := svc.Analyze(context.Background(), Submission{Fields: map[string][]string{}})

	require.ErrorIs(t, err, ErrAnalysisUnavailable)
}

func TestAnalyzeMapsAssemblerFailure(t *testing.T) {
	ag := &fakeAgent{response: "[Scan Type & Purpose]\nX.\n"}
	asm := &stubAssembler{err: errors.New("no font")}
	svc := newTestService(ag, asm, nil)

	_, err := svc.Analyze(context.Background(), Submission{Fields: map[string][]string{}, Mode: "quick"})

	require.ErrorIs(t, err, ErrReportFailed)
}

func TestAnalyzeRecordsHistory(t *testing.T) {
	ag := &fakeAgent{response: "[Scan Type & Purpose]\nMRI of the knee.\n"}
	repo := &memoryRepo{}
	svc := newTestService(ag, &stubAssembler{}, repo)

	res, err := svc.Analyze(context.Background(), Submission{
		Fields:   map[string][]string{},
		Category: "MRI",
		Mode:     "quick",
	})

	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	rec := repo.saved[0]
	assert.Equal(t, res.ID, rec.ID)
	assert.Equal(t, "MRI", rec.Category)
	assert.Equal(t, "quick", rec.Mode)
	assert.Equal(t, res.Urgency.String(), rec.Urgency)
}

func TestAnalyzeSurvivesRecordFailure(t *testing.T) {
	ag := &fakeAgent{response: "[Scan Type & Purpose]\nMRI.\n"}
	repo := &memoryRepo{failed: errors.New("db down")}
	svc := newTestService(ag, &stubAssembler{}, repo)

	_, err := svc.Analyze(context.Background(), Submission{Fields: map[string][]string{}, Mode: "quick"})

	require.NoError(t, err, "history write failures must never fail the analysis")
}

func TestHistoryWithoutRepository(t *testing.T) {
	svc := newTestService(&fakeAgent{}, &stubAssembler{}, nil)

	_, err := svc.History(context.Background(), 10)

	require.Error(t, err)
}

func TestAnalyzeDefaultsCategory(t *testing.T) {
	ag := &fakeAgent{response: "[Scan Type & Purpose]\nX.\n"}
	svc := newTestService(ag, &stubAssembler{}, nil)

	res, err := svc.Analyze(context.Background(), Submission{Fields: map[string][]string{}, Mode: "quick"})

	require.NoError(t, err)
	assert.Contains(t, res.Filename, "medical_scan")
}
