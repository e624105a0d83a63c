package analysis

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxUploadBytes bounds the multipart form, image included.
const maxUploadBytes = 10 << 20

type Handler struct {
	svc    Service
	logger *zap.Logger
}

func NewHandler(svc Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// sectionPayload preserves schema order in the JSON response.
type sectionPayload struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type analysisResponse struct {
	AnalysisID       string           `json:"analysis_id"`
	Urgency          string           `json:"urgency"`
	MatchedTerms     []string         `json:"matched_terms"`
	SchemaRecognized bool             `json:"schema_recognized"`
	Sections         []sectionPayload `json:"sections"`
	DocumentBase64   string           `json:"document_base64"`
	Filename         string           `json:"filename"`
	CreatedAt        string           `json:"created_at"`
}

// HandleAnalyze accepts the multipart submission and returns the full
// structured result with the PDF embedded base64, so one round trip serves
// both the UI and the download.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}

	sections := make([]sectionPayload, 0, len(res.Report.Order))
	for _, name := range res.Report.Order {
		sections = append(sections, sectionPayload{Name: name, Text: res.Report.Sections[name]})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analysisResponse{
		AnalysisID:       res.ID.String(),
		Urgency:          res.Urgency.String(),
		MatchedTerms:     res.MatchedTerms,
		SchemaRecognized: res.Report.SchemaRecognized,
		Sections:         sections,
		DocumentBase64:   base64.StdEncoding.EncodeToString(res.Document),
		Filename:         res.Filename,
		CreatedAt:        res.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
}

// HandleAnalyzeDocument runs the same pipeline but streams the PDF directly
// for plain browser downloads.
func (h *Handler) HandleAnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Write(res.Document)
}

// run parses the submission, executes the pipeline and writes the error
// response on failure. The two failure classes get distinct messages.
func (h *Handler) run(w http.ResponseWriter, r *http.Request) (*Result, bool) {
	sub, err := parseSubmission(r)
	if err != nil {
		h.logger.Warn("rejected submission", zap.Error(err))
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}

	res, err := h.svc.Analyze(r.Context(), *sub)
	if err != nil {
		switch {
		case errors.Is(err, ErrAnalysisUnavailable):
			http.Error(w, "Could not analyze the scan: the analysis service is unavailable", http.StatusBadGateway)
		case errors.Is(err, ErrReportFailed):
			http.Error(w, "Could not generate the report document", http.StatusInternalServerError)
		default:
			http.Error(w, "Analysis failed", http.StatusInternalServerError)
		}
		return nil, false
	}
	return res, true
}

func parseSubmission(r *http.Request) (*Submission, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("expected multipart form: %w", err)
	}

	sub := &Submission{
		Fields:         r.MultipartForm.Value,
		Category:       r.FormValue("category"),
		Mode:           r.FormValue("mode"),
		CompactProfile: r.FormValue("compact") == "true",
	}

	// The image is optional; a submission without one is analyzed from the
	// patient profile alone.
	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded image: %w", err)
		}
		sub.Image = data
		sub.ImageMIME = header.Header.Get("Content-Type")
	} else if !errors.Is(err, http.ErrMissingFile) {
		return nil, fmt.Errorf("error retrieving image file: %w", err)
	}

	return sub, nil
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.svc.History(r.Context(), limit)
	if err != nil {
		http.Error(w, "Analysis history is unavailable", http.StatusServiceUnavailable)
		return
	}
	if records == nil {
		records = []Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/analysis", h.HandleAnalyze)
	r.Post("/analysis/document", h.HandleAnalyzeDocument)
	r.Get("/analysis/history", h.HandleHistory)
	r.Get("/health", h.HandleHealth)
}
