package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/signintech/gopdf"
	"go.uber.org/zap"

	"scan-analyzer/internal/profile"
	"scan-analyzer/internal/segment"
	"scan-analyzer/internal/urgency"
)

const disclaimer = "This AI analysis is for informational purposes only and should not replace " +
	"professional medical consultation. Always consult with qualified healthcare professionals " +
	"for proper diagnosis and treatment."

// Page geometry in points (A4).
const (
	marginLeft   = 50.0
	marginTop    = 50.0
	contentWidth = 495.0
	pageBottom   = 790.0

	lineHeight    = 14.0
	imageMaxW     = 400.0
	imageMaxH     = 300.0
	labelColWidth = 190.0
)

const fontFamily = "DejaVu"

// Common locations of DejaVuSans across distributions.
var defaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// Input is everything one document is built from. The builder holds no
// state between invocations.
type Input struct {
	Profile     profile.PatientProfile
	Report      segment.Report
	Urgency     urgency.Level
	Image       []byte // nil when no image was uploaded
	Category    string
	Compact     bool // omit patient rows holding only sentinel values
	GeneratedAt time.Time
}

// Builder assembles analysis results into a paginated PDF.
type Builder struct {
	fontPaths []string
	logger    *zap.Logger
}

func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{fontPaths: defaultFontPaths, logger: logger}
}

// NewBuilderWithFonts builds with explicit font search paths.
func NewBuilderWithFonts(fontPaths []string, logger *zap.Logger) *Builder {
	return &Builder{fontPaths: fontPaths, logger: logger}
}

// FontAvailable reports whether any of the builder's font paths can be
// loaded. Used by callers (and tests) to detect hosts without TTF fonts.
func (b *Builder) FontAvailable() bool {
	probe := gopdf.GoPdf{}
	probe.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	for _, path := range b.fontPaths {
		if err := probe.AddTTFFont(fontFamily, path); err == nil {
			return true
		}
	}
	return false
}

// Build renders the document: title, disclaimer, patient table, optional
// image, one block per section, urgency callout, footer. Image decode
// failures only drop the image block; any other failure aborts with an
// error since a partial or corrupt buffer must never reach the caller.
func (b *Builder) Build(in Input) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := b.loadFont(&pdf); err != nil {
		return nil, err
	}

	w := &writer{pdf: &pdf}

	// Title
	if err := w.paragraph(fmt.Sprintf("Medical Scan Analysis: %s", sanitize(in.Category)), 20, 22); err != nil {
		return nil, err
	}
	w.space(6)

	// Disclaimer
	pdf.SetTextColor(120, 120, 120)
	if err := w.paragraph(disclaimer, 9, 11); err != nil {
		return nil, err
	}
	pdf.SetTextColor(0, 0, 0)
	w.space(12)

	// Patient block
	if err := w.heading("Patient Information"); err != nil {
		return nil, err
	}
	for _, f := range in.Profile.Fields() {
		if in.Compact && (f.Value == profile.NoneReported || f.Value == profile.NotSpecified) {
			continue
		}
		if err := w.tableRow(f.Label, f.Value); err != nil {
			return nil, err
		}
	}
	w.space(12)

	// Image block, omitted on any decode error.
	if len(in.Image) > 0 {
		if err := b.drawImage(w, in.Image); err != nil {
			b.logger.Warn("omitting image block", zap.Error(err))
		}
	}

	// Section blocks in schema order.
	for _, name := range in.Report.Order {
		body := in.Report.Sections[name]
		if err := w.heading(name); err != nil {
			return nil, err
		}
		if err := w.paragraph(sanitize(body), 11, lineHeight); err != nil {
			return nil, err
		}
		w.space(10)
	}

	// Urgency callout. Always present; only emphasis varies by level.
	if err := b.drawCallout(w, in.Urgency); err != nil {
		return nil, err
	}

	// Footer
	w.space(18)
	pdf.SetTextColor(120, 120, 120)
	footer := fmt.Sprintf("Generated by Scan Report Analyzer on %s. AI-assisted assessment; not a medical diagnosis.",
		in.GeneratedAt.Format("02 Jan 2006 15:04 MST"))
	if err := w.paragraph(footer, 8, 10); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *Builder) loadFont(pdf *gopdf.GoPdf) error {
	var lastErr error
	for _, path := range b.fontPaths {
		err := pdf.AddTTFFont(fontFamily, path)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to load a TTF font for the report (is ttf-dejavu installed?): %w", lastErr)
}

func (b *Builder) drawImage(w *writer, raw []byte) error {
	pngBytes, imgW, imgH, err := fitImage(raw, imageMaxW, imageMaxH)
	if err != nil {
		return err
	}
	holder, err := gopdf.ImageHolderByBytes(pngBytes)
	if err != nil {
		return err
	}

	w.ensure(imgH + 10)
	y := w.pdf.GetY()
	x := marginLeft + (contentWidth-imgW)/2
	if err := w.pdf.ImageByHolder(holder, x, y, &gopdf.Rect{W: imgW, H: imgH}); err != nil {
		return err
	}
	w.pdf.SetY(y + imgH + 12)
	return nil
}

func (b *Builder) drawCallout(w *writer, level urgency.Level) error {
	r, g, bl := calloutColor(level)
	text := calloutText(level)

	const calloutHeight = 34.0
	w.ensure(calloutHeight + 6)
	y := w.pdf.GetY()

	w.pdf.SetFillColor(r, g, bl)
	w.pdf.RectFromUpperLeftWithStyle(marginLeft, y, contentWidth, calloutHeight, "F")

	w.pdf.SetTextColor(255, 255, 255)
	if err := w.pdf.SetFont(fontFamily, "", 12); err != nil {
		return err
	}
	w.pdf.SetXY(marginLeft+10, y+10)
	if err := w.pdf.Cell(nil, text); err != nil {
		return err
	}
	w.pdf.SetTextColor(0, 0, 0)
	w.pdf.SetY(y + calloutHeight)
	return nil
}

func calloutColor(level urgency.Level) (uint8, uint8, uint8) {
	switch level {
	case urgency.Emergency:
		return 198, 40, 40
	case urgency.Severe:
		return 230, 81, 0
	case urgency.Moderate:
		return 245, 158, 11
	case urgency.Mild:
		return 125, 140, 40
	case urgency.Normal:
		return 46, 125, 50
	default:
		return 97, 97, 97
	}
}

func calloutText(level urgency.Level) string {
	switch level {
	case urgency.Emergency:
		return "Urgency: EMERGENCY - seek immediate medical attention"
	case urgency.Severe:
		return "Urgency: Severe - consult a specialist urgently"
	case urgency.Moderate:
		return "Urgency: Moderate - medical consultation recommended"
	case urgency.Mild:
		return "Urgency: Mild - monitor and discuss with your doctor"
	case urgency.Normal:
		return "Urgency: Normal - no urgent findings identified"
	default:
		return "Urgency: Unknown - consult a healthcare professional"
	}
}

// writer wraps gopdf with line wrapping and page-break tracking.
type writer struct {
	pdf *gopdf.GoPdf
}

// ensure adds a page break when fewer than h points remain.
func (w *writer) ensure(h float64) {
	if w.pdf.GetY()+h > pageBottom {
		w.pdf.AddPage()
		w.pdf.SetY(marginTop)
	}
}

func (w *writer) space(h float64) {
	w.pdf.SetY(w.pdf.GetY() + h)
}

func (w *writer) heading(text string) error {
	if err := w.pdf.SetFont(fontFamily, "", 14); err != nil {
		return err
	}
	w.ensure(20)
	w.pdf.SetX(marginLeft)
	if err := w.pdf.Cell(nil, text); err != nil {
		return err
	}
	w.pdf.Br(20)
	return nil
}

func (w *writer) paragraph(text string, size, lh float64) error {
	if err := w.pdf.SetFont(fontFamily, "", size); err != nil {
		return err
	}
	for _, para := range strings.Split(text, "\n") {
		if strings.TrimSpace(para) == "" {
			w.space(lh / 2)
			continue
		}
		lines, err := w.pdf.SplitText(para, contentWidth)
		if err != nil {
			lines = []string{para}
		}
		for _, line := range lines {
			w.ensure(lh)
			w.pdf.SetX(marginLeft)
			if err := w.pdf.Cell(nil, line); err != nil {
				return err
			}
			w.pdf.Br(lh)
		}
	}
	return nil
}

// tableRow writes one label/value pair with the value wrapped in its own
// column.
func (w *writer) tableRow(label, value string) error {
	if err := w.pdf.SetFont(fontFamily, "", 10); err != nil {
		return err
	}
	valueWidth := contentWidth - labelColWidth
	lines, err := w.pdf.SplitText(sanitize(value), valueWidth)
	if err != nil || len(lines) == 0 {
		lines = []string{value}
	}

	w.ensure(lineHeight * float64(len(lines)))
	y := w.pdf.GetY()
	w.pdf.SetXY(marginLeft, y)
	if err := w.pdf.Cell(nil, label); err != nil {
		return err
	}
	for i, line := range lines {
		w.pdf.SetXY(marginLeft+labelColWidth, y+float64(i)*lineHeight)
		if err := w.pdf.Cell(nil, line); err != nil {
			return err
		}
	}
	w.pdf.SetY(y + lineHeight*float64(len(lines)))
	return nil
}

// Filename builds the downloadable file name from the artifact category and
// a timestamp.
func Filename(category string, t time.Time) string {
	slug := strings.ToLower(strings.TrimSpace(category))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, slug)
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "report"
	}
	return fmt.Sprintf("scan_analysis_%s_%s.pdf", slug, t.Format("20060102_150405"))
}
