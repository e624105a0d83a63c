package prompt

import (
	"fmt"
	"strings"

	"scan-analyzer/internal/profile"
	"scan-analyzer/internal/schema"
	"scan-analyzer/internal/segment"
	"scan-analyzer/internal/urgency"
)

// rolePreamble establishes the model's competency and overall duties before
// any request-specific content.
const rolePreamble = `You are a specialized medical AI assistant designed to analyze medical scan reports and provide comprehensive health assessments. Your role is to:

1. Analyze medical scans (X-rays, MRIs, CT scans, blood reports, etc.) and identify potential health issues
2. STATE THE EXACT DISEASE OR PROBLEM clearly and prominently
3. Provide detailed explanations in simple, layman-friendly language
4. Consider the patient's medical history, lifestyle, and other factors for comprehensive analysis
5. Identify emergency situations and provide appropriate guidance
6. Always recommend consulting healthcare professionals for proper diagnosis and treatment

You must be thorough, accurate, and emphasize the importance of professional medical consultation.`

// procedure is the enumerated analysis procedure the model must follow.
const procedure = `When analyzing the report:

1. Carefully examine the scan or report together with the patient information below.
2. State the exact disease or problem found, clearly and prominently.
3. Assess severity and whether immediate medical attention is needed.
4. Correlate the findings with the patient's lifestyle, diet, habits, age and medical history.
5. Recommend precautions, lifestyle modifications and the right specialist to consult.
6. Suggest monitoring and follow-up requirements.`

// Compose builds the full instruction string for one submission: role
// preamble, analysis procedure, the interpolated patient record, the
// verbatim section-heading contract, and the sentinel and emergency
// directives. The formatting contract is deliberately stated twice; the
// model is not bound to obey it, and repetition is the only leverage the
// composer has. Pure string templating; cannot fail.
func Compose(p profile.PatientProfile, category string, s schema.Schema) string {
	var b strings.Builder

	b.WriteString(rolePreamble)
	b.WriteString("\n\n")
	b.WriteString(procedure)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "The uploaded material is declared as: %s.\n\n", category)

	b.WriteString("PATIENT INFORMATION:\n")
	for _, f := range p.Fields() {
		fmt.Fprintf(&b, "- %s: %s\n", f.Label, f.Value)
	}
	b.WriteString("\n")

	b.WriteString("OUTPUT FORMAT (follow exactly):\n")
	b.WriteString("Structure your entire response using these section headings, reproduced verbatim, each on its own line in square brackets:\n\n")
	for _, sec := range s.Sections {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", sec.Name, sec.Hint)
	}

	fmt.Fprintf(&b,
		"Every heading above MUST appear in your response. If a section has no relevant content, still include its heading followed by exactly: %q. Never omit a section.\n\n",
		segment.NoFindings)

	fmt.Fprintf(&b,
		"EMERGENCY FLAGGING: if anything in the scan or patient information matches an emergency condition (%s), state this as the very first line of your response, before any heading.\n\n",
		strings.Join(urgency.EmergencyTerms(), ", "))

	b.WriteString("Reminder: use every bracketed heading above, verbatim and in brackets, and fill sections with no relevant content with the exact sentence ")
	fmt.Fprintf(&b, "%q. ", segment.NoFindings)
	b.WriteString("Always emphasize that this is an AI analysis and professional medical consultation is essential for proper diagnosis and treatment.")

	return b.String()
}
