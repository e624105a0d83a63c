package schema

// Section is one named part of the analysis the model is instructed to
// produce and the segmenter later recovers. The Hint tells the model what
// belongs under the heading.
type Section struct {
	Name string
	Hint string
}

// Schema is the fixed, ordered list of sections for one analysis mode.
// Schemas are static configuration: section names are unique within a
// schema and are shared verbatim between the prompt composer and the
// response segmenter.
type Schema struct {
	Mode     string
	Sections []Section
}

const (
	ModeComprehensive = "comprehensive"
	ModeQuick         = "quick"
)

// Comprehensive is the full analysis schema.
var Comprehensive = Schema{
	Mode: ModeComprehensive,
	Sections: []Section{
		{"Scan Type & Purpose", "What kind of scan or report this is and what it is used to evaluate."},
		{"Abnormalities Identified", "The exact disease or problem found, stated clearly, or confirmation that none were found."},
		{"Emergency Status", "Whether this is an emergency requiring immediate medical attention."},
		{"Detailed Explanation", "A comprehensive explanation of the findings in simple, layman-friendly language."},
		{"Lifestyle Correlation", "How the patient's lifestyle, diet, habits, age and medical history may contribute to the findings."},
		{"Precautions & Recommendations", "Specific precautions and lifestyle modifications to prevent worsening of the condition."},
		{"Specialist Referral", "Which type of healthcare specialist the patient should consult, and how urgently."},
		{"Follow-Up Plan", "Suggested monitoring and follow-up requirements with a timeline."},
	},
}

// Quick is the abbreviated schema for fast assessments.
var Quick = Schema{
	Mode: ModeQuick,
	Sections: []Section{
		{"Scan Type & Purpose", "What kind of scan or report this is and what it is used to evaluate."},
		{"Abnormalities Identified", "The exact disease or problem found, stated clearly, or confirmation that none were found."},
		{"Emergency Status", "Whether this is an emergency requiring immediate medical attention."},
		{"Precautions & Recommendations", "Specific precautions and lifestyle modifications to prevent worsening of the condition."},
	},
}

// ByMode resolves a schema by mode name, defaulting to the comprehensive
// schema for unknown or empty modes.
func ByMode(mode string) Schema {
	if mode == ModeQuick {
		return Quick
	}
	return Comprehensive
}

// Names returns the section names in declared order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Sections))
	for i, sec := range s.Sections {
		names[i] = sec.Name
	}
	return names
}
