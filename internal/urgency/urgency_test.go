package urgency

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scan-analyzer/internal/segment"
)

func reportWith(sections map[string]string) segment.Report {
	order := make([]string, 0, len(sections))
	for name := range sections {
		order = append(order, name)
	}
	return segment.Report{Sections: sections, Order: order, SchemaRecognized: true}
}

func TestEmergencyAnywhereEscalates(t *testing.T) {
	rep := reportWith(map[string]string{
		"Scan Type & Purpose":      "Routine chest X-ray.",
		"Abnormalities Identified": "Everything looks fine.",
		"Emergency Status":         "EMERGENCY - immediate attention required.",
	})

	res := Classify(rep)

	assert.Equal(t, Emergency, res.Level)
	assert.Contains(t, res.Matched, "emergency")
}

func TestEmergencyMatchesInsideLargerWord(t *testing.T) {
	rep := reportWith(map[string]string{
		"Emergency Status": "This is a nonemergency situation.",
	})

	res := Classify(rep)

	// Escalating triggers are substring matches; only the Normal table
	// is whole-word.
	assert.Equal(t, Emergency, res.Level)
	assert.Contains(t, res.Matched, "emergency")
}

func TestHighestSeverityWins(t *testing.T) {
	rep := reportWith(map[string]string{
		"Abnormalities Identified": "Mild inflammation with a severe lesion nearby.",
	})

	res := Classify(rep)

	assert.Equal(t, Severe, res.Level)
	assert.Contains(t, res.Matched, "mild")
	assert.Contains(t, res.Matched, "severe")
}

func TestUnambiguousNormal(t *testing.T) {
	rep := reportWith(map[string]string{
		"Abnormalities Identified": "No abnormalities detected. All values are within normal limits.",
	})

	assert.Equal(t, Normal, Classify(rep).Level)
}

func TestAmbiguousNormalIsUnknown(t *testing.T) {
	rep := reportWith(map[string]string{
		"Abnormalities Identified": "Largely normal, but we cannot rule out early degenerative changes.",
	})

	assert.Equal(t, Unknown, Classify(rep).Level)
}

func TestNoVocabularyIsUnknownNeverNormal(t *testing.T) {
	rep := reportWith(map[string]string{
		"Abnormalities Identified": "Findings are inconclusive; a possible shadow is visible.",
	})

	assert.Equal(t, Unknown, Classify(rep).Level)
}

func TestNormalDoesNotMatchInsideAbnormalities(t *testing.T) {
	rep := reportWith(map[string]string{
		"Abnormalities Identified": "Multiple abnormalities were observed in the scan.",
	})

	res := Classify(rep)

	assert.Equal(t, Unknown, res.Level)
	assert.NotContains(t, res.Matched, "normal")
}

func TestRawFallbackReportIsClassified(t *testing.T) {
	rep := segment.Report{
		Sections: map[string]string{segment.FallbackSection: "There is a moderate narrowing of the canal."},
		Order:    []string{segment.FallbackSection},
	}

	assert.Equal(t, Moderate, Classify(rep).Level)
}

func TestAmbiguityNeverDowngradesRealSignal(t *testing.T) {
	rep := reportWith(map[string]string{
		"Emergency Status": "Possible life-threatening condition, unclear extent.",
	})

	// Hedging coexists with an explicit emergency trigger; escalation wins.
	assert.Equal(t, Emergency, Classify(rep).Level)
}

func TestLevelOrdering(t *testing.T) {
	assert.True(t, Unknown < Normal)
	assert.True(t, Normal < Mild)
	assert.True(t, Mild < Moderate)
	assert.True(t, Moderate < Severe)
	assert.True(t, Severe < Emergency)
}

func TestEmergencyTermsExposedForPrompt(t *testing.T) {
	terms := EmergencyTerms()
	assert.Contains(t, terms, "emergency")
	assert.Contains(t, terms, "life-threatening")
}
