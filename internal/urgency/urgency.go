package urgency

import (
	"regexp"
	"strings"

	"scan-analyzer/internal/segment"
)

// Level is one step on the ordered severity scale. Higher values are worse;
// merging signals always keeps the maximum observed.
type Level int

const (
	Unknown Level = iota
	Normal
	Mild
	Moderate
	Severe
	Emergency
)

func (l Level) String() string {
	switch l {
	case Normal:
		return "Normal"
	case Mild:
		return "Mild"
	case Moderate:
		return "Moderate"
	case Severe:
		return "Severe"
	case Emergency:
		return "Emergency"
	default:
		return "Unknown"
	}
}

// triggers maps each level to its case-insensitive trigger phrases. This is
// the single declaration shared by the classifier and the prompt composer.
var triggers = []struct {
	level Level
	terms []string
}{
	{Emergency, []string{
		"emergency", "immediate medical attention", "immediately",
		"life-threatening", "critical",
	}},
	{Severe, []string{"severe", "serious"}},
	{Moderate, []string{"moderate"}},
	{Mild, []string{"mild", "minor"}},
	{Normal, []string{"normal", "no abnormalities", "within normal limits"}},
}

// ambiguityTerms are hedging phrases. Normal-range language accompanied by
// any of these yields Unknown instead of Normal: the classifier escalates
// eagerly but never assumes calm from ambiguous input.
var ambiguityTerms = []string{
	"possible", "cannot rule out", "unclear", "inconclusive",
	"borderline", "may indicate",
}

// urgencySections are the sections semantically tied to urgency; they are
// scanned individually in addition to the whole report text.
var urgencySections = []string{"Emergency Status", "Abnormalities Identified"}

// Escalating triggers match on plain substring containment so that
// agglutinated forms ("nonemergency") still raise the level. Only the
// calming Normal table is whole-word: "normal" must not fire inside
// "abnormalities".
var normalPatterns = buildNormalPatterns()

func buildNormalPatterns() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp)
	for _, t := range triggers {
		if t.level != Normal {
			continue
		}
		for _, term := range t.terms {
			m[term] = regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
		}
	}
	return m
}

func matches(lower, term string, level Level) bool {
	if level == Normal {
		return normalPatterns[term].MatchString(lower)
	}
	return strings.Contains(lower, term)
}

// EmergencyTerms returns the emergency-level trigger phrases for use in the
// prompt's emergency-flagging directive.
func EmergencyTerms() []string {
	for _, t := range triggers {
		if t.level == Emergency {
			return append([]string(nil), t.terms...)
		}
	}
	return nil
}

// Result is the classification outcome plus the trigger phrases that fired,
// kept for auditing and tests.
type Result struct {
	Level   Level
	Matched []string
}

// Classify derives the urgency level for a segmented (or raw-fallback)
// report. The final level is the highest severity matched anywhere in the
// text; when only normal-range or no vocabulary matches and hedging
// language is present, the level is Unknown rather than Normal.
func Classify(rep segment.Report) Result {
	texts := []string{rep.Text()}
	for _, name := range urgencySections {
		if body, ok := rep.Section(name); ok {
			texts = append(texts, body)
		}
	}

	best := Unknown
	var matched []string
	seen := make(map[string]bool)
	ambiguous := false

	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, t := range triggers {
			for _, term := range t.terms {
				if !seen[term] && matches(lower, term, t.level) {
					seen[term] = true
					matched = append(matched, term)
					if t.level > best {
						best = t.level
					}
				}
			}
		}
		for _, term := range ambiguityTerms {
			if strings.Contains(lower, term) {
				ambiguous = true
			}
		}
	}

	if best == Normal && ambiguous {
		best = Unknown
	}

	return Result{Level: best, Matched: matched}
}
