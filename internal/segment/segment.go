package segment

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"scan-analyzer/internal/schema"
)

const (
	// NoFindings stands in for a section the model omitted or left empty.
	NoFindings = "No significant findings."

	// FallbackSection is the single pseudo-section used when no schema
	// heading was recognized anywhere in the model output.
	FallbackSection = "Full Analysis"
)

// Report holds the per-section text recovered from one model response.
// Every schema section name is present in Sections even when extraction
// failed for it. When SchemaRecognized is false the report instead holds
// the raw model text verbatim under FallbackSection.
type Report struct {
	Sections         map[string]string
	Order            []string
	SchemaRecognized bool
	Missing          int
}

// Text returns the concatenated body text of the report in section order.
func (r Report) Text() string {
	var b strings.Builder
	for _, name := range r.Order {
		b.WriteString(r.Sections[name])
		b.WriteString("\n")
	}
	return b.String()
}

// Section returns the body for a named section and whether it is present.
func (r Report) Section(name string) (string, bool) {
	body, ok := r.Sections[name]
	return body, ok
}

// candidate is one located heading occurrence: the byte span of the heading
// token itself, the section it belongs to and the strategy that found it.
type candidate struct {
	section  string
	start    int
	end      int
	strategy int
}

// Segment recovers the schema's sections from raw model output. For every
// section it tries heading-location strategies of decreasing strictness:
//
//  1. delimited heading: [Name], **Name** or a markdown # heading
//  2. bare heading on its own line or followed by a colon
//  3. fuzzy match of a line whose alphanumeric content equals the name
//
// A section's body runs from its heading to the nearest following heading
// of any schema section, located by any strategy, so reordered sections do
// not leak into each other. Sections with no usable capture get the
// NoFindings sentinel. When nothing is recognized at all the report
// degrades to the raw text under FallbackSection. Pure; never fails.
func Segment(raw string, s schema.Schema) Report {
	rep := Report{
		Sections: make(map[string]string, len(s.Sections)),
		Order:    s.Names(),
	}

	candidates := locateAll(raw, s)

	boundaries := make([]int, 0, len(candidates))
	for _, c := range candidates {
		boundaries = append(boundaries, c.start)
	}
	sort.Ints(boundaries)

	bySection := make(map[string][]candidate, len(s.Sections))
	for _, c := range candidates {
		bySection[c.section] = append(bySection[c.section], c)
	}

	for _, sec := range s.Sections {
		body := extract(raw, bySection[sec.Name], boundaries)
		if body == "" {
			rep.Sections[sec.Name] = NoFindings
			rep.Missing++
			continue
		}
		rep.Sections[sec.Name] = body
	}

	if rep.Missing == len(s.Sections) {
		return Report{
			Sections:         map[string]string{FallbackSection: raw},
			Order:            []string{FallbackSection},
			SchemaRecognized: false,
			Missing:          len(s.Sections),
		}
	}

	rep.SchemaRecognized = true
	return rep
}

// extract picks the first candidate (strictest strategy first, then text
// order) whose capture up to the next boundary is non-empty.
func extract(raw string, cands []candidate, boundaries []int) string {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].strategy != cands[j].strategy {
			return cands[i].strategy < cands[j].strategy
		}
		return cands[i].start < cands[j].start
	})

	for _, c := range cands {
		end := len(raw)
		for _, b := range boundaries {
			if b >= c.end {
				end = b
				break
			}
		}
		body := trimBody(raw[c.end:end])
		if body != "" {
			return body
		}
	}
	return ""
}

// locateAll runs every strategy for every section and returns all heading
// occurrences found. All of them serve as body boundaries; strategy rank is
// kept so extraction can prefer the strictest hit per section.
func locateAll(raw string, s schema.Schema) []candidate {
	var out []candidate
	for _, sec := range s.Sections {
		for rank, re := range headingPatterns(sec.Name) {
			for _, loc := range re.FindAllStringIndex(raw, -1) {
				out = append(out, candidate{sec.Name, loc[0], loc[1], rank + 1})
			}
		}
		out = append(out, fuzzyLines(raw, sec.Name)...)
	}
	return out
}

// headingPatterns builds the strict and bare heading regexps for a section
// name. Patterns match the heading token only; the body starts right after.
func headingPatterns(name string) []*regexp.Regexp {
	q := regexp.QuoteMeta(name)
	delimited := fmt.Sprintf(
		`(?mi)^[ \t]*(?:\d+[.)][ \t]*)?(?:\[%s\]|\*{1,3}[ \t]*%s[ \t]*:?[ \t]*\*{1,3}|#{1,6}[ \t]*%s)[ \t]*:?`,
		q, q, q)
	bare := fmt.Sprintf(
		`(?mi)^[ \t]*(?:\d+[.)][ \t]*|-[ \t]*)?%s[ \t]*(?::|$)`, q)
	return []*regexp.Regexp{
		regexp.MustCompile(delimited),
		regexp.MustCompile(bare),
	}
}

// fuzzyLines finds lines whose alphanumeric content equals the section name,
// tolerating punctuation and marker drift the stricter patterns reject.
func fuzzyLines(raw, name string) []candidate {
	want := normalizeHeading(name)
	if want == "" {
		return nil
	}
	var out []candidate
	offset := 0
	for _, line := range strings.SplitAfter(raw, "\n") {
		if normalizeHeading(line) == want {
			end := offset + len(line)
			out = append(out, candidate{name, offset, end, 3})
		}
		offset += len(line)
	}
	return out
}

// normalizeHeading lowercases and strips everything but letters and digits.
func normalizeHeading(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// trimBody trims whitespace and leftover list/colon punctuation around a
// captured section body.
func trimBody(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, ":-– \t\r\n")
	return strings.TrimSpace(s)
}
