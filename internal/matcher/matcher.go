// Package matcher reconciles an extracted POD with the parcel it belongs to.
package matcher

import (
	"fmt"
	"regexp"
	"strings"

	"podrecon/internal/domain"
)

// DefaultMinCandidateLength is the shortest identifier allowed to match by
// containment. Exact matches are not subject to it.
const DefaultMinCandidateLength = 4

var extRe = regexp.MustCompile(`\.[^.]+$`)

// filenamePatterns are tried in order; the first to match decides the
// filename candidate.
var filenamePatterns = []func(string) string{
	submatch(regexp.MustCompile(`(?i)LR[\s_-]?(\d+)`)),
	submatch(regexp.MustCompile(`(?i)AWB[\s_-]?(\d+)`)),
	submatch(regexp.MustCompile(`(?i)DOCKET[\s_-]?(\d+)`)),
	trailingDigits,
	submatch(regexp.MustCompile(`(?i)([A-Z]{2,}\d{6,})`)),
	submatch(regexp.MustCompile(`^(\d+)[\s_-]`)),
	submatch(regexp.MustCompile(`(\d+)_`)),
	allDigits,
}

var (
	digitRunRe = regexp.MustCompile(`\d+`)
	allDigitRe = regexp.MustCompile(`^\d{6,}$`)
)

var placeholders = map[string]bool{"N/A": true, "NA": true, "-": true, "NIL": true, "NONE": true}

func submatch(re *regexp.Regexp) func(string) string {
	return func(s string) string {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1]
		}
		return ""
	}
}

// trailingDigits finds the first digit run that ends the name or is followed
// by a dot, and returns its last six to ten digits.
func trailingDigits(s string) string {
	for _, loc := range digitRunRe.FindAllStringIndex(s, -1) {
		if loc[1] != len(s) && s[loc[1]] != '.' {
			continue
		}
		n := loc[1] - loc[0]
		if n < 6 {
			continue
		}
		if n > 10 {
			return s[loc[1]-10 : loc[1]]
		}
		return s[loc[0]:loc[1]]
	}
	return ""
}

func allDigits(s string) string {
	if allDigitRe.MatchString(s) {
		return s
	}
	return ""
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithMinCandidateLength sets the containment length floor. Values below 1
// are ignored.
func WithMinCandidateLength(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.minLen = n
		}
	}
}

// Matcher is stateless after construction and safe for concurrent use.
type Matcher struct {
	minLen int
}

// New creates a Matcher.
func New(opts ...Option) *Matcher {
	m := &Matcher{minLen: DefaultMinCandidateLength}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FilenameCandidate derives an identifier from a file name, or "".
func (m *Matcher) FilenameCandidate(fileName string) string {
	name := fileName
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = extRe.ReplaceAllString(name, "")
	for _, p := range filenamePatterns {
		if c := p(name); c != "" {
			return c
		}
	}
	return ""
}

// DocumentCandidate returns the record's tracking identifier, or "".
func (m *Matcher) DocumentCandidate(rec *domain.ExtractedRecord) string {
	if v := strings.TrimSpace(rec.Value(domain.FieldDocketNumber)); v != "" {
		return v
	}
	return strings.TrimSpace(rec.Value(domain.FieldAWBNumber))
}

// Candidates returns the non-empty, de-duplicated candidate identifiers,
// filename first.
func (m *Matcher) Candidates(fileName string, rec *domain.ExtractedRecord) []domain.Candidate {
	var out []domain.Candidate
	add := func(v string, src domain.MatchSource) {
		if v == "" || placeholders[strings.ToUpper(v)] {
			return
		}
		for _, c := range out {
			if strings.EqualFold(c.Value, v) {
				return
			}
		}
		out = append(out, domain.Candidate{Value: v, Source: src})
	}
	add(m.FilenameCandidate(fileName), domain.SourceFilename)
	add(m.DocumentCandidate(rec), domain.SourceDocument)
	return out
}

// Match returns the first parcel, in input order, whose id, LR number or
// order id equals, contains or is contained in a candidate. parcels is not
// modified; a matched parcel is returned as a copy.
func (m *Matcher) Match(fileName string, rec *domain.ExtractedRecord, parcels []domain.ParcelRecord) domain.MatchResult {
	res := domain.MatchResult{Candidates: m.Candidates(fileName, rec)}
	if len(res.Candidates) == 0 {
		res.Reason = "no candidate identifier in file name or document"
		return res
	}

	for i := range parcels {
		for _, field := range parcels[i].Identifiers() {
			id := strings.TrimSpace(field.Value)
			for _, c := range res.Candidates {
				if !m.matches(c.Value, id) {
					continue
				}
				p := parcels[i]
				cand := c
				res.Parcel = &p
				res.Matched = true
				res.MatchedOn = &cand
				res.Reason = fmt.Sprintf("%s candidate %q matched %s %q", c.Source, c.Value, field.Name, id)
				return res
			}
		}
	}
	res.Reason = "no parcel identifier matched " + joinValues(res.Candidates)
	return res
}

func (m *Matcher) matches(candidate, id string) bool {
	if id == "" || placeholders[strings.ToUpper(id)] {
		return false
	}
	c, p := strings.ToUpper(candidate), strings.ToUpper(id)
	if c == p {
		return true
	}
	if len(c) < m.minLen || len(p) < m.minLen {
		return false
	}
	return strings.Contains(p, c) || strings.Contains(c, p)
}

func joinValues(cs []domain.Candidate) string {
	vals := make([]string, len(cs))
	for i, c := range cs {
		vals[i] = fmt.Sprintf("%q", c.Value)
	}
	return strings.Join(vals, ", ")
}
