package textparse

import (
	"strings"
	"unicode"

	"podrecon/internal/domain"
)

var (
	ambiguityPhrases = [][]string{
		{"not", "clear"}, {"not", "legible"}, {"not", "visible"},
		{"unclear"}, {"illegible"}, {"faded"}, {"smudged"}, {"blurred"}, {"partial"}, {"partially"},
	}
	negationPhrases = [][]string{
		{"no"}, {"not"}, {"without"}, {"missing"}, {"absent"}, {"nil"}, {"none"},
		{"unsigned"}, {"unstamped"},
	}
	positivePhrases = [][]string{
		{"present"}, {"available"}, {"affixed"}, {"yes"}, {"signed"}, {"stamped"}, {"sealed"},
	}
)

const (
	lookAhead  = 4
	lookBehind = 3
)

// ClassifyStatus maps free text onto one of the status field's legal values.
// It returns false when none of the field's keywords occur in the text. When a
// keyword occurs without a recognisable qualifier the result is the field's
// Unclear value; absence of a signal never yields the positive value.
func ClassifyStatus(spec *domain.StatusSpec, text string) (string, bool) {
	if spec == nil {
		return "", false
	}
	words := splitWords(text)
	found := false
	for i, w := range words {
		if !isKeyword(spec, w.text) {
			continue
		}
		found = true

		// Label/value form ("Signature: Not Present") takes precedence over
		// a qualifier written before the keyword ("no stamp").
		after := window(words, i+1, i+1+lookAhead, spec)
		if v, ok := decide(spec, after); ok {
			return v, true
		}
		before := windowBefore(words, i, spec)
		if v, ok := decide(spec, before); ok {
			return v, true
		}
		if v, ok := keywordValue(spec, words[i].text, after); ok {
			return v, true
		}
	}
	if !found {
		return "", false
	}
	return spec.Unclear, true
}

// ClassifyValue canonicalises a status value reported by a model. Legal
// values match case-insensitively; anything else is classified as free text
// with the field keyword implied.
func ClassifyValue(spec *domain.StatusSpec, value string) (string, bool) {
	if v, ok := spec.Canonical(value); ok {
		return v, true
	}
	words := make([]string, 0, 4)
	for _, w := range splitWords(value) {
		words = append(words, w.text)
	}
	if len(words) == 0 {
		return "", false
	}
	return decide(spec, words)
}

// labelFillers are words a printed label puts between a participle keyword
// and the blank the receiver fills in ("Signed by ____").
var labelFillers = map[string]bool{
	"by": true, "at": true, "on": true, "in": true, "with": true, "the": true, "a": true,
}

// keywordValue classifies the keyword itself. "unsigned" is a negation. A
// participle such as "signed" is positive only when something other than
// label filler follows it, so a blank "Signed by ____" stays unresolved.
func keywordValue(spec *domain.StatusSpec, keyword string, after []string) (string, bool) {
	kw := []string{keyword}
	if phraseAt(kw, 0, negationPhrases) {
		return spec.Negative, true
	}
	if !phraseAt(kw, 0, positivePhrases) {
		return "", false
	}
	for _, w := range after {
		if !labelFillers[w] {
			return spec.Positive, true
		}
	}
	return "", false
}

// decide scans words left to right; the first word that starts a known
// phrase wins. At one position ambiguity beats negation beats a positive.
// "No" followed by a number is an identifier label, not a negation.
func decide(spec *domain.StatusSpec, words []string) (string, bool) {
	for i := range words {
		switch {
		case phraseAt(words, i, ambiguityPhrases):
			return spec.Unclear, true
		case words[i] == "no" && i+1 < len(words) && hasDigit(words[i+1]):
			continue
		case phraseAt(words, i, negationPhrases):
			return spec.Negative, true
		case phraseAt(words, i, positivePhrases):
			return spec.Positive, true
		}
	}
	return "", false
}

type word struct {
	text string
	// stop marks a word followed by clause punctuation.
	stop bool
}

func splitWords(text string) []word {
	var (
		out []word
		cur strings.Builder
	)
	flush := func(stop bool) {
		if cur.Len() > 0 {
			out = append(out, word{text: strings.ToLower(cur.String())})
			cur.Reset()
		}
		if stop && len(out) > 0 {
			out[len(out)-1].stop = true
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
		case r == ',' || r == ';' || r == '.' || r == '\n' || r == '|' || r == '_':
			flush(true)
		default:
			flush(false)
		}
	}
	flush(false)
	return out
}

// window returns words[from:to] truncated at clause punctuation, a blank
// fill-in line or a keyword of another status field.
func window(words []word, from, to int, spec *domain.StatusSpec) []string {
	if from > 0 && words[from-1].stop {
		return nil
	}
	var out []string
	for i := from; i < to && i < len(words); i++ {
		if isForeignKeyword(spec, words[i].text) {
			break
		}
		out = append(out, words[i].text)
		if words[i].stop {
			break
		}
	}
	return out
}

func windowBefore(words []word, at int, spec *domain.StatusSpec) []string {
	start := at - lookBehind
	if start < 0 {
		start = 0
	}
	for i := at - 1; i >= start; i-- {
		if words[i].stop || hasDigit(words[i].text) || isForeignKeyword(spec, words[i].text) {
			start = i + 1
			break
		}
	}
	out := make([]string, 0, at-start)
	for i := start; i < at; i++ {
		out = append(out, words[i].text)
	}
	return out
}

func hasDigit(w string) bool {
	return strings.IndexFunc(w, unicode.IsDigit) >= 0
}

func phraseAt(words []string, at int, phrases [][]string) bool {
	for _, p := range phrases {
		if at+len(p) > len(words) {
			continue
		}
		match := true
		for j := range p {
			if words[at+j] != p[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func isKeyword(spec *domain.StatusSpec, w string) bool {
	for _, k := range spec.Keywords {
		if w == k {
			return true
		}
	}
	return false
}

func isForeignKeyword(spec *domain.StatusSpec, w string) bool {
	for _, f := range domain.PODSchema.Fields() {
		if f.Status == nil || f.Status == spec {
			continue
		}
		if isKeyword(f.Status, w) {
			return true
		}
	}
	return false
}
