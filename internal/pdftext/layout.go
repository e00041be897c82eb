package pdftext

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Glyph is one positioned character as reported by the PDF content stream.
type Glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// Fragment is a run of adjacent glyphs on one baseline.
type Fragment struct {
	X, Y float64
	Text string
}

const (
	// baselineTolerance is the Y delta still treated as the same baseline.
	baselineTolerance = 0.5
	// gapRatio is the horizontal gap, relative to font size, that splits a word.
	gapRatio = 0.2
)

// Fragments merges glyphs into word fragments. Glyphs are consumed in content
// stream order; a whitespace glyph, a baseline change or a horizontal gap
// starts a new fragment.
func Fragments(glyphs []Glyph) []Fragment {
	var (
		out   []Fragment
		cur   strings.Builder
		start Glyph
		prev  Glyph
		open  bool
	)
	flush := func() {
		if open && strings.TrimSpace(cur.String()) != "" {
			out = append(out, Fragment{X: start.X, Y: start.Y, Text: cur.String()})
		}
		cur.Reset()
		open = false
	}

	for _, g := range glyphs {
		if isBlank(g.S) {
			flush()
			continue
		}
		if open && !adjacent(prev, g) {
			flush()
		}
		if !open {
			start = g
			open = true
		}
		cur.WriteString(g.S)
		prev = g
	}
	flush()
	return out
}

func adjacent(prev, next Glyph) bool {
	if math.Abs(prev.Y-next.Y) > baselineTolerance {
		return false
	}
	size := next.FontSize
	if size <= 0 {
		size = prev.FontSize
	}
	gap := next.X - (prev.X + prev.W)
	return gap <= size*gapRatio && next.X >= prev.X-baselineTolerance
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// AssemblePage orders fragments top-to-bottom then left-to-right and joins
// them with single spaces. Equal positions keep content stream order.
func AssemblePage(frags []Fragment) string {
	sorted := make([]Fragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	parts := make([]string, 0, len(sorted))
	for _, f := range sorted {
		if t := strings.TrimSpace(f.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
