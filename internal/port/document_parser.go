package port

// RawTextParser derives a partial record from unstructured text. Keys are
// schema field names; unrecognised fields are absent.
type RawTextParser interface {
	Parse(text string) map[string]any
}
