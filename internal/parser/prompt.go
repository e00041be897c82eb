package parser

import (
	"fmt"
	"strings"

	"podrecon/internal/domain"
	"podrecon/internal/port"
)

// BuildPODPrompt returns the extraction instruction for a courier proof of
// delivery. Every schema field is listed in order with its legal values.
func BuildPODPrompt(schema *domain.FieldSchema, m domain.Modality) string {
	var b strings.Builder
	source := "text extracted from a courier/logistics proof of delivery document"
	if m == domain.ModalityVision {
		source = "image of a courier/logistics proof of delivery document"
	}
	b.WriteString("Analyze this " + source + " and extract the following information as a single JSON object:\n\n{\n")

	fields := schema.Fields()
	for i, f := range fields {
		var desc string
		switch {
		case f.Status != nil:
			desc = strings.Join(f.Status.Legal(), " OR ")
		case f.Type == domain.FieldTypeInteger:
			desc = f.Description + " (as a number)"
		default:
			desc = f.Description
		}
		sep := ","
		if i == len(fields)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "  %q: %q%s\n", f.Name, desc, sep)
	}

	b.WriteString(`}

Instructions:
- For docketNumber look for "DOCKET NUMBER", LR, consignment, tracking or AWB numbers.
- For addresses extract the complete address including city and pincode.
- For signatureStatus and stampStatus use exactly one of the listed values. Use the "Not Clear" value when you cannot tell.
- Include units with the weight, e.g. "12.5 kg".
- If a field is not present in the document use null. Never guess or invent a value.
- Return ONLY the JSON object with no markdown formatting and no explanation.`)
	return b.String()
}

// ComposeText joins the instruction and the document text of a text request.
func ComposeText(req port.ExtractionRequest) string {
	if req.Text == "" {
		return req.Instruction
	}
	return req.Instruction + "\n\nHere is the text to analyze:\n\n" + req.Text
}
