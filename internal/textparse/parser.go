// Package textparse recovers POD fields from unstructured text with
// independent per-field pattern rules.
package textparse

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"podrecon/internal/domain"
)

// identifierRule finds a keyword and takes the first alphanumeric token
// containing a digit that follows it inside the same clause.
type identifierRule struct {
	field   domain.Field
	keyword *regexp.Regexp
	minLen  int
}

var identifierRules = []identifierRule{
	{domain.FieldDocketNumber, regexp.MustCompile(`(?i)\b(?:docket|tracking|awb|consignment|c/?n|lr)`), 6},
	{domain.FieldInvoiceNumber, regexp.MustCompile(`(?i)\b(?:invoice|inv)`), 3},
	{domain.FieldEwayBillNumber, regexp.MustCompile(`(?i)\b(?:e-?way|ewb)`), 6},
}

const identifierWindow = 48

var (
	tokenRe = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9/-]*`)
	digitRe = regexp.MustCompile(`\d`)

	gstinRe  = regexp.MustCompile(`(?i)\b(\d{2}[A-Z]{5}\d{4}[A-Z][1-9A-Z]Z[0-9A-Z])\b`)
	boxesRe  = regexp.MustCompile(`(?i)\b(?:boxes|box|packages|package|pkgs|pkg|pcs|cartons|carton|parcels)\b[^0-9\n]{0,24}?(\d+)`)
	weightRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kgs|kg|kilograms|kilogram|grams|gram|gms|gm|g|lbs|lb|tonnes|tonne|tons|ton)\b`)
	dateRe   = regexp.MustCompile(`(?i)\b(?:delivered\s+on|delivery\s+date|date\s+of\s+delivery|delivered)\s*[:\-]?\s*(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`)
	damageRe = regexp.MustCompile(`(?i)[^.;\n|]*\b(?:damaged?|damages|broken|torn|leak(?:ing|age|ed)?|wet|crushed|dent(?:ed)?|shortage|tampered)\b[^.;\n|]*`)

	receiverRe  = labelled(`received\s+by|receiver(?:'?s)?(?:\s*name)?|recipient(?:\s*name)?`)
	consigneeRe = labelled(`consignee(?:\s*name)?`)
	consignorRe = labelled(`consignor(?:\s*name)?|shipper(?:\s*name)?|sender(?:\s*name)?`)

	receiverAddrRe  = labelled(`(?:delivery|receiver|recipient|consignee)\s*address`)
	consignorAddrRe = labelled(`(?:consignor|shipper|sender|pickup)\s*address`)
)

// labelled matches "<label>: value", "<label> - value" and the quoted
// key/value form of a malformed JSON response.
func labelled(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + label + `)["']?\s*[:\-]\s*["']?([^\n|;"]{2,160})`)
}

// stopWords end a labelled value; they start the next label in joined text.
var stopWords = map[string]bool{
	"signature": true, "stamp": true, "seal": true, "date": true, "weight": true,
	"boxes": true, "box": true, "packages": true, "invoice": true, "docket": true,
	"awb": true, "lr": true, "gstin": true, "address": true, "consignee": true,
	"consignor": true, "receiver": true, "received": true, "phone": true,
	"mobile": true, "tel": true, "eway": true, "e-way": true, "remarks": true,
	"delivered": true, "delivery": true, "actual": true, "no": true,
}

// Parser is the regex fallback used when a model response is not valid
// structured data. It is stateless and safe for concurrent use.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse returns the subset of schema fields recognised in text. Each rule
// runs once; unrecognised fields are absent. The result may be empty.
func (p *Parser) Parse(text string) map[string]any {
	text = norm.NFKC.String(text)
	out := make(map[string]any)
	set := func(f domain.Field, v string) {
		if v = strings.TrimSpace(v); v != "" {
			out[string(f)] = v
		}
	}

	for _, rule := range identifierRules {
		set(rule.field, findIdentifier(text, rule))
	}
	if m := gstinRe.FindStringSubmatch(text); m != nil {
		set(domain.FieldGSTIN, strings.ToUpper(m[1]))
	}
	if m := boxesRe.FindStringSubmatch(text); m != nil {
		set(domain.FieldNumberOfBoxes, m[1])
	}
	if m := weightRe.FindStringSubmatch(text); m != nil {
		set(domain.FieldActualWeight, m[1]+" "+strings.ToLower(m[2]))
	}
	if m := dateRe.FindStringSubmatch(text); m != nil {
		set(domain.FieldDeliveryDate, m[1])
	}
	if m := damageRe.FindString(text); m != "" {
		set(domain.FieldDamageComments, truncate(strings.TrimSpace(m), 200))
	}

	set(domain.FieldReceiverName, labelValue(receiverRe, text, 5))
	set(domain.FieldConsigneeName, labelValue(consigneeRe, text, 5))
	set(domain.FieldConsignorName, labelValue(consignorRe, text, 5))
	set(domain.FieldReceiverAddress, labelValue(receiverAddrRe, text, 16))
	set(domain.FieldConsignorAddress, labelValue(consignorAddrRe, text, 16))

	for _, spec := range domain.PODSchema.Fields() {
		if spec.Status == nil {
			continue
		}
		if v, ok := ClassifyStatus(spec.Status, text); ok {
			set(spec.Name, v)
		}
	}
	return out
}

func findIdentifier(text string, rule identifierRule) string {
	for _, loc := range rule.keyword.FindAllStringIndex(text, -1) {
		// The keyword may be the prefix of the identifier itself (EWB998877).
		if run := tokenRe.FindString(text[loc[0]:]); len(run) > loc[1]-loc[0] && validToken(run, rule.minLen) {
			return run
		}

		end := loc[1] + identifierWindow
		if end > len(text) {
			end = len(text)
		}
		win := text[loc[1]:end]
		if i := strings.IndexAny(win, ",;\n|}"); i >= 0 {
			win = win[:i]
		}
		// Skip the rest of the keyword's own word ("Docket" in "Dockets").
		offset := 0
		if m := tokenRe.FindStringIndex(win); m != nil && m[0] == 0 {
			offset = m[1]
		}
		for _, tok := range tokenRe.FindAllString(win[offset:], -1) {
			if validToken(tok, rule.minLen) {
				return strings.Trim(tok, "/-")
			}
		}
	}
	return ""
}

func validToken(tok string, minLen int) bool {
	tok = strings.Trim(tok, "/-")
	return len(tok) >= minLen && digitRe.MatchString(tok)
}

func labelValue(re *regexp.Regexp, text string, maxWords int) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	words := strings.Fields(m[1])
	var kept []string
	for _, w := range words {
		bare := strings.ToLower(strings.Trim(w, ":.,-"))
		if stopWords[bare] || len(kept) == maxWords {
			break
		}
		kept = append(kept, w)
		if strings.HasSuffix(w, ",") && maxWords < 10 {
			break
		}
	}
	return strings.TrimRight(strings.Join(kept, " "), " ,.-:")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
