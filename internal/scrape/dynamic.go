package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kpcl-automation/gatekeeper/internal/model"
)

// DynamicFieldNames are the numeric fields the portal fills in with
// client-side script rather than form markup. They are probed by the
// best-effort dynamic pass after structural extraction.
var DynamicFieldNames = []string{"balance_amount", "ash_price", "total_extra"}

// A DynamicRule probes one source of script-rendered values. Rules never
// fail; a field the rule cannot resolve is simply skipped.
type DynamicRule interface {
	// Probe looks for the named field in the raw page or parsed document
	// and reports whether it found a usable numeric value.
	Probe(page string, doc *goquery.Document, field string) (string, bool)

	// Provenance labels values this rule produced.
	Provenance() model.Provenance
}

// DefaultDynamicRules returns the probing order used against the live
// portal. Later rules overwrite earlier ones for the same field, so the
// most specific source (a data attribute placed for machine consumption)
// comes last.
func DefaultDynamicRules() []DynamicRule {
	return []DynamicRule{
		scriptVarRule{},
		selectorRule{},
		dataAttrRule{},
	}
}

// scriptVarRule matches inline-script assignments of the form
// `balance_amount = "1234.50"` (single or double quoted).
type scriptVarRule struct{}

func (scriptVarRule) Provenance() model.Provenance { return model.ProvenanceDynamicScript }

func (scriptVarRule) Probe(page string, _ *goquery.Document, field string) (string, bool) {
	re := regexp.MustCompile(regexp.QuoteMeta(field) + `\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	m := re.FindStringSubmatch(page)
	if m == nil {
		return "", false
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	return sanitizeNumeric(raw)
}

// selectorRule probes id and class selectors derived from the field name,
// in both snake_case and kebab-case spellings.
type selectorRule struct{}

func (selectorRule) Provenance() model.Provenance { return model.ProvenanceDynamicSelector }

func (selectorRule) Probe(_ string, doc *goquery.Document, field string) (string, bool) {
	for _, sel := range candidateSelectors(field) {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(node.Text())
		if text == "" {
			text = node.AttrOr("value", "")
		}
		if v, ok := sanitizeNumeric(text); ok {
			return v, true
		}
	}
	return "", false
}

// candidateSelectors lists the id and class selectors probed for a field.
func candidateSelectors(field string) []string {
	kebab := strings.ReplaceAll(field, "_", "-")
	selectors := []string{"#" + field, "." + field}
	if kebab != field {
		selectors = append(selectors, "#"+kebab, "."+kebab)
	}
	return selectors
}

// dataAttrRule probes a data attribute named after the field, e.g.
// data-balance-amount.
type dataAttrRule struct{}

func (dataAttrRule) Provenance() model.Provenance { return model.ProvenanceDynamicData }

func (dataAttrRule) Probe(_ string, doc *goquery.Document, field string) (string, bool) {
	attr := "data-" + strings.ReplaceAll(field, "_", "-")
	node := doc.Find("[" + attr + "]").First()
	if node.Length() == 0 {
		return "", false
	}
	return sanitizeNumeric(node.AttrOr(attr, ""))
}

// sanitizeNumeric strips everything but digits, the decimal point, and
// the minus sign, and reports whether at least one digit survived.
func sanitizeNumeric(raw string) (string, bool) {
	var b strings.Builder
	hasDigit := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
			b.WriteRune(r)
		case r == '.' || r == '-':
			b.WriteRune(r)
		}
	}
	if !hasDigit {
		return "", false
	}
	return b.String(), true
}

// extractDynamic runs every rule over every dynamic field, overwriting
// earlier results with later ones. The pass is best-effort: a page with
// none of the probed markers leaves the field set untouched.
func extractDynamic(page string, doc *goquery.Document, rules []DynamicRule, fields []string, fs *fieldSet) {
	for _, rule := range rules {
		for _, field := range fields {
			if v, ok := rule.Probe(page, doc, field); ok {
				fs.set(field, v, rule.Provenance())
			}
		}
	}
}
