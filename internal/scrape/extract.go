package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kpcl-automation/gatekeeper/internal/model"
)

// fieldSet accumulates scraped fields while preserving document order.
// The first time a name appears fixes its position; later writes replace
// the value in place.
type fieldSet struct {
	fields []model.ScrapedField
	index  map[string]int

	// checked tracks names that already received a checked checkbox or
	// radio value. An unchecked sibling must never clobber them.
	checked map[string]bool
}

func newFieldSet() *fieldSet {
	return &fieldSet{
		index:   make(map[string]int),
		checked: make(map[string]bool),
	}
}

// set records a value for the name, overwriting any earlier value but
// keeping the original position.
func (fs *fieldSet) set(name, value string, prov model.Provenance) {
	if i, ok := fs.index[name]; ok {
		fs.fields[i].Value = value
		fs.fields[i].Provenance = prov
		return
	}
	fs.index[name] = len(fs.fields)
	fs.fields = append(fs.fields, model.ScrapedField{Name: name, Value: value, Provenance: prov})
}

// setIfAbsent records a value only when the name has not been seen yet.
func (fs *fieldSet) setIfAbsent(name, value string, prov model.Provenance) {
	if _, ok := fs.index[name]; ok {
		return
	}
	fs.set(name, value, prov)
}

// extractStructural walks every input, select, and textarea element in
// document order and records each field's current value.
//
// Checkbox and radio semantics: an unchecked element still records an
// explicit empty-string entry for its name, because the portal treats a
// present-but-empty field differently from a missing one. A checked
// sibling overwrites the empty default; nothing overwrites a checked
// value except a later checked sibling.
func extractStructural(doc *goquery.Document, fs *fieldSet) {
	doc.Find("input, select, textarea").Each(func(_ int, sel *goquery.Selection) {
		name := sel.AttrOr("name", "")
		if name == "" {
			return
		}

		switch goquery.NodeName(sel) {
		case "input":
			extractInput(sel, name, fs)
		case "select":
			fs.set(name, selectValue(sel), model.ProvenanceSelect)
		case "textarea":
			fs.set(name, strings.TrimSpace(sel.Text()), model.ProvenanceTextarea)
		}
	})
}

// extractInput records one input element according to its type.
func extractInput(sel *goquery.Selection, name string, fs *fieldSet) {
	inputType := strings.ToLower(sel.AttrOr("type", "text"))

	switch inputType {
	case "hidden":
		fs.set(name, sel.AttrOr("value", ""), model.ProvenanceHidden)

	case "text", "number", "email", "tel":
		fs.set(name, sel.AttrOr("value", ""), model.ProvenanceText)

	case "checkbox":
		if _, ok := sel.Attr("checked"); ok {
			fs.set(name, sel.AttrOr("value", "1"), model.ProvenanceCheckbox)
			fs.checked[name] = true
			return
		}
		if !fs.checked[name] {
			fs.setIfAbsent(name, "", model.ProvenanceCheckbox)
		}

	case "radio":
		if _, ok := sel.Attr("checked"); ok {
			fs.set(name, sel.AttrOr("value", ""), model.ProvenanceRadio)
			fs.checked[name] = true
			return
		}
		if !fs.checked[name] {
			fs.setIfAbsent(name, "", model.ProvenanceRadio)
		}

	default:
		// Buttons, submits, files and friends carry no form state worth
		// replaying.
	}
}

// selectValue resolves a select element to a single value: the explicitly
// selected option when it carries a non-empty value, otherwise the first
// option in document order with a non-empty (whitespace-trimmed) value,
// otherwise the empty string.
func selectValue(sel *goquery.Selection) string {
	options := sel.Find("option")

	var selectedVal string
	var hasSelected bool
	options.EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		if _, ok := opt.Attr("selected"); ok {
			selectedVal = opt.AttrOr("value", "")
			hasSelected = true
			return false
		}
		return true
	})
	if hasSelected && selectedVal != "" {
		return selectedVal
	}

	var fallback string
	options.EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		if v := strings.TrimSpace(opt.AttrOr("value", "")); v != "" {
			fallback = v
			return false
		}
		return true
	})
	return fallback
}
