package model

import (
	"net/url"
	"strings"
)

// Provenance describes which extraction source produced a scraped field.
// It is informational only: merge precedence never depends on it.
type Provenance string

// Provenance values for scraped form fields.
const (
	ProvenanceHidden          Provenance = "hidden"
	ProvenanceText            Provenance = "text"
	ProvenanceSelect          Provenance = "select"
	ProvenanceCheckbox        Provenance = "checkbox"
	ProvenanceRadio           Provenance = "radio"
	ProvenanceTextarea        Provenance = "textarea"
	ProvenanceDynamicScript   Provenance = "dynamic-script"
	ProvenanceDynamicSelector Provenance = "dynamic-selector"
	ProvenanceDynamicData     Provenance = "dynamic-data"
)

// ScrapedField is a single form field extracted from live portal HTML.
// An empty Value is meaningful: an unchecked checkbox is recorded as an
// explicit empty-string entry, not a missing key.
type ScrapedField struct {
	// Name is the form field name attribute.
	Name string `json:"name"`

	// Value is the extracted field value. May be the empty string.
	Value string `json:"value"`

	// Provenance records which extraction rule produced the value.
	Provenance Provenance `json:"provenance"`
}

// MergedForm is the final ordered mapping of field name to value that is
// posted to the portal. Insertion order is preserved so that two runs over
// identical inputs produce byte-identical encodings.
//
// Design decision: We keep our own name slice next to the map instead of
// using url.Values directly because url.Values.Encode sorts keys, which
// would discard the document order of the scraped form.
type MergedForm struct {
	names  []string
	values map[string]string
}

// NewMergedForm creates an empty MergedForm.
func NewMergedForm() *MergedForm {
	return &MergedForm{
		names:  make([]string, 0),
		values: make(map[string]string),
	}
}

// Set stores a value for the given field name. The first Set of a name
// fixes its position in the ordering; later Sets overwrite the value only.
func (f *MergedForm) Set(name, value string) {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = value
}

// Get returns the value for the given field name and whether it is present.
func (f *MergedForm) Get(name string) (string, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Has reports whether the field name is present in the form.
func (f *MergedForm) Has(name string) bool {
	_, ok := f.values[name]
	return ok
}

// Len returns the number of fields in the form.
func (f *MergedForm) Len() int {
	return len(f.names)
}

// Names returns the field names in insertion order.
// The returned slice is a copy; mutating it does not affect the form.
func (f *MergedForm) Names() []string {
	names := make([]string, len(f.names))
	copy(names, f.names)
	return names
}

// Map returns a copy of the field mapping without ordering.
func (f *MergedForm) Map() map[string]string {
	m := make(map[string]string, len(f.values))
	for k, v := range f.values {
		m[k] = v
	}
	return m
}

// Encode returns the form as an application/x-www-form-urlencoded body,
// preserving insertion order.
func (f *MergedForm) Encode() string {
	var b strings.Builder
	for i, name := range f.names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.values[name]))
	}
	return b.String()
}
