package scrape

import (
	"sort"

	"github.com/kpcl-automation/gatekeeper/internal/model"
)

// criticalFieldDefaults are the fields a submission must always carry,
// with the fallback used when neither the scrape nor an override supplied
// them. Order is fixed so two merges of the same inputs encode
// byte-identically.
var criticalFieldDefaults = []struct {
	name  string
	value string
}{
	{"gp_flag", ""},
	{"silo_name", ""},
	{"silo_no", ""},
	{"vehicle_no", ""},
	{"driver_mob_no", ""},
	{"generate_flyash_gatepass", ""},
	{"tps", "BTPS"},
}

// CriticalFieldNames returns the names that receive a fallback when
// absent from both the scrape and the overrides.
func CriticalFieldNames() []string {
	names := make([]string, len(criticalFieldDefaults))
	for i, def := range criticalFieldDefaults {
		names[i] = def.name
	}
	return names
}

// Merge folds scraped fields, per-account overrides, and critical-field
// defaults into one form. Per field the precedence is:
//
//  1. a non-empty override,
//  2. the scraped value, even when it is the empty string,
//  3. a critical-field default, only when the name is absent entirely.
//
// Scraped fields keep their document order; overrides the scrape never
// produced follow in sorted order; defaults come last in their fixed
// order. The result is deterministic for identical inputs.
func Merge(scraped []model.ScrapedField, overrides map[string]string) *model.MergedForm {
	form := model.NewMergedForm()

	for _, f := range scraped {
		if v, ok := overrides[f.Name]; ok && v != "" {
			form.Set(f.Name, v)
			continue
		}
		form.Set(f.Name, f.Value)
	}

	extra := make([]string, 0, len(overrides))
	for name, v := range overrides {
		if v == "" || form.Has(name) {
			continue
		}
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		form.Set(name, overrides[name])
	}

	for _, def := range criticalFieldDefaults {
		if !form.Has(def.name) {
			form.Set(def.name, def.value)
		}
	}

	return form
}
