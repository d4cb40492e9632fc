package provider

// LabelConfig is the per-provider label set served on the legacy _config
// endpoint.
type LabelConfig struct {
	Text              string `json:"text"`
	TagText           string `json:"tag_text"`
	RefPropDisabled   bool   `json:"ref_prop_disabled"`
	LabelPropDisabled bool   `json:"label_prop_disabled"`
	TagPlaceholder    string `json:"tag_placeholder"`
}

// fallbackRefPlaceholder is shown when a provider declares no ref default.
const fallbackRefPlaceholder = "HEAD"

// Labels derives the label map keyed by provider id.
func Labels(r *Registry) map[string]LabelConfig {
	out := make(map[string]LabelConfig, r.Len())
	for _, d := range r.All() {
		placeholder := d.Ref.Default
		if placeholder == "" {
			placeholder = fallbackRefPlaceholder
		}
		out[d.ID] = LabelConfig{
			Text:              d.Repo.Label,
			TagText:           d.RefLabel(),
			RefPropDisabled:   !d.Ref.Enabled,
			LabelPropDisabled: !d.Ref.Enabled,
			TagPlaceholder:    placeholder,
		}
	}
	return out
}
