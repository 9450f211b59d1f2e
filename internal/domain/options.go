package domain

// SelectOption is one entry of a TRMNL select field. TRMNL expects each
// option as a single-pair YAML mapping of label to value.
type SelectOption struct {
	Label string
	Value string
}

// MarshalYAML renders the option as the single-pair mapping TRMNL expects.
func (o SelectOption) MarshalYAML() (interface{}, error) {
	return map[string]string{o.Label: o.Value}, nil
}

// CustomField is one entry of the plugin's options.yml, describing a
// setting the TRMNL platform shows on the plugin's configuration page.
type CustomField struct {
	Keyname      string         `yaml:"keyname"`
	FieldType    string         `yaml:"field_type"`
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description,omitempty"`
	Placeholder  string         `yaml:"placeholder,omitempty"`
	Multiple     bool           `yaml:"multiple,omitempty"`
	HelpText     string         `yaml:"help_text,omitempty"`
	Options      []SelectOption `yaml:"options,omitempty"`
	Default      string         `yaml:"default,omitempty"`
	Optional     bool           `yaml:"optional,omitempty"`
	GitHubURL    string         `yaml:"github_url,omitempty"`
	LearnMoreURL string         `yaml:"learn_more_url,omitempty"`
}
