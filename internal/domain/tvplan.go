package domain

// Country is a country record from the TV-Plan API. IDs are strings
// because they are used as JSON object keys in the channels cache.
type Country struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// Label returns the human-readable country name, preferring the
// display name when the API provides one.
func (c Country) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.Name != "" {
		return c.Name
	}
	return "Unknown"
}

// Channel is a TV channel record from the TV-Plan API.
type Channel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// Label returns the human-readable channel name, preferring the
// display name when the API provides one.
func (c Channel) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.Name != "" {
		return c.Name
	}
	return "Unknown"
}

// Program is a single schedule entry from the TV-Plan API.
// Start and End keep the API's string representation untouched since
// stub fixtures are stored verbatim.
type Program struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}
