package models

// Provider represents an OpenAI-compatible language model API provider.
type Provider struct {
	Name       string `json:"name"`
	BaseURL    string `json:"base_url"`
	APIKey     string `json:"api_key,omitempty"` // Omit from responses for security
	Model      string `json:"model"`             // Main tier model
	CheapModel string `json:"cheap_model"`       // Cheap tier model for simple factual queries
	Enabled    bool   `json:"enabled"`
}

// ProvidersConfig is the shape of the providers JSON file.
type ProvidersConfig struct {
	Providers []Provider `json:"providers"`
}

// DefaultProvider returns the first enabled provider, or nil.
func (c *ProvidersConfig) DefaultProvider() *Provider {
	for i := range c.Providers {
		if c.Providers[i].Enabled {
			return &c.Providers[i]
		}
	}
	return nil
}
