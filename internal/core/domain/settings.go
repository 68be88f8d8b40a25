package domain

// Default Gemini models used when none are configured
const (
	DefaultTextModel  = "gemini-3-flash-preview"
	DefaultImageModel = "gemini-3-pro-image-preview"
)

// GenerationSettings configures the generation providers.
// Image generation is optional; an empty ImageModel disables illustrations.
type GenerationSettings struct {
	APIKey     string `json:"-"`
	TextModel  string `json:"text_model"`
	ImageModel string `json:"image_model,omitempty"`
	BaseURL    string `json:"base_url,omitempty"` // Overrides the provider endpoint (tests, proxies)
}

// IsConfigured reports whether a text generator can be created
func (s *GenerationSettings) IsConfigured() bool {
	return s != nil && s.APIKey != "" && s.TextModel != ""
}

// ImageConfigured reports whether an image generator can be created
func (s *GenerationSettings) ImageConfigured() bool {
	return s.IsConfigured() && s.ImageModel != ""
}
