package domain

import "testing"

func TestGenerationSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name      string
		settings  *GenerationSettings
		wantText  bool
		wantImage bool
	}{
		{"nil", nil, false, false},
		{"no key", &GenerationSettings{TextModel: DefaultTextModel}, false, false},
		{"text only", &GenerationSettings{APIKey: "k", TextModel: DefaultTextModel}, true, false},
		{"text and image", &GenerationSettings{APIKey: "k", TextModel: DefaultTextModel, ImageModel: DefaultImageModel}, true, true},
		{"image without text", &GenerationSettings{APIKey: "k", ImageModel: DefaultImageModel}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.IsConfigured(); got != tt.wantText {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.wantText)
			}
			if got := tt.settings.ImageConfigured(); got != tt.wantImage {
				t.Errorf("ImageConfigured() = %v, want %v", got, tt.wantImage)
			}
		})
	}
}
