package domain

import (
	"errors"
	"testing"
	"time"
)

func TestAskRequest_Validate(t *testing.T) {
	png := &Image{MimeType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}

	tests := []struct {
		name    string
		req     AskRequest
		wantErr bool
	}{
		{"query only", AskRequest{Query: "Why do deltas form?"}, false},
		{"image only", AskRequest{Image: png}, false},
		{"query and image", AskRequest{Query: "What is this?", Image: png}, false},
		{"blank", AskRequest{Query: "   "}, true},
		{"empty image", AskRequest{Image: &Image{MimeType: "image/png"}}, true},
		{"not an image", AskRequest{Image: &Image{MimeType: "application/pdf", Data: []byte("x")}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAskRequest_IsImageOnly(t *testing.T) {
	png := &Image{MimeType: "image/png", Data: []byte{1}}

	if !(AskRequest{Image: png}).IsImageOnly() {
		t.Error("expected image-only request")
	}
	if (AskRequest{Query: "q", Image: png}).IsImageOnly() {
		t.Error("request with text is not image-only")
	}
}

func TestConversationTurn_Clone(t *testing.T) {
	turn := &ConversationTurn{
		ID:      "t1",
		Role:    RoleAssistant,
		Content: "Hello",
		Image:   &Image{MimeType: "image/png", Data: []byte{1, 2, 3}},
	}

	c := turn.Clone()
	c.Content = "changed"
	c.Image.Data[0] = 9

	if turn.Content != "Hello" {
		t.Error("clone must not share content")
	}
	if turn.Image.Data[0] != 1 {
		t.Error("clone must not share image bytes")
	}
}

func TestImage_DataURL(t *testing.T) {
	img := &Image{MimeType: "image/png", Data: []byte("abc")}
	if got := img.DataURL(); got != "data:image/png;base64,YWJj" {
		t.Errorf("unexpected data url %s", got)
	}
}

func TestExportFileName(t *testing.T) {
	now := time.Date(2024, 5, 12, 23, 59, 0, 0, time.UTC)
	if got := ExportFileName(now); got != "galaxy_vault_2024-05-12.json" {
		t.Errorf("unexpected file name %s", got)
	}
}
