package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

// fakeGemini records request bodies and serves canned responses per method
type fakeGemini struct {
	mu     sync.Mutex
	bodies []string
	paths  []string

	stream   []string // SSE payloads for streamGenerateContent
	generate string   // JSON body for generateContent
	status   int
}

func (f *fakeGemini) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.bodies = append(f.bodies, string(body))
	f.paths = append(f.paths, r.URL.Path)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		fmt.Fprintf(w, `{"error":{"code":%d,"message":"boom","status":"INTERNAL"}}`, f.status)
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, ":streamGenerateContent"):
		w.Header().Set("Content-Type", "text/event-stream")
		for _, payload := range f.stream {
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
	case strings.HasSuffix(r.URL.Path, ":generateContent"):
		_, _ = io.WriteString(w, f.generate)
	default:
		_, _ = io.WriteString(w, `{"name":"models/test-model"}`)
	}
}

func (f *fakeGemini) lastBody() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bodies) == 0 {
		return ""
	}
	return f.bodies[len(f.bodies)-1]
}

func newFakeGemini(t *testing.T, f *fakeGemini) ClientConfig {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(f.handler))
	t.Cleanup(srv.Close)
	return ClientConfig{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()}
}

func textChunk(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, text)
}

func TestNewTextGenerator_RequiresAPIKey(t *testing.T) {
	_, err := NewTextGenerator(context.Background(), ClientConfig{}, "")
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNewTextGenerator_DefaultModel(t *testing.T) {
	gen, err := NewTextGenerator(context.Background(), ClientConfig{APIKey: "k"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Model() != domain.DefaultTextModel {
		t.Errorf("expected default model %s, got %s", domain.DefaultTextModel, gen.Model())
	}
}

func TestTextGenerator_StreamAnswer(t *testing.T) {
	fake := &fakeGemini{stream: []string{textChunk("Hello "), textChunk(""), textChunk("world")}}
	gen, err := NewTextGenerator(context.Background(), newFakeGemini(t, fake), "test-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := domain.GenerationRequest{
		SystemInstructions: "Be a tutor",
		Context:            "Monsoons bring rain",
		Prompt:             "Student question: why rain?",
	}

	var got []string
	for chunk, err := range gen.StreamAnswer(context.Background(), req) {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		got = append(got, chunk)
	}

	if strings.Join(got, "") != "Hello world" {
		t.Errorf("expected 'Hello world', got %q", strings.Join(got, ""))
	}
	if len(got) != 2 {
		t.Errorf("expected empty chunks to be skipped, got %d chunks", len(got))
	}

	body := fake.lastBody()
	for _, want := range []string{"Be a tutor", contextPreamble[:20], "Monsoons bring rain", "why rain?"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected request body to contain %q, body: %s", want, body)
		}
	}
	if !strings.Contains(fake.paths[0], "models/test-model:streamGenerateContent") {
		t.Errorf("unexpected path %s", fake.paths[0])
	}
}

func TestTextGenerator_StreamAnswer_Lazy(t *testing.T) {
	fake := &fakeGemini{stream: []string{textChunk("x")}}
	gen, err := NewTextGenerator(context.Background(), newFakeGemini(t, fake), "test-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = gen.StreamAnswer(context.Background(), domain.GenerationRequest{Prompt: "q"})
	if body := fake.lastBody(); body != "" {
		t.Error("expected no request before the sequence is ranged over")
	}
}

func TestTextGenerator_StreamAnswer_ServerError(t *testing.T) {
	fake := &fakeGemini{status: http.StatusInternalServerError}
	gen, err := NewTextGenerator(context.Background(), newFakeGemini(t, fake), "test-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var streamErr error
	for _, err := range gen.StreamAnswer(context.Background(), domain.GenerationRequest{Prompt: "q"}) {
		if err != nil {
			streamErr = err
		}
	}
	if streamErr == nil {
		t.Error("expected stream error")
	}
}

func TestAnswerParts(t *testing.T) {
	img := &domain.Image{MimeType: "image/jpeg", Data: []byte{0xff, 0xd8}}

	parts := answerParts(domain.GenerationRequest{Context: "ctx", Image: img, Prompt: "q"})
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if parts[0].Text != contextPreamble+"ctx" {
		t.Errorf("unexpected context part %q", parts[0].Text)
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "image/jpeg" {
		t.Error("expected inline image as second part")
	}
	if parts[2].Text != "q" {
		t.Errorf("expected prompt last, got %q", parts[2].Text)
	}

	parts = answerParts(domain.GenerationRequest{Prompt: "q"})
	if len(parts) != 1 {
		t.Errorf("expected prompt only, got %d parts", len(parts))
	}
}

func TestTextGenerator_Ping(t *testing.T) {
	fake := &fakeGemini{}
	gen, err := NewTextGenerator(context.Background(), newFakeGemini(t, fake), "test-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := gen.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}

	fake.status = http.StatusUnauthorized
	if err := gen.Ping(context.Background()); err == nil {
		t.Error("expected ping error")
	}
}

func TestImageGenerator_GenerateImage(t *testing.T) {
	data := []byte("png-bytes")
	fake := &fakeGemini{generate: fmt.Sprintf(
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"here"},{"inlineData":{"mimeType":"image/png","data":%q}}]}}]}`,
		base64.StdEncoding.EncodeToString(data),
	)}
	gen, err := NewImageGenerator(context.Background(), newFakeGemini(t, fake), "image-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, err := gen.GenerateImage(context.Background(), domain.ImageRequest{Prompt: "Mekong delta", Knowledge: "alluvial plain"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MimeType != "image/png" || string(img.Data) != "png-bytes" {
		t.Errorf("unexpected image %+v", img)
	}

	body := fake.lastBody()
	for _, want := range []string{"16:9", "4K", "Mekong delta", "alluvial plain"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected request body to contain %q", want)
		}
	}
}

func TestImageGenerator_NoImage(t *testing.T) {
	fake := &fakeGemini{generate: textChunk("sorry, text only")}
	gen, err := NewImageGenerator(context.Background(), newFakeGemini(t, fake), "image-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = gen.GenerateImage(context.Background(), domain.ImageRequest{Prompt: "q"})
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("expected ErrNoImage, got %v", err)
	}
}

func TestIllustrationPrompt(t *testing.T) {
	prompt := IllustrationPrompt("Why is the Truong Son range curved?", "Relief follows the coast")
	for _, want := range []string{"Truong Son", "Relief follows the coast", "North", "16:9"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestFactory(t *testing.T) {
	factory := NewFactory(nil)
	ctx := context.Background()

	text, err := factory.CreateTextGenerator(ctx, nil)
	if err != nil || text != nil {
		t.Errorf("expected nil, nil for nil settings, got %v, %v", text, err)
	}

	settings := &domain.GenerationSettings{APIKey: "k", TextModel: "text-model"}
	text, err = factory.CreateTextGenerator(ctx, settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text == nil || text.Model() != "text-model" {
		t.Errorf("unexpected text generator %v", text)
	}

	image, err := factory.CreateImageGenerator(ctx, settings)
	if err != nil || image != nil {
		t.Errorf("expected no image generator without image model, got %v, %v", image, err)
	}

	settings.ImageModel = "image-model"
	image, err = factory.CreateImageGenerator(ctx, settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if image == nil || image.Model() != "image-model" {
		t.Errorf("unexpected image generator %v", image)
	}
}
