package gemini

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// Ensure TextGenerator implements driven.TextGenerator
var _ driven.TextGenerator = (*TextGenerator)(nil)

const contextPreamble = "Additional material from the student's archive:\n"

// TextGenerator streams tutoring answers from a Gemini model
type TextGenerator struct {
	client *genai.Client
	model  string
}

// NewTextGenerator creates a streaming text generator
func NewTextGenerator(ctx context.Context, cfg ClientConfig, model string) (*TextGenerator, error) {
	if model == "" {
		model = domain.DefaultTextModel
	}

	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &TextGenerator{client: client, model: model}, nil
}

// StreamAnswer sends the question with its grounding and optional image.
// Empty chunks are skipped; a transport failure ends the sequence.
func (g *TextGenerator) StreamAnswer(ctx context.Context, req domain.GenerationRequest) iter.Seq2[string, error] {
	contents := []*genai.Content{genai.NewContentFromParts(answerParts(req), genai.RoleUser)}

	var config *genai.GenerateContentConfig
	if req.SystemInstructions != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemInstructions, genai.RoleUser),
		}
	}

	return func(yield func(string, error) bool) {
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

// answerParts orders the request as grounding, image, then the question
func answerParts(req domain.GenerationRequest) []*genai.Part {
	parts := make([]*genai.Part, 0, 3)
	if req.Context != "" {
		parts = append(parts, genai.NewPartFromText(contextPreamble+req.Context))
	}
	if req.Image != nil && len(req.Image.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MimeType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	return parts
}

// Model returns the model name
func (g *TextGenerator) Model() string {
	return g.model
}

// Ping verifies the model is reachable with the configured key
func (g *TextGenerator) Ping(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
		return fmt.Errorf("gemini ping: %w", err)
	}
	return nil
}

// Close is a no-op, the genai client holds no resources
func (g *TextGenerator) Close() error {
	return nil
}
