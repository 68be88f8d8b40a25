package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// Ensure ImageGenerator implements driven.ImageGenerator
var _ driven.ImageGenerator = (*ImageGenerator)(nil)

// ErrNoImage indicates the model answered without an image part
var ErrNoImage = errors.New("gemini returned no image")

const (
	illustrationAspectRatio = "16:9"
	illustrationSize        = "4K"
	defaultImageMimeType    = "image/png"
)

// ImageGenerator renders geography infographics with a Gemini image model
type ImageGenerator struct {
	client *genai.Client
	model  string
}

// NewImageGenerator creates an image generator
func NewImageGenerator(ctx context.Context, cfg ClientConfig, model string) (*ImageGenerator, error) {
	if model == "" {
		model = domain.DefaultImageModel
	}

	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &ImageGenerator{client: client, model: model}, nil
}

// GenerateImage returns the first inline image of the first candidate
func (g *ImageGenerator) GenerateImage(ctx context.Context, req domain.ImageRequest) (*domain.Image, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(IllustrationPrompt(req.Prompt, req.Knowledge), genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: illustrationAspectRatio,
			ImageSize:   illustrationSize,
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini image: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoImage
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = defaultImageMimeType
		}
		return &domain.Image{MimeType: mimeType, Data: part.InlineData.Data}, nil
	}
	return nil, ErrNoImage
}

// IllustrationPrompt builds the infographic instructions for a question and its knowledge text
func IllustrationPrompt(query, knowledge string) string {
	var b strings.Builder
	b.WriteString("You are an information designer for geography education.\n")
	b.WriteString("Task: create a 4K image that explains the knowledge drawn from two sources:\n")
	fmt.Fprintf(&b, "1. The student's question: %q\n", query)
	fmt.Fprintf(&b, "2. The knowledge text: %q\n\n", knowledge)
	b.WriteString("MAP PROJECTION (ORTHOGRAPHIC NADIR):\n")
	b.WriteString("- Use a straight top-down view at 90 degrees with no perspective tilt.\n")
	b.WriteString("- North must always point to the top centre of the frame.\n")
	b.WriteString("- Background: a real, flat, high quality satellite or field photograph.\n\n")
	b.WriteString("ANNOTATIONS (WHITE CHALK LAYER):\n")
	b.WriteString("- Identify the main headings, the processes (wind, relief, flow directions) or geographic parts from the text and the question.\n")
	b.WriteString("- Draw diagrams, process arrows and labels in white chalk strokes directly on the background.\n")
	b.WriteString("- Blueprint aesthetic with the title in a boxed corner.\n\n")
	b.WriteString("Keep every place and feature geographically accurate.\n")
	b.WriteString("FORMAT: 16:9 aspect ratio, 4K resolution.")
	return b.String()
}

// Model returns the model name
func (g *ImageGenerator) Model() string {
	return g.model
}

// Close is a no-op, the genai client holds no resources
func (g *ImageGenerator) Close() error {
	return nil
}
