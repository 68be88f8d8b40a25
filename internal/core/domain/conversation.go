package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Role identifies who authored a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Image is an inline raster payload, either attached by the user or generated
type Image struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// DataURL renders the image as a data URL
func (i *Image) DataURL() string {
	return "data:" + i.MimeType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ConversationTurn is one exchange unit of a conversation.
// An assistant turn's content grows while it streams and is frozen once Settled is set.
type ConversationTurn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Image     *Image    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Grounded  bool      `json:"grounded"` // Retrieval context was used
	Settled   bool      `json:"settled"`
	Cancelled bool      `json:"cancelled,omitempty"`
}

// Clone returns a deep copy safe to hand across goroutines
func (t *ConversationTurn) Clone() *ConversationTurn {
	c := *t
	if t.Image != nil {
		img := *t.Image
		img.Data = append([]byte(nil), t.Image.Data...)
		c.Image = &img
	}
	return &c
}

// TurnPhase is the orchestration state of an assistant turn
type TurnPhase string

const (
	TurnPhaseIdle       TurnPhase = "idle"
	TurnPhaseRetrieving TurnPhase = "retrieving"
	TurnPhaseGenerating TurnPhase = "generating"
	TurnPhaseSettled    TurnPhase = "settled"
)

// TurnEventType identifies what changed on a turn
type TurnEventType string

const (
	TurnEventPhase TurnEventType = "phase"
	TurnEventDelta TurnEventType = "delta"
	TurnEventImage TurnEventType = "image"
)

// TurnEvent is emitted to observers as an assistant turn progresses
type TurnEvent struct {
	Type   TurnEventType `json:"type"`
	TurnID string        `json:"turn_id"`
	Phase  TurnPhase     `json:"phase,omitempty"`
	Delta  string        `json:"delta,omitempty"`
	Image  *Image        `json:"image,omitempty"`
}

// GenerationRequest is sent to the text generation provider
type GenerationRequest struct {
	SystemInstructions string
	Context            string // Retrieved grounding, may be empty
	Prompt             string
	Image              *Image
}

// ImageRequest is sent to the image generation provider
type ImageRequest struct {
	Prompt    string
	Knowledge string
}

// TurnObserver receives events for an assistant turn in the order they happen.
// Observers are called synchronously and must not block for long.
type TurnObserver func(TurnEvent)

// AskRequest is one user question, optionally with an attached image
type AskRequest struct {
	Query    string
	Image    *Image
	Observer TurnObserver
}

// IsImageOnly reports whether the question consists only of an attached image
func (r AskRequest) IsImageOnly() bool {
	return r.Image != nil && strings.TrimSpace(r.Query) == ""
}

// Validate checks that the request carries a question or an image
func (r AskRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" && r.Image == nil {
		return fmt.Errorf("%w: query or image required", ErrInvalidInput)
	}
	if r.Image != nil && (len(r.Image.Data) == 0 || !strings.HasPrefix(r.Image.MimeType, "image/")) {
		return fmt.Errorf("%w: attached image must carry image data", ErrInvalidInput)
	}
	return nil
}
