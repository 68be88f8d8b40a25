package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driving"
	"github.com/custodia-labs/galaxy-core/internal/runtime"
)

// Ensure AnswerOrchestrator implements AnswerService
var _ driving.AnswerService = (*AnswerOrchestrator)(nil)

const (
	defaultTextTimeout  = 2 * time.Minute
	defaultImageTimeout = 90 * time.Second
	welcomeTurnID       = "welcome"
)

// ProgressSource reports global ingestion progress
type ProgressSource interface {
	Progress() (int, bool)
}

// AnswerOrchestrator produces grounded assistant turns and owns the session.
//
// Each turn runs a streamed text job and an illustration job concurrently and
// settles only after both have finished. Starting a new turn cancels the one in
// flight; anything the cancelled jobs produce afterwards is discarded.
type AnswerOrchestrator struct {
	retrieval    driving.RetrievalService
	knowledge    driven.KnowledgeStore
	progress     ProgressSource
	vault        driving.VaultService
	services     *runtime.Services
	logger       *slog.Logger
	textTimeout  time.Duration
	imageTimeout time.Duration
	now          func() time.Time

	mu     sync.Mutex
	turns  []*domain.ConversationTurn
	active *turnRun
}

// turnRun is the in-flight state of one assistant turn.
// Fields other than emitMu are guarded by the orchestrator's mu.
type turnRun struct {
	id        string
	turn      *domain.ConversationTurn
	phase     domain.TurnPhase
	cancel    context.CancelFunc
	cancelled bool

	// emitMu serialises observer calls from the two jobs
	emitMu   sync.Mutex
	observer domain.TurnObserver
}

// AnswerConfig holds configuration for the answer orchestrator.
type AnswerConfig struct {
	Retrieval driving.RetrievalService
	Knowledge driven.KnowledgeStore // Optional: lets prompts tell an empty store apart
	Progress  ProgressSource        // Optional: ingestion progress for prompt hedging
	Vault     driving.VaultService  // Optional: auto-save on settlement
	Services  *runtime.Services
	Logger    *slog.Logger

	TextTimeout  time.Duration // Bound on the text job (default: 2m)
	ImageTimeout time.Duration // Bound on the image job (default: 90s)

	// Now overrides the clock (default: time.Now)
	Now func() time.Time
}

// NewAnswerOrchestrator creates a new orchestrator with a fresh session.
func NewAnswerOrchestrator(cfg AnswerConfig) *AnswerOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	textTimeout := cfg.TextTimeout
	if textTimeout <= 0 {
		textTimeout = defaultTextTimeout
	}

	imageTimeout := cfg.ImageTimeout
	if imageTimeout <= 0 {
		imageTimeout = defaultImageTimeout
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	o := &AnswerOrchestrator{
		retrieval:    cfg.Retrieval,
		knowledge:    cfg.Knowledge,
		progress:     cfg.Progress,
		vault:        cfg.Vault,
		services:     cfg.Services,
		logger:       logger,
		textTimeout:  textTimeout,
		imageTimeout: imageTimeout,
		now:          now,
	}
	o.turns = []*domain.ConversationTurn{o.welcomeTurn()}
	return o
}

// Ask appends the user turn, produces the assistant turn and blocks until it settles.
// A turn superseded by a newer Ask or a Reset settles early with Cancelled set.
func (o *AnswerOrchestrator) Ask(ctx context.Context, req domain.AskRequest) (*domain.ConversationTurn, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	text := o.services.TextGenerator()
	if text == nil {
		return nil, domain.ErrGenerationUnavailable
	}
	var image driven.ImageGenerator
	if req.Image == nil {
		image = o.services.ImageGenerator()
	}

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := o.begin(req, cancel)
	start := o.now()
	o.logger.Info("turn started", "turn_id", run.id, "image_attached", req.Image != nil)

	o.emit(run, domain.TurnEvent{Type: domain.TurnEventPhase, Phase: domain.TurnPhaseRetrieving})

	grounding, err := o.retrieval.Context(turnCtx, req.Query)
	if err != nil {
		if turnCtx.Err() == nil {
			o.logger.Warn("retrieval failed, answering without grounding", "turn_id", run.id, "error", err)
		}
		grounding = ""
	}

	if !o.attach(run, grounding != "") {
		return o.settle(ctx, run, req, start), nil
	}
	o.emit(run, domain.TurnEvent{Type: domain.TurnEventPhase, Phase: domain.TurnPhaseGenerating})

	genReq := BuildGenerationRequest(req, grounding, o.instructions())

	g, gctx := errgroup.WithContext(turnCtx)
	g.Go(func() error {
		o.runText(gctx, run, text, genReq)
		return nil
	})
	if image != nil {
		g.Go(func() error {
			o.runImage(gctx, run, image, BuildImageRequest(req.Query, grounding))
			return nil
		})
	}
	_ = g.Wait()

	return o.settle(ctx, run, req, start), nil
}

// Conversation returns copies of all turns in the current session
func (o *AnswerOrchestrator) Conversation(ctx context.Context) []*domain.ConversationTurn {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]*domain.ConversationTurn, len(o.turns))
	for i, t := range o.turns {
		out[i] = t.Clone()
	}
	return out
}

// Phase returns the phase of the turn in flight, or idle
func (o *AnswerOrchestrator) Phase() domain.TurnPhase {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active == nil {
		return domain.TurnPhaseIdle
	}
	return o.active.phase
}

// Restore replaces the session with one rebuilt from an archived entry
func (o *AnswerOrchestrator) Restore(ctx context.Context, entryID string) ([]*domain.ConversationTurn, error) {
	if o.vault == nil {
		return nil, fmt.Errorf("restore %s: %w", entryID, domain.ErrNotFound)
	}

	turns, err := o.vault.Restore(ctx, entryID)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.cancelActiveLocked()
	o.turns = turns
	o.mu.Unlock()

	o.logger.Info("session restored", "entry_id", entryID)
	return o.Conversation(ctx), nil
}

// Reset cancels any in-flight turn and starts a fresh session
func (o *AnswerOrchestrator) Reset(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cancelActiveLocked()
	o.turns = []*domain.ConversationTurn{o.welcomeTurn()}
}

// begin records the user turn and makes run the active turn, cancelling its predecessor.
func (o *AnswerOrchestrator) begin(req domain.AskRequest, cancel context.CancelFunc) *turnRun {
	now := o.now()
	user := &domain.ConversationTurn{
		ID:        domain.GenerateID(),
		Role:      domain.RoleUser,
		Content:   userMessage(req),
		CreatedAt: now,
		Settled:   true,
	}
	if req.Image != nil {
		img := *req.Image
		user.Image = &img
	}

	run := &turnRun{
		id:       domain.GenerateID(),
		phase:    domain.TurnPhaseRetrieving,
		cancel:   cancel,
		observer: req.Observer,
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil {
		o.logger.Info("turn superseded", "turn_id", o.active.id, "by", run.id)
	}
	o.cancelActiveLocked()
	o.turns = append(o.turns, user)
	o.active = run
	return run
}

// attach appends the assistant turn once grounding is known.
// Returns false when the run was cancelled during retrieval.
func (o *AnswerOrchestrator) attach(run *turnRun, grounded bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	run.turn = &domain.ConversationTurn{
		ID:        run.id,
		Role:      domain.RoleAssistant,
		CreatedAt: o.now(),
		Grounded:  grounded,
	}
	if run.cancelled {
		return false
	}

	o.turns = append(o.turns, run.turn)
	run.phase = domain.TurnPhaseGenerating
	return true
}

func (o *AnswerOrchestrator) runText(ctx context.Context, run *turnRun, gen driven.TextGenerator, req domain.GenerationRequest) {
	ctx, cancel := context.WithTimeout(ctx, o.textTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("text job panicked", "turn_id", run.id, "panic", r)
		}
	}()

	for piece, err := range gen.StreamAnswer(ctx, req) {
		if err != nil {
			if !o.isCancelled(run) {
				o.logger.Error("text generation failed, keeping partial answer", "turn_id", run.id, "error", err)
			}
			return
		}
		if piece == "" {
			continue
		}
		if !o.appendDelta(run, piece) {
			return
		}
	}
}

func (o *AnswerOrchestrator) runImage(ctx context.Context, run *turnRun, gen driven.ImageGenerator, req domain.ImageRequest) {
	ctx, cancel := context.WithTimeout(ctx, o.imageTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("image job panicked", "turn_id", run.id, "panic", r)
		}
	}()

	img, err := gen.GenerateImage(ctx, req)
	if err != nil {
		if !o.isCancelled(run) {
			o.logger.Warn("illustration failed", "turn_id", run.id, "error", err)
		}
		return
	}
	if img == nil || len(img.Data) == 0 {
		return
	}

	o.mu.Lock()
	if run.cancelled || run.turn.Image != nil {
		o.mu.Unlock()
		return
	}
	run.turn.Image = img
	o.mu.Unlock()

	o.emit(run, domain.TurnEvent{Type: domain.TurnEventImage, Image: img})
}

// appendDelta applies one streamed increment. Returns false once the run is cancelled.
func (o *AnswerOrchestrator) appendDelta(run *turnRun, piece string) bool {
	run.emitMu.Lock()
	defer run.emitMu.Unlock()

	o.mu.Lock()
	if run.cancelled {
		o.mu.Unlock()
		return false
	}
	run.turn.Content += piece
	o.mu.Unlock()

	if run.observer != nil {
		run.observer(domain.TurnEvent{Type: domain.TurnEventDelta, TurnID: run.id, Delta: piece})
	}
	return true
}

// settle freezes the turn, clears the active run and auto-saves when tracking is on.
func (o *AnswerOrchestrator) settle(ctx context.Context, run *turnRun, req domain.AskRequest, start time.Time) *domain.ConversationTurn {
	o.mu.Lock()
	if run.turn == nil {
		run.turn = &domain.ConversationTurn{ID: run.id, Role: domain.RoleAssistant, CreatedAt: o.now()}
	}
	if ctx.Err() != nil {
		run.cancelled = true
	}
	run.turn.Settled = true
	run.turn.Cancelled = run.cancelled
	run.phase = domain.TurnPhaseSettled
	if o.active == run {
		o.active = nil
	}
	final := run.turn.Clone()
	o.mu.Unlock()

	o.emit(run, domain.TurnEvent{Type: domain.TurnEventPhase, Phase: domain.TurnPhaseSettled})

	o.logger.Info("turn settled",
		"turn_id", run.id,
		"cancelled", final.Cancelled,
		"chars", len(final.Content),
		"image", final.Image != nil,
		"duration", time.Since(start),
	)

	if final.Cancelled || o.vault == nil {
		return final
	}
	if _, err := o.vault.Record(ctx, autoSaveTitle(req), final.Content); err != nil {
		o.logger.Error("auto-save failed", "turn_id", run.id, "error", err)
	}
	return final
}

// emit sends a non-delta event to the run's observer
func (o *AnswerOrchestrator) emit(run *turnRun, event domain.TurnEvent) {
	if run.observer == nil {
		return
	}
	event.TurnID = run.id

	run.emitMu.Lock()
	defer run.emitMu.Unlock()
	run.observer(event)
}

func (o *AnswerOrchestrator) isCancelled(run *turnRun) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return run.cancelled
}

func (o *AnswerOrchestrator) cancelActiveLocked() {
	if o.active == nil {
		return
	}
	o.active.cancelled = true
	o.active.cancel()
	o.active = nil
}

// instructions picks the system instructions from the current ingestion state
func (o *AnswerOrchestrator) instructions() string {
	progress, ingesting := 0, false
	if o.progress != nil {
		progress, ingesting = o.progress.Progress()
	}
	count := 0
	if o.knowledge != nil {
		count = o.knowledge.Count()
	}
	return SystemInstructions(progress, ingesting, count)
}

func (o *AnswerOrchestrator) welcomeTurn() *domain.ConversationTurn {
	return &domain.ConversationTurn{
		ID:        welcomeTurnID,
		Role:      domain.RoleAssistant,
		Content:   welcomeMessage,
		CreatedAt: o.now(),
		Settled:   true,
	}
}
