package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driving"
)

// Ensure IngestionScheduler implements IngestionService
var _ driving.IngestionService = (*IngestionScheduler)(nil)

const (
	defaultIngestInterval = 400 * time.Millisecond
	defaultIngestStep     = 5
	eventBufferSize       = 64
)

// IngestionScheduler drives uploaded files through the progress state machine
// and feeds completed files into the knowledge store.
//
// The recurring tick is demand driven: it is armed when a processing file appears
// and disarms itself once no file is processing.
type IngestionScheduler struct {
	store       driven.KnowledgeStore
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	logger      *slog.Logger
	interval    time.Duration
	step        int
	manual      bool
	now         func() time.Time

	// ctx bounds chunk ingestion started by the background loop
	ctx    context.Context
	cancel context.CancelFunc

	// tickMu serialises ticks so a file is completed by exactly one of them
	tickMu sync.Mutex

	mu      sync.Mutex
	files   map[string]*trackedFile
	armed   bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	subMu   sync.Mutex
	subs    map[int]chan domain.IngestionEvent
	nextSub int
}

// trackedFile is the scheduler's private record for a file
type trackedFile struct {
	file       domain.UploadedFile
	content    []byte
	completing bool // progress reached 100 and chunk ingestion has been claimed
}

// IngestionConfig holds configuration for the ingestion scheduler.
type IngestionConfig struct {
	Store       driven.KnowledgeStore
	Normalisers driven.NormaliserRegistry     // Optional: text extraction per MIME type
	Pipeline    driven.PostProcessorPipeline // Optional: chunking and tagging
	Logger      *slog.Logger
	Interval    time.Duration // Time between ticks (default: 400ms)
	Step        int           // Progress points added per tick (default: 5)

	// ManualTicks disables the background loop; progress only advances through Tick.
	ManualTicks bool

	// Now overrides the clock (default: time.Now)
	Now func() time.Time
}

// NewIngestionScheduler creates a new ingestion scheduler.
func NewIngestionScheduler(cfg IngestionConfig) *IngestionScheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultIngestInterval
	}

	step := cfg.Step
	if step <= 0 {
		step = defaultIngestStep
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &IngestionScheduler{
		store:       cfg.Store,
		normalisers: cfg.Normalisers,
		pipeline:    cfg.Pipeline,
		logger:      logger,
		interval:    interval,
		step:        step,
		manual:      cfg.ManualTicks,
		now:         now,
		ctx:         ctx,
		cancel:      cancel,
		files:       make(map[string]*trackedFile),
		subs:        make(map[int]chan domain.IngestionEvent),
	}
}

// Submit registers a new processing file and arms the scheduler if idle.
func (s *IngestionScheduler) Submit(ctx context.Context, upload domain.FileUpload) (*domain.UploadedFile, error) {
	name := strings.TrimSpace(upload.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: file name required", domain.ErrInvalidInput)
	}
	if upload.Size < 0 {
		return nil, fmt.Errorf("%w: negative file size", domain.ErrInvalidInput)
	}

	kind := upload.Kind
	if kind == "" {
		kind = domain.KindFromName(name)
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", domain.ErrInvalidInput, kind)
	}

	size := upload.Size
	if size == 0 {
		size = int64(len(upload.Content))
	}

	tracked := &trackedFile{
		file: domain.UploadedFile{
			ID:        domain.GenerateID(),
			Name:      name,
			Size:      domain.FormatFileSize(size),
			Progress:  0,
			Status:    domain.FileStatusProcessing,
			Kind:      kind,
			CreatedAt: s.now(),
		},
		content: upload.Content,
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, domain.ErrSchedulerStopped
	}
	s.files[tracked.file.ID] = tracked
	s.armLocked()
	s.mu.Unlock()

	s.logger.Info("file submitted for ingestion",
		"file_id", tracked.file.ID,
		"name", name,
		"kind", kind,
		"size", tracked.file.Size,
	)

	f := tracked.file
	return &f, nil
}

// List returns all known files, newest first.
func (s *IngestionScheduler) List(ctx context.Context) []*domain.UploadedFile {
	s.mu.Lock()
	files := make([]*domain.UploadedFile, 0, len(s.files))
	for _, t := range s.files {
		f := t.file
		files = append(files, &f)
	}
	s.mu.Unlock()

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].ID < files[j].ID
		}
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files
}

// Get retrieves a file by ID.
func (s *IngestionScheduler) Get(ctx context.Context, id string) (*domain.UploadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.files[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	f := t.file
	return &f, nil
}

// Remove forgets a file. Chunks it already produced stay in the store.
func (s *IngestionScheduler) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.files, id)
	s.logger.Info("file removed", "file_id", id)
	return nil
}

// Progress returns the rounded mean progress of processing files.
// The boolean is false when nothing is processing, which is distinct from 0%.
func (s *IngestionScheduler) Progress() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum, n := 0, 0
	for _, t := range s.files {
		if t.file.IsProcessing() {
			sum += t.file.Progress
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return int(math.Round(float64(sum) / float64(n))), true
}

// Armed reports whether the background tick is currently scheduled.
func (s *IngestionScheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// Subscribe returns a channel receiving one event per finished file.
// Call the returned function to unsubscribe.
func (s *IngestionScheduler) Subscribe() (<-chan domain.IngestionEvent, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan domain.IngestionEvent, eventBufferSize)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Tick advances every processing file by one step and completes the files that
// reach 100. It is called by the background loop and can be called directly
// when the scheduler is driven manually.
func (s *IngestionScheduler) Tick(ctx context.Context) {
	s.tick(ctx, false)
}

// Stop tears the scheduler down. Submissions after Stop fail with
// ErrSchedulerStopped and subscriber channels are closed.
func (s *IngestionScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	var done chan struct{}
	if s.armed {
		close(s.stopCh)
		done = s.doneCh
	}
	s.mu.Unlock()

	s.cancel()
	if done != nil {
		<-done
	}

	s.subMu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subMu.Unlock()

	s.logger.Info("ingestion scheduler stopped")
}

// armLocked starts the background loop if it is not running. Caller holds s.mu.
func (s *IngestionScheduler) armLocked() {
	if s.armed || s.manual || s.stopped {
		return
	}
	s.armed = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	s.logger.Debug("ingestion scheduler armed", "interval", s.interval)
	go s.run(s.stopCh, s.doneCh)
}

// run is the background loop. It exits when a tick finds nothing to process.
func (s *IngestionScheduler) run(stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !s.tick(s.ctx, true) {
				s.logger.Debug("ingestion scheduler idle")
				return
			}
		}
	}
}

// tick performs one scheduling step. When called from the loop it disarms the
// scheduler, atomically with respect to Submit, if no file is left processing,
// and reports whether the loop should keep running.
func (s *IngestionScheduler) tick(ctx context.Context, fromLoop bool) bool {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	type completion struct {
		file    domain.UploadedFile
		content []byte
	}

	s.mu.Lock()
	var due []completion
	for _, t := range s.files {
		if !t.file.IsProcessing() || t.completing {
			continue
		}
		next := t.file.Progress + s.step
		if next >= 100 {
			t.file.Progress = 100
			t.completing = true
			due = append(due, completion{file: t.file, content: t.content})
			continue
		}
		t.file.Progress = next
	}
	s.mu.Unlock()

	// Complete in submission order so chunks land in the store deterministically
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].file.CreatedAt.Before(due[j].file.CreatedAt)
	})

	for _, c := range due {
		count, err := s.ingestFile(ctx, c.file, c.content)
		s.finish(c.file, count, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.files {
		if t.file.IsProcessing() {
			return true
		}
	}
	if fromLoop {
		s.armed = false
	}
	return false
}

// finish records the outcome of a completed file and publishes its event.
func (s *IngestionScheduler) finish(file domain.UploadedFile, chunks int, err error) {
	event := domain.IngestionEvent{
		FileID:     file.ID,
		FileName:   file.Name,
		Status:     domain.FileStatusCompleted,
		ChunkCount: chunks,
		At:         s.now(),
	}
	if err != nil {
		event.Status = domain.FileStatusError
		event.Error = err.Error()
	}

	s.mu.Lock()
	t, ok := s.files[file.ID]
	if ok {
		t.file.Status = event.Status
		t.file.Error = event.Error
		t.content = nil
	}
	s.mu.Unlock()

	if !ok {
		s.logger.Info("removed file finished ingestion", "file_id", file.ID)
		return
	}

	if err != nil {
		s.logger.Error("file ingestion failed", "file_id", file.ID, "name", file.Name, "error", err)
	} else {
		s.logger.Info("file ingested", "file_id", file.ID, "name", file.Name, "chunks", chunks)
	}

	s.publish(event)
}

// ingestFile turns a file into chunks and appends them to the store.
// Panics raised while extracting or chunking are converted into errors.
func (s *IngestionScheduler) ingestFile(ctx context.Context, file domain.UploadedFile, content []byte) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			count = 0
			err = fmt.Errorf("%w: panic: %v", domain.ErrChunkingFailed, r)
		}
	}()

	if s.store == nil {
		return 0, fmt.Errorf("%w: no knowledge store configured", domain.ErrChunkingFailed)
	}

	text, err := s.extractText(file, content)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrChunkingFailed, err)
	}

	chunks := s.buildChunks(file, text)
	if err := s.store.Ingest(ctx, file.ID, chunks); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrChunkingFailed, err)
	}
	return len(chunks), nil
}

// extractText runs the best normaliser for the file's MIME type.
func (s *IngestionScheduler) extractText(file domain.UploadedFile, content []byte) (string, error) {
	if s.normalisers == nil || len(content) == 0 {
		return "", nil
	}
	mimeType := domain.MIMETypeFor(file.Name, file.Kind)
	n := s.normalisers.Get(mimeType)
	if n == nil {
		return "", nil
	}
	return n.Normalise(content, mimeType)
}

// buildChunks splits text into tagged chunks. Files without extractable text
// get a single summary chunk so they are still represented in the store.
func (s *IngestionScheduler) buildChunks(file domain.UploadedFile, text string) []*domain.DocumentChunk {
	var pieces []driven.Chunk
	if strings.TrimSpace(text) != "" {
		if s.pipeline != nil {
			pieces = s.pipeline.Process(text)
		} else {
			pieces = []driven.Chunk{{Content: text}}
		}
	}
	if len(pieces) == 0 {
		pieces = []driven.Chunk{summaryChunk(file)}
	}

	chunks := make([]*domain.DocumentChunk, len(pieces))
	for i, p := range pieces {
		topic := p.Topic
		if topic == "" {
			topic = summaryTopic
		}
		chunks[i] = &domain.DocumentChunk{
			ID:       domain.ChunkID(file.ID, i+1),
			FileID:   file.ID,
			Content:  p.Content,
			Topic:    topic,
			Keywords: p.Keywords,
		}
	}
	return chunks
}

// summaryTopic labels chunks that describe a file rather than quote it
const summaryTopic = "study material"

func summaryChunk(file domain.UploadedFile) driven.Chunk {
	return driven.Chunk{
		Content:  fmt.Sprintf("Content from %s: the study material has been organised into knowledge.", file.Name),
		Topic:    summaryTopic,
		Keywords: []string{"study material", "knowledge"},
	}
}

// publish delivers an event to every subscriber without blocking.
func (s *IngestionScheduler) publish(event domain.IngestionEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for id, ch := range s.subs {
		select {
		case ch <- event:
		default:
			s.logger.Warn("ingestion event dropped for slow subscriber", "subscriber", id, "file_id", event.FileID)
		}
	}
}
