package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driving"
)

const (
	// DefaultDebounce is how long a file must stay quiet before it is submitted
	DefaultDebounce = 250 * time.Millisecond

	// DefaultMaxFileBytes bounds a single dropped document
	DefaultMaxFileBytes = 32 << 20

	processedDir = "processed"
	rejectedDir  = "rejected"
)

// ErrNoUploadDir indicates the worker was configured without a drop folder
var ErrNoUploadDir = errors.New("upload directory not configured")

// Worker watches a drop folder and submits every document written into it
// for ingestion. Submitted files move to processed/, refused ones to rejected/.
// It also logs the completion events published by the ingestion service.
type Worker struct {
	ingestion    driving.IngestionService
	dir          string
	debounce     time.Duration
	maxFileBytes int64
	logger       *slog.Logger

	watcher *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]*time.Timer
	inflight  sync.WaitGroup

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	Ingestion    driving.IngestionService
	UploadDir    string
	Logger       *slog.Logger
	Debounce     time.Duration // Quiet period before a file is read (default: 250ms)
	MaxFileBytes int64         // Larger files are rejected (default: 32 MiB)
}

// NewWorker creates a new drop-folder worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	maxFileBytes := cfg.MaxFileBytes
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}

	return &Worker{
		ingestion:    cfg.Ingestion,
		dir:          cfg.UploadDir,
		debounce:     debounce,
		maxFileBytes: maxFileBytes,
		logger:       logger,
		pending:      make(map[string]*time.Timer),
	}
}

// Start creates the drop folder if needed, submits files already present
// and begins watching for new ones.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	if w.dir == "" {
		return ErrNoUploadDir
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	for _, sub := range []string{"", processedDir, rejectedDir} {
		if err := os.MkdirAll(filepath.Join(w.dir, sub), 0o755); err != nil {
			w.mu.Unlock()
			return fmt.Errorf("create upload dir: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.watcher = watcher
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("upload worker starting", "dir", w.dir, "debounce", w.debounce)

	events, unsubscribe := w.ingestion.Subscribe()

	go func() {
		defer close(w.doneCh)
		defer unsubscribe()
		w.processLoop(ctx, events)
	}()

	w.scanExisting()
	return nil
}

// Stop gracefully stops the worker. Pending debounced files are dropped and
// left in place for the next start; submissions already running complete.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.pendingMu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()
	w.inflight.Wait()

	_ = w.watcher.Close()

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("upload worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	w.mu.RLock()
	doneCh := w.doneCh
	w.mu.RUnlock()
	if doneCh != nil {
		<-doneCh
	}
}

// processLoop multiplexes filesystem and ingestion events.
func (w *Worker) processLoop(ctx context.Context, ingested <-chan domain.IngestionEvent) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("upload worker context cancelled")
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("upload watcher error", "error", err)
		case event, ok := <-ingested:
			if !ok {
				// Ingestion stopped; keep watching so files wait in place
				ingested = nil
				continue
			}
			w.logIngestion(event)
		}
	}
}

func (w *Worker) handleFSEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if filepath.Dir(event.Name) != filepath.Clean(w.dir) || ignoredName(filepath.Base(event.Name)) {
		return
	}
	w.schedule(event.Name)
}

// scanExisting schedules documents dropped while the worker was down
func (w *Worker) scanExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Error("failed to scan upload dir", "dir", w.dir, "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || ignoredName(entry.Name()) {
			continue
		}
		w.schedule(filepath.Join(w.dir, entry.Name()))
	}
}

// schedule (re)starts the debounce timer for a path
func (w *Worker) schedule(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.pendingMu.Lock()
		if _, ok := w.pending[path]; !ok {
			w.pendingMu.Unlock()
			return
		}
		delete(w.pending, path)
		w.inflight.Add(1)
		w.pendingMu.Unlock()

		defer w.inflight.Done()
		w.submit(path)
	})
}

// submit reads a settled file and hands it to the ingestion service
func (w *Worker) submit(path string) {
	name := filepath.Base(path)
	logger := w.logger.With("file", name)

	info, err := os.Stat(path)
	if err != nil {
		// Moved or deleted while debouncing
		return
	}
	if info.IsDir() {
		return
	}
	if info.Size() > w.maxFileBytes {
		logger.Warn("dropped file too large", "size", info.Size(), "max", w.maxFileBytes)
		w.move(path, rejectedDir, logger)
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("failed to read dropped file", "error", err)
		return
	}

	file, err := w.ingestion.Submit(context.Background(), domain.FileUpload{
		Name:    name,
		Size:    int64(len(content)),
		Content: content,
	})
	switch {
	case err == nil:
		logger.Info("dropped file submitted", "file_id", file.ID, "type", file.Kind)
		w.move(path, processedDir, logger)
	case errors.Is(err, domain.ErrInvalidInput):
		logger.Warn("dropped file rejected", "error", err)
		w.move(path, rejectedDir, logger)
	default:
		// Left in place, picked up again on the next start
		logger.Error("failed to submit dropped file", "error", err)
	}
}

func (w *Worker) move(path, sub string, logger *slog.Logger) {
	target := filepath.Join(w.dir, sub, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(target)
		target = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(target, ext), time.Now().UnixNano(), ext)
	}
	if err := os.Rename(path, target); err != nil {
		logger.Error("failed to move dropped file", "target", target, "error", err)
	}
}

func (w *Worker) logIngestion(event domain.IngestionEvent) {
	if event.Status == domain.FileStatusError {
		w.logger.Warn("ingestion failed", "file_id", event.FileID, "file", event.FileName, "error", event.Error)
		return
	}
	w.logger.Info("ingestion completed", "file_id", event.FileID, "file", event.FileName, "chunks", event.ChunkCount)
}

// ignoredName skips hidden files and editor or download temporaries
func ignoredName(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tmp", ".part", ".crdownload", ".swp":
		return true
	}
	return false
}
