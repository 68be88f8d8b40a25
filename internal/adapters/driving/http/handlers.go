package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ComponentHealth is the health of one backing component
type ComponentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse represents the API health response
// @Description API health response
type HealthResponse struct {
	Status     string                     `json:"status" example:"healthy"`
	Version    string                     `json:"version"`
	Components map[string]ComponentHealth `json:"components"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health of the API and its archive backend
// @Tags         Health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     "healthy",
		Version:    s.version,
		Components: map[string]ComponentHealth{"server": {Status: "healthy"}},
	}

	if s.archive != nil {
		if err := s.archive.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Components["archive"] = ComponentHealth{Status: "unhealthy", Error: err.Error()}
		} else {
			resp.Components["archive"] = ComponentHealth{Status: "healthy"}
		}
	}

	// Always 200 - the service is up and can respond
	writeJSON(w, http.StatusOK, resp)
}

// handleReady godoc
// @Summary      Readiness check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.archive != nil {
		if err := s.archive.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "archive unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Tags         Health
// @Produce      json
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Ingestion endpoints

// handleUploadFile godoc
// @Summary      Upload a document
// @Description  Accepts a multipart file and queues it for ingestion
// @Tags         Files
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Document to ingest"
// @Success      202   {object}  domain.UploadedFile
// @Failure      400   {object}  ErrorResponse  "Missing file or unsupported kind"
// @Failure      503   {object}  ErrorResponse  "Ingestion stopped"
// @Router       /files [post]
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	uploaded, err := s.ingestion.Submit(r.Context(), domain.FileUpload{
		Name:    header.Filename,
		Size:    int64(len(content)),
		Kind:    domain.DocumentKind(r.FormValue("type")),
		Content: content,
	})
	if err != nil {
		writeServiceError(w, err, "upload failed")
		return
	}

	writeJSON(w, http.StatusAccepted, uploaded)
}

// handleListFiles godoc
// @Summary      List documents
// @Tags         Files
// @Produce      json
// @Success      200  {array}  domain.UploadedFile
// @Router       /files [get]
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ingestion.List(r.Context()))
}

// handleGetFile godoc
// @Summary      Get document status
// @Tags         Files
// @Produce      json
// @Param        id   path      string  true  "File ID"
// @Success      200  {object}  domain.UploadedFile
// @Failure      404  {object}  ErrorResponse  "File not found"
// @Router       /files/{id} [get]
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	file, err := s.ingestion.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "failed to get file")
		return
	}
	writeJSON(w, http.StatusOK, file)
}

// handleDeleteFile godoc
// @Summary      Forget a document
// @Description  Removes the file from the list. Knowledge it produced stays searchable.
// @Tags         Files
// @Param        id   path      string  true  "File ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse  "File not found"
// @Router       /files/{id} [delete]
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.ingestion.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err, "failed to remove file")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFileEvents godoc
// @Summary      Stream ingestion events
// @Description  Newline-delimited JSON, one event per completed or failed file
// @Tags         Files
// @Produce      application/x-ndjson
// @Router       /files/events [get]
func (s *Server) handleFileEvents(w http.ResponseWriter, r *http.Request) {
	events, cancel := s.ingestion.Subscribe()
	defer cancel()

	stream := newNDJSONStream(w)
	stream.clearDeadline()
	stream.begin()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := stream.send(event); err != nil {
				return
			}
		}
	}
}

// ProgressResponse is the global ingestion progress
type ProgressResponse struct {
	Progress *int `json:"progress"` // null when nothing is processing
}

// handleProgress godoc
// @Summary      Global ingestion progress
// @Tags         Files
// @Produce      json
// @Success      200  {object}  ProgressResponse
// @Router       /progress [get]
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	var resp ProgressResponse
	if progress, ok := s.ingestion.Progress(); ok {
		resp.Progress = &progress
	}
	writeJSON(w, http.StatusOK, resp)
}

// Retrieval endpoints

// searchRequest is the request body for search
type searchRequest struct {
	Query string `json:"query"`
}

// SearchResponse holds the matched chunks and the joined grounding text
type SearchResponse struct {
	Chunks  []*domain.DocumentChunk `json:"chunks"`
	Context string                  `json:"context"`
}

// handleSearch godoc
// @Summary      Search knowledge
// @Description  Case-insensitive substring match on chunk content and topic
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      searchRequest  true  "Search query"
// @Success      200      {object}  SearchResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chunks, err := s.retrieval.Retrieve(r.Context(), req.Query)
	if err != nil {
		writeServiceError(w, err, "search failed")
		return
	}

	resp := SearchResponse{Chunks: chunks}
	for i, c := range chunks {
		if i > 0 {
			resp.Context += "\n\n"
		}
		resp.Context += c.Content
	}
	writeJSON(w, http.StatusOK, resp)
}

// Conversation endpoints

// imagePayload is an attached image, data is base64 in JSON
type imagePayload struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// askRequest is the request body for ask
type askRequest struct {
	Query string        `json:"query"`
	Image *imagePayload `json:"image,omitempty"`
}

// askEvent is one line of the ask stream
type askEvent struct {
	domain.TurnEvent
	Turn  *domain.ConversationTurn `json:"turn,omitempty"`
	Error string                   `json:"error,omitempty"`
}

const (
	askEventSettled domain.TurnEventType = "settled"
	askEventError   domain.TurnEventType = "error"
)

// handleAsk godoc
// @Summary      Ask a question
// @Description  Streams turn events as newline-delimited JSON and ends with the settled turn
// @Tags         Conversation
// @Accept       json
// @Produce      application/x-ndjson
// @Param        request  body      askRequest  true  "Question and optional image"
// @Failure      400      {object}  ErrorResponse  "Missing question"
// @Failure      503      {object}  ErrorResponse  "Generation unavailable"
// @Router       /ask [post]
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stream := newNDJSONStream(w)
	stream.clearDeadline()

	ask := domain.AskRequest{
		Query: req.Query,
		Observer: func(ev domain.TurnEvent) {
			stream.begin()
			_ = stream.send(askEvent{TurnEvent: ev})
		},
	}
	if req.Image != nil {
		ask.Image = &domain.Image{MimeType: req.Image.MimeType, Data: req.Image.Data}
	}

	turn, err := s.answer.Ask(r.Context(), ask)
	if err != nil {
		if !stream.started() {
			writeServiceError(w, err, "answer failed")
			return
		}
		s.logger.Error("ask failed mid-stream", "error", err)
		_ = stream.send(askEvent{TurnEvent: domain.TurnEvent{Type: askEventError}, Error: err.Error()})
		return
	}

	stream.begin()
	_ = stream.send(askEvent{
		TurnEvent: domain.TurnEvent{Type: askEventSettled, TurnID: turn.ID, Phase: domain.TurnPhaseSettled},
		Turn:      turn,
	})
}

// ConversationResponse is the current session
type ConversationResponse struct {
	Phase domain.TurnPhase           `json:"phase"`
	Turns []*domain.ConversationTurn `json:"turns"`
}

// handleConversation godoc
// @Summary      Get the conversation
// @Tags         Conversation
// @Produce      json
// @Success      200  {object}  ConversationResponse
// @Router       /conversation [get]
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ConversationResponse{
		Phase: s.answer.Phase(),
		Turns: s.answer.Conversation(r.Context()),
	})
}

// handleResetConversation godoc
// @Summary      Start a new conversation
// @Tags         Conversation
// @Produce      json
// @Success      200  {object}  ConversationResponse
// @Router       /conversation/reset [post]
func (s *Server) handleResetConversation(w http.ResponseWriter, r *http.Request) {
	s.answer.Reset(r.Context())
	s.handleConversation(w, r)
}

// Vault endpoints

// handleListVault godoc
// @Summary      List archived turns
// @Tags         Vault
// @Produce      json
// @Success      200  {array}  domain.VaultEntry
// @Router       /vault [get]
func (s *Server) handleListVault(w http.ResponseWriter, r *http.Request) {
	entries, err := s.vault.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to list vault")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleGetVaultEntry godoc
// @Summary      Get an archived turn
// @Tags         Vault
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  domain.VaultEntry
// @Failure      404  {object}  ErrorResponse  "Entry not found"
// @Router       /vault/{id} [get]
func (s *Server) handleGetVaultEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.vault.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "failed to get entry")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleImportVault godoc
// @Summary      Import a vault file
// @Description  Validates the whole payload first; nothing is merged when any entry is invalid
// @Tags         Vault
// @Accept       json
// @Produce      json
// @Success      200  {object}  domain.MergeReport
// @Failure      400  {object}  ErrorResponse  "Invalid payload"
// @Failure      409  {object}  ErrorResponse  "Archive busy"
// @Router       /vault/import [post]
func (s *Server) handleImportVault(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	report, err := s.vault.Import(r.Context(), payload)
	if err != nil {
		writeServiceError(w, err, "import failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleExportVault godoc
// @Summary      Export the vault
// @Description  Downloads the vault as a dated JSON file
// @Tags         Vault
// @Produce      json
// @Success      200
// @Router       /vault/export [get]
func (s *Server) handleExportVault(w http.ResponseWriter, r *http.Request) {
	export, err := s.vault.Export(r.Context(), time.Now())
	if err != nil {
		writeServiceError(w, err, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	w.Header().Set("X-Vault-Count", strconv.Itoa(export.Count))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

// SyncResponse reports how many entries were marked archived-remote
type SyncResponse struct {
	Synced int `json:"synced"`
}

// handleSyncVault godoc
// @Summary      Mark the vault synced
// @Tags         Vault
// @Produce      json
// @Success      200  {object}  SyncResponse
// @Router       /vault/sync [post]
func (s *Server) handleSyncVault(w http.ResponseWriter, r *http.Request) {
	changed, err := s.vault.MarkSynced(r.Context())
	if err != nil {
		writeServiceError(w, err, "sync failed")
		return
	}
	writeJSON(w, http.StatusOK, SyncResponse{Synced: changed})
}

// handleRestoreVaultEntry godoc
// @Summary      Restore an archived turn into the conversation
// @Tags         Vault
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  ConversationResponse
// @Failure      404  {object}  ErrorResponse  "Entry not found"
// @Router       /vault/{id}/restore [post]
func (s *Server) handleRestoreVaultEntry(w http.ResponseWriter, r *http.Request) {
	turns, err := s.answer.Restore(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "restore failed")
		return
	}
	writeJSON(w, http.StatusOK, ConversationResponse{Phase: s.answer.Phase(), Turns: turns})
}

// TrackingRequest toggles automatic archival
type TrackingRequest struct {
	Enabled bool `json:"enabled"`
}

// handleGetTracking godoc
// @Summary      Get archival tracking
// @Tags         Vault
// @Produce      json
// @Success      200  {object}  TrackingRequest
// @Router       /vault/tracking [get]
func (s *Server) handleGetTracking(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TrackingRequest{Enabled: s.vault.Tracking()})
}

// handleSetTracking godoc
// @Summary      Toggle archival tracking
// @Tags         Vault
// @Accept       json
// @Produce      json
// @Param        request  body      TrackingRequest  true  "Tracking flag"
// @Success      200      {object}  TrackingRequest
// @Router       /vault/tracking [put]
func (s *Server) handleSetTracking(w http.ResponseWriter, r *http.Request) {
	var req TrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.vault.SetTracking(req.Enabled)
	writeJSON(w, http.StatusOK, TrackingRequest{Enabled: s.vault.Tracking()})
}

// Helper functions

// ndjsonStream writes newline-delimited JSON and flushes after every line
type ndjsonStream struct {
	mu    sync.Mutex
	w     http.ResponseWriter
	rc    *http.ResponseController
	enc   *json.Encoder
	begun bool
}

func newNDJSONStream(w http.ResponseWriter) *ndjsonStream {
	return &ndjsonStream{w: w, rc: http.NewResponseController(w), enc: json.NewEncoder(w)}
}

// clearDeadline lifts the server write timeout for long-lived streams
func (s *ndjsonStream) clearDeadline() {
	_ = s.rc.SetWriteDeadline(time.Time{})
}

func (s *ndjsonStream) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.begun {
		return
	}
	s.begun = true
	s.w.Header().Set("Content-Type", "application/x-ndjson")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.WriteHeader(http.StatusOK)
	_ = s.rc.Flush()
}

func (s *ndjsonStream) started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begun
}

func (s *ndjsonStream) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(v); err != nil {
		return err
	}
	return s.rc.Flush()
}

// writeServiceError maps domain sentinels to status codes
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &maxBytes):
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
	case errors.Is(err, domain.ErrArchiveBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrGenerationUnavailable), errors.Is(err, domain.ErrSchedulerStopped):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
