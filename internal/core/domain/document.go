package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FileStatus represents the ingestion state of an uploaded file
type FileStatus string

const (
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusError      FileStatus = "error"
)

// DocumentKind is the closed set of document formats accepted for ingestion
type DocumentKind string

const (
	DocumentKindPDF   DocumentKind = "pdf"
	DocumentKindDOCX  DocumentKind = "docx"
	DocumentKindPPTX  DocumentKind = "pptx"
	DocumentKindImage DocumentKind = "img"
)

// IsValid reports whether k is one of the known document kinds
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindPDF, DocumentKindDOCX, DocumentKindPPTX, DocumentKindImage:
		return true
	}
	return false
}

// MimeType returns the canonical MIME type for the kind
func (k DocumentKind) MimeType() string {
	switch k {
	case DocumentKindPDF:
		return "application/pdf"
	case DocumentKindPPTX:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case DocumentKindImage:
		return "image/*"
	default:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
}

// KindFromName infers the document kind from a file name.
// Anything that is not a PDF, slide deck or image is treated as a word document.
func KindFromName(name string) DocumentKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return DocumentKindPDF
	case ".jpg", ".jpeg", ".png":
		return DocumentKindImage
	case ".ppt", ".pptx":
		return DocumentKindPPTX
	default:
		return DocumentKindDOCX
	}
}

// MIMETypeFor returns the MIME type an upload is normalised as.
// Plain text and markdown notes are accepted even though they are filed as documents.
func MIMETypeFor(name string, kind DocumentKind) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return kind.MimeType()
}

// UploadedFile is one document moving through the ingestion pipeline
type UploadedFile struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Size      string       `json:"size"`     // Human readable, e.g. "1.2 MB"
	Progress  int          `json:"progress"` // 0..100
	Status    FileStatus   `json:"status"`
	Kind      DocumentKind `json:"type"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// IsProcessing reports whether the file is still being ingested
func (f *UploadedFile) IsProcessing() bool {
	return f.Status == FileStatusProcessing
}

// FormatFileSize renders a byte count the way uploads are displayed ("%.1f MB")
func FormatFileSize(bytes int64) string {
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}

// FileUpload is the input for submitting a file for ingestion
type FileUpload struct {
	Name    string       `json:"name"`
	Size    int64        `json:"size"`
	Kind    DocumentKind `json:"type,omitempty"` // Inferred from Name when empty
	Content []byte       `json:"-"`
}

// DocumentChunk is the atomic unit of retrievable knowledge.
// Chunks are immutable once created.
type DocumentChunk struct {
	ID       string   `json:"id"` // <file id>-<sequence>
	FileID   string   `json:"file_id"`
	Content  string   `json:"content"`
	Topic    string   `json:"topic"`
	Keywords []string `json:"keywords"`
}

// ChunkID derives a chunk identifier from its file and 1-based sequence
func ChunkID(fileID string, seq int) string {
	return fmt.Sprintf("%s-%d", fileID, seq)
}

// IngestionEvent is published once when a file finishes ingestion
type IngestionEvent struct {
	FileID     string     `json:"file_id"`
	FileName   string     `json:"file_name"`
	Status     FileStatus `json:"status"`
	ChunkCount int        `json:"chunk_count"`
	Error      string     `json:"error,omitempty"`
	At         time.Time  `json:"at"`
}
