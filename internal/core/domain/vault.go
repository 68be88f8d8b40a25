package domain

import (
	"fmt"
	"time"
)

// MaxTitleLength is the number of characters kept in a vault entry title
const MaxTitleLength = 100

// titleEllipsis marks a truncated title
const titleEllipsis = "..."

// SyncStatus is the archival state of a vault entry.
// Values keep the wire names used by existing archives.
type SyncStatus string

const (
	SyncStatusArchivedLocal  SyncStatus = "cloud_off"
	SyncStatusPendingUpload  SyncStatus = "cloud_upload"
	SyncStatusArchivedRemote SyncStatus = "cloud_done"
)

// IsValid reports whether s is a known sync status
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusArchivedLocal, SyncStatusPendingUpload, SyncStatusArchivedRemote:
		return true
	}
	return false
}

// VaultEntry is a durable archived conversation turn
type VaultEntry struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"timestamp"`
	Size      string     `json:"size"`
	Status    SyncStatus `json:"status"`
}

// Clone returns a copy of the entry
func (e *VaultEntry) Clone() *VaultEntry {
	c := *e
	return &c
}

// NewVaultEntry builds an entry for an auto-saved turn
func NewVaultEntry(title, content string, now time.Time) *VaultEntry {
	return &VaultEntry{
		ID:        GenerateID(),
		Title:     TruncateTitle(title),
		Content:   content,
		CreatedAt: now,
		Size:      FormatContentSize(content),
		Status:    SyncStatusPendingUpload,
	}
}

// TruncateTitle keeps the first MaxTitleLength characters and appends an ellipsis
// when anything was cut.
func TruncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= MaxTitleLength {
		return title
	}
	return string(runes[:MaxTitleLength]) + titleEllipsis
}

// FormatContentSize renders the content length as "%.1f KB"
func FormatContentSize(content string) string {
	return fmt.Sprintf("%.1f KB", float64(len(content))/1024)
}

// MergeReport summarises a vault import
type MergeReport struct {
	Imported int `json:"imported"`
	Added    int `json:"added"`
	Updated  int `json:"updated"`
	Total    int `json:"total"` // Entries in the vault after the merge
}

// VaultExport is a serialised vault ready to be written to a file
type VaultExport struct {
	FileName string
	Data     []byte
	Count    int
}

// ExportFileName names an export file after the given day
func ExportFileName(now time.Time) string {
	return "galaxy_vault_" + now.Format("2006-01-02") + ".json"
}
