package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the textual timestamp written into vault payloads
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// timestampLayouts are accepted when reading payloads, most specific first
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// vaultRecord is the wire shape of a vault entry.
// Pointers distinguish missing fields from empty ones during import validation.
type vaultRecord struct {
	ID        *string `json:"id,omitempty"`
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Timestamp *string `json:"timestamp"`
	Size      *string `json:"size,omitempty"`
	Status    *string `json:"status,omitempty"`
}

// ParseTimestamp parses a textual payload timestamp
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// EncodeVaultPayload serialises entries as the textual array-of-records payload
// shared by the archive store and export files.
func EncodeVaultPayload(entries []*VaultEntry) ([]byte, error) {
	records := make([]vaultRecord, 0, len(entries))
	for _, e := range entries {
		ts := e.CreatedAt.UTC().Format(TimestampLayout)
		status := string(e.Status)
		records = append(records, vaultRecord{
			ID:        &e.ID,
			Title:     &e.Title,
			Content:   &e.Content,
			Timestamp: &ts,
			Size:      &e.Size,
			Status:    &status,
		})
	}
	return json.MarshalIndent(records, "", "  ")
}

// DecodeArchive reads a persisted archive payload.
// Any structural problem is reported as ErrCorruptArchive so callers can fall back to
// an empty collection.
func DecodeArchive(data []byte) ([]*VaultEntry, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return []*VaultEntry{}, nil
	}

	var records []vaultRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	entries := make([]*VaultEntry, 0, len(records))
	for i, r := range records {
		entry, err := r.toEntry(GenerateID)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorruptArchive, i, err)
		}
		if r.Status != nil && SyncStatus(*r.Status).IsValid() {
			entry.Status = SyncStatus(*r.Status)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseImport validates an untrusted import payload.
// Every record must carry a title, content and a parseable timestamp; a single bad
// record rejects the whole payload. Missing ids are generated and the sync status is
// forced to SyncStatusArchivedRemote.
func ParseImport(data []byte, newID func() string) ([]*VaultEntry, error) {
	if newID == nil {
		newID = GenerateID
	}

	var records []vaultRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	entries := make([]*VaultEntry, 0, len(records))
	for i, r := range records {
		entry, err := r.toEntry(newID)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidPayload, i, err)
		}
		entry.Status = SyncStatusArchivedRemote
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r vaultRecord) toEntry(newID func() string) (*VaultEntry, error) {
	if r.Title == nil || strings.TrimSpace(*r.Title) == "" {
		return nil, fmt.Errorf("missing title")
	}
	if r.Content == nil {
		return nil, fmt.Errorf("missing content")
	}
	if r.Timestamp == nil {
		return nil, fmt.Errorf("missing timestamp")
	}
	createdAt, err := ParseTimestamp(*r.Timestamp)
	if err != nil {
		return nil, err
	}

	entry := &VaultEntry{
		Title:     *r.Title,
		Content:   *r.Content,
		CreatedAt: createdAt,
		Status:    SyncStatusArchivedLocal,
	}
	if r.ID != nil && *r.ID != "" {
		entry.ID = *r.ID
	} else {
		entry.ID = newID()
	}
	if r.Size != nil && *r.Size != "" {
		entry.Size = *r.Size
	} else {
		entry.Size = FormatContentSize(entry.Content)
	}
	return entry, nil
}
