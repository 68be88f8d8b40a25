package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTruncateTitle(t *testing.T) {
	short := "What shapes the climate of the northern delta?"
	if got := TruncateTitle(short); got != short {
		t.Errorf("short title should be unchanged, got %q", got)
	}

	exact := strings.Repeat("a", MaxTitleLength)
	if got := TruncateTitle(exact); got != exact {
		t.Error("title of exactly MaxTitleLength should be unchanged")
	}

	long := strings.Repeat("b", MaxTitleLength+20)
	got := TruncateTitle(long)
	if got != strings.Repeat("b", MaxTitleLength)+"..." {
		t.Errorf("unexpected truncation: %q", got)
	}

	// Multi-byte characters are counted as characters, not bytes
	viet := strings.Repeat("Đ", MaxTitleLength+1)
	if got := TruncateTitle(viet); []rune(got)[MaxTitleLength] != '.' {
		t.Errorf("expected rune-aware truncation, got %q", got)
	}
}

func TestNewVaultEntry(t *testing.T) {
	now := time.Date(2024, 5, 12, 8, 0, 0, 0, time.UTC)
	content := strings.Repeat("x", 2048)

	e := NewVaultEntry("Monsoon patterns", content, now)

	if e.ID == "" {
		t.Error("expected generated ID")
	}
	if e.Title != "Monsoon patterns" {
		t.Errorf("unexpected title %q", e.Title)
	}
	if e.Size != "2.0 KB" {
		t.Errorf("expected 2.0 KB, got %s", e.Size)
	}
	if e.Status != SyncStatusPendingUpload {
		t.Errorf("expected pending upload, got %s", e.Status)
	}
	if !e.CreatedAt.Equal(now) {
		t.Errorf("expected %v, got %v", now, e.CreatedAt)
	}
}

func TestVaultEntryClone(t *testing.T) {
	e := &VaultEntry{ID: "1", Title: "A"}
	c := e.Clone()
	c.Title = "B"
	if e.Title != "A" {
		t.Error("clone must not alias the original")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-05-12T00:00:00.000Z", time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)},
		{"2024-05-12T10:30:00Z", time.Date(2024, 5, 12, 10, 30, 0, 0, time.UTC)},
		{"2024-05-12T10:30:00", time.Date(2024, 5, 12, 10, 30, 0, 0, time.UTC)},
		{" 2024-05-12 10:30:00 ", time.Date(2024, 5, 12, 10, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}

func TestParseImport(t *testing.T) {
	payload := []byte(`[
		{"title": "A", "content": "x", "timestamp": "2024-01-01"},
		{"id": "keep-me", "title": "B", "content": "y", "timestamp": "2024-02-01T00:00:00Z", "size": "9.9 KB", "status": "cloud_off"}
	]`)

	entries, err := ParseImport(payload, func() string { return "generated" })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if entries[0].ID != "generated" {
		t.Errorf("expected generated id, got %s", entries[0].ID)
	}
	if entries[0].Size != "0.0 KB" {
		t.Errorf("expected computed size, got %s", entries[0].Size)
	}
	if entries[1].ID != "keep-me" {
		t.Errorf("expected provided id, got %s", entries[1].ID)
	}
	if entries[1].Size != "9.9 KB" {
		t.Errorf("expected provided size, got %s", entries[1].Size)
	}
	for _, e := range entries {
		if e.Status != SyncStatusArchivedRemote {
			t.Errorf("expected status forced to archived remote, got %s", e.Status)
		}
	}
}

func TestParseImport_RejectsWholePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{{{`},
		{"not an array", `{"title": "A"}`},
		{"missing title", `[{"content": "x", "timestamp": "2024-01-01"}]`},
		{"blank title", `[{"title": "  ", "content": "x", "timestamp": "2024-01-01"}]`},
		{"missing content", `[{"title": "A", "timestamp": "2024-01-01"}]`},
		{"missing timestamp", `[{"title": "A", "content": "x"}]`},
		{"bad timestamp", `[{"title": "A", "content": "x", "timestamp": "soon"}]`},
		{"wrong type", `[{"title": 42, "content": "x", "timestamp": "2024-01-01"}]`},
		{"one bad among good", `[{"title": "A", "content": "x", "timestamp": "2024-01-01"}, {"title": "B"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := ParseImport([]byte(tt.payload), nil)
			if !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("expected ErrInvalidPayload, got %v", err)
			}
			if entries != nil {
				t.Error("expected no entries on failure")
			}
		})
	}
}

func TestEncodeDecodeArchive(t *testing.T) {
	now := time.Date(2024, 5, 12, 9, 15, 30, 0, time.UTC)
	entries := []*VaultEntry{
		{ID: "1", Title: "A", Content: "alpha", CreatedAt: now, Size: "0.0 KB", Status: SyncStatusArchivedLocal},
		{ID: "2", Title: "B", Content: "beta", CreatedAt: now.Add(-time.Hour), Size: "0.0 KB", Status: SyncStatusPendingUpload},
	}

	data, err := EncodeVaultPayload(entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"timestamp": "2024-05-12T09:15:30.000Z"`) {
		t.Errorf("expected textual timestamp in payload, got %s", data)
	}

	decoded, err := DecodeArchive(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(decoded))
	}
	if decoded[1].Status != SyncStatusPendingUpload {
		t.Errorf("archive decode should keep status, got %s", decoded[1].Status)
	}
	if !decoded[0].CreatedAt.Equal(now) {
		t.Errorf("expected %v, got %v", now, decoded[0].CreatedAt)
	}
}

func TestDecodeArchive_Corrupt(t *testing.T) {
	if _, err := DecodeArchive([]byte("not json")); !errors.Is(err, ErrCorruptArchive) {
		t.Errorf("expected ErrCorruptArchive, got %v", err)
	}

	entries, err := DecodeArchive(nil)
	if err != nil {
		t.Fatalf("empty payload should decode cleanly: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty collection, got %d", len(entries))
	}
}
