package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

func entry(id, title, content string, day int) *domain.VaultEntry {
	return &domain.VaultEntry{
		ID:        id,
		Title:     title,
		Content:   content,
		CreatedAt: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Status:    domain.SyncStatusArchivedLocal,
	}
}

func TestMergeEntries_IncomingWins(t *testing.T) {
	current := []*domain.VaultEntry{entry("1", "A", "old", 1)}
	incoming := []*domain.VaultEntry{entry("2", "A", "x", 1)}

	merged, report := MergeEntries(current, incoming, domain.MergeKeyTitle)

	require.Len(t, merged, 1)
	assert.Equal(t, "A", merged[0].Title)
	assert.Equal(t, "x", merged[0].Content)
	assert.Equal(t, domain.MergeReport{Imported: 1, Added: 0, Updated: 1, Total: 1}, report)
}

func TestMergeEntries_AddsAndSortsNewestFirst(t *testing.T) {
	current := []*domain.VaultEntry{
		entry("1", "Old", "a", 1),
		entry("2", "Mid", "b", 5),
	}
	incoming := []*domain.VaultEntry{
		entry("3", "New", "c", 9),
		entry("4", "Mid", "b2", 3),
	}

	merged, report := MergeEntries(current, incoming, domain.MergeKeyTitle)

	titles := make([]string, len(merged))
	for i, e := range merged {
		titles[i] = e.Title
	}
	assert.Equal(t, []string{"New", "Mid", "Old"}, titles)
	assert.Equal(t, "b2", merged[1].Content)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 3, report.Total)
}

func TestMergeEntries_LastIncomingDuplicateWins(t *testing.T) {
	incoming := []*domain.VaultEntry{
		entry("1", "A", "first", 1),
		entry("2", "A", "second", 2),
	}

	merged, report := MergeEntries(nil, incoming, domain.MergeKeyTitle)

	require.Len(t, merged, 1)
	assert.Equal(t, "second", merged[0].Content)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Updated)
}

func TestMergeEntries_Properties(t *testing.T) {
	current := make([]*domain.VaultEntry, 0)
	incoming := make([]*domain.VaultEntry, 0)
	for i := 0; i < 20; i++ {
		current = append(current, entry(fmt.Sprintf("c%d", i), fmt.Sprintf("T%d", i%7), "c", i%28+1))
		incoming = append(incoming, entry(fmt.Sprintf("i%d", i), fmt.Sprintf("T%d", i%11), fmt.Sprintf("i%d", i), (i*3)%28+1))
	}

	merged, _ := MergeEntries(current, incoming, domain.MergeKeyTitle)

	assert.LessOrEqual(t, len(merged), len(current)+len(incoming))

	seen := make(map[string]bool)
	for _, e := range merged {
		assert.False(t, seen[e.Title], "title %q appears twice", e.Title)
		seen[e.Title] = true
	}

	lastIncoming := make(map[string]string)
	for _, e := range incoming {
		lastIncoming[e.Title] = e.Content
	}
	for _, e := range merged {
		if want, ok := lastIncoming[e.Title]; ok {
			assert.Equal(t, want, e.Content)
		}
	}

	for i := 1; i < len(merged); i++ {
		assert.False(t, merged[i].CreatedAt.After(merged[i-1].CreatedAt), "result must be newest first")
	}
}

func TestMergeEntries_DoesNotMutateInputs(t *testing.T) {
	current := []*domain.VaultEntry{entry("1", "A", "old", 1)}
	incoming := []*domain.VaultEntry{entry("2", "A", "x", 2)}

	merged, _ := MergeEntries(current, incoming, domain.MergeKeyTitle)
	merged[0].Content = "changed"

	assert.Equal(t, "old", current[0].Content)
	assert.Equal(t, "x", incoming[0].Content)
}

func TestMergeEntries_ContentKey(t *testing.T) {
	current := []*domain.VaultEntry{entry("1", "A", "same", 1)}
	incoming := []*domain.VaultEntry{
		entry("2", "B", "same", 2),
		entry("3", "A", "different", 3),
	}

	merged, report := MergeEntries(current, incoming, domain.MergeKeyContent)

	require.Len(t, merged, 2)
	assert.Equal(t, "A", merged[0].Title)
	assert.Equal(t, "different", merged[0].Content)
	assert.Equal(t, "B", merged[1].Title)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Updated)
}
