package services

import (
	"encoding/hex"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

// MergeEntries reconciles an incoming collection with the current vault.
//
// Entries are keyed by title, or by a content fingerprint with MergeKeyContent.
// An incoming entry always replaces a current one with the same key, and among
// incoming duplicates the last one wins. The result holds one entry per key,
// newest first. Neither input is modified.
func MergeEntries(current, incoming []*domain.VaultEntry, key domain.MergeKey) ([]*domain.VaultEntry, domain.MergeReport) {
	keyOf := mergeKeyFunc(key)

	byKey := make(map[string]*domain.VaultEntry, len(current)+len(incoming))
	order := make([]string, 0, len(current)+len(incoming))

	put := func(e *domain.VaultEntry) bool {
		k := keyOf(e)
		_, exists := byKey[k]
		if !exists {
			order = append(order, k)
		}
		byKey[k] = e
		return exists
	}

	for _, e := range current {
		put(e)
	}

	report := domain.MergeReport{Imported: len(incoming)}
	for _, e := range incoming {
		if put(e) {
			report.Updated++
		} else {
			report.Added++
		}
	}

	merged := make([]*domain.VaultEntry, 0, len(order))
	for _, k := range order {
		merged = append(merged, byKey[k].Clone())
	}
	sortNewestFirst(merged)

	report.Total = len(merged)
	return merged, report
}

func mergeKeyFunc(key domain.MergeKey) func(*domain.VaultEntry) string {
	if key == domain.MergeKeyContent {
		return contentFingerprint
	}
	return func(e *domain.VaultEntry) string { return e.Title }
}

// contentFingerprint keys an entry by a blake2b digest of its content
func contentFingerprint(e *domain.VaultEntry) string {
	sum := blake2b.Sum256([]byte(e.Content))
	return hex.EncodeToString(sum[:])
}

func sortNewestFirst(entries []*domain.VaultEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
