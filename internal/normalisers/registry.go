package normalisers

import (
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry implements NormaliserRegistry with priority-based selection.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty normaliser registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register registers a normaliser.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, normaliser)
}

// Get retrieves the highest priority normaliser for a MIME type, or nil.
func (r *Registry) Get(mimeType string) driven.Normaliser {
	if matches := r.GetAll(mimeType); len(matches) > 0 {
		return matches[0]
	}
	return nil
}

// GetAll retrieves all normalisers that match a MIME type, highest priority first.
// Equal priorities keep registration order.
func (r *Registry) GetAll(mimeType string) []driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mimeType = baseMIMEType(mimeType)

	var matches []driven.Normaliser
	for _, n := range r.normalisers {
		if supports(n.SupportedTypes(), mimeType) {
			matches = append(matches, n)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})
	return matches
}

// List returns all registered MIME types, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var types []string
	for _, n := range r.normalisers {
		for _, t := range n.SupportedTypes() {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types
}

// baseMIMEType lowercases a MIME type and strips parameters such as charset.
func baseMIMEType(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// supports reports whether any supported type matches mimeType.
// "image/*" matches any image type and "*/*" matches everything.
func supports(supportedTypes []string, mimeType string) bool {
	for _, supported := range supportedTypes {
		supported = strings.ToLower(strings.TrimSpace(supported))
		switch {
		case supported == "*/*", supported == mimeType:
			return true
		case strings.HasSuffix(supported, "/*"):
			if strings.HasPrefix(mimeType, strings.TrimSuffix(supported, "*")) {
				return true
			}
		}
	}
	return false
}

// DefaultRegistry creates a registry with the built-in document normalisers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPlaintextNormaliser())
	r.Register(NewDOCXNormaliser())
	r.Register(NewPPTXNormaliser())
	return r
}
