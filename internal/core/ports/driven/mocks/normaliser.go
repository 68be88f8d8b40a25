package mocks

import (
	"github.com/custodia-labs/galaxy-core/internal/core/ports/driven"
)

// MockNormaliser is a mock implementation of Normaliser for testing
type MockNormaliser struct {
	SupportedTypesFn func() []string
	PriorityFn       func() int
	NormaliseFn      func(content []byte, mimeType string) (string, error)
}

func NewMockNormaliser() *MockNormaliser {
	return &MockNormaliser{}
}

func (m *MockNormaliser) Normalise(content []byte, mimeType string) (string, error) {
	if m.NormaliseFn != nil {
		return m.NormaliseFn(content, mimeType)
	}
	return string(content), nil
}

func (m *MockNormaliser) SupportedTypes() []string {
	if m.SupportedTypesFn != nil {
		return m.SupportedTypesFn()
	}
	return []string{"*/*"}
}

func (m *MockNormaliser) Priority() int {
	if m.PriorityFn != nil {
		return m.PriorityFn()
	}
	return 100
}

// MockNormaliserRegistry is a mock implementation of NormaliserRegistry for testing
type MockNormaliserRegistry struct {
	GetFn      func(mimeType string) driven.Normaliser
	normaliser driven.Normaliser
}

func NewMockNormaliserRegistry() *MockNormaliserRegistry {
	return &MockNormaliserRegistry{
		normaliser: NewMockNormaliser(),
	}
}

func (m *MockNormaliserRegistry) Get(mimeType string) driven.Normaliser {
	if m.GetFn != nil {
		return m.GetFn(mimeType)
	}
	return m.normaliser
}

func (m *MockNormaliserRegistry) GetAll(mimeType string) []driven.Normaliser {
	if n := m.Get(mimeType); n != nil {
		return []driven.Normaliser{n}
	}
	return nil
}

func (m *MockNormaliserRegistry) Register(normaliser driven.Normaliser) {
	m.normaliser = normaliser
}

// List returns all registered MIME types
func (m *MockNormaliserRegistry) List() []string {
	if m.normaliser != nil {
		return m.normaliser.SupportedTypes()
	}
	return []string{}
}

// SetNormaliser sets the normaliser returned by Get
func (m *MockNormaliserRegistry) SetNormaliser(n driven.Normaliser) {
	m.normaliser = n
}

// MockPostProcessorPipeline is a mock implementation of PostProcessorPipeline for testing
type MockPostProcessorPipeline struct {
	ProcessFn func(content string) []driven.Chunk
}

func NewMockPostProcessorPipeline() *MockPostProcessorPipeline {
	return &MockPostProcessorPipeline{}
}

func (m *MockPostProcessorPipeline) Process(content string) []driven.Chunk {
	if m.ProcessFn != nil {
		return m.ProcessFn(content)
	}
	// Default: one chunk with the whole content
	if content == "" {
		return nil
	}
	return []driven.Chunk{{Content: content, EndOffset: len(content)}}
}

func (m *MockPostProcessorPipeline) Add(processor driven.PostProcessor) {}

func (m *MockPostProcessorPipeline) List() []string {
	return []string{"mock-processor"}
}
