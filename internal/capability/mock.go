package capability

import (
	"context"

	"github.com/soyeahso/chainsense/internal/domain"
)

// MockCapability is a test double for Capability.
type MockCapability struct {
	CapabilityName string
	AnalyzeFunc    func(ctx context.Context, req Request) (*domain.AnalysisResult, error)
}

func (m *MockCapability) Name() string { return m.CapabilityName }

func (m *MockCapability) Analyze(ctx context.Context, req Request) (*domain.AnalysisResult, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, req)
	}
	return &domain.AnalysisResult{
		Summary:    "mock analysis result",
		Confidence: 1,
	}, nil
}
