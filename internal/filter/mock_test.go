package filter

import (
	"context"
	"sync/atomic"

	"github.com/arxwatch/arxwatch/internal/llm"
	"github.com/arxwatch/arxwatch/internal/paper"
)

type MockClassifier struct {
	Verdict llm.Verdict
	Err     error
	Calls   atomic.Int64
}

func (m *MockClassifier) Classify(ctx context.Context, p *paper.Paper) (llm.Verdict, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return llm.Verdict{}, m.Err
	}
	return m.Verdict, nil
}

func (m *MockClassifier) Name() string { return "mock" }

type MockStore struct {
	Seen    map[string]bool
	Err     error
	Touched []string
}

func (m *MockStore) Exists(ctx context.Context, id string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	if m.Seen[id] {
		m.Touched = append(m.Touched, id)
		return true, nil
	}
	return false, nil
}
