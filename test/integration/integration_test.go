package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arxwatch/arxwatch/internal/agent"
	"github.com/arxwatch/arxwatch/internal/config"
	"github.com/arxwatch/arxwatch/internal/paper"
)

// fakeProvider serves an OpenAI-compatible chat completion whose
// message content is a relevance verdict.
func fakeProvider(t *testing.T, relevant bool, score float64) *httptest.Server {
	t.Helper()
	verdict, err := json.Marshal(map[string]interface{}{
		"relevant": relevant,
		"score":    score,
		"reason":   "test verdict",
	})
	require.NoError(t, err)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"id":      "cmpl-test",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "deepseek-chat",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": string(verdict)},
					"finish_reason": "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

type fixedFetcher struct {
	papers []paper.Paper
}

func (f *fixedFetcher) Fetch(ctx context.Context) ([]paper.Paper, error) {
	out := make([]paper.Paper, len(f.papers))
	copy(out, f.papers)
	return out, nil
}

func testConfig(t *testing.T, baseURL string, maxStorage int) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Filter.Provider = "deepseek"
	cfg.Filter.APIKey = "sk-test"
	cfg.Filter.BaseURL = baseURL
	cfg.Filter.Keywords = []string{"HPC", "GPU"}
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "papers.db")
	cfg.Storage.MaxStorageSize = maxStorage
	require.NoError(t, cfg.Validate())
	return &cfg
}

func candidates() []paper.Paper {
	published := time.Now().Add(-24 * time.Hour)
	return []paper.Paper{
		{ID: "2601.00001", Title: "GPU-accelerated training", Summary: "HPC at scale", Published: published},
		{ID: "2601.00002", Title: "Sociology of penguins", Summary: "a field study", Published: published},
		{ID: "2601.00003", Title: "MPI for GPU clusters", Summary: "communication layers", Published: published},
	}
}

func TestFullCycle_FetchFilterStore(t *testing.T) {
	provider := fakeProvider(t, true, 0.9)
	defer provider.Close()

	cfg := testConfig(t, provider.URL, 0)
	a, err := agent.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	a.SetFetcher(&fixedFetcher{papers: candidates()})

	stats, err := a.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Candidates)
	// The penguin paper never reaches the provider.
	assert.Equal(t, 2, stats.FineCalls)
	assert.Equal(t, 2, stats.Relevant)
	assert.Zero(t, stats.Degraded)

	// Relevant and irrelevant papers are both stored.
	st, err := a.Store().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
}

func TestFullCycle_SecondRunIsDeduplicated(t *testing.T) {
	provider := fakeProvider(t, true, 0.9)
	defer provider.Close()

	cfg := testConfig(t, provider.URL, 0)
	a, err := agent.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	a.SetFetcher(&fixedFetcher{papers: candidates()})

	_, err = a.RunOnce(context.Background())
	require.NoError(t, err)

	stats, err := a.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Candidates)
	assert.Equal(t, 0, stats.FineCalls)

	st, err := a.Store().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
}

func TestFullCycle_ProviderDownDegradesToKeywords(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exhausted", http.StatusTooManyRequests)
	}))
	defer provider.Close()

	cfg := testConfig(t, provider.URL, 0)
	// Both keywords must match the coarse score needed to pass 0.7.
	cfg.Filter.RelevanceThreshold = 0.7
	a, err := agent.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	a.SetFetcher(&fixedFetcher{papers: candidates()})

	stats, err := a.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FineCalls)
	assert.Equal(t, 2, stats.Degraded)
	// "GPU-accelerated training" + "HPC at scale" matches both keywords
	// (coarse 1.0 >= 0.7); "MPI for GPU clusters" matches only GPU
	// (coarse 0.5 < 0.7).
	assert.Equal(t, 1, stats.Relevant)
}

func TestFullCycle_EvictionUnderCapacity(t *testing.T) {
	provider := fakeProvider(t, true, 0.9)
	defer provider.Close()

	cfg := testConfig(t, provider.URL, 2)
	a, err := agent.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	a.SetFetcher(&fixedFetcher{papers: candidates()})

	_, err = a.RunOnce(context.Background())
	require.NoError(t, err)

	st, err := a.Store().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 2, st.MaxStorageSize)
}
