package llm

import (
	"context"
	"fmt"

	"github.com/arxwatch/arxwatch/internal/paper"
)

// Verdict is a provider's relevance judgment for one paper.
type Verdict struct {
	Relevant bool    `json:"relevant"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
}

// Classifier judges the topical relevance of a paper. Implementations
// differ only in the remote endpoint used; callers never branch on the
// concrete provider.
type Classifier interface {
	Classify(ctx context.Context, p *paper.Paper) (Verdict, error)
	Name() string
}

// ProviderError marks a failed remote classification: network, auth,
// quota or an unparseable response. Recoverable by contract — the fine
// filter degrades to the coarse score instead of failing the run.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func providerErr(provider string, err error) error {
	return &ProviderError{Provider: provider, Err: err}
}

// generator is the raw prompt-in, text-out capability each backend
// supplies. The classifier wraps it with prompt construction and
// response parsing shared across providers.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type classifier struct {
	name     string
	gen      generator
	keywords []string
}

func (c *classifier) Name() string { return c.name }

func (c *classifier) Classify(ctx context.Context, p *paper.Paper) (Verdict, error) {
	prompt := buildPrompt(p, c.keywords)

	response, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		return Verdict{}, providerErr(c.name, err)
	}

	verdict, err := parseVerdict(response)
	if err != nil {
		return Verdict{}, providerErr(c.name, err)
	}
	return verdict, nil
}
