package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/arxwatch/arxwatch/internal/config"
)

// NewClassifier builds the classifier selected by cfg.Provider. The
// provider is dispatched once here; the returned Classifier is used
// uniformly afterwards.
func NewClassifier(ctx context.Context, cfg config.FilterConfig) (Classifier, error) {
	provider := strings.ToLower(cfg.Provider)

	var (
		gen generator
		err error
	)
	switch provider {
	case "deepseek":
		gen = NewOpenAICompatGenerator(cfg.APIKey,
			defaultStr(cfg.Model, "deepseek-chat"),
			defaultStr(cfg.BaseURL, "https://api.deepseek.com"))

	case "qwen":
		gen = NewOpenAICompatGenerator(cfg.APIKey,
			defaultStr(cfg.Model, "qwen-turbo"),
			defaultStr(cfg.BaseURL, "https://dashscope.aliyuncs.com/compatible-mode/v1"))

	case "gemini":
		gen, err = NewGeminiGenerator(ctx, cfg.APIKey, defaultStr(cfg.Model, "gemini-2.0-flash"))
		if err != nil {
			return nil, err
		}

	case "claude":
		gen = NewClaudeGenerator(cfg.APIKey,
			defaultStr(cfg.Model, "claude-3-5-haiku-latest"), cfg.BaseURL)

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}

	return &classifier{
		name:     provider,
		gen:      gen,
		keywords: cfg.Keywords,
	}, nil
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
